// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/paperwise/internal/database/query"
	"github.com/tomtom215/paperwise/internal/recommend"
)

// UpsertEmbeddings implements recommend.EmbeddingStore. The batch is
// written in one transaction.
func (db *DB) UpsertEmbeddings(ctx context.Context, embeddings []recommend.Embedding) (err error) {
	if len(embeddings) == 0 {
		return nil
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("upsert", "paper_embeddings", start, err) }()

	return db.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO paper_embeddings (paper_id, vector, model_version, updated_at)
			VALUES (?, CAST(? AS DOUBLE[]), ?, ?)
			ON CONFLICT (paper_id) DO UPDATE SET
				vector = excluded.vector,
				model_version = excluded.model_version,
				updated_at = excluded.updated_at`)
		if err != nil {
			return fmt.Errorf("prepare embedding upsert: %w", err)
		}
		defer closeQuietly(stmt)

		now := time.Now().UTC()
		for i := range embeddings {
			e := &embeddings[i]
			vec, err := encodeVector(e.Vector)
			if err != nil {
				return fmt.Errorf("paper %d: %w", e.PaperID, err)
			}
			updated := e.UpdatedAt
			if updated.IsZero() {
				updated = now
			}
			if _, err := stmt.ExecContext(ctx, e.PaperID, vec, e.ModelVersion, updated); err != nil {
				return conflictError(fmt.Sprintf("upsert embedding %d", e.PaperID), err)
			}
		}
		return nil
	})
}

// EmbeddingsByPaper implements recommend.EmbeddingStore.
func (db *DB) EmbeddingsByPaper(ctx context.Context, paperIDs []int64) (map[int64]recommend.Embedding, error) {
	out := make(map[int64]recommend.Embedding, len(paperIDs))
	if len(paperIDs) == 0 {
		return out, nil
	}

	where, args := query.NewWhereBuilder().AddIDs("paper_id", paperIDs).BuildWithPrefix()
	embeddings, err := db.queryEmbeddings(ctx, `
		SELECT paper_id, vector, model_version, updated_at
		FROM paper_embeddings `+where, args...)
	if err != nil {
		return nil, err
	}
	for i := range embeddings {
		out[embeddings[i].PaperID] = embeddings[i]
	}
	return out, nil
}

// ApprovedEmbeddings implements recommend.EmbeddingStore.
func (db *DB) ApprovedEmbeddings(ctx context.Context) ([]recommend.Embedding, error) {
	return db.queryEmbeddings(ctx, `
		SELECT e.paper_id, e.vector, e.model_version, e.updated_at
		FROM paper_embeddings e
		JOIN papers p ON p.id = e.paper_id
		WHERE p.is_approved
		ORDER BY e.paper_id`)
}

// CountEmbeddings implements recommend.EmbeddingStore.
func (db *DB) CountEmbeddings(ctx context.Context) (n int, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("count", "paper_embeddings", start, err) }()

	if err = db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM paper_embeddings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count embeddings: %w", err)
	}
	return n, nil
}

func (db *DB) queryEmbeddings(ctx context.Context, q string, args ...interface{}) (embeddings []recommend.Embedding, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("select", "paper_embeddings", start, err) }()

	rows, err := db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query embeddings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e recommend.Embedding
		var raw interface{}
		if err := rows.Scan(&e.PaperID, &raw, &e.ModelVersion, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan embedding: %w", err)
		}
		if e.Vector, err = decodeVector(raw); err != nil {
			return nil, fmt.Errorf("paper %d: %w", e.PaperID, err)
		}
		embeddings = append(embeddings, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate embeddings: %w", err)
	}
	return embeddings, nil
}

// encodeVector renders v as a DuckDB list literal, e.g. "[0.5,1]", which
// the insert casts to DOUBLE[].
func encodeVector(v []float64) (string, error) {
	if v == nil {
		return "[]", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode vector: %w", err)
	}
	return string(b), nil
}

// decodeVector converts a scanned DOUBLE[] value. The driver returns LIST
// values as []interface{}.
func decodeVector(raw interface{}) ([]float64, error) {
	switch v := raw.(type) {
	case nil:
		return []float64{}, nil
	case []float64:
		return v, nil
	case []interface{}:
		out := make([]float64, len(v))
		for i, x := range v {
			switch f := x.(type) {
			case float64:
				out[i] = f
			case float32:
				out[i] = float64(f)
			case nil:
				out[i] = 0
			default:
				return nil, fmt.Errorf("unexpected vector element type %T", x)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unexpected vector type %T", raw)
	}
}

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

	"github.com/tomtom215/paperwise/internal/recommend"
)

// ReplaceRecommendations implements recommend.RecommendationStore. The
// delete and the inserts share one transaction, so readers see either the
// old list or the new one.
func (db *DB) ReplaceRecommendations(ctx context.Context, userID int64, recs []recommend.Recommendation) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("replace", "user_recommendations", start, err) }()

	return db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM user_recommendations WHERE user_id = ?`, userID); err != nil {
			return conflictError("delete recommendations", err)
		}
		if len(recs) == 0 {
			return nil
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO user_recommendations (user_id, paper_id, score, reason, created_at)
			VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare recommendation insert: %w", err)
		}
		defer closeQuietly(stmt)

		for i := range recs {
			r := &recs[i]
			created := r.CreatedAt
			if created.IsZero() {
				created = time.Now().UTC()
			}
			if _, err := stmt.ExecContext(ctx, userID, r.PaperID, r.Score, r.Reason, created); err != nil {
				return conflictError(fmt.Sprintf("insert recommendation %d", r.PaperID), err)
			}
		}
		return nil
	})
}

// ListRecommendations implements recommend.RecommendationStore. limit <= 0
// returns every row.
func (db *DB) ListRecommendations(ctx context.Context, userID int64, limit int) (recs []recommend.Recommendation, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("select", "user_recommendations", start, err) }()

	q := `
		SELECT user_id, paper_id, score, reason, created_at
		FROM user_recommendations
		WHERE user_id = ?
		ORDER BY score DESC, paper_id`
	args := []interface{}{userID}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query recommendations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r recommend.Recommendation
		if err := rows.Scan(&r.UserID, &r.PaperID, &r.Score, &r.Reason, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan recommendation: %w", err)
		}
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recommendations: %w", err)
	}
	return recs, nil
}

// ReplaceRelatedPapers implements recommend.RelatedStore.
func (db *DB) ReplaceRelatedPapers(ctx context.Context, paperID int64, related []recommend.RelatedPaper) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("replace", "related_papers", start, err) }()

	return db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM related_papers WHERE paper_id = ?`, paperID); err != nil {
			return conflictError("delete related papers", err)
		}
		if len(related) == 0 {
			return nil
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO related_papers (paper_id, related_paper_id, similarity_score, relation_type)
			VALUES (?, ?, ?, ?)
			ON CONFLICT DO NOTHING`)
		if err != nil {
			return fmt.Errorf("prepare related paper insert: %w", err)
		}
		defer closeQuietly(stmt)

		for i := range related {
			r := &related[i]
			if _, err := stmt.ExecContext(ctx, paperID, r.RelatedPaperID, r.SimilarityScore, string(r.RelationType)); err != nil {
				return conflictError(fmt.Sprintf("insert related paper %d", r.RelatedPaperID), err)
			}
		}
		return nil
	})
}

// ListRelatedPapers implements recommend.RelatedStore.
func (db *DB) ListRelatedPapers(ctx context.Context, paperID int64, limit int) (related []recommend.RelatedPaper, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("select", "related_papers", start, err) }()

	q := `
		SELECT paper_id, related_paper_id, similarity_score, relation_type
		FROM related_papers
		WHERE paper_id = ?
		ORDER BY similarity_score DESC, related_paper_id, relation_type`
	args := []interface{}{paperID}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query related papers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r recommend.RelatedPaper
		var relation string
		if err := rows.Scan(&r.PaperID, &r.RelatedPaperID, &r.SimilarityScore, &relation); err != nil {
			return nil, fmt.Errorf("scan related paper: %w", err)
		}
		r.RelationType = recommend.RelationType(relation)
		related = append(related, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate related papers: %w", err)
	}
	return related, nil
}

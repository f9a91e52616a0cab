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

	"github.com/tomtom215/paperwise/internal/database/query"
	"github.com/tomtom215/paperwise/internal/recommend"
)

// paperSelect reads papers with the derived citation count.
const paperSelect = `
	SELECT p.id, p.title, p.summary, p.abstract, p.is_approved,
		COALESCE(c.cnt, 0) AS citation_count,
		p.download_count, p.view_count, p.created_at
	FROM papers p
	LEFT JOIN (
		SELECT cited_paper_id, COUNT(*) AS cnt
		FROM citations
		GROUP BY cited_paper_id
	) c ON c.cited_paper_id = p.id`

// ApprovedPapers implements recommend.Corpus.
func (db *DB) ApprovedPapers(ctx context.Context) (papers []recommend.Paper, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("select", "papers", start, err) }()

	rows, err := db.conn.QueryContext(ctx, paperSelect+` WHERE p.is_approved ORDER BY p.id`)
	if err != nil {
		return nil, fmt.Errorf("query approved papers: %w", err)
	}
	defer rows.Close()

	return scanPapers(rows)
}

// PapersByID implements recommend.Corpus.
func (db *DB) PapersByID(ctx context.Context, ids []int64) (map[int64]recommend.Paper, error) {
	out := make(map[int64]recommend.Paper, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()

	where, args := query.NewWhereBuilder().AddIDs("p.id", ids).BuildWithPrefix()
	rows, err := db.conn.QueryContext(ctx, paperSelect+" "+where, args...)
	if err != nil {
		observe("select", "papers", start, err)
		return nil, fmt.Errorf("query papers: %w", err)
	}
	defer rows.Close()

	papers, err := scanPapers(rows)
	observe("select", "papers", start, err)
	if err != nil {
		return nil, err
	}
	for i := range papers {
		out[papers[i].ID] = papers[i]
	}
	return out, nil
}

func scanPapers(rows *sql.Rows) ([]recommend.Paper, error) {
	var papers []recommend.Paper
	for rows.Next() {
		var p recommend.Paper
		if err := rows.Scan(&p.ID, &p.Title, &p.Summary, &p.Abstract, &p.IsApproved,
			&p.CitationCount, &p.DownloadCount, &p.ViewCount, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan paper: %w", err)
		}
		papers = append(papers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate papers: %w", err)
	}
	return papers, nil
}

// UpsertPaper inserts a paper or replaces its fields. The citation count
// is derived and ignored here.
//
//nolint:gocritic // Paper is passed by value like the other recommend types
func (db *DB) UpsertPaper(ctx context.Context, p recommend.Paper) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	return upsertPaper(ctx, db.conn, p)
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

//nolint:gocritic // see UpsertPaper
func upsertPaper(ctx context.Context, ex execer, p recommend.Paper) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	start := time.Now()
	_, err := ex.ExecContext(ctx, `
		INSERT INTO papers (id, title, summary, abstract, is_approved, download_count, view_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			summary = excluded.summary,
			abstract = excluded.abstract,
			is_approved = excluded.is_approved,
			download_count = excluded.download_count,
			view_count = excluded.view_count`,
		p.ID, p.Title, p.Summary, p.Abstract, p.IsApproved, p.DownloadCount, p.ViewCount, p.CreatedAt)
	observe("upsert", "papers", start, err)
	if err != nil {
		return conflictError(fmt.Sprintf("upsert paper %d", p.ID), err)
	}
	return nil
}

// ApprovePaper marks a paper approved. It returns recommend.ErrPaperNotFound
// for an unknown id.
func (db *DB) ApprovePaper(ctx context.Context, paperID int64) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	res, err := db.conn.ExecContext(ctx, `UPDATE papers SET is_approved = TRUE WHERE id = ?`, paperID)
	observe("update", "papers", start, err)
	if err != nil {
		return conflictError(fmt.Sprintf("approve paper %d", paperID), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("approve paper %d: %w", paperID, err)
	}
	if n == 0 {
		return fmt.Errorf("paper %d: %w", paperID, recommend.ErrPaperNotFound)
	}
	return nil
}

// AddCitation records that citing cites cited. Adding a pair twice is a no-op.
func (db *DB) AddCitation(ctx context.Context, citing, cited int64) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	return addCitation(ctx, db.conn, citing, cited)
}

func addCitation(ctx context.Context, ex execer, citing, cited int64) error {
	start := time.Now()
	_, err := ex.ExecContext(ctx, `
		INSERT INTO citations (citing_paper_id, cited_paper_id) VALUES (?, ?)
		ON CONFLICT DO NOTHING`, citing, cited)
	observe("insert", "citations", start, err)
	if err != nil {
		return fmt.Errorf("add citation %d -> %d: %w", citing, cited, err)
	}
	return nil
}

// Citations implements recommend.RelatedStore.
func (db *DB) Citations(ctx context.Context, paperID int64) (cites, citedBy []int64, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("select", "citations", start, err) }()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT cited_paper_id, TRUE FROM citations WHERE citing_paper_id = ?
		UNION ALL
		SELECT citing_paper_id, FALSE FROM citations WHERE cited_paper_id = ?
		ORDER BY 2 DESC, 1`, paperID, paperID)
	if err != nil {
		return nil, nil, fmt.Errorf("query citations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var other int64
		var outgoing bool
		if err := rows.Scan(&other, &outgoing); err != nil {
			return nil, nil, fmt.Errorf("scan citation: %w", err)
		}
		if outgoing {
			cites = append(cites, other)
		} else {
			citedBy = append(citedBy, other)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate citations: %w", err)
	}
	return cites, citedBy, nil
}

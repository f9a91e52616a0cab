// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

package database

import (
	"context"
	"fmt"
	"time"
)

// ensureContext bounds ctx by the query timeout unless it already has an
// earlier deadline.
func (db *DB) ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) <= db.queryTimeout {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, db.queryTimeout)
}

// Checkpoint forces a WAL checkpoint
func (db *DB) Checkpoint(ctx context.Context) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if _, err := db.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
		return fmt.Errorf("checkpoint failed: %w", err)
	}
	return nil
}

// GetDatabasePath returns the path to the database file
func (db *DB) GetDatabasePath() string {
	return db.cfg.Path
}

// RecordCounts holds row counts of the main tables.
type RecordCounts struct {
	Users           int64 `json:"users"`
	Papers          int64 `json:"papers"`
	Citations       int64 `json:"citations"`
	Ratings         int64 `json:"ratings"`
	Bookmarks       int64 `json:"bookmarks"`
	Embeddings      int64 `json:"embeddings"`
	Recommendations int64 `json:"recommendations"`
}

// GetRecordCounts returns the count of records in main tables
func (db *DB) GetRecordCounts(ctx context.Context) (RecordCounts, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var c RecordCounts
	err := db.conn.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM papers),
			(SELECT COUNT(*) FROM citations),
			(SELECT COUNT(*) FROM ratings),
			(SELECT COUNT(*) FROM bookmarks),
			(SELECT COUNT(*) FROM paper_embeddings),
			(SELECT COUNT(*) FROM user_recommendations)`).
		Scan(&c.Users, &c.Papers, &c.Citations, &c.Ratings, &c.Bookmarks, &c.Embeddings, &c.Recommendations)
	if err != nil {
		return RecordCounts{}, fmt.Errorf("failed to count records: %w", err)
	}
	return c, nil
}

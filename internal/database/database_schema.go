// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

/*
database_schema.go - Database Schema Management

Tables:
  - users: accounts; only active users are regenerated in batch runs
  - papers: the corpus; citation_count is derived from citations
  - citations: (citing, cited) pairs
  - ratings, bookmarks: at most one per (user, paper)
  - paper_embeddings: one DOUBLE[] vector per approved paper
  - user_recommendations: the latest ranked list per user
  - related_papers: precomputed similar/cites/cited edges

Timestamps are always bound from Go so no column depends on the ICU
extension for CURRENT_TIMESTAMP defaults.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the database tables
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

// tableCreationQueries returns the table creation SQL statements
func tableCreationQueries() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT PRIMARY KEY,
			username TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE
		);`,
		`CREATE TABLE IF NOT EXISTS papers (
			id BIGINT PRIMARY KEY,
			title TEXT NOT NULL DEFAULT '',
			summary TEXT NOT NULL DEFAULT '',
			abstract TEXT NOT NULL DEFAULT '',
			is_approved BOOLEAN NOT NULL DEFAULT FALSE,
			download_count BIGINT NOT NULL DEFAULT 0,
			view_count BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS citations (
			citing_paper_id BIGINT NOT NULL,
			cited_paper_id BIGINT NOT NULL,
			PRIMARY KEY (citing_paper_id, cited_paper_id)
		);`,
		`CREATE TABLE IF NOT EXISTS ratings (
			user_id BIGINT NOT NULL,
			paper_id BIGINT NOT NULL,
			rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
			review_text TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			PRIMARY KEY (user_id, paper_id)
		);`,
		`CREATE TABLE IF NOT EXISTS bookmarks (
			user_id BIGINT NOT NULL,
			paper_id BIGINT NOT NULL,
			folder TEXT NOT NULL DEFAULT 'default',
			created_at TIMESTAMP NOT NULL,
			PRIMARY KEY (user_id, paper_id)
		);`,
		`CREATE TABLE IF NOT EXISTS paper_embeddings (
			paper_id BIGINT PRIMARY KEY,
			vector DOUBLE[] NOT NULL,
			model_version TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS user_recommendations (
			user_id BIGINT NOT NULL,
			paper_id BIGINT NOT NULL,
			score DOUBLE NOT NULL,
			reason TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			PRIMARY KEY (user_id, paper_id)
		);`,
		`CREATE TABLE IF NOT EXISTS related_papers (
			paper_id BIGINT NOT NULL,
			related_paper_id BIGINT NOT NULL,
			similarity_score DOUBLE NOT NULL,
			relation_type TEXT NOT NULL CHECK (relation_type IN ('similar', 'cited', 'cites')),
			PRIMARY KEY (paper_id, related_paper_id, relation_type)
		);`,
	}
}

// createIndexes creates secondary indexes. Only columns that are never
// updated in place are indexed.
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range indexQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute index query: %s: %w", query, err)
		}
	}
	return nil
}

// indexQueries returns index creation SQL statements
func indexQueries() []string {
	return []string{
		`CREATE INDEX IF NOT EXISTS idx_ratings_paper ON ratings(paper_id);`,
		`CREATE INDEX IF NOT EXISTS idx_bookmarks_paper ON bookmarks(paper_id);`,
		`CREATE INDEX IF NOT EXISTS idx_citations_cited ON citations(cited_paper_id);`,
	}
}

// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

// Package database provides DuckDB persistence for the recommendation engine.
//
// # Overview
//
// DB implements recommend.Store: the paper corpus, ratings and bookmarks,
// paper embeddings, per-user recommendation lists and related-paper edges.
// It also carries the mutations the trigger pipeline and the importer need
// (ApprovePaper, UpsertRating, UpsertBookmark, UpsertPaper, UpsertUser,
// AddCitation) and a single-transaction JSON dataset import.
//
// The package is organized into:
//   - database.go: lifecycle (open, schema, close) and transaction helper
//   - database_schema.go: table and index creation
//   - database_connection.go: pool configuration and conflict detection
//   - database_utils.go: timeouts, CHECKPOINT and record counts
//   - papers.go, interactions.go, embeddings.go, recommendations.go: queries
//   - import.go: dataset loading and import
//   - query/: WHERE clause builder
//
// # Storage Notes
//
// Embeddings are stored as DOUBLE[] and written through a list-literal cast.
// citation_count is not stored; it is computed from the citations table on
// every paper read.
//
// Every query runs under the configured query timeout (30s by default) and
// records its duration in the duckdb_query_duration_seconds histogram.
//
// # Usage
//
//	db, err := database.New(&cfg.Database, logger)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	engine.SetStore(db)
//
// DuckDB allows a single writing process per database file. Run one daemon
// per file; the CLI's publish command reaches a running daemon through the
// event bus instead of opening the file.
package database

// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

package database

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/paperwise/internal/recommend"
)

// importTimeoutFactor scales the query timeout for a whole import.
const importTimeoutFactor = 10

// Dataset is the JSON import format.
type Dataset struct {
	Users     []recommend.User     `json:"users"`
	Papers    []recommend.Paper    `json:"papers"`
	Citations []recommend.Citation `json:"citations"`
	Ratings   []recommend.Rating   `json:"ratings"`
	Bookmarks []recommend.Bookmark `json:"bookmarks"`
}

// ImportResult counts the rows written by Import.
type ImportResult struct {
	Users     int           `json:"users"`
	Papers    int           `json:"papers"`
	Citations int           `json:"citations"`
	Ratings   int           `json:"ratings"`
	Bookmarks int           `json:"bookmarks"`
	Duration  time.Duration `json:"duration"`
}

// LoadDataset decodes a dataset. Unknown fields are rejected so typos in
// hand-written files surface early.
func LoadDataset(r io.Reader) (*Dataset, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var ds Dataset
	if err := dec.Decode(&ds); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	return &ds, nil
}

// LoadDatasetFile reads a dataset from path.
func LoadDatasetFile(path string) (*Dataset, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer closeQuietly(f)
	return LoadDataset(f)
}

// Import upserts every row of ds in a single transaction. Any invalid row
// rolls the whole import back.
func (db *DB) Import(ctx context.Context, ds *Dataset) (ImportResult, error) {
	ctx, cancel := context.WithTimeout(ctx, importTimeoutFactor*db.queryTimeout)
	defer cancel()

	start := time.Now()
	var result ImportResult

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		for _, u := range ds.Users {
			if err := upsertUser(ctx, tx, u); err != nil {
				return err
			}
			result.Users++
		}
		for i := range ds.Papers {
			if err := upsertPaper(ctx, tx, ds.Papers[i]); err != nil {
				return err
			}
			result.Papers++
		}
		for _, c := range ds.Citations {
			if err := addCitation(ctx, tx, c.CitingPaperID, c.CitedPaperID); err != nil {
				return err
			}
			result.Citations++
		}
		for i := range ds.Ratings {
			if err := upsertRating(ctx, tx, ds.Ratings[i]); err != nil {
				return err
			}
			result.Ratings++
		}
		for i := range ds.Bookmarks {
			if err := upsertBookmark(ctx, tx, ds.Bookmarks[i]); err != nil {
				return err
			}
			result.Bookmarks++
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, fmt.Errorf("import dataset: %w", err)
	}

	result.Duration = time.Since(start)
	db.logger.Info().
		Int("users", result.Users).
		Int("papers", result.Papers).
		Int("citations", result.Citations).
		Int("ratings", result.Ratings).
		Int("bookmarks", result.Bookmarks).
		Dur("duration", result.Duration).
		Msg("dataset imported")
	return result, nil
}

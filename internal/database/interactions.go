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

const ratingSelect = `SELECT user_id, paper_id, rating, review_text, created_at FROM ratings`

// UserRatings implements recommend.Interactions.
func (db *DB) UserRatings(ctx context.Context, userID int64) ([]recommend.Rating, error) {
	wb := query.NewWhereBuilder().AddClause("user_id = ?", userID)
	return db.queryRatings(ctx, wb)
}

// RatingsForPapers implements recommend.Interactions.
func (db *DB) RatingsForPapers(ctx context.Context, paperIDs []int64, minRating int) ([]recommend.Rating, error) {
	wb := query.NewWhereBuilder().
		AddIDs("paper_id", paperIDs).
		AddClause("rating >= ?", minRating)
	return db.queryRatings(ctx, wb)
}

// RatingsByUsers implements recommend.Interactions.
func (db *DB) RatingsByUsers(ctx context.Context, userIDs []int64, minRating int) ([]recommend.Rating, error) {
	wb := query.NewWhereBuilder().
		AddIDs("user_id", userIDs).
		AddClause("rating >= ?", minRating)
	return db.queryRatings(ctx, wb)
}

func (db *DB) queryRatings(ctx context.Context, wb *query.WhereBuilder) (ratings []recommend.Rating, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("select", "ratings", start, err) }()

	where, args := wb.BuildWithPrefix()
	rows, err := db.conn.QueryContext(ctx, ratingSelect+" "+where+" ORDER BY user_id, paper_id", args...)
	if err != nil {
		return nil, fmt.Errorf("query ratings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r recommend.Rating
		if err := rows.Scan(&r.UserID, &r.PaperID, &r.Rating, &r.ReviewText, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		ratings = append(ratings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ratings: %w", err)
	}
	return ratings, nil
}

// UserBookmarks implements recommend.Interactions.
func (db *DB) UserBookmarks(ctx context.Context, userID int64) (bookmarks []recommend.Bookmark, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("select", "bookmarks", start, err) }()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT user_id, paper_id, folder, created_at
		FROM bookmarks WHERE user_id = ? ORDER BY paper_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query bookmarks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var b recommend.Bookmark
		if err := rows.Scan(&b.UserID, &b.PaperID, &b.Folder, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan bookmark: %w", err)
		}
		bookmarks = append(bookmarks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookmarks: %w", err)
	}
	return bookmarks, nil
}

// UpsertRating inserts a rating or replaces the user's previous rating of
// the paper.
//
//nolint:gocritic // Rating is passed by value like the other recommend types
func (db *DB) UpsertRating(ctx context.Context, r recommend.Rating) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	return upsertRating(ctx, db.conn, r)
}

//nolint:gocritic // see UpsertRating
func upsertRating(ctx context.Context, ex execer, r recommend.Rating) error {
	if r.Rating < 1 || r.Rating > 5 {
		return fmt.Errorf("user %d paper %d rating %d: %w", r.UserID, r.PaperID, r.Rating, ErrInvalidRating)
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	start := time.Now()
	_, err := ex.ExecContext(ctx, `
		INSERT INTO ratings (user_id, paper_id, rating, review_text, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, paper_id) DO UPDATE SET
			rating = excluded.rating,
			review_text = excluded.review_text`,
		r.UserID, r.PaperID, r.Rating, r.ReviewText, r.CreatedAt)
	observe("upsert", "ratings", start, err)
	if err != nil {
		return conflictError("upsert rating", err)
	}
	return nil
}

// UpsertBookmark saves a bookmark. An empty folder is stored as the
// default folder; saving again moves it to the new folder.
//
//nolint:gocritic // Bookmark is passed by value like the other recommend types
func (db *DB) UpsertBookmark(ctx context.Context, b recommend.Bookmark) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	return upsertBookmark(ctx, db.conn, b)
}

//nolint:gocritic // see UpsertBookmark
func upsertBookmark(ctx context.Context, ex execer, b recommend.Bookmark) error {
	if b.Folder == "" {
		b.Folder = recommend.DefaultBookmarkFolder
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}

	start := time.Now()
	_, err := ex.ExecContext(ctx, `
		INSERT INTO bookmarks (user_id, paper_id, folder, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, paper_id) DO UPDATE SET folder = excluded.folder`,
		b.UserID, b.PaperID, b.Folder, b.CreatedAt)
	observe("upsert", "bookmarks", start, err)
	if err != nil {
		return conflictError("upsert bookmark", err)
	}
	return nil
}

// UpsertUser inserts a user or replaces its fields.
func (db *DB) UpsertUser(ctx context.Context, u recommend.User) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	return upsertUser(ctx, db.conn, u)
}

func upsertUser(ctx context.Context, ex execer, u recommend.User) error {
	start := time.Now()
	_, err := ex.ExecContext(ctx, `
		INSERT INTO users (id, username, is_active) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			username = excluded.username,
			is_active = excluded.is_active`,
		u.ID, u.Username, u.IsActive)
	observe("upsert", "users", start, err)
	if err != nil {
		return conflictError(fmt.Sprintf("upsert user %d", u.ID), err)
	}
	return nil
}

// ActiveUsers implements recommend.UserDirectory.
func (db *DB) ActiveUsers(ctx context.Context) (users []recommend.User, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("select", "users", start, err) }()

	rows, err := db.conn.QueryContext(ctx, `SELECT id, username, is_active FROM users WHERE is_active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query active users: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

func scanUsers(rows *sql.Rows) ([]recommend.User, error) {
	var users []recommend.User
	for rows.Next() {
		var u recommend.User
		if err := rows.Scan(&u.ID, &u.Username, &u.IsActive); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

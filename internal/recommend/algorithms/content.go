// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

package algorithms

import (
	"context"
	"fmt"

	"github.com/tomtom215/paperwise/internal/recommend"
)

// ContentData is the data the content ranker reads.
type ContentData interface {
	ApprovedPapers(ctx context.Context) ([]recommend.Paper, error)
	ApprovedEmbeddings(ctx context.Context) ([]recommend.Embedding, error)
	UserRatings(ctx context.Context, userID int64) ([]recommend.Rating, error)
	UserBookmarks(ctx context.Context, userID int64) ([]recommend.Bookmark, error)
}

// Content ranks papers by cosine similarity between their embedding and
// the user's profile vector:
//
//	score(u, p) = cos(profile_u, embedding_p)
//
// Papers the user has rated (any value) or bookmarked are never returned.
// A user without a profile gets the most viewed approved papers, scored by
// view count, with nothing excluded.
type Content struct {
	BaseAlgorithm
	data ContentData
}

// NewContent creates a content ranker reading from data.
func NewContent(data ContentData) *Content {
	return &Content{
		BaseAlgorithm: NewBaseAlgorithm("content"),
		data:          data,
	}
}

// Predict implements recommend.Algorithm.
//
//nolint:gocritic // hugeParam: PredictRequest passed by value to satisfy the interface
func (c *Content) Predict(ctx context.Context, req recommend.PredictRequest) ([]recommend.ScoredPaper, error) {
	profile, ok := req.Profile.Vector()
	if !ok {
		return c.mostViewed(ctx, req.K)
	}

	exclude, err := c.interactedPapers(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	embeddings, err := c.data.ApprovedEmbeddings(ctx)
	if err != nil {
		return nil, fmt.Errorf("get embeddings: %w", err)
	}

	scored := make([]recommend.ScoredPaper, 0, len(embeddings))
	for i := range embeddings {
		if i%cancelCheckInterval == 0 && ContextCancelled(ctx) {
			return nil, ctx.Err()
		}
		if _, skip := exclude[embeddings[i].PaperID]; skip {
			continue
		}
		scored = append(scored, recommend.ScoredPaper{
			PaperID: embeddings[i].PaperID,
			Score:   recommend.CosineSimilarity(profile, embeddings[i].Vector),
		})
	}

	return topK(scored, req.K), nil
}

// mostViewed is the cold-start path.
func (c *Content) mostViewed(ctx context.Context, k int) ([]recommend.ScoredPaper, error) {
	papers, err := c.data.ApprovedPapers(ctx)
	if err != nil {
		return nil, fmt.Errorf("get approved papers: %w", err)
	}

	scored := make([]recommend.ScoredPaper, len(papers))
	for i := range papers {
		scored[i] = recommend.ScoredPaper{
			PaperID: papers[i].ID,
			Score:   float64(papers[i].ViewCount),
		}
	}
	return topK(scored, k), nil
}

// interactedPapers returns every paper the user rated or bookmarked.
func (c *Content) interactedPapers(ctx context.Context, userID int64) (map[int64]struct{}, error) {
	ratings, err := c.data.UserRatings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get ratings: %w", err)
	}
	bookmarks, err := c.data.UserBookmarks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get bookmarks: %w", err)
	}

	seen := make(map[int64]struct{}, len(ratings)+len(bookmarks))
	for _, r := range ratings {
		seen[r.PaperID] = struct{}{}
	}
	for _, b := range bookmarks {
		seen[b.PaperID] = struct{}{}
	}
	return seen, nil
}

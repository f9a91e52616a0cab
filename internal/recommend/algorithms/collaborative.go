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

// CollaborativeData is the data the collaborative ranker reads.
type CollaborativeData interface {
	UserRatings(ctx context.Context, userID int64) ([]recommend.Rating, error)
	RatingsForPapers(ctx context.Context, paperIDs []int64, minRating int) ([]recommend.Rating, error)
	RatingsByUsers(ctx context.Context, userIDs []int64, minRating int) ([]recommend.Rating, error)
	PapersByID(ctx context.Context, ids []int64) (map[int64]recommend.Paper, error)
}

// Collaborative implements neighborhood collaborative filtering on
// positive ratings.
//
// For a target user u with seed set S(u) (papers rated 4 or higher):
//
//	N(u)     = { v != u : v rated some s in S(u) 4 or higher }
//	score(p) = |{ v in N(u) : v rated p 4 or higher }|, p not in S(u)
//
// Only approved papers are returned. Ties are broken by paper id.
type Collaborative struct {
	BaseAlgorithm
	data CollaborativeData
}

// NewCollaborative creates a collaborative ranker reading from data.
func NewCollaborative(data CollaborativeData) *Collaborative {
	return &Collaborative{
		BaseAlgorithm: NewBaseAlgorithm("collaborative"),
		data:          data,
	}
}

// Predict implements recommend.Algorithm. The profile is not used.
//
//nolint:gocritic // hugeParam: PredictRequest passed by value to satisfy the interface
func (c *Collaborative) Predict(ctx context.Context, req recommend.PredictRequest) ([]recommend.ScoredPaper, error) {
	ratings, err := c.data.UserRatings(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("get ratings: %w", err)
	}

	seed := make(map[int64]struct{})
	seedIDs := make([]int64, 0, len(ratings))
	for _, r := range ratings {
		if r.Rating >= recommend.PositiveRating {
			seed[r.PaperID] = struct{}{}
			seedIDs = append(seedIDs, r.PaperID)
		}
	}
	if len(seedIDs) == 0 {
		return nil, nil
	}

	neighborIDs, err := c.neighbors(ctx, req.UserID, seedIDs)
	if err != nil {
		return nil, err
	}
	if len(neighborIDs) == 0 {
		return nil, nil
	}

	endorsements, err := c.data.RatingsByUsers(ctx, neighborIDs, recommend.PositiveRating)
	if err != nil {
		return nil, fmt.Errorf("get neighbor ratings: %w", err)
	}

	counts := make(map[int64]int)
	for _, r := range endorsements {
		if _, inSeed := seed[r.PaperID]; inSeed {
			continue
		}
		counts[r.PaperID]++
	}
	if len(counts) == 0 {
		return nil, nil
	}
	if ContextCancelled(ctx) {
		return nil, ctx.Err()
	}

	return c.approvedOnly(ctx, counts, req.K)
}

// neighbors returns the other users who rated a seed paper positively.
func (c *Collaborative) neighbors(ctx context.Context, userID int64, seedIDs []int64) ([]int64, error) {
	ratings, err := c.data.RatingsForPapers(ctx, seedIDs, recommend.PositiveRating)
	if err != nil {
		return nil, fmt.Errorf("get seed ratings: %w", err)
	}

	seen := make(map[int64]struct{})
	ids := make([]int64, 0, len(ratings))
	for _, r := range ratings {
		if r.UserID == userID {
			continue
		}
		if _, ok := seen[r.UserID]; ok {
			continue
		}
		seen[r.UserID] = struct{}{}
		ids = append(ids, r.UserID)
	}
	return ids, nil
}

// approvedOnly drops unapproved papers and keeps the top k by count.
func (c *Collaborative) approvedOnly(ctx context.Context, counts map[int64]int, k int) ([]recommend.ScoredPaper, error) {
	ids := make([]int64, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}

	papers, err := c.data.PapersByID(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get candidate papers: %w", err)
	}

	scored := make([]recommend.ScoredPaper, 0, len(counts))
	for id, n := range counts {
		if p, ok := papers[id]; !ok || !p.IsApproved {
			continue
		}
		scored = append(scored, recommend.ScoredPaper{PaperID: id, Score: float64(n)})
	}
	return topK(scored, k), nil
}

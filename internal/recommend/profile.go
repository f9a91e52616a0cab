// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

package recommend

import (
	"context"
	"fmt"
)

// Profile is a user's interest vector, or the absence of one.
// The zero value is NoProfile.
type Profile struct {
	vector  []float64
	present bool
}

// NoProfile is the profile of a user with no embedded positive signal.
func NoProfile() Profile {
	return Profile{}
}

// HasProfile wraps a profile vector.
func HasProfile(vector []float64) Profile {
	return Profile{vector: vector, present: true}
}

// Vector returns the profile vector and whether the profile exists.
//
//nolint:gocritic // value receiver keeps Profile immutable
func (p Profile) Vector() ([]float64, bool) {
	return p.vector, p.present
}

// Exists reports whether the user has a profile.
//
//nolint:gocritic // value receiver keeps Profile immutable
func (p Profile) Exists() bool {
	return p.present
}

// UserProfile computes the mean embedding of every paper the user rated
// PositiveRating or higher or bookmarked. It returns NoProfile when the
// user has no such paper or none of them has an embedding.
func (e *Engine) UserProfile(ctx context.Context, userID int64) (Profile, error) {
	store, err := e.getStore()
	if err != nil {
		return NoProfile(), err
	}

	ratings, err := store.UserRatings(ctx, userID)
	if err != nil {
		return NoProfile(), fmt.Errorf("get ratings: %w", err)
	}
	bookmarks, err := store.UserBookmarks(ctx, userID)
	if err != nil {
		return NoProfile(), fmt.Errorf("get bookmarks: %w", err)
	}

	ids := profilePaperIDs(ratings, bookmarks)
	if len(ids) == 0 {
		return NoProfile(), nil
	}

	embeddings, err := store.EmbeddingsByPaper(ctx, ids)
	if err != nil {
		return NoProfile(), fmt.Errorf("get embeddings: %w", err)
	}

	vectors := make([][]float64, 0, len(ids))
	for _, id := range ids {
		emb, ok := embeddings[id]
		if !ok {
			continue
		}
		if len(vectors) > 0 && len(emb.Vector) != len(vectors[0]) {
			e.logger.Warn().
				Int64("user_id", userID).
				Int64("paper_id", id).
				Int("dimensions", len(emb.Vector)).
				Int("expected", len(vectors[0])).
				Msg("skipping embedding with mismatched dimensions")
			continue
		}
		vectors = append(vectors, emb.Vector)
	}

	if len(vectors) == 0 {
		return NoProfile(), nil
	}
	return HasProfile(MeanVector(vectors)), nil
}

// profilePaperIDs returns the positively rated and bookmarked paper ids,
// without duplicates, in first-seen order.
func profilePaperIDs(ratings []Rating, bookmarks []Bookmark) []int64 {
	seen := make(map[int64]struct{}, len(ratings)+len(bookmarks))
	ids := make([]int64, 0, len(ratings)+len(bookmarks))

	add := func(id int64) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	for _, r := range ratings {
		if r.Rating >= PositiveRating {
			add(r.PaperID)
		}
	}
	for _, b := range bookmarks {
		add(b.PaperID)
	}
	return ids
}

// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

package recommend

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// GenerateOptions controls regeneration for one user.
type GenerateOptions struct {
	// K is the number of recommendations. 0 uses Limits.DefaultK.
	K int

	// Rebuild rebuilds every embedding before blending.
	Rebuild bool
}

// BatchResult summarizes GenerateForAllUsers.
type BatchResult struct {
	Build     BuildResult `json:"build"`
	Users     int         `json:"users"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Errors    []UserError `json:"errors,omitempty"`
}

// UserError is a per-user failure in a batch.
type UserError struct {
	UserID int64 `json:"user_id"`
	Err    error `json:"-"`
}

func (u UserError) Error() string {
	return fmt.Sprintf("user %d: %v", u.UserID, u.Err)
}

func (u UserError) Unwrap() error {
	return u.Err
}

// SaveRecommendations replaces the user's stored recommendations with
// items, in order. Items without a reason get DefaultReason. A paper listed
// more than once keeps its first entry.
func (e *Engine) SaveRecommendations(ctx context.Context, userID int64, items []ScoredPaper) error {
	store, err := e.getStore()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	seen := make(map[int64]struct{}, len(items))
	recs := make([]Recommendation, 0, len(items))
	for _, it := range items {
		if _, dup := seen[it.PaperID]; dup {
			continue
		}
		seen[it.PaperID] = struct{}{}

		reason := it.Reason
		if reason == "" {
			reason = DefaultReason
		}
		recs = append(recs, Recommendation{
			UserID:    userID,
			PaperID:   it.PaperID,
			Score:     it.Score,
			Reason:    reason,
			CreatedAt: now,
		})
	}

	if err := store.ReplaceRecommendations(ctx, userID, recs); err != nil {
		return fmt.Errorf("replace recommendations: %w", err)
	}
	return nil
}

// GenerateForUser blends and persists recommendations for one user and
// returns them. When opts.Rebuild is set, or no embedding exists yet, the
// embeddings are built first. Concurrent calls for the same user run one
// after the other.
func (e *Engine) GenerateForUser(ctx context.Context, userID int64, opts GenerateOptions) ([]ScoredPaper, error) {
	unlock := e.userLocks.Lock(userID)
	defer unlock()

	start := time.Now()
	result, err := e.generateForUser(ctx, userID, opts)
	e.getObserver().GenerationFinished(result.ColdStart, len(result.Items), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return result.Items, nil
}

func (e *Engine) generateForUser(ctx context.Context, userID int64, opts GenerateOptions) (HybridResult, error) {
	if err := e.ensureEmbeddings(ctx, opts.Rebuild); err != nil {
		return HybridResult{}, err
	}

	result, err := e.HybridRecommend(ctx, userID, HybridOptions{K: opts.K})
	if err != nil {
		return HybridResult{}, fmt.Errorf("hybrid recommend: %w", err)
	}

	if err := e.SaveRecommendations(ctx, userID, result.Items); err != nil {
		return HybridResult{}, err
	}

	e.logger.Info().
		Int64("user_id", userID).
		Int("recommendations", len(result.Items)).
		Bool("cold_start", result.ColdStart).
		Msg("generated recommendations")
	return result, nil
}

// ensureEmbeddings rebuilds when asked to, or bootstraps a build when the
// embedding table is empty.
func (e *Engine) ensureEmbeddings(ctx context.Context, rebuild bool) error {
	if !rebuild {
		store, err := e.getStore()
		if err != nil {
			return err
		}
		count, err := store.CountEmbeddings(ctx)
		if err != nil {
			return fmt.Errorf("count embeddings: %w", err)
		}
		if count > 0 {
			return nil
		}
		e.logger.Info().Msg("no embeddings stored, building before generating")
	}

	if _, err := e.BuildEmbeddings(ctx, BuildOptions{}); err != nil {
		return fmt.Errorf("build embeddings: %w", err)
	}
	return nil
}

// ListRecommendations returns the user's stored recommendations ordered by
// score descending. limit <= 0 uses Limits.DefaultK.
func (e *Engine) ListRecommendations(ctx context.Context, userID int64, limit int) ([]Recommendation, error) {
	store, err := e.getStore()
	if err != nil {
		return nil, err
	}
	recs, err := store.ListRecommendations(ctx, userID, e.clampK(limit))
	if err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}
	return recs, nil
}

// EnsureRecommendations returns the user's top stored recommendations,
// generating them first if the user has none.
func (e *Engine) EnsureRecommendations(ctx context.Context, userID int64) ([]Recommendation, error) {
	recs, err := e.ListRecommendations(ctx, userID, e.config.Limits.DefaultK)
	if err != nil || len(recs) > 0 {
		return recs, err
	}

	if _, err := e.GenerateForUser(ctx, userID, GenerateOptions{}); err != nil {
		return nil, err
	}
	return e.ListRecommendations(ctx, userID, e.config.Limits.DefaultK)
}

// GenerateForAllUsers builds the embeddings once, then regenerates every
// active user. A failure for one user is recorded and the batch continues;
// only a failed build or a canceled context fails the call.
func (e *Engine) GenerateForAllUsers(ctx context.Context, opts GenerateOptions) (BatchResult, error) {
	store, err := e.getStore()
	if err != nil {
		return BatchResult{}, err
	}

	build, err := e.BuildEmbeddings(ctx, BuildOptions{Fresh: opts.Rebuild})
	if err != nil {
		return BatchResult{}, fmt.Errorf("build embeddings: %w", err)
	}

	users, err := store.ActiveUsers(ctx)
	if err != nil {
		return BatchResult{Build: build}, fmt.Errorf("list active users: %w", err)
	}

	result := BatchResult{Build: build, Users: len(users)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.Limits.Workers)

	userOpts := GenerateOptions{K: opts.K}
	for _, u := range users {
		if gctx.Err() != nil {
			break
		}
		userID := u.ID
		g.Go(func() error {
			_, genErr := e.GenerateForUser(gctx, userID, userOpts)

			mu.Lock()
			defer mu.Unlock()
			if genErr != nil {
				result.Failed++
				result.Errors = append(result.Errors, UserError{UserID: userID, Err: genErr})
				e.logger.Warn().Err(genErr).Int64("user_id", userID).Msg("failed to generate recommendations")
				return nil
			}
			result.Succeeded++
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return result, err
	}

	e.logger.Info().
		Int("users", result.Users).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Msg("regenerated recommendations for all users")
	return result, nil
}

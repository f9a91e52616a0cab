// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

package algorithms

import (
	"context"

	"github.com/tomtom215/paperwise/internal/recommend"
)

// cancelCheckInterval is how many papers are scored between context checks.
const cancelCheckInterval = 1024

// BaseAlgorithm provides common functionality for all rankers.
type BaseAlgorithm struct {
	name string
}

// NewBaseAlgorithm creates a new base algorithm with the given name.
func NewBaseAlgorithm(name string) BaseAlgorithm {
	return BaseAlgorithm{name: name}
}

// Name returns the algorithm identifier.
func (b *BaseAlgorithm) Name() string {
	return b.name
}

// topK sorts by score descending, then paper id ascending, and keeps at
// most k items. k <= 0 keeps nothing.
func topK(items []recommend.ScoredPaper, k int) []recommend.ScoredPaper {
	if k <= 0 {
		return nil
	}
	recommend.SortScored(items)
	if len(items) > k {
		items = items[:k]
	}
	return items
}

// Ensure all algorithms implement the interface.
var (
	_ recommend.Algorithm = (*Content)(nil)
	_ recommend.Algorithm = (*Collaborative)(nil)
)

// ContextCancelled checks if the context has been canceled.
func ContextCancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

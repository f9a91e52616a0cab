// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

package recommend

import "errors"

var (
	// ErrStoreNotSet is returned when an operation needs the store before SetStore.
	ErrStoreNotSet = errors.New("recommend: store not set")

	// ErrModelNotSet is returned by builds before SetEmbeddingModel.
	ErrModelNotSet = errors.New("recommend: embedding model not set")

	// ErrRankerNotSet is returned when a blend is requested without both rankers.
	ErrRankerNotSet = errors.New("recommend: ranker not set")

	// ErrPaperNotFound is returned when a referenced paper does not exist.
	ErrPaperNotFound = errors.New("recommend: paper not found")

	// ErrNegativeWeight is returned for a blend requested with a negative weight.
	ErrNegativeWeight = errors.New("recommend: negative blend weight")

	// ErrCheckpointNotFound is returned by a Checkpointer with nothing stored.
	ErrCheckpointNotFound = errors.New("recommend: checkpoint not found")

	// ErrBreakerOpen is returned by model and transport clients whose
	// circuit breaker is rejecting calls.
	ErrBreakerOpen = errors.New("recommend: circuit breaker open")
)

// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

// Package algorithms implements the rankers blended by the hybrid engine.
//
// Each ranker implements the recommend.Algorithm interface and is
// registered with the engine through SetContentRanker or
// SetCollaborativeRanker.
//
// # Rankers
//
// Content: cosine similarity between the user's profile vector and every
// embedded approved paper, excluding papers the user has rated or
// bookmarked. Users without a profile get the most viewed papers instead.
//
// Collaborative: counts how many neighbors endorse each paper, where
// neighbors are the users who also rated one of the user's favorite
// papers 4 or higher.
//
// # Usage Example
//
//	engine.SetContentRanker(algorithms.NewContent(store))
//	engine.SetCollaborativeRanker(algorithms.NewCollaborative(store))
//
// # Thread Safety
//
// Rankers hold no state between calls and are safe for concurrent use.
// Every read goes to the data source, so results always reflect the
// latest ratings and embeddings.
//
// # See Also
//
//   - internal/recommend: Engine and interface definitions
//   - internal/recommend/reranking: Diversity reranking
//   - internal/database: DuckDB implementation of the data sources
package algorithms

// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

// Package recommend implements the hybrid paper recommendation engine.
//
// # Architecture
//
// The engine blends two rankers and a popularity prior into one ranked
// list per user:
//
//   - Content-based: cosine similarity between a user profile (the mean
//     embedding of papers the user rated 4+ or bookmarked) and every
//     embedded approved paper. Users without a profile get trending papers
//     by view count.
//   - Collaborative: papers endorsed (rated 4+) by users who endorsed the
//     same papers as this user, ranked by the number of endorsing neighbors.
//   - Popularity: 0.7 * citations + 0.3 * downloads.
//
// The blend is alpha*content + beta*collaborative + gamma*popularity,
// min-max normalized to [0, 1]. Each result carries a human readable
// reason derived from which ranker proposed it.
//
// Paper embeddings are produced by an injected EmbeddingModel over
// title, summary and abstract, and stored through the EmbeddingStore.
// Builds run in batches and checkpoint their progress so an interrupted
// build resumes where it stopped.
//
// # Usage
//
//	engine, err := recommend.NewEngine(recommend.DefaultConfig(), logger)
//	engine.SetStore(db)
//	engine.SetEmbeddingModel(model)
//	engine.SetContentRanker(algorithms.NewContent(db))
//	engine.SetCollaborativeRanker(algorithms.NewCollaborative(db))
//
//	items, err := engine.GenerateForUser(ctx, userID, recommend.GenerateOptions{})
//
// # Thread Safety
//
// The engine is safe for concurrent use. Embedding builds are serialized
// engine-wide; regeneration is serialized per user so the delete and
// insert of two concurrent runs for the same user never interleave.
//
// The package has no dependencies on other internal packages. Storage,
// models and metrics are plugged in through the interfaces in store.go.
package recommend

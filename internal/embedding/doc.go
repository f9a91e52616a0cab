// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

/*
Package embedding provides the embedding models used to build paper vectors.

Two implementations of recommend.EmbeddingModel are available:

  - HTTPModel calls an OpenAI-compatible /v1/embeddings endpoint, such as a
    sentence-transformers server hosting all-MiniLM-L6-v2. Calls go through
    a token-bucket rate limiter and a circuit breaker, and vectors are cached
    in an LRU keyed by a hash of the model and text.
  - HashingModel is an offline feature-hashing embedder. It needs no network
    and always produces the same L2-normalized vector for the same text.

New selects an implementation from config.EmbeddingConfig.

# Circuit Breaker

The HTTP client opens its circuit after BreakerFailures consecutive
failures and stays open for BreakerTimeout. While open, Embed fails fast
with an error wrapping recommend.ErrBreakerOpen. State transitions are
exported through the circuit_breaker_* metrics under the name
"embedding-model".
*/
package embedding

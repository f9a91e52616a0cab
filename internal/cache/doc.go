// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

/*
Package cache provides a thread-safe LRU cache with optional TTL.

# Use Cases

  - Embedding vectors keyed by a hash of the embedded text, so unchanged
    papers are not sent to the model again during a rebuild
  - Event deduplication: IsDuplicate records event ids for the
    router's Deduplicator middleware

# Usage Example

	vectors := cache.NewLRU[[]float64](4096, 0)
	vectors.Add(key, vec)
	if v, ok := vectors.Get(key); ok {
	    return v
	}

	seen := cache.NewLRU[time.Time](10000, 10*time.Minute)
	if seen.IsDuplicate(eventID) {
	    return nil
	}

# Thread Safety

All methods are safe for concurrent use. Get updates recency and therefore
takes the write lock; Contains and Len only read.
*/
package cache

// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

package cache

import "time"

// IsDuplicate checks if a key exists and is not expired.
// If not a duplicate, records the key with the current timestamp.
// This is a convenience method for deduplication use cases.
func (c *LRU[V]) IsDuplicate(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()

	if entry, exists := c.items[key]; exists {
		if !c.expired(entry, now) {
			c.moveToFront(entry)
			c.hits++
			return true
		}
		c.removeEntry(entry)
	}

	var zero V
	c.add(key, zero, now)
	c.misses++
	return false
}

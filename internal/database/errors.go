// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

package database

import (
	"errors"
	"fmt"
	"io"
)

// ErrInvalidRating is returned for ratings outside 1..5.
var ErrInvalidRating = errors.New("rating must be between 1 and 5")

// closeQuietly closes a resource and explicitly ignores any error
// Use this for cleanup operations in error paths where Close() errors are not actionable
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close() // Explicitly ignore error - cleanup is best-effort
	}
}

// conflictError marks a transaction conflict so callers can retry.
func conflictError(op string, err error) error {
	if isTransactionConflict(err) {
		return fmt.Errorf("%s: transaction conflict, retry later: %w", op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

// Package checkpoint persists embedding build progress in BadgerDB so an
// interrupted build can resume after the last completed batch.
package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/paperwise/internal/recommend"
)

// LatestKey holds the newest embedding build checkpoint.
const LatestKey = "checkpoint:embeddings:latest"

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("checkpoint store is closed")

// Store is a recommend.Checkpointer backed by BadgerDB.
type Store struct {
	db     *badger.DB
	logger zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

// Open opens or creates the Badger directory at path.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Open(path string, logger zerolog.Logger) (*Store, error) {
	if path == "" {
		return nil, errors.New("checkpoint path is required")
	}
	opts := badger.DefaultOptions(path)
	opts.SyncWrites = true
	return open(opts, logger)
}

// OpenInMemory opens a store that keeps nothing on disk.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func OpenInMemory(logger zerolog.Logger) (*Store, error) {
	return open(badger.DefaultOptions("").WithInMemory(true), logger)
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func open(opts badger.Options, logger zerolog.Logger) (*Store, error) {
	// Badger's own logger is too chatty for a single-key store.
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logger.With().Str("component", "checkpoint").Logger(),
	}
	s.logger.Info().Str("path", opts.Dir).Bool("in_memory", opts.InMemory).Msg("checkpoint store opened")
	return s, nil
}

// Load implements recommend.Checkpointer.
func (s *Store) Load(ctx context.Context) (recommend.BuildCheckpoint, error) {
	var cp recommend.BuildCheckpoint
	if err := s.checkOpen(ctx); err != nil {
		return cp, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(LatestKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return recommend.ErrCheckpointNotFound
		}
		if err != nil {
			return fmt.Errorf("get checkpoint: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &cp)
		})
	})
	if err != nil {
		return recommend.BuildCheckpoint{}, err
	}
	return cp, nil
}

// Save implements recommend.Checkpointer.
func (s *Store) Save(ctx context.Context, cp recommend.BuildCheckpoint) error {
	if err := s.checkOpen(ctx); err != nil {
		return err
	}
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(LatestKey), data)
	}); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}

	s.logger.Debug().
		Str("build_id", cp.BuildID).
		Int64("last_paper_id", cp.LastPaperID).
		Int("embedded", cp.Embedded).
		Bool("completed", cp.Completed).
		Msg("saved build checkpoint")
	return nil
}

// Clear implements recommend.Checkpointer.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.checkOpen(ctx); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(LatestKey)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete checkpoint: %w", err)
	}
	return nil
}

// Close closes the database. Calling it twice is a no-op.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close BadgerDB: %w", err)
	}
	return nil
}

func (s *Store) checkOpen(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

var _ recommend.Checkpointer = (*Store)(nil)

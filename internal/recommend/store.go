// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

package recommend

import (
	"context"
	"time"
)

// Corpus reads papers.
type Corpus interface {
	// ApprovedPapers returns every approved paper ordered by id ascending.
	ApprovedPapers(ctx context.Context) ([]Paper, error)

	// PapersByID returns the papers that exist among ids, approved or not.
	PapersByID(ctx context.Context, ids []int64) (map[int64]Paper, error)
}

// Interactions reads ratings and bookmarks.
type Interactions interface {
	UserRatings(ctx context.Context, userID int64) ([]Rating, error)
	UserBookmarks(ctx context.Context, userID int64) ([]Bookmark, error)

	// RatingsForPapers returns ratings >= minRating on any of paperIDs.
	RatingsForPapers(ctx context.Context, paperIDs []int64, minRating int) ([]Rating, error)

	// RatingsByUsers returns ratings >= minRating given by any of userIDs.
	RatingsByUsers(ctx context.Context, userIDs []int64, minRating int) ([]Rating, error)
}

// EmbeddingStore persists paper embeddings.
type EmbeddingStore interface {
	// UpsertEmbeddings inserts or replaces one embedding per paper.
	UpsertEmbeddings(ctx context.Context, embeddings []Embedding) error

	// EmbeddingsByPaper returns the embeddings that exist among paperIDs.
	EmbeddingsByPaper(ctx context.Context, paperIDs []int64) (map[int64]Embedding, error)

	// ApprovedEmbeddings returns the embeddings of approved papers ordered
	// by paper id ascending.
	ApprovedEmbeddings(ctx context.Context) ([]Embedding, error)

	CountEmbeddings(ctx context.Context) (int, error)
}

// RecommendationStore persists per-user recommendation lists.
type RecommendationStore interface {
	// ReplaceRecommendations atomically deletes every stored row of userID
	// and inserts recs.
	ReplaceRecommendations(ctx context.Context, userID int64, recs []Recommendation) error

	// ListRecommendations returns stored rows ordered by score descending.
	ListRecommendations(ctx context.Context, userID int64, limit int) ([]Recommendation, error)
}

// RelatedStore persists precomputed related-paper edges.
type RelatedStore interface {
	// ReplaceRelatedPapers atomically replaces every edge from paperID.
	ReplaceRelatedPapers(ctx context.Context, paperID int64, related []RelatedPaper) error

	ListRelatedPapers(ctx context.Context, paperID int64, limit int) ([]RelatedPaper, error)

	// Citations returns the papers paperID cites and the papers citing it.
	Citations(ctx context.Context, paperID int64) (cites, citedBy []int64, err error)
}

// UserDirectory enumerates accounts.
type UserDirectory interface {
	ActiveUsers(ctx context.Context) ([]User, error)
}

// Store is everything the engine reads and writes. It is typically
// implemented by the database package.
type Store interface {
	Corpus
	Interactions
	EmbeddingStore
	RecommendationStore
	RelatedStore
	UserDirectory
}

// EmbeddingModel turns documents into dense vectors.
type EmbeddingModel interface {
	// Embed returns one vector per text, in order.
	Embed(ctx context.Context, texts []string) ([][]float64, error)

	// ModelVersion is stored with every embedding the model produces.
	ModelVersion() string
}

// Checkpointer persists embedding build progress.
type Checkpointer interface {
	// Load returns ErrCheckpointNotFound when nothing is stored.
	Load(ctx context.Context) (BuildCheckpoint, error)
	Save(ctx context.Context, cp BuildCheckpoint) error
	Clear(ctx context.Context) error
}

// Observer receives engine outcomes, typically to record metrics.
type Observer interface {
	BuildFinished(result BuildResult, duration time.Duration, err error)
	GenerationFinished(coldStart bool, items int, duration time.Duration, err error)
}

type noopObserver struct{}

func (noopObserver) BuildFinished(BuildResult, time.Duration, error)    {}
func (noopObserver) GenerationFinished(bool, int, time.Duration, error) {}

// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

// Package recommendtest provides in-memory implementations of the
// recommend interfaces for tests.
package recommendtest

import (
	"context"
	"sort"
	"sync"

	"github.com/tomtom215/paperwise/internal/recommend"
)

// MemStore is an in-memory recommend.Store. It is safe for concurrent use.
// Errors set in the Err* fields are returned by the matching methods.
type MemStore struct {
	mu sync.RWMutex

	papers          map[int64]recommend.Paper
	users           map[int64]recommend.User
	ratings         map[[2]int64]recommend.Rating
	bookmarks       map[[2]int64]recommend.Bookmark
	citations       map[[2]int64]struct{}
	embeddings      map[int64]recommend.Embedding
	recommendations map[int64][]recommend.Recommendation
	related         map[int64][]recommend.RelatedPaper

	// UpsertCalls counts UpsertEmbeddings calls.
	UpsertCalls int

	ErrUpsertEmbeddings error
	ErrReplace          error
	ErrRatings          error
}

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		papers:          make(map[int64]recommend.Paper),
		users:           make(map[int64]recommend.User),
		ratings:         make(map[[2]int64]recommend.Rating),
		bookmarks:       make(map[[2]int64]recommend.Bookmark),
		citations:       make(map[[2]int64]struct{}),
		embeddings:      make(map[int64]recommend.Embedding),
		recommendations: make(map[int64][]recommend.Recommendation),
		related:         make(map[int64][]recommend.RelatedPaper),
	}
}

// AddPaper inserts or replaces a paper.
func (s *MemStore) AddPaper(p recommend.Paper) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.papers[p.ID] = p
}

// AddUser inserts or replaces a user.
func (s *MemStore) AddUser(u recommend.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// Rate inserts or replaces a rating.
func (s *MemStore) Rate(userID, paperID int64, rating int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ratings[[2]int64{userID, paperID}] = recommend.Rating{UserID: userID, PaperID: paperID, Rating: rating}
}

// Bookmark inserts a bookmark in the default folder.
func (s *MemStore) Bookmark(userID, paperID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookmarks[[2]int64{userID, paperID}] = recommend.Bookmark{
		UserID: userID, PaperID: paperID, Folder: recommend.DefaultBookmarkFolder,
	}
}

// Cite records that citing cites cited and bumps the cited paper's count.
func (s *MemStore) Cite(citing, cited int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]int64{citing, cited}
	if _, ok := s.citations[key]; ok {
		return
	}
	s.citations[key] = struct{}{}
	if p, ok := s.papers[cited]; ok {
		p.CitationCount++
		s.papers[cited] = p
	}
}

// SetEmbedding stores a vector directly.
func (s *MemStore) SetEmbedding(paperID int64, vector []float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.embeddings[paperID] = recommend.Embedding{PaperID: paperID, Vector: vector, ModelVersion: "test"}
}

// Embedding returns the stored embedding of a paper.
func (s *MemStore) Embedding(paperID int64) (recommend.Embedding, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.embeddings[paperID]
	return e, ok
}

// ApprovedPapers implements recommend.Corpus.
func (s *MemStore) ApprovedPapers(_ context.Context) ([]recommend.Paper, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]recommend.Paper, 0, len(s.papers))
	for _, p := range s.papers {
		if p.IsApproved {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// PapersByID implements recommend.Corpus.
func (s *MemStore) PapersByID(_ context.Context, ids []int64) (map[int64]recommend.Paper, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int64]recommend.Paper, len(ids))
	for _, id := range ids {
		if p, ok := s.papers[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

// UserRatings implements recommend.Interactions.
func (s *MemStore) UserRatings(_ context.Context, userID int64) ([]recommend.Rating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ErrRatings != nil {
		return nil, s.ErrRatings
	}
	var out []recommend.Rating
	for _, r := range s.ratings {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sortRatings(out)
	return out, nil
}

// UserBookmarks implements recommend.Interactions.
func (s *MemStore) UserBookmarks(_ context.Context, userID int64) ([]recommend.Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []recommend.Bookmark
	for _, b := range s.bookmarks {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaperID < out[j].PaperID })
	return out, nil
}

// RatingsForPapers implements recommend.Interactions.
func (s *MemStore) RatingsForPapers(_ context.Context, paperIDs []int64, minRating int) ([]recommend.Rating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := toSet(paperIDs)
	var out []recommend.Rating
	for _, r := range s.ratings {
		if _, ok := want[r.PaperID]; ok && r.Rating >= minRating {
			out = append(out, r)
		}
	}
	sortRatings(out)
	return out, nil
}

// RatingsByUsers implements recommend.Interactions.
func (s *MemStore) RatingsByUsers(_ context.Context, userIDs []int64, minRating int) ([]recommend.Rating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := toSet(userIDs)
	var out []recommend.Rating
	for _, r := range s.ratings {
		if _, ok := want[r.UserID]; ok && r.Rating >= minRating {
			out = append(out, r)
		}
	}
	sortRatings(out)
	return out, nil
}

// UpsertEmbeddings implements recommend.EmbeddingStore.
func (s *MemStore) UpsertEmbeddings(_ context.Context, embeddings []recommend.Embedding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.UpsertCalls++
	if s.ErrUpsertEmbeddings != nil {
		return s.ErrUpsertEmbeddings
	}
	for _, e := range embeddings {
		v := make([]float64, len(e.Vector))
		copy(v, e.Vector)
		e.Vector = v
		s.embeddings[e.PaperID] = e
	}
	return nil
}

// EmbeddingsByPaper implements recommend.EmbeddingStore.
func (s *MemStore) EmbeddingsByPaper(_ context.Context, paperIDs []int64) (map[int64]recommend.Embedding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int64]recommend.Embedding, len(paperIDs))
	for _, id := range paperIDs {
		if e, ok := s.embeddings[id]; ok {
			out[id] = e
		}
	}
	return out, nil
}

// ApprovedEmbeddings implements recommend.EmbeddingStore.
func (s *MemStore) ApprovedEmbeddings(_ context.Context) ([]recommend.Embedding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]recommend.Embedding, 0, len(s.embeddings))
	for id, e := range s.embeddings {
		if p, ok := s.papers[id]; ok && p.IsApproved {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaperID < out[j].PaperID })
	return out, nil
}

// CountEmbeddings implements recommend.EmbeddingStore.
func (s *MemStore) CountEmbeddings(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.embeddings), nil
}

// ReplaceRecommendations implements recommend.RecommendationStore.
func (s *MemStore) ReplaceRecommendations(_ context.Context, userID int64, recs []recommend.Recommendation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ErrReplace != nil {
		return s.ErrReplace
	}
	stored := make([]recommend.Recommendation, len(recs))
	copy(stored, recs)
	s.recommendations[userID] = stored
	return nil
}

// ListRecommendations implements recommend.RecommendationStore.
func (s *MemStore) ListRecommendations(_ context.Context, userID int64, limit int) ([]recommend.Recommendation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]recommend.Recommendation, len(s.recommendations[userID]))
	copy(out, s.recommendations[userID])
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ReplaceRelatedPapers implements recommend.RelatedStore.
func (s *MemStore) ReplaceRelatedPapers(_ context.Context, paperID int64, related []recommend.RelatedPaper) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]recommend.RelatedPaper, len(related))
	copy(stored, related)
	s.related[paperID] = stored
	return nil
}

// ListRelatedPapers implements recommend.RelatedStore.
func (s *MemStore) ListRelatedPapers(_ context.Context, paperID int64, limit int) ([]recommend.RelatedPaper, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]recommend.RelatedPaper, len(s.related[paperID]))
	copy(out, s.related[paperID])
	sort.SliceStable(out, func(i, j int) bool { return out[i].SimilarityScore > out[j].SimilarityScore })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Citations implements recommend.RelatedStore.
func (s *MemStore) Citations(_ context.Context, paperID int64) (cites, citedBy []int64, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for key := range s.citations {
		switch paperID {
		case key[0]:
			cites = append(cites, key[1])
		case key[1]:
			citedBy = append(citedBy, key[0])
		}
	}
	sort.Slice(cites, func(i, j int) bool { return cites[i] < cites[j] })
	sort.Slice(citedBy, func(i, j int) bool { return citedBy[i] < citedBy[j] })
	return cites, citedBy, nil
}

// ActiveUsers implements recommend.UserDirectory.
func (s *MemStore) ActiveUsers(_ context.Context) ([]recommend.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []recommend.User
	for _, u := range s.users {
		if u.IsActive {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func toSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func sortRatings(r []recommend.Rating) {
	sort.Slice(r, func(i, j int) bool {
		if r[i].UserID != r[j].UserID {
			return r[i].UserID < r[j].UserID
		}
		return r[i].PaperID < r[j].PaperID
	})
}

var _ recommend.Store = (*MemStore)(nil)

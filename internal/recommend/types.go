// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

package recommend

import (
	"context"
	"time"
)

// PositiveRating is the minimum rating that counts as an endorsement.
const PositiveRating = 4

// DefaultBookmarkFolder is used when a bookmark names no folder.
const DefaultBookmarkFolder = "default"

// DefaultReason is stored for recommendations that carry no reason.
const DefaultReason = "Recommended based on your research activity"

// Reasons attached by the hybrid blender.
const (
	ReasonTrending      = "Trending paper in the research community"
	ReasonBoth          = "Matches your interests and is popular among researchers like you"
	ReasonContent       = "Similar to papers you have rated or bookmarked"
	ReasonCollaborative = "Highly rated by researchers with similar interests"
	ReasonFallback      = "Trending in your research area"
)

// Paper is a research paper in the corpus.
type Paper struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Summary  string `json:"summary"`
	Abstract string `json:"abstract"`

	// IsApproved papers are visible to users and eligible for embeddings.
	IsApproved bool `json:"is_approved"`

	// CitationCount is derived from the citations table.
	CitationCount int64 `json:"citation_count"`
	DownloadCount int64 `json:"download_count"`
	ViewCount     int64 `json:"view_count"`

	CreatedAt time.Time `json:"created_at"`
}

// Document returns the text that is embedded for the paper.
// Missing fields contribute an empty string.
//
//nolint:gocritic // value receiver keeps Paper usable as a map value
func (p Paper) Document() string {
	return p.Title + " " + p.Summary + " " + p.Abstract
}

// Citation records that one paper cites another.
type Citation struct {
	CitingPaperID int64 `json:"citing_paper_id"`
	CitedPaperID  int64 `json:"cited_paper_id"`
}

// User is a platform account.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	IsActive bool   `json:"is_active"`
}

// Rating is a user's 1-5 rating of a paper. There is at most one per
// (user, paper).
type Rating struct {
	UserID     int64     `json:"user_id"`
	PaperID    int64     `json:"paper_id"`
	Rating     int       `json:"rating"`
	ReviewText string    `json:"review_text,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Bookmark is a saved paper. There is at most one per (user, paper).
type Bookmark struct {
	UserID    int64     `json:"user_id"`
	PaperID   int64     `json:"paper_id"`
	Folder    string    `json:"folder"`
	CreatedAt time.Time `json:"created_at"`
}

// Embedding is the dense vector of a paper's document.
type Embedding struct {
	PaperID      int64     `json:"paper_id"`
	Vector       []float64 `json:"vector"`
	ModelVersion string    `json:"model_version"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Recommendation is a persisted (user, paper, score, reason) row.
type Recommendation struct {
	UserID    int64     `json:"user_id"`
	PaperID   int64     `json:"paper_id"`
	Score     float64   `json:"score"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// RelationType classifies a RelatedPaper edge.
type RelationType string

const (
	// RelationSimilar links papers with similar embeddings.
	RelationSimilar RelationType = "similar"
	// RelationCited links a paper to a paper that cites it.
	RelationCited RelationType = "cited"
	// RelationCites links a paper to a paper it cites.
	RelationCites RelationType = "cites"
)

// RelatedPaper is a precomputed edge from one paper to another.
type RelatedPaper struct {
	PaperID         int64        `json:"paper_id"`
	RelatedPaperID  int64        `json:"related_paper_id"`
	SimilarityScore float64      `json:"similarity_score"`
	RelationType    RelationType `json:"relation_type"`
}

// ScoredPaper is a ranker or blender output.
type ScoredPaper struct {
	PaperID int64   `json:"paper_id"`
	Score   float64 `json:"score"`

	// Reason is only set by the hybrid blender.
	Reason string `json:"reason,omitempty"`
}

// PredictRequest is the input to a ranker.
type PredictRequest struct {
	UserID  int64
	K       int
	Profile Profile
}

// Algorithm is a ranker that proposes scored papers for a user.
// Implementations must be safe for concurrent use.
type Algorithm interface {
	// Name returns the ranker identifier used in logs.
	Name() string

	// Predict returns at most req.K papers sorted by score descending.
	Predict(ctx context.Context, req PredictRequest) ([]ScoredPaper, error)
}

// Reranker reorders a sorted candidate list, typically to add diversity.
// Scores are left untouched.
type Reranker interface {
	Name() string

	// Rerank returns at most k items. vectors holds the embedding of each
	// candidate that has one.
	Rerank(ctx context.Context, items []ScoredPaper, vectors map[int64][]float64, k int) []ScoredPaper
}

// BuildCheckpoint records the progress of an embedding build.
type BuildCheckpoint struct {
	BuildID      string    `json:"build_id"`
	ModelVersion string    `json:"model_version"`
	LastPaperID  int64     `json:"last_paper_id"`
	Embedded     int       `json:"embedded"`
	Completed    bool      `json:"completed"`
	StartedAt    time.Time `json:"started_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

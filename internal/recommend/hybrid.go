// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

package recommend

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"
)

// normalizeEpsilon replaces the min-max denominator when every raw score is
// equal, which maps them all to 0.
const normalizeEpsilon = 1e-8

// Weights are the hybrid blend weights of the content, collaborative and
// popularity signals.
type Weights struct {
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
	Gamma float64 `json:"gamma"`
}

// HybridOptions controls a blend. A zero K falls back to Limits.DefaultK
// and nil Weights to the configured Alpha, Beta and Gamma. Explicit
// weights are used as given, including all zero.
type HybridOptions struct {
	K       int
	Weights *Weights
}

// HybridResult is a ranked list with the facts that produced it.
type HybridResult struct {
	Items []ScoredPaper `json:"items"`

	// ColdStart is set when the user had no profile.
	ColdStart bool `json:"cold_start"`

	ContentCandidates       int `json:"content_candidates"`
	CollaborativeCandidates int `json:"collaborative_candidates"`
}

// HybridRecommend blends the content, collaborative and popularity signals
// into at most K papers with scores in [0, 1] and a reason each. Nothing is
// persisted.
func (e *Engine) HybridRecommend(ctx context.Context, userID int64, opts HybridOptions) (HybridResult, error) {
	k, weights, err := e.prepareHybridOptions(opts)
	if err != nil {
		return HybridResult{}, err
	}

	store, err := e.getStore()
	if err != nil {
		return HybridResult{}, err
	}
	content, collaborative, err := e.getRankers()
	if err != nil {
		return HybridResult{}, err
	}

	profile, err := e.UserProfile(ctx, userID)
	if err != nil {
		return HybridResult{}, fmt.Errorf("user profile: %w", err)
	}

	req := PredictRequest{
		UserID:  userID,
		K:       k * e.config.Blend.CandidateMultiplier,
		Profile: profile,
	}
	contentItems, collabItems, err := e.runRankers(ctx, req, content, collaborative)
	if err != nil {
		return HybridResult{}, err
	}

	contentScores := scoreMap(contentItems)
	collabScores := scoreMap(collabItems)

	popularity, err := e.popularityScores(ctx, store, contentScores, collabScores)
	if err != nil {
		return HybridResult{}, err
	}

	items := blend(contentScores, collabScores, popularity, weights)
	normalize(items)
	SortScored(items)

	items, err = e.rerank(ctx, store, items, k)
	if err != nil {
		return HybridResult{}, err
	}
	if len(items) > k {
		items = items[:k]
	}

	for i := range items {
		items[i].Reason = reasonFor(profile, items[i].PaperID, contentScores, collabScores)
	}

	e.logger.Debug().
		Int64("user_id", userID).
		Bool("cold_start", !profile.Exists()).
		Int("content_candidates", len(contentItems)).
		Int("collaborative_candidates", len(collabItems)).
		Int("returned", len(items)).
		Msg("hybrid blend complete")

	return HybridResult{
		Items:                   items,
		ColdStart:               !profile.Exists(),
		ContentCandidates:       len(contentItems),
		CollaborativeCandidates: len(collabItems),
	}, nil
}

// prepareHybridOptions applies configured defaults and rejects negative
// weights.
func (e *Engine) prepareHybridOptions(opts HybridOptions) (int, Weights, error) {
	k := e.clampK(opts.K)
	if opts.Weights == nil {
		return k, e.ConfiguredWeights(), nil
	}
	w := *opts.Weights
	if w.Alpha < 0 || w.Beta < 0 || w.Gamma < 0 {
		return 0, Weights{}, fmt.Errorf("%w: alpha=%f beta=%f gamma=%f", ErrNegativeWeight, w.Alpha, w.Beta, w.Gamma)
	}
	return k, w, nil
}

// ConfiguredWeights returns the blend weights of the engine configuration.
func (e *Engine) ConfiguredWeights() Weights {
	return Weights{Alpha: e.config.Blend.Alpha, Beta: e.config.Blend.Beta, Gamma: e.config.Blend.Gamma}
}

// runRankers runs both rankers concurrently, each bounded by the
// prediction timeout. A failure of either fails the blend.
func (e *Engine) runRankers(ctx context.Context, req PredictRequest, content, collaborative Algorithm) (contentItems, collabItems []ScoredPaper, err error) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		items, err := e.predict(gctx, content, req)
		contentItems = items
		return err
	})
	g.Go(func() error {
		items, err := e.predict(gctx, collaborative, req)
		collabItems = items
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return contentItems, collabItems, nil
}

// predict runs one ranker under the prediction timeout.
func (e *Engine) predict(ctx context.Context, alg Algorithm, req PredictRequest) ([]ScoredPaper, error) {
	algCtx, cancel := context.WithTimeout(ctx, e.config.Limits.PredictionTimeout)
	defer cancel()

	items, err := alg.Predict(algCtx, req)
	if err != nil {
		return nil, fmt.Errorf("%s ranker: %w", alg.Name(), err)
	}
	return items, nil
}

// popularityScores computes 0.7*citations + 0.3*downloads (with the
// configured weights) for the candidates in the configured scope.
func (e *Engine) popularityScores(ctx context.Context, store Store, contentScores, collabScores map[int64]float64) (map[int64]float64, error) {
	ids := make([]int64, 0, len(contentScores)+len(collabScores))
	for id := range contentScores {
		ids = append(ids, id)
	}
	if e.config.Blend.PopularityScope == PopularityUnion {
		for id := range collabScores {
			if _, ok := contentScores[id]; !ok {
				ids = append(ids, id)
			}
		}
	}
	if len(ids) == 0 {
		return map[int64]float64{}, nil
	}

	papers, err := store.PapersByID(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get candidate papers: %w", err)
	}

	popularity := make(map[int64]float64, len(ids))
	for _, id := range ids {
		p := papers[id] // missing papers count as zero
		popularity[id] = e.config.Blend.CitationWeight*float64(p.CitationCount) +
			e.config.Blend.DownloadWeight*float64(p.DownloadCount)
	}
	return popularity, nil
}

// rerank applies the diversity reranker when one is enabled.
func (e *Engine) rerank(ctx context.Context, store Store, items []ScoredPaper, k int) ([]ScoredPaper, error) {
	rr := e.getReranker()
	if rr == nil || len(items) == 0 {
		return items, nil
	}

	ids := make([]int64, len(items))
	for i := range items {
		ids[i] = items[i].PaperID
	}
	embeddings, err := store.EmbeddingsByPaper(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get candidate embeddings: %w", err)
	}

	vectors := make(map[int64][]float64, len(embeddings))
	for id, emb := range embeddings {
		vectors[id] = emb.Vector
	}
	return rr.Rerank(ctx, items, vectors, k), nil
}

// blend sums the weighted signals per paper id over every candidate.
func blend(contentScores, collabScores, popularity map[int64]float64, w Weights) []ScoredPaper {
	raw := make(map[int64]float64, len(contentScores)+len(collabScores))
	for id, s := range contentScores {
		raw[id] += w.Alpha * s
	}
	for id, s := range collabScores {
		raw[id] += w.Beta * s
	}
	for id, s := range popularity {
		raw[id] += w.Gamma * s
	}

	items := make([]ScoredPaper, 0, len(raw))
	for id, s := range raw {
		items = append(items, ScoredPaper{PaperID: id, Score: s})
	}
	return items
}

// normalize min-max scales scores to [0, 1] in place.
func normalize(items []ScoredPaper) {
	if len(items) == 0 {
		return
	}

	minScore, maxScore := items[0].Score, items[0].Score
	for _, it := range items[1:] {
		if it.Score < minScore {
			minScore = it.Score
		}
		if it.Score > maxScore {
			maxScore = it.Score
		}
	}

	denom := maxScore - minScore
	if denom == 0 {
		denom = normalizeEpsilon
	}
	for i := range items {
		items[i].Score = (items[i].Score - minScore) / denom
	}
}

// reasonFor explains why a paper was recommended.
func reasonFor(profile Profile, paperID int64, contentScores, collabScores map[int64]float64) string {
	if !profile.Exists() {
		return ReasonTrending
	}
	_, inContent := contentScores[paperID]
	_, inCollab := collabScores[paperID]
	switch {
	case inContent && inCollab:
		return ReasonBoth
	case inContent:
		return ReasonContent
	case inCollab:
		return ReasonCollaborative
	default:
		return ReasonFallback
	}
}

// scoreMap indexes ranker output by paper id. A paper listed twice keeps
// its first score.
func scoreMap(items []ScoredPaper) map[int64]float64 {
	m := make(map[int64]float64, len(items))
	for _, it := range items {
		if _, ok := m[it.PaperID]; !ok {
			m[it.PaperID] = it.Score
		}
	}
	return m
}

// SortScored orders by score descending, then paper id ascending.
func SortScored(items []ScoredPaper) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].PaperID < items[j].PaperID
	})
}

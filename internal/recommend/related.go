// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

package recommend

import (
	"context"
	"fmt"
)

// BuildRelatedPapers recomputes the related-paper edges of paperID: the k
// most similar approved papers by embedding cosine (RelationSimilar), plus
// one edge per citation of an approved paper in each direction
// (RelationCites, RelationCited) with similarity 1. The paper's previous edges are replaced. k <= 0 uses
// Related.K.
func (e *Engine) BuildRelatedPapers(ctx context.Context, paperID int64, k int) ([]RelatedPaper, error) {
	store, err := e.getStore()
	if err != nil {
		return nil, err
	}
	if k <= 0 {
		k = e.config.Related.K
	}

	papers, err := store.PapersByID(ctx, []int64{paperID})
	if err != nil {
		return nil, fmt.Errorf("get paper: %w", err)
	}
	if _, ok := papers[paperID]; !ok {
		return nil, fmt.Errorf("paper %d: %w", paperID, ErrPaperNotFound)
	}

	similar, err := e.similarPapers(ctx, store, paperID, k)
	if err != nil {
		return nil, err
	}

	cites, citedBy, err := store.Citations(ctx, paperID)
	if err != nil {
		return nil, fmt.Errorf("get citations: %w", err)
	}
	cites, citedBy, err = approvedCitations(ctx, store, cites, citedBy)
	if err != nil {
		return nil, err
	}

	related := make([]RelatedPaper, 0, len(similar)+len(cites)+len(citedBy))
	for _, s := range similar {
		related = append(related, RelatedPaper{
			PaperID:         paperID,
			RelatedPaperID:  s.PaperID,
			SimilarityScore: s.Score,
			RelationType:    RelationSimilar,
		})
	}
	for _, id := range cites {
		related = append(related, RelatedPaper{PaperID: paperID, RelatedPaperID: id, SimilarityScore: 1, RelationType: RelationCites})
	}
	for _, id := range citedBy {
		related = append(related, RelatedPaper{PaperID: paperID, RelatedPaperID: id, SimilarityScore: 1, RelationType: RelationCited})
	}

	if err := store.ReplaceRelatedPapers(ctx, paperID, related); err != nil {
		return nil, fmt.Errorf("replace related papers: %w", err)
	}

	e.logger.Debug().
		Int64("paper_id", paperID).
		Int("similar", len(similar)).
		Int("cites", len(cites)).
		Int("cited_by", len(citedBy)).
		Msg("built related papers")
	return related, nil
}

// approvedCitations drops citation ids of papers that are not approved.
func approvedCitations(ctx context.Context, store Store, cites, citedBy []int64) (approvedCites, approvedCitedBy []int64, err error) {
	if len(cites) == 0 && len(citedBy) == 0 {
		return nil, nil, nil
	}

	ids := make([]int64, 0, len(cites)+len(citedBy))
	ids = append(ids, cites...)
	ids = append(ids, citedBy...)
	papers, err := store.PapersByID(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("get cited papers: %w", err)
	}

	keep := func(in []int64) []int64 {
		var out []int64
		for _, id := range in {
			if p, ok := papers[id]; ok && p.IsApproved {
				out = append(out, id)
			}
		}
		return out
	}
	return keep(cites), keep(citedBy), nil
}

// similarPapers ranks approved papers by cosine similarity to paperID's
// embedding. A paper without an embedding has no similar papers.
func (e *Engine) similarPapers(ctx context.Context, store Store, paperID int64, k int) ([]ScoredPaper, error) {
	own, err := store.EmbeddingsByPaper(ctx, []int64{paperID})
	if err != nil {
		return nil, fmt.Errorf("get embedding: %w", err)
	}
	target, ok := own[paperID]
	if !ok {
		return nil, nil
	}

	all, err := store.ApprovedEmbeddings(ctx)
	if err != nil {
		return nil, fmt.Errorf("get embeddings: %w", err)
	}

	scored := make([]ScoredPaper, 0, len(all))
	for i := range all {
		if all[i].PaperID == paperID {
			continue
		}
		scored = append(scored, ScoredPaper{
			PaperID: all[i].PaperID,
			Score:   CosineSimilarity(target.Vector, all[i].Vector),
		})
	}

	SortScored(scored)
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// RelatedPapers returns the stored edges of paperID. limit <= 0 uses
// Related.K.
func (e *Engine) RelatedPapers(ctx context.Context, paperID int64, limit int) ([]RelatedPaper, error) {
	store, err := e.getStore()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = e.config.Related.K
	}
	related, err := store.ListRelatedPapers(ctx, paperID, limit)
	if err != nil {
		return nil, fmt.Errorf("list related papers: %w", err)
	}
	return related, nil
}

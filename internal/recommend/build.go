// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BuildOptions controls an embedding build.
type BuildOptions struct {
	// Fresh ignores any stored checkpoint and embeds every approved paper.
	Fresh bool
}

// BuildResult summarizes an embedding build.
type BuildResult struct {
	BuildID      string `json:"build_id"`
	ModelVersion string `json:"model_version"`

	// Papers is the number of approved papers in the corpus.
	Papers int `json:"papers"`

	// Embedded is the number of papers embedded by this build, including
	// those embedded before a resumed interruption.
	Embedded int `json:"embedded"`

	// Resumed is set when the build continued from a checkpoint.
	Resumed bool `json:"resumed"`

	// ResumedAfter is the last paper id of the checkpoint that was resumed.
	ResumedAfter int64 `json:"resumed_after,omitempty"`
}

// BuildEmbeddings embeds the document of every approved paper and upserts
// the vectors tagged with the model version. Papers are processed in id
// order in batches; after each batch a checkpoint is saved so that an
// interrupted build resumes after the last stored paper. A resumed build
// also embeds papers at or below the checkpoint that lack an embedding
// written by the interrupted build, such as papers approved since.
//
// A model failure aborts the build. Embeddings already stored by earlier
// batches are kept.
func (e *Engine) BuildEmbeddings(ctx context.Context, opts BuildOptions) (BuildResult, error) {
	e.buildMu.Lock()
	defer e.buildMu.Unlock()

	start := time.Now()
	result, err := e.buildEmbeddings(ctx, opts)
	e.getObserver().BuildFinished(result, time.Since(start), err)
	return result, err
}

func (e *Engine) buildEmbeddings(ctx context.Context, opts BuildOptions) (BuildResult, error) {
	store, err := e.getStore()
	if err != nil {
		return BuildResult{}, err
	}
	model, err := e.getModel()
	if err != nil {
		return BuildResult{}, err
	}

	papers, err := store.ApprovedPapers(ctx)
	if err != nil {
		return BuildResult{}, fmt.Errorf("get approved papers: %w", err)
	}
	if len(papers) == 0 {
		e.logger.Info().Msg("no approved papers, nothing to embed")
		return BuildResult{}, nil
	}

	cp := e.startCheckpoint(ctx, model.ModelVersion(), opts.Fresh)
	result := BuildResult{
		BuildID:      cp.BuildID,
		ModelVersion: cp.ModelVersion,
		Papers:       len(papers),
		Embedded:     cp.Embedded,
		Resumed:      cp.LastPaperID > 0,
		ResumedAfter: cp.LastPaperID,
	}

	logger := e.logger.With().
		Str("build_id", cp.BuildID).
		Str("model_version", cp.ModelVersion).
		Logger()
	logger.Info().
		Int("papers", len(papers)).
		Bool("resumed", result.Resumed).
		Int64("resumed_after", cp.LastPaperID).
		Msg("starting embedding build")

	pending := papersAfter(papers, cp.LastPaperID)
	if result.Resumed {
		stale, err := e.staleBefore(ctx, store, papers, cp)
		if err != nil {
			return result, err
		}
		if len(stale) > 0 {
			logger.Info().Int("stale", len(stale)).Msg("re-embedding papers missed by the interrupted build")
			pending = append(stale, pending...)
		}
	}
	batchSize := e.config.Build.BatchSize

	for offset := 0; offset < len(pending); offset += batchSize {
		end := offset + batchSize
		if end > len(pending) {
			end = len(pending)
		}

		n, err := e.embedBatch(ctx, store, model, pending[offset:end])
		result.Embedded += n
		if err != nil {
			return result, err
		}

		if last := pending[end-1].ID; last > cp.LastPaperID {
			cp.LastPaperID = last
		}
		cp.Embedded = result.Embedded
		e.saveCheckpoint(ctx, cp, logger)

		logger.Debug().
			Int("embedded", result.Embedded).
			Int("remaining", len(pending)-end).
			Msg("embedded batch")
	}

	cp.Completed = true
	e.saveCheckpoint(ctx, cp, logger)

	logger.Info().
		Int("embedded", result.Embedded).
		Msg("embedding build complete")
	return result, nil
}

// embedBatch embeds and stores one batch, returning how many were stored.
func (e *Engine) embedBatch(ctx context.Context, store Store, model EmbeddingModel, batch []Paper) (int, error) {
	docs := make([]string, 0, len(batch))
	for i := range batch {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		docs = append(docs, batch[i].Document())
	}

	vectors, err := model.Embed(ctx, docs)
	if err != nil {
		return 0, fmt.Errorf("embed batch starting at paper %d: %w", batch[0].ID, err)
	}
	if len(vectors) != len(batch) {
		return 0, fmt.Errorf("embed batch starting at paper %d: model returned %d vectors for %d documents",
			batch[0].ID, len(vectors), len(batch))
	}

	now := time.Now().UTC()
	embeddings := make([]Embedding, len(batch))
	for i := range batch {
		embeddings[i] = Embedding{
			PaperID:      batch[i].ID,
			Vector:       vectors[i],
			ModelVersion: model.ModelVersion(),
			UpdatedAt:    now,
		}
	}

	if err := store.UpsertEmbeddings(ctx, embeddings); err != nil {
		return 0, fmt.Errorf("store embeddings: %w", err)
	}
	return len(embeddings), nil
}

// staleBefore returns the papers with id at or below cp.LastPaperID whose
// embedding is missing, has another model version, or predates the build.
func (e *Engine) staleBefore(ctx context.Context, store Store, papers []Paper, cp BuildCheckpoint) ([]Paper, error) {
	covered := papers[:len(papers)-len(papersAfter(papers, cp.LastPaperID))]
	if len(covered) == 0 {
		return nil, nil
	}

	ids := make([]int64, len(covered))
	for i := range covered {
		ids[i] = covered[i].ID
	}
	embeddings, err := store.EmbeddingsByPaper(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get embeddings of resumed papers: %w", err)
	}

	var stale []Paper
	for i := range covered {
		emb, ok := embeddings[covered[i].ID]
		if !ok || emb.ModelVersion != cp.ModelVersion || emb.UpdatedAt.Before(cp.StartedAt) {
			stale = append(stale, covered[i])
		}
	}
	return stale, nil
}

// ResetBuildCheckpoint discards stored build progress so the next build
// embeds every approved paper. It is called after the corpus text changes.
func (e *Engine) ResetBuildCheckpoint(ctx context.Context) error {
	checkpoints := e.getCheckpointer()
	if checkpoints == nil {
		return nil
	}
	if err := checkpoints.Clear(ctx); err != nil {
		return fmt.Errorf("clear build checkpoint: %w", err)
	}
	return nil
}

// startCheckpoint returns the checkpoint to continue from: the stored one
// if it is incomplete and was written by the same model version, else a
// new one. A fresh build clears the stored checkpoint first.
func (e *Engine) startCheckpoint(ctx context.Context, modelVersion string, fresh bool) BuildCheckpoint {
	// Embedding timestamps are stored with microsecond precision.
	now := time.Now().UTC().Truncate(time.Microsecond)
	newCP := BuildCheckpoint{
		BuildID:      uuid.New().String(),
		ModelVersion: modelVersion,
		StartedAt:    now,
		UpdatedAt:    now,
	}

	checkpoints := e.getCheckpointer()
	if checkpoints == nil {
		return newCP
	}
	if fresh {
		if err := checkpoints.Clear(ctx); err != nil {
			e.logger.Warn().Err(err).Msg("failed to clear build checkpoint")
		}
		return newCP
	}

	cp, err := checkpoints.Load(ctx)
	switch {
	case errors.Is(err, ErrCheckpointNotFound):
		return newCP
	case err != nil:
		e.logger.Warn().Err(err).Msg("failed to load build checkpoint, starting over")
		return newCP
	case cp.Completed || cp.ModelVersion != modelVersion:
		return newCP
	default:
		return cp
	}
}

// saveCheckpoint stores progress. Failures are logged and the build continues.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) saveCheckpoint(ctx context.Context, cp BuildCheckpoint, logger zerolog.Logger) {
	checkpoints := e.getCheckpointer()
	if checkpoints == nil {
		return
	}
	cp.UpdatedAt = time.Now().UTC()
	if err := checkpoints.Save(ctx, cp); err != nil {
		logger.Warn().Err(err).Int64("last_paper_id", cp.LastPaperID).Msg("failed to save build checkpoint")
	}
}

// papersAfter returns the papers with id greater than after. papers must
// be sorted by id.
func papersAfter(papers []Paper, after int64) []Paper {
	if after <= 0 {
		return papers
	}
	for i := range papers {
		if papers[i].ID > after {
			return papers[i:]
		}
	}
	return nil
}

// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

package main

import (
	"errors"
	"fmt"

	"github.com/tomtom215/paperwise/internal/checkpoint"
	"github.com/tomtom215/paperwise/internal/config"
	"github.com/tomtom215/paperwise/internal/database"
	"github.com/tomtom215/paperwise/internal/embedding"
	"github.com/tomtom215/paperwise/internal/logging"
	"github.com/tomtom215/paperwise/internal/metrics"
	"github.com/tomtom215/paperwise/internal/recommend"
	"github.com/tomtom215/paperwise/internal/recommend/algorithms"
	"github.com/tomtom215/paperwise/internal/recommend/reranking"
)

// app holds the wired components shared by the commands.
type app struct {
	cfg         *config.Config
	db          *database.DB
	checkpoints *checkpoint.Store
	engine      *recommend.Engine
}

// newApp opens the database and checkpoint store and wires the engine.
// The caller must Close the app.
func newApp(cfg *config.Config) (*app, error) {
	db, err := database.New(&cfg.Database, logging.WithComponent("database"))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a := &app{cfg: cfg, db: db}

	engine, err := recommend.NewEngine(engineConfig(cfg), logging.WithComponent("recommend"))
	if err != nil {
		a.Close()
		return nil, err
	}

	model, err := embedding.New(&cfg.Embedding, logging.WithComponent("embedding"))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create embedding model: %w", err)
	}

	engine.SetStore(db)
	engine.SetEmbeddingModel(model)
	engine.SetContentRanker(algorithms.NewContent(db))
	engine.SetCollaborativeRanker(algorithms.NewCollaborative(db))
	engine.SetReranker(reranking.NewMMR(cfg.Recommend.DiversityLambda))
	engine.SetObserver(metrics.NewObserver())

	if cfg.Checkpoint.Enabled {
		cps, err := checkpoint.Open(cfg.Checkpoint.Path, logging.WithComponent("checkpoint"))
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open checkpoint store: %w", err)
		}
		a.checkpoints = cps
		engine.SetCheckpointer(cps)
	}

	a.engine = engine
	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("embedding_provider", cfg.Embedding.Provider).
		Str("model_version", model.ModelVersion()).
		Bool("checkpoints", cfg.Checkpoint.Enabled).
		Msg("Engine initialized")
	return a, nil
}

// Close releases the checkpoint store and the database.
func (a *app) Close() error {
	var errs []error
	if a.checkpoints != nil {
		if err := a.checkpoints.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close checkpoint store: %w", err))
		}
	}
	if err := a.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}
	return errors.Join(errs...)
}

// engineConfig maps the recommend and embedding settings onto the engine
// configuration.
func engineConfig(cfg *config.Config) *recommend.Config {
	ec := recommend.DefaultConfig()
	ec.Blend.Alpha = cfg.Recommend.Alpha
	ec.Blend.Beta = cfg.Recommend.Beta
	ec.Blend.Gamma = cfg.Recommend.Gamma
	ec.Blend.PopularityScope = recommend.PopularityScope(cfg.Recommend.PopularityScope)
	ec.Build.BatchSize = cfg.Embedding.BatchSize
	ec.Limits.DefaultK = cfg.Recommend.TopK
	if ec.Limits.MaxK < ec.Limits.DefaultK {
		ec.Limits.MaxK = ec.Limits.DefaultK
	}
	ec.Limits.PredictionTimeout = cfg.Recommend.PredictionTimeout
	ec.Diversity.Enabled = cfg.Recommend.DiversityEnabled
	ec.Diversity.MMRLambda = cfg.Recommend.DiversityLambda
	ec.Related.K = cfg.Recommend.RelatedK
	return ec
}

// withApp opens the app for one command and closes it afterwards.
func withApp(cfg *config.Config, fn func(a *app) error) (err error) {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return fn(a)
}

// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

package metrics

import (
	"time"

	"github.com/tomtom215/paperwise/internal/recommend"
)

// Observer records engine outcomes in Prometheus.
type Observer struct{}

// NewObserver returns an Observer for recommend.Engine.SetObserver.
func NewObserver() *Observer {
	return &Observer{}
}

// BuildFinished implements recommend.Observer.
//
//nolint:gocritic // hugeParam: BuildResult passed by value to satisfy the interface
func (o *Observer) BuildFinished(result recommend.BuildResult, duration time.Duration, err error) {
	EmbeddingBuildsTotal.WithLabelValues(outcome(err)).Inc()
	EmbeddingBuildDuration.Observe(duration.Seconds())
	if result.Resumed {
		EmbeddingBuildResumed.Inc()
	}
	if err == nil {
		EmbeddedPapers.Set(float64(result.Embedded))
	}
}

// GenerationFinished implements recommend.Observer.
func (o *Observer) GenerationFinished(coldStart bool, items int, duration time.Duration, err error) {
	RecommendationGenerations.WithLabelValues(outcome(err)).Inc()
	RecommendationGenerationDuration.Observe(duration.Seconds())
	if err != nil {
		return
	}
	if coldStart {
		RecommendationColdStarts.Inc()
	}
	RecommendationItems.Observe(float64(items))
}

var _ recommend.Observer = (*Observer)(nil)

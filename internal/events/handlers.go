// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

package events

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/tomtom215/paperwise/internal/logging"
	"github.com/tomtom215/paperwise/internal/metrics"
	"github.com/tomtom215/paperwise/internal/recommend"
)

// Mutations are the writes triggers apply before recomputing.
type Mutations interface {
	ApprovePaper(ctx context.Context, paperID int64) error
	UpsertRating(ctx context.Context, r recommend.Rating) error
	UpsertBookmark(ctx context.Context, b recommend.Bookmark) error
}

// Recommender is the part of the engine triggers drive.
type Recommender interface {
	BuildEmbeddings(ctx context.Context, opts recommend.BuildOptions) (recommend.BuildResult, error)
	BuildRelatedPapers(ctx context.Context, paperID int64, k int) ([]recommend.RelatedPaper, error)
	GenerateForUser(ctx context.Context, userID int64, opts recommend.GenerateOptions) ([]recommend.ScoredPaper, error)
}

// Handlers applies trigger events.
type Handlers struct {
	store  Mutations
	engine Recommender
	logger zerolog.Logger
}

// NewHandlers creates the trigger handlers.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHandlers(store Mutations, engine Recommender, logger zerolog.Logger) *Handlers {
	return &Handlers{
		store:  store,
		engine: engine,
		logger: logger.With().Str("component", "event-handlers").Logger(),
	}
}

// Handle applies one event. Errors are returned to the router so the
// message is retried and finally poisoned.
func (h *Handlers) Handle(ctx context.Context, e *Event) error {
	switch e.Type {
	case TopicPaperApproved:
		return h.paperApproved(ctx, e)
	case TopicRatingSaved:
		return h.ratingSaved(ctx, e)
	case TopicBookmarkSaved:
		return h.bookmarkSaved(ctx, e)
	case TopicRebuild:
		return h.rebuild(ctx)
	case TopicGenerate:
		return h.generate(ctx, e.UserID)
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, e.Type)
	}
}

func (h *Handlers) paperApproved(ctx context.Context, e *Event) error {
	if err := h.store.ApprovePaper(ctx, e.PaperID); err != nil {
		return fmt.Errorf("approve paper %d: %w", e.PaperID, err)
	}
	if err := h.rebuild(ctx); err != nil {
		return err
	}
	if _, err := h.engine.BuildRelatedPapers(ctx, e.PaperID, 0); err != nil {
		return fmt.Errorf("build related papers for %d: %w", e.PaperID, err)
	}
	return nil
}

func (h *Handlers) ratingSaved(ctx context.Context, e *Event) error {
	if err := h.store.UpsertRating(ctx, e.RatingRecord()); err != nil {
		return fmt.Errorf("save rating: %w", err)
	}
	if e.Rating < recommend.PositiveRating {
		return nil
	}
	return h.generate(ctx, e.UserID)
}

func (h *Handlers) bookmarkSaved(ctx context.Context, e *Event) error {
	if err := h.store.UpsertBookmark(ctx, e.BookmarkRecord()); err != nil {
		return fmt.Errorf("save bookmark: %w", err)
	}
	return h.generate(ctx, e.UserID)
}

func (h *Handlers) rebuild(ctx context.Context) error {
	if _, err := h.engine.BuildEmbeddings(ctx, recommend.BuildOptions{}); err != nil {
		return fmt.Errorf("rebuild embeddings: %w", err)
	}
	return nil
}

func (h *Handlers) generate(ctx context.Context, userID int64) error {
	if _, err := h.engine.GenerateForUser(ctx, userID, recommend.GenerateOptions{}); err != nil {
		return fmt.Errorf("generate recommendations for user %d: %w", userID, err)
	}
	return nil
}

// MessageHandler adapts Handle to a Watermill consumer for topic.
func (h *Handlers) MessageHandler(topic string) message.NoPublishHandlerFunc {
	return func(msg *message.Message) (err error) {
		defer func() { metrics.RecordEventProcessed(topic, err) }()

		e, err := Unmarshal(msg.Payload)
		if err != nil {
			return err
		}
		if e.Type != topic {
			return fmt.Errorf("%w: %s event on topic %s", ErrInvalidEvent, e.Type, topic)
		}

		correlationID := msg.Metadata.Get(metadataCorrelation)
		if correlationID == "" {
			correlationID = e.EventID
		}
		ctx := logging.ContextWithCorrelationID(msg.Context(), correlationID)

		if err := h.Handle(ctx, e); err != nil {
			h.logger.Warn().Err(err).
				Str("event_id", e.EventID).
				Str("topic", topic).
				Msg("event handling failed")
			return err
		}

		h.logger.Debug().
			Str("event_id", e.EventID).
			Str("topic", topic).
			Int64("user_id", e.UserID).
			Int64("paper_id", e.PaperID).
			Msg("event handled")
		return nil
	}
}

// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/paperwise/internal/recommend"
	"github.com/tomtom215/paperwise/internal/validation"
)

// SchemaVersion is the current event schema version.
// Increment this when making breaking changes to Event.
const SchemaVersion = 1

// Topics. The event type and its topic are the same string.
const (
	TopicPaperApproved  = "papers.approved"
	TopicRatingSaved    = "ratings.saved"
	TopicBookmarkSaved  = "bookmarks.saved"
	TopicRebuild        = "embeddings.rebuild"
	TopicGenerate       = "recommendations.generate"
	DefaultPoisonTopic  = "recommend.poison"
	metadataEventID     = "event_id"
	metadataEventType   = "event_type"
	metadataCorrelation = "correlation_id"
)

// Topics lists every trigger topic in handling order.
var Topics = []string{
	TopicPaperApproved,
	TopicRatingSaved,
	TopicBookmarkSaved,
	TopicRebuild,
	TopicGenerate,
}

// ErrInvalidEvent is returned for events that fail validation.
var ErrInvalidEvent = errors.New("invalid event")

// Event is the envelope of every trigger. Only the fields relevant to Type
// are set.
type Event struct {
	SchemaVersion int       `json:"schema_version" validate:"gte=1"`
	EventID       string    `json:"event_id" validate:"required,uuid"`
	Type          string    `json:"type" validate:"required,oneof=papers.approved ratings.saved bookmarks.saved embeddings.rebuild recommendations.generate"`
	UserID        int64     `json:"user_id,omitempty" validate:"gte=0"`
	PaperID       int64     `json:"paper_id,omitempty" validate:"gte=0"`
	Rating        int       `json:"rating,omitempty" validate:"gte=0,lte=5"`
	Folder        string    `json:"folder,omitempty" validate:"max=255"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func newEvent(eventType string) *Event {
	return &Event{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.New().String(),
		Type:          eventType,
		OccurredAt:    time.Now().UTC(),
	}
}

// NewPaperApproved creates a papers.approved event.
func NewPaperApproved(paperID int64) *Event {
	e := newEvent(TopicPaperApproved)
	e.PaperID = paperID
	return e
}

// NewRatingSaved creates a ratings.saved event.
func NewRatingSaved(userID, paperID int64, rating int) *Event {
	e := newEvent(TopicRatingSaved)
	e.UserID = userID
	e.PaperID = paperID
	e.Rating = rating
	return e
}

// NewBookmarkSaved creates a bookmarks.saved event. An empty folder is
// stored as the default folder.
func NewBookmarkSaved(userID, paperID int64, folder string) *Event {
	e := newEvent(TopicBookmarkSaved)
	e.UserID = userID
	e.PaperID = paperID
	e.Folder = folder
	return e
}

// NewRebuild creates an embeddings.rebuild event.
func NewRebuild() *Event {
	return newEvent(TopicRebuild)
}

// NewGenerate creates a recommendations.generate event.
func NewGenerate(userID int64) *Event {
	e := newEvent(TopicGenerate)
	e.UserID = userID
	return e
}

// Topic returns the topic the event is published on.
func (e *Event) Topic() string {
	return e.Type
}

// Validate checks the envelope and the fields its type requires.
func (e *Event) Validate() error {
	if err := validation.ValidateStruct(e); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if e.OccurredAt.IsZero() {
		return fmt.Errorf("%w: occurred_at is required", ErrInvalidEvent)
	}

	switch e.Type {
	case TopicPaperApproved:
		if e.PaperID == 0 {
			return fmt.Errorf("%w: %s requires paper_id", ErrInvalidEvent, e.Type)
		}
	case TopicRatingSaved:
		if e.UserID == 0 || e.PaperID == 0 {
			return fmt.Errorf("%w: %s requires user_id and paper_id", ErrInvalidEvent, e.Type)
		}
		if e.Rating < 1 {
			return fmt.Errorf("%w: %s requires a rating between 1 and 5", ErrInvalidEvent, e.Type)
		}
	case TopicBookmarkSaved:
		if e.UserID == 0 || e.PaperID == 0 {
			return fmt.Errorf("%w: %s requires user_id and paper_id", ErrInvalidEvent, e.Type)
		}
	case TopicGenerate:
		if e.UserID == 0 {
			return fmt.Errorf("%w: %s requires user_id", ErrInvalidEvent, e.Type)
		}
	}
	return nil
}

// RatingRecord converts a ratings.saved event.
func (e *Event) RatingRecord() recommend.Rating {
	return recommend.Rating{UserID: e.UserID, PaperID: e.PaperID, Rating: e.Rating, CreatedAt: e.OccurredAt}
}

// BookmarkRecord converts a bookmarks.saved event.
func (e *Event) BookmarkRecord() recommend.Bookmark {
	return recommend.Bookmark{UserID: e.UserID, PaperID: e.PaperID, Folder: e.Folder, CreatedAt: e.OccurredAt}
}

// Marshal validates and encodes an event.
func Marshal(e *Event) ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}

// Unmarshal decodes and validates an event. Events written before schema
// versioning are treated as version 1.
func Unmarshal(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if e.SchemaVersion == 0 {
		e.SchemaVersion = SchemaVersion
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}

// NewMessage encodes an event into a Watermill message whose UUID is the
// event id.
func NewMessage(e *Event) (*message.Message, error) {
	data, err := Marshal(e)
	if err != nil {
		return nil, err
	}
	msg := message.NewMessage(e.EventID, data)
	msg.Metadata.Set(metadataEventID, e.EventID)
	msg.Metadata.Set(metadataEventType, e.Type)
	return msg, nil
}

// eventKey identifies a message for deduplication.
func eventKey(msg *message.Message) (string, error) {
	if id := msg.Metadata.Get(metadataEventID); id != "" {
		return id, nil
	}
	return msg.UUID, nil
}

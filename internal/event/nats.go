// internal/event/nats.go
// Package event provides NATS JetStream implementation for event publishing.
// It streams media and comment lifecycle events so other services can follow the gallery.
package event

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dijam/media-gallery/internal/metrics"
	"github.com/dijam/media-gallery/internal/model"
	"github.com/dijam/media-gallery/internal/telemetry"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/oklog/ulid/v2"
)

// Event types, also used as NATS subjects.
const (
	MediaUploaded  = "gallery.media.uploaded"
	MediaDeleted   = "gallery.media.deleted"
	CommentCreated = "gallery.comments.created"
	CommentDeleted = "gallery.comments.deleted"
)

// Publisher interface defines the event publishing operations required by the gallery service.
type Publisher interface {
	// Media events
	PublishMediaUploaded(ctx context.Context, media model.Media) error
	PublishMediaDeleted(ctx context.Context, media model.DeletedMedia) error

	// Comment events
	PublishCommentCreated(ctx context.Context, comment model.Comment) error
	PublishCommentDeleted(ctx context.Context, comment model.DeletedComment) error

	// Close closes the publisher connection
	Close() error
}

// noop is a no-op implementation of Publisher for when NATS is not configured.
type noop struct{}

// NewNoop returns a Publisher that drops every event.
func NewNoop() Publisher { return noop{} }

func (noop) PublishMediaUploaded(context.Context, model.Media) error { return nil }
func (noop) PublishMediaDeleted(context.Context, model.DeletedMedia) error { return nil }
func (noop) PublishCommentCreated(context.Context, model.Comment) error { return nil }
func (noop) PublishCommentDeleted(context.Context, model.DeletedComment) error { return nil }
func (noop) Close() error { return nil }

// natsPub is the NATS JetStream implementation of Publisher.
type natsPub struct {
	nc      *nats.Conn            // NATS connection
	js      nats.JetStreamContext // JetStream context for stream operations
	metrics *metrics.Metrics
}

// NewPublisher connects to the NATS server at url. An empty url, or any
// connection or stream setup failure, yields a no-op publisher.
func NewPublisher(url string) Publisher {
	if url == "" {
		return noop{}
	}

	nc, err := nats.Connect(url, nats.Name(telemetry.ServiceName))
	if err != nil {
		slog.Warn("NATS connect failed, using noop publisher", "error", err)
		return noop{}
	}

	js, err := nc.JetStream()
	if err != nil {
		slog.Warn("NATS JetStream context creation failed, using noop publisher", "error", err)
		nc.Close()
		return noop{}
	}

	if err := initStreams(js); err != nil {
		slog.Warn("NATS stream initialization failed, using noop publisher", "error", err)
		nc.Close()
		return noop{}
	}

	slog.Info("event publishing enabled", "url", url)
	return &natsPub{nc: nc, js: js, metrics: metrics.NewMetrics()}
}

// initStreams creates the GALLERY_MEDIA and GALLERY_COMMENTS streams.
func initStreams(js nats.JetStreamContext) error {
	streams := []*nats.StreamConfig{
		{
			Name:       "GALLERY_MEDIA",
			Subjects:   []string{"gallery.media.*"},
			Retention:  nats.LimitsPolicy,
			MaxAge:     7 * 24 * time.Hour,
			Discard:    nats.DiscardOld,
			Storage:    nats.FileStorage,
			Duplicates: 2 * time.Minute, // window for Nats-Msg-Id deduplication
		},
		{
			Name:       "GALLERY_COMMENTS",
			Subjects:   []string{"gallery.comments.*"},
			Retention:  nats.LimitsPolicy,
			MaxAge:     7 * 24 * time.Hour,
			Discard:    nats.DiscardOld,
			Storage:    nats.FileStorage,
			Duplicates: 2 * time.Minute,
		},
	}
	for _, cfg := range streams {
		if _, err := js.AddStream(cfg); err != nil {
			return fmt.Errorf("failed to create %s stream: %w", cfg.Name, err)
		}
	}
	return nil
}

// EventEnvelope represents the standard event envelope structure.
// All events published to NATS are wrapped in this envelope for consistency.
type EventEnvelope struct {
	ID            string      `json:"id"`            // ULID, doubles as the JetStream message id
	Type          string      `json:"type"`          // Event type identifier
	Version       string      `json:"version"`       // Event schema version
	OccurredAt    time.Time   `json:"occurredAt"`    // When the event occurred
	CorrelationID string      `json:"correlationId"` // Request correlation id, or a fresh one
	Payload       interface{} `json:"payload"`       // Event-specific data
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewEnvelope wraps payload for publishing.
func NewEnvelope(ctx context.Context, eventType string, payload interface{}) EventEnvelope {
	now := time.Now().UTC()

	entropyMu.Lock()
	id := ulid.MustNew(ulid.Timestamp(now), entropy).String()
	entropyMu.Unlock()

	correlationID := telemetry.CorrelationID(ctx)
	if correlationID == "" {
		correlationID = uuid.New().String()
	}

	return EventEnvelope{
		ID:            id,
		Type:          eventType,
		Version:       "1.0.0",
		OccurredAt:    now,
		CorrelationID: correlationID,
		Payload:       payload,
	}
}

// Close closes the NATS connection.
func (p *natsPub) Close() error {
	if p.nc != nil {
		if err := p.nc.Drain(); err != nil {
			p.nc.Close()
		}
	}
	return nil
}

func (p *natsPub) publish(ctx context.Context, eventType string, payload interface{}) error {
	envelope := NewEnvelope(ctx, eventType, payload)

	b, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	_, err = p.js.Publish(eventType, b, nats.Context(ctx), nats.MsgId(envelope.ID))
	p.metrics.EventPublishTotal.WithLabelValues(eventType, metrics.Status(err)).Inc()
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", eventType, err)
	}
	return nil
}

// PublishMediaUploaded publishes the stored media row.
func (p *natsPub) PublishMediaUploaded(ctx context.Context, media model.Media) error {
	return p.publish(ctx, MediaUploaded, media)
}

// PublishMediaDeleted publishes the id and url of a removed media row.
func (p *natsPub) PublishMediaDeleted(ctx context.Context, media model.DeletedMedia) error {
	return p.publish(ctx, MediaDeleted, media)
}

// PublishCommentCreated publishes the stored comment.
func (p *natsPub) PublishCommentCreated(ctx context.Context, comment model.Comment) error {
	return p.publish(ctx, CommentCreated, comment)
}

// PublishCommentDeleted publishes the ids of a removed comment.
func (p *natsPub) PublishCommentDeleted(ctx context.Context, comment model.DeletedComment) error {
	return p.publish(ctx, CommentDeleted, comment)
}

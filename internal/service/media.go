// Package service implements the gallery's media and comment operations on
// top of the row store, the file store, the profanity filter and the event stream.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dijam/media-gallery/internal/event"
	"github.com/dijam/media-gallery/internal/media"
	"github.com/dijam/media-gallery/internal/metrics"
	"github.com/dijam/media-gallery/internal/model"
	"github.com/dijam/media-gallery/internal/storage"
	"github.com/dijam/media-gallery/internal/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Errors returned by Media. Anything else is an unclassified failure.
var (
	ErrNotFound        = storage.ErrNotFound
	ErrRejectedContent = errors.New("comment contains inappropriate language")
	ErrFileIO          = errors.New("file storage failure")
)

// defaultUploader is recorded when an upload carries no username.
const defaultUploader = "admin"

// ContentFilter decides whether free text may be stored.
type ContentFilter interface {
	ContainsProfanity(text string) bool
}

// Media runs media and comment operations. Operations are independent
// single-row writes; there are no cross-row transactions.
type Media struct {
	store   storage.Store
	files   media.Store
	filter  ContentFilter
	events  event.Publisher
	metrics *metrics.Metrics
	now     func() time.Time
}

// New creates the service.
func New(store storage.Store, files media.Store, filter ContentFilter, events event.Publisher) *Media {
	if events == nil {
		events = event.NewNoop()
	}
	return &Media{
		store:   store,
		files:   files,
		filter:  filter,
		events:  events,
		metrics: metrics.NewMetrics(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Media) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(telemetry.ServiceName).Start(ctx, "service."+op, trace.WithAttributes(attrs...))
}

// observe records a storage operation and closes its span.
func (s *Media) observe(span trace.Span, op string, began time.Time, err error) {
	status := metrics.Status(err)
	s.metrics.StorageOperationTotal.WithLabelValues(op, status).Inc()
	s.metrics.StorageOperationDuration.WithLabelValues(op, status).Observe(time.Since(began).Seconds())
	if err != nil && !errors.Is(err, ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// ListMedia returns every media item.
func (s *Media) ListMedia(ctx context.Context) (out []model.Media, err error) {
	ctx, span := s.start(ctx, "ListMedia")
	defer func(began time.Time) { s.observe(span, "list_media", began, err) }(time.Now())

	return s.store.ListMedia(ctx)
}

// GetMedia returns one media item or ErrNotFound.
func (s *Media) GetMedia(ctx context.Context, id int64) (m *model.Media, err error) {
	ctx, span := s.start(ctx, "GetMedia", attribute.Int64("media.id", id))
	defer func(began time.Time) { s.observe(span, "get_media", began, err) }(time.Now())

	return s.store.GetMedia(ctx, id)
}

// ListMediaByType returns the media of one file type, ordered by id.
func (s *Media) ListMediaByType(ctx context.Context, fileType model.FileType) (out []model.Media, err error) {
	ctx, span := s.start(ctx, "ListMediaByType", attribute.String("media.filetype", string(fileType)))
	defer func(began time.Time) { s.observe(span, "list_media_by_type", began, err) }(time.Now())

	return s.store.ListMediaByType(ctx, fileType)
}

// CreateMedia inserts a media row without touching the file store. The view
// counter starts at zero; missing upload and revision times are set to now.
func (s *Media) CreateMedia(ctx context.Context, m model.Media) (created *model.Media, err error) {
	ctx, span := s.start(ctx, "CreateMedia")
	defer func(began time.Time) { s.observe(span, "create_media", began, err) }(time.Now())

	now := s.now()
	if m.UploadedAt.IsZero() {
		m.UploadedAt = now
	}
	if m.RevisionDate.IsZero() {
		m.RevisionDate = now
	}
	m.Views = 0
	return s.store.CreateMedia(ctx, m)
}

// Upload stores body under the sanitized original file name and inserts the
// matching row. If the insert fails the file is removed again.
func (s *Media) Upload(ctx context.Context, req model.UploadRequest, body io.Reader) (created *model.Media, err error) {
	name := media.SanitizeFilename(req.Filename)
	ctx, span := s.start(ctx, "Upload",
		attribute.String("media.name", name),
		attribute.String("media.filetype", string(req.FileType)),
	)
	defer func(began time.Time) { s.observe(span, "upload_media", began, err) }(time.Now())

	written, err := s.files.Save(ctx, name, body, req.Size, req.MimeType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileIO, err)
	}

	uploader := req.UploadedBy
	if uploader == "" {
		uploader = defaultUploader
	}
	size := written

	created, err = s.CreateMedia(ctx, model.Media{
		Filename:    req.Title,
		Description: req.Description,
		FileType:    req.FileType,
		MimeType:    req.MimeType,
		Size:        &size,
		URL:         media.AssetURL(name),
		UploadedBy:  uploader,
	})
	if err != nil {
		// Save replaces an existing file of the same name, so an earlier row
		// sharing this URL loses its file here too.
		if rerr := s.files.Remove(ctx, name); rerr != nil {
			slog.ErrorContext(ctx, "failed to remove file after insert failure", "name", name, "error", rerr)
		}
		return nil, err
	}

	slog.InfoContext(ctx, "media uploaded", "id", created.ID, "name", name, "bytes", written, "uploaded_by", uploader)
	s.publish(ctx, event.MediaUploaded, s.events.PublishMediaUploaded(ctx, *created))
	return created, nil
}

// IncrementViews adds one to the view counter of a media item. The read and
// the write are separate statements, so concurrent calls may lose updates.
func (s *Media) IncrementViews(ctx context.Context, id int64) (m *model.Media, err error) {
	ctx, span := s.start(ctx, "IncrementViews", attribute.Int64("media.id", id))
	defer func(began time.Time) { s.observe(span, "increment_views", began, err) }(time.Now())

	m, err = s.store.GetMedia(ctx, id)
	if err != nil {
		return nil, err
	}
	m.Views++
	if err := s.store.UpdateMedia(ctx, *m); err != nil {
		return nil, err
	}
	return m, nil
}

// DeleteMedia removes the backing file and then the row. ErrNotFound is
// returned, with nothing removed, when the row does not exist. A file that is
// already gone is fine; any other file error aborts before the row is touched.
func (s *Media) DeleteMedia(ctx context.Context, id int64) (err error) {
	ctx, span := s.start(ctx, "DeleteMedia", attribute.Int64("media.id", id))
	defer func(began time.Time) { s.observe(span, "delete_media", began, err) }(time.Now())

	m, err := s.store.GetMedia(ctx, id)
	if err != nil {
		return err
	}

	if name, ok := media.NameFromURL(m.URL); ok {
		if err := s.files.Remove(ctx, name); err != nil {
			return fmt.Errorf("%w: %v", ErrFileIO, err)
		}
	} else {
		slog.WarnContext(ctx, "media row has no stored file", "id", id, "url", m.URL)
	}

	if err := s.store.DeleteMedia(ctx, id); err != nil {
		return err
	}

	slog.InfoContext(ctx, "media deleted", "id", id, "url", m.URL)
	s.publish(ctx, event.MediaDeleted, s.events.PublishMediaDeleted(ctx, model.DeletedMedia{ID: id, URL: m.URL}))
	return nil
}

// ListComments returns every comment.
func (s *Media) ListComments(ctx context.Context) (out []model.Comment, err error) {
	ctx, span := s.start(ctx, "ListComments")
	defer func(began time.Time) { s.observe(span, "list_comments", began, err) }(time.Now())

	return s.store.ListComments(ctx)
}

// GetComment returns one comment or ErrNotFound.
func (s *Media) GetComment(ctx context.Context, id int64) (c *model.Comment, err error) {
	ctx, span := s.start(ctx, "GetComment", attribute.Int64("comment.id", id))
	defer func(began time.Time) { s.observe(span, "get_comment", began, err) }(time.Now())

	return s.store.GetComment(ctx, id)
}

// ListCommentsByMedia returns the comments of one media item.
func (s *Media) ListCommentsByMedia(ctx context.Context, mediaID int64) (out []model.Comment, err error) {
	ctx, span := s.start(ctx, "ListCommentsByMedia", attribute.Int64("media.id", mediaID))
	defer func(began time.Time) { s.observe(span, "list_comments_by_media", began, err) }(time.Now())

	return s.store.ListCommentsByMedia(ctx, mediaID)
}

// AddComment stores content as a comment on mediaID unless the content filter
// flags it, in which case ErrRejectedContent is returned and nothing is stored.
func (s *Media) AddComment(ctx context.Context, mediaID int64, content string) (c *model.Comment, err error) {
	ctx, span := s.start(ctx, "AddComment", attribute.Int64("media.id", mediaID))
	defer func(began time.Time) { s.observe(span, "add_comment", began, err) }(time.Now())

	if s.filter.ContainsProfanity(content) {
		s.metrics.CommentRejectedTotal.Inc()
		slog.InfoContext(ctx, "comment rejected", "media_id", mediaID)
		return nil, ErrRejectedContent
	}

	c, err = s.store.CreateComment(ctx, model.Comment{
		MediaID:   mediaID,
		Content:   content,
		CreatedAt: s.now(),
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, event.CommentCreated, s.events.PublishCommentCreated(ctx, *c))
	return c, nil
}

// DeleteComment removes one comment, or returns ErrNotFound.
func (s *Media) DeleteComment(ctx context.Context, id int64) (err error) {
	ctx, span := s.start(ctx, "DeleteComment", attribute.Int64("comment.id", id))
	defer func(began time.Time) { s.observe(span, "delete_comment", began, err) }(time.Now())

	c, err := s.store.GetComment(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteComment(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, event.CommentDeleted, s.events.PublishCommentDeleted(ctx, model.DeletedComment{ID: id, MediaID: c.MediaID}))
	return nil
}

// Ready reports whether the row store is reachable.
func (s *Media) Ready(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// publish logs a failed event publish; events never fail the operation.
func (s *Media) publish(ctx context.Context, eventType string, err error) {
	if err != nil {
		slog.WarnContext(ctx, "failed to publish event", "type", eventType, "error", err)
	}
}

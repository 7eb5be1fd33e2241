// internal/storage/memory.go
// Package storage provides implementations of the Store interface
// for both in-memory and PostgreSQL storage backends.
package storage

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/dijam/media-gallery/internal/model"
)

// ErrNotFound is returned when a row, or the media a comment points at, does not exist.
var ErrNotFound = errors.New("not found")

// Store interface defines the storage operations required by the gallery service.
// This interface is implemented by both in-memory and PostgreSQL storage backends.
// Lists are ordered by ascending id.
type Store interface {
	// Media operations
	ListMedia(ctx context.Context) ([]model.Media, error)
	ListMediaByType(ctx context.Context, fileType model.FileType) ([]model.Media, error)
	GetMedia(ctx context.Context, id int64) (*model.Media, error)
	CreateMedia(ctx context.Context, media model.Media) (*model.Media, error) // assigns the id
	UpdateMedia(ctx context.Context, media model.Media) error
	DeleteMedia(ctx context.Context, id int64) error // also deletes the media's comments

	// Comment operations
	ListComments(ctx context.Context) ([]model.Comment, error)
	ListCommentsByMedia(ctx context.Context, mediaID int64) ([]model.Comment, error)
	GetComment(ctx context.Context, id int64) (*model.Comment, error)
	CreateComment(ctx context.Context, comment model.Comment) (*model.Comment, error) // ErrNotFound if the media is missing
	DeleteComment(ctx context.Context, id int64) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
	// Close releases backend resources.
	Close()
}

// memory implements the Store interface using in-memory storage.
// It's intended for development and testing purposes.
type memory struct {
	mu            sync.RWMutex            // Protects concurrent access to maps
	media         map[int64]model.Media   // Map of id to media
	comments      map[int64]model.Comment // Map of id to comment
	nextMediaID   int64                   // Last assigned media id
	nextCommentID int64                   // Last assigned comment id
}

// NewMemory creates a new in-memory storage implementation.
// Returns a Store interface that can be used for testing or development.
func NewMemory() Store {
	return &memory{
		media:    make(map[int64]model.Media),
		comments: make(map[int64]model.Comment),
	}
}

func (m *memory) ListMedia(ctx context.Context) ([]model.Media, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.Media, 0, len(m.media))
	for _, media := range m.media {
		out = append(out, media)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memory) ListMediaByType(ctx context.Context, fileType model.FileType) ([]model.Media, error) {
	all, _ := m.ListMedia(ctx)
	out := make([]model.Media, 0, len(all))
	for _, media := range all {
		if media.FileType == fileType {
			out = append(out, media)
		}
	}
	return out, nil
}

func (m *memory) GetMedia(ctx context.Context, id int64) (*model.Media, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	media, exists := m.media[id]
	if !exists {
		return nil, ErrNotFound
	}
	return &media, nil
}

func (m *memory) CreateMedia(ctx context.Context, media model.Media) (*model.Media, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextMediaID++
	media.ID = m.nextMediaID
	m.media[media.ID] = media
	return &media, nil
}

func (m *memory) UpdateMedia(ctx context.Context, media model.Media) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, exists := m.media[media.ID]
	if !exists {
		return ErrNotFound
	}
	// Identity and creation columns are immutable.
	media.FileType = current.FileType
	media.UploadedAt = current.UploadedAt
	m.media[media.ID] = media
	return nil
}

func (m *memory) DeleteMedia(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.media[id]; !exists {
		return ErrNotFound
	}
	delete(m.media, id)
	for cid, c := range m.comments {
		if c.MediaID == id {
			delete(m.comments, cid)
		}
	}
	return nil
}

func (m *memory) ListComments(ctx context.Context) ([]model.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.Comment, 0, len(m.comments))
	for _, c := range m.comments {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memory) ListCommentsByMedia(ctx context.Context, mediaID int64) ([]model.Comment, error) {
	all, _ := m.ListComments(ctx)
	out := make([]model.Comment, 0)
	for _, c := range all {
		if c.MediaID == mediaID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memory) GetComment(ctx context.Context, id int64) (*model.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, exists := m.comments[id]
	if !exists {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m *memory) CreateComment(ctx context.Context, comment model.Comment) (*model.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Mirror the foreign key of the relational schema.
	if _, exists := m.media[comment.MediaID]; !exists {
		return nil, ErrNotFound
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}

	m.nextCommentID++
	comment.ID = m.nextCommentID
	m.comments[comment.ID] = comment
	return &comment, nil
}

func (m *memory) DeleteComment(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.comments[id]; !exists {
		return ErrNotFound
	}
	delete(m.comments, id)
	return nil
}

func (m *memory) Ping(ctx context.Context) error { return ctx.Err() }

func (m *memory) Close() {}

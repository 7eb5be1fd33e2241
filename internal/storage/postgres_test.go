package storage

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/dijam/media-gallery/internal/model"
)

// newTestPostgres connects to GALLERY_TEST_DB_DSN or skips.
func newTestPostgres(t *testing.T) Store {
	t.Helper()
	dsn := os.Getenv("GALLERY_TEST_DB_DSN")
	if dsn == "" {
		t.Skip("GALLERY_TEST_DB_DSN not set")
	}
	s, err := NewPostgres(dsn)
	if err != nil {
		t.Fatalf("NewPostgres() error = %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestPostgresMediaAndComments(t *testing.T) {
	ctx := context.Background()
	s := newTestPostgres(t)

	m, err := s.CreateMedia(ctx, newMedia("pg.png", model.FileTypeImage))
	if err != nil {
		t.Fatalf("CreateMedia() error = %v", err)
	}
	if m.ID == 0 || m.Size != nil {
		t.Errorf("CreateMedia() = %+v", m)
	}

	m.Views = 3
	m.Description = "updated"
	if err := s.UpdateMedia(ctx, *m); err != nil {
		t.Fatalf("UpdateMedia() error = %v", err)
	}
	got, err := s.GetMedia(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetMedia() error = %v", err)
	}
	if got.Views != 3 || got.Description != "updated" {
		t.Errorf("GetMedia() = %+v", got)
	}

	c, err := s.CreateComment(ctx, model.Comment{MediaID: m.ID, Content: "hi"})
	if err != nil {
		t.Fatalf("CreateComment() error = %v", err)
	}
	if _, err := s.CreateComment(ctx, model.Comment{MediaID: -1, Content: "orphan"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("CreateComment() for missing media error = %v, want ErrNotFound", err)
	}

	if err := s.DeleteMedia(ctx, m.ID); err != nil {
		t.Fatalf("DeleteMedia() error = %v", err)
	}
	if _, err := s.GetComment(ctx, c.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetComment() after media delete error = %v, want ErrNotFound", err)
	}
	if err := s.DeleteMedia(ctx, m.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteMedia() error = %v, want ErrNotFound", err)
	}
}

// internal/storage/postgres.go
// Package storage provides PostgreSQL implementation of the Store interface.
// This implementation is intended for production use with persistent data storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dijam/media-gallery/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgForeignKeyViolation is raised when a comment references a missing media row.
const pgForeignKeyViolation = "23503"

// postgres provides persistent storage for media and comments.
type postgres struct {
	db *pgxpool.Pool // Connection pool to PostgreSQL database
}

// NewPostgres creates a new PostgreSQL storage implementation.
// It establishes a connection pool to the database and initializes the schema.
func NewPostgres(dsn string) (Store, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid database DSN: %w", err)
	}

	config.MaxConns = 20
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = time.Minute * 30
	config.HealthCheckPeriod = time.Minute

	// Establish connection with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &postgres{db: pool}, nil
}

// initSchema creates the media and comments tables if they don't already exist.
func initSchema(ctx context.Context, db *pgxpool.Pool) error {
	schema := `
		CREATE TABLE IF NOT EXISTS media (
		    id BIGSERIAL PRIMARY KEY,
		    filename TEXT NOT NULL,                  -- Display title
		    description TEXT NOT NULL DEFAULT '',
		    filetype TEXT NOT NULL CHECK (filetype IN ('image', 'video')),
		    mime_type TEXT NOT NULL DEFAULT '',
		    size BIGINT,                             -- Bytes, NULL when unknown
		    url TEXT NOT NULL,                       -- Relative asset path
		    views INTEGER NOT NULL DEFAULT 0 CHECK (views >= 0),
		    uploaded_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		    uploaded_by TEXT NOT NULL DEFAULT '',
		    revision_date TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_media_filetype ON media(filetype, id);

		CREATE TABLE IF NOT EXISTS comments (
		    id BIGSERIAL PRIMARY KEY,
		    media_id BIGINT NOT NULL REFERENCES media(id) ON DELETE CASCADE,
		    content TEXT NOT NULL,
		    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_comments_media_id ON comments(media_id, id);
	`

	_, err := db.Exec(ctx, schema)
	return err
}

const mediaColumns = `id, filename, description, filetype, mime_type, size, url, views, uploaded_at, uploaded_by, revision_date`

func scanMedia(row pgx.Row) (*model.Media, error) {
	var media model.Media
	err := row.Scan(
		&media.ID,
		&media.Filename,
		&media.Description,
		&media.FileType,
		&media.MimeType,
		&media.Size,
		&media.URL,
		&media.Views,
		&media.UploadedAt,
		&media.UploadedBy,
		&media.RevisionDate,
	)
	if err != nil {
		return nil, err
	}
	return &media, nil
}

func scanComment(row pgx.Row) (*model.Comment, error) {
	var c model.Comment
	if err := row.Scan(&c.ID, &c.MediaID, &c.Content, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// Close closes the database connection pool
func (p *postgres) Close() {
	p.db.Close()
}

// Ping checks database connectivity
func (p *postgres) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}

func (p *postgres) queryMedia(ctx context.Context, query string, args ...any) ([]model.Media, error) {
	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query media: %w", err)
	}
	defer rows.Close()

	out := make([]model.Media, 0)
	for rows.Next() {
		media, err := scanMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan media: %w", err)
		}
		out = append(out, *media)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate media: %w", err)
	}
	return out, nil
}

// ListMedia returns all media
func (p *postgres) ListMedia(ctx context.Context) ([]model.Media, error) {
	return p.queryMedia(ctx, `SELECT `+mediaColumns+` FROM media ORDER BY id ASC`)
}

// ListMediaByType returns the media of one file type
func (p *postgres) ListMediaByType(ctx context.Context, fileType model.FileType) ([]model.Media, error) {
	return p.queryMedia(ctx, `SELECT `+mediaColumns+` FROM media WHERE filetype = $1 ORDER BY id ASC`, fileType)
}

// GetMedia retrieves a media row by id
func (p *postgres) GetMedia(ctx context.Context, id int64) (*model.Media, error) {
	media, err := scanMedia(p.db.QueryRow(ctx, `SELECT `+mediaColumns+` FROM media WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get media: %w", err)
	}
	return media, nil
}

// CreateMedia inserts a media row and returns it with its assigned id
func (p *postgres) CreateMedia(ctx context.Context, media model.Media) (*model.Media, error) {
	query := `INSERT INTO media (filename, description, filetype, mime_type, size, url, views, uploaded_at, uploaded_by, revision_date)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          RETURNING ` + mediaColumns

	created, err := scanMedia(p.db.QueryRow(ctx, query,
		media.Filename,
		media.Description,
		media.FileType,
		media.MimeType,
		media.Size,
		media.URL,
		media.Views,
		media.UploadedAt,
		media.UploadedBy,
		media.RevisionDate))
	if err != nil {
		return nil, fmt.Errorf("failed to create media: %w", err)
	}
	return created, nil
}

// UpdateMedia overwrites the mutable columns of a media row
func (p *postgres) UpdateMedia(ctx context.Context, media model.Media) error {
	query := `UPDATE media SET filename = $1, description = $2, mime_type = $3, size = $4, url = $5,
	          views = $6, uploaded_by = $7, revision_date = $8
	          WHERE id = $9`

	result, err := p.db.Exec(ctx, query,
		media.Filename,
		media.Description,
		media.MimeType,
		media.Size,
		media.URL,
		media.Views,
		media.UploadedBy,
		media.RevisionDate,
		media.ID)
	if err != nil {
		return fmt.Errorf("failed to update media: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMedia deletes a media row; its comments go with it
func (p *postgres) DeleteMedia(ctx context.Context, id int64) error {
	result, err := p.db.Exec(ctx, `DELETE FROM media WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete media: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *postgres) queryComments(ctx context.Context, query string, args ...any) ([]model.Comment, error) {
	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	out := make([]model.Comment, 0)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comments: %w", err)
	}
	return out, nil
}

// ListComments returns all comments
func (p *postgres) ListComments(ctx context.Context) ([]model.Comment, error) {
	return p.queryComments(ctx, `SELECT id, media_id, content, created_at FROM comments ORDER BY id ASC`)
}

// ListCommentsByMedia returns the comments of one media item
func (p *postgres) ListCommentsByMedia(ctx context.Context, mediaID int64) ([]model.Comment, error) {
	return p.queryComments(ctx, `SELECT id, media_id, content, created_at FROM comments WHERE media_id = $1 ORDER BY id ASC`, mediaID)
}

// GetComment retrieves a comment by id
func (p *postgres) GetComment(ctx context.Context, id int64) (*model.Comment, error) {
	c, err := scanComment(p.db.QueryRow(ctx, `SELECT id, media_id, content, created_at FROM comments WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return c, nil
}

// CreateComment inserts a comment; a missing media row yields ErrNotFound
func (p *postgres) CreateComment(ctx context.Context, comment model.Comment) (*model.Comment, error) {
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO comments (media_id, content, created_at) VALUES ($1, $2, $3)
	          RETURNING id, media_id, content, created_at`

	created, err := scanComment(p.db.QueryRow(ctx, query, comment.MediaID, comment.Content, comment.CreatedAt))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	return created, nil
}

// DeleteComment deletes a comment by id
func (p *postgres) DeleteComment(ctx context.Context, id int64) error {
	result, err := p.db.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

// LocalStore keeps files in a directory on the local filesystem.
type LocalStore struct {
	dir string
}

// NewLocalStore creates dir if needed and returns a store rooted there.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	slog.Info("local upload storage initialized", "path", dir)
	return &LocalStore{dir: dir}, nil
}

func (l *LocalStore) path(name string) (string, error) {
	if name == "" || name != SanitizeFilename(name) {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	return filepath.Join(l.dir, name), nil
}

// Save writes body to the named file. A partially written file is removed.
func (l *LocalStore) Save(ctx context.Context, name string, body io.Reader, size int64, contentType string) (int64, error) {
	full, err := l.path(name)
	if err != nil {
		return 0, err
	}

	file, err := os.Create(full)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}

	written, err := io.Copy(file, body)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(full)
		return 0, fmt.Errorf("failed to write file: %w", err)
	}

	slog.DebugContext(ctx, "file saved to local storage", "name", name, "bytes", written)
	return written, nil
}

// Open opens the named file and sniffs its content type.
func (l *LocalStore) Open(ctx context.Context, name string) (io.ReadCloser, ObjectInfo, error) {
	full, err := l.path(name)
	if err != nil {
		return nil, ObjectInfo{}, ErrNotFound
	}

	file, err := os.Open(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ObjectInfo{}, ErrNotFound
		}
		return nil, ObjectInfo{}, fmt.Errorf("failed to open file: %w", err)
	}

	st, err := file.Stat()
	if err != nil || st.IsDir() {
		file.Close()
		if err == nil {
			return nil, ObjectInfo{}, ErrNotFound
		}
		return nil, ObjectInfo{}, fmt.Errorf("failed to stat file: %w", err)
	}

	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		file.Close()
		return nil, ObjectInfo{}, fmt.Errorf("failed to detect content type: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return nil, ObjectInfo{}, fmt.Errorf("failed to rewind file: %w", err)
	}

	return file, ObjectInfo{Size: st.Size(), ContentType: mtype.String(), ModTime: st.ModTime()}, nil
}

// Remove deletes the named file if it exists.
func (l *LocalStore) Remove(ctx context.Context, name string) error {
	full, err := l.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}

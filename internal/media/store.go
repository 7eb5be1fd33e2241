// Package media stores the binary files behind gallery media items.
// Files live either in a local upload directory or in an S3-compatible bucket;
// both are addressed by a flat, sanitized file name.
package media

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"
)

// AssetPrefix is the URL path under which stored files are served.
const AssetPrefix = "/assets/"

// ErrNotFound is returned when a named file does not exist.
var ErrNotFound = errors.New("object not found")

// ObjectInfo describes a stored file.
type ObjectInfo struct {
	Size        int64
	ContentType string
	ModTime     time.Time
}

// Store saves, serves and removes uploaded files.
type Store interface {
	// Save writes body under name, replacing any existing file, and returns the bytes written.
	// size is -1 when unknown.
	Save(ctx context.Context, name string, body io.Reader, size int64, contentType string) (int64, error)
	// Open returns the content of name. The caller closes the reader.
	Open(ctx context.Context, name string) (io.ReadCloser, ObjectInfo, error)
	// Remove deletes name. A missing file is not an error.
	Remove(ctx context.Context, name string) error
}

// SanitizeFilename reduces a client supplied file name to its last path
// element so it cannot escape the upload directory.
func SanitizeFilename(name string) string {
	name = strings.Map(func(r rune) rune {
		if r == '\\' {
			return '/'
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)

	base := path.Base(path.Clean("/" + name))
	switch base {
	case "", "/", ".", "..":
		return "upload"
	}
	return base
}

// AssetURL is the relative URL under which name is served.
func AssetURL(name string) string {
	return AssetPrefix + name
}

// NameFromURL extracts the stored file name from an asset URL. ok is false
// when url is not an asset URL.
func NameFromURL(url string) (name string, ok bool) {
	name, ok = strings.CutPrefix(url, AssetPrefix)
	if !ok || name == "" || name != SanitizeFilename(name) {
		return "", false
	}
	return name, true
}

// internal/model/gallery.go
// Package model defines the data structures used throughout the gallery service.
// These structures represent the core domain objects for media items and comments.
package model

import (
	"fmt"
	"time"
)

// FileType classifies an uploaded media item.
type FileType string

const (
	FileTypeImage FileType = "image"
	FileTypeVideo FileType = "video"
)

// ParseFileType converts the wire value of a file type, rejecting anything
// other than "image" or "video".
func ParseFileType(s string) (FileType, error) {
	switch FileType(s) {
	case FileTypeImage, FileTypeVideo:
		return FileType(s), nil
	default:
		return "", fmt.Errorf("unknown file type %q", s)
	}
}

// Media represents an uploaded image or video.
// This corresponds to the media table in storage.
type Media struct {
	ID           int64     `json:"id" db:"id"`                       // Assigned by storage, immutable
	Filename     string    `json:"filename" db:"filename"`           // Display title given at upload
	Description  string    `json:"description" db:"description"`     // Free-form description
	FileType     FileType  `json:"filetype" db:"filetype"`           // image or video, fixed at creation
	MimeType     string    `json:"mime_type" db:"mime_type"`         // MIME type of the stored file
	Size         *int64    `json:"size" db:"size"`                   // Size in bytes, if known
	URL          string    `json:"url" db:"url"`                     // Relative asset path of the stored file
	Views        int       `json:"views" db:"views"`                 // View counter, only grows
	UploadedAt   time.Time `json:"uploaded_at" db:"uploaded_at"`     // When the media was uploaded
	UploadedBy   string    `json:"uploaded_by" db:"uploaded_by"`     // Username of the uploader
	RevisionDate time.Time `json:"revision_date" db:"revision_date"` // Last metadata revision
}

// Comment represents a comment attached to a media item.
// This corresponds to the comments table in storage.
type Comment struct {
	ID        int64     `json:"id" db:"id"`
	MediaID   int64     `json:"mediaId" db:"media_id"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// UploadRequest carries the multipart fields of a media upload once they
// have been parsed and validated by the HTTP layer.
type UploadRequest struct {
	Title       string
	Description string
	FileType    FileType
	Filename    string // original client-side file name, not yet sanitized
	MimeType    string
	Size        int64
	UploadedBy  string
}

// DeletedMedia is the payload published when a media item is removed.
type DeletedMedia struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}

// DeletedComment is the payload published when a comment is removed.
type DeletedComment struct {
	ID      int64 `json:"id"`
	MediaID int64 `json:"mediaId"`
}

package server

import (
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/dijam/media-gallery/internal/auth"
	errordefs "github.com/dijam/media-gallery/internal/errors"
	"github.com/dijam/media-gallery/internal/model"
	"github.com/dijam/media-gallery/internal/schema"
	"github.com/gabriel-vasile/mimetype"
)

// multipartMemory is how much of a multipart body is held in memory before
// file parts spill to temporary files.
const multipartMemory = 32 << 20

// commentBodyLimit caps the body of a comment upload.
const commentBodyLimit = 1 << 20

// handlePing answers the authentication diagnostics with plain text.
func (m *Mux) handlePing(reply string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(reply))
	}
}

// handleListMedia handles GET /media/
func (m *Mux) handleListMedia(w http.ResponseWriter, r *http.Request) {
	items, err := m.svc.ListMedia(r.Context())
	if err != nil {
		m.writeError(w, r, serviceError(err, "Media not found"))
		return
	}
	m.writeJSON(w, http.StatusOK, items)
}

// handleListByType handles GET /media/images and /media/videos
func (m *Mux) handleListByType(fileType model.FileType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := m.svc.ListMediaByType(r.Context(), fileType)
		if err != nil {
			m.writeError(w, r, serviceError(err, "Media not found"))
			return
		}
		m.writeJSON(w, http.StatusOK, items)
	}
}

// handleGetMedia handles GET /media/{id}
func (m *Mux) handleGetMedia(w http.ResponseWriter, r *http.Request) {
	id, perr := pathID(r, "id")
	if perr != nil {
		m.writeError(w, r, perr)
		return
	}
	item, err := m.svc.GetMedia(r.Context(), id)
	if err != nil {
		m.writeError(w, r, serviceError(err, "Media not found"))
		return
	}
	m.writeJSON(w, http.StatusOK, item)
}

// handleIncrementViews handles PATCH /media/{id}/increment-views
func (m *Mux) handleIncrementViews(w http.ResponseWriter, r *http.Request) {
	id, perr := pathID(r, "id")
	if perr != nil {
		m.writeError(w, r, perr)
		return
	}
	if _, err := m.svc.IncrementViews(r.Context(), id); err != nil {
		m.writeError(w, r, serviceError(err, "Media not found"))
		return
	}
	w.WriteHeader(http.StatusOK)
}

// handleDeleteMedia handles DELETE /media/{id}/delete
func (m *Mux) handleDeleteMedia(w http.ResponseWriter, r *http.Request) {
	id, perr := pathID(r, "id")
	if perr != nil {
		m.writeError(w, r, perr)
		return
	}
	if err := m.svc.DeleteMedia(r.Context(), id); err != nil {
		m.writeError(w, r, serviceError(err, "Media not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUpload handles POST /media/upload with the multipart fields
// title, description, filetype and file.
func (m *Mux) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		m.writeError(w, r, formError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	form := formFields(r.MultipartForm, "title", "description", "filetype")
	if err := m.validator.Validate(schema.MediaUpload, form); err != nil {
		m.writeError(w, r, errordefs.Wrap(errordefs.BAD_REQUEST, "Invalid upload form", "", err))
		return
	}

	fileType, err := model.ParseFileType(form["filetype"])
	if err != nil {
		m.writeError(w, r, errordefs.Wrap(errordefs.BAD_REQUEST, "Invalid upload form", "", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		m.writeError(w, r, errordefs.Wrap(errordefs.BAD_REQUEST, "Missing file", "", err))
		return
	}
	defer file.Close()

	mimeType, err := partMIMEType(file, header)
	if err != nil {
		m.writeError(w, r, errordefs.Wrap(errordefs.IO_FAILURE, "Failed to read upload", "", err))
		return
	}

	req := model.UploadRequest{
		Title:       form["title"],
		Description: form["description"],
		FileType:    fileType,
		Filename:    header.Filename,
		MimeType:    mimeType,
		Size:        header.Size,
	}
	if p, ok := auth.PrincipalFrom(r.Context()); ok {
		req.UploadedBy = p.Username
	}

	created, err := m.svc.Upload(r.Context(), req, file)
	if err != nil {
		m.writeError(w, r, serviceError(err, "Media not found"))
		return
	}
	m.writeJSON(w, http.StatusOK, created)
}

// handleListComments handles GET /media/comments
func (m *Mux) handleListComments(w http.ResponseWriter, r *http.Request) {
	items, err := m.svc.ListComments(r.Context())
	if err != nil {
		m.writeError(w, r, serviceError(err, "Comment not found"))
		return
	}
	m.writeJSON(w, http.StatusOK, items)
}

// handleListCommentsByMedia handles GET /media/comments/{mediaId}
func (m *Mux) handleListCommentsByMedia(w http.ResponseWriter, r *http.Request) {
	mediaID, perr := pathID(r, "mediaId")
	if perr != nil {
		m.writeError(w, r, perr)
		return
	}
	items, err := m.svc.ListCommentsByMedia(r.Context(), mediaID)
	if err != nil {
		m.writeError(w, r, serviceError(err, "Comment not found"))
		return
	}
	m.writeJSON(w, http.StatusOK, items)
}

// handleUploadComment handles POST /media/{id}/upload-comment with the
// multipart (or urlencoded) field content.
func (m *Mux) handleUploadComment(w http.ResponseWriter, r *http.Request) {
	mediaID, perr := pathID(r, "id")
	if perr != nil {
		m.writeError(w, r, perr)
		return
	}

	if err := r.ParseMultipartForm(commentBodyLimit); err != nil {
		if !errors.Is(err, http.ErrNotMultipart) {
			m.writeError(w, r, formError(err))
			return
		}
		if err := r.ParseForm(); err != nil {
			m.writeError(w, r, formError(err))
			return
		}
	} else {
		defer r.MultipartForm.RemoveAll()
	}

	form := map[string]string{}
	if values, ok := r.PostForm["content"]; ok && len(values) > 0 {
		form["content"] = values[0]
	}
	if err := m.validator.Validate(schema.Comment, form); err != nil {
		m.writeError(w, r, errordefs.Wrap(errordefs.BAD_REQUEST, "Invalid comment", "", err))
		return
	}

	created, err := m.svc.AddComment(r.Context(), mediaID, form["content"])
	if err != nil {
		m.writeError(w, r, serviceError(err, "Media not found"))
		return
	}
	m.writeJSON(w, http.StatusOK, created)
}

// handleDeleteComment handles DELETE /media/comments/{id}/delete
func (m *Mux) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	id, perr := pathID(r, "id")
	if perr != nil {
		m.writeError(w, r, perr)
		return
	}
	if err := m.svc.DeleteComment(r.Context(), id); err != nil {
		m.writeError(w, r, serviceError(err, "Comment not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// formError maps a form parsing failure, telling oversized bodies apart.
func formError(err error) *errordefs.Error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
		return errordefs.Wrap(errordefs.PAYLOAD_TOO_LARGE, "Upload too large", "", err)
	}
	return errordefs.Wrap(errordefs.BAD_REQUEST, "Invalid form data", "", err)
}

// formFields copies the first value of each present key.
func formFields(form *multipart.Form, keys ...string) map[string]string {
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if values, ok := form.Value[k]; ok && len(values) > 0 {
			out[k] = values[0]
		}
	}
	return out
}

// partMIMEType returns the declared content type of an uploaded part, or
// sniffs it when the client sent none or a generic one.
func partMIMEType(file multipart.File, header *multipart.FileHeader) (string, error) {
	declared := strings.TrimSpace(header.Header.Get("Content-Type"))
	if declared != "" && declared != "application/octet-stream" {
		return declared, nil
	}

	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		return "", err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	slog.Debug("sniffed upload content type", "filename", header.Filename, "mime", mtype.String())
	return mtype.String(), nil
}

package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	errordefs "github.com/dijam/media-gallery/internal/errors"
	"github.com/dijam/media-gallery/internal/media"
)

// handleAsset serves GET /assets/{name} from the file store.
func (m *Mux) handleAsset(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" || name != media.SanitizeFilename(name) {
		m.writeError(w, r, errordefs.New(errordefs.NOT_FOUND, "Asset not found", ""))
		return
	}

	body, info, err := m.files.Open(r.Context(), name)
	if err != nil {
		if errors.Is(err, media.ErrNotFound) {
			m.writeError(w, r, errordefs.New(errordefs.NOT_FOUND, "Asset not found", ""))
			return
		}
		m.writeError(w, r, errordefs.Wrap(errordefs.IO_FAILURE, "Failed to read asset", "", err))
		return
	}
	defer body.Close()

	if info.ContentType != "" {
		w.Header().Set("Content-Type", info.ContentType)
	}
	w.Header().Set("X-Content-Type-Options", "nosniff")

	// Local files support range requests and conditional GETs.
	if rs, ok := body.(io.ReadSeeker); ok {
		http.ServeContent(w, r, name, info.ModTime, rs)
		return
	}

	if info.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, body)
}

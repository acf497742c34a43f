package handlers

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/pothyeswaran/blogserver/internal/media"
	"github.com/pothyeswaran/blogserver/internal/storage"
)

// MediaHandler serves ingested cover assets under the static media root,
// streaming them from whichever storage backend holds them.
type MediaHandler struct {
	ingestor *media.Ingestor
	logger   *slog.Logger
}

func NewMediaHandler(ingestor *media.Ingestor, logger *slog.Logger) *MediaHandler {
	return &MediaHandler{ingestor: ingestor, logger: logger}
}

// MediaRouter registers the media route on the given router.
func MediaRouter(r chi.Router, handler *MediaHandler) {
	r.Get("/{key}", handler.ServeMedia)
}

func (h *MediaHandler) ServeMedia(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	obj, err := h.ingestor.Open(r.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "media not found")
			return
		}
		h.logger.Error("open media", "key", key, "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	defer obj.Close()

	if contentType := mime.TypeByExtension(filepath.Ext(key)); contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	if _, err := io.Copy(w, obj); err != nil {
		h.logger.Error("stream media", "key", key, "err", err)
	}
}

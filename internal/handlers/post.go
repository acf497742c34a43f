package handlers

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/pothyeswaran/blogserver/internal/auth"
	"github.com/pothyeswaran/blogserver/internal/media"
	"github.com/pothyeswaran/blogserver/internal/services"
	"github.com/pothyeswaran/blogserver/internal/store"
)

const (
	maxMultipartMemory = 8 << 20
	formFieldID        = "id"
	formFieldTitle     = "title"
	formFieldSummary   = "summary"
	formFieldContent   = "content"
	formFieldFile      = "file"
)

// PostHandler provides HTTP handlers for posts.
type PostHandler struct {
	posts          *services.PostService
	ingestor       *media.Ingestor
	logger         *slog.Logger
	maxUploadBytes int64
}

// NewPostHandler constructs a handler with the provided dependencies.
func NewPostHandler(posts *services.PostService, ingestor *media.Ingestor, logger *slog.Logger, maxUploadBytes int64) *PostHandler {
	return &PostHandler{
		posts:          posts,
		ingestor:       ingestor,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
	}
}

// PostRouter registers post routes on the given router. Reads are public;
// mutations go through the auth middleware first.
func PostRouter(r chi.Router, handler *PostHandler, authMiddleware func(http.Handler) http.Handler) {
	r.Get("/", handler.ListPosts)
	r.Get("/{postID}", handler.GetPost)
	r.With(authMiddleware).Post("/", handler.CreatePost)
	r.With(authMiddleware).Put("/", handler.UpdatePost)
}

func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.ListRecent(r.Context(), services.DefaultListLimit)
	if err != nil {
		h.logger.Error("list posts", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, err := parsePostID(chi.URLParam(r, "postID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid post id")
		return
	}

	post, err := h.posts.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "post not found")
			return
		}
		h.logger.Error("fetch post", "post_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, post)
}

func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing token")
		return
	}

	fields, err := h.parsePostForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	fh, err := coverFile(r.MultipartForm)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if fh != nil {
		cover, err := h.ingestor.Ingest(r.Context(), fh)
		if err != nil {
			h.logger.Error("ingest cover", "err", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		fields.Cover = cover
		fields.CoverSet = true
	}

	created, err := h.posts.Create(r.Context(), identity.UserID, fields)
	if err != nil {
		h.logger.Error("create post", "author_id", identity.UserID, "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, created)
}

func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing token")
		return
	}

	fields, err := h.parsePostForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := parsePostID(r.FormValue(formFieldID))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid post id")
		return
	}

	fh, err := coverFile(r.MultipartForm)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if fh != nil {
		cover, err := h.ingestor.Ingest(r.Context(), fh)
		if err != nil {
			h.logger.Error("ingest cover", "err", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		fields.Cover = cover
		fields.CoverSet = true
	}

	updated, err := h.posts.Update(r.Context(), id, identity.UserID, fields)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "post not found")
		case errors.Is(err, services.ErrNotAuthor):
			writeError(w, http.StatusForbidden, "you are not the author")
		default:
			h.logger.Error("update post", "post_id", id, "err", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *PostHandler) parsePostForm(r *http.Request) (services.PostFields, error) {
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(nil, r.Body, h.maxUploadBytes+maxMultipartMemory)
	}
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return services.PostFields{}, errors.New("invalid multipart form")
	}

	title := strings.TrimSpace(r.FormValue(formFieldTitle))
	if title == "" {
		return services.PostFields{}, errors.New("title is required")
	}

	summary := strings.TrimSpace(r.FormValue(formFieldSummary))
	if summary == "" {
		return services.PostFields{}, errors.New("summary is required")
	}

	content := r.FormValue(formFieldContent)
	if strings.TrimSpace(content) == "" {
		return services.PostFields{}, errors.New("content is required")
	}

	return services.PostFields{
		Title:   title,
		Summary: summary,
		Content: content,
	}, nil
}

// coverFile returns the single uploaded cover file, or nil when the request
// carries none; in that case the post's cover is simply left alone.
func coverFile(form *multipart.Form) (*multipart.FileHeader, error) {
	if form == nil {
		return nil, nil
	}
	files := form.File[formFieldFile]
	if len(files) == 0 {
		return nil, nil
	}
	if len(files) > 1 {
		return nil, errors.New("only one cover file is allowed")
	}
	return files[0], nil
}

func parsePostID(raw string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || id < 1 {
		return 0, errors.New("invalid post id")
	}
	return id, nil
}

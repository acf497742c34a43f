package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pothyeswaran/blogserver/internal/auth"
	"github.com/pothyeswaran/blogserver/internal/services"
	"github.com/pothyeswaran/blogserver/internal/store"
	"github.com/pothyeswaran/blogserver/types"
)

// AuthHandler provides registration, login and session endpoints.
type AuthHandler struct {
	users  *services.UserService
	hasher auth.PasswordHasher
	tokens *auth.TokenService
	guard  *auth.Guard
	logger *slog.Logger
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(
	users *services.UserService,
	hasher auth.PasswordHasher,
	tokens *auth.TokenService,
	guard *auth.Guard,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		guard:  guard,
		logger: logger,
	}
}

// AuthRouter registers account and session routes on the given router.
func AuthRouter(r chi.Router, handler *AuthHandler) {
	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.Post("/logout", handler.Logout)
	r.Get("/profile", handler.Profile)
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

// Register creates a new user account.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	hashed, err := h.hasher.Hash(req.Password)
	if err != nil {
		h.logger.Error("hash password", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	user, err := h.users.Create(r.Context(), types.User{
		Username:     req.Username,
		PasswordHash: hashed,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, http.StatusBadRequest, "username taken")
			return
		}
		h.logger.Error("create user", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// Login verifies credentials and sets the session cookie. Unknown usernames
// and wrong passwords produce the same response on purpose, so the endpoint
// cannot be used to enumerate accounts.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, err := h.users.GetByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "wrong credentials")
			return
		}
		h.logger.Error("load user", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if !h.hasher.Verify(req.Password, user.PasswordHash) {
		writeError(w, http.StatusBadRequest, "wrong credentials")
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Username)
	if err != nil {
		h.logger.Error("issue token", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	http.SetCookie(w, sessionCookie(token))
	writeJSON(w, http.StatusOK, loginResponse{ID: user.ID, Username: user.Username})
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie := sessionCookie("")
	cookie.Expires = time.Unix(0, 0)
	cookie.MaxAge = -1
	http.SetCookie(w, cookie)
	writeJSON(w, http.StatusOK, "ok")
}

// Profile returns the decoded session claims for the current caller.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	claims, err := h.guard.Claims(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, authReason(err))
		return
	}
	writeJSON(w, http.StatusOK, claims)
}

func authReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrNoToken):
		return "missing token"
	case errors.Is(err, auth.ErrTokenExpired):
		return "expired token"
	default:
		return "invalid token"
	}
}

func sessionCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	}
}

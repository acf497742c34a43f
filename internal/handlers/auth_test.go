package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pothyeswaran/blogserver/internal/auth"
	"github.com/pothyeswaran/blogserver/internal/services"
	"github.com/pothyeswaran/blogserver/internal/store"
	"github.com/pothyeswaran/blogserver/types"
	"golang.org/x/crypto/bcrypt"
)

type fakeUserRepo struct {
	nextID int
	byID   map[int]types.User
	byName map[string]types.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		nextID: 1,
		byID:   make(map[int]types.User),
		byName: make(map[string]types.User),
	}
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int) (types.User, error) {
	user, ok := f.byID[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (types.User, error) {
	user, ok := f.byName[username]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	if _, ok := f.byName[user.Username]; ok {
		return types.User{}, store.ErrDuplicate
	}
	user.ID = f.nextID
	f.nextID++
	user.CreatedAt = time.Now()
	f.byID[user.ID] = user
	f.byName[user.Username] = user
	return user, nil
}

func newAuthRouter(t *testing.T) *chi.Mux {
	t.Helper()

	users := services.NewUserService(newFakeUserRepo())
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	tokens := auth.NewTokenService("test-secret", time.Hour)
	guard := auth.NewGuard(tokens)
	handler := NewAuthHandler(users, hasher, tokens, guard, slog.Default())

	router := chi.NewRouter()
	AuthRouter(router, handler)
	return router
}

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRegister(t *testing.T) {
	t.Parallel()

	router := newAuthRouter(t)

	rec := postJSON(t, router, "/register", map[string]string{"username": "alice", "password": "pw1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d want %d, body %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var user types.User
	if err := json.NewDecoder(rec.Body).Decode(&user); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if user.ID == 0 || user.Username != "alice" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("response must not leak password material: %s", rec.Body.String())
	}
}

func TestRegisterMissingFields(t *testing.T) {
	t.Parallel()

	router := newAuthRouter(t)

	rec := postJSON(t, router, "/register", map[string]string{"username": "", "password": ""})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	t.Parallel()

	router := newAuthRouter(t)

	if rec := postJSON(t, router, "/register", map[string]string{"username": "alice", "password": "pw1"}); rec.Code != http.StatusOK {
		t.Fatalf("first register failed: %d", rec.Code)
	}
	rec := postJSON(t, router, "/register", map[string]string{"username": "alice", "password": "pw2"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestLoginSetsSessionCookie(t *testing.T) {
	t.Parallel()

	router := newAuthRouter(t)
	postJSON(t, router, "/register", map[string]string{"username": "alice", "password": "pw1"})

	rec := postJSON(t, router, "/login", map[string]string{"username": "alice", "password": "pw1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d want %d, body %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["username"] != "alice" {
		t.Fatalf("unexpected login body: %v", body)
	}

	cookie := sessionCookieFromResponse(t, rec)
	if cookie.Value == "" {
		t.Fatalf("expected non-empty session token")
	}
	if !cookie.HttpOnly || !cookie.Secure || cookie.SameSite != http.SameSiteNoneMode {
		t.Fatalf("unexpected cookie attributes: %+v", cookie)
	}
}

func TestLoginWrongCredentials(t *testing.T) {
	t.Parallel()

	router := newAuthRouter(t)
	postJSON(t, router, "/register", map[string]string{"username": "alice", "password": "pw1"})

	badPassword := postJSON(t, router, "/login", map[string]string{"username": "alice", "password": "wrong"})
	unknownUser := postJSON(t, router, "/login", map[string]string{"username": "nobody", "password": "pw1"})

	for _, rec := range []*httptest.ResponseRecorder{badPassword, unknownUser} {
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status: got %d want %d", rec.Code, http.StatusBadRequest)
		}
	}
	// Unknown user and wrong password must be indistinguishable.
	if badPassword.Body.String() != unknownUser.Body.String() {
		t.Fatalf("login failures must not reveal whether the user exists: %q vs %q",
			badPassword.Body.String(), unknownUser.Body.String())
	}
	if !strings.Contains(badPassword.Body.String(), "wrong credentials") {
		t.Fatalf("expected wrong credentials reason, got %s", badPassword.Body.String())
	}
}

func TestProfile(t *testing.T) {
	t.Parallel()

	router := newAuthRouter(t)
	postJSON(t, router, "/register", map[string]string{"username": "alice", "password": "pw1"})
	login := postJSON(t, router, "/login", map[string]string{"username": "alice", "password": "pw1"})
	cookie := sessionCookieFromResponse(t, login)

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d want %d", rec.Code, http.StatusOK)
	}
	var claims map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&claims); err != nil {
		t.Fatalf("decode claims: %v", err)
	}
	if claims["username"] != "alice" {
		t.Fatalf("unexpected claims: %v", claims)
	}
}

func TestProfileWithoutCookie(t *testing.T) {
	t.Parallel()

	router := newAuthRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d want %d", rec.Code, http.StatusUnauthorized)
	}
	if !strings.Contains(rec.Body.String(), "missing token") {
		t.Fatalf("expected missing token reason, got %s", rec.Body.String())
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	t.Parallel()

	router := newAuthRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d want %d", rec.Code, http.StatusOK)
	}
	cookie := sessionCookieFromResponse(t, rec)
	if cookie.Value != "" {
		t.Fatalf("expected cleared cookie value, got %q", cookie.Value)
	}
	if cookie.MaxAge >= 0 && cookie.Expires.After(time.Now()) {
		t.Fatalf("expected cookie to expire immediately: %+v", cookie)
	}
}

func sessionCookieFromResponse(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == auth.CookieName {
			return cookie
		}
	}
	t.Fatalf("session cookie not set")
	return nil
}

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
)

// CookieName is the single recognized transport for session tokens.
const CookieName = "token"

// ErrNoToken is returned when the request carries no session cookie at all.
// Callers must report it separately from a present-but-invalid token.
var ErrNoToken = errors.New("no token")

// Identity is the authenticated caller extracted from a verified token.
type Identity struct {
	UserID   int
	Username string
}

// Guard authenticates inbound requests against the token service.
// It is a pure gate: it inspects a request and returns a result, leaving
// the decision to reject to the caller.
type Guard struct {
	tokens *TokenService
}

func NewGuard(tokens *TokenService) *Guard {
	return &Guard{tokens: tokens}
}

// Authenticate extracts the session cookie and verifies it. The error is one
// of ErrNoToken, ErrTokenMalformed or ErrTokenExpired.
func (g *Guard) Authenticate(r *http.Request) (Identity, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return Identity{}, ErrNoToken
	}

	claims, err := g.tokens.Verify(cookie.Value)
	if err != nil {
		return Identity{}, err
	}

	userID, err := claims.UserID()
	if err != nil {
		return Identity{}, ErrTokenMalformed
	}

	return Identity{UserID: userID, Username: claims.Username}, nil
}

// Claims verifies the session cookie and returns the raw claims, for callers
// that render them directly.
func (g *Guard) Claims(r *http.Request) (Claims, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return Claims{}, ErrNoToken
	}
	return g.tokens.Verify(cookie.Value)
}

type contextKey string

const contextIdentityKey contextKey = "identity"

// RequireAuth is chi middleware that halts unauthenticated requests with a
// 401 and a reason the client can distinguish: missing, invalid or expired.
func (g *Guard) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := g.Authenticate(r)
		if err != nil {
			writeAuthError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), contextIdentityKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// IdentityFromContext returns the identity injected by RequireAuth.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(contextIdentityKey).(Identity)
	return identity, ok
}

func writeAuthError(w http.ResponseWriter, err error) {
	reason := "invalid token"
	switch {
	case errors.Is(err, ErrNoToken):
		reason = "missing token"
	case errors.Is(err, ErrTokenExpired):
		reason = "expired token"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": reason})
}

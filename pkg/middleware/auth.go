package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	jwtutil "github.com/Dias221467/Recovery_Tracker/pkg/jwt"
	"github.com/Dias221467/Recovery_Tracker/pkg/logger"
)

type contextKey string

const userContextKey contextKey = "user"

var ErrMissingToken = errors.New("missing bearer token")

// TokenVerifier checks a bearer token. *jwt.Manager implements it.
type TokenVerifier interface {
	Verify(token string) (*jwtutil.Claims, error)
}

// Authenticator resolves bearer tokens to claims. In development mode the
// literal DevToken stands in for DevUserID.
type Authenticator struct {
	Verifier  TokenVerifier
	DevMode   bool
	DevToken  string
	DevUserID string
}

// Resolve returns the claims for token.
func (a *Authenticator) Resolve(token string) (*jwtutil.Claims, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	if a.DevMode && a.DevToken != "" && token == a.DevToken {
		return &jwtutil.Claims{UserID: a.DevUserID, Email: a.DevUserID + "@localhost"}, nil
	}
	return a.Verifier.Verify(token)
}

// AuthMiddleware rejects requests without a valid bearer token before they
// reach a handler and stores the claims in the request context.
func AuthMiddleware(a *Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := a.Resolve(BearerToken(r))
			if err != nil {
				logger.Log.WithFields(map[string]interface{}{
					"path":  r.URL.Path,
					"error": err.Error(),
				}).Warn("Unauthorized request")

				msg := "Invalid or expired token"
				if errors.Is(err, ErrMissingToken) {
					msg = "No token provided"
				}
				writeError(w, http.StatusUnauthorized, msg)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), claims)))
		})
	}
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// WithUser returns a copy of ctx carrying claims.
func WithUser(ctx context.Context, claims *jwtutil.Claims) context.Context {
	return context.WithValue(ctx, userContextKey, claims)
}

// GetUserFromContext returns the authenticated user, or nil.
func GetUserFromContext(ctx context.Context) *jwtutil.Claims {
	claims, _ := ctx.Value(userContextKey).(*jwtutil.Claims)
	return claims
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   msg,
	})
}

package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/JonMunkholm/bizdesk/internal/core"
)

// Claims are the access token claims issued by the identity provider. The
// subject is the user ID.
type Claims struct {
	IsAdmin bool `json:"is_admin"`
	jwt.RegisteredClaims
}

// JWTAuth verifies HS256 bearer tokens and stores the caller in the request
// context. An empty secret disables authentication and every request passes
// through without a caller.
func JWTAuth(secret string) func(http.Handler) http.Handler {
	key := []byte(secret)

	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				slog.Warn("auth: missing bearer token", "path", r.URL.Path, "method", r.Method, "ip", ClientIP(r))
				writeError(w, http.StatusUnauthorized, core.ErrAuthRequired)
				return
			}

			user, err := parseToken(raw, key)
			if err != nil {
				slog.Warn("auth: invalid token", "path", r.URL.Path, "method", r.Method, "ip", ClientIP(r), "error", err)
				writeError(w, http.StatusUnauthorized, core.ErrAuthRequired)
				return
			}

			recordUser(w, user)
			next.ServeHTTP(w, r.WithContext(core.ContextWithUser(r.Context(), user)))
		})
	}
}

// RequireAdmin rejects authenticated callers without the admin claim.
// Requests without a caller (auth disabled) pass through.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u, ok := core.UserFromContext(r.Context()); ok && !u.IsAdmin {
			writeError(w, http.StatusForbidden, core.ErrAdminRequired)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func parseToken(raw string, key []byte) (core.User, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return core.User{}, err
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return core.User{}, fmt.Errorf("subject is not a user id: %w", err)
	}
	if id == uuid.Nil {
		return core.User{}, errors.New("empty subject")
	}
	return core.User{ID: id, IsAdmin: claims.IsAdmin}, nil
}

// writeError writes the JSON error shape used by the web package.
func writeError(w http.ResponseWriter, status int, err error) {
	msg := core.MapError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   msg.Message,
		"message": msg.Message,
		"action":  msg.Action,
		"code":    msg.Code,
	})
}

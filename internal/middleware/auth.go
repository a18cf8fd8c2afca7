package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// TokenValidator resolves a bearer token to a user id.
type TokenValidator interface {
	ValidateJWT(token string) (string, error)
}

type contextKey string

const userIDKey contextKey = "user_id"

// ErrMissingToken is returned when no token accompanies a request that
// requires one.
var ErrMissingToken = errors.New("token required")

// AuthMiddleware rejects requests without a valid bearer token and puts
// the authenticated user id on the request context.
func AuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w, "missing or malformed authorization header")
				return
			}

			userID, err := validator.ValidateJWT(token)
			if err != nil {
				unauthorized(w, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// GetUserID returns the authenticated user id from the context, or ""
// outside an authenticated request.
func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// ValidateWebSocketToken validates a JWT passed as a query parameter;
// browsers cannot set headers on a WebSocket dial.
func ValidateWebSocketToken(token string, validator TokenValidator) (string, error) {
	if token == "" {
		return "", ErrMissingToken
	}
	return validator.ValidateJWT(token)
}

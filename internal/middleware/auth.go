package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"city-tours/internal/models"
)

type contextKey string

const (
	userIDKey contextKey = "user_id"
	tokenKey  contextKey = "access_token"
)

// Authenticator resolves an access token to a user id
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

// AuthMiddleware creates a middleware for bearer token authentication
func AuthMiddleware(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondError(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			token, ok := BearerToken(authHeader)
			if !ok {
				respondError(w, "Invalid authorization header format", http.StatusUnauthorized)
				return
			}

			userID, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				if models.KindOf(err) == models.KindUnauthorized {
					respondError(w, models.MessageOf(err, "Invalid token"), http.StatusUnauthorized)
					return
				}
				respondError(w, "Failed to validate token", http.StatusInternalServerError)
				return
			}

			ctx := WithUserID(r.Context(), userID)
			ctx = context.WithValue(ctx, tokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token of an "Authorization: Bearer <token>" header
func BearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// WithUserID stores the authenticated user id in ctx
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserID extracts user ID from context
func GetUserID(ctx context.Context) string {
	userID, ok := ctx.Value(userIDKey).(string)
	if !ok {
		return ""
	}
	return userID
}

// GetToken extracts the access token from context
func GetToken(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}

// ValidateWebSocketToken validates the token sent as a WebSocket query parameter
func ValidateWebSocketToken(ctx context.Context, token string, auth Authenticator) (string, error) {
	if token == "" {
		return "", models.NewUnauthorizedError("token required")
	}
	return auth.Authenticate(ctx, token)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	kind := models.KindUnauthorized
	switch statusCode {
	case http.StatusTooManyRequests:
		kind = "rate_limited"
	case http.StatusInternalServerError:
		kind = models.KindInternal
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message, "kind": string(kind)})
}

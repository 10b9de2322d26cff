package handlers

import (
	"net/http"
	"testing"

	"city-tours/internal/middleware"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthRoutes_SignUpSignInSignOut(t *testing.T) {
	api := newTestAPI(t)
	token, userID := api.signUp(t, "a@b.com")
	assert.NotEmpty(t, userID)

	status, body := api.do(t, http.MethodPost, "/api/v1/auth/signup", "", SignUpRequest{Email: "A@b.com", Password: "secret1"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "conflict", errorKind(t, body))

	status, body = api.do(t, http.MethodPost, "/api/v1/auth/token", "", CredentialsRequest{Email: "a@b.com", Password: "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "unauthorized", errorKind(t, body))

	status, body = api.do(t, http.MethodPost, "/api/v1/auth/token", "", CredentialsRequest{Email: "a@b.com", Password: "secret1"})
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = api.do(t, http.MethodGet, "/api/v1/auth/user", token, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var user struct {
		ID    string  `json:"id"`
		Email string  `json:"email"`
		Name  *string `json:"name"`
	}
	api.decode(t, body, &user)
	assert.Equal(t, userID, user.ID)
	assert.Equal(t, "a@b.com", user.Email)
	require.NotNil(t, user.Name)
	assert.Equal(t, "Ana", *user.Name)

	status, _ = api.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = api.do(t, http.MethodGet, "/api/v1/auth/user", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAuthRoutes_Validation(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name string
		path string
		body any
	}{
		{"short password", "/api/v1/auth/signup", SignUpRequest{Email: "a@b.com", Password: "12345"}},
		{"missing email", "/api/v1/auth/token", CredentialsRequest{Password: "secret1"}},
		{"missing reset email", "/api/v1/auth/recover", RecoverRequest{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := api.do(t, http.MethodPost, tt.path, "", tt.body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, "validation", errorKind(t, body))
		})
	}

	status, body := api.do(t, http.MethodPost, "/api/v1/auth/signup", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation", errorKind(t, body))
}

func TestAuthRoutes_RecoverDoesNotRevealAccounts(t *testing.T) {
	api := newTestAPI(t)
	api.signUp(t, "a@b.com")

	status, known := api.do(t, http.MethodPost, "/api/v1/auth/recover", "", RecoverRequest{Email: "a@b.com"})
	require.Equal(t, http.StatusOK, status)
	status, unknown := api.do(t, http.MethodPost, "/api/v1/auth/recover", "", RecoverRequest{Email: "nobody@b.com"})
	require.Equal(t, http.StatusOK, status)

	var a, b struct {
		Email string `json:"email"`
	}
	api.decode(t, known, &a)
	api.decode(t, unknown, &b)
	assert.Equal(t, "a@b.com", a.Email)
	assert.Equal(t, "nobody@b.com", b.Email)

	status, body := api.do(t, http.MethodPost, "/api/v1/auth/recover/confirm", "", RecoverConfirmRequest{Token: "bogus", Password: "secret2"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "unauthorized", errorKind(t, body))
}

func TestAuthRoutes_ProtectedWithoutToken(t *testing.T) {
	api := newTestAPI(t)

	status, _ := api.do(t, http.MethodGet, "/api/v1/auth/user", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = api.do(t, http.MethodGet, "/api/v1/auth/user", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAuthRoutes_RateLimited(t *testing.T) {
	rl := middleware.NewRateLimiter(0.001, 1)
	t.Cleanup(rl.Stop)
	api := newTestAPI(t, withAuthLimiter(rl))

	status, _ := api.do(t, http.MethodPost, "/api/v1/auth/token", "", CredentialsRequest{Email: "a@b.com", Password: "secret1"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := api.do(t, http.MethodPost, "/api/v1/auth/token", "", CredentialsRequest{Email: "a@b.com", Password: "secret1"})
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "rate_limited", errorKind(t, body))

	status, _ = api.do(t, http.MethodGet, "/api/v1/tours", "", nil)
	assert.Equal(t, http.StatusOK, status)
}

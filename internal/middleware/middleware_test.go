package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"city-tours/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth map[string]string

func (f fakeAuth) Authenticate(_ context.Context, token string) (string, error) {
	if token == "broken" {
		return "", errors.New("kv down")
	}
	if id, ok := f[token]; ok {
		return id, nil
	}
	return "", models.NewUnauthorizedError("invalid token")
}

func TestAuthMiddleware(t *testing.T) {
	auth := fakeAuth{"good": "user-1"}
	var seenUser, seenToken string
	h := AuthMiddleware(auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUser = GetUserID(r.Context())
		seenToken = GetToken(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"unknown token", "Bearer nope", http.StatusUnauthorized},
		{"store failure", "Bearer broken", http.StatusInternalServerError},
		{"valid", "Bearer good", http.StatusNoContent},
		{"lower case scheme", "bearer good", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
			if tt.status != http.StatusNoContent {
				var body map[string]string
				require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
				assert.NotEmpty(t, body["error"])
			}
		})
	}
	assert.Equal(t, "user-1", seenUser)
	assert.Equal(t, "good", seenToken)
}

func TestValidateWebSocketToken(t *testing.T) {
	auth := fakeAuth{"good": "user-1"}
	id, err := ValidateWebSocketToken(context.Background(), "good", auth)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id)

	_, err = ValidateWebSocketToken(context.Background(), "", auth)
	assert.Equal(t, models.KindUnauthorized, models.KindOf(err))
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	defer rl.Stop()

	calls := 0
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))

	send := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusOK, send("10.0.0.1:1001").Code)
	limited := send("10.0.0.1:1002")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "1", limited.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, send("10.0.0.2:1000").Code)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, rl.Len())
}

func TestRateLimiter_NonPositiveRateDisablesLimiting(t *testing.T) {
	for _, rps := range []float64{0, -1} {
		rl := NewRateLimiter(rps, 0)
		h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		for i := 0; i < 5; i++ {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", nil)
			req.RemoteAddr = "10.0.0.1:1000"
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code)
		}
		rl.Stop()
	}
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	defer rl.Stop()

	rl.limiter("a")
	rl.cleanup(time.Now())
	assert.Equal(t, 1, rl.Len())

	rl.cleanup(time.Now().Add(rl.cleanupInterval*2 + time.Second))
	assert.Equal(t, 0, rl.Len())
}

type recorded struct {
	method, route string
	status        int
}

type fakeRecorder struct{ calls []recorded }

func (f *fakeRecorder) RecordRequest(method, route string, status int, _ time.Duration) {
	f.calls = append(f.calls, recorded{method, route, status})
}

func TestMetrics_UsesRoutePattern(t *testing.T) {
	rec := &fakeRecorder{}
	r := chi.NewRouter()
	r.Use(Metrics(rec))
	r.Get("/tours/{tour_id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Get("/ok", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	for _, path := range []string{"/tours/abc", "/ok", "/missing"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	require.Len(t, rec.calls, 3)
	assert.Equal(t, recorded{"GET", "/tours/{tour_id}", http.StatusTeapot}, rec.calls[0])
	assert.Equal(t, recorded{"GET", "/ok", http.StatusOK}, rec.calls[1])
	assert.Equal(t, http.StatusNotFound, rec.calls[2].status)
}

func TestLogging_PassesThrough(t *testing.T) {
	h := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))
	assert.Equal(t, http.StatusCreated, w.Code)
}

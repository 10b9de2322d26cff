package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"city-tours/internal/cache"
	"city-tours/internal/config"
	"city-tours/internal/identity"
	"city-tours/internal/mailer"
	"city-tours/internal/metrics"
	"city-tours/internal/middleware"
	"city-tours/internal/repository/memory"
	"city-tours/internal/services"
	"city-tours/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type testAPI struct {
	srv   *httptest.Server
	store *memory.Store
	files *storage.MemoryStorage
	deps  *RouterDeps
}

func newTestAPI(t *testing.T, opts ...func(*RouterDeps)) *testAPI {
	t.Helper()

	store := memory.New()
	files := storage.NewMemoryStorage("http://files.test")
	provider := identity.NewProvider(store.Users(), cache.NewMemory(), mailer.LogMailer{}, config.JWTConfig{
		Secret:   "handler-secret",
		TokenTTL: time.Hour,
		ResetTTL: time.Hour,
		ResetURL: "http://tours.test/reset",
	})

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	tours := services.NewTourService(store.Tours(), store.Stops(), store.Images(), files)
	stops := services.NewStopService(store.Stops(), tours)
	chat := services.NewChatService("", time.Second).WithRecorder(collector)

	deps := &RouterDeps{
		Identity: provider,
		Tours:    tours,
		Stops:    stops,
		Images:   services.NewImageService(store.Images(), store.Tours(), files, 1<<10).WithRecorder(collector),
		Profiles: services.NewProfileService(store.Profiles(), store.Tours()),
		Maps:     services.NewMapService(tours, stops),
		Reports:  services.NewReportService(tours, stops),
		Chat:     chat,
		Hub:      services.NewWSHub(chat),
		Metrics:  collector,
		Gatherer: reg,
	}
	for _, opt := range opts {
		opt(deps)
	}

	srv := httptest.NewServer(NewRouter(deps))
	t.Cleanup(srv.Close)
	return &testAPI{srv: srv, store: store, files: files, deps: deps}
}

func withAuthLimiter(rl *middleware.RateLimiter) func(*RouterDeps) {
	return func(d *RouterDeps) { d.AuthLimiter = rl }
}

// do sends a JSON request and returns the status and the raw body
func (a *testAPI) do(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, a.srv.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func (a *testAPI) decode(t *testing.T, data []byte, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(data, v), string(data))
}

// signUp registers a user and returns its access token and id
func (a *testAPI) signUp(t *testing.T, email string) (string, string) {
	t.Helper()
	status, body := a.do(t, http.MethodPost, "/api/v1/auth/signup", "", SignUpRequest{
		Email:    email,
		Password: "secret1",
		Name:     "Ana",
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	var sess struct {
		AccessToken string `json:"access_token"`
		User        struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	a.decode(t, body, &sess)
	return sess.AccessToken, sess.User.ID
}

func (a *testAPI) createTour(t *testing.T, token string) string {
	t.Helper()
	status, body := a.do(t, http.MethodPost, "/api/v1/tours", token, map[string]any{
		"title":       "Sevilla monumental",
		"description": "Catedral y Alcázar",
		"city":        "Sevilla",
		"price":       "10",
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	var tour struct {
		ID string `json:"id"`
	}
	a.decode(t, body, &tour)
	return tour.ID
}

func errorKind(t *testing.T, data []byte) string {
	t.Helper()
	var e ErrorResponse
	require.NoError(t, json.Unmarshal(data, &e), string(data))
	return string(e.Kind)
}

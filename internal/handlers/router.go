package handlers

import (
	"context"
	"net/http"

	"city-tours/internal/identity"
	"city-tours/internal/metrics"
	"city-tours/internal/middleware"
	"city-tours/internal/services"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// RouterDeps groups everything NewRouter wires into routes
type RouterDeps struct {
	Identity *identity.Provider
	Tours    *services.TourService
	Stops    *services.StopService
	Images   *services.ImageService
	Profiles *services.ProfileService
	Maps     *services.MapService
	Reports  *services.ReportService
	Chat     *services.ChatService
	Hub      *services.WSHub

	// optional
	AuthLimiter *middleware.RateLimiter
	Metrics     *metrics.Collector
	Gatherer    prometheus.Gatherer
	Health      func(ctx context.Context) error
}

// NewRouter builds the HTTP API.
//
// Middleware order: RequestID → RealIP → Recoverer → Logging → Metrics → CORS.
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logging)
	if deps.Metrics != nil {
		r.Use(middleware.Metrics(deps.Metrics))
	}
	r.Use(middleware.CORS)

	authHandler := NewAuthHandler(deps.Identity)
	tourHandler := NewTourHandler(deps.Tours, deps.Stops, deps.Maps, deps.Reports)
	stopHandler := NewStopHandler(deps.Tours, deps.Stops)
	imageHandler := NewImageHandler(deps.Tours, deps.Images)
	profileHandler := NewProfileHandler(deps.Identity, deps.Profiles)
	chatHandler := NewChatHandler(deps.Chat)

	var gauge ConnectionGauge
	if deps.Metrics != nil {
		gauge = deps.Metrics
	}
	wsHandler := NewWebSocketHandler(deps.Hub, deps.Identity, gauge)

	requireAuth := middleware.AuthMiddleware(deps.Identity)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			if deps.AuthLimiter != nil {
				r.Use(deps.AuthLimiter.Middleware)
			}
			r.Post("/signup", authHandler.SignUp)
			r.Post("/token", authHandler.SignIn)
			r.Post("/recover", authHandler.Recover)
			r.Post("/recover/confirm", authHandler.RecoverConfirm)

			r.With(requireAuth).Post("/logout", authHandler.SignOut)
			r.With(requireAuth).Get("/user", authHandler.CurrentUser)
		})

		// Public routes
		r.Get("/tours", tourHandler.ListTours)
		r.Get("/tours/{tour_id}", tourHandler.GetTour)
		r.Get("/tours/{tour_id}/stops", tourHandler.ListStops)
		r.Get("/tours/{tour_id}/map", tourHandler.Map)
		r.Get("/tours/{tour_id}/report", tourHandler.Report)
		r.Get("/tours/{tour_id}/images", imageHandler.ListImages)
		r.Get("/stops/{stop_id}", stopHandler.GetStop)
		r.Post("/chat", chatHandler.Send)
		r.Get("/chat/status", chatHandler.Status)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Post("/tours", tourHandler.CreateTour)
			r.Patch("/tours/{tour_id}", tourHandler.UpdateTour)
			r.Delete("/tours/{tour_id}", tourHandler.DeleteTour)
			r.Post("/tours/{tour_id}/images", imageHandler.UploadImage)
			r.Delete("/images/{image_id}", imageHandler.DeleteImage)

			r.Post("/stops", stopHandler.CreateStop)
			r.Patch("/stops/{stop_id}", stopHandler.UpdateStop)
			r.Delete("/stops/{stop_id}", stopHandler.DeleteStop)

			r.Get("/profile", profileHandler.GetProfile)
			r.Patch("/profile", profileHandler.UpdateProfile)
		})
	})

	// WebSocket route
	r.Get("/ws/chat", wsHandler.HandleWebSocket)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if deps.Health != nil {
			if err := deps.Health(r.Context()); err != nil {
				respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	return r
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"city-tours/internal/cache"
	"city-tours/internal/config"
	"city-tours/internal/database"
	"city-tours/internal/handlers"
	"city-tours/internal/identity"
	"city-tours/internal/mailer"
	"city-tours/internal/metrics"
	"city-tours/internal/middleware"
	"city-tours/internal/repository"
	"city-tours/internal/repository/memory"
	"city-tours/internal/services"
	"city-tours/internal/storage"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var _ services.Recorder = (*metrics.Collector)(nil)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var migrateOnStart bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, opts.cfg, migrateOnStart)
		},
	}
	cmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "apply pending migrations before serving (postgres driver)")
	return cmd
}

// tables are the stores behind the services, backed by PostgreSQL or memory
type tables struct {
	users    identity.Accounts
	profiles services.ProfileStore
	tours    services.TourStore
	stops    services.StopStore
	images   services.ImageStore
	health   func(ctx context.Context) error
	close    func()
}

func openTables(ctx context.Context, cfg *config.Config, migrateOnStart bool) (*tables, error) {
	if cfg.Database.Driver == "memory" {
		log.Warn().Msg("Using in-memory tables, data is lost on exit")
		store := memory.New()
		return &tables{
			users:    store.Users(),
			profiles: store.Profiles(),
			tours:    store.Tours(),
			stops:    store.Stops(),
			images:   store.Images(),
			close:    func() {},
		}, nil
	}

	if migrateOnStart {
		if err := database.Up(cfg.Database.URL()); err != nil {
			return nil, err
		}
		log.Info().Msg("Database migrations applied")
	}

	db, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	log.Info().Msg("Database connection established")

	return &tables{
		users:    repository.NewUserRepository(db),
		profiles: repository.NewProfileRepository(db),
		tours:    repository.NewTourRepository(db),
		stops:    repository.NewStopRepository(db),
		images:   repository.NewTourImageRepository(db),
		health:   db.Ping,
		close:    db.Close,
	}, nil
}

func openStorage(ctx context.Context, cfg config.AWSConfig) (storage.Storage, error) {
	if cfg.S3Bucket == "" {
		log.Warn().Msg("No S3 bucket configured, keeping uploads in memory")
		return storage.NewMemoryStorage(cfg.PublicURL), nil
	}
	s3, err := storage.NewS3Storage(ctx, cfg)
	if err != nil {
		return nil, err
	}
	log.Info().Str("bucket", cfg.S3Bucket).Msg("Using S3 storage")
	return s3, nil
}

// buildRouter wires services and handlers over the opened stores
func buildRouter(cfg *config.Config, db *tables, kv cache.Store, files storage.Storage) (http.Handler, func()) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)

	// Initialize services
	provider := identity.NewProvider(db.users, kv, mailer.New(cfg.SMTP), cfg.JWT)
	tourService := services.NewTourService(db.tours, db.stops, db.images, files)
	stopService := services.NewStopService(db.stops, tourService)
	chatService := services.NewChatService(cfg.Chat.BaseURL, cfg.Chat.Timeout).WithRecorder(collector)

	authLimiter := middleware.NewRateLimiter(cfg.Server.AuthRateLimit, cfg.Server.AuthRateBurst)

	router := handlers.NewRouter(&handlers.RouterDeps{
		Identity:    provider,
		Tours:       tourService,
		Stops:       stopService,
		Images:      services.NewImageService(db.images, db.tours, files, cfg.Server.MaxUploadBytes).WithRecorder(collector),
		Profiles:    services.NewProfileService(db.profiles, db.tours),
		Maps:        services.NewMapService(tourService, stopService),
		Reports:     services.NewReportService(tourService, stopService),
		Chat:        chatService,
		Hub:         services.NewWSHub(chatService),
		AuthLimiter: authLimiter,
		Metrics:     collector,
		Gatherer:    reg,
		Health:      db.health,
	})
	return router, authLimiter.Stop
}

func runServer(ctx context.Context, cfg *config.Config, migrateOnStart bool) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	db, err := openTables(ctx, cfg, migrateOnStart)
	if err != nil {
		return err
	}
	defer db.close()

	kv, err := cache.New(cfg.Cache)
	if err != nil {
		return err
	}
	defer kv.Close()
	if err := kv.Ping(ctx); err != nil {
		return fmt.Errorf("failed to reach cache: %w", err)
	}

	files, err := openStorage(ctx, cfg.AWS)
	if err != nil {
		return err
	}

	router, cleanup := buildRouter(cfg, db, kv, files)
	defer cleanup()

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Str("database", cfg.Database.Driver).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
	return nil
}

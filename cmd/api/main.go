package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/anamnese-api/internal/config"
	anamneseHandler "github.com/jwalitptl/anamnese-api/internal/handler/anamnese"
	authHandler "github.com/jwalitptl/anamnese-api/internal/handler/auth"
	"github.com/jwalitptl/anamnese-api/internal/handler/health"
	promHandler "github.com/jwalitptl/anamnese-api/internal/handler/prometheus"
	"github.com/jwalitptl/anamnese-api/internal/middleware"
	"github.com/jwalitptl/anamnese-api/internal/repository"
	"github.com/jwalitptl/anamnese-api/internal/repository/memory"
	"github.com/jwalitptl/anamnese-api/internal/repository/postgres"
	"github.com/jwalitptl/anamnese-api/internal/router"
	anamneseService "github.com/jwalitptl/anamnese-api/internal/service/anamnese"
	authService "github.com/jwalitptl/anamnese-api/internal/service/auth"
	summaryService "github.com/jwalitptl/anamnese-api/internal/service/summary"
	"github.com/jwalitptl/anamnese-api/pkg/llm"
	"github.com/jwalitptl/anamnese-api/pkg/logger"
	"github.com/jwalitptl/anamnese-api/pkg/messaging"
	"github.com/jwalitptl/anamnese-api/pkg/messaging/redis"
	"github.com/jwalitptl/anamnese-api/pkg/metrics"
)

const metricsNamespace = "anamnese"

func main() {
	rootCmd := &cobra.Command{
		Use:          "anamnese-api",
		Short:        "Clinical history (anamnese) API server",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(eventsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the Postgres schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}

			db, err := postgres.NewDB(cmd.Context(), postgresConfig(cfg))
			if err != nil {
				return err
			}
			defer db.Close()

			base := postgres.NewBaseRepository(db, nil)
			if err := base.Migrate(cmd.Context()); err != nil {
				return err
			}
			log.Info().Msg("database schema is up to date")
			return nil
		},
	}
}

// eventsCmd tails the lifecycle event channel, one JSON message per line.
func eventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Print anamnese lifecycle events as they are published",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			if cfg.Redis.URL == "" {
				return errors.New("REDIS_URL is required to follow events")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			broker, err := redis.NewRedisBroker(ctx, redisConfig(cfg), log)
			if err != nil {
				return err
			}
			defer broker.Close()

			messages, err := broker.Subscribe(ctx, messaging.AnamneseChannel)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for raw := range messages {
				var msg messaging.Message
				if err := json.Unmarshal(raw, &msg); err != nil {
					log.Warn().Err(err).Msg("skipping malformed event")
					continue
				}
				fmt.Fprintln(out, string(raw))
			}
			return nil
		},
	}
}

func setup() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log := logger.NewLogger(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	return cfg, log, nil
}

type stores struct {
	anamneses repository.AnamneseRepository
	users     repository.UserRepository
	sessions  repository.SessionRepository
	pinger    repository.Pinger
	close     func() error
}

func openStores(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*stores, error) {
	if cfg.Storage.Driver == config.StorageMemory {
		store := memory.NewStore()
		return &stores{
			anamneses: store.Anamneses(),
			users:     store.Users(),
			sessions:  store.Sessions(),
			pinger:    store,
			close:     func() error { return nil },
		}, nil
	}

	db, err := postgres.NewDB(ctx, postgresConfig(cfg))
	if err != nil {
		return nil, err
	}
	base := postgres.NewBaseRepository(db, m)
	return &stores{
		anamneses: postgres.NewAnamneseRepository(base),
		users:     postgres.NewUserRepository(base),
		sessions:  postgres.NewSessionRepository(base),
		pinger:    db,
		close:     db.Close,
	}, nil
}

func runServer(ctx context.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(metricsNamespace, registry)

	st, err := openStores(ctx, cfg, m)
	if err != nil {
		return err
	}
	defer st.close()
	log.Info().Str("driver", cfg.Storage.Driver).Msg("storage ready")

	var publisher messaging.Publisher = messaging.NopPublisher{}
	if cfg.Redis.URL != "" {
		broker, err := redis.NewRedisBroker(ctx, redisConfig(cfg), log)
		if err != nil {
			return err
		}
		defer broker.Close()
		publisher = messaging.NewBrokerPublisher(broker, messaging.AnamneseChannel, m)
		log.Info().Str("channel", messaging.AnamneseChannel).Msg("publishing lifecycle events")
	}

	llmCfg, err := llm.LoadConfig()
	if err != nil {
		return err
	}
	if llmCfg.APIKey == "" {
		log.Warn().Msg("LLM_API_KEY is not set, summary generation will fail")
	}

	authSvc := authService.NewService(st.users, st.sessions,
		authService.NewHTTPProvider(cfg.Auth.ProviderURL, cfg.Auth.ProviderTimeout),
		authService.WithSessionTTL(cfg.Auth.SessionTTL),
		authService.WithLogger(logger.Component(log, "auth")),
	)
	recordSvc := anamneseService.NewService(st.anamneses,
		anamneseService.WithPublisher(publisher),
		anamneseService.WithLogger(logger.Component(log, "anamnese")),
	)
	summarySvc := summaryService.NewService(st.anamneses, llm.NewClient(llmCfg),
		summaryService.WithPublisher(publisher),
		summaryService.WithMetrics(m),
		summaryService.WithLogger(logger.Component(log, "summary")),
	)

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.CORS.AllowedOrigins

	sizeLimit := middleware.DefaultSizeLimitConfig()
	if cfg.Server.MaxBodyBytes > 0 {
		sizeLimit.MaxBodySize = cfg.Server.MaxBodyBytes
	}

	r := router.NewRouter(router.RouterConfig{
		Mode:       cfg.Server.Mode,
		Logger:     log,
		CORSConfig: cors,
		RateLimit: middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		},
		Timeout: middleware.TimeoutConfig{
			Duration: cfg.Server.RequestTimeout,
			// summary generation is bounded by the provider timeout instead
			Skip: []string{"/api/anamneses/:id/generate-summary"},
		},
		SizeLimit: sizeLimit,
		Security:  middleware.DefaultSecurityConfig(),
		Compress:  middleware.DefaultCompressConfig(),
	}, m,
		[]router.OperationalHandler{
			health.NewHandler(st.pinger),
			promHandler.New(registry),
		},
		authHandler.NewHandler(authSvc),
		anamneseHandler.NewHandler(recordSvc, summarySvc, authSvc, middleware.NewAuditMiddleware(log), m),
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	}
	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server exited properly")
	return nil
}

func postgresConfig(cfg *config.Config) postgres.Config {
	return postgres.Config{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}
}

func redisConfig(cfg *config.Config) redis.Config {
	return redis.Config{
		URL:        cfg.Redis.URL,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
	}
}

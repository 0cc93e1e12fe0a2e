package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"project-ledger/internal/config"
	"project-ledger/internal/db"
	"project-ledger/internal/events"
	"project-ledger/internal/health"
	"project-ledger/internal/ledger"
	"project-ledger/internal/logger"
	"project-ledger/internal/metrics"
	"project-ledger/internal/middleware"
	"project-ledger/internal/repository"
	"project-ledger/internal/telemetry"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/mux"
	"github.com/uptrace/bun"
)

const dependencyNATS = "nats"

type App struct {
	config    *config.Config
	router    *mux.Router
	server    *http.Server
	logger    *slog.Logger
	db        *bun.DB
	telemetry *telemetry.Telemetry
	metrics   *metrics.Metrics
	events    events.Publisher
	service   ledger.Service
}

// New wires storage, events and the HTTP surface. Nothing listens until Run.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	slogLogger := logger.NewWithServiceContext(ServiceName, Version,
		logger.WithEnv(cfg.Env),
		logger.WithFile(cfg.Log),
	)

	// Set as default logger so slog.Info() uses the configured handler
	slog.SetDefault(slogLogger)

	slogLogger.Info("initializing application", "env", cfg.Env, "commit", GitCommit, "built", BuildTime)

	tel, err := telemetry.Init(ctx, cfg.Telemetry, ServiceName, Version, slogLogger)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	m, err := metrics.New(ctx, ServiceName, slogLogger)
	if err != nil {
		tel.Shutdown(ctx)
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	if err := m.Health.RegisterServiceInfo(m.Meter(), ServiceName, Version, cfg.Env); err != nil {
		slogLogger.Warn("failed to register service info", "error", err)
	}

	dependencies := []string{health.DependencyDatabase}
	if cfg.NATS.URL != "" {
		dependencies = append(dependencies, dependencyNATS)
	}
	if err := m.Health.RegisterDependencies(m.Meter(), dependencies); err != nil {
		slogLogger.Warn("failed to register dependency metrics", "error", err)
	}

	// the migrator uses its own connection; for in-memory SQLite the pool must exist first
	database, err := db.New(cfg.Database)
	if err != nil {
		tel.Shutdown(ctx)
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.RunMigrations(cfg.Database); err != nil {
		db.Close(database)
		tel.Shutdown(ctx)
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slowQuery := time.Duration(cfg.Database.SlowQueryMillis) * time.Millisecond
	database.AddQueryHook(db.NewQueryHook(m.Database, slogLogger, slowQuery))
	if err := m.Database.RegisterDB(database.DB, m.Meter()); err != nil {
		slogLogger.Warn("failed to register database pool metrics", "error", err)
	}

	publisher := newPublisher(cfg, m.Events, slogLogger)

	repo := repository.New(database)
	service := ledger.NewService(repo, publisher, m, slogLogger)

	httpMetrics, err := middleware.NewHTTPMetrics(tel.Registry)
	if err != nil {
		publisher.Close()
		db.Close(database)
		tel.Shutdown(ctx)
		return nil, fmt.Errorf("register http metrics: %w", err)
	}

	router := mux.NewRouter()
	router.Use(httpMetrics.Middleware)

	health.NewHandler(database, m.Health, slogLogger).RegisterRoutes(router)
	router.Handle("/metrics", tel.Handler()).Methods(http.MethodGet)
	ledger.NewHandler(service, slogLogger).RegisterRoutes(router)

	app := &App{
		config:    cfg,
		router:    router,
		logger:    slogLogger,
		db:        database,
		telemetry: tel,
		metrics:   m,
		events:    publisher,
		service:   service,
	}

	slogLogger.Info("application initialized successfully")
	return app, nil
}

// newPublisher builds the configured event sinks. The ledger stays writable without a broker,
// so a sink that fails to connect is logged and skipped.
func newPublisher(cfg *config.Config, m *metrics.EventMetrics, logger *slog.Logger) events.Publisher {
	var sinks events.Multi

	if cfg.NATS.URL != "" {
		p, err := events.NewNATSPublisher(cfg.NATS, m, logger)
		if err != nil {
			logger.Warn("failed to initialize NATS publisher, sink disabled", "error", err)
		} else {
			sinks = append(sinks, p)
		}
	}

	if len(cfg.Kafka.Brokers) > 0 {
		p, err := events.NewKafkaPublisher(cfg.Kafka, m, logger)
		if err != nil {
			logger.Warn("failed to initialize kafka publisher, sink disabled", "error", err)
		} else {
			sinks = append(sinks, p)
		}
	}

	switch len(sinks) {
	case 0:
		return events.Nop{}
	case 1:
		return sinks[0]
	default:
		return sinks
	}
}

// Handler is the full middleware chain around the router.
// CORS sits outside the router so preflight requests never reach method matching.
func (a *App) Handler() http.Handler {
	return chi.Chain(
		chimw.RequestID,
		chimw.RealIP,
		middleware.RequestLogger(a.logger),
		chimw.Recoverer,
		middleware.CORS(a.config.Server.CORSOrigins),
	).Handler(a.router)
}

func (a *App) Service() ledger.Service {
	return a.service
}

func (a *App) Run() error {
	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%s", a.config.Server.Port),
		Handler:      a.Handler(),
		ReadTimeout:  time.Duration(a.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(a.config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(a.config.Server.IdleTimeout) * time.Second,
	}

	a.logger.Info("server starting", "port", a.config.Server.Port)
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// StartHealthChecks refreshes dependency gauges until ctx is done.
func (a *App) StartHealthChecks(ctx context.Context) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		a.checkDependencies(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (a *App) checkDependencies(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := a.db.PingContext(checkCtx)
	a.metrics.Health.RecordDependencyCheck(ctx, health.DependencyDatabase, time.Since(start), err)
	if err != nil {
		a.logger.Warn("dependency check failed", "dependency", health.DependencyDatabase, "error", err)
	}

	if p := natsPublisher(a.events); p != nil {
		start := time.Now()
		err := p.Ping(checkCtx)
		a.metrics.Health.RecordDependencyCheck(ctx, dependencyNATS, time.Since(start), err)
		if err != nil {
			a.logger.Warn("dependency check failed", "dependency", dependencyNATS, "error", err)
		}
	}
}

func natsPublisher(p events.Publisher) *events.NATSPublisher {
	switch p := p.(type) {
	case *events.NATSPublisher:
		return p
	case events.Multi:
		for _, sink := range p {
			if n, ok := sink.(*events.NATSPublisher); ok {
				return n
			}
		}
	}
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down server")

	var errs []error
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
		}
	}
	if err := a.events.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close event publisher: %w", err))
	}
	db.Close(a.db)
	if err := a.telemetry.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

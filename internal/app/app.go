package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Jlymoure25/regaltyecommerce/internal/catalog"
	"github.com/Jlymoure25/regaltyecommerce/internal/config"
	"github.com/Jlymoure25/regaltyecommerce/internal/event"
	handler "github.com/Jlymoure25/regaltyecommerce/internal/handler/http"
	"github.com/Jlymoure25/regaltyecommerce/internal/service"
	"github.com/Jlymoure25/regaltyecommerce/internal/store"
	"github.com/Jlymoure25/regaltyecommerce/pkg/health"
	"github.com/Jlymoure25/regaltyecommerce/pkg/httpclient"
	pkgkafka "github.com/Jlymoure25/regaltyecommerce/pkg/kafka"
	"github.com/Jlymoure25/regaltyecommerce/pkg/middleware"
	"github.com/Jlymoure25/regaltyecommerce/pkg/tracing"
)

const serviceName = "storefront"

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	producer       *pkgkafka.Producer
	rateLimiter    *middleware.RateLimiter
	tracerShutdown tracing.ShutdownFunc
	httpServer     *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		Insecure:       cfg.OTELInsecure,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Load the product catalog.
	cat, err := loadCatalog(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	logger.Info("catalog loaded",
		slog.Int("products", cat.Len()),
		slog.String("source", catalogSource(cfg)),
	)

	// Event publishing: Kafka when enabled, the log otherwise.
	var (
		producer *pkgkafka.Producer
		sender   event.Sender
	)
	if cfg.KafkaEnabled {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.Brokers()), logger)
		sender = producer
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.Brokers()))
	} else {
		sender = event.NewLogSender(logger)
		logger.Info("kafka disabled, events will be logged")
	}

	// Build the dependency graph.
	st := store.New()
	svc, err := service.NewStorefrontService(st, cat, event.NewProducer(sender, logger), logger)
	if err != nil {
		return nil, fmt.Errorf("create storefront service: %w", err)
	}

	// Health checks.
	healthHandler := health.NewHandler(serviceName)
	healthHandler.Register("catalog", func(context.Context) error {
		if cat.Len() == 0 {
			return errors.New("catalog is empty")
		}
		return nil
	})
	if producer != nil {
		healthHandler.Register("kafka", producer.Ping)
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, logger)
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins
	cors.Environment = cfg.Environment

	// HTTP router.
	router := handler.NewRouter(svc, healthHandler, logger, handler.RouterConfig{
		CORS:          cors,
		PprofCIDRs:    cfg.PprofAllowedCIDRs,
		CatalogMaxAge: cfg.CatalogCacheMaxAge,
		RateLimiter:   limiter,
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		producer:       producer,
		rateLimiter:    limiter,
		tracerShutdown: tracerShutdown,
		httpServer:     httpServer,
	}, nil
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	if a.rateLimiter != nil {
		go a.rateLimiter.Run(ctx)
	}

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in order: the HTTP server drains
// in-flight requests, then pending spans are flushed, then the Kafka producer
// is closed.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// loadCatalog reads the catalog from CATALOG_URL through a retrying,
// circuit-broken client, or from CATALOG_FILE, or from the embedded default.
func loadCatalog(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*catalog.Catalog, error) {
	if cfg.CatalogURL == "" {
		return catalog.Load(cfg.CatalogFile)
	}

	clientCfg := httpclient.DefaultConfig()
	clientCfg.MaxRetries = cfg.CatalogFetchRetries
	client := httpclient.NewCircuitBreakerClient(
		httpclient.New(clientCfg),
		httpclient.DefaultCircuitBreakerConfig("catalog-source"),
		logger,
	)
	return catalog.Fetch(ctx, client, cfg.CatalogURL)
}

func catalogSource(cfg *config.Config) string {
	switch {
	case cfg.CatalogURL != "":
		return cfg.CatalogURL
	case cfg.CatalogFile != "":
		return cfg.CatalogFile
	default:
		return "embedded"
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/sendrec/videogate/internal/audit"
	"github.com/sendrec/videogate/internal/catalog"
	"github.com/sendrec/videogate/internal/gate"
	"github.com/sendrec/videogate/internal/geoip"
	"github.com/sendrec/videogate/internal/pin"
	"github.com/sendrec/videogate/internal/ratelimit"
	"github.com/sendrec/videogate/internal/server"
	"github.com/sendrec/videogate/internal/session"
	"github.com/sendrec/videogate/internal/storage"
)

const (
	manifestFetchTimeout = 10 * time.Second
	sweepInterval        = 5 * time.Minute
	limiterIdle          = 10 * time.Minute
)

func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg)
		},
	}
}

type components struct {
	handler  http.Handler
	sessions *session.Manager
	limiter  *ratelimit.Limiter
	geo      *geoip.Resolver
}

func buildComponents(ctx context.Context, cfg Config, registry *prometheus.Registry) (*components, error) {
	var store *storage.Storage
	if cfg.S3Bucket != "" {
		s, err := storage.New(ctx, storage.Config{
			Endpoint:       cfg.S3Endpoint,
			PublicEndpoint: cfg.S3PublicEndpoint,
			Bucket:         cfg.S3Bucket,
			AccessKey:      cfg.S3AccessKey,
			SecretKey:      cfg.S3SecretKey,
			Region:         cfg.S3Region,
			Prefix:         cfg.S3Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("storage initialization failed: %w", err)
		}
		store = s
	}

	var source catalog.Source
	switch cfg.manifestSource() {
	case "url":
		source = catalog.NewHTTPSource(&http.Client{Timeout: manifestFetchTimeout}, cfg.ManifestURL)
	case "object":
		source = catalog.NewObjectSource(store, cfg.ManifestKey)
	default:
		source = catalog.NewFileSource(cfg.ManifestFile)
	}
	library := catalog.NewLibrary(source, "")

	checker, err := pin.NewChecker(pin.NewDeriver(cfg.MaxConcurrentChecks), cfg.PinHash)
	if err != nil {
		return nil, err
	}

	var metrics *gate.Metrics
	if registry != nil {
		metrics = gate.NewMetrics(registry)
	}

	pool := gate.NewPool(cfg.gateConfig(), gate.Deps{
		Verifier: checker,
		Library:  library,
		Metrics:  metrics,
		Logger:   slog.Default(),
	})

	sessions := session.NewManager(session.Config{
		Secret:        cfg.SessionSecret,
		SecureCookies: strings.HasPrefix(cfg.BaseURL, "https://"),
		IdleTTL:       cfg.SessionIdleTTL,
	})
	sessions.OnEvict(pool.Forget)

	geo := geoip.New(cfg.GeoIPDBPath)
	limiter := ratelimit.NewLimiter(cfg.UnlockRate, cfg.UnlockBurst, audit.ClientIP)

	srvCfg := server.Config{
		BaseURL:       cfg.BaseURL,
		DefaultLang:   cfg.defaultLanguage(),
		Sessions:      sessions,
		Gate:          pool,
		Library:       library,
		Audit:         audit.NewRecorder(slog.Default(), geo),
		MediaDir:      cfg.MediaDir,
		UnlockLimiter: limiter,
	}
	if registry != nil {
		srvCfg.Gatherer = registry
	}
	if store != nil {
		srvCfg.Media = store
		srvCfg.Pinger = store
		srvCfg.StorageEndpoint = cfg.S3PublicEndpoint
		if srvCfg.StorageEndpoint == "" {
			srvCfg.StorageEndpoint = cfg.S3Endpoint
		}
	}

	return &components{
		handler:  server.New(srvCfg),
		sessions: sessions,
		limiter:  limiter,
		geo:      geo,
	}, nil
}

func runServer(ctx context.Context, cfg Config) error {
	var registry *prometheus.Registry
	if cfg.MetricsEnabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	c, err := buildComponents(initCtx, cfg, registry)
	if err != nil {
		return err
	}
	defer func() { _ = c.geo.Close() }()

	c.sessions.StartSweeper(ctx, sweepInterval)
	c.limiter.StartCleanup(ctx, sweepInterval, limiterIdle)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           c.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("videogate listening", "port", cfg.Port, "manifest", cfg.manifestSource())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down...")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	slog.Info("shutdown complete")
	return nil
}

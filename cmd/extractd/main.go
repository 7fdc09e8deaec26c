package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/celerix-dev/celerix-extract/internal/api"
	"github.com/celerix-dev/celerix-extract/internal/config"
	"github.com/celerix-dev/celerix-extract/internal/engine"
	"github.com/celerix-dev/celerix-extract/internal/logger"
	"github.com/celerix-dev/celerix-extract/internal/metrics"
	"github.com/celerix-dev/celerix-extract/internal/server"
	"github.com/celerix-dev/celerix-extract/internal/vault"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.FromEnv()
	slog.SetDefault(logger.New(os.Stdout, cfg.LogLevel, cfg.LogFormat))
	slog.Info("starting extract daemon", "data_dir", cfg.DataDir)

	// 1. Load the table layout
	l, err := cfg.Layout()
	if err != nil {
		log.Fatalf("Failed to load layout: %v", err)
	}

	// 2. Initialize Persistence
	persister, err := engine.NewPersistence(cfg.DataDir)
	if err != nil {
		log.Fatalf("Failed to initialize persistence: %v", err)
	}

	// 3. Load the job history
	jobs, err := persister.LoadAll()
	if err != nil {
		slog.Warn("could not load job history", "error", err)
	}
	store := engine.NewMemStore(jobs, persister)
	slog.Info("job history loaded", "jobs", len(jobs))

	// 4. Initialize the TCP Router
	router := server.NewRouter()

	// 5. Setup TLS
	if !cfg.DisableTLS {
		cert, err := vault.GenerateSelfSignedCert()
		if err != nil {
			log.Fatalf("Failed to generate TLS certificate: %v", err)
		}
		router.SetCertificate(cert)
		slog.Info("tls enabled for tcp listener")
	} else {
		slog.Info("tls disabled for tcp listener (EXTRACT_DISABLE_TLS=true)")
	}

	// 6. Initialize metrics and the HTTP API
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	h := &api.Handler{
		Store:          store,
		Persister:      persister,
		Layout:         l,
		CPF:            cfg.CPFOptions(),
		Metrics:        metrics.New(reg),
		MaxUploadBytes: cfg.MaxUploadBytes,
	}
	r := gin.Default()
	r.Use(api.CORS())
	h.Register(r)
	r.GET("/metrics", api.MetricsHandler(reg))

	httpServer := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 7. Start servers and wait for a shutdown signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("http api listening", "port", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		slog.Info("tcp validation listening", "port", cfg.TCPPort)
		return router.Listen(cfg.TCPPort)
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received, finalizing disk writes")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := httpServer.Shutdown(shutdownCtx)
		router.Stop()
		return err
	})

	err = g.Wait()
	store.Wait()
	if err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("persistence complete, exiting")
}

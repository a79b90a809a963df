package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/iudanet/annosync/internal/server"
	"github.com/iudanet/annosync/internal/server/broker"
	"github.com/iudanet/annosync/internal/server/handlers"
	"github.com/iudanet/annosync/internal/server/middleware"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	addr := flag.String("addr", ":8081", "Listen address")
	redisAddr := flag.String("redis", os.Getenv("REDIS_ADDR"), "Redis address for multi-instance fan-out (empty = single instance)")
	logJSON := flag.Bool("log-json", false, "Log in JSON format")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	logger := newLogger(*logJSON)

	if err := run(logger, *addr, *redisAddr); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, addr, redisAddr string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var hubBroker server.Broker
	if redisAddr != "" {
		rb, err := broker.NewRedis(ctx, redisAddr, logger)
		if err != nil {
			return fmt.Errorf("failed to create redis broker: %w", err)
		}
		defer rb.Close()
		hubBroker = rb
		logger.Info("multi-instance fan-out enabled", "redis", redisAddr)
	}

	hub := server.NewHub(logger, hubBroker)
	wsHandler := handlers.NewWSHandler(logger, hub)
	healthHandler := handlers.NewHealthHandler(logger, Version)

	router := mux.NewRouter()
	router.Use(
		mux.MiddlewareFunc(middleware.RecoveryMiddleware(logger)),
		mux.MiddlewareFunc(middleware.LoggingMiddleware(logger)),
	)
	router.HandleFunc("/ws", wsHandler.HandleWS).Methods(http.MethodGet)
	router.HandleFunc("/healthz", healthHandler.Health).Methods(http.MethodGet)

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("annotation sync hub listening", "addr", addr, "version", Version)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
	}
	return nil
}

func newLogger(jsonFormat bool) *slog.Logger {
	if jsonFormat {
		return slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func printVersion() {
	fmt.Printf("annosync hub\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}

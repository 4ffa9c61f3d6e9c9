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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/tendant/chi-demo/app"
	"github.com/tendant/simple-blog/pkg/simpleblog/api"
	"github.com/tendant/simple-blog/pkg/simpleblog/config"
)

func main() {
	configFile := flag.String("config", "", "optional YAML/JSON/TOML config file")
	flag.Parse()

	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()

	opts := []config.Option{}
	if *configFile != "" {
		opts = append(opts, config.WithFile(*configFile))
	}
	opts = append(opts, config.WithEnv())

	serverConfig, err := config.Load(opts...)
	if err != nil {
		slog.Error("Failed to load server configuration", "err", err)
		os.Exit(1)
	}

	logger := newLogger(serverConfig.Environment)
	slog.SetDefault(logger)

	ctx := context.Background()
	stores, err := serverConfig.BuildStores(ctx)
	if err != nil {
		slog.Error("Failed to open database", "database_type", serverConfig.DatabaseType, "err", err)
		os.Exit(1)
	}
	defer stores.Close()

	apiOptions, err := serverConfig.APIOptions(stores, logger)
	if err != nil {
		slog.Error("Failed to build service", "err", err)
		os.Exit(1)
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	app.RoutesHealthz(r)
	app.RoutesHealthzReady(r)
	api.Routes(r, apiOptions)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", serverConfig.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Simple Blog server starting",
			"port", serverConfig.Port,
			"env", serverConfig.Environment,
			"database_type", serverConfig.DatabaseType,
			"cascade_comments", serverConfig.CascadeComments)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "err", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "err", err)
	}

	slog.Info("Server exiting")
}

// newLogger uses colored text output in development and JSON elsewhere
func newLogger(environment string) *slog.Logger {
	if environment == "development" {
		return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
		}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

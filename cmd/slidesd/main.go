// slidesd serves slide sessions over HTTP.
//
// Usage:
//
//	slidesd -config config.yml [-addr :8080]
//
// Uploaded decks become sessions that clients drive stage by stage:
// extract, restore, authorize after an authorization pause, and download
// the text, picture and final PDFs. When DATABASE_URL is set every page
// transition is recorded in PostgreSQL.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/gardar/slidelayers/internal/app"
	"github.com/gardar/slidelayers/pkg/config"
	"github.com/gardar/slidelayers/pkg/server"
	"github.com/gardar/slidelayers/pkg/session"
)

func main() {
	configPath := flag.String("config", "", "Path to the config YAML file (defaults apply when omitted)")
	envPath := flag.String("env", ".env", "Path to a .env file with API keys (ignored if missing)")
	addr := flag.String("addr", "", "Listen address (overrides server.addr)")
	flag.Parse()

	log := logrus.StandardLogger()
	if err := run(log, *configPath, *envPath, *addr); err != nil {
		log.Fatalf("%v", err)
	}
}

// run serves until SIGINT or SIGTERM. Backends are closed after the
// server has shut down.
func run(log *logrus.Logger, configPath, envPath, addr string) error {
	if err := config.LoadEnv(envPath); err != nil {
		return fmt.Errorf("failed to load environment: %w", err)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Log.Apply(log); err != nil {
		return fmt.Errorf("invalid log config: %w", err)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	gin.SetMode(cfg.Server.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to set up backends: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.WithError(err).Warn("Failed to close backends")
		}
	}()

	srv := server.New(session.NewManager(a.Deps), server.Config{
		MaxUploadBytes: int64(cfg.Server.MaxUploadMB) << 20,
		Logger:         log,
	})
	httpServer := &http.Server{Addr: cfg.Server.Addr, Handler: srv.Handler()}

	shutdown := make(chan struct{})
	go func() {
		defer close(shutdown)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("Shutdown did not complete")
		}
	}()

	log.WithField("addr", cfg.Server.Addr).Info("Listening")
	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	<-shutdown
	return nil
}

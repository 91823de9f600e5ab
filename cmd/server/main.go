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
	"github.com/rs/zerolog"

	"github.com/youruser/beebot/internal/api"
	"github.com/youruser/beebot/internal/app"
	"github.com/youruser/beebot/internal/config"
	"github.com/youruser/beebot/internal/logging"
)

func main() {
	configPath := flag.String("config", "config.default.json", "default configuration")
	overridePath := flag.String("override", "config.json", "optional configuration merged over -config")
	flag.Parse()

	cfg, err := config.Load(*configPath, *overridePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logging:", err)
		os.Exit(2)
	}

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler, err := newHandler(ctx, cfg, log)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Bool("debug", cfg.HTTP.Debug).Msg("starting server")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newHandler loads the templates and returns the gin engine serving them.
func newHandler(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*gin.Engine, error) {
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	if !cfg.HTTP.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(logging.Middleware(log), logging.Recovery(log))
	api.NewServer(api.Options{
		Catalog:  a.Catalog,
		Renderer: a.Renderer,
		Fetcher:  a.Fetcher,
		Commands: a.Commands,
		Filters:  a.Filters,
		Logger:   log.With().Str("component", "api").Logger(),
		Debug:    cfg.HTTP.Debug,
	}).RegisterRoutes(r)
	return r, nil
}

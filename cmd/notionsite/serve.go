package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/eringen/notionsite"
	"github.com/eringen/notionsite/internal/logfields"
)

// ServeCmd runs the HTTP server until interrupted.
type ServeCmd struct {
	Addr      string `help:"Listen address, overrides the config" placeholder:":3000"`
	StaticDir string `help:"Directory served under /public" default:"public"`
	Dev       bool   `help:"Development mode: no canonical URLs, derived pages are logged"`
}

func (s *ServeCmd) Run(root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if s.Addr != "" {
		cfg.Addr = s.Addr
	}
	if s.Dev {
		cfg.Dev = true
	}

	app := notionsite.New(cfg, notionsite.ViewFuncs{}, notionsite.WithStaticDir(s.StaticDir))
	if err := app.Setup(); err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", logfields.Addr(app.Config.Addr), slog.String("site", app.Config.Site.Name), slog.Bool("dev", app.Config.Dev))
		errCh <- app.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		slog.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Echo.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"kml-eagle/config"
	"kml-eagle/internal/errors"
	"kml-eagle/internal/logs"
	"kml-eagle/internal/server"
)

// App struct holds the Wails application state
type App struct {
	ctx    context.Context
	server *server.Server
	url    string
	logger *slog.Logger
}

// NewApp starts the internal HTTP server before the window opens.
func NewApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	// the webview talks to a private loopback listener
	cfg.Server.Addr = "127.0.0.1:0"

	logger, err := logs.New(cfg.Log)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create logger")
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create server")
	}

	addr, err := srv.Start()
	if err != nil {
		return nil, errors.Wrap(err, "failed to start server")
	}

	app := &App{
		server: srv,
		url:    fmt.Sprintf("http://%s", addr),
		logger: logger.With("component", "desktop"),
	}
	app.logger.Info("internal HTTP server running", "url", app.url)
	return app, nil
}

// ServerURL returns the base URL of the internal API for the frontend.
func (a *App) ServerURL() string {
	return a.url
}

// startup is called when the app starts
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	go func() {
		runtime.WindowExecJS(ctx, fmt.Sprintf(`window.location.href = "%s"`, a.url))
	}()
}

// shutdown is called when the app closes
func (a *App) shutdown(ctx context.Context) {
	if a.server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("error shutting down server", "error", err)
	}
}

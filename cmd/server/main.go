package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"kml-eagle/config"
	"kml-eagle/internal/errors"
	"kml-eagle/internal/logs"
	"kml-eagle/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	logger, err := logs.New(cfg.Log)
	if err != nil {
		return errors.Wrap(err, "failed to create logger")
	}
	slog.SetDefault(logger)

	srv, err := server.New(cfg, logger)
	if err != nil {
		return errors.Wrap(err, "failed to create server")
	}

	actualAddr, err := srv.Start()
	if err != nil {
		return errors.Wrap(err, "failed to start server")
	}

	if os.Getenv("KMLEAGLE_OPEN_BROWSER") == "1" {
		go func() {
			time.Sleep(500 * time.Millisecond)
			url := fmt.Sprintf("http://%s", actualAddr)
			if err := openBrowser(url); err != nil {
				logger.Warn("could not open browser", "error", err)
			}
		}()
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	sig := <-shutdown
	logger.Info("starting graceful shutdown", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "could not gracefully shutdown the server")
	}

	logger.Info("server stopped")
	return nil
}

func openBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default: // linux, freebsd, etc.
		cmd = exec.Command("xdg-open", url)
	}

	return cmd.Start()
}

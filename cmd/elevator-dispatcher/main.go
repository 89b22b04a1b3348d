package main

import (
	"context"
	"embed"
	"errors"
	"flag"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-elevator-dispatcher/pkg/config"
	"go-elevator-dispatcher/pkg/elevator"
)

//go:embed static/*
var staticFiles embed.FS

func main() {
	configPath := flag.String("config", os.Getenv("ELEVATOR_CONFIG"), "path to YAML config file")
	envPath := flag.String("env", ".env", "path to dotenv file (ignored if missing)")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envPath)
	if err != nil {
		log.Fatal(err)
	}
	// Components capture slog.Default() when built, so set it first.
	slog.SetDefault(cfg.NewLogger(os.Stdout))

	ctrl := elevator.NewController(cfg.EngineOptions())
	if fleet := cfg.BootstrapFleet(); len(fleet) > 0 {
		floors, err := ctrl.ConfigureFleet(fleet)
		if err != nil {
			log.Fatal(err)
		}
		slog.Info("Bootstrap fleet configured", "elevators", len(fleet), "floors_serviced", floors)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engineDone := make(chan struct{})
	go func() {
		defer close(engineDone)
		if err := ctrl.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("Engine run error", "error", err)
		}
	}()

	// Serve static files from embedded filesystem
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		log.Fatal(err)
	}

	srv := NewServer(ctrl, cfg)
	addr := ":" + cfg.Port
	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv.Routes(http.FileServer(http.FS(staticFS))),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP shutdown error", "error", err)
		}
	}()

	slog.Info("Starting elevator dispatcher", "addr", addr)
	slog.Info("Open http://localhost:" + cfg.Port + " in your browser")

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	<-engineDone
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/giygas/cie10-api/config"
	"github.com/giygas/cie10-api/data"
	"github.com/giygas/cie10-api/health"
	"github.com/giygas/cie10-api/logging"
	"github.com/giygas/cie10-api/mappingloader"
	"github.com/giygas/cie10-api/scheduler"
	"github.com/giygas/cie10-api/server"
	"github.com/giygas/cie10-api/validation"
	"github.com/joho/godotenv"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	logging.InitLoggerFromConfig("logs", cfg)
	defer logging.Close()

	if err := run(cfg); err != nil {
		logging.Error("Server stopped with an error", "error", err)
		logging.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	dataContainer := data.NewDataContainer()
	dataContainer.SetServerStartTime(time.Now())

	validator := validation.NewDataValidator()
	loader := mappingloader.NewFileLoader(cfg.MappingFile)

	sched := scheduler.NewScheduler(dataContainer, loader, validator, cfg.ReloadTimes)
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	healthChecker := health.NewHealthChecker(dataContainer, cfg.ReloadTimes)
	srv := server.NewServer(cfg, dataContainer, validator, healthChecker)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// SIGHUP reloads the mapping file without a restart
	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	defer signal.Stop(reload)

	for {
		select {
		case <-reload:
			logging.Info("SIGHUP received, reloading mapping", "file", loader.Path())
			if err := sched.Reload(); err != nil && !errors.Is(err, scheduler.ErrUpdateInProgress) {
				logging.Error("Failed to reload mapping, keeping previous mapping", "error", err)
			}

		case err := <-errChan:
			return err

		case <-ctx.Done():
			logging.Info("Shutdown signal received")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("graceful shutdown failed: %w", err)
			}
			return <-errChan
		}
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/konkolorado/jellbrid/internal/api"
	"github.com/konkolorado/jellbrid/internal/config"
	"github.com/konkolorado/jellbrid/internal/controllers"
	"github.com/konkolorado/jellbrid/internal/models"
	"github.com/konkolorado/jellbrid/internal/scheduler"
	"github.com/konkolorado/jellbrid/internal/services/realdebrid"
	"github.com/konkolorado/jellbrid/internal/services/torrentio"
	"github.com/konkolorado/jellbrid/internal/utils"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Setup logger
	logger := utils.NewLogger(cfg.LogLevel)
	logger.Info("Starting Jellbrid")
	logger.WithField("config_dir", filepath.Dir(cfg.DatabaseFile)).Info("Configuration loaded")
	if cfg.DevMode {
		logger.Warn("Dev mode enabled, downloads will not be started")
	}

	// 3. Initialize database
	db, err := models.NewDatabase(cfg.DatabaseFile)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()
	logger.Info("Database initialized")

	// 4. Load blacklist
	blacklist, err := utils.LoadBlacklist(cfg.BlacklistFile)
	if err != nil {
		logger.WithError(err).Warn("Failed to load blacklist, continuing without it")
		blacklist = &utils.Blacklist{}
	} else {
		logger.Info("Blacklist loaded")
	}

	// 5. Initialize services
	rdClient, err := realdebrid.NewClient(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize real-debrid client: %w", err)
	}
	logger.Info("Real-Debrid client initialized")

	torrentioClient, err := torrentio.NewClient(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize torrentio client: %w", err)
	}
	logger.Info("Torrentio client initialized")

	downloader := realdebrid.NewDownloader(rdClient, rdClient, cfg.DevMode, logger)

	// 6. Initialize controllers
	downloadCtrl := controllers.NewDownloadController(db, downloader, torrentioClient, blacklist, logger)
	cleanupCtrl := controllers.NewCleanupController(db, rdClient, logger)
	logger.Info("Controllers initialized")

	// 7. Initialize scheduler
	sched := scheduler.NewScheduler(cleanupCtrl, cfg.CleanupIntervalMinutes, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	// 8. Initialize HTTP server
	server := api.NewServer(cfg, db, downloadCtrl, logger)

	// Start server in goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil {
			serverErrChan <- err
		}
	}()

	// 9. Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Jellbrid is running")

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		logger.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
		if err := server.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Error("Error during server shutdown")
		}
	}

	logger.Info("Jellbrid stopped")
	return nil
}

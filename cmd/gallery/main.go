package main

import (
	"log/slog"
	"os"

	"github.com/Oxyrus/gallery/internal/assets"
	"github.com/Oxyrus/gallery/internal/config"
	"github.com/Oxyrus/gallery/internal/gallery"
	"github.com/Oxyrus/gallery/internal/logging"
	"github.com/Oxyrus/gallery/internal/policy"
	"github.com/Oxyrus/gallery/internal/router"
	"github.com/Oxyrus/gallery/internal/storage/sqlite"
)

func main() {
	bootstrapLogger := logging.New(slog.LevelInfo)

	cfg, err := config.Load()
	if err != nil {
		bootstrapLogger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open sqlite database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close sqlite database", "error", err)
		}
	}()

	files, err := assets.New(assets.Options{
		Root:        cfg.AssetRoot,
		ImageWidth:  cfg.ImageWidth,
		ImageHeight: cfg.ImageHeight,
		ThumbWidth:  cfg.ThumbWidth,
		ThumbHeight: cfg.ThumbHeight,
	})
	if err != nil {
		logger.Error("failed to prepare asset directory", "root", cfg.AssetRoot, "error", err)
		os.Exit(1)
	}

	content := gallery.New(logger, store, policy.Default(), files, gallery.Options{
		AssetFolder:    cfg.AssetFolder,
		PerPage:        cfg.ImagesPerPage,
		MaxUploadFiles: cfg.MaxUploadFiles,
		ImageLinksTo:   cfg.ImageLinksTo,
		CacheSize:      cfg.CacheSize,
		CacheTTL:       cfg.CacheTTL,
	})

	logger.Info("starting server", "addr", cfg.Addr, "assets", cfg.AssetRoot)

	r := router.New(cfg, logger, store, content)

	if err := r.Run(cfg.Addr); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

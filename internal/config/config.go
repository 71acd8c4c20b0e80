package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr          string
	AdminPassword string
	DBPath        string
	LogLevel      slog.Level
	AdminCookie   string

	// AssetRoot is the directory on disk that holds uploaded files.
	AssetRoot string
	// AssetFolder is the top-level folder galleries are stored under.
	AssetFolder string

	ImagesPerPage  int
	MaxUploadFiles int
	ImageLinksTo   string

	ImageWidth  int
	ImageHeight int
	ThumbWidth  int
	ThumbHeight int

	CacheSize int
	CacheTTL  time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Addr:           getString("GALLERY_ADDR", ":8080"),
		AdminPassword:  strings.TrimSpace(os.Getenv("ADMIN_PASSWORD")),
		DBPath:         getString("GALLERY_DB_PATH", "data/gallery.db"),
		LogLevel:       getLogLevel("GALLERY_LOG_LEVEL", slog.LevelInfo),
		AdminCookie:    getString("GALLERY_ADMIN_COOKIE", "gallery_admin"),
		AssetRoot:      getString("GALLERY_ASSET_ROOT", "data/assets"),
		AssetFolder:    getString("GALLERY_ASSET_FOLDER", "Gallery"),
		ImagesPerPage:  getInt("GALLERY_IMAGES_PER_PAGE", 12),
		MaxUploadFiles: getInt("GALLERY_MAX_UPLOAD_FILES", 20),
		ImageLinksTo:   strings.ToLower(getString("GALLERY_IMAGE_LINKS_TO", "file")),
		ImageWidth:     getInt("GALLERY_IMAGE_WIDTH", 1200),
		ImageHeight:    getInt("GALLERY_IMAGE_HEIGHT", 900),
		ThumbWidth:     getInt("GALLERY_THUMB_WIDTH", 600),
		ThumbHeight:    getInt("GALLERY_THUMB_HEIGHT", 400),
		CacheSize:      getInt("GALLERY_CACHE_SIZE", 256),
		CacheTTL:       getDuration("GALLERY_CACHE_TTL", 5*time.Minute),
	}

	if cfg.AdminPassword == "" {
		return nil, fmt.Errorf("ADMIN_PASSWORD must be set")
	}

	if cfg.ImagesPerPage <= 0 {
		return nil, fmt.Errorf("GALLERY_IMAGES_PER_PAGE must be positive, got %d", cfg.ImagesPerPage)
	}

	if cfg.MaxUploadFiles <= 0 {
		return nil, fmt.Errorf("GALLERY_MAX_UPLOAD_FILES must be positive, got %d", cfg.MaxUploadFiles)
	}

	switch cfg.ImageLinksTo {
	case "file", "item":
	default:
		return nil, fmt.Errorf("GALLERY_IMAGE_LINKS_TO must be \"file\" or \"item\", got %q", cfg.ImageLinksTo)
	}

	return cfg, nil
}

func getString(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func getLogLevel(key string, fallback slog.Level) slog.Level {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch value {
	case "":
		return fallback
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return fallback
	}
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/Oxyrus/gallery/internal/storage"
)

// Store keeps galleries, albums, images and assets in one SQLite file.
type Store struct {
	db        *sql.DB
	galleries *galleryRepository
	albums    *albumRepository
	images    *imageRepository
	assets    *assetRepository
}

// Open creates the parent directory if needed, applies pragmas and the schema,
// and returns a Store backed by a single connection.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: path must not be empty")
	}

	if err := ensureDir(path); err != nil {
		return nil, fmt.Errorf("sqlite: ensure directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := configure(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := bootstrap(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{
		db:        db,
		galleries: &galleryRepository{db: db},
		albums:    &albumRepository{db: db},
		images:    &imageRepository{db: db},
		assets:    &assetRepository{db: db},
	}, nil
}

// Galleries returns the gallery repository.
func (s *Store) Galleries() storage.Galleries {
	return s.galleries
}

// Albums returns the album repository.
func (s *Store) Albums() storage.Albums {
	return s.albums
}

// Images returns the image repository.
func (s *Store) Images() storage.Images {
	return s.images
}

// Assets returns the asset repository.
func (s *Store) Assets() storage.Assets {
	return s.assets
}

// Ping is used by the health check.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func configure(db *sql.DB) error {
	stmts := []string{
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
		"PRAGMA journal_mode = WAL;",
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("sqlite: configure: %w", err)
		}
	}

	return nil
}

func bootstrap(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS galleries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			slug TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			show_image_counts INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS albums (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			gallery_id INTEGER NOT NULL,
			slug TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			cover_mode TEXT NOT NULL DEFAULT 'auto',
			sort_images_by TEXT NOT NULL DEFAULT 'order',
			image_links_to TEXT NOT NULL DEFAULT '',
			hide_album_date INTEGER NOT NULL DEFAULT 0,
			hide_image_date INTEGER NOT NULL DEFAULT 0,
			meta_image_id INTEGER,
			next_image_order INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			FOREIGN KEY(gallery_id) REFERENCES galleries(id) ON DELETE CASCADE,
			FOREIGN KEY(meta_image_id) REFERENCES assets(id) ON DELETE SET NULL
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_albums_gallery_slug ON albums(gallery_id, slug);`,
		`CREATE TABLE IF NOT EXISTS assets (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			folder TEXT NOT NULL,
			filename TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			width INTEGER NOT NULL DEFAULT 0,
			height INTEGER NOT NULL DEFAULT 0,
			taken_at DATETIME,
			pending_album_id INTEGER,
			created_at DATETIME NOT NULL,
			FOREIGN KEY(pending_album_id) REFERENCES albums(id) ON DELETE SET NULL
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_assets_folder_filename ON assets(folder, filename);`,
		`CREATE INDEX IF NOT EXISTS idx_assets_pending_album_id ON assets(pending_album_id);`,
		`CREATE TABLE IF NOT EXISTS images (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			album_id INTEGER NOT NULL,
			asset_id INTEGER NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			caption TEXT NOT NULL DEFAULT '',
			sort_order INTEGER NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			FOREIGN KEY(album_id) REFERENCES albums(id) ON DELETE CASCADE,
			FOREIGN KEY(asset_id) REFERENCES assets(id) ON DELETE CASCADE
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_images_album_order ON images(album_id, sort_order);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_images_album_asset ON images(album_id, asset_id);`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("sqlite: bootstrap: %w", err)
		}
	}

	return addImageOrderCounter(db)
}

// addImageOrderCounter brings databases created before albums tracked their
// next image position up to date, seeding the counter past every position
// already used.
func addImageOrderCounter(db *sql.DB) error {
	var present int
	err := db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('albums') WHERE name = 'next_image_order'`).Scan(&present)
	if err != nil {
		return fmt.Errorf("sqlite: bootstrap: %w", err)
	}
	if present > 0 {
		return nil
	}

	stmts := []string{
		`ALTER TABLE albums ADD COLUMN next_image_order INTEGER NOT NULL DEFAULT 1;`,
		`UPDATE albums SET next_image_order = (
			SELECT COALESCE(MAX(sort_order), 0) + 1 FROM images WHERE images.album_id = albums.id
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("sqlite: bootstrap: %w", err)
		}
	}
	return nil
}

var _ storage.Store = (*Store)(nil)

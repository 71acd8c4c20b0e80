package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Oxyrus/gallery/internal/storage"
)

const galleryColumns = `id, slug, title, description, show_image_counts, created_at, updated_at`

type galleryRepository struct {
	db *sql.DB
}

func (r *galleryRepository) Create(ctx context.Context, input storage.GalleryCreate) (storage.Gallery, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO galleries (slug, title, description, show_image_counts, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		input.Slug,
		input.Title,
		input.Description,
		input.ShowImageCounts,
		now,
		now,
	)
	if err != nil {
		return storage.Gallery{}, wrapWriteError("create gallery", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return storage.Gallery{}, fmt.Errorf("sqlite: create gallery: %w", err)
	}

	return r.GetByID(ctx, id)
}

func (r *galleryRepository) GetByID(ctx context.Context, id int64) (storage.Gallery, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+galleryColumns+` FROM galleries WHERE id = ?`, id)
	return scanGallery(row)
}

func (r *galleryRepository) GetBySlug(ctx context.Context, slug string) (storage.Gallery, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+galleryColumns+` FROM galleries WHERE slug = ?`, slug)
	return scanGallery(row)
}

func (r *galleryRepository) List(ctx context.Context) ([]storage.Gallery, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+galleryColumns+` FROM galleries ORDER BY title COLLATE NOCASE, id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list galleries: %w", err)
	}
	defer rows.Close()

	var result []storage.Gallery
	for rows.Next() {
		gallery, err := scanGallery(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, gallery)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list galleries: %w", err)
	}

	return result, nil
}

func (r *galleryRepository) Update(ctx context.Context, id int64, input storage.GalleryUpdate) (storage.Gallery, error) {
	setClauses := make([]string, 0, 4)
	args := make([]any, 0, 5)

	if input.Title != nil {
		setClauses = append(setClauses, "title = ?")
		args = append(args, *input.Title)
	}

	if input.Description != nil {
		setClauses = append(setClauses, "description = ?")
		args = append(args, *input.Description)
	}

	if input.ShowImageCounts != nil {
		setClauses = append(setClauses, "show_image_counts = ?")
		args = append(args, *input.ShowImageCounts)
	}

	if len(setClauses) == 0 {
		return r.GetByID(ctx, id)
	}

	setClauses = append(setClauses, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	query := fmt.Sprintf("UPDATE galleries SET %s WHERE id = ?", strings.Join(setClauses, ", "))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return storage.Gallery{}, wrapWriteError("update gallery", err)
	}

	if err := checkAffected("update gallery", res); err != nil {
		return storage.Gallery{}, err
	}

	return r.GetByID(ctx, id)
}

func (r *galleryRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM galleries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: delete gallery: %w", err)
	}
	return checkAffected("delete gallery", res)
}

func scanGallery(s rowScanner) (storage.Gallery, error) {
	var (
		gallery      storage.Gallery
		createdAtRaw time.Time
		updatedAtRaw time.Time
	)

	err := s.Scan(
		&gallery.ID,
		&gallery.Slug,
		&gallery.Title,
		&gallery.Description,
		&gallery.ShowImageCounts,
		&createdAtRaw,
		&updatedAtRaw,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Gallery{}, storage.ErrNotFound
		}
		return storage.Gallery{}, fmt.Errorf("sqlite: scan gallery: %w", err)
	}

	gallery.CreatedAt = createdAtRaw.UTC()
	gallery.UpdatedAt = updatedAtRaw.UTC()

	return gallery, nil
}

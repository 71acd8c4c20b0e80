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

const imageColumns = `id, album_id, asset_id, title, caption, sort_order, created_at, updated_at`

type imageRepository struct {
	db *sql.DB
}

// Create inserts an image at the end of its album. Positions come from a
// per-album counter that only moves forward, so a deleted image's position is
// never handed out again.
func (r *imageRepository) Create(ctx context.Context, input storage.ImageCreate) (storage.Image, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storage.Image{}, fmt.Errorf("sqlite: create image: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var next int
	err = tx.QueryRowContext(ctx, `
		UPDATE albums
		SET next_image_order = next_image_order + 1
		WHERE id = ?
		RETURNING next_image_order - 1`,
		input.AlbumID,
	).Scan(&next)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Image{}, storage.ErrNotFound
		}
		return storage.Image{}, fmt.Errorf("sqlite: create image: %w", err)
	}

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO images (album_id, asset_id, title, caption, sort_order, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		input.AlbumID,
		input.AssetID,
		input.Title,
		input.Caption,
		next,
		now,
		now,
	)
	if err != nil {
		return storage.Image{}, wrapWriteError("create image", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return storage.Image{}, fmt.Errorf("sqlite: create image: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return storage.Image{}, fmt.Errorf("sqlite: create image: %w", err)
	}

	return r.GetByID(ctx, id)
}

func (r *imageRepository) GetByID(ctx context.Context, id int64) (storage.Image, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+imageColumns+` FROM images WHERE id = ?`, id)
	return scanImage(row)
}

func (r *imageRepository) ListByAlbum(ctx context.Context, albumID int64) ([]storage.Image, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+imageColumns+`
		FROM images
		WHERE album_id = ?
		ORDER BY sort_order`,
		albumID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list images: %w", err)
	}
	defer rows.Close()

	var result []storage.Image
	for rows.Next() {
		image, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, image)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list images: %w", err)
	}

	return result, nil
}

// ExistsForAsset reports whether the album already holds an image wrapping
// the given asset.
func (r *imageRepository) ExistsForAsset(ctx context.Context, albumID, assetID int64) (bool, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, `
		SELECT 1
		FROM images
		WHERE album_id = ? AND asset_id = ?`,
		albumID,
		assetID,
	).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("sqlite: image exists for asset: %w", err)
	}
	return true, nil
}

func (r *imageRepository) Update(ctx context.Context, id int64, input storage.ImageUpdate) (storage.Image, error) {
	setClauses := make([]string, 0, 3)
	args := make([]any, 0, 4)

	if input.Title != nil {
		setClauses = append(setClauses, "title = ?")
		args = append(args, *input.Title)
	}

	if input.Caption != nil {
		setClauses = append(setClauses, "caption = ?")
		args = append(args, *input.Caption)
	}

	if len(setClauses) == 0 {
		return r.GetByID(ctx, id)
	}

	setClauses = append(setClauses, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	query := fmt.Sprintf("UPDATE images SET %s WHERE id = ?", strings.Join(setClauses, ", "))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return storage.Image{}, fmt.Errorf("sqlite: update image: %w", err)
	}

	if err := checkAffected("update image", res); err != nil {
		return storage.Image{}, err
	}

	return r.GetByID(ctx, id)
}

func (r *imageRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM images WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: delete image: %w", err)
	}
	return checkAffected("delete image", res)
}

func scanImage(s rowScanner) (storage.Image, error) {
	var (
		image        storage.Image
		createdAtRaw time.Time
		updatedAtRaw time.Time
	)

	err := s.Scan(
		&image.ID,
		&image.AlbumID,
		&image.AssetID,
		&image.Title,
		&image.Caption,
		&image.Order,
		&createdAtRaw,
		&updatedAtRaw,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Image{}, storage.ErrNotFound
		}
		return storage.Image{}, fmt.Errorf("sqlite: scan image: %w", err)
	}

	image.CreatedAt = createdAtRaw.UTC()
	image.UpdatedAt = updatedAtRaw.UTC()

	return image, nil
}

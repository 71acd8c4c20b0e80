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

const albumColumns = `id, gallery_id, slug, title, description, cover_mode, sort_images_by,
	image_links_to, hide_album_date, hide_image_date, meta_image_id, created_at, updated_at`

type albumRepository struct {
	db *sql.DB
}

func (r *albumRepository) Create(ctx context.Context, input storage.AlbumCreate) (storage.Album, error) {
	coverMode := input.CoverMode
	if coverMode == "" {
		coverMode = storage.CoverAuto
	}
	sortMode := input.SortImagesBy
	if sortMode == "" {
		sortMode = storage.SortOrder
	}

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO albums (gallery_id, slug, title, description, cover_mode, sort_images_by,
			image_links_to, hide_album_date, hide_image_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		input.GalleryID,
		input.Slug,
		input.Title,
		input.Description,
		string(coverMode),
		string(sortMode),
		input.ImageLinksTo,
		input.HideAlbumDate,
		input.HideImageDate,
		now,
		now,
	)
	if err != nil {
		return storage.Album{}, wrapWriteError("create album", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return storage.Album{}, fmt.Errorf("sqlite: create album: %w", err)
	}

	return r.GetByID(ctx, id)
}

func (r *albumRepository) GetByID(ctx context.Context, id int64) (storage.Album, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+albumColumns+` FROM albums WHERE id = ?`, id)
	return scanAlbum(row)
}

func (r *albumRepository) GetBySlug(ctx context.Context, galleryID int64, slug string) (storage.Album, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+albumColumns+`
		FROM albums
		WHERE gallery_id = ? AND slug = ?`,
		galleryID,
		slug,
	)
	return scanAlbum(row)
}

func (r *albumRepository) ListByGallery(ctx context.Context, galleryID int64) ([]storage.Album, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+albumColumns+`
		FROM albums
		WHERE gallery_id = ?
		ORDER BY id`,
		galleryID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list albums: %w", err)
	}
	defer rows.Close()

	var result []storage.Album
	for rows.Next() {
		album, err := scanAlbum(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, album)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list albums: %w", err)
	}

	return result, nil
}

func (r *albumRepository) Update(ctx context.Context, id int64, input storage.AlbumUpdate) (storage.Album, error) {
	setClauses := make([]string, 0, 8)
	args := make([]any, 0, 9)

	if input.Title != nil {
		setClauses = append(setClauses, "title = ?")
		args = append(args, *input.Title)
	}

	if input.Description != nil {
		setClauses = append(setClauses, "description = ?")
		args = append(args, *input.Description)
	}

	if input.CoverMode != nil {
		setClauses = append(setClauses, "cover_mode = ?")
		args = append(args, string(*input.CoverMode))
	}

	if input.SortImagesBy != nil {
		setClauses = append(setClauses, "sort_images_by = ?")
		args = append(args, string(*input.SortImagesBy))
	}

	if input.ImageLinksTo != nil {
		setClauses = append(setClauses, "image_links_to = ?")
		args = append(args, *input.ImageLinksTo)
	}

	if input.HideAlbumDate != nil {
		setClauses = append(setClauses, "hide_album_date = ?")
		args = append(args, *input.HideAlbumDate)
	}

	if input.HideImageDate != nil {
		setClauses = append(setClauses, "hide_image_date = ?")
		args = append(args, *input.HideImageDate)
	}

	if len(setClauses) == 0 {
		return r.GetByID(ctx, id)
	}

	setClauses = append(setClauses, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	query := fmt.Sprintf("UPDATE albums SET %s WHERE id = ?", strings.Join(setClauses, ", "))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return storage.Album{}, wrapWriteError("update album", err)
	}

	if err := checkAffected("update album", res); err != nil {
		return storage.Album{}, err
	}

	return r.GetByID(ctx, id)
}

func (r *albumRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM albums WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: delete album: %w", err)
	}
	return checkAffected("delete album", res)
}

// SetMetaImage makes assetID the explicit cover of the album. The asset must be
// wrapped by one of the album's images.
func (r *albumRepository) SetMetaImage(ctx context.Context, albumID, assetID int64) error {
	var exists int
	err := r.db.QueryRowContext(ctx, `
		SELECT 1
		FROM images
		WHERE asset_id = ? AND album_id = ?`,
		assetID,
		albumID,
	).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("sqlite: set meta image: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE albums
		SET meta_image_id = ?, updated_at = ?
		WHERE id = ?`,
		assetID,
		time.Now().UTC(),
		albumID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: set meta image: %w", err)
	}

	return checkAffected("set meta image", res)
}

func (r *albumRepository) ClearMetaImage(ctx context.Context, albumID int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE albums
		SET meta_image_id = NULL, updated_at = ?
		WHERE id = ?`,
		time.Now().UTC(),
		albumID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: clear meta image: %w", err)
	}

	return checkAffected("clear meta image", res)
}

func scanAlbum(s rowScanner) (storage.Album, error) {
	var (
		album        storage.Album
		coverMode    string
		sortMode     string
		metaImageID  sql.NullInt64
		createdAtRaw time.Time
		updatedAtRaw time.Time
	)

	err := s.Scan(
		&album.ID,
		&album.GalleryID,
		&album.Slug,
		&album.Title,
		&album.Description,
		&coverMode,
		&sortMode,
		&album.ImageLinksTo,
		&album.HideAlbumDate,
		&album.HideImageDate,
		&metaImageID,
		&createdAtRaw,
		&updatedAtRaw,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Album{}, storage.ErrNotFound
		}
		return storage.Album{}, fmt.Errorf("sqlite: scan album: %w", err)
	}

	album.CoverMode = storage.CoverMode(coverMode)
	album.SortImagesBy = storage.SortMode(sortMode)

	if metaImageID.Valid {
		v := metaImageID.Int64
		album.MetaImageID = &v
	}

	album.CreatedAt = createdAtRaw.UTC()
	album.UpdatedAt = updatedAtRaw.UTC()

	return album, nil
}

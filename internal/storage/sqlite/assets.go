package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Oxyrus/gallery/internal/storage"
)

const assetColumns = `a.id, a.folder, a.filename, a.title, a.width, a.height, a.taken_at, a.pending_album_id, a.created_at`

type assetRepository struct {
	db *sql.DB
}

func (r *assetRepository) Create(ctx context.Context, input storage.AssetCreate) (storage.Asset, error) {
	var takenAt sql.NullTime
	if input.TakenAt != nil {
		takenAt = sql.NullTime{Time: input.TakenAt.UTC(), Valid: true}
	}

	var pending sql.NullInt64
	if input.PendingAlbumID != nil {
		pending = sql.NullInt64{Int64: *input.PendingAlbumID, Valid: true}
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO assets (folder, filename, title, width, height, taken_at, pending_album_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		input.Folder,
		input.Filename,
		input.Title,
		input.Width,
		input.Height,
		takenAt,
		pending,
		time.Now().UTC(),
	)
	if err != nil {
		return storage.Asset{}, wrapWriteError("create asset", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return storage.Asset{}, fmt.Errorf("sqlite: create asset: %w", err)
	}

	return r.GetByID(ctx, id)
}

func (r *assetRepository) GetByID(ctx context.Context, id int64) (storage.Asset, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM assets a WHERE a.id = ?`, id)
	return scanAsset(row)
}

// ListByAlbum returns the assets wrapped by the album's images, in insertion
// order.
func (r *assetRepository) ListByAlbum(ctx context.Context, albumID int64) ([]storage.Asset, error) {
	return r.list(ctx, "list assets", `
		SELECT `+assetColumns+`
		FROM assets a
		JOIN images i ON i.asset_id = a.id
		WHERE i.album_id = ?
		ORDER BY i.sort_order`,
		albumID,
	)
}

// ListPending returns uploaded assets still waiting to become images of the
// album.
func (r *assetRepository) ListPending(ctx context.Context, albumID int64) ([]storage.Asset, error) {
	return r.list(ctx, "list pending assets", `
		SELECT `+assetColumns+`
		FROM assets a
		WHERE a.pending_album_id = ?
		ORDER BY a.id`,
		albumID,
	)
}

func (r *assetRepository) ClearPending(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE assets SET pending_album_id = NULL WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: clear pending asset: %w", err)
	}
	return checkAffected("clear pending asset", res)
}

func (r *assetRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM assets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: delete asset: %w", err)
	}
	return checkAffected("delete asset", res)
}

func (r *assetRepository) list(ctx context.Context, op, query string, args ...any) ([]storage.Asset, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: %s: %w", op, err)
	}
	defer rows.Close()

	var result []storage.Asset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, asset)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: %s: %w", op, err)
	}

	return result, nil
}

func scanAsset(s rowScanner) (storage.Asset, error) {
	var (
		asset        storage.Asset
		takenAtRaw   sql.NullTime
		pendingRaw   sql.NullInt64
		createdAtRaw time.Time
	)

	err := s.Scan(
		&asset.ID,
		&asset.Folder,
		&asset.Filename,
		&asset.Title,
		&asset.Width,
		&asset.Height,
		&takenAtRaw,
		&pendingRaw,
		&createdAtRaw,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Asset{}, storage.ErrNotFound
		}
		return storage.Asset{}, fmt.Errorf("sqlite: scan asset: %w", err)
	}

	if takenAtRaw.Valid {
		t := takenAtRaw.Time.UTC()
		asset.TakenAt = &t
	}

	if pendingRaw.Valid {
		v := pendingRaw.Int64
		asset.PendingAlbumID = &v
	}

	asset.CreatedAt = createdAtRaw.UTC()

	return asset, nil
}

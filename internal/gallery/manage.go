package gallery

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Oxyrus/gallery/internal/storage"
)

var assetsRemovedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "gallery_assets_removed_total",
	Help: "Stored pictures deleted together with their image, album or gallery.",
})

// ImageEdit carries the editable fields of an image.
type ImageEdit struct {
	Title   string
	Caption string
}

// Image returns one of the album's images. An image of another album is
// reported as storage.ErrNotFound.
func (s *Service) Image(ctx context.Context, album storage.Album, imageID int64) (storage.Image, error) {
	img, err := s.store.Images().GetByID(ctx, imageID)
	if err != nil {
		return storage.Image{}, err
	}
	if img.AlbumID != album.ID {
		return storage.Image{}, storage.ErrNotFound
	}
	return img, nil
}

// UpdateImage changes an image's title and caption. Its position is kept.
func (s *Service) UpdateImage(ctx context.Context, album storage.Album, imageID int64, edit ImageEdit) (storage.Image, error) {
	if _, err := s.Image(ctx, album, imageID); err != nil {
		return storage.Image{}, err
	}
	defer s.Forget(album.ID)

	img, err := s.store.Images().Update(ctx, imageID, storage.ImageUpdate{
		Title:   &edit.Title,
		Caption: &edit.Caption,
	})
	if err != nil {
		return storage.Image{}, fmt.Errorf("gallery: update image: %w", err)
	}
	return img, nil
}

// DeleteImage removes an image from its album along with the picture it
// wraps. Rows go first so no image ever points at a missing file; a file that
// cannot be removed afterwards is logged and left behind.
func (s *Service) DeleteImage(ctx context.Context, album storage.Album, imageID int64) error {
	img, err := s.Image(ctx, album, imageID)
	if err != nil {
		return err
	}
	defer s.Forget(album.ID)

	asset, err := s.store.Assets().GetByID(ctx, img.AssetID)
	found := err == nil
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("gallery: load asset: %w", err)
	}

	if err := s.store.Images().Delete(ctx, img.ID); err != nil {
		return fmt.Errorf("gallery: delete image: %w", err)
	}
	if found {
		s.removeAsset(ctx, asset)
	}

	s.logger.Info("image deleted", "albumID", album.ID, "imageID", img.ID, "assetID", img.AssetID)
	return nil
}

// DeleteAlbum removes an album, its images and every picture uploaded to it,
// including uploads still waiting to be turned into images.
func (s *Service) DeleteAlbum(ctx context.Context, album storage.Album) error {
	defer s.Forget(album.ID)

	wrapped, err := s.store.Assets().ListByAlbum(ctx, album.ID)
	if err != nil {
		return fmt.Errorf("gallery: list assets: %w", err)
	}
	pending, err := s.store.Assets().ListPending(ctx, album.ID)
	if err != nil {
		return fmt.Errorf("gallery: list pending assets: %w", err)
	}

	if err := s.store.Albums().Delete(ctx, album.ID); err != nil {
		return fmt.Errorf("gallery: delete album: %w", err)
	}

	for _, asset := range append(wrapped, pending...) {
		s.removeAsset(ctx, asset)
	}

	s.logger.Info("album deleted", "albumID", album.ID, "slug", album.Slug, "assets", len(wrapped)+len(pending))
	return nil
}

// DeleteGallery removes a gallery and all of its albums.
func (s *Service) DeleteGallery(ctx context.Context, g storage.Gallery) error {
	albums, err := s.store.Albums().ListByGallery(ctx, g.ID)
	if err != nil {
		return fmt.Errorf("gallery: list albums: %w", err)
	}
	for _, a := range albums {
		if err := s.DeleteAlbum(ctx, a); err != nil {
			return err
		}
	}

	if err := s.store.Galleries().Delete(ctx, g.ID); err != nil {
		return fmt.Errorf("gallery: delete gallery: %w", err)
	}

	s.logger.Info("gallery deleted", "galleryID", g.ID, "slug", g.Slug, "albums", len(albums))
	return nil
}

func (s *Service) removeAsset(ctx context.Context, asset storage.Asset) {
	if err := s.store.Assets().Delete(ctx, asset.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logger.Error("failed to delete asset row", "assetID", asset.ID, "error", err)
		return
	}
	if err := s.files.Remove(asset); err != nil {
		s.logger.Error("failed to remove asset files", "assetID", asset.ID, "folder", asset.Folder, "filename", asset.Filename, "error", err)
		return
	}
	assetsRemovedTotal.Inc()
}

package gallery

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Oxyrus/gallery/internal/assets"
	"github.com/Oxyrus/gallery/internal/storage"
)

// ErrTooManyFiles is returned when an upload batch exceeds the configured
// maximum.
var ErrTooManyFiles = errors.New("gallery: too many files in upload")

var (
	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gallery_uploads_total",
		Help: "Uploaded files by outcome.",
	}, []string{"result"})
	imagesReconciledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gallery_images_reconciled_total",
		Help: "Images created from pending uploads.",
	})
)

// Upload is a single file received from the editor.
type Upload struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// UploadResult reports which files were stored and which were skipped
// because they are not images.
type UploadResult struct {
	Saved    []storage.Asset
	Rejected []string
}

// Upload stores files in the album's folder as pending assets. Call Reconcile
// afterwards to turn them into images.
func (s *Service) Upload(ctx context.Context, g storage.Gallery, a storage.Album, files []Upload) (UploadResult, error) {
	if len(files) > s.opts.MaxUploadFiles {
		return UploadResult{}, fmt.Errorf("%w: %d > %d", ErrTooManyFiles, len(files), s.opts.MaxUploadFiles)
	}

	folder := s.Folder(g, a)
	var res UploadResult

	for _, f := range files {
		asset, err := s.saveOne(ctx, folder, a.ID, f)
		if err != nil {
			if errors.Is(err, assets.ErrUnsupportedFormat) {
				uploadsTotal.WithLabelValues("rejected").Inc()
				s.logger.Warn("upload rejected", "albumID", a.ID, "file", f.Name, "error", err)
				res.Rejected = append(res.Rejected, f.Name)
				continue
			}
			uploadsTotal.WithLabelValues("failed").Inc()
			return res, err
		}
		uploadsTotal.WithLabelValues("saved").Inc()
		res.Saved = append(res.Saved, asset)
	}

	s.logger.Info("upload stored", "albumID", a.ID, "folder", folder, "saved", len(res.Saved), "rejected", len(res.Rejected))
	return res, nil
}

func (s *Service) saveOne(ctx context.Context, folder string, albumID int64, f Upload) (storage.Asset, error) {
	rc, err := f.Open()
	if err != nil {
		return storage.Asset{}, fmt.Errorf("gallery: open %q: %w", f.Name, err)
	}
	defer rc.Close()

	stored, err := s.files.Save(ctx, folder, f.Name, rc)
	if err != nil {
		return storage.Asset{}, err
	}

	pending := albumID
	asset, err := s.store.Assets().Create(ctx, storage.AssetCreate{
		Folder:         stored.Folder,
		Filename:       stored.Filename,
		Title:          assets.TitleFromFilename(f.Name),
		Width:          stored.Width,
		Height:         stored.Height,
		TakenAt:        stored.TakenAt,
		PendingAlbumID: &pending,
	})
	if err != nil {
		if rmErr := s.files.Remove(storage.Asset{Folder: stored.Folder, Filename: stored.Filename}); rmErr != nil {
			s.logger.Error("failed to remove orphaned file", "folder", stored.Folder, "filename", stored.Filename, "error", rmErr)
		}
		return storage.Asset{}, fmt.Errorf("gallery: record asset: %w", err)
	}
	return asset, nil
}

// Reconcile creates an image for every pending asset of the album that is not
// already wrapped by one, then clears the pending marks. Running it again
// creates nothing new. It returns the number of images created.
func (s *Service) Reconcile(ctx context.Context, a storage.Album) (int, error) {
	pending, err := s.store.Assets().ListPending(ctx, a.ID)
	if err != nil {
		return 0, fmt.Errorf("gallery: list pending: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}
	defer s.Forget(a.ID)

	created := 0
	for _, asset := range pending {
		exists, err := s.store.Images().ExistsForAsset(ctx, a.ID, asset.ID)
		if err != nil {
			return created, fmt.Errorf("gallery: check image for asset %d: %w", asset.ID, err)
		}
		if !exists {
			_, err := s.store.Images().Create(ctx, storage.ImageCreate{
				AlbumID: a.ID,
				AssetID: asset.ID,
				Title:   asset.Title,
			})
			switch {
			case err == nil:
				created++
				imagesReconciledTotal.Inc()
			case errors.Is(err, storage.ErrConflict):
				// another request wrapped it first
			default:
				return created, fmt.Errorf("gallery: create image for asset %d: %w", asset.ID, err)
			}
		}

		if err := s.store.Assets().ClearPending(ctx, asset.ID); err != nil {
			return created, fmt.Errorf("gallery: clear pending %d: %w", asset.ID, err)
		}
	}

	s.logger.Info("album reconciled", "albumID", a.ID, "pending", len(pending), "created", created)
	return created, nil
}

// Package gallery assembles the pages a visitor sees from stored content and
// the album presentation policy, and turns editor uploads into album images.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Oxyrus/gallery/internal/assets"
	"github.com/Oxyrus/gallery/internal/policy"
	"github.com/Oxyrus/gallery/internal/storage"
)

// Files is the subset of the asset store the service relies on.
type Files interface {
	Save(ctx context.Context, folder, name string, r io.Reader) (assets.Stored, error)
	Exists(asset storage.Asset) bool
	Remove(asset storage.Asset) error
	URL(asset storage.Asset) string
	ThumbURL(asset storage.Asset) string
}

type Options struct {
	// AssetFolder is the top-level folder uploads are filed under.
	AssetFolder    string
	PerPage        int
	MaxUploadFiles int
	// ImageLinksTo is used for albums that do not choose a link target.
	ImageLinksTo string
	CacheSize    int
	CacheTTL     time.Duration
}

type Service struct {
	logger *slog.Logger
	store  storage.Store
	policy *policy.Policy
	files  Files
	opts   Options
	cache  *snapshotCache
}

func New(logger *slog.Logger, store storage.Store, p *policy.Policy, files Files, opts Options) *Service {
	if p == nil {
		p = policy.Default()
	}
	if opts.AssetFolder == "" {
		opts.AssetFolder = "Gallery"
	}
	if opts.PerPage <= 0 {
		opts.PerPage = 12
	}
	if opts.MaxUploadFiles <= 0 {
		opts.MaxUploadFiles = 20
	}
	if opts.ImageLinksTo == "" {
		opts.ImageLinksTo = storage.LinkToFile
	}

	return &Service{
		logger: logger,
		store:  store,
		policy: p,
		files:  files,
		opts:   opts,
		cache:  newSnapshotCache(opts.CacheSize, opts.CacheTTL),
	}
}

// Snapshot returns the album's images and resolved meta image. Rows are
// cached per album until Forget is called or the entry expires; the meta
// image file is checked on every call.
func (s *Service) Snapshot(ctx context.Context, album storage.Album) (policy.Snapshot, error) {
	e, err := s.load(ctx, album)
	if err != nil {
		return policy.Snapshot{}, err
	}
	return policy.Snapshot{Album: album, Override: e.override, Images: e.images}, nil
}

// Forget drops the cached snapshot of an album. Call it after any change to
// the album's images or meta image.
func (s *Service) Forget(albumID int64) {
	s.cache.remove(albumID)
}

func (s *Service) load(ctx context.Context, album storage.Album) (entry, error) {
	e, ok := s.cache.get(album.ID)
	if !ok || e.metaFor != metaID(album) {
		var err error
		e, err = s.fetch(ctx, album)
		if err != nil {
			return entry{}, err
		}
		s.cache.set(album.ID, e)
	}

	e.override = nil
	if e.meta != nil {
		if s.files.Exists(*e.meta) {
			meta := *e.meta
			e.override = &meta
		} else {
			s.logger.Warn("meta image file missing", "albumID", album.ID, "assetID", e.meta.ID, "folder", e.meta.Folder, "filename", e.meta.Filename)
		}
	}
	return e, nil
}

func (s *Service) fetch(ctx context.Context, album storage.Album) (entry, error) {
	images, err := s.store.Images().ListByAlbum(ctx, album.ID)
	if err != nil {
		return entry{}, fmt.Errorf("gallery: list images: %w", err)
	}

	list, err := s.store.Assets().ListByAlbum(ctx, album.ID)
	if err != nil {
		return entry{}, fmt.Errorf("gallery: list assets: %w", err)
	}

	e := entry{
		images:  images,
		assets:  make(map[int64]storage.Asset, len(list)+1),
		metaFor: metaID(album),
	}
	for _, a := range list {
		e.assets[a.ID] = a
	}

	if album.MetaImageID != nil {
		meta, err := s.store.Assets().GetByID(ctx, *album.MetaImageID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
		case err != nil:
			return entry{}, fmt.Errorf("gallery: load meta image: %w", err)
		default:
			e.meta = &meta
			e.assets[meta.ID] = meta
		}
	}
	return e, nil
}

func metaID(album storage.Album) int64 {
	if album.MetaImageID == nil {
		return 0
	}
	return *album.MetaImageID
}

// lookup resolves a gallery and one of its albums by slug.
func (s *Service) lookup(ctx context.Context, gallerySlug, albumSlug string) (storage.Gallery, storage.Album, error) {
	g, err := s.store.Galleries().GetBySlug(ctx, gallerySlug)
	if err != nil {
		return storage.Gallery{}, storage.Album{}, err
	}
	a, err := s.store.Albums().GetBySlug(ctx, g.ID, albumSlug)
	if err != nil {
		return storage.Gallery{}, storage.Album{}, err
	}
	return g, a, nil
}

// Folder returns the folder uploads for the album are stored in.
func (s *Service) Folder(g storage.Gallery, a storage.Album) string {
	return assets.FolderFor(s.opts.AssetFolder, g, a)
}

func (s *Service) linksTo(album storage.Album) string {
	if album.ImageLinksTo != "" {
		return album.ImageLinksTo
	}
	return s.opts.ImageLinksTo
}

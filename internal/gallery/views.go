package gallery

import (
	"context"
	"fmt"
	"path"
	"strconv"

	"github.com/Oxyrus/gallery/internal/policy"
	"github.com/Oxyrus/gallery/internal/storage"
)

// AlbumSummary is one tile of a gallery page.
type AlbumSummary struct {
	Album      storage.Album
	Href       string
	CoverURL   string
	Count      int
	CountLabel string
	MetaTitle  string
	DateShown  bool
}

type GalleryPage struct {
	Gallery storage.Gallery
	Albums  []AlbumSummary
}

// ImageItem is one tile of an album page.
type ImageItem struct {
	Image    storage.Image
	Asset    storage.Asset
	Href     string
	ThumbURL string
}

type AlbumPage struct {
	Gallery    storage.Gallery
	Album      storage.Album
	Items      []ImageItem
	Count      int
	CountLabel string
	MetaTitle  string
	DateShown  bool
	CoverURL   string

	// Paginated is false when the album's order changes on every request.
	Paginated  bool
	Page       int
	TotalPages int
}

type ImagePage struct {
	Gallery     storage.Gallery
	Album       storage.Album
	Image       storage.Image
	Asset       storage.Asset
	FileURL     string
	AlbumHref   string
	PrevHref    string
	NextHref    string
	FooterShown bool
	DateShown   bool
	Position    int
	Count       int
}

// CoverChoice is an asset the editor may pin as an album's meta image.
type CoverChoice struct {
	ImageID  int64
	AssetID  int64
	Title    string
	ThumbURL string
	Selected bool
}

func GalleryHref(g storage.Gallery) string {
	return path.Join("/g", g.Slug)
}

func AlbumHref(g storage.Gallery, a storage.Album) string {
	return path.Join("/g", g.Slug, a.Slug)
}

func ImageHref(g storage.Gallery, a storage.Album, img storage.Image) string {
	return path.Join("/g", g.Slug, a.Slug, strconv.FormatInt(img.ID, 10))
}

// GalleryView lists a gallery's albums with their covers and counts.
func (s *Service) GalleryView(ctx context.Context, slug string) (GalleryPage, error) {
	g, err := s.store.Galleries().GetBySlug(ctx, slug)
	if err != nil {
		return GalleryPage{}, err
	}

	albums, err := s.store.Albums().ListByGallery(ctx, g.ID)
	if err != nil {
		return GalleryPage{}, fmt.Errorf("gallery: list albums: %w", err)
	}

	page := GalleryPage{Gallery: g, Albums: make([]AlbumSummary, 0, len(albums))}
	for _, a := range albums {
		e, err := s.load(ctx, a)
		if err != nil {
			return GalleryPage{}, err
		}
		snap := policy.Snapshot{Album: a, Override: e.override, Images: e.images}
		n := policy.ImageCount(snap)

		page.Albums = append(page.Albums, AlbumSummary{
			Album:      a,
			Href:       AlbumHref(g, a),
			CoverURL:   s.coverURL(snap, e),
			Count:      n,
			CountLabel: policy.NumberOfImages(n),
			MetaTitle:  policy.MetaTitle(g, a, n),
			DateShown:  policy.AlbumDateShown(a),
		})
	}
	return page, nil
}

// AlbumView returns one page of an album's images in display order. Pages
// start at 1; out-of-range pages are clamped.
func (s *Service) AlbumView(ctx context.Context, gallerySlug, albumSlug string, page int) (AlbumPage, error) {
	g, a, err := s.lookup(ctx, gallerySlug, albumSlug)
	if err != nil {
		return AlbumPage{}, err
	}

	e, err := s.load(ctx, a)
	if err != nil {
		return AlbumPage{}, err
	}
	snap := policy.Snapshot{Album: a, Override: e.override, Images: e.images}
	sorted := s.policy.SortedImages(snap)
	n := len(sorted)

	view := AlbumPage{
		Gallery:    g,
		Album:      a,
		Count:      n,
		CountLabel: policy.NumberOfImages(n),
		MetaTitle:  policy.MetaTitle(g, a, n),
		DateShown:  policy.AlbumDateShown(a),
		CoverURL:   s.coverURL(snap, e),
		Paginated:  policy.Paginate(a),
		Page:       1,
		TotalPages: 1,
	}

	visible := sorted
	if view.Paginated && n > s.opts.PerPage {
		view.TotalPages = (n + s.opts.PerPage - 1) / s.opts.PerPage
		view.Page = min(max(page, 1), view.TotalPages)
		start := (view.Page - 1) * s.opts.PerPage
		visible = sorted[start:min(start+s.opts.PerPage, n)]
	}

	file := s.linksTo(a) == storage.LinkToFile
	view.Items = make([]ImageItem, 0, len(visible))
	for _, img := range visible {
		asset, ok := e.assets[img.AssetID]
		if !ok {
			s.logger.Warn("image without asset", "imageID", img.ID, "assetID", img.AssetID)
			continue
		}
		item := ImageItem{
			Image:    img,
			Asset:    asset,
			ThumbURL: s.files.ThumbURL(asset),
			Href:     ImageHref(g, a, img),
		}
		if file {
			item.Href = s.files.URL(asset)
		}
		view.Items = append(view.Items, item)
	}
	return view, nil
}

// ImageView returns a single image with links to its circular neighbors. An
// image that belongs to another album is reported as storage.ErrNotFound.
func (s *Service) ImageView(ctx context.Context, gallerySlug, albumSlug string, imageID int64) (ImagePage, error) {
	g, a, err := s.lookup(ctx, gallerySlug, albumSlug)
	if err != nil {
		return ImagePage{}, err
	}

	e, err := s.load(ctx, a)
	if err != nil {
		return ImagePage{}, err
	}
	sorted := s.policy.SortedImages(policy.Snapshot{Album: a, Override: e.override, Images: e.images})

	prev, err := policy.Neighbor(sorted, imageID, policy.Prev)
	if err != nil {
		return ImagePage{}, err
	}
	next, err := policy.Neighbor(sorted, imageID, policy.Next)
	if err != nil {
		return ImagePage{}, err
	}

	var (
		img storage.Image
		pos int
	)
	for i, candidate := range sorted {
		if candidate.ID == imageID {
			img, pos = candidate, i+1
			break
		}
	}

	asset, ok := e.assets[img.AssetID]
	if !ok {
		return ImagePage{}, fmt.Errorf("gallery: asset %d of image %d: %w", img.AssetID, img.ID, storage.ErrNotFound)
	}

	return ImagePage{
		Gallery:     g,
		Album:       a,
		Image:       img,
		Asset:       asset,
		FileURL:     s.files.URL(asset),
		AlbumHref:   AlbumHref(g, a),
		PrevHref:    ImageHref(g, a, prev),
		NextHref:    ImageHref(g, a, next),
		FooterShown: policy.FooterShown(len(sorted)),
		DateShown:   policy.ImageDateShown(a),
		Position:    pos,
		Count:       len(sorted),
	}, nil
}

// CoverChoices lists the album's assets in insertion order for the meta
// image picker.
func (s *Service) CoverChoices(ctx context.Context, album storage.Album) ([]CoverChoice, error) {
	e, err := s.load(ctx, album)
	if err != nil {
		return nil, err
	}

	choices := make([]CoverChoice, 0, len(e.images))
	for _, img := range s.policy.SortedImages(policy.Snapshot{Album: storage.Album{SortImagesBy: storage.SortOrder}, Images: e.images}) {
		asset, ok := e.assets[img.AssetID]
		if !ok {
			continue
		}
		choices = append(choices, CoverChoice{
			ImageID:  img.ID,
			AssetID:  asset.ID,
			Title:    img.Title,
			ThumbURL: s.files.ThumbURL(asset),
			Selected: album.MetaImageID != nil && *album.MetaImageID == asset.ID,
		})
	}
	return choices, nil
}

func (s *Service) coverURL(snap policy.Snapshot, e entry) string {
	cover, ok := s.policy.CoverImage(snap)
	if !ok {
		return ""
	}
	asset, ok := e.assets[cover.AssetID]
	if !ok {
		return ""
	}
	return s.files.ThumbURL(asset)
}

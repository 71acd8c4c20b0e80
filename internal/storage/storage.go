package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates that the requested entity does not exist in the
// underlying storage.
var ErrNotFound = errors.New("storage: not found")

// ErrConflict indicates that a write collided with a uniqueness constraint,
// such as a duplicate slug.
var ErrConflict = errors.New("storage: conflict")

// Store exposes the persistence primitives required by the application. It is
// expected to be safe for concurrent use.
type Store interface {
	Galleries() Galleries
	Albums() Albums
	Images() Images
	Assets() Assets
	Ping(ctx context.Context) error
	Close() error
}

// CoverMode selects which image represents an album in listings.
type CoverMode string

const (
	CoverAuto   CoverMode = "auto"
	CoverFirst  CoverMode = "first"
	CoverLatest CoverMode = "latest"
	CoverRandom CoverMode = "random"
)

// Valid reports whether m is one of the known cover modes.
func (m CoverMode) Valid() bool {
	switch m {
	case CoverAuto, CoverFirst, CoverLatest, CoverRandom:
		return true
	}
	return false
}

// SortMode selects how an album's images are ordered.
type SortMode string

const (
	SortOrder  SortMode = "order"
	SortAlpha  SortMode = "alpha"
	SortLatest SortMode = "latest"
	SortRandom SortMode = "random"
)

// Valid reports whether m is one of the known sort modes.
func (m SortMode) Valid() bool {
	switch m {
	case SortOrder, SortAlpha, SortLatest, SortRandom:
		return true
	}
	return false
}

// Image link targets. An empty value defers to the configured default.
const (
	LinkToFile = "file"
	LinkToItem = "item"
)

// Gallery is the top-level container of albums.
type Gallery struct {
	ID              int64
	Slug            string
	Title           string
	Description     string
	ShowImageCounts bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// GalleryCreate captures the data required to create a new gallery.
type GalleryCreate struct {
	Slug            string
	Title           string
	Description     string
	ShowImageCounts bool
}

// GalleryUpdate describes the mutable fields for a gallery. A nil field
// indicates that no update should be applied for that attribute.
type GalleryUpdate struct {
	Title           *string
	Description     *string
	ShowImageCounts *bool
}

// Galleries defines the operations supported for managing galleries.
type Galleries interface {
	Create(ctx context.Context, input GalleryCreate) (Gallery, error)
	GetByID(ctx context.Context, id int64) (Gallery, error)
	GetBySlug(ctx context.Context, slug string) (Gallery, error)
	List(ctx context.Context) ([]Gallery, error)
	Update(ctx context.Context, id int64, input GalleryUpdate) (Gallery, error)
	Delete(ctx context.Context, id int64) error
}

// Album represents a collection of images within a gallery, along with the
// policy used to pick its cover and order its images.
type Album struct {
	ID            int64
	GalleryID     int64
	Slug          string
	Title         string
	Description   string
	CoverMode     CoverMode
	SortImagesBy  SortMode
	ImageLinksTo  string
	HideAlbumDate bool
	HideImageDate bool
	// MetaImageID is an editor-chosen asset that overrides the computed cover.
	MetaImageID *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AlbumCreate captures the data required to create a new album. Zero-valued
// modes fall back to CoverAuto and SortOrder.
type AlbumCreate struct {
	GalleryID     int64
	Slug          string
	Title         string
	Description   string
	CoverMode     CoverMode
	SortImagesBy  SortMode
	ImageLinksTo  string
	HideAlbumDate bool
	HideImageDate bool
}

// AlbumUpdate describes the mutable fields for an album. A nil field indicates
// that no update should be applied for that attribute.
type AlbumUpdate struct {
	Title         *string
	Description   *string
	CoverMode     *CoverMode
	SortImagesBy  *SortMode
	ImageLinksTo  *string
	HideAlbumDate *bool
	HideImageDate *bool
}

// Albums defines the operations supported for managing albums.
type Albums interface {
	Create(ctx context.Context, input AlbumCreate) (Album, error)
	GetByID(ctx context.Context, id int64) (Album, error)
	GetBySlug(ctx context.Context, galleryID int64, slug string) (Album, error)
	ListByGallery(ctx context.Context, galleryID int64) ([]Album, error)
	Update(ctx context.Context, id int64, input AlbumUpdate) (Album, error)
	Delete(ctx context.Context, id int64) error
	SetMetaImage(ctx context.Context, albumID, assetID int64) error
	ClearMetaImage(ctx context.Context, albumID int64) error
}

// Image is a single entry in an album. It wraps a stored asset; it is not the
// asset itself.
type Image struct {
	ID      int64
	AlbumID int64
	AssetID int64
	Title   string
	Caption string
	// Order is the insertion position within the album. It is assigned once
	// on creation and never changes.
	Order     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ImageCreate contains the data required to insert a new image.
type ImageCreate struct {
	AlbumID int64
	AssetID int64
	Title   string
	Caption string
}

// ImageUpdate describes the mutable fields for an image.
type ImageUpdate struct {
	Title   *string
	Caption *string
}

// Images defines the operations supported for managing images.
type Images interface {
	Create(ctx context.Context, input ImageCreate) (Image, error)
	GetByID(ctx context.Context, id int64) (Image, error)
	ListByAlbum(ctx context.Context, albumID int64) ([]Image, error)
	ExistsForAsset(ctx context.Context, albumID, assetID int64) (bool, error)
	Update(ctx context.Context, id int64, input ImageUpdate) (Image, error)
	Delete(ctx context.Context, id int64) error
}

// Asset is a picture file stored on disk.
type Asset struct {
	ID       int64
	Folder   string
	Filename string
	Title    string
	Width    int
	Height   int
	TakenAt  *time.Time
	// PendingAlbumID is set while an uploaded asset waits to be turned into
	// an image of that album.
	PendingAlbumID *int64
	CreatedAt      time.Time
}

// AssetCreate contains the data required to record a stored file.
type AssetCreate struct {
	Folder         string
	Filename       string
	Title          string
	Width          int
	Height         int
	TakenAt        *time.Time
	PendingAlbumID *int64
}

// Assets defines the operations supported for managing stored files.
type Assets interface {
	Create(ctx context.Context, input AssetCreate) (Asset, error)
	GetByID(ctx context.Context, id int64) (Asset, error)
	ListByAlbum(ctx context.Context, albumID int64) ([]Asset, error)
	ListPending(ctx context.Context, albumID int64) ([]Asset, error)
	ClearPending(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

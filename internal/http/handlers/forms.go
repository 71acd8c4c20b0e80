package handlers

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/Oxyrus/gallery/internal/gallery"
	"github.com/Oxyrus/gallery/internal/policy"
	"github.com/Oxyrus/gallery/internal/storage"
	"github.com/Oxyrus/gallery/web/pages"
)

// Content is the part of the gallery service the handlers depend on.
type Content interface {
	GalleryView(ctx context.Context, slug string) (gallery.GalleryPage, error)
	AlbumView(ctx context.Context, gallerySlug, albumSlug string, page int) (gallery.AlbumPage, error)
	ImageView(ctx context.Context, gallerySlug, albumSlug string, imageID int64) (gallery.ImagePage, error)
	CoverChoices(ctx context.Context, album storage.Album) ([]gallery.CoverChoice, error)
	Upload(ctx context.Context, g storage.Gallery, a storage.Album, files []gallery.Upload) (gallery.UploadResult, error)
	Reconcile(ctx context.Context, a storage.Album) (int, error)
	Image(ctx context.Context, album storage.Album, imageID int64) (storage.Image, error)
	UpdateImage(ctx context.Context, album storage.Album, imageID int64, edit gallery.ImageEdit) (storage.Image, error)
	DeleteImage(ctx context.Context, album storage.Album, imageID int64) error
	DeleteAlbum(ctx context.Context, album storage.Album) error
	DeleteGallery(ctx context.Context, g storage.Gallery) error
	Forget(albumID int64)
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

const slugError = "Slug may only contain letters, numbers, and hyphens."

// resolveSlug returns the slug to store for a new gallery or album. A manual
// slug must already be well formed; otherwise the title is slugified. The
// second result is a form error, empty when the slug is usable.
func resolveSlug(manual, title string) (string, string) {
	if manual != "" {
		if !slugPattern.MatchString(strings.ToLower(manual)) {
			return manual, slugError
		}
		return slugify(manual), ""
	}
	slug := slugify(title)
	if slug == "" {
		return "", slugError
	}
	return slug, ""
}

func slugify(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(value))

	prevHyphen := false

	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevHyphen = false
		case r >= 'A' && r <= 'Z':
			b.WriteRune(unicode.ToLower(r))
			prevHyphen = false
		default:
			if !prevHyphen && b.Len() > 0 {
				b.WriteRune('-')
				prevHyphen = true
			}
		}
	}

	return strings.Trim(b.String(), "-")
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("Jan 2, 2006 15:04 MST")
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("January 2, 2006")
}

func toOptions(in []policy.Option) []pages.Option {
	out := make([]pages.Option, 0, len(in))
	for _, o := range in {
		out = append(out, pages.Option{Value: o.Value, Label: o.Label})
	}
	return out
}

func checked(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "on", "true", "yes":
		return true
	}
	return false
}

package policy

import (
	"fmt"

	"github.com/Oxyrus/gallery/internal/storage"
)

// Option is a value/label pair for a select field.
type Option struct {
	Value string
	Label string
}

// NumberOfImages describes an image count, e.g. "1 image" or "12 images".
func NumberOfImages(n int) string {
	if n == 1 {
		return "1 image"
	}
	return fmt.Sprintf("%d images", n)
}

// MetaTitle is the album title, suffixed with its image count when the gallery
// shows counts.
func MetaTitle(gallery storage.Gallery, album storage.Album, n int) string {
	if gallery.ShowImageCounts {
		return fmt.Sprintf("%s (%d)", album.Title, n)
	}
	return album.Title
}

// FooterShown reports whether prev/next navigation is worth showing.
func FooterShown(n int) bool {
	return n > 1
}

func AlbumDateShown(album storage.Album) bool {
	return !album.HideAlbumDate
}

func ImageDateShown(album storage.Album) bool {
	return !album.HideImageDate
}

func CoverModeOptions() []Option {
	return []Option{
		{Value: string(storage.CoverAuto), Label: "Auto"},
		{Value: string(storage.CoverFirst), Label: "First"},
		{Value: string(storage.CoverLatest), Label: "Latest"},
		{Value: string(storage.CoverRandom), Label: "Random"},
	}
}

func SortModeOptions() []Option {
	return []Option{
		{Value: string(storage.SortOrder), Label: "Order"},
		{Value: string(storage.SortAlpha), Label: "Alpha"},
		{Value: string(storage.SortLatest), Label: "Latest"},
		{Value: string(storage.SortRandom), Label: "Random"},
	}
}

// ImageLinksToOptions lists link targets. The empty value defers to the
// configured default.
func ImageLinksToOptions() []Option {
	return []Option{
		{Value: "", Label: "(default)"},
		{Value: storage.LinkToFile, Label: "File"},
		{Value: storage.LinkToItem, Label: "Item"},
	}
}

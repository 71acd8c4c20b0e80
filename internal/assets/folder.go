package assets

import (
	"path"

	"github.com/Oxyrus/gallery/internal/storage"
)

// URL segments given to freshly created pages before an editor renames them.
// Files uploaded while a page still carries its default segment land in the
// parent folder instead of a throwaway one.
const (
	DefaultGallerySegment = "new-gallery"
	DefaultAlbumSegment   = "new-gallery-album"
)

// GalleryFolder returns the folder that holds a gallery's files, relative to
// the asset root.
func GalleryFolder(root string, gallery storage.Gallery) string {
	if gallery.Slug == "" || gallery.Slug == DefaultGallerySegment {
		return root
	}
	return path.Join(root, gallery.Slug)
}

// FolderFor returns the folder that holds an album's files.
func FolderFor(root string, gallery storage.Gallery, album storage.Album) string {
	parent := GalleryFolder(root, gallery)
	if album.Slug == "" || album.Slug == DefaultAlbumSegment {
		return parent
	}
	return path.Join(parent, album.Slug)
}

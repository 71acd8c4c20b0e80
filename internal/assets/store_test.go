package assets_test

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/Oxyrus/gallery/internal/assets"
	"github.com/Oxyrus/gallery/internal/storage"
)

func TestFolderFor(t *testing.T) {
	cases := []struct {
		name    string
		gallery string
		album   string
		want    string
	}{
		{"named gallery and album", "travel", "iceland", "Gallery/travel/iceland"},
		{"default album segment", "travel", assets.DefaultAlbumSegment, "Gallery/travel"},
		{"default gallery segment", assets.DefaultGallerySegment, "iceland", "Gallery/iceland"},
		{"both default", assets.DefaultGallerySegment, assets.DefaultAlbumSegment, "Gallery"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := assets.FolderFor("Gallery", storage.Gallery{Slug: tc.gallery}, storage.Album{Slug: tc.album})
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestTitleFromFilename(t *testing.T) {
	if got := assets.TitleFromFilename("summer_beach-01.jpg"); got != "summer beach 01" {
		t.Fatalf("unexpected title %q", got)
	}
	if got := assets.TitleFromFilename("IMG 0042.PNG"); got != "IMG 0042" {
		t.Fatalf("unexpected title %q", got)
	}
}

func TestSaveResizesAndWritesThumbnail(t *testing.T) {
	root := t.TempDir()
	store, err := assets.New(assets.Options{
		Root:        root,
		ImageWidth:  200,
		ImageHeight: 150,
		ThumbWidth:  60,
		ThumbHeight: 40,
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	stored, err := store.Save(context.Background(), "Gallery/travel/iceland", "glacier.png", pngBytes(t, 800, 400))
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	if stored.Folder != "Gallery/travel/iceland" {
		t.Fatalf("unexpected folder %q", stored.Folder)
	}
	if !strings.HasSuffix(stored.Filename, ".png") {
		t.Fatalf("expected png filename, got %q", stored.Filename)
	}
	if stored.Width != 200 || stored.Height != 100 {
		t.Fatalf("expected image to fit within 200x150 as 200x100, got %dx%d", stored.Width, stored.Height)
	}
	if stored.TakenAt != nil {
		t.Fatalf("expected no capture time for a png without EXIF")
	}

	asset := storage.Asset{Folder: stored.Folder, Filename: stored.Filename}
	if !store.Exists(asset) {
		t.Fatalf("expected stored file to exist")
	}

	thumbPath := filepath.Join(root, "Gallery", "travel", "iceland", "_thumbs", stored.Filename)
	thumb, err := imaging.Open(thumbPath)
	if err != nil {
		t.Fatalf("open thumbnail: %v", err)
	}
	if b := thumb.Bounds(); b.Dx() != 60 || b.Dy() != 40 {
		t.Fatalf("expected 60x40 thumbnail, got %dx%d", b.Dx(), b.Dy())
	}

	if got, want := store.URL(asset), "/assets/Gallery/travel/iceland/"+stored.Filename; got != want {
		t.Fatalf("expected URL %q, got %q", want, got)
	}
	if got, want := store.ThumbURL(asset), "/assets/Gallery/travel/iceland/_thumbs/"+stored.Filename; got != want {
		t.Fatalf("expected thumb URL %q, got %q", want, got)
	}

	if err := store.Remove(asset); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if store.Exists(asset) {
		t.Fatalf("expected file to be removed")
	}
	if _, err := os.Stat(thumbPath); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected thumbnail to be removed, got %v", err)
	}
	if err := store.Remove(asset); err != nil {
		t.Fatalf("second Remove should ignore missing files, got %v", err)
	}
}

func TestSaveDoesNotUpscale(t *testing.T) {
	store, err := assets.New(assets.Options{Root: t.TempDir(), ImageWidth: 1200, ImageHeight: 900})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	stored, err := store.Save(context.Background(), "Gallery", "small.png", pngBytes(t, 120, 80))
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if stored.Width != 120 || stored.Height != 80 {
		t.Fatalf("expected original 120x80, got %dx%d", stored.Width, stored.Height)
	}
}

func TestSaveRejectsUnsupportedFiles(t *testing.T) {
	store, err := assets.New(assets.Options{Root: t.TempDir()})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := context.Background()

	if _, err := store.Save(ctx, "Gallery", "notes.txt", strings.NewReader("hello")); !errors.Is(err, assets.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat for extension, got %v", err)
	}
	if _, err := store.Save(ctx, "Gallery", "broken.jpg", strings.NewReader("not a jpeg")); !errors.Is(err, assets.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat for undecodable data, got %v", err)
	}
	if _, err := store.Save(ctx, "../outside", "escape.png", pngBytes(t, 10, 10)); err == nil {
		t.Fatalf("expected error for folder escaping the root")
	}
}

func pngBytes(t *testing.T, w, h int) *bytes.Reader {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 40, G: 120, B: 200, A: 255})
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return bytes.NewReader(buf.Bytes())
}

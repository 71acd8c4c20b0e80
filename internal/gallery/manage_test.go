package gallery_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Oxyrus/gallery/internal/gallery"
	"github.com/Oxyrus/gallery/internal/storage"
)

func TestUpdateImageKeepsPosition(t *testing.T) {
	f := newFixture(t, gallery.Options{})
	images := f.addImages(t, "a.png", "b.png")
	ctx := context.Background()

	updated, err := f.svc.UpdateImage(ctx, f.a, images[1].ID, gallery.ImageEdit{Title: "Glacier lagoon", Caption: "Jökulsárlón at dawn"})
	if err != nil {
		t.Fatalf("UpdateImage returned error: %v", err)
	}
	if updated.Title != "Glacier lagoon" || updated.Caption != "Jökulsárlón at dawn" {
		t.Fatalf("unexpected image %+v", updated)
	}
	if updated.Order != images[1].Order {
		t.Fatalf("expected order %d to be kept, got %d", images[1].Order, updated.Order)
	}

	view, err := f.svc.ImageView(ctx, "travel", "iceland", images[1].ID)
	if err != nil {
		t.Fatalf("ImageView returned error: %v", err)
	}
	if view.Image.Title != "Glacier lagoon" {
		t.Fatalf("expected cached snapshot to be refreshed, got title %q", view.Image.Title)
	}
}

func TestDeleteImageRemovesAssetAndFiles(t *testing.T) {
	f := newFixture(t, gallery.Options{})
	images := f.addImages(t, "a.png", "b.png", "c.png")
	ctx := context.Background()

	doomed, err := f.store.Assets().GetByID(ctx, images[2].AssetID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if err := f.store.Albums().SetMetaImage(ctx, f.a.ID, doomed.ID); err != nil {
		t.Fatalf("SetMetaImage returned error: %v", err)
	}

	// Prime the cache so the delete has to drop it.
	if _, err := f.svc.Snapshot(ctx, f.a); err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}

	if err := f.svc.DeleteImage(ctx, f.a, images[2].ID); err != nil {
		t.Fatalf("DeleteImage returned error: %v", err)
	}

	if _, err := f.store.Images().GetByID(ctx, images[2].ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected image row to be gone, got %v", err)
	}
	if _, err := f.store.Assets().GetByID(ctx, doomed.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected asset row to be gone, got %v", err)
	}
	if f.files.Exists(doomed) {
		t.Fatalf("expected asset files to be removed")
	}

	a, err := f.store.Albums().GetByID(ctx, f.a.ID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if a.MetaImageID != nil {
		t.Fatalf("expected meta image to be cleared, got %d", *a.MetaImageID)
	}

	view, err := f.svc.AlbumView(ctx, "travel", "iceland", 1)
	if err != nil {
		t.Fatalf("AlbumView returned error: %v", err)
	}
	if view.Count != 2 {
		t.Fatalf("expected 2 images after delete, got %d", view.Count)
	}

	// The deleted image was the last one; its position is not reused.
	next := f.addImages(t, "d.png")
	if last := next[len(next)-1]; last.Order != 4 {
		t.Fatalf("expected new image at order 4, got %d", last.Order)
	}
}

func TestDeleteImageRejectsForeignImage(t *testing.T) {
	f := newFixture(t, gallery.Options{})
	images := f.addImages(t, "a.png")
	ctx := context.Background()

	other, err := f.store.Albums().Create(ctx, storage.AlbumCreate{GalleryID: f.g.ID, Slug: "faroe", Title: "Faroe"})
	if err != nil {
		t.Fatalf("create album: %v", err)
	}

	if err := f.svc.DeleteImage(ctx, other, images[0].ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := f.svc.UpdateImage(ctx, other, images[0].ID, gallery.ImageEdit{Title: "x"}); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from UpdateImage, got %v", err)
	}
	if _, err := f.store.Images().GetByID(ctx, images[0].ID); err != nil {
		t.Fatalf("expected image to survive, got %v", err)
	}
}

func TestDeleteAlbumRemovesEveryUpload(t *testing.T) {
	f := newFixture(t, gallery.Options{})
	f.addImages(t, "a.png", "b.png")
	ctx := context.Background()

	// One upload is left pending.
	res, err := f.svc.Upload(ctx, f.g, f.a, []gallery.Upload{pngUpload(t, "c.png")})
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	wrapped, err := f.store.Assets().ListByAlbum(ctx, f.a.ID)
	if err != nil {
		t.Fatalf("ListByAlbum returned error: %v", err)
	}
	all := append(wrapped, res.Saved...)

	if err := f.svc.DeleteAlbum(ctx, f.a); err != nil {
		t.Fatalf("DeleteAlbum returned error: %v", err)
	}

	if _, err := f.store.Albums().GetByID(ctx, f.a.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected album to be gone, got %v", err)
	}
	for _, asset := range all {
		if _, err := f.store.Assets().GetByID(ctx, asset.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("expected asset %d row to be gone, got %v", asset.ID, err)
		}
		if f.files.Exists(asset) {
			t.Fatalf("expected asset %d files to be removed", asset.ID)
		}
	}

	page, err := f.svc.GalleryView(ctx, "travel")
	if err != nil {
		t.Fatalf("GalleryView returned error: %v", err)
	}
	if len(page.Albums) != 0 {
		t.Fatalf("expected no albums, got %d", len(page.Albums))
	}
}

func TestDeleteGalleryRemovesAlbums(t *testing.T) {
	f := newFixture(t, gallery.Options{})
	images := f.addImages(t, "a.png")
	ctx := context.Background()

	asset, err := f.store.Assets().GetByID(ctx, images[0].AssetID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}

	if err := f.svc.DeleteGallery(ctx, f.g); err != nil {
		t.Fatalf("DeleteGallery returned error: %v", err)
	}

	if _, err := f.svc.GalleryView(ctx, "travel"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected gallery to be gone, got %v", err)
	}
	if f.files.Exists(asset) {
		t.Fatalf("expected album files to be removed")
	}
}

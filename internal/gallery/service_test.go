package gallery_test

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/Oxyrus/gallery/internal/assets"
	"github.com/Oxyrus/gallery/internal/gallery"
	"github.com/Oxyrus/gallery/internal/policy"
	"github.com/Oxyrus/gallery/internal/storage"
	"github.com/Oxyrus/gallery/internal/storage/sqlite"
)

type fixture struct {
	svc   *gallery.Service
	store storage.Store
	files *assets.Store
	g     storage.Gallery
	a     storage.Album
}

func newFixture(t *testing.T, opts gallery.Options) *fixture {
	t.Helper()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "gallery.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})

	files, err := assets.New(assets.Options{Root: t.TempDir(), ImageWidth: 100, ImageHeight: 100, ThumbWidth: 20, ThumbHeight: 20})
	if err != nil {
		t.Fatalf("assets.New: %v", err)
	}

	ctx := context.Background()
	g, err := store.Galleries().Create(ctx, storage.GalleryCreate{Slug: "travel", Title: "Travel", ShowImageCounts: true})
	if err != nil {
		t.Fatalf("create gallery: %v", err)
	}
	a, err := store.Albums().Create(ctx, storage.AlbumCreate{GalleryID: g.ID, Slug: "iceland", Title: "Iceland"})
	if err != nil {
		t.Fatalf("create album: %v", err)
	}

	svc := gallery.New(newTestLogger(), store, policy.Default(), files, opts)
	return &fixture{svc: svc, store: store, files: files, g: g, a: a}
}

// addImages uploads and reconciles the named pictures into the fixture album.
func (f *fixture) addImages(t *testing.T, names ...string) []storage.Image {
	t.Helper()
	ctx := context.Background()

	uploads := make([]gallery.Upload, 0, len(names))
	for _, name := range names {
		uploads = append(uploads, pngUpload(t, name))
	}
	if _, err := f.svc.Upload(ctx, f.g, f.a, uploads); err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	if _, err := f.svc.Reconcile(ctx, f.a); err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}

	images, err := f.store.Images().ListByAlbum(ctx, f.a.ID)
	if err != nil {
		t.Fatalf("ListByAlbum returned error: %v", err)
	}
	return images
}

func (f *fixture) updateAlbum(t *testing.T, input storage.AlbumUpdate) {
	t.Helper()
	updated, err := f.store.Albums().Update(context.Background(), f.a.ID, input)
	if err != nil {
		t.Fatalf("update album: %v", err)
	}
	f.a = updated
	f.svc.Forget(f.a.ID)
}

func TestUploadAndReconcile(t *testing.T) {
	f := newFixture(t, gallery.Options{})
	ctx := context.Background()

	res, err := f.svc.Upload(ctx, f.g, f.a, []gallery.Upload{
		pngUpload(t, "black_sand-beach.png"),
		{Name: "notes.txt", Open: func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader("hi")), nil }},
		pngUpload(t, "glacier.png"),
	})
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	if len(res.Saved) != 2 {
		t.Fatalf("expected 2 saved assets, got %d", len(res.Saved))
	}
	if len(res.Rejected) != 1 || res.Rejected[0] != "notes.txt" {
		t.Fatalf("expected notes.txt to be rejected, got %v", res.Rejected)
	}
	for _, asset := range res.Saved {
		if asset.Folder != "Gallery/travel/iceland" {
			t.Fatalf("unexpected folder %q", asset.Folder)
		}
		if asset.PendingAlbumID == nil || *asset.PendingAlbumID != f.a.ID {
			t.Fatalf("expected asset to be pending for album %d", f.a.ID)
		}
	}

	created, err := f.svc.Reconcile(ctx, f.a)
	if err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}
	if created != 2 {
		t.Fatalf("expected 2 images created, got %d", created)
	}

	again, err := f.svc.Reconcile(ctx, f.a)
	if err != nil {
		t.Fatalf("second Reconcile returned error: %v", err)
	}
	if again != 0 {
		t.Fatalf("expected second Reconcile to create nothing, got %d", again)
	}

	images, err := f.store.Images().ListByAlbum(ctx, f.a.ID)
	if err != nil {
		t.Fatalf("ListByAlbum returned error: %v", err)
	}
	if len(images) != 2 {
		t.Fatalf("expected 2 images, got %d", len(images))
	}
	if images[0].Title != "black sand beach" || images[0].Order != 1 {
		t.Fatalf("unexpected first image %+v", images[0])
	}
	if images[1].Title != "glacier" || images[1].Order != 2 {
		t.Fatalf("unexpected second image %+v", images[1])
	}

	pending, err := f.store.Assets().ListPending(ctx, f.a.ID)
	if err != nil {
		t.Fatalf("ListPending returned error: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending assets, got %d", len(pending))
	}
}

func TestReconcileSkipsAssetsAlreadyWrapped(t *testing.T) {
	f := newFixture(t, gallery.Options{})
	ctx := context.Background()

	res, err := f.svc.Upload(ctx, f.g, f.a, []gallery.Upload{pngUpload(t, "one.png")})
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}

	// An image exists but the pending mark was never cleared.
	if _, err := f.store.Images().Create(ctx, storage.ImageCreate{AlbumID: f.a.ID, AssetID: res.Saved[0].ID, Title: "one"}); err != nil {
		t.Fatalf("create image: %v", err)
	}

	created, err := f.svc.Reconcile(ctx, f.a)
	if err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}
	if created != 0 {
		t.Fatalf("expected no new images, got %d", created)
	}
	pending, err := f.store.Assets().ListPending(ctx, f.a.ID)
	if err != nil {
		t.Fatalf("ListPending returned error: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected pending mark to be cleared")
	}
}

func TestUploadRejectsTooManyFiles(t *testing.T) {
	f := newFixture(t, gallery.Options{MaxUploadFiles: 1})

	_, err := f.svc.Upload(context.Background(), f.g, f.a, []gallery.Upload{pngUpload(t, "a.png"), pngUpload(t, "b.png")})
	if !errors.Is(err, gallery.ErrTooManyFiles) {
		t.Fatalf("expected ErrTooManyFiles, got %v", err)
	}
}

func TestAlbumViewPaginates(t *testing.T) {
	f := newFixture(t, gallery.Options{PerPage: 2})
	f.addImages(t, "a.png", "b.png", "c.png")
	ctx := context.Background()

	view, err := f.svc.AlbumView(ctx, "travel", "iceland", 2)
	if err != nil {
		t.Fatalf("AlbumView returned error: %v", err)
	}
	if !view.Paginated || view.TotalPages != 2 || view.Page != 2 {
		t.Fatalf("unexpected pagination %+v", view)
	}
	if len(view.Items) != 1 || view.Items[0].Image.Title != "c" {
		t.Fatalf("expected only c on page 2, got %+v", view.Items)
	}
	if view.Count != 3 || view.CountLabel != "3 images" || view.MetaTitle != "Iceland (3)" {
		t.Fatalf("unexpected counts %d %q %q", view.Count, view.CountLabel, view.MetaTitle)
	}

	clamped, err := f.svc.AlbumView(ctx, "travel", "iceland", 9)
	if err != nil {
		t.Fatalf("AlbumView returned error: %v", err)
	}
	if clamped.Page != 2 {
		t.Fatalf("expected page to clamp to 2, got %d", clamped.Page)
	}
}

func TestAlbumViewRandomSortDisablesPagination(t *testing.T) {
	f := newFixture(t, gallery.Options{PerPage: 2})
	f.addImages(t, "a.png", "b.png", "c.png")

	random := storage.SortRandom
	f.updateAlbum(t, storage.AlbumUpdate{SortImagesBy: &random})

	view, err := f.svc.AlbumView(context.Background(), "travel", "iceland", 1)
	if err != nil {
		t.Fatalf("AlbumView returned error: %v", err)
	}
	if view.Paginated {
		t.Fatalf("expected pagination to be disabled")
	}
	if len(view.Items) != 3 || view.TotalPages != 1 {
		t.Fatalf("expected all 3 images on one page, got %d items over %d pages", len(view.Items), view.TotalPages)
	}
}

func TestAlbumViewLinkTargets(t *testing.T) {
	f := newFixture(t, gallery.Options{})
	images := f.addImages(t, "a.png")
	ctx := context.Background()

	view, err := f.svc.AlbumView(ctx, "travel", "iceland", 1)
	if err != nil {
		t.Fatalf("AlbumView returned error: %v", err)
	}
	if !strings.HasPrefix(view.Items[0].Href, "/assets/Gallery/travel/iceland/") {
		t.Fatalf("expected file link by default, got %q", view.Items[0].Href)
	}

	item := storage.LinkToItem
	f.updateAlbum(t, storage.AlbumUpdate{ImageLinksTo: &item})

	view, err = f.svc.AlbumView(ctx, "travel", "iceland", 1)
	if err != nil {
		t.Fatalf("AlbumView returned error: %v", err)
	}
	want := gallery.ImageHref(f.g, f.a, images[0])
	if view.Items[0].Href != want {
		t.Fatalf("expected item link %q, got %q", want, view.Items[0].Href)
	}
}

func TestImageViewNeighborsWrap(t *testing.T) {
	f := newFixture(t, gallery.Options{})
	images := f.addImages(t, "a.png", "b.png", "c.png")
	ctx := context.Background()

	view, err := f.svc.ImageView(ctx, "travel", "iceland", images[0].ID)
	if err != nil {
		t.Fatalf("ImageView returned error: %v", err)
	}
	if view.PrevHref != gallery.ImageHref(f.g, f.a, images[2]) {
		t.Fatalf("expected prev to wrap to last image, got %q", view.PrevHref)
	}
	if view.NextHref != gallery.ImageHref(f.g, f.a, images[1]) {
		t.Fatalf("expected next to be second image, got %q", view.NextHref)
	}
	if !view.FooterShown || view.Position != 1 || view.Count != 3 {
		t.Fatalf("unexpected footer state %+v", view)
	}
	if view.AlbumHref != "/g/travel/iceland" {
		t.Fatalf("unexpected album link %q", view.AlbumHref)
	}
}

func TestImageViewSingleImageHidesFooter(t *testing.T) {
	f := newFixture(t, gallery.Options{})
	images := f.addImages(t, "a.png")

	view, err := f.svc.ImageView(context.Background(), "travel", "iceland", images[0].ID)
	if err != nil {
		t.Fatalf("ImageView returned error: %v", err)
	}
	if view.FooterShown {
		t.Fatalf("expected footer hidden for a single image")
	}
	if view.PrevHref != view.NextHref {
		t.Fatalf("expected a single image to be its own neighbor")
	}
}

func TestImageViewRejectsForeignImage(t *testing.T) {
	f := newFixture(t, gallery.Options{})
	f.addImages(t, "a.png")
	ctx := context.Background()

	other, err := f.store.Albums().Create(ctx, storage.AlbumCreate{GalleryID: f.g.ID, Slug: "norway", Title: "Norway"})
	if err != nil {
		t.Fatalf("create album: %v", err)
	}
	res, err := f.svc.Upload(ctx, f.g, other, []gallery.Upload{pngUpload(t, "fjord.png")})
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	if _, err := f.svc.Reconcile(ctx, other); err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}
	foreign, err := f.store.Images().ListByAlbum(ctx, other.ID)
	if err != nil || len(foreign) != 1 {
		t.Fatalf("expected one image in other album, got %d (%v)", len(foreign), err)
	}
	if res.Saved[0].Folder != "Gallery/travel/norway" {
		t.Fatalf("unexpected folder %q", res.Saved[0].Folder)
	}

	_, err = f.svc.ImageView(ctx, "travel", "iceland", foreign[0].ID)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGalleryViewCoverOverride(t *testing.T) {
	f := newFixture(t, gallery.Options{})
	images := f.addImages(t, "a.png", "b.png")
	ctx := context.Background()

	assetsByID := map[int64]storage.Asset{}
	list, err := f.store.Assets().ListByAlbum(ctx, f.a.ID)
	if err != nil {
		t.Fatalf("ListByAlbum returned error: %v", err)
	}
	for _, a := range list {
		assetsByID[a.ID] = a
	}
	first := assetsByID[images[0].AssetID]
	second := assetsByID[images[1].AssetID]

	page, err := f.svc.GalleryView(ctx, "travel")
	if err != nil {
		t.Fatalf("GalleryView returned error: %v", err)
	}
	if len(page.Albums) != 1 {
		t.Fatalf("expected one album, got %d", len(page.Albums))
	}
	summary := page.Albums[0]
	if summary.CoverURL != f.files.ThumbURL(first) {
		t.Fatalf("expected first image as cover, got %q", summary.CoverURL)
	}
	if summary.MetaTitle != "Iceland (2)" || summary.CountLabel != "2 images" || summary.Href != "/g/travel/iceland" {
		t.Fatalf("unexpected summary %+v", summary)
	}

	if err := f.store.Albums().SetMetaImage(ctx, f.a.ID, second.ID); err != nil {
		t.Fatalf("SetMetaImage returned error: %v", err)
	}
	a, err := f.store.Albums().GetByID(ctx, f.a.ID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	f.a = a
	f.svc.Forget(f.a.ID)

	page, err = f.svc.GalleryView(ctx, "travel")
	if err != nil {
		t.Fatalf("GalleryView returned error: %v", err)
	}
	if page.Albums[0].CoverURL != f.files.ThumbURL(second) {
		t.Fatalf("expected override as cover, got %q", page.Albums[0].CoverURL)
	}

	// An override whose file is gone falls back to the first image.
	if err := f.files.Remove(second); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	f.svc.Forget(f.a.ID)

	page, err = f.svc.GalleryView(ctx, "travel")
	if err != nil {
		t.Fatalf("GalleryView returned error: %v", err)
	}
	if page.Albums[0].CoverURL != f.files.ThumbURL(first) {
		t.Fatalf("expected fallback to first image, got %q", page.Albums[0].CoverURL)
	}
}

func TestGalleryViewEmptyAlbumHasNoCover(t *testing.T) {
	f := newFixture(t, gallery.Options{})

	page, err := f.svc.GalleryView(context.Background(), "travel")
	if err != nil {
		t.Fatalf("GalleryView returned error: %v", err)
	}
	if page.Albums[0].CoverURL != "" {
		t.Fatalf("expected no cover, got %q", page.Albums[0].CoverURL)
	}
	if page.Albums[0].CountLabel != "0 images" {
		t.Fatalf("unexpected count label %q", page.Albums[0].CountLabel)
	}
}

func TestSnapshotIsCachedUntilForget(t *testing.T) {
	f := newFixture(t, gallery.Options{})
	f.addImages(t, "a.png")
	ctx := context.Background()

	snap, err := f.svc.Snapshot(ctx, f.a)
	if err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}
	if len(snap.Images) != 1 {
		t.Fatalf("expected 1 image, got %d", len(snap.Images))
	}

	asset, err := f.store.Assets().Create(ctx, storage.AssetCreate{Folder: "Gallery", Filename: "direct.png", Title: "direct"})
	if err != nil {
		t.Fatalf("create asset: %v", err)
	}
	if _, err := f.store.Images().Create(ctx, storage.ImageCreate{AlbumID: f.a.ID, AssetID: asset.ID, Title: "direct"}); err != nil {
		t.Fatalf("create image: %v", err)
	}

	snap, err = f.svc.Snapshot(ctx, f.a)
	if err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}
	if len(snap.Images) != 1 {
		t.Fatalf("expected cached snapshot with 1 image, got %d", len(snap.Images))
	}

	f.svc.Forget(f.a.ID)
	snap, err = f.svc.Snapshot(ctx, f.a)
	if err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}
	if len(snap.Images) != 2 {
		t.Fatalf("expected fresh snapshot with 2 images, got %d", len(snap.Images))
	}
}

func TestSnapshotDropsOverrideOnceFileIsGone(t *testing.T) {
	f := newFixture(t, gallery.Options{})
	images := f.addImages(t, "a.png", "b.png")
	ctx := context.Background()

	if err := f.store.Albums().SetMetaImage(ctx, f.a.ID, images[1].AssetID); err != nil {
		t.Fatalf("SetMetaImage returned error: %v", err)
	}
	a, err := f.store.Albums().GetByID(ctx, f.a.ID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	f.a = a
	f.svc.Forget(a.ID)

	snap, err := f.svc.Snapshot(ctx, f.a)
	if err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}
	if snap.Override == nil || snap.Override.ID != images[1].AssetID {
		t.Fatalf("expected override asset %d, got %+v", images[1].AssetID, snap.Override)
	}

	override, err := f.store.Assets().GetByID(ctx, images[1].AssetID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if err := f.files.Remove(override); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}

	// No Forget: the cached rows must not keep a missing file as the cover.
	snap, err = f.svc.Snapshot(ctx, f.a)
	if err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}
	if snap.Override != nil {
		t.Fatalf("expected no override after the file was removed, got asset %d", snap.Override.ID)
	}
	cover, ok := policy.Default().CoverImage(snap)
	if !ok || cover.AssetID != images[0].AssetID {
		t.Fatalf("expected first image as cover, got %+v (ok=%v)", cover, ok)
	}
}

func TestSnapshotFollowsMetaImageChangeWithoutForget(t *testing.T) {
	f := newFixture(t, gallery.Options{})
	images := f.addImages(t, "a.png", "b.png")
	ctx := context.Background()

	snap, err := f.svc.Snapshot(ctx, f.a)
	if err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}
	if snap.Override != nil {
		t.Fatalf("expected no override, got %+v", snap.Override)
	}

	if err := f.store.Albums().SetMetaImage(ctx, f.a.ID, images[1].AssetID); err != nil {
		t.Fatalf("SetMetaImage returned error: %v", err)
	}
	a, err := f.store.Albums().GetByID(ctx, f.a.ID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}

	snap, err = f.svc.Snapshot(ctx, a)
	if err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}
	if snap.Override == nil || snap.Override.ID != images[1].AssetID {
		t.Fatalf("expected override asset %d, got %+v", images[1].AssetID, snap.Override)
	}
}

func TestCoverChoicesMarkSelection(t *testing.T) {
	f := newFixture(t, gallery.Options{})
	images := f.addImages(t, "a.png", "b.png")
	ctx := context.Background()

	if err := f.store.Albums().SetMetaImage(ctx, f.a.ID, images[1].AssetID); err != nil {
		t.Fatalf("SetMetaImage returned error: %v", err)
	}
	a, err := f.store.Albums().GetByID(ctx, f.a.ID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	f.svc.Forget(a.ID)

	choices, err := f.svc.CoverChoices(ctx, a)
	if err != nil {
		t.Fatalf("CoverChoices returned error: %v", err)
	}
	if len(choices) != 2 {
		t.Fatalf("expected 2 choices, got %d", len(choices))
	}
	if choices[0].Selected || !choices[1].Selected {
		t.Fatalf("expected only the second choice selected, got %+v", choices)
	}
}

func pngUpload(t *testing.T, name string) gallery.Upload {
	t.Helper()
	img := imaging.New(40, 30, color.NRGBA{R: 200, G: 80, B: 10, A: 255})
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	data := buf.Bytes()
	return gallery.Upload{
		Name: name,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

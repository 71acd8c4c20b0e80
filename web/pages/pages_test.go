package pages

import (
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var sb strings.Builder
	if err := c.Render(context.Background(), &sb); err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	return sb.String()
}

func TestLayoutWrapsContent(t *testing.T) {
	body := render(t, Login("/admin/galleries"))
	for _, want := range []string{
		"<!doctype html>",
		"<title>Sign in</title>",
		`<main><h1>Sign in</h1>`,
		`name="next" value="/admin/galleries"`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in body, got %s", want, body)
		}
	}
	if !strings.HasSuffix(body, "</main></body></html>") {
		t.Fatalf("expected page to end with the layout chrome, got %s", body)
	}
}

func TestLoginOmitsEmptyNext(t *testing.T) {
	if body := render(t, Login("")); strings.Contains(body, `name="next"`) {
		t.Fatalf("expected no next field, got %s", body)
	}
}

func TestAlbumViewPager(t *testing.T) {
	body := render(t, AlbumView(AlbumViewData{
		Title:        "Iceland",
		CountLabel:   "12 images",
		Date:         "July 4, 2024",
		Page:         1,
		TotalPages:   2,
		NextPageHref: "?page=2",
	}))
	for _, want := range []string{
		"12 images &middot; July 4, 2024",
		"<span>Page 1 of 2</span>",
		`<a rel="next" href="?page=2">Next</a>`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in body, got %s", want, body)
		}
	}
	if strings.Contains(body, `rel="prev"`) {
		t.Fatalf("unexpected previous link on the first page: %s", body)
	}
}

func TestAlbumViewSinglePageHasNoPager(t *testing.T) {
	body := render(t, AlbumView(AlbumViewData{Title: "Iceland", CountLabel: "1 image", Page: 1, TotalPages: 1}))
	if strings.Contains(body, `class="pager"`) {
		t.Fatalf("expected no pager, got %s", body)
	}
	if strings.Contains(body, "&middot;") {
		t.Fatalf("expected no date separator without a date, got %s", body)
	}
}

func TestAlbumEditSections(t *testing.T) {
	body := render(t, AlbumEdit(AlbumForm{
		Heading:        "Edit album",
		Action:         "/admin/g/travel/iceland/edit",
		SubmitLabel:    "Save changes",
		Title:          "Iceland",
		Slug:           "iceland",
		UploadAction:   "/admin/g/travel/iceland/upload",
		CoverAction:    "/admin/g/travel/iceland/cover",
		DeleteAction:   "/admin/g/travel/iceland/delete",
		MaxUploadFiles: 20,
		CoverChoices:   []CoverChoice{{AssetID: "3", Title: "Skógafoss", ThumbURL: "/assets/t/3.jpg"}},
		Images:         []ImageRow{{Title: "Skógafoss", ThumbURL: "/assets/t/3.jpg", EditHref: "/admin/g/travel/iceland/images/9/edit"}},
		Errors:         map[string]string{"images": "Choose at least one image to upload."},
	}))
	for _, want := range []string{
		`<p class="meta">Slug: iceland</p>`,
		"Up to 20 files at a time.",
		`<p class="field-error">Choose at least one image to upload.</p>`,
		`name="asset_id" value="" checked> None`,
		`href="/admin/g/travel/iceland/images/9/edit"`,
		`action="/admin/g/travel/iceland/delete"`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in body, got %s", want, body)
		}
	}
	if strings.Contains(body, `name="slug"`) {
		t.Fatalf("expected slug to be read-only, got %s", body)
	}
}

func TestImageViewDimensions(t *testing.T) {
	body := render(t, ImageView(ImageViewData{Title: "Dunes", FileURL: "/assets/a.jpg", Width: 800, Height: 600}))
	if !strings.Contains(body, `width="800" height="600"`) {
		t.Fatalf("expected image dimensions, got %s", body)
	}

	body = render(t, ImageView(ImageViewData{Title: "Dunes", FileURL: "/assets/a.jpg", Width: 800}))
	if strings.Contains(body, "width=") {
		t.Fatalf("expected no dimensions when height is unknown, got %s", body)
	}
}

func TestTextIsEscaped(t *testing.T) {
	body := render(t, GalleryView(GalleryViewData{Title: `<script>alert("x")</script>`}))
	if strings.Contains(body, "<script>") {
		t.Fatalf("expected title to be escaped, got %s", body)
	}
}

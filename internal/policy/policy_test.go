package policy_test

import (
	"errors"
	"math/rand/v2"
	"slices"
	"testing"
	"time"

	"github.com/Oxyrus/gallery/internal/policy"
	"github.com/Oxyrus/gallery/internal/storage"
)

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func img(id int64, order int, title string, created time.Time) storage.Image {
	return storage.Image{
		ID:        id,
		AlbumID:   1,
		AssetID:   id * 10,
		Title:     title,
		Order:     order,
		CreatedAt: created,
	}
}

func ids(images []storage.Image) []int64 {
	out := make([]int64, 0, len(images))
	for _, image := range images {
		out = append(out, image.ID)
	}
	return out
}

func snapshot(sort storage.SortMode, cover storage.CoverMode, images ...storage.Image) policy.Snapshot {
	return policy.Snapshot{
		Album:  storage.Album{ID: 1, SortImagesBy: sort, CoverMode: cover},
		Images: images,
	}
}

func newPolicy() *policy.Policy {
	return policy.New(rand.New(rand.NewPCG(1, 2)))
}

func TestSortedImagesOrder(t *testing.T) {
	s := snapshot(storage.SortOrder, storage.CoverAuto,
		img(3, 3, "c", base),
		img(1, 1, "a", base),
		img(2, 2, "b", base),
	)

	got := ids(newPolicy().SortedImages(s))
	if want := []int64{1, 2, 3}; !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	if s.Images[0].ID != 3 {
		t.Fatalf("SortedImages must not reorder its input")
	}
}

func TestSortedImagesAlpha(t *testing.T) {
	s := snapshot(storage.SortAlpha, storage.CoverAuto,
		img(1, 1, "Banana", base),
		img(2, 2, "apple", base),
		img(3, 3, "Cherry", base),
	)

	got := newPolicy().SortedImages(s)
	titles := make([]string, 0, len(got))
	for _, image := range got {
		titles = append(titles, image.Title)
	}
	if want := []string{"apple", "Banana", "Cherry"}; !slices.Equal(titles, want) {
		t.Fatalf("expected %v, got %v", want, titles)
	}
}

func TestSortedImagesAlphaTieBreaksByOrder(t *testing.T) {
	s := snapshot(storage.SortAlpha, storage.CoverAuto,
		img(5, 2, "dune", base),
		img(4, 1, "Dune", base),
	)

	got := ids(newPolicy().SortedImages(s))
	if want := []int64{4, 5}; !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestSortedImagesLatest(t *testing.T) {
	s := snapshot(storage.SortLatest, storage.CoverAuto,
		img(4, 4, "t3-tie", base.Add(2*time.Hour)),
		img(1, 1, "t1", base),
		img(3, 3, "t3", base.Add(2*time.Hour)),
		img(2, 2, "t2", base.Add(time.Hour)),
	)

	got := ids(newPolicy().SortedImages(s))
	if want := []int64{3, 4, 2, 1}; !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestSortedImagesDeterministic(t *testing.T) {
	images := []storage.Image{
		img(1, 4, "delta", base.Add(3*time.Minute)),
		img(2, 2, "Alpha", base),
		img(3, 1, "charlie", base.Add(time.Minute)),
		img(4, 3, "bravo", base.Add(time.Minute)),
	}

	p := newPolicy()
	for _, mode := range []storage.SortMode{storage.SortOrder, storage.SortAlpha, storage.SortLatest} {
		s := snapshot(mode, storage.CoverAuto, images...)
		first := ids(p.SortedImages(s))
		for i := 0; i < 5; i++ {
			if again := ids(p.SortedImages(s)); !slices.Equal(first, again) {
				t.Fatalf("mode %q: expected stable output %v, got %v", mode, first, again)
			}
		}
		assertPermutation(t, images, p.SortedImages(s))
	}
}

func TestSortedImagesRandomIsPermutation(t *testing.T) {
	images := []storage.Image{
		img(1, 1, "a", base),
		img(2, 2, "b", base),
		img(3, 3, "c", base),
		img(4, 4, "d", base),
		img(5, 5, "e", base),
	}
	s := snapshot(storage.SortRandom, storage.CoverAuto, images...)

	p := newPolicy()
	for i := 0; i < 10; i++ {
		assertPermutation(t, images, p.SortedImages(s))
	}
}

func TestPaginate(t *testing.T) {
	if policy.Paginate(storage.Album{SortImagesBy: storage.SortRandom}) {
		t.Fatalf("random sort must disable pagination")
	}
	for _, mode := range []storage.SortMode{storage.SortOrder, storage.SortAlpha, storage.SortLatest} {
		if !policy.Paginate(storage.Album{SortImagesBy: mode}) {
			t.Fatalf("mode %q should paginate", mode)
		}
	}
}

func TestCoverImageAutoPrefersOverride(t *testing.T) {
	s := snapshot(storage.SortOrder, storage.CoverAuto, img(1, 1, "a", base), img(2, 2, "b", base))
	s.Override = &storage.Asset{ID: 99}

	cover, ok := newPolicy().CoverImage(s)
	if !ok {
		t.Fatalf("expected a cover")
	}
	if cover.AssetID != 99 || cover.Image != nil {
		t.Fatalf("expected override asset 99, got %+v", cover)
	}

	s.Images = nil
	cover, ok = newPolicy().CoverImage(s)
	if !ok || cover.AssetID != 99 {
		t.Fatalf("expected override on empty album, got %+v ok=%v", cover, ok)
	}
}

func TestCoverImageAutoFallsBackToFirst(t *testing.T) {
	s := snapshot(storage.SortOrder, storage.CoverAuto, img(2, 2, "B", base), img(1, 1, "A", base))

	cover, ok := newPolicy().CoverImage(s)
	if !ok {
		t.Fatalf("expected a cover")
	}
	if cover.Image == nil || cover.Image.ID != 1 || cover.AssetID != 10 {
		t.Fatalf("expected image A, got %+v", cover)
	}
}

func TestCoverImageModesIgnoreOverride(t *testing.T) {
	images := []storage.Image{
		img(3, 3, "c", base.Add(2*time.Hour)),
		img(1, 1, "a", base.Add(time.Hour)),
		img(2, 2, "b", base.Add(2*time.Hour)),
	}

	cases := []struct {
		mode storage.CoverMode
		want int64
	}{
		{storage.CoverFirst, 1},
		{storage.CoverLatest, 2},
	}

	for _, tc := range cases {
		s := snapshot(storage.SortOrder, tc.mode, images...)
		s.Override = &storage.Asset{ID: 99}

		cover, ok := newPolicy().CoverImage(s)
		if !ok || cover.Image == nil {
			t.Fatalf("mode %q: expected an image cover, got %+v", tc.mode, cover)
		}
		if cover.Image.ID != tc.want {
			t.Fatalf("mode %q: expected image %d, got %d", tc.mode, tc.want, cover.Image.ID)
		}
	}
}

func TestCoverImageRandomIsMember(t *testing.T) {
	images := []storage.Image{img(1, 1, "a", base), img(2, 2, "b", base), img(3, 3, "c", base)}
	s := snapshot(storage.SortOrder, storage.CoverRandom, images...)
	s.Override = &storage.Asset{ID: 99}

	p := newPolicy()
	for i := 0; i < 20; i++ {
		cover, ok := p.CoverImage(s)
		if !ok || cover.Image == nil {
			t.Fatalf("expected an image cover, got %+v", cover)
		}
		if !slices.Contains(ids(images), cover.Image.ID) {
			t.Fatalf("cover %d is not a member of the album", cover.Image.ID)
		}
	}
}

func TestCoverImageEmptyAlbum(t *testing.T) {
	for _, mode := range []storage.CoverMode{storage.CoverAuto, storage.CoverFirst, storage.CoverLatest, storage.CoverRandom} {
		if cover, ok := newPolicy().CoverImage(snapshot(storage.SortOrder, mode)); ok {
			t.Fatalf("mode %q: expected no cover, got %+v", mode, cover)
		}
	}
}

func TestNeighborIsCircular(t *testing.T) {
	sorted := []storage.Image{img(1, 1, "A", base), img(2, 2, "B", base), img(3, 3, "C", base)}

	cases := []struct {
		target int64
		dir    policy.Direction
		want   int64
	}{
		{3, policy.Next, 1},
		{1, policy.Prev, 3},
		{1, policy.Next, 2},
		{2, policy.Prev, 1},
	}

	for _, tc := range cases {
		got, err := policy.Neighbor(sorted, tc.target, tc.dir)
		if err != nil {
			t.Fatalf("Neighbor(%d, %v) returned error: %v", tc.target, tc.dir, err)
		}
		if got.ID != tc.want {
			t.Fatalf("Neighbor(%d, %v): expected %d, got %d", tc.target, tc.dir, tc.want, got.ID)
		}
	}
}

func TestNeighborSingleImage(t *testing.T) {
	sorted := []storage.Image{img(1, 1, "A", base)}

	for _, dir := range []policy.Direction{policy.Prev, policy.Next} {
		got, err := policy.Neighbor(sorted, 1, dir)
		if err != nil {
			t.Fatalf("Neighbor returned error: %v", err)
		}
		if got.ID != 1 {
			t.Fatalf("expected self-loop, got %d", got.ID)
		}
	}
}

func TestNeighborNotFound(t *testing.T) {
	sorted := []storage.Image{img(1, 1, "A", base), img(2, 2, "B", base)}

	_, err := policy.Neighbor(sorted, 42, policy.Next)
	if !errors.Is(err, policy.ErrNotFound) {
		t.Fatalf("expected policy.ErrNotFound, got %v", err)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected error to match storage.ErrNotFound, got %v", err)
	}

	if _, err := policy.Neighbor(nil, 1, policy.Prev); !errors.Is(err, policy.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty album, got %v", err)
	}
}

func TestImageCount(t *testing.T) {
	for _, n := range []int{0, 1, 7} {
		images := make([]storage.Image, 0, n)
		for i := 0; i < n; i++ {
			images = append(images, img(int64(i+1), i+1, "x", base))
		}
		if got := policy.ImageCount(snapshot(storage.SortOrder, storage.CoverAuto, images...)); got != n {
			t.Fatalf("expected count %d, got %d", n, got)
		}
	}
}

func TestLabels(t *testing.T) {
	if got := policy.NumberOfImages(1); got != "1 image" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := policy.NumberOfImages(12); got != "12 images" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := policy.NumberOfImages(0); got != "0 images" {
		t.Fatalf("unexpected label %q", got)
	}

	album := storage.Album{Title: "Harbour"}
	if got := policy.MetaTitle(storage.Gallery{}, album, 4); got != "Harbour" {
		t.Fatalf("unexpected meta title %q", got)
	}
	if got := policy.MetaTitle(storage.Gallery{ShowImageCounts: true}, album, 4); got != "Harbour (4)" {
		t.Fatalf("unexpected meta title %q", got)
	}

	if policy.FooterShown(1) || !policy.FooterShown(2) {
		t.Fatalf("footer must only show for more than one image")
	}

	if !policy.AlbumDateShown(storage.Album{}) || policy.ImageDateShown(storage.Album{HideImageDate: true}) {
		t.Fatalf("date flags must negate the hide settings")
	}

	if opts := policy.CoverModeOptions(); len(opts) != 4 || opts[0].Value != "auto" {
		t.Fatalf("unexpected cover mode options %+v", opts)
	}
	if opts := policy.SortModeOptions(); len(opts) != 4 || opts[3].Value != "random" {
		t.Fatalf("unexpected sort mode options %+v", opts)
	}
}

func assertPermutation(t *testing.T, want, got []storage.Image) {
	t.Helper()
	a := ids(want)
	b := ids(got)
	slices.Sort(a)
	slices.Sort(b)
	if !slices.Equal(a, b) {
		t.Fatalf("expected a permutation of %v, got %v", a, b)
	}
}

// Package policy decides how an album is presented: which image is its cover,
// how its images are ordered and which images sit either side of a given one.
//
// Every function works on a caller-supplied snapshot and performs no I/O, so a
// Policy may be shared freely between goroutines.
package policy

import (
	"cmp"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"

	"golang.org/x/text/cases"

	"github.com/Oxyrus/gallery/internal/storage"
)

// ErrNotFound is returned by Neighbor when the target image is not part of the
// sequence. It matches storage.ErrNotFound under errors.Is.
var ErrNotFound = fmt.Errorf("policy: image not in album: %w", storage.ErrNotFound)

// Source is the randomness used by the random cover and sort modes.
// *rand.Rand satisfies it.
type Source interface {
	IntN(n int) int
	Shuffle(n int, swap func(i, j int))
}

type globalSource struct{}

func (globalSource) IntN(n int) int                     { return rand.IntN(n) }
func (globalSource) Shuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }

// Snapshot is everything the policy needs to know about one album.
type Snapshot struct {
	Album storage.Album
	// Override is the album's explicit meta image. It is nil when none is set
	// or when the asset no longer resolves.
	Override *storage.Asset
	Images   []storage.Image
}

// Cover identifies the picture that represents an album. Image is nil when the
// cover is the album's explicit override.
type Cover struct {
	AssetID int64
	Image   *storage.Image
}

// Direction selects the neighbor returned by Neighbor.
type Direction int

const (
	Prev Direction = iota
	Next
)

type Policy struct {
	src Source
}

// New returns a Policy drawing randomness from src. A *rand.Rand is not safe
// for concurrent use; share it only when calls are serialized.
func New(src Source) *Policy {
	if src == nil {
		src = globalSource{}
	}
	return &Policy{src: src}
}

// Default returns a Policy backed by the goroutine-safe global generator.
func Default() *Policy {
	return New(nil)
}

// SortedImages returns the snapshot's images ordered by the album's sort mode.
// The input slice is never modified.
func (p *Policy) SortedImages(s Snapshot) []storage.Image {
	images := slices.Clone(s.Images)

	switch s.Album.SortImagesBy {
	case storage.SortAlpha:
		fold := cases.Fold()
		keys := make(map[int64]string, len(images))
		for _, img := range images {
			keys[img.ID] = fold.String(img.Title)
		}
		slices.SortFunc(images, func(a, b storage.Image) int {
			if c := cmp.Compare(keys[a.ID], keys[b.ID]); c != 0 {
				return c
			}
			return byOrder(a, b)
		})
	case storage.SortLatest:
		slices.SortFunc(images, func(a, b storage.Image) int {
			if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
				return c
			}
			return byOrder(a, b)
		})
	case storage.SortRandom:
		p.src.Shuffle(len(images), func(i, j int) {
			images[i], images[j] = images[j], images[i]
		})
	default:
		slices.SortFunc(images, byOrder)
	}

	return images
}

// Paginate reports whether the album's image list may be split into pages.
// Random ordering is redrawn on every request, so page boundaries would be
// meaningless.
func Paginate(album storage.Album) bool {
	return album.SortImagesBy != storage.SortRandom
}

// CoverImage picks the album's cover. In auto mode a resolvable override wins
// and the first image is the fallback; the other modes ignore the override.
// It reports false when the album has no images and no override applies.
func (p *Policy) CoverImage(s Snapshot) (Cover, bool) {
	var img *storage.Image

	switch s.Album.CoverMode {
	case storage.CoverFirst:
		img = first(s.Images)
	case storage.CoverLatest:
		img = latest(s.Images)
	case storage.CoverRandom:
		if len(s.Images) > 0 {
			img = &s.Images[p.src.IntN(len(s.Images))]
		}
	default:
		if s.Override != nil {
			return Cover{AssetID: s.Override.ID}, true
		}
		img = first(s.Images)
	}

	if img == nil {
		return Cover{}, false
	}

	cover := *img
	return Cover{AssetID: cover.AssetID, Image: &cover}, true
}

// Neighbor returns the image before or after targetID in sorted, wrapping
// around at both ends. A single-image sequence is its own neighbor.
func Neighbor(sorted []storage.Image, targetID int64, dir Direction) (storage.Image, error) {
	idx := slices.IndexFunc(sorted, func(img storage.Image) bool {
		return img.ID == targetID
	})
	if idx < 0 {
		return storage.Image{}, ErrNotFound
	}

	n := len(sorted)
	switch dir {
	case Prev:
		return sorted[(idx-1+n)%n], nil
	case Next:
		return sorted[(idx+1)%n], nil
	default:
		return storage.Image{}, errors.New("policy: unknown direction")
	}
}

// ImageCount returns the number of images in the album.
func ImageCount(s Snapshot) int {
	return len(s.Images)
}

func byOrder(a, b storage.Image) int {
	if c := cmp.Compare(a.Order, b.Order); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

func first(images []storage.Image) *storage.Image {
	var best *storage.Image
	for i := range images {
		if best == nil || byOrder(images[i], *best) < 0 {
			best = &images[i]
		}
	}
	return best
}

func latest(images []storage.Image) *storage.Image {
	var best *storage.Image
	for i := range images {
		if best == nil {
			best = &images[i]
			continue
		}
		switch c := images[i].CreatedAt.Compare(best.CreatedAt); {
		case c > 0, c == 0 && byOrder(images[i], *best) < 0:
			best = &images[i]
		}
	}
	return best
}

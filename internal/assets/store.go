package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rwcarlsen/goexif/exif"

	"github.com/Oxyrus/gallery/internal/storage"
)

// ErrUnsupportedFormat is returned for uploads that are not a known image type.
var ErrUnsupportedFormat = errors.New("assets: unsupported image format")

const thumbDir = "_thumbs"

var supportedExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

type Options struct {
	// Root is the directory on disk under which folders are created.
	Root string
	// URLPrefix is the public path the root is served from.
	URLPrefix   string
	ImageWidth  int
	ImageHeight int
	ThumbWidth  int
	ThumbHeight int
	// MaxBytes caps the size of a single upload. Zero means 32 MiB.
	MaxBytes int64
}

// Stored describes a file written by Save.
type Stored struct {
	Folder   string
	Filename string
	Width    int
	Height   int
	TakenAt  *time.Time
}

// Store keeps picture files and their thumbnails on local disk.
type Store struct {
	opts Options
}

func New(opts Options) (*Store, error) {
	if opts.Root == "" {
		return nil, fmt.Errorf("assets: root must not be empty")
	}
	if opts.URLPrefix == "" {
		opts.URLPrefix = "/assets"
	}
	if opts.ThumbWidth <= 0 || opts.ThumbHeight <= 0 {
		opts.ThumbWidth, opts.ThumbHeight = 600, 400
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 32 << 20
	}
	if err := os.MkdirAll(opts.Root, 0o755); err != nil {
		return nil, fmt.Errorf("assets: create root: %w", err)
	}
	return &Store{opts: opts}, nil
}

// Save decodes an uploaded picture, shrinks it to the display size, writes it
// and a cropped thumbnail under folder, and returns what was stored.
func (s *Store) Save(ctx context.Context, folder, name string, r io.Reader) (Stored, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if !supportedExts[ext] {
		return Stored{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}

	clean, err := cleanFolder(folder)
	if err != nil {
		return Stored{}, err
	}
	dir := filepath.Join(s.opts.Root, filepath.FromSlash(clean))

	data, err := io.ReadAll(io.LimitReader(r, s.opts.MaxBytes+1))
	if err != nil {
		return Stored{}, fmt.Errorf("assets: read upload: %w", err)
	}
	if int64(len(data)) > s.opts.MaxBytes {
		return Stored{}, fmt.Errorf("assets: upload %q exceeds %d bytes", name, s.opts.MaxBytes)
	}

	if err := ctx.Err(); err != nil {
		return Stored{}, err
	}

	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return Stored{}, fmt.Errorf("%w: decode %q: %v", ErrUnsupportedFormat, name, err)
	}

	display := s.fit(src)
	thumb := imaging.Fill(src, s.opts.ThumbWidth, s.opts.ThumbHeight, imaging.Center, imaging.Lanczos)

	if err := os.MkdirAll(filepath.Join(dir, thumbDir), 0o755); err != nil {
		return Stored{}, fmt.Errorf("assets: create folder: %w", err)
	}

	filename := uuid.NewString() + ext
	if err := imaging.Save(display, filepath.Join(dir, filename), imaging.JPEGQuality(85)); err != nil {
		return Stored{}, fmt.Errorf("assets: save image: %w", err)
	}
	if err := imaging.Save(thumb, filepath.Join(dir, thumbDir, filename), imaging.JPEGQuality(80)); err != nil {
		_ = os.Remove(filepath.Join(dir, filename))
		return Stored{}, fmt.Errorf("assets: save thumbnail: %w", err)
	}

	bounds := display.Bounds()
	return Stored{
		Folder:   clean,
		Filename: filename,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		TakenAt:  takenAt(data),
	}, nil
}

// Exists reports whether the asset's file is still on disk.
func (s *Store) Exists(asset storage.Asset) bool {
	dir, err := s.dir(asset.Folder)
	if err != nil {
		return false
	}
	info, err := os.Stat(filepath.Join(dir, asset.Filename))
	return err == nil && !info.IsDir()
}

// Remove deletes the asset's file and thumbnail. Missing files are ignored.
func (s *Store) Remove(asset storage.Asset) error {
	dir, err := s.dir(asset.Folder)
	if err != nil {
		return err
	}
	for _, p := range []string{
		filepath.Join(dir, asset.Filename),
		filepath.Join(dir, thumbDir, asset.Filename),
	} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("assets: remove: %w", err)
		}
	}
	return nil
}

func (s *Store) URL(asset storage.Asset) string {
	return path.Join(s.opts.URLPrefix, asset.Folder, asset.Filename)
}

func (s *Store) ThumbURL(asset storage.Asset) string {
	return path.Join(s.opts.URLPrefix, asset.Folder, thumbDir, asset.Filename)
}

func (s *Store) fit(src image.Image) image.Image {
	if s.opts.ImageWidth <= 0 || s.opts.ImageHeight <= 0 {
		return src
	}
	return imaging.Fit(src, s.opts.ImageWidth, s.opts.ImageHeight, imaging.Lanczos)
}

func (s *Store) dir(folder string) (string, error) {
	clean, err := cleanFolder(folder)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.opts.Root, filepath.FromSlash(clean)), nil
}

// cleanFolder normalises a slash-separated folder and rejects paths that
// would escape the root.
func cleanFolder(folder string) (string, error) {
	clean := path.Clean(strings.Trim(folder, "/"))
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("assets: invalid folder %q", folder)
	}
	if clean == "." {
		return "", nil
	}
	return clean, nil
}

// takenAt reads the capture time from EXIF data, if any.
func takenAt(data []byte) *time.Time {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	t, err := x.DateTime()
	if err != nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}

// TitleFromFilename turns an uploaded file name into a readable title:
// "summer_beach-01.jpg" becomes "summer beach 01".
func TitleFromFilename(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	base = strings.Map(func(r rune) rune {
		if r == '-' || r == '_' || unicode.IsSpace(r) {
			return ' '
		}
		return r
	}, base)
	return strings.Join(strings.Fields(base), " ")
}

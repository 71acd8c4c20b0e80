package handlers_test

import (
	"context"
	"io"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/Oxyrus/gallery/internal/gallery"
	"github.com/Oxyrus/gallery/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubGalleries struct {
	list         []storage.Gallery
	listErr      error
	bySlug       map[string]storage.Gallery
	createResp   storage.Gallery
	createErr    error
	createCalled bool
	lastCreate   storage.GalleryCreate
	updateErr    error
	updateCalled bool
	lastUpdate   storage.GalleryUpdate
}

func (s *stubGalleries) Create(_ context.Context, input storage.GalleryCreate) (storage.Gallery, error) {
	s.createCalled = true
	s.lastCreate = input
	if s.createErr != nil {
		return storage.Gallery{}, s.createErr
	}
	return s.createResp, nil
}

func (s *stubGalleries) GetByID(context.Context, int64) (storage.Gallery, error) {
	panic("unexpected call to GetByID")
}

func (s *stubGalleries) GetBySlug(_ context.Context, slug string) (storage.Gallery, error) {
	if g, ok := s.bySlug[slug]; ok {
		return g, nil
	}
	return storage.Gallery{}, storage.ErrNotFound
}

func (s *stubGalleries) List(context.Context) ([]storage.Gallery, error) {
	return s.list, s.listErr
}

func (s *stubGalleries) Update(_ context.Context, id int64, input storage.GalleryUpdate) (storage.Gallery, error) {
	s.updateCalled = true
	s.lastUpdate = input
	if s.updateErr != nil {
		return storage.Gallery{}, s.updateErr
	}
	return storage.Gallery{ID: id, Slug: "travel", Title: *input.Title}, nil
}

func (s *stubGalleries) Delete(context.Context, int64) error {
	panic("unexpected call to Delete")
}

type stubAlbums struct {
	byGallery    map[int64][]storage.Album
	getBySlug    map[string]storage.Album
	getBySlugErr error
	createResp   storage.Album
	createErr    error
	createCalled bool
	lastCreate   storage.AlbumCreate
	updateResp   storage.Album
	updateErr    error
	updateCalled bool
	lastUpdateID int64
	lastUpdate   storage.AlbumUpdate
	setMetaErr   error
	setMetaCalls [][2]int64
	clearCalls   []int64
}

func (s *stubAlbums) Create(_ context.Context, input storage.AlbumCreate) (storage.Album, error) {
	s.createCalled = true
	s.lastCreate = input
	if s.createErr != nil {
		return storage.Album{}, s.createErr
	}
	return s.createResp, nil
}

func (s *stubAlbums) GetByID(context.Context, int64) (storage.Album, error) {
	panic("unexpected call to GetByID")
}

func (s *stubAlbums) GetBySlug(_ context.Context, _ int64, slug string) (storage.Album, error) {
	if s.getBySlugErr != nil {
		return storage.Album{}, s.getBySlugErr
	}
	if album, ok := s.getBySlug[slug]; ok {
		return album, nil
	}
	return storage.Album{}, storage.ErrNotFound
}

func (s *stubAlbums) ListByGallery(_ context.Context, galleryID int64) ([]storage.Album, error) {
	return s.byGallery[galleryID], nil
}

func (s *stubAlbums) Update(_ context.Context, id int64, input storage.AlbumUpdate) (storage.Album, error) {
	s.updateCalled = true
	s.lastUpdateID = id
	s.lastUpdate = input
	if s.updateErr != nil {
		return storage.Album{}, s.updateErr
	}
	if s.updateResp.ID == 0 {
		s.updateResp.ID = id
	}
	return s.updateResp, nil
}

func (s *stubAlbums) Delete(context.Context, int64) error {
	panic("unexpected call to Delete")
}

func (s *stubAlbums) SetMetaImage(_ context.Context, albumID, assetID int64) error {
	s.setMetaCalls = append(s.setMetaCalls, [2]int64{albumID, assetID})
	return s.setMetaErr
}

func (s *stubAlbums) ClearMetaImage(_ context.Context, albumID int64) error {
	s.clearCalls = append(s.clearCalls, albumID)
	return nil
}

type stubContent struct {
	galleryView    gallery.GalleryPage
	galleryViewErr error
	albumView      gallery.AlbumPage
	albumViewErr   error
	lastPage       int
	imageView      gallery.ImagePage
	imageViewErr   error
	choices        []gallery.CoverChoice
	uploadResp     gallery.UploadResult
	uploadErr      error
	uploadNames    []string
	reconciled     []int64
	forgotten      []int64
	images         map[int64]storage.Image
	imageEdits     map[int64]gallery.ImageEdit
	deletedImages  []int64
	deletedAlbums  []int64
	deletedGallery []int64
	deleteErr      error
}

func (s *stubContent) GalleryView(context.Context, string) (gallery.GalleryPage, error) {
	return s.galleryView, s.galleryViewErr
}

func (s *stubContent) AlbumView(_ context.Context, _, _ string, page int) (gallery.AlbumPage, error) {
	s.lastPage = page
	return s.albumView, s.albumViewErr
}

func (s *stubContent) ImageView(context.Context, string, string, int64) (gallery.ImagePage, error) {
	return s.imageView, s.imageViewErr
}

func (s *stubContent) CoverChoices(context.Context, storage.Album) ([]gallery.CoverChoice, error) {
	return s.choices, nil
}

func (s *stubContent) Upload(_ context.Context, _ storage.Gallery, _ storage.Album, files []gallery.Upload) (gallery.UploadResult, error) {
	for _, f := range files {
		s.uploadNames = append(s.uploadNames, f.Name)
	}
	return s.uploadResp, s.uploadErr
}

func (s *stubContent) Reconcile(_ context.Context, a storage.Album) (int, error) {
	s.reconciled = append(s.reconciled, a.ID)
	return len(s.uploadResp.Saved), nil
}

func (s *stubContent) Image(_ context.Context, album storage.Album, imageID int64) (storage.Image, error) {
	img, ok := s.images[imageID]
	if !ok || img.AlbumID != album.ID {
		return storage.Image{}, storage.ErrNotFound
	}
	return img, nil
}

func (s *stubContent) UpdateImage(_ context.Context, album storage.Album, imageID int64, edit gallery.ImageEdit) (storage.Image, error) {
	img, err := s.Image(context.Background(), album, imageID)
	if err != nil {
		return storage.Image{}, err
	}
	if s.imageEdits == nil {
		s.imageEdits = map[int64]gallery.ImageEdit{}
	}
	s.imageEdits[imageID] = edit
	img.Title, img.Caption = edit.Title, edit.Caption
	return img, nil
}

func (s *stubContent) DeleteImage(_ context.Context, _ storage.Album, imageID int64) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deletedImages = append(s.deletedImages, imageID)
	return nil
}

func (s *stubContent) DeleteAlbum(_ context.Context, album storage.Album) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deletedAlbums = append(s.deletedAlbums, album.ID)
	return nil
}

func (s *stubContent) DeleteGallery(_ context.Context, g storage.Gallery) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deletedGallery = append(s.deletedGallery, g.ID)
	return nil
}

func (s *stubContent) Forget(albumID int64) {
	s.forgotten = append(s.forgotten, albumID)
}

var travel = storage.Gallery{ID: 3, Slug: "travel", Title: "Travel"}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Oxyrus/gallery/internal/gallery"
	"github.com/Oxyrus/gallery/internal/http/render"
	"github.com/Oxyrus/gallery/internal/policy"
	"github.com/Oxyrus/gallery/internal/storage"
	"github.com/Oxyrus/gallery/web/pages"
)

type AlbumHandler struct {
	logger         *slog.Logger
	galleries      storage.Galleries
	albums         storage.Albums
	content        Content
	maxUploadFiles int
}

func NewAlbumHandler(logger *slog.Logger, galleries storage.Galleries, albums storage.Albums, content Content, maxUploadFiles int) *AlbumHandler {
	return &AlbumHandler{
		logger:         logger,
		galleries:      galleries,
		albums:         albums,
		content:        content,
		maxUploadFiles: maxUploadFiles,
	}
}

func (h *AlbumHandler) New(c *gin.Context) {
	g, ok := h.loadGallery(c)
	if !ok {
		return
	}
	render.HTML(c, http.StatusOK, pages.AlbumNew(newAlbumForm(g)))
}

func (h *AlbumHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	g, ok := h.loadGallery(c)
	if !ok {
		return
	}

	form := newAlbumForm(g)
	form.Title = strings.TrimSpace(c.PostForm("title"))
	form.Slug = strings.TrimSpace(c.PostForm("slug"))
	form.Description = strings.TrimSpace(c.PostForm("description"))
	settings := readSettings(c, &form)

	if form.Title == "" {
		form.Errors["title"] = "Title is required."
	}

	slug, slugErr := resolveSlug(form.Slug, form.Title)
	form.Slug = slug
	if slugErr != "" {
		form.Errors["slug"] = slugErr
	}

	if len(form.Errors) > 0 {
		render.HTML(c, http.StatusUnprocessableEntity, pages.AlbumNew(form))
		return
	}

	album, err := h.albums.Create(ctx, storage.AlbumCreate{
		GalleryID:     g.ID,
		Slug:          slug,
		Title:         form.Title,
		Description:   form.Description,
		CoverMode:     settings.cover,
		SortImagesBy:  settings.sort,
		ImageLinksTo:  settings.links,
		HideAlbumDate: settings.hideAlbumDate,
		HideImageDate: settings.hideImageDate,
	})
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			form.Errors["slug"] = "An album with that slug already exists."
			render.HTML(c, http.StatusUnprocessableEntity, pages.AlbumNew(form))
			return
		}

		h.logger.Error("failed to create album", "galleryID", g.ID, "error", err)
		c.String(http.StatusInternalServerError, "failed to create album")
		return
	}

	h.logger.Info("album created", "albumID", album.ID, "galleryID", g.ID, "slug", album.Slug)
	c.Redirect(http.StatusSeeOther, editHref(g, album))
}

func (h *AlbumHandler) Edit(c *gin.Context) {
	g, album, ok := h.loadAlbum(c)
	if !ok {
		return
	}

	form, err := h.editForm(c.Request.Context(), g, album)
	if err != nil {
		h.logger.Error("failed to load album for edit", "albumID", album.ID, "error", err)
		c.String(http.StatusInternalServerError, "failed to load album")
		return
	}

	uploaded, _ := strconv.Atoi(c.Query("uploaded"))
	rejected, _ := strconv.Atoi(c.Query("rejected"))
	if uploaded > 0 || rejected > 0 {
		form.Notice = fmt.Sprintf("Uploaded %s.", policy.NumberOfImages(uploaded))
		if rejected > 0 {
			form.Notice += fmt.Sprintf(" Skipped %d unsupported file(s).", rejected)
		}
	}

	render.HTML(c, http.StatusOK, pages.AlbumEdit(form))
}

func (h *AlbumHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	g, current, ok := h.loadAlbum(c)
	if !ok {
		return
	}

	form, err := h.editForm(ctx, g, current)
	if err != nil {
		h.logger.Error("failed to load album for update", "albumID", current.ID, "error", err)
		c.String(http.StatusInternalServerError, "failed to load album")
		return
	}
	form.Title = strings.TrimSpace(c.PostForm("title"))
	form.Description = strings.TrimSpace(c.PostForm("description"))
	settings := readSettings(c, &form)

	if form.Title == "" {
		form.Errors["title"] = "Title is required."
	}

	if len(form.Errors) > 0 {
		render.HTML(c, http.StatusUnprocessableEntity, pages.AlbumEdit(form))
		return
	}

	title := form.Title
	description := form.Description
	updated, err := h.albums.Update(ctx, current.ID, storage.AlbumUpdate{
		Title:         &title,
		Description:   &description,
		CoverMode:     &settings.cover,
		SortImagesBy:  &settings.sort,
		ImageLinksTo:  &settings.links,
		HideAlbumDate: &settings.hideAlbumDate,
		HideImageDate: &settings.hideImageDate,
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.String(http.StatusNotFound, "album not found")
			return
		}

		h.logger.Error("failed to update album", "albumID", current.ID, "slug", current.Slug, "error", err)
		c.String(http.StatusInternalServerError, "failed to update album")
		return
	}
	h.content.Forget(updated.ID)

	h.logger.Info("album updated", "albumID", updated.ID, "slug", updated.Slug)
	c.Redirect(http.StatusSeeOther, gallery.AlbumHref(g, updated))
}

// Upload stores the posted files and turns them into images right away.
func (h *AlbumHandler) Upload(c *gin.Context) {
	ctx := c.Request.Context()

	g, album, ok := h.loadAlbum(c)
	if !ok {
		return
	}

	mf, err := c.MultipartForm()
	if err != nil {
		h.logger.Warn("failed to read upload", "albumID", album.ID, "error", err)
		h.renderEditError(c, http.StatusBadRequest, g, album, "The upload could not be read. Check the file sizes and try again.")
		return
	}
	headers := mf.File["images"]
	if len(headers) == 0 {
		h.renderEditError(c, http.StatusUnprocessableEntity, g, album, "Choose at least one image to upload.")
		return
	}

	res, err := h.content.Upload(ctx, g, album, toUploads(headers))
	if err != nil {
		if errors.Is(err, gallery.ErrTooManyFiles) {
			h.renderEditError(c, http.StatusUnprocessableEntity, g, album, fmt.Sprintf("You can upload at most %d files at a time.", h.maxUploadFiles))
			return
		}
		h.logger.Error("failed to store upload", "albumID", album.ID, "error", err)
		c.String(http.StatusInternalServerError, "failed to store upload")
		return
	}

	if _, err := h.content.Reconcile(ctx, album); err != nil {
		h.logger.Error("failed to create images from upload", "albumID", album.ID, "error", err)
		c.String(http.StatusInternalServerError, "failed to create images")
		return
	}

	c.Redirect(http.StatusSeeOther, fmt.Sprintf("%s?uploaded=%d&rejected=%d", editHref(g, album), len(res.Saved), len(res.Rejected)))
}

// Cover pins or clears the album's meta image. An empty asset_id clears it.
func (h *AlbumHandler) Cover(c *gin.Context) {
	ctx := c.Request.Context()

	g, album, ok := h.loadAlbum(c)
	if !ok {
		return
	}

	raw := strings.TrimSpace(c.PostForm("asset_id"))
	if raw == "" {
		if err := h.albums.ClearMetaImage(ctx, album.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			h.logger.Error("failed to clear meta image", "albumID", album.ID, "error", err)
			c.String(http.StatusInternalServerError, "failed to update cover")
			return
		}
	} else {
		assetID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || assetID <= 0 {
			c.String(http.StatusUnprocessableEntity, "invalid image")
			return
		}
		if err := h.albums.SetMetaImage(ctx, album.ID, assetID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				c.String(http.StatusUnprocessableEntity, "image is not part of this album")
				return
			}
			h.logger.Error("failed to set meta image", "albumID", album.ID, "assetID", assetID, "error", err)
			c.String(http.StatusInternalServerError, "failed to update cover")
			return
		}
	}
	h.content.Forget(album.ID)

	h.logger.Info("album cover updated", "albumID", album.ID, "assetID", raw)
	c.Redirect(http.StatusSeeOther, editHref(g, album))
}

// Delete removes the album with its images and every picture uploaded to it.
func (h *AlbumHandler) Delete(c *gin.Context) {
	_, album, ok := h.loadAlbum(c)
	if !ok {
		return
	}

	if err := h.content.DeleteAlbum(c.Request.Context(), album); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.String(http.StatusNotFound, "album not found")
			return
		}
		h.logger.Error("failed to delete album", "albumID", album.ID, "error", err)
		c.String(http.StatusInternalServerError, "failed to delete album")
		return
	}

	c.Redirect(http.StatusSeeOther, "/admin/galleries")
}

func (h *AlbumHandler) EditImage(c *gin.Context) {
	g, album, img, ok := h.loadImage(c)
	if !ok {
		return
	}

	form, err := h.imageForm(c.Request.Context(), g, album, img)
	if err != nil {
		h.logger.Error("failed to load image for edit", "imageID", img.ID, "error", err)
		c.String(http.StatusInternalServerError, "failed to load image")
		return
	}
	render.HTML(c, http.StatusOK, pages.ImageEdit(form))
}

// UpdateImage saves an image's title and caption.
func (h *AlbumHandler) UpdateImage(c *gin.Context) {
	ctx := c.Request.Context()

	g, album, img, ok := h.loadImage(c)
	if !ok {
		return
	}

	edit := gallery.ImageEdit{
		Title:   strings.TrimSpace(c.PostForm("title")),
		Caption: strings.TrimSpace(c.PostForm("caption")),
	}
	if edit.Title == "" {
		form, err := h.imageForm(ctx, g, album, img)
		if err != nil {
			h.logger.Error("failed to load image for edit", "imageID", img.ID, "error", err)
			c.String(http.StatusInternalServerError, "failed to load image")
			return
		}
		form.Title = edit.Title
		form.Caption = edit.Caption
		form.Errors["title"] = "Title is required."
		render.HTML(c, http.StatusUnprocessableEntity, pages.ImageEdit(form))
		return
	}

	if _, err := h.content.UpdateImage(ctx, album, img.ID, edit); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.String(http.StatusNotFound, "image not found")
			return
		}
		h.logger.Error("failed to update image", "albumID", album.ID, "imageID", img.ID, "error", err)
		c.String(http.StatusInternalServerError, "failed to update image")
		return
	}

	h.logger.Info("image updated", "albumID", album.ID, "imageID", img.ID)
	c.Redirect(http.StatusSeeOther, editHref(g, album))
}

// DeleteImage removes an image and its picture from the album.
func (h *AlbumHandler) DeleteImage(c *gin.Context) {
	g, album, img, ok := h.loadImage(c)
	if !ok {
		return
	}

	if err := h.content.DeleteImage(c.Request.Context(), album, img.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.String(http.StatusNotFound, "image not found")
			return
		}
		h.logger.Error("failed to delete image", "albumID", album.ID, "imageID", img.ID, "error", err)
		c.String(http.StatusInternalServerError, "failed to delete image")
		return
	}

	c.Redirect(http.StatusSeeOther, editHref(g, album))
}

// View is the public image grid of an album.
func (h *AlbumHandler) View(c *gin.Context) {
	gallerySlug := strings.TrimSpace(c.Param("gallery"))
	albumSlug := strings.TrimSpace(c.Param("album"))

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		page = 1
	}

	view, err := h.content.AlbumView(c.Request.Context(), gallerySlug, albumSlug, page)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.String(http.StatusNotFound, "album not found")
			return
		}
		h.logger.Error("failed to load album", "gallery", gallerySlug, "album", albumSlug, "error", err)
		c.String(http.StatusInternalServerError, "failed to load album")
		return
	}

	render.HTML(c, http.StatusOK, pages.AlbumView(toAlbumViewData(view)))
}

func (h *AlbumHandler) loadGallery(c *gin.Context) (storage.Gallery, bool) {
	slug := strings.TrimSpace(c.Param("gallery"))
	g, err := h.galleries.GetBySlug(c.Request.Context(), slug)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.String(http.StatusNotFound, "gallery not found")
			return storage.Gallery{}, false
		}
		h.logger.Error("failed to load gallery", "slug", slug, "error", err)
		c.String(http.StatusInternalServerError, "failed to load gallery")
		return storage.Gallery{}, false
	}
	return g, true
}

func (h *AlbumHandler) loadAlbum(c *gin.Context) (storage.Gallery, storage.Album, bool) {
	g, ok := h.loadGallery(c)
	if !ok {
		return storage.Gallery{}, storage.Album{}, false
	}

	slug := strings.TrimSpace(c.Param("album"))
	album, err := h.albums.GetBySlug(c.Request.Context(), g.ID, slug)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.String(http.StatusNotFound, "album not found")
			return storage.Gallery{}, storage.Album{}, false
		}
		h.logger.Error("failed to load album", "galleryID", g.ID, "slug", slug, "error", err)
		c.String(http.StatusInternalServerError, "failed to load album")
		return storage.Gallery{}, storage.Album{}, false
	}
	return g, album, true
}

func (h *AlbumHandler) loadImage(c *gin.Context) (storage.Gallery, storage.Album, storage.Image, bool) {
	g, album, ok := h.loadAlbum(c)
	if !ok {
		return storage.Gallery{}, storage.Album{}, storage.Image{}, false
	}

	imageID, err := strconv.ParseInt(c.Param("image"), 10, 64)
	if err != nil {
		c.String(http.StatusNotFound, "image not found")
		return storage.Gallery{}, storage.Album{}, storage.Image{}, false
	}

	img, err := h.content.Image(c.Request.Context(), album, imageID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.String(http.StatusNotFound, "image not found")
			return storage.Gallery{}, storage.Album{}, storage.Image{}, false
		}
		h.logger.Error("failed to load image", "albumID", album.ID, "imageID", imageID, "error", err)
		c.String(http.StatusInternalServerError, "failed to load image")
		return storage.Gallery{}, storage.Album{}, storage.Image{}, false
	}
	return g, album, img, true
}

func (h *AlbumHandler) imageForm(ctx context.Context, g storage.Gallery, album storage.Album, img storage.Image) (pages.ImageForm, error) {
	choices, err := h.content.CoverChoices(ctx, album)
	if err != nil {
		return pages.ImageForm{}, err
	}

	base := imageEditHref(g, album, img.ID)
	form := pages.ImageForm{
		Action:       base,
		DeleteAction: strings.TrimSuffix(base, "/edit") + "/delete",
		AlbumHref:    editHref(g, album),
		AlbumTitle:   album.Title,
		Title:        img.Title,
		Caption:      img.Caption,
		Errors:       map[string]string{},
	}
	for _, choice := range choices {
		if choice.ImageID == img.ID {
			form.ThumbURL = choice.ThumbURL
			break
		}
	}
	return form, nil
}

func imageEditHref(g storage.Gallery, a storage.Album, imageID int64) string {
	return fmt.Sprintf("/admin/g/%s/%s/images/%d/edit", g.Slug, a.Slug, imageID)
}

func (h *AlbumHandler) editForm(ctx context.Context, g storage.Gallery, album storage.Album) (pages.AlbumForm, error) {
	choices, err := h.content.CoverChoices(ctx, album)
	if err != nil {
		return pages.AlbumForm{}, err
	}

	base := editHref(g, album)
	form := pages.AlbumForm{
		Heading:        "Edit album",
		Intro:          "Update the album details below.",
		Action:         base,
		SubmitLabel:    "Save changes",
		Title:          album.Title,
		Slug:           album.Slug,
		Description:    album.Description,
		CoverMode:      string(album.CoverMode),
		SortImagesBy:   string(album.SortImagesBy),
		ImageLinksTo:   album.ImageLinksTo,
		HideAlbumDate:  album.HideAlbumDate,
		HideImageDate:  album.HideImageDate,
		CoverModes:     toOptions(policy.CoverModeOptions()),
		SortModes:      toOptions(policy.SortModeOptions()),
		LinkTargets:    toOptions(policy.ImageLinksToOptions()),
		Errors:         map[string]string{},
		ViewHref:       gallery.AlbumHref(g, album),
		UploadAction:   strings.TrimSuffix(base, "/edit") + "/upload",
		CoverAction:    strings.TrimSuffix(base, "/edit") + "/cover",
		DeleteAction:   strings.TrimSuffix(base, "/edit") + "/delete",
		MaxUploadFiles: h.maxUploadFiles,
	}
	for _, choice := range choices {
		form.CoverChoices = append(form.CoverChoices, pages.CoverChoice{
			AssetID:  strconv.FormatInt(choice.AssetID, 10),
			Title:    choice.Title,
			ThumbURL: choice.ThumbURL,
			Selected: choice.Selected,
		})
		form.Images = append(form.Images, pages.ImageRow{
			Title:    choice.Title,
			ThumbURL: choice.ThumbURL,
			EditHref: imageEditHref(g, album, choice.ImageID),
		})
	}
	return form, nil
}

func (h *AlbumHandler) renderEditError(c *gin.Context, status int, g storage.Gallery, album storage.Album, msg string) {
	form, err := h.editForm(c.Request.Context(), g, album)
	if err != nil {
		h.logger.Error("failed to load album for edit", "albumID", album.ID, "error", err)
		c.String(http.StatusInternalServerError, "failed to load album")
		return
	}
	form.Errors["images"] = msg
	render.HTML(c, status, pages.AlbumEdit(form))
}

type albumSettings struct {
	cover         storage.CoverMode
	sort          storage.SortMode
	links         string
	hideAlbumDate bool
	hideImageDate bool
}

// readSettings parses the presentation fields of the album form into form and
// records field errors for unknown values.
func readSettings(c *gin.Context, form *pages.AlbumForm) albumSettings {
	s := albumSettings{
		cover:         storage.CoverMode(strings.TrimSpace(c.DefaultPostForm("cover_mode", string(storage.CoverAuto)))),
		sort:          storage.SortMode(strings.TrimSpace(c.DefaultPostForm("sort_images_by", string(storage.SortOrder)))),
		links:         strings.TrimSpace(c.PostForm("image_links_to")),
		hideAlbumDate: checked(c.PostForm("hide_album_date")),
		hideImageDate: checked(c.PostForm("hide_image_date")),
	}

	form.CoverMode = string(s.cover)
	form.SortImagesBy = string(s.sort)
	form.ImageLinksTo = s.links
	form.HideAlbumDate = s.hideAlbumDate
	form.HideImageDate = s.hideImageDate

	if !s.cover.Valid() {
		form.Errors["cover_mode"] = "Choose a cover mode from the list."
	}
	if !s.sort.Valid() {
		form.Errors["sort_images_by"] = "Choose a sort order from the list."
	}
	switch s.links {
	case "", storage.LinkToFile, storage.LinkToItem:
	default:
		form.Errors["image_links_to"] = "Choose a link target from the list."
	}
	return s
}

func newAlbumForm(g storage.Gallery) pages.AlbumForm {
	return pages.AlbumForm{
		Heading:      "Create a new album",
		Intro:        "Collect your pictures under a memorable title. You can upload them after saving the basics.",
		Action:       fmt.Sprintf("/admin/g/%s/albums", g.Slug),
		SubmitLabel:  "Create album",
		SlugEditable: true,
		CoverMode:    string(storage.CoverAuto),
		SortImagesBy: string(storage.SortOrder),
		CoverModes:   toOptions(policy.CoverModeOptions()),
		SortModes:    toOptions(policy.SortModeOptions()),
		LinkTargets:  toOptions(policy.ImageLinksToOptions()),
		Errors:       map[string]string{},
	}
}

func toUploads(headers []*multipart.FileHeader) []gallery.Upload {
	uploads := make([]gallery.Upload, 0, len(headers))
	for _, fh := range headers {
		uploads = append(uploads, gallery.Upload{
			Name: fh.Filename,
			Open: func() (io.ReadCloser, error) { return fh.Open() },
		})
	}
	return uploads
}

func toAlbumViewData(view gallery.AlbumPage) pages.AlbumViewData {
	data := pages.AlbumViewData{
		GalleryTitle: view.Gallery.Title,
		GalleryHref:  gallery.GalleryHref(view.Gallery),
		Title:        view.MetaTitle,
		Description:  view.Album.Description,
		CountLabel:   view.CountLabel,
		Images:       make([]pages.ImageTile, 0, len(view.Items)),
		Page:         view.Page,
		TotalPages:   view.TotalPages,
	}
	if view.DateShown {
		data.Date = formatDate(view.Album.CreatedAt)
	}
	if view.Page > 1 {
		data.PrevPageHref = fmt.Sprintf("?page=%d", view.Page-1)
	}
	if view.Page < view.TotalPages {
		data.NextPageHref = fmt.Sprintf("?page=%d", view.Page+1)
	}
	for _, item := range view.Items {
		data.Images = append(data.Images, pages.ImageTile{
			Title:    item.Image.Title,
			Href:     item.Href,
			ThumbURL: item.ThumbURL,
		})
	}
	return data
}

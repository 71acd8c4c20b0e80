package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Oxyrus/gallery/internal/gallery"
	"github.com/Oxyrus/gallery/internal/http/render"
	"github.com/Oxyrus/gallery/internal/storage"
	"github.com/Oxyrus/gallery/web/pages"
)

type GalleryHandler struct {
	logger    *slog.Logger
	galleries storage.Galleries
	albums    storage.Albums
	content   Content
}

func NewGalleryHandler(logger *slog.Logger, galleries storage.Galleries, albums storage.Albums, content Content) *GalleryHandler {
	return &GalleryHandler{
		logger:    logger,
		galleries: galleries,
		albums:    albums,
		content:   content,
	}
}

// List is the editor's index of galleries and their albums.
func (h *GalleryHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	galleries, err := h.galleries.List(ctx)
	if err != nil {
		h.logger.Error("failed to list galleries", "error", err)
		c.String(http.StatusInternalServerError, "failed to load galleries")
		return
	}

	items := make([]pages.GalleryListItem, 0, len(galleries))
	for _, g := range galleries {
		albums, err := h.albums.ListByGallery(ctx, g.ID)
		if err != nil {
			h.logger.Error("failed to list albums", "galleryID", g.ID, "error", err)
			c.String(http.StatusInternalServerError, "failed to load galleries")
			return
		}
		items = append(items, toGalleryListItem(g, albums))
	}

	render.HTML(c, http.StatusOK, pages.GalleriesList(items))
}

func (h *GalleryHandler) New(c *gin.Context) {
	render.HTML(c, http.StatusOK, pages.GalleryNew(newGalleryForm()))
}

func (h *GalleryHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	form := newGalleryForm()
	form.Title = strings.TrimSpace(c.PostForm("title"))
	form.Slug = strings.TrimSpace(c.PostForm("slug"))
	form.Description = strings.TrimSpace(c.PostForm("description"))
	form.ShowImageCounts = checked(c.PostForm("show_image_counts"))

	if form.Title == "" {
		form.Errors["title"] = "Title is required."
	}

	slug, slugErr := resolveSlug(form.Slug, form.Title)
	form.Slug = slug
	if slugErr != "" {
		form.Errors["slug"] = slugErr
	}

	if len(form.Errors) > 0 {
		render.HTML(c, http.StatusUnprocessableEntity, pages.GalleryNew(form))
		return
	}

	g, err := h.galleries.Create(ctx, storage.GalleryCreate{
		Slug:            slug,
		Title:           form.Title,
		Description:     form.Description,
		ShowImageCounts: form.ShowImageCounts,
	})
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			form.Errors["slug"] = "A gallery with that slug already exists."
			render.HTML(c, http.StatusUnprocessableEntity, pages.GalleryNew(form))
			return
		}

		h.logger.Error("failed to create gallery", "error", err)
		c.String(http.StatusInternalServerError, "failed to create gallery")
		return
	}

	h.logger.Info("gallery created", "galleryID", g.ID, "slug", g.Slug)
	c.Redirect(http.StatusSeeOther, "/admin/galleries")
}

func (h *GalleryHandler) Edit(c *gin.Context) {
	g, ok := h.load(c)
	if !ok {
		return
	}
	render.HTML(c, http.StatusOK, pages.GalleryEdit(editGalleryForm(g)))
}

// Update saves the gallery's title, description and image count setting. The
// slug is part of every public URL and stays fixed.
func (h *GalleryHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	g, ok := h.load(c)
	if !ok {
		return
	}

	form := editGalleryForm(g)
	form.Title = strings.TrimSpace(c.PostForm("title"))
	form.Description = strings.TrimSpace(c.PostForm("description"))
	form.ShowImageCounts = checked(c.PostForm("show_image_counts"))

	if form.Title == "" {
		form.Errors["title"] = "Title is required."
		render.HTML(c, http.StatusUnprocessableEntity, pages.GalleryEdit(form))
		return
	}

	updated, err := h.galleries.Update(ctx, g.ID, storage.GalleryUpdate{
		Title:           &form.Title,
		Description:     &form.Description,
		ShowImageCounts: &form.ShowImageCounts,
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.String(http.StatusNotFound, "gallery not found")
			return
		}
		h.logger.Error("failed to update gallery", "galleryID", g.ID, "error", err)
		c.String(http.StatusInternalServerError, "failed to update gallery")
		return
	}

	h.logger.Info("gallery updated", "galleryID", updated.ID, "slug", updated.Slug)
	c.Redirect(http.StatusSeeOther, "/admin/galleries")
}

// Delete removes the gallery together with its albums and their pictures.
func (h *GalleryHandler) Delete(c *gin.Context) {
	g, ok := h.load(c)
	if !ok {
		return
	}

	if err := h.content.DeleteGallery(c.Request.Context(), g); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.String(http.StatusNotFound, "gallery not found")
			return
		}
		h.logger.Error("failed to delete gallery", "galleryID", g.ID, "error", err)
		c.String(http.StatusInternalServerError, "failed to delete gallery")
		return
	}

	c.Redirect(http.StatusSeeOther, "/admin/galleries")
}

// View is the public album grid.
func (h *GalleryHandler) View(c *gin.Context) {
	slug := strings.TrimSpace(c.Param("gallery"))

	view, err := h.content.GalleryView(c.Request.Context(), slug)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.String(http.StatusNotFound, "gallery not found")
			return
		}
		h.logger.Error("failed to load gallery", "slug", slug, "error", err)
		c.String(http.StatusInternalServerError, "failed to load gallery")
		return
	}

	data := pages.GalleryViewData{
		Title:       view.Gallery.Title,
		Description: view.Gallery.Description,
		Albums:      make([]pages.AlbumTile, 0, len(view.Albums)),
	}
	for _, a := range view.Albums {
		tile := pages.AlbumTile{
			Title:      a.MetaTitle,
			Href:       a.Href,
			CoverURL:   a.CoverURL,
			CountLabel: a.CountLabel,
		}
		if a.DateShown {
			tile.Date = formatDate(a.Album.CreatedAt)
		}
		data.Albums = append(data.Albums, tile)
	}

	render.HTML(c, http.StatusOK, pages.GalleryView(data))
}

func (h *GalleryHandler) load(c *gin.Context) (storage.Gallery, bool) {
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

func newGalleryForm() pages.GalleryForm {
	return pages.GalleryForm{
		Heading:      "Create a new gallery",
		Action:       "/admin/galleries",
		SubmitLabel:  "Create gallery",
		SlugEditable: true,
		Errors:       map[string]string{},
	}
}

func editGalleryForm(g storage.Gallery) pages.GalleryForm {
	base := galleryEditHref(g)
	return pages.GalleryForm{
		Heading:         "Edit gallery",
		Action:          base,
		SubmitLabel:     "Save changes",
		Title:           g.Title,
		Slug:            g.Slug,
		Description:     g.Description,
		ShowImageCounts: g.ShowImageCounts,
		DeleteAction:    strings.TrimSuffix(base, "/edit") + "/delete",
		Errors:          map[string]string{},
	}
}

func toGalleryListItem(g storage.Gallery, albums []storage.Album) pages.GalleryListItem {
	meta := ""
	if ts := formatTimestamp(g.UpdatedAt); ts != "" {
		meta = fmt.Sprintf("Updated %s", ts)
	}

	item := pages.GalleryListItem{
		Title:        g.Title,
		Description:  g.Description,
		Href:         gallery.GalleryHref(g),
		EditHref:     galleryEditHref(g),
		NewAlbumHref: fmt.Sprintf("/admin/g/%s/albums/new", g.Slug),
		Meta:         meta,
		Albums:       make([]pages.Link, 0, len(albums)),
	}
	for _, a := range albums {
		item.Albums = append(item.Albums, pages.Link{
			Label: a.Title,
			Href:  editHref(g, a),
		})
	}
	return item
}

func galleryEditHref(g storage.Gallery) string {
	return fmt.Sprintf("/admin/galleries/%s/edit", g.Slug)
}

func editHref(g storage.Gallery, a storage.Album) string {
	return fmt.Sprintf("/admin/g/%s/%s/edit", g.Slug, a.Slug)
}

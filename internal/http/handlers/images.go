package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Oxyrus/gallery/internal/gallery"
	"github.com/Oxyrus/gallery/internal/http/render"
	"github.com/Oxyrus/gallery/internal/storage"
	"github.com/Oxyrus/gallery/web/pages"
)

type ImageHandler struct {
	logger  *slog.Logger
	content Content
}

func NewImageHandler(logger *slog.Logger, content Content) *ImageHandler {
	return &ImageHandler{logger: logger, content: content}
}

func (h *ImageHandler) View(c *gin.Context) {
	gallerySlug := strings.TrimSpace(c.Param("gallery"))
	albumSlug := strings.TrimSpace(c.Param("album"))

	imageID, err := strconv.ParseInt(c.Param("image"), 10, 64)
	if err != nil {
		c.String(http.StatusNotFound, "image not found")
		return
	}

	view, err := h.content.ImageView(c.Request.Context(), gallerySlug, albumSlug, imageID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.String(http.StatusNotFound, "image not found")
			return
		}
		h.logger.Error("failed to load image", "gallery", gallerySlug, "album", albumSlug, "imageID", imageID, "error", err)
		c.String(http.StatusInternalServerError, "failed to load image")
		return
	}

	render.HTML(c, http.StatusOK, pages.ImageView(toImageViewData(view)))
}

func toImageViewData(view gallery.ImagePage) pages.ImageViewData {
	data := pages.ImageViewData{
		Title:       view.Image.Title,
		Caption:     view.Image.Caption,
		FileURL:     view.FileURL,
		Width:       view.Asset.Width,
		Height:      view.Asset.Height,
		AlbumTitle:  view.Album.Title,
		AlbumHref:   view.AlbumHref,
		PrevHref:    view.PrevHref,
		NextHref:    view.NextHref,
		FooterShown: view.FooterShown,
		Position:    view.Position,
		Count:       view.Count,
	}
	if view.DateShown {
		taken := view.Image.CreatedAt
		if view.Asset.TakenAt != nil {
			taken = *view.Asset.TakenAt
		}
		data.Date = formatDate(taken)
	}
	return data
}

package router

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Oxyrus/gallery/internal/config"
	"github.com/Oxyrus/gallery/internal/http/handlers"
	"github.com/Oxyrus/gallery/internal/http/middleware"
	"github.com/Oxyrus/gallery/internal/storage"
)

func New(cfg *config.Config, logger *slog.Logger, store storage.Store, content handlers.Content) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics())

	galleryHandler := handlers.NewGalleryHandler(logger, store.Galleries(), store.Albums(), content)
	albumHandler := handlers.NewAlbumHandler(logger, store.Galleries(), store.Albums(), content, cfg.MaxUploadFiles)
	imageHandler := handlers.NewImageHandler(logger, content)
	authHandler := handlers.NewAuthHandler(logger, cfg.AdminPassword, cfg.AdminCookie)

	requireAdmin := middleware.RequireAdmin(cfg.AdminCookie, cfg.AdminPassword)

	admin := r.Group("/admin")
	admin.Use(requireAdmin)
	admin.GET("/galleries", galleryHandler.List)
	admin.GET("/galleries/new", galleryHandler.New)
	admin.POST("/galleries", galleryHandler.Create)
	admin.GET("/galleries/:gallery/edit", galleryHandler.Edit)
	admin.POST("/galleries/:gallery/edit", galleryHandler.Update)
	admin.POST("/galleries/:gallery/delete", galleryHandler.Delete)
	admin.GET("/g/:gallery/albums/new", albumHandler.New)
	admin.POST("/g/:gallery/albums", albumHandler.Create)
	admin.GET("/g/:gallery/:album/edit", albumHandler.Edit)
	admin.POST("/g/:gallery/:album/edit", albumHandler.Update)
	admin.POST("/g/:gallery/:album/upload", albumHandler.Upload)
	admin.POST("/g/:gallery/:album/cover", albumHandler.Cover)
	admin.POST("/g/:gallery/:album/delete", albumHandler.Delete)
	admin.GET("/g/:gallery/:album/images/:image/edit", albumHandler.EditImage)
	admin.POST("/g/:gallery/:album/images/:image/edit", albumHandler.UpdateImage)
	admin.POST("/g/:gallery/:album/images/:image/delete", albumHandler.DeleteImage)

	r.GET("/metrics", requireAdmin, gin.WrapH(promhttp.Handler()))

	r.GET("/g/:gallery", galleryHandler.View)
	r.GET("/g/:gallery/:album", albumHandler.View)
	r.GET("/g/:gallery/:album/:image", imageHandler.View)
	r.Static("/assets", cfg.AssetRoot)

	r.GET("/login", authHandler.ShowLogin)
	r.POST("/login", authHandler.SubmitLogin)

	r.GET("/healthz", func(c *gin.Context) {
		if err := store.Ping(c.Request.Context()); err != nil {
			logger.Error("health check failed", "error", err)
			c.String(http.StatusServiceUnavailable, "unavailable")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	r.NoRoute(func(c *gin.Context) {
		c.String(http.StatusNotFound, "not found")
	})

	return r
}

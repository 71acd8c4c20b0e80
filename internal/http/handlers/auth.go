package handlers

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Oxyrus/gallery/internal/http/middleware"
	"github.com/Oxyrus/gallery/internal/http/render"
	"github.com/Oxyrus/gallery/web/pages"
)

const sessionMaxAge = 14 * 24 * time.Hour

type AuthHandler struct {
	logger     *slog.Logger
	passcode   string
	cookieName string
}

func NewAuthHandler(logger *slog.Logger, passcode, cookieName string) *AuthHandler {
	return &AuthHandler{
		logger:     logger,
		passcode:   passcode,
		cookieName: cookieName,
	}
}

func (h *AuthHandler) ShowLogin(c *gin.Context) {
	render.HTML(c, http.StatusOK, pages.Login(safeNext(c.Query("next"))))
}

func (h *AuthHandler) SubmitLogin(c *gin.Context) {
	passcode := strings.TrimSpace(c.PostForm("passcode"))
	if passcode == "" {
		h.logger.Warn("login attempt missing passcode", "ip", c.ClientIP())
		c.String(http.StatusBadRequest, "passcode is required")
		return
	}

	if subtle.ConstantTimeCompare([]byte(passcode), []byte(h.passcode)) != 1 {
		h.logger.Warn("invalid login attempt", "ip", c.ClientIP())
		c.String(http.StatusUnauthorized, "invalid passcode")
		return
	}

	redirectTo := safeNext(c.PostForm("next"))
	if redirectTo == "" {
		redirectTo = "/admin/galleries"
	}

	secure := c.Request.TLS != nil
	c.SetCookie(h.cookieName, middleware.SessionToken(h.passcode), int(sessionMaxAge.Seconds()), "/", "", secure, true)

	h.logger.Info("editor login successful", "ip", c.ClientIP())
	c.Redirect(http.StatusFound, redirectTo)
}

// safeNext only allows local absolute paths as redirect targets.
func safeNext(next string) string {
	next = strings.TrimSpace(next)
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return ""
	}
	return next
}

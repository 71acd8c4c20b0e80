package middleware_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/Oxyrus/gallery/internal/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newProtectedRouter() *gin.Engine {
	r := gin.New()
	admin := r.Group("/admin")
	admin.Use(middleware.RequireAdmin("gallery_admin", "secret"))
	admin.GET("/galleries", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return r
}

func TestRequireAdminRedirectsWithoutCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/galleries?x=1", nil)

	newProtectedRouter().ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("expected status 302, got %d", rec.Code)
	}
	if location := rec.Header().Get("Location"); location != "/login?next=%2Fadmin%2Fgalleries%3Fx%3D1" {
		t.Fatalf("unexpected redirect %q", location)
	}
}

func TestRequireAdminRejectsStaleCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/galleries", nil)
	req.AddCookie(&http.Cookie{Name: "gallery_admin", Value: middleware.SessionToken("old-password")})

	newProtectedRouter().ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("expected status 302, got %d", rec.Code)
	}
}

func TestRequireAdminAllowsValidCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/galleries", nil)
	req.AddCookie(&http.Cookie{Name: "gallery_admin", Value: middleware.SessionToken("secret")})

	newProtectedRouter().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

func TestLoggingTagsRequests(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	r := gin.New()
	r.Use(middleware.Logging(logger), middleware.Metrics())
	r.GET("/g/:gallery", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/g/travel", nil)
	req.Header.Set("X-Request-ID", "req-123")
	r.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "req-123" {
		t.Fatalf("expected request ID to be echoed, got %q", got)
	}
	line := buf.String()
	for _, want := range []string{"requestID=req-123", "status=200", "route=/g/:gallery", "path=/g/travel"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in log line %q", want, line)
		}
	}
}

func TestLoggingGeneratesRequestID(t *testing.T) {
	r := gin.New()
	r.Use(middleware.Logging(slog.New(slog.DiscardHandler)))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected a generated request ID")
	}
}

package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/Oxyrus/gallery/internal/http/handlers"
	"github.com/Oxyrus/gallery/internal/http/middleware"
)

func TestAuthHandlerShowLoginDropsForeignNext(t *testing.T) {
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)
	ctx.Request = httptest.NewRequest(http.MethodGet, "/login?next=//evil.example", nil)

	handler := handlers.NewAuthHandler(newTestLogger(), "secret", "gallery_admin")
	handler.ShowLogin(ctx)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "evil.example") {
		t.Fatalf("foreign redirect target should not be rendered")
	}
}

func TestAuthHandlerSubmitLoginSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)

	form := make(url.Values)
	form.Set("passcode", "secret")
	form.Set("next", "/admin/g/travel/summer-roadtrip/edit")
	postForm(ctx, "/login", form)

	handler := handlers.NewAuthHandler(newTestLogger(), "secret", "gallery_admin")
	handler.SubmitLogin(ctx)
	ctx.Writer.WriteHeaderNow()

	if rec.Code != http.StatusFound {
		t.Fatalf("expected status 302, got %d", rec.Code)
	}
	if location := rec.Header().Get("Location"); location != "/admin/g/travel/summer-roadtrip/edit" {
		t.Fatalf("unexpected redirect %q", location)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "gallery_admin" {
		t.Fatalf("expected session cookie, got %v", cookies)
	}
	if cookies[0].Value != middleware.SessionToken("secret") {
		t.Fatalf("unexpected cookie value %q", cookies[0].Value)
	}
}

func TestAuthHandlerSubmitLoginDefaultsToGalleries(t *testing.T) {
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)

	form := make(url.Values)
	form.Set("passcode", "secret")
	form.Set("next", "https://evil.example/")
	postForm(ctx, "/login", form)

	handler := handlers.NewAuthHandler(newTestLogger(), "secret", "gallery_admin")
	handler.SubmitLogin(ctx)
	ctx.Writer.WriteHeaderNow()

	if location := rec.Header().Get("Location"); location != "/admin/galleries" {
		t.Fatalf("expected redirect to /admin/galleries, got %q", location)
	}
}

func TestAuthHandlerSubmitLoginRejectsWrongPasscode(t *testing.T) {
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)

	form := make(url.Values)
	form.Set("passcode", "guess")
	postForm(ctx, "/login", form)

	handler := handlers.NewAuthHandler(newTestLogger(), "secret", "gallery_admin")
	handler.SubmitLogin(ctx)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatalf("no cookie should be set on failure")
	}
}

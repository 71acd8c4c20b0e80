package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
)

// SessionToken derives the editor cookie value from the admin password, so a
// cookie stops working as soon as the password changes.
func SessionToken(password string) string {
	mac := hmac.New(sha256.New, []byte(password))
	mac.Write([]byte("gallery-editor-session"))
	return hex.EncodeToString(mac.Sum(nil))
}

// RequireAdmin only lets requests carrying a valid editor cookie through.
// Others are redirected to the login page with the original path in next.
func RequireAdmin(cookieName, password string) gin.HandlerFunc {
	want := []byte(SessionToken(password))

	return func(c *gin.Context) {
		if v, err := c.Cookie(cookieName); err == nil && hmac.Equal([]byte(v), want) {
			c.Next()
			return
		}

		redirectURL := "/login"
		if target := c.Request.URL.RequestURI(); target != "" && target != "/" {
			redirectURL += "?next=" + url.QueryEscape(target)
		}

		c.Redirect(http.StatusFound, redirectURL)
		c.Abort()
	}
}

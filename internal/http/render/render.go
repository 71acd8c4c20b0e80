package render

import (
	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
)

// HTML writes component as the response body with the given status. Render
// failures are attached to the context so the logging middleware reports them.
func HTML(c *gin.Context, status int, component templ.Component) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	if err := component.Render(c.Request.Context(), c.Writer); err != nil {
		_ = c.Error(err)
	}
}

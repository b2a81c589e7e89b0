package httpmiddleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
)

// Deadline bounds each request with a context timeout so a stalled storage
// round trip cannot hang the handler indefinitely. Zero disables it.
func Deadline(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

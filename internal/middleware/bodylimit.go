package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DefaultMaxBody is the request body cap applied to the JSON API.
const DefaultMaxBody int64 = 1 << 20

// MaxBodySize caps the request body. Oversized bodies fail JSON decoding and
// surface as 400 from the handlers.
func MaxBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			respondError(c, http.StatusRequestEntityTooLarge, "body_too_large", "Request body too large")
			return
		}

		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()
	}
}

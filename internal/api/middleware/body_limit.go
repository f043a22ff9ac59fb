package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"shiftboard/pkg/response"
)

// CodeBodyTooLarge request body over the configured limit
const CodeBodyTooLarge = 10005

// BodyLimit caps request bodies at maxBytes. Requests that declare a larger
// Content-Length are rejected up front; others fail on read.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, CodeBodyTooLarge, "request body too large")
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()

		if c.IsAborted() || c.Writer.Written() {
			return
		}
		var tooLarge *http.MaxBytesError
		for _, err := range c.Errors {
			if errors.As(err.Err, &tooLarge) {
				response.Error(c, http.StatusRequestEntityTooLarge, CodeBodyTooLarge, "request body too large")
				return
			}
		}
	}
}

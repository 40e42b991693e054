package middleware

import (
	"net/http"

	"sensorhub/telemetry-api/internal/apperr"

	"github.com/gin-gonic/gin"
)

// BodySizeLimiter caps how many bytes handlers can read from the body.
// Reading past the cap makes binding fail with *http.MaxBytesError.
func BodySizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Fast reject for honest clients
		if c.Request.ContentLength > maxBytes {
			apperr.Abort(c, apperr.TooLarge())
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

package middleware

import (
	"net/http"

	"github.com/brokercrm/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// BodyLimit caps the request body size. Requests declaring an oversized
// Content-Length are rejected before any handler runs; chunked bodies
// without a declared length are cut off by MaxBytesReader as soon as a
// handler reads past the cap.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				dto.NewErrorResponse(dto.ErrCodePayloadTooLarge, "Request body exceeds the allowed size"))
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

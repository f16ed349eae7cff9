package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/invrecon/backend/internal/interfaces/http/dto"
)

// BodyLimit returns a middleware that limits request body size. Ingested
// source files ride the request body, so the limit comes from configuration.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				dto.NewErrorResponse(dto.ErrCodeRequestTooLarge, "Request body exceeds maximum allowed size"))
			return
		}

		// Streaming requests without a declared length still get capped
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

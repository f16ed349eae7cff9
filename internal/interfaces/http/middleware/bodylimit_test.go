package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestBodyLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(limit int64) *gin.Engine {
		r := gin.New()
		r.Use(BodyLimit(limit))
		r.POST("/", func(c *gin.Context) {
			body, err := io.ReadAll(c.Request.Body)
			if err != nil {
				c.String(http.StatusRequestEntityTooLarge, "too large")
				return
			}
			c.String(http.StatusOK, "%d", len(body))
		})
		return r
	}

	t.Run("body within limit passes", func(t *testing.T) {
		r := newRouter(64)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/", bytes.NewBufferString("small body"))
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "10", w.Body.String())
	})

	t.Run("declared oversize body is rejected up front", func(t *testing.T) {
		r := newRouter(16)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/", bytes.NewBufferString(strings.Repeat("x", 64)))
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_REQUEST_TOO_LARGE")
	})

	t.Run("undeclared oversize body is capped by the reader", func(t *testing.T) {
		r := newRouter(16)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/", io.NopCloser(strings.NewReader(strings.Repeat("x", 64))))
		req.ContentLength = -1
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}

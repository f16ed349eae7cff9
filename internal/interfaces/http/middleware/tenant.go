// Package middleware provides gin middleware for the HTTP API.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/invrecon/backend/internal/interfaces/http/dto"
)

const (
	// TenantIDKey is the gin context key holding the resolved tenant id
	TenantIDKey = "tenant_id"
	// TenantHeaderKey is the request header carrying the tenant id
	TenantHeaderKey = "X-Tenant-ID"
)

// TenantConfig configures the tenant resolution middleware
type TenantConfig struct {
	// SkipPaths are path prefixes served without a tenant context
	SkipPaths []string
	// Required rejects requests without a tenant header when true
	Required bool
}

// DefaultTenantConfig returns the default tenant middleware configuration
func DefaultTenantConfig() TenantConfig {
	return TenantConfig{
		SkipPaths: []string{"/health", "/api/v1/system"},
		Required:  true,
	}
}

// Tenant returns a middleware that resolves the tenant from the
// X-Tenant-ID header using the default configuration
func Tenant() gin.HandlerFunc {
	return TenantWithConfig(DefaultTenantConfig())
}

// TenantWithConfig returns a tenant resolution middleware. Every data-bearing
// route runs behind it; repositories scope all queries by the resolved id.
func TenantWithConfig(cfg TenantConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, prefix := range cfg.SkipPaths {
			if strings.HasPrefix(c.Request.URL.Path, prefix) {
				c.Next()
				return
			}
		}

		raw := c.GetHeader(TenantHeaderKey)
		if raw == "" {
			if cfg.Required {
				respondUnauthorized(c, "Missing "+TenantHeaderKey+" header")
				return
			}
			c.Next()
			return
		}

		tenantID, err := uuid.Parse(raw)
		if err != nil || tenantID == uuid.Nil {
			respondUnauthorized(c, "Invalid tenant id")
			return
		}

		c.Set(TenantIDKey, tenantID.String())
		c.Next()
	}
}

func respondUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponse(dto.ErrCodeUnauthorized, message))
}

// GetTenantID returns the tenant id string from the context, or ""
func GetTenantID(c *gin.Context) string {
	if tenantID, exists := c.Get(TenantIDKey); exists {
		if s, ok := tenantID.(string); ok {
			return s
		}
	}
	return ""
}

// GetTenantUUID returns the tenant id as a UUID, or an error when the
// context has no valid tenant
func GetTenantUUID(c *gin.Context) (uuid.UUID, error) {
	return uuid.Parse(GetTenantID(c))
}

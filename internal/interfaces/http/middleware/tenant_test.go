package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/payables/internal/infrastructure/logger"
	"github.com/erp/payables/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestTenantMiddleware(t *testing.T) {
	defaultTenant := uuid.New()
	var seen uuid.UUID
	var logged string

	newEngine := func(cfg TenantMiddlewareConfig) *gin.Engine {
		engine := gin.New()
		engine.Use(TenantMiddleware(cfg))
		handler := func(c *gin.Context) {
			seen = GetTenantID(c)
			logged = logger.GetTenantID(c.Request.Context())
			c.Status(http.StatusOK)
		}
		engine.GET("/payables", handler)
		engine.GET("/health", handler)
		return engine
	}

	t.Run("header wins over default", func(t *testing.T) {
		tenant := uuid.New()
		req := httptest.NewRequest(http.MethodGet, "/payables", nil)
		req.Header.Set(TenantHeaderKey, tenant.String())
		w := serve(newEngine(TenantMiddlewareConfig{DefaultTenantID: defaultTenant}), req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, tenant, seen)
		assert.Equal(t, tenant.String(), logged)
	})

	t.Run("falls back to default", func(t *testing.T) {
		w := serve(newEngine(TenantMiddlewareConfig{DefaultTenantID: defaultTenant}), httptest.NewRequest(http.MethodGet, "/payables", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, defaultTenant, seen)
	})

	t.Run("required without default", func(t *testing.T) {
		w := serve(newEngine(TenantMiddlewareConfig{}), httptest.NewRequest(http.MethodGet, "/payables", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), dto.ErrCodeTenantRequired)
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/payables", nil)
		req.Header.Set(TenantHeaderKey, "acme")
		w := serve(newEngine(TenantMiddlewareConfig{DefaultTenantID: defaultTenant}), req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid tenant ID format")
	})

	t.Run("skip paths", func(t *testing.T) {
		seen = uuid.Nil
		w := serve(newEngine(DefaultTenantConfig()), httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, uuid.Nil, seen)
	})
}

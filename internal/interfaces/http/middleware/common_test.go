package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/erp/payables/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	var seen, fromContext string
	engine := gin.New()
	engine.Use(RequestID())
	engine.GET("/ping", func(c *gin.Context) {
		seen = c.GetString(RequestIDKey)
		fromContext = logger.GetRequestID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	t.Run("propagates client id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(RequestIDKey, "client-abc")
		w := serve(engine, req)

		assert.Equal(t, "client-abc", seen)
		assert.Equal(t, "client-abc", fromContext)
		assert.Equal(t, "client-abc", w.Header().Get(RequestIDKey))
	})

	t.Run("generates when missing", func(t *testing.T) {
		w := serve(engine, httptest.NewRequest(http.MethodGet, "/ping", nil))

		_, err := uuid.Parse(seen)
		require.NoError(t, err)
		assert.Equal(t, seen, w.Header().Get(RequestIDKey))
	})

	t.Run("replaces oversized id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(RequestIDKey, strings.Repeat("x", MaxRequestIDLength+1))
		serve(engine, req)

		_, err := uuid.Parse(seen)
		assert.NoError(t, err)
	})
}

func TestCORS(t *testing.T) {
	engine := gin.New()
	engine.Use(CORS([]string{"https://erp.example.com"}))
	engine.GET("/payables", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/payables", nil)
		req.Header.Set("Origin", "https://erp.example.com")
		w := serve(engine, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "https://erp.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "X-Tenant-ID")
	})

	t.Run("unknown origin gets no headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/payables", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		w := serve(engine, req)

		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/payables", nil)
		req.Header.Set("Origin", "https://erp.example.com")
		w := serve(engine, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "43200", w.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("wildcard", func(t *testing.T) {
		wildcard := gin.New()
		wildcard.Use(CORS([]string{"*"}))
		wildcard.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Origin", "https://anything.example.com")
		w := serve(wildcard, req)

		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	})
}

func TestTimeout(t *testing.T) {
	var deadline time.Time
	var hasDeadline bool
	engine := gin.New()
	engine.Use(Timeout(50 * time.Millisecond))
	engine.GET("/slow", func(c *gin.Context) {
		deadline, hasDeadline = c.Request.Context().Deadline()
		<-c.Request.Context().Done()
		assert.ErrorIs(t, c.Request.Context().Err(), context.DeadlineExceeded)
		c.Status(http.StatusGatewayTimeout)
	})

	w := serve(engine, httptest.NewRequest(http.MethodGet, "/slow", nil))

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.True(t, hasDeadline)
	assert.False(t, deadline.IsZero())
}

func TestTimeout_Disabled(t *testing.T) {
	var hasDeadline bool
	engine := gin.New()
	engine.Use(Timeout(0))
	engine.GET("/x", func(c *gin.Context) {
		_, hasDeadline = c.Request.Context().Deadline()
		c.Status(http.StatusOK)
	})

	serve(engine, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.False(t, hasDeadline)
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestTracingDisabledPassesThrough(t *testing.T) {
	r := gin.New()
	r.Use(TracingWithConfig(TracingConfig{Enabled: false}))
	r.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTracingEnabledDoesNotBreakRequests(t *testing.T) {
	// Without an SDK tracer provider the spans are no-ops; the middleware
	// must still let the request through untouched.
	r := gin.New()
	r.Use(Tracing(), SpanErrorMarker(), TracingAttributeInjector())
	r.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-Request-ID", "trace-req-1")
	req.Header.Set("X-Tenant-ID", "0f8fad5b-d9cb-469f-a165-70867728950e")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSpanRequestID(t *testing.T) {
	t.Run("prefers context value", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)
		c.Request.Header.Set("X-Request-ID", "from-header")
		c.Set("request_id", "from-context")

		assert.Equal(t, "from-context", spanRequestID(c))
	})

	t.Run("truncates oversized header values", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)
		long := make([]byte, MaxRequestIDLength*2)
		for i := range long {
			long[i] = 'a'
		}
		c.Request.Header.Set("X-Request-ID", string(long))

		assert.Len(t, spanRequestID(c), MaxRequestIDLength)
	})
}

func TestSpanTenantID(t *testing.T) {
	t.Run("prefers JWT claims", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)
		c.Set(JWTTenantIDKey, "claims-tenant")
		c.Request.Header.Set("X-Tenant-ID", "0f8fad5b-d9cb-469f-a165-70867728950e")

		assert.Equal(t, "claims-tenant", spanTenantID(c))
	})

	t.Run("accepts only UUID header values", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)
		c.Request.Header.Set("X-Tenant-ID", "not-a-uuid")

		assert.Empty(t, spanTenantID(c))

		c.Request.Header.Set("X-Tenant-ID", "0f8fad5b-d9cb-469f-a165-70867728950e")
		assert.Equal(t, "0f8fad5b-d9cb-469f-a165-70867728950e", spanTenantID(c))
	})
}

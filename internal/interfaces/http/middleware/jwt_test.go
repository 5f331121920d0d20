package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/erp/ledger/internal/infrastructure/auth"
	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJWTService(expiration time.Duration) *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-characters",
		AccessTokenExpiration: expiration,
		Issuer:                "obligation-ledger-test",
	})
}

func newAuthedRouter(svc *auth.JWTService) *gin.Engine {
	r := gin.New()
	r.Use(JWTAuthMiddleware(svc))
	r.GET("/api/v1/obligations", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"tenant_id": GetJWTTenantID(c),
			"user_id":   GetJWTUserID(c),
			"username":  GetJWTUsername(c),
		})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return r
}

func TestJWTAuthMiddleware(t *testing.T) {
	svc := newJWTService(time.Hour)
	tenantID := uuid.New()
	userID := uuid.New()

	t.Run("valid token passes and populates context", func(t *testing.T) {
		token, _, err := svc.GenerateToken(tenantID, userID, "accountant")
		require.NoError(t, err)

		r := newAuthedRouter(svc)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/obligations", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+token)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), tenantID.String())
		assert.Contains(t, w.Body.String(), userID.String())
		assert.Contains(t, w.Body.String(), "accountant")
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		r := newAuthedRouter(svc)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/obligations", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
	})

	t.Run("malformed header is rejected", func(t *testing.T) {
		r := newAuthedRouter(svc)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/obligations", nil)
		req.Header.Set(AuthHeaderKey, "Basic dXNlcjpwYXNz")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		r := newAuthedRouter(svc)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/obligations", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+"not.a.token")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
	})

	t.Run("expired token reports TOKEN_EXPIRED", func(t *testing.T) {
		expiredSvc := newJWTService(-time.Minute)
		token, _, err := expiredSvc.GenerateToken(tenantID, userID, "accountant")
		require.NoError(t, err)

		r := newAuthedRouter(expiredSvc)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/obligations", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+token)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "TOKEN_EXPIRED")
	})

	t.Run("token signed with a different secret is rejected", func(t *testing.T) {
		otherSvc := auth.NewJWTService(config.JWTConfig{
			Secret:                "another-secret-key-also-32-characters!",
			AccessTokenExpiration: time.Hour,
			Issuer:                "obligation-ledger-test",
		})
		token, _, err := otherSvc.GenerateToken(tenantID, userID, "accountant")
		require.NoError(t, err)

		r := newAuthedRouter(svc)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/obligations", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+token)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("skip paths bypass authentication", func(t *testing.T) {
		r := newAuthedRouter(svc)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("custom OnError callback is invoked", func(t *testing.T) {
		called := false
		cfg := DefaultJWTConfig(svc)
		cfg.OnError = func(c *gin.Context, err error) {
			called = true
			c.AbortWithStatus(http.StatusTeapot)
		}

		r := gin.New()
		r.Use(JWTAuthMiddlewareWithConfig(cfg))
		r.GET("/api/v1/obligations", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/obligations", nil)
		r.ServeHTTP(w, req)

		assert.True(t, called)
		assert.Equal(t, http.StatusTeapot, w.Code)
	})
}

func TestJWTContextGetters(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Nil(t, GetJWTClaims(c))
	assert.Empty(t, GetJWTUserID(c))
	assert.Empty(t, GetJWTTenantID(c))
	assert.Empty(t, GetJWTUsername(c))

	claims := &auth.Claims{TenantID: "t1", UserID: "u1", Username: "alice"}
	c.Set(JWTClaimsKey, claims)
	c.Set(JWTUserIDKey, claims.UserID)
	c.Set(JWTTenantIDKey, claims.TenantID)
	c.Set(JWTUsernameKey, claims.Username)

	assert.Equal(t, claims, GetJWTClaims(c))
	assert.Equal(t, "u1", GetJWTUserID(c))
	assert.Equal(t, "t1", GetJWTTenantID(c))
	assert.Equal(t, "alice", GetJWTUsername(c))
}

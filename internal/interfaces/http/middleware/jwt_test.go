package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopcore/backend/internal/infrastructure/auth"
	"github.com/shopcore/backend/internal/infrastructure/config"
)

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-at-least-32-characters-long",
		AccessTokenExpiration: time.Hour,
		Issuer:                "shop-backend-test",
	})
}

func newJWTTestEngine(cfg JWTMiddlewareConfig) *gin.Engine {
	engine := gin.New()
	engine.Use(JWTAuthMiddlewareWithConfig(cfg))
	engine.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetJWTUserID(c)})
	})
	engine.GET("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return engine
}

func TestJWTAuthMiddleware(t *testing.T) {
	jwtService := newTestJWTService()
	userID := uuid.New()

	t.Run("valid token passes and sets claims", func(t *testing.T) {
		engine := newJWTTestEngine(DefaultJWTConfig(jwtService))
		token, _, err := jwtService.GenerateToken(userID, "admin")
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), userID.String())
	})

	t.Run("missing header rejected", func(t *testing.T) {
		engine := newJWTTestEngine(DefaultJWTConfig(jwtService))

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest("GET", "/protected", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed header rejected", func(t *testing.T) {
		engine := newJWTTestEngine(DefaultJWTConfig(jwtService))

		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Token abc")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		engine := newJWTTestEngine(DefaultJWTConfig(jwtService))

		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
	})

	t.Run("skip path bypasses auth", func(t *testing.T) {
		engine := newJWTTestEngine(DefaultJWTConfig(jwtService))

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("blacklisted token rejected", func(t *testing.T) {
		blacklist := auth.NewInMemoryTokenBlacklist()
		cfg := DefaultJWTConfig(jwtService)
		cfg.TokenBlacklist = blacklist
		engine := newJWTTestEngine(cfg)

		token, _, err := jwtService.GenerateToken(userID, "admin")
		require.NoError(t, err)
		claims, err := jwtService.ValidateToken(token)
		require.NoError(t, err)
		require.NoError(t, blacklist.AddToBlacklist(context.Background(), claims.ID, time.Hour))

		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "TOKEN_REVOKED")
	})
}

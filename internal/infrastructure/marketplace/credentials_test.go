package marketplace

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopcore/backend/internal/domain/integration"
)

func newTokenServer(t *testing.T, expiresIn int64, calls *atomic.Int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/oauth2/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "client-id", r.PostForm.Get("client_id"))
		assert.NotEmpty(t, r.PostForm.Get("timestamp"))
		assert.NotEmpty(t, r.PostForm.Get("client_secret_sign"))

		n := calls.Add(1)
		_ = json.NewEncoder(w).Encode(tokenResponse{
			AccessToken: "token-" + string(rune('0'+n)),
			ExpiresIn:   expiresIn,
			TokenType:   "Bearer",
		})
	}))
}

func newTestProvider(t *testing.T, serverURL string) *OAuthCredentialProvider {
	config := NewConfig(serverURL, "client-id", "client-secret")
	provider, err := NewOAuthCredentialProvider(config)
	require.NoError(t, err)
	return provider
}

func TestOAuthCredentialProvider_Token(t *testing.T) {
	t.Run("caches the token across calls", func(t *testing.T) {
		var calls atomic.Int32
		server := newTokenServer(t, 3600, &calls)
		defer server.Close()

		provider := newTestProvider(t, server.URL)

		first, err := provider.Token(context.Background())
		require.NoError(t, err)
		second, err := provider.Token(context.Background())
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("refreshes proactively inside the expiry skew", func(t *testing.T) {
		var calls atomic.Int32
		server := newTokenServer(t, 3600, &calls)
		defer server.Close()

		provider := newTestProvider(t, server.URL)

		_, err := provider.Token(context.Background())
		require.NoError(t, err)

		// Jump to just inside the skew window before expiry
		provider.now = func() time.Time {
			return time.Now().Add(3600*time.Second - 30*time.Second)
		}

		_, err = provider.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("invalidate forces a fresh exchange", func(t *testing.T) {
		var calls atomic.Int32
		server := newTokenServer(t, 3600, &calls)
		defer server.Close()

		provider := newTestProvider(t, server.URL)

		first, err := provider.Token(context.Background())
		require.NoError(t, err)

		provider.Invalidate()

		second, err := provider.Token(context.Background())
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("rejected exchange maps to ErrMarketplaceAuthFailed", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		provider := newTestProvider(t, server.URL)

		_, err := provider.Token(context.Background())
		assert.ErrorIs(t, err, integration.ErrMarketplaceAuthFailed)
	})

	t.Run("empty access token maps to ErrMarketplaceInvalidResponse", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(tokenResponse{})
		}))
		defer server.Close()

		provider := newTestProvider(t, server.URL)

		_, err := provider.Token(context.Background())
		assert.ErrorIs(t, err, integration.ErrMarketplaceInvalidResponse)
	})
}

package marketplace

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopcore/backend/internal/domain/integration"
)

// CredentialProvider supplies a bearer credential for marketplace calls.
// Implementations cache the credential and refresh it when needed.
type CredentialProvider interface {
	// Token returns a currently valid bearer token, fetching a fresh one
	// when the cached credential is missing or about to expire.
	Token(ctx context.Context) (string, error)
	// Invalidate drops the cached credential so the next Token call
	// performs a fresh exchange. Called after an authorization failure.
	Invalidate()
}

// OAuthCredentialProvider exchanges client credentials for a short-lived
// bearer token at the marketplace token endpoint. The token request is
// signed with HMAC-SHA256 over client id and timestamp.
type OAuthCredentialProvider struct {
	config     *Config
	httpClient *http.Client

	mu        sync.Mutex
	token     string
	expiresAt time.Time

	// now is swapped out in tests
	now func() time.Time
}

// NewOAuthCredentialProvider creates a credential provider for the given configuration
func NewOAuthCredentialProvider(config *Config) (*OAuthCredentialProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &OAuthCredentialProvider{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		now: time.Now,
	}, nil
}

// Token returns the cached bearer token, refreshing it proactively when it
// is within the configured skew of its expiry.
func (p *OAuthCredentialProvider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" && p.now().Before(p.expiresAt.Add(-p.config.TokenSkew)) {
		return p.token, nil
	}

	token, expiresIn, err := p.exchange(ctx)
	if err != nil {
		return "", err
	}

	p.token = token
	p.expiresAt = p.now().Add(time.Duration(expiresIn) * time.Second)
	return p.token, nil
}

// Invalidate drops the cached credential
func (p *OAuthCredentialProvider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = ""
	p.expiresAt = time.Time{}
}

// exchange performs the credential exchange. Caller holds the mutex.
func (p *OAuthCredentialProvider) exchange(ctx context.Context) (string, int64, error) {
	timestamp := strconv.FormatInt(p.now().UnixMilli(), 10)

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", p.config.ClientID)
	form.Set("timestamp", timestamp)
	form.Set("client_secret_sign", p.sign(timestamp))

	endpoint := p.config.AuthBaseURL + "/v1/oauth2/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, fmt.Errorf("marketplace: failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", integration.ErrMarketplaceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", 0, fmt.Errorf("marketplace: failed to read token response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", 0, fmt.Errorf("%w: HTTP %d", integration.ErrMarketplaceAuthFailed, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return "", 0, fmt.Errorf("%w: token endpoint returned HTTP %d", integration.ErrMarketplaceRequestFailed, resp.StatusCode)
	}

	var payload tokenResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", 0, fmt.Errorf("%w: %v", integration.ErrMarketplaceInvalidResponse, err)
	}
	if payload.AccessToken == "" {
		return "", 0, fmt.Errorf("%w: empty access token", integration.ErrMarketplaceInvalidResponse)
	}
	if payload.ExpiresIn <= 0 {
		payload.ExpiresIn = 3600
	}

	return payload.AccessToken, payload.ExpiresIn, nil
}

// sign computes the HMAC-SHA256 signature over client id and timestamp
func (p *OAuthCredentialProvider) sign(timestamp string) string {
	h := hmac.New(sha256.New, []byte(p.config.ClientSecret))
	h.Write([]byte(p.config.ClientID + "_" + timestamp))
	return hex.EncodeToString(h.Sum(nil))
}

// Ensure OAuthCredentialProvider implements CredentialProvider
var _ CredentialProvider = (*OAuthCredentialProvider)(nil)

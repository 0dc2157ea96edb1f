package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/shopcore/backend/internal/domain/integration"
)

const (
	// maxResponseSize limits the response body size to prevent memory exhaustion
	maxResponseSize = 10 * 1024 * 1024 // 10MB max response

	// rateBackoffBase is the base wait for a rate-limited retry
	rateBackoffBase = 500 * time.Millisecond
	// rateBackoffCap bounds a single backoff window
	rateBackoffCap = 5 * time.Second
)

// Client implements integration.MarketplaceGateway against the marketplace
// REST API. Every call goes through a retry wrapper: an authorization
// failure invalidates the cached credential and retries the call exactly
// once; rate limiting backs off a randomized bounded window and retries up
// to the configured ceiling, after which the error propagates untransformed.
type Client struct {
	config      *Config
	credentials CredentialProvider
	httpClient  *http.Client
	logger      *zap.Logger

	// sleep is swapped out in tests to avoid real waits
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a marketplace client with the given configuration
func NewClient(config *Config, credentials CredentialProvider, logger *zap.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if credentials == nil {
		return nil, integration.ErrMarketplaceNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		config:      config,
		credentials: credentials,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		logger: logger.Named("marketplace"),
		sleep:  sleepContext,
	}, nil
}

// sleepContext waits out d unless the context is cancelled first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ---------------------------------------------------------------------------
// Product Operations
// ---------------------------------------------------------------------------

// GetProduct retrieves a product by its catalog-wide id
func (c *Client) GetProduct(ctx context.Context, productID string) (*integration.MarketplaceProduct, error) {
	if productID == "" {
		return nil, integration.ErrProductNotFound
	}

	body, err := c.call(ctx, http.MethodGet, "/v1/products/"+url.PathEscape(productID), nil, nil)
	if err != nil {
		return nil, err
	}

	return c.parseProduct(body)
}

// GetChannelProduct retrieves a product by its per-channel listing id
func (c *Client) GetChannelProduct(ctx context.Context, channelProductID string) (*integration.MarketplaceProduct, error) {
	if channelProductID == "" {
		return nil, integration.ErrProductNotFound
	}

	body, err := c.call(ctx, http.MethodGet, "/v1/channel-products/"+url.PathEscape(channelProductID), nil, nil)
	if err != nil {
		return nil, err
	}

	return c.parseProduct(body)
}

// SearchProducts retrieves one page of the remote catalog
func (c *Client) SearchProducts(ctx context.Context, req integration.SearchRequest) (*integration.SearchPage, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = c.config.SearchPageSize
	}

	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("size", strconv.Itoa(pageSize))
	if req.OnSaleOnly {
		query.Set("saleStatus", integration.SaleStatusOnSale)
	}

	body, err := c.call(ctx, http.MethodGet, "/v1/products/search", query, nil)
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrMarketplaceInvalidResponse, err)
	}

	result := &integration.SearchPage{
		Page:       page,
		TotalCount: resp.TotalElements,
		HasMore:    page < resp.TotalPages,
	}
	for i := range resp.Contents {
		result.Products = append(result.Products, *toDomainProduct(&resp.Contents[i]))
	}

	return result, nil
}

// ---------------------------------------------------------------------------
// Stock Operations
// ---------------------------------------------------------------------------

// UpdateProductStock sets the absolute stock quantity of a product
func (c *Client) UpdateProductStock(ctx context.Context, productID string, stock int64) error {
	if productID == "" {
		return integration.ErrProductNotFound
	}

	path := "/v1/products/" + url.PathEscape(productID) + "/stock"
	_, err := c.call(ctx, http.MethodPut, path, nil, stockUpdateRequest{StockQuantity: stock})
	return err
}

// UpdateOptionStock sets the absolute stock quantity of a single option of
// a channel product
func (c *Client) UpdateOptionStock(ctx context.Context, channelProductID, optionID string, stock int64) error {
	if channelProductID == "" || optionID == "" {
		return integration.ErrOptionNotFound
	}

	path := "/v1/channel-products/" + url.PathEscape(channelProductID) +
		"/options/" + url.PathEscape(optionID) + "/stock"
	_, err := c.call(ctx, http.MethodPut, path, nil, stockUpdateRequest{StockQuantity: stock})
	return err
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

// call performs a bearer-authenticated request with the retry policy applied
func (c *Client) call(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	authRetried := false
	rateRetries := 0

	for {
		status, body, err := c.doRequest(ctx, method, path, query, payload)
		if err != nil {
			return nil, err
		}

		switch {
		case status == http.StatusUnauthorized:
			if !authRetried {
				authRetried = true
				c.credentials.Invalidate()
				c.logger.Debug("credential rejected, retrying with a fresh token",
					zap.String("path", path))
				continue
			}
			return nil, fmt.Errorf("%w: HTTP %d", integration.ErrMarketplaceAuthFailed, status)

		case status == http.StatusTooManyRequests:
			if rateRetries < c.config.MaxRateRetries {
				wait := rateBackoff(rateRetries)
				rateRetries++
				c.logger.Debug("rate limited, backing off",
					zap.String("path", path),
					zap.Duration("wait", wait),
					zap.Int("attempt", rateRetries))
				if err := c.sleep(ctx, wait); err != nil {
					return nil, err
				}
				continue
			}
			return nil, fmt.Errorf("%w: HTTP %d after %d retries", integration.ErrMarketplaceRateLimited, status, rateRetries)

		case status == http.StatusNotFound:
			return nil, fmt.Errorf("%w: %s", integration.ErrProductNotFound, apiErrorMessage(body))

		case status >= 400:
			return nil, fmt.Errorf("%w: HTTP %d %s", integration.ErrMarketplaceRequestFailed, status, apiErrorMessage(body))
		}

		return body, nil
	}
}

// doRequest performs a single HTTP round trip
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, payload any) (int, []byte, error) {
	token, err := c.credentials.Token(ctx)
	if err != nil {
		return 0, nil, err
	}

	endpoint := c.config.APIBaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("marketplace: failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("marketplace: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", integration.ErrMarketplaceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return 0, nil, fmt.Errorf("marketplace: failed to read response: %w", err)
	}

	return resp.StatusCode, body, nil
}

// parseProduct unmarshals a single-product response
func (c *Client) parseProduct(body []byte) (*integration.MarketplaceProduct, error) {
	var resp productResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrMarketplaceInvalidResponse, err)
	}
	if resp.Product == nil {
		return nil, integration.ErrProductNotFound
	}
	return toDomainProduct(resp.Product), nil
}

// rateBackoff returns a randomized exponential backoff window for the given
// retry attempt, bounded by rateBackoffCap
func rateBackoff(attempt int) time.Duration {
	if attempt > 10 {
		attempt = 10
	}
	base := rateBackoffBase * time.Duration(1<<uint(attempt))
	if base > rateBackoffCap {
		base = rateBackoffCap
	}
	// Jitter spreads concurrent callers across the window
	jitter := time.Duration(rand.Int63n(int64(rateBackoffBase)))
	return base + jitter
}

// apiErrorMessage extracts the error message from an error envelope, falling
// back to the raw body
func apiErrorMessage(body []byte) string {
	var resp errorResponse
	if err := json.Unmarshal(body, &resp); err == nil && resp.Message != "" {
		if resp.Code != "" {
			return resp.Code + ": " + resp.Message
		}
		return resp.Message
	}
	if len(body) > 200 {
		body = body[:200]
	}
	return string(body)
}

// Ensure Client implements MarketplaceGateway
var _ integration.MarketplaceGateway = (*Client)(nil)

package marketplace

import (
	"errors"
	"time"
)

// Config holds configuration for the marketplace API integration
type Config struct {
	// APIBaseURL is the base URL for catalog and stock endpoints
	APIBaseURL string
	// AuthBaseURL is the base URL for the credential exchange endpoint.
	// Defaults to APIBaseURL when empty.
	AuthBaseURL string
	// ClientID is the application id issued by the marketplace
	ClientID string
	// ClientSecret is the application secret used to sign token requests
	ClientSecret string
	// ChannelID identifies the sales channel for channel-product operations
	ChannelID string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
	// MaxRateRetries is the retry ceiling for rate-limited calls
	MaxRateRetries int
	// SearchPageSize is the page size for catalog search
	SearchPageSize int
	// TokenSkew is subtracted from the token expiry so a credential is
	// refreshed slightly before the marketplace stops accepting it
	TokenSkew time.Duration
}

// Errors for marketplace configuration
var (
	ErrConfigMissingBaseURL      = errors.New("marketplace: api base url is required")
	ErrConfigMissingClientID     = errors.New("marketplace: client id is required")
	ErrConfigMissingClientSecret = errors.New("marketplace: client secret is required")
)

// NewConfig creates a marketplace configuration with defaults
func NewConfig(apiBaseURL, clientID, clientSecret string) *Config {
	return &Config{
		APIBaseURL:     apiBaseURL,
		ClientID:       clientID,
		ClientSecret:   clientSecret,
		TimeoutSeconds: 30,
		MaxRateRetries: 3,
		SearchPageSize: 100,
		TokenSkew:      time.Minute,
	}
}

// Validate validates the marketplace configuration
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return ErrConfigMissingBaseURL
	}
	if c.ClientID == "" {
		return ErrConfigMissingClientID
	}
	if c.ClientSecret == "" {
		return ErrConfigMissingClientSecret
	}
	if c.AuthBaseURL == "" {
		c.AuthBaseURL = c.APIBaseURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	if c.MaxRateRetries <= 0 {
		c.MaxRateRetries = 3
	}
	if c.SearchPageSize <= 0 {
		c.SearchPageSize = 100
	}
	if c.TokenSkew <= 0 {
		c.TokenSkew = time.Minute
	}
	return nil
}

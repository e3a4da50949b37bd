package config

import (
	"fmt"
	"strings"
)

// UpstreamURLs contains the school API endpoints the gateway calls.
type UpstreamURLs struct {
	// TokenURL is the OAuth2 token endpoint.
	TokenURL string
	// MeURL returns the user owning a bearer token.
	MeURL string

	base string
}

// LocationsURL returns the locations endpoint for userID.
func (u UpstreamURLs) LocationsURL(userID int64) string {
	return fmt.Sprintf("%s/v2/users/%d/locations", u.base, userID)
}

// UpstreamURLs derives the school API endpoints from API_42_BASE_URL.
//
// Example usage:
//
//	cfg, _ := config.Load()
//	urls := cfg.UpstreamURLs()
//	tokenURL := urls.TokenURL
func (c *Config) UpstreamURLs() UpstreamURLs {
	base := strings.TrimRight(c.API42.BaseURL, "/")
	return UpstreamURLs{
		TokenURL: base + "/oauth/token",
		MeURL:    base + "/v2/me",
		base:     base,
	}
}

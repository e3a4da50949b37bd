package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arnaudderison/logtime19/internal/config"
)

func TestConfig_UpstreamURLs(t *testing.T) {
	tests := []struct {
		name          string
		baseURL       string
		wantToken     string
		wantMe        string
		wantLocations string
	}{
		{
			name:          "default_school_api",
			baseURL:       "https://api.intra.42.fr",
			wantToken:     "https://api.intra.42.fr/oauth/token",
			wantMe:        "https://api.intra.42.fr/v2/me",
			wantLocations: "https://api.intra.42.fr/v2/users/4242/locations",
		},
		{
			name:          "trailing_slash_trimmed",
			baseURL:       "http://127.0.0.1:8080/",
			wantToken:     "http://127.0.0.1:8080/oauth/token",
			wantMe:        "http://127.0.0.1:8080/v2/me",
			wantLocations: "http://127.0.0.1:8080/v2/users/4242/locations",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{API42: config.API42Config{BaseURL: tt.baseURL}}

			urls := cfg.UpstreamURLs()

			assert.Equal(t, tt.wantToken, urls.TokenURL)
			assert.Equal(t, tt.wantMe, urls.MeURL)
			assert.Equal(t, tt.wantLocations, urls.LocationsURL(4242))
		})
	}
}

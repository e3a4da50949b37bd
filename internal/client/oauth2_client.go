package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"

	"github.com/arnaudderison/logtime19/internal/models"
)

// ErrEmptyAccessToken is returned when the token endpoint answers 2xx
// without an access token.
var ErrEmptyAccessToken = errors.New("token endpoint returned no access token")

// Credentials identify the registered application to the token endpoint.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// OAuth2Client extends BaseClient with the authorization-code exchange and
// bearer-forwarded requests. It never stores user tokens.
type OAuth2Client struct {
	*BaseClient // Embedded - inherits all BaseClient methods

	tokenURL    string
	credentials Credentials
}

// NewOAuth2Client creates a new OAuth2-enabled HTTP client.
//
// Parameters:
//   - baseClient: Base HTTP client for core operations
//   - tokenURL: the upstream token endpoint
//   - credentials: application id, secret and redirect URI
func NewOAuth2Client(
	baseClient *BaseClient,
	tokenURL string,
	credentials Credentials,
) *OAuth2Client {
	return &OAuth2Client{
		BaseClient:  baseClient,
		tokenURL:    tokenURL,
		credentials: credentials,
	}
}

// ExchangeCode trades an authorization code for an access token using the
// stored application credentials.
func (c *OAuth2Client) ExchangeCode(ctx context.Context, code string) (*models.UpstreamToken, error) {
	grant := models.AuthorizationCodeGrant{
		GrantType:    models.GrantAuthorizationCode,
		ClientID:     c.credentials.ClientID,
		ClientSecret: c.credentials.ClientSecret,
		Code:         code,
		RedirectURI:  c.credentials.RedirectURI,
	}

	var token models.UpstreamToken
	if err := c.DoJSON(ctx, http.MethodPost, c.tokenURL, grant, &token); err != nil {
		return nil, fmt.Errorf("authorization code exchange failed: %w", err)
	}
	if token.AccessToken == "" {
		return nil, ErrEmptyAccessToken
	}

	c.logger.WithFields(logrus.Fields{
		"token_type": token.TokenType,
		"expires_in": token.ExpiresIn,
		"scope":      token.Scope,
	}).Debug("Exchanged authorization code")

	return &token, nil
}

// DoWithBearer executes a JSON request authenticated with the caller's bearer
// token and decodes the answer into out.
func (c *OAuth2Client) DoWithBearer(
	ctx context.Context,
	method string,
	path string,
	token string,
	query url.Values,
	out interface{},
) error {
	opts := []RequestOption{WithBearer(token)}
	if len(query) > 0 {
		opts = append(opts, WithQuery(query))
	}
	return c.DoJSON(ctx, method, path, nil, out, opts...)
}

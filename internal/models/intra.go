// Package models defines the wire types exchanged with the browser and with
// the 42 intranet API, together with the gateway's error envelope.
package models

import (
	"encoding/json"
	"time"
)

// TimestampLayout is the layout of timestamps emitted by the gateway. It
// matches the millisecond UTC format used by the 42 API.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// GrantAuthorizationCode is the only OAuth2 grant the gateway performs.
const GrantAuthorizationCode = "authorization_code"

// Field names reported in Location.Malformed.
const (
	FieldRecord  = "record"
	FieldBeginAt = "begin_at"
	FieldEndAt   = "end_at"
	FieldHost    = "host"
)

// Location is one session record as returned by
// /v2/users/{id}/locations and as forwarded to the UI by /logs.
// EndAt is nil while the user is still logged in.
type Location struct {
	BeginAt string  `json:"begin_at"`
	EndAt   *string `json:"end_at"`
	Host    string  `json:"host"`

	// Malformed names the first field that did not decode, or FieldRecord
	// when the element is not an object. Empty for well-formed records.
	Malformed string `json:"-"`
}

// UnmarshalJSON decodes a record without ever failing on its content, so a
// single bad element does not reject the whole page. Bad fields are
// reported through Malformed.
func (l *Location) UnmarshalJSON(data []byte) error {
	*l = Location{}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		l.Malformed = FieldRecord
		return nil
	}

	fields := []struct {
		name string
		dst  interface{}
	}{
		{FieldBeginAt, &l.BeginAt},
		{FieldEndAt, &l.EndAt},
		{FieldHost, &l.Host},
	}
	for _, f := range fields {
		value, ok := raw[f.name]
		if !ok {
			continue
		}
		if err := json.Unmarshal(value, f.dst); err != nil && l.Malformed == "" {
			l.Malformed = f.name
		}
	}
	if l.Malformed == FieldEndAt {
		l.EndAt = nil
	}
	return nil
}

// FormatTimestamp renders an instant in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// User is the subset of /v2/me the gateway reads and returns from
// /auth/validate.
type User struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
}

// CodeExchangeRequest is the body accepted by POST /oauth/token.
type CodeExchangeRequest struct {
	Code string `json:"code"`
}

// AccessTokenResponse is the only part of the upstream token answer surfaced
// to the browser.
type AccessTokenResponse struct {
	AccessToken string `json:"access_token"`
}

// ValidateRequest is the body accepted by POST /auth/validate.
type ValidateRequest struct {
	Token string `json:"token"`
}

// AuthorizationCodeGrant is the body POSTed to the upstream token endpoint.
type AuthorizationCodeGrant struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Code         string `json:"code"`
	RedirectURI  string `json:"redirect_uri"`
}

// UpstreamToken is the upstream token answer. Only AccessToken leaves the
// gateway.
type UpstreamToken struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope"`
	CreatedAt    int64  `json:"created_at"`
}

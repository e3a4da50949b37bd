// Package constants contains shared HTTP header names and
// common content type strings used across the gateway.
package constants

// Header names commonly used across the application.
const (
	// HeaderAccept is the HTTP "Accept" header name.
	HeaderAccept = "Accept"

	// HeaderAuthorization is the HTTP "Authorization" header name.
	HeaderAuthorization = "Authorization"

	// HeaderContentType is the HTTP "Content-Type" header name.
	HeaderContentType = "Content-Type"

	// HeaderOrigin is the HTTP "Origin" header name.
	HeaderOrigin = "Origin"

	// HeaderUserAgent is the HTTP "User-Agent" header name.
	HeaderUserAgent = "User-Agent"

	// HeaderXRequestID is the custom request ID header name.
	HeaderXRequestID = "X-Request-ID"
)

// BearerPrefix starts an Authorization header carrying a bearer token.
const BearerPrefix = "Bearer "

// UserAgent identifies the gateway to the school API.
const UserAgent = "logtime19-gateway"

// Common media / content types used in requests and responses.
const (
	// ContentTypeJSON represents "application/json".
	ContentTypeJSON = "application/json"
)

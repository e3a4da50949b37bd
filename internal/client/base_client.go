// Package client provides the HTTP plumbing used to call the school API:
// JSON marshaling, per-call deadlines, bearer forwarding and typed upstream
// errors.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/arnaudderison/logtime19/internal/constants"
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// UpstreamError is returned for any non-2xx answer from the school API.
type UpstreamError struct {
	// StatusCode is the upstream HTTP status.
	StatusCode int
	// Message is the upstream error description, if it sent one.
	Message string
	// Endpoint is the method and path that failed.
	Endpoint string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: HTTP %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

// IsClientError reports whether the upstream rejected the request (4xx).
func (e *UpstreamError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// IsTimeout reports whether err comes from an exceeded deadline.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// RequestOption customizes an outgoing request.
type RequestOption func(*http.Request)

// WithBearer sets the Authorization header to a bearer token.
func WithBearer(token string) RequestOption {
	return func(r *http.Request) {
		r.Header.Set(constants.HeaderAuthorization, constants.BearerPrefix+token)
	}
}

// WithQuery replaces the request query string.
func WithQuery(query url.Values) RequestOption {
	return func(r *http.Request) {
		r.URL.RawQuery = query.Encode()
	}
}

// BaseClient provides core HTTP client functionality for calling the school API.
// It handles request/response marshaling, error parsing, and logging. A single
// BaseClient, and thus a single pooled transport, is shared by the process.
type BaseClient struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	logger     *logrus.Logger
}

// NewBaseClient creates a new BaseClient for HTTP operations.
//
// Parameters:
//   - baseURL: Base URL for the API (e.g., "https://api.intra.42.fr")
//   - timeout: deadline applied to each call made through DoJSON
//   - logger: Structured logger for HTTP operations
func NewBaseClient(
	baseURL string,
	timeout time.Duration,
	logger *logrus.Logger,
) *BaseClient {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 16

	return &BaseClient{
		httpClient: &http.Client{Transport: transport},
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
		logger:     logger,
	}
}

// Do executes an HTTP request with JSON marshaling.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - method: HTTP method (GET, POST, PUT, DELETE, etc.)
//   - path: Path relative to baseURL (e.g., "/v2/me"), or an absolute URL
//   - body: Request body to be JSON-encoded (nil for GET requests)
//
// Returns the HTTP response. Caller is responsible for closing response body.
func (c *BaseClient) Do(
	ctx context.Context,
	method string,
	path string,
	body interface{},
	opts ...RequestOption,
) (*http.Response, error) {
	target := c.resolve(path)

	// Marshal request body if provided
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	if body != nil {
		req.Header.Set(constants.HeaderContentType, constants.ContentTypeJSON)
	}
	req.Header.Set(constants.HeaderAccept, constants.ContentTypeJSON)
	req.Header.Set(constants.HeaderUserAgent, constants.UserAgent)
	for _, opt := range opts {
		opt(req)
	}

	fields := logrus.Fields{
		"method": method,
		"url":    req.URL.Redacted(),
	}
	c.logger.WithFields(fields).Debug("Sending HTTP request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithFields(fields).WithError(err).Error("HTTP request failed")
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}

	c.logger.WithFields(fields).WithFields(logrus.Fields{
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Received HTTP response")

	return resp, nil
}

// DoJSON executes a request under the client deadline and decodes a 2xx body
// into out. Non-2xx answers are returned as *UpstreamError. out may be nil.
func (c *BaseClient) DoJSON(
	ctx context.Context,
	method string,
	path string,
	body interface{},
	out interface{},
	opts ...RequestOption,
) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.Do(ctx, method, path, body, opts...)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return c.ParseErrorResponse(resp, method+" "+endpointPath(path))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", endpointPath(path), err)
	}
	return nil
}

// BaseURL returns the configured base URL for this client.
func (c *BaseClient) BaseURL() string {
	return c.baseURL
}

// Timeout returns the deadline applied to each call.
func (c *BaseClient) Timeout() time.Duration {
	return c.timeout
}

// ParseErrorResponse reads an error response body into an *UpstreamError.
// The school API uses either {"error", "error_description"} or
// {"error", "message"}.
func (c *BaseClient) ParseErrorResponse(resp *http.Response, endpoint string) error {
	upstreamErr := &UpstreamError{StatusCode: resp.StatusCode, Endpoint: endpoint}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return upstreamErr
	}

	var errResp struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
		Message          string `json:"message"`
	}
	if json.Unmarshal(raw, &errResp) != nil {
		return upstreamErr
	}

	switch {
	case errResp.ErrorDescription != "":
		upstreamErr.Message = errResp.ErrorDescription
	case errResp.Message != "":
		upstreamErr.Message = errResp.Message
	default:
		upstreamErr.Message = errResp.Error
	}
	return upstreamErr
}

func (c *BaseClient) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL + path
}

// endpointPath strips scheme and host so errors never carry full URLs.
func endpointPath(path string) string {
	u, err := url.Parse(path)
	if err != nil || u.Path == "" {
		return path
	}
	return u.Path
}

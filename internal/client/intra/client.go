// Package intra provides the client for the 42 intranet API endpoints used by
// the gateway.
package intra

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/arnaudderison/logtime19/internal/client"
	"github.com/arnaudderison/logtime19/internal/config"
	"github.com/arnaudderison/logtime19/internal/models"
)

// Endpoint labels reported to the Recorder.
const (
	EndpointToken     = "token"
	EndpointMe        = "me"
	EndpointLocations = "locations"
)

// Call outcomes reported to the Recorder.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
	OutcomeTimeout  = "timeout"
)

// Recorder observes every upstream call.
type Recorder interface {
	ObserveUpstream(endpoint, outcome string, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveUpstream(string, string, time.Duration) {}

// Options tunes location paging.
type Options struct {
	// PageSize is sent as page[size].
	PageSize int
	// MaxPages caps the pages fetched for one request.
	MaxPages int
	// Recorder receives one observation per upstream call. Optional.
	Recorder Recorder
}

// Client provides methods for interacting with the 42 intranet API.
type Client struct {
	*client.OAuth2Client // Embedded - inherits ExchangeCode and DoWithBearer

	urls     config.UpstreamURLs
	pageSize int
	maxPages int
	recorder Recorder
	logger   *logrus.Logger
}

// NewClient creates a new intranet client on top of oauth2Client.
func NewClient(
	oauth2Client *client.OAuth2Client,
	urls config.UpstreamURLs,
	opts Options,
	logger *logrus.Logger,
) *Client {
	if opts.PageSize < 1 {
		opts.PageSize = config.MaxPageSize
	}
	if opts.MaxPages < 1 {
		opts.MaxPages = 1
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	return &Client{
		OAuth2Client: oauth2Client,
		urls:         urls,
		pageSize:     opts.PageSize,
		maxPages:     opts.MaxPages,
		recorder:     opts.Recorder,
		logger:       logger,
	}
}

// ExchangeCode trades an authorization code for an access token.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*models.UpstreamToken, error) {
	start := time.Now()
	token, err := c.OAuth2Client.ExchangeCode(ctx, code)
	c.recorder.ObserveUpstream(EndpointToken, outcome(err), time.Since(start))
	return token, err
}

// Me returns the user owning token.
func (c *Client) Me(ctx context.Context, token string) (*models.User, error) {
	start := time.Now()
	var user models.User
	err := c.DoWithBearer(ctx, http.MethodGet, c.urls.MeURL, token, nil, &user)
	c.recorder.ObserveUpstream(EndpointMe, outcome(err), time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch current user: %w", err)
	}
	return &user, nil
}

// Locations returns the location records of userID between begin and end,
// walking pages until a short page or the page cap. The result is never nil.
func (c *Client) Locations(
	ctx context.Context,
	token string,
	userID int64,
	begin time.Time,
	end time.Time,
) ([]models.Location, error) {
	endpoint := c.urls.LocationsURL(userID)
	locations := make([]models.Location, 0, c.pageSize)

	for page := 1; page <= c.maxPages; page++ {
		query := url.Values{
			"begin_at":     {models.FormatTimestamp(begin)},
			"end_at":       {models.FormatTimestamp(end)},
			"page[size]":   {strconv.Itoa(c.pageSize)},
			"page[number]": {strconv.Itoa(page)},
		}

		start := time.Now()
		var batch []models.Location
		err := c.DoWithBearer(ctx, http.MethodGet, endpoint, token, query, &batch)
		c.recorder.ObserveUpstream(EndpointLocations, outcome(err), time.Since(start))
		if err != nil {
			return nil, fmt.Errorf("failed to fetch locations page %d: %w", page, err)
		}

		locations = append(locations, batch...)
		if len(batch) < c.pageSize {
			return locations, nil
		}
	}

	c.logger.WithFields(logrus.Fields{
		"user_id":   userID,
		"max_pages": c.maxPages,
		"records":   len(locations),
	}).Warn("Location listing truncated at page cap")

	return locations, nil
}

func outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	if client.IsTimeout(err) {
		return OutcomeTimeout
	}
	var upstreamErr *client.UpstreamError
	if errors.As(err, &upstreamErr) && upstreamErr.IsClientError() {
		return OutcomeRejected
	}
	return OutcomeError
}

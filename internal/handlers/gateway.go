// Package handlers provides the HTTP handlers of the gateway: the three API
// endpoints used by the UI and the health endpoints of the ops listener.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/arnaudderison/logtime19/internal/client"
	"github.com/arnaudderison/logtime19/internal/constants"
	"github.com/arnaudderison/logtime19/internal/logtime"
	"github.com/arnaudderison/logtime19/internal/metrics"
	"github.com/arnaudderison/logtime19/internal/models"
	"github.com/arnaudderison/logtime19/internal/session"
	"github.com/arnaudderison/logtime19/pkg/logger"
)

// Route paths served by the gateway.
const (
	RouteToken    = "/oauth/token"
	RouteValidate = "/auth/validate"
	RouteLogs     = "/logs"
)

// maxBodyBytes bounds POST bodies.
const maxBodyBytes = 1 << 20

const (
	invalidBodyError    = "Request body must be a JSON object"
	upstreamFailedError = "Failed to reach the 42 API"
	upstreamTimeoutMsg  = "The 42 API did not answer in time"
	tokenRejectedError  = "Token rejected by the 42 API"
	encodingFailedError = "Failed to encode response"
)

// Upstream is the part of the school API the gateway uses.
type Upstream interface {
	ExchangeCode(ctx context.Context, code string) (*models.UpstreamToken, error)
	Me(ctx context.Context, token string) (*models.User, error)
	Locations(ctx context.Context, token string, userID int64, begin, end time.Time) ([]models.Location, error)
}

// GatewayHandler handles the token exchange, token validation and session
// listing endpoints. It holds no per-user state.
type GatewayHandler struct {
	upstream Upstream
	metrics  *metrics.Metrics
	logger   *logrus.Logger
	now      func() time.Time
	deadline time.Duration
}

// NewGatewayHandler creates the gateway handler. m may be nil.
func NewGatewayHandler(upstream Upstream, m *metrics.Metrics, logger *logrus.Logger) *GatewayHandler {
	return &GatewayHandler{
		upstream: upstream,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// WithDeadline bounds the upstream work of each request. Every call made for
// one request shares it; zero leaves only the per-call bound.
func (h *GatewayHandler) WithDeadline(d time.Duration) *GatewayHandler {
	h.deadline = d
	return h
}

// WithClock replaces the clock used to take the capture time.
func (h *GatewayHandler) WithClock(now func() time.Time) *GatewayHandler {
	h.now = now
	return h
}

// RegisterRoutes registers the three API endpoints and JSON answers for
// unknown routes and methods.
func (h *GatewayHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc(RouteToken, h.Token).Methods(http.MethodPost)
	r.HandleFunc(RouteValidate, h.Validate).Methods(http.MethodPost)
	r.HandleFunc(RouteLogs, h.Logs).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		h.writeError(w, req, models.NewNotFound())
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		h.writeError(w, req, models.NewMethodNotAllowed(req.Method))
	})
}

// Token exchanges an authorization code for an access token.
func (h *GatewayHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req models.CodeExchangeRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, r, models.NewInvalidRequest(invalidBodyError))
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		h.writeError(w, r, models.NewInvalidRequest("code is required"))
		return
	}

	ctx, cancel := h.upstreamContext(r)
	defer cancel()

	token, err := h.upstream.ExchangeCode(ctx, req.Code)
	if err != nil {
		h.writeUpstreamError(w, r, err, false)
		return
	}

	h.entry(r).Info("Authorization code exchanged")
	h.writeJSON(w, http.StatusOK, models.AccessTokenResponse{AccessToken: token.AccessToken})
}

// Validate resolves a token to the user owning it. Any upstream rejection
// answers 401.
func (h *GatewayHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req models.ValidateRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, r, models.NewInvalidRequest(invalidBodyError))
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		h.writeError(w, r, models.NewInvalidRequest("token is required"))
		return
	}

	ctx, cancel := h.upstreamContext(r)
	defer cancel()

	user, err := h.upstream.Me(ctx, req.Token)
	if err != nil {
		h.writeUpstreamError(w, r, err, true)
		return
	}

	h.writeJSON(w, http.StatusOK, models.User{ID: user.ID, Login: user.Login})
}

// Logs returns the caller's sessions of the current UTC month. Open sessions
// carry a null end_at; the capture time is taken once per request. The user
// lookup and every locations page share one deadline.
func (h *GatewayHandler) Logs(w http.ResponseWriter, r *http.Request) {
	captureTime := h.now().UTC()

	token, ok := bearerToken(r)
	if !ok {
		h.writeError(w, r, models.NewUnauthorized("Authorization header with a Bearer token is required"))
		return
	}

	ctx, cancel := h.upstreamContext(r)
	defer cancel()

	user, err := h.upstream.Me(ctx, token)
	if err != nil {
		h.writeUpstreamError(w, r, err, false)
		return
	}

	begin, end := logtime.FetchRange(captureTime)
	records, err := h.upstream.Locations(ctx, token, user.ID, begin, end)
	if err != nil {
		h.writeUpstreamError(w, r, err, false)
		return
	}

	entry := h.entry(r).WithField("login", user.Login)
	result := session.Normalize(records, captureTime, entry)

	reasons := make([]string, 0, len(result.Dropped))
	for _, d := range result.Dropped {
		reasons = append(reasons, string(d.Reason))
	}
	h.metrics.ObserveSessions(len(result.Sessions), reasons)

	entry.WithFields(logrus.Fields{
		"begin_at": begin.Format(time.RFC3339),
		"end_at":   end.Format(time.RFC3339),
		"records":  len(records),
		"sessions": len(result.Sessions),
		"dropped":  len(result.Dropped),
	}).Info("Sessions fetched")

	h.writeJSON(w, http.StatusOK, result.Locations())
}

// upstreamContext derives the context shared by every upstream call of r.
func (h *GatewayHandler) upstreamContext(r *http.Request) (context.Context, context.CancelFunc) {
	if h.deadline <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), h.deadline)
}

// bearerToken extracts the token of an "Authorization: Bearer <t>" header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get(constants.HeaderAuthorization)
	if len(header) < len(constants.BearerPrefix) ||
		!strings.EqualFold(header[:len(constants.BearerPrefix)], constants.BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(constants.BearerPrefix):])
	return token, token != ""
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}
		return err
	}
	return nil
}

// writeUpstreamError maps a failed upstream call to the error envelope.
// Deadlines answer 504, 401 answers 401, other 4xx keep their status (or 401
// when rejectAsUnauthorized), and everything else answers 500 with the
// details kept in the log.
func (h *GatewayHandler) writeUpstreamError(w http.ResponseWriter, r *http.Request, err error, rejectAsUnauthorized bool) {
	entry := h.entry(r).WithError(err)

	if client.IsTimeout(err) {
		entry.Error("Upstream call timed out")
		h.writeError(w, r, models.NewGatewayTimeout(upstreamTimeoutMsg))
		return
	}

	var upstreamErr *client.UpstreamError
	if errors.As(err, &upstreamErr) && upstreamErr.IsClientError() {
		entry.WithField("upstream_status", upstreamErr.StatusCode).Warn("Upstream rejected request")
		if upstreamErr.StatusCode == http.StatusUnauthorized || rejectAsUnauthorized {
			h.writeError(w, r, models.NewUnauthorized(tokenRejectedError))
			return
		}
		message := upstreamErr.Message
		if message == "" {
			message = http.StatusText(upstreamErr.StatusCode)
		}
		h.writeError(w, r, models.NewUpstreamRejected(upstreamErr.StatusCode, message))
		return
	}

	entry.Error("Upstream call failed")
	h.writeError(w, r, models.NewUpstreamError(upstreamFailedError))
}

func (h *GatewayHandler) writeError(w http.ResponseWriter, r *http.Request, apiErr *models.APIError) {
	h.entry(r).WithFields(logrus.Fields{
		"error":       apiErr.Code,
		"message":     apiErr.Message,
		"status_code": apiErr.StatusCode,
	}).Debug("Error response")

	h.writeJSON(w, apiErr.StatusCode, apiErr)
}

func (h *GatewayHandler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.WithError(err).Error(encodingFailedError)
	}
}

func (h *GatewayHandler) entry(r *http.Request) *logrus.Entry {
	return logger.WithCorrelationID(r.Context(), h.logger)
}

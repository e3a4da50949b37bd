package handlers

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/arnaudderison/logtime19/internal/config"
	"github.com/arnaudderison/logtime19/internal/constants"
	"github.com/arnaudderison/logtime19/internal/metrics"
)

// HealthHandler provides health check and monitoring endpoints for the ops
// listener.
type HealthHandler struct {
	config    *config.Config
	logger    *logrus.Logger
	metrics   *metrics.Metrics
	startTime time.Time
	ready     atomic.Bool
}

// HealthStatus represents the health status of a component.
type HealthStatus string

const (
	// StatusHealthy indicates the component is healthy.
	StatusHealthy HealthStatus = "healthy"
	// StatusUnhealthy indicates the component is unhealthy.
	StatusUnhealthy HealthStatus = "unhealthy"
)

// HealthResponse represents the overall health check response.
type HealthResponse struct {
	Status     HealthStatus               `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Version    string                     `json:"version,omitempty"`
	Uptime     string                     `json:"uptime,omitempty"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
}

// ComponentHealth represents the health of an individual component.
type ComponentHealth struct {
	Status      HealthStatus `json:"status"`
	Message     string       `json:"message,omitempty"`
	LastChecked time.Time    `json:"last_checked"`
}

// ReadinessResponse represents the readiness check response.
type ReadinessResponse struct {
	Ready      bool                       `json:"ready"`
	Timestamp  time.Time                  `json:"timestamp"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
}

// Version is the build version reported by /health. Set with -ldflags.
var Version = "dev"

// NewHealthHandler creates a new health check handler. It starts ready.
func NewHealthHandler(cfg *config.Config, m *metrics.Metrics, logger *logrus.Logger) *HealthHandler {
	h := &HealthHandler{
		config:    cfg,
		logger:    logger,
		metrics:   m,
		startTime: time.Now(),
	}
	h.ready.Store(true)
	return h
}

// SetReady flips readiness, typically to false when shutdown begins.
func (h *HealthHandler) SetReady(ready bool) {
	h.ready.Store(ready)
}

// RegisterRoutes registers health check and, when metrics are enabled, the
// metrics endpoint.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.Health)
	mux.HandleFunc("/health/live", h.Liveness)
	mux.HandleFunc("/health/ready", h.Readiness)
	if h.metrics != nil {
		mux.Handle(h.metricsPath(), h.metrics.Handler())
	}
}

func (h *HealthHandler) metricsPath() string {
	if h.config.Metrics.Path == "" {
		return "/metrics"
	}
	return h.config.Metrics.Path
}

// Health reports every component.
func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	components := h.components()

	overallStatus := StatusHealthy
	for _, c := range components {
		if c.Status != StatusHealthy {
			overallStatus = StatusUnhealthy
		}
	}
	h.metrics.ObserveHealthCheck("health", string(overallStatus))

	statusCode := http.StatusOK
	if overallStatus != StatusHealthy {
		statusCode = http.StatusServiceUnavailable
	}

	h.writeJSON(w, statusCode, HealthResponse{
		Status:     overallStatus,
		Timestamp:  time.Now(),
		Version:    Version,
		Uptime:     time.Since(h.startTime).String(),
		Components: components,
	})
}

// Liveness provides a simple liveness check that returns 200 if the process is alive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	h.metrics.ObserveHealthCheck("liveness", string(StatusHealthy))

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "alive",
		"timestamp": time.Now(),
		"uptime":    time.Since(h.startTime).String(),
	})
}

// Readiness checks if the gateway is ready to receive traffic.
func (h *HealthHandler) Readiness(w http.ResponseWriter, _ *http.Request) {
	components := h.components()

	ready := h.ready.Load()
	for _, c := range components {
		if c.Status != StatusHealthy {
			ready = false
		}
	}

	statusLabel := "ready"
	statusCode := http.StatusOK
	if !ready {
		statusLabel = "not_ready"
		statusCode = http.StatusServiceUnavailable
	}
	h.metrics.ObserveHealthCheck("readiness", statusLabel)

	h.writeJSON(w, statusCode, ReadinessResponse{
		Ready:      ready,
		Timestamp:  time.Now(),
		Components: components,
	})

	h.logger.WithField("ready", ready).Debug("Readiness check completed")
}

func (h *HealthHandler) components() map[string]ComponentHealth {
	now := time.Now()
	components := map[string]ComponentHealth{
		"configuration": {Status: StatusHealthy, Message: "Configuration is valid", LastChecked: now},
		"server":        {Status: StatusHealthy, Message: "Accepting requests", LastChecked: now},
	}

	if err := h.config.Validate(); err != nil {
		components["configuration"] = ComponentHealth{Status: StatusUnhealthy, Message: err.Error(), LastChecked: now}
	}
	if !h.ready.Load() {
		components["server"] = ComponentHealth{Status: StatusUnhealthy, Message: "Shutting down", LastChecked: now}
	}
	return components
}

func (h *HealthHandler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.WithError(err).Error("Failed to encode health response")
	}
}

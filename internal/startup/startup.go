// Package startup wires the gateway components together: upstream clients,
// handlers, middleware and the two listeners.
package startup

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/arnaudderison/logtime19/internal/client"
	"github.com/arnaudderison/logtime19/internal/client/intra"
	"github.com/arnaudderison/logtime19/internal/config"
	"github.com/arnaudderison/logtime19/internal/handlers"
	"github.com/arnaudderison/logtime19/internal/metrics"
	"github.com/arnaudderison/logtime19/internal/middleware"
)

// NewUpstream builds the school API client: one BaseClient, shared by every
// request, under the OAuth2 and intranet layers.
func NewUpstream(cfg *config.Config, m *metrics.Metrics, log *logrus.Logger) *intra.Client {
	urls := cfg.UpstreamURLs()

	baseClient := client.NewBaseClient(cfg.API42.BaseURL, cfg.API42.Timeout, log)
	oauth2Client := client.NewOAuth2Client(baseClient, urls.TokenURL, client.Credentials{
		ClientID:     cfg.API42.UID,
		ClientSecret: cfg.API42.Secret,
		RedirectURI:  cfg.API42.RedirectURI,
	})

	opts := intra.Options{
		PageSize: cfg.API42.PageSize,
		MaxPages: cfg.API42.MaxPages,
	}
	if m != nil {
		opts.Recorder = m
	}
	return intra.NewClient(oauth2Client, urls, opts, log)
}

// NewAPIHandler returns the gateway handler with its full middleware chain.
// m may be nil.
func NewAPIHandler(cfg *config.Config, upstream handlers.Upstream, m *metrics.Metrics, log *logrus.Logger) http.Handler {
	gateway := handlers.NewGatewayHandler(upstream, m, log).WithDeadline(cfg.API42.Timeout)
	stack := middleware.NewStack(cfg, m, log)

	router := mux.NewRouter()
	router.Use(stack.Metrics)
	gateway.RegisterRoutes(router)
	// mux skips router middleware for unmatched requests.
	router.NotFoundHandler = stack.Metrics(router.NotFoundHandler)
	router.MethodNotAllowedHandler = stack.Metrics(router.MethodNotAllowedHandler)

	return stack.Chain(
		router,
		stack.Recovery,
		stack.RequestLogger,
		stack.SecurityHeaders,
		stack.CORS,
		stack.ContentType,
	)
}

// NewOpsHandler returns the handler of the ops listener: health probes and
// metrics.
func NewOpsHandler(health *handlers.HealthHandler) http.Handler {
	opsMux := http.NewServeMux()
	health.RegisterRoutes(opsMux)
	return opsMux
}

// NewServer returns the API server configured from cfg.
func NewServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.ServerAddr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
}

// NewOpsServer returns the ops server, or nil when METRICS_ADDR is empty.
// Health probes are served even with metrics disabled.
func NewOpsServer(cfg *config.Config, handler http.Handler) *http.Server {
	if cfg.Metrics.Addr == "" {
		return nil
	}
	return &http.Server{
		Addr:         cfg.Metrics.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
}

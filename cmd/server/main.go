// Package main provides the entry point for the logtime gateway.
// It loads the configuration, wires the school API client, the HTTP
// middleware and the ops listener, and serves until SIGINT or SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/arnaudderison/logtime19/internal/config"
	"github.com/arnaudderison/logtime19/internal/handlers"
	"github.com/arnaudderison/logtime19/internal/metrics"
	"github.com/arnaudderison/logtime19/internal/startup"
	"github.com/arnaudderison/logtime19/pkg/logger"
)

func main() {
	loadDotEnv()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewWithConfig(&cfg.Logging)
	log.Info("Starting logtime gateway")
	log.WithFields(logrus.Fields{
		"version":        handlers.Version,
		"environment":    cfg.Environment.Environment,
		"port":           cfg.Server.Port,
		"host":           cfg.Server.Host,
		"tls":            cfg.IsTLSEnabled(),
		"allowed_origin": cfg.AllowedOrigin(),
		"upstream":       cfg.API42.BaseURL,
	}).Info("Service configuration loaded")

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	upstream := startup.NewUpstream(cfg, m, log)
	server := startup.NewServer(cfg, startup.NewAPIHandler(cfg, upstream, m, log))

	health := handlers.NewHealthHandler(cfg, m, log)
	opsServer := startup.NewOpsServer(cfg, startup.NewOpsHandler(health))

	runServers(server, opsServer, health, cfg, log)
}

// loadDotEnv loads .env.local then .env, mirroring the dotenv setup of the
// UI. Variables already set in the environment win.
func loadDotEnv() {
	goEnv := os.Getenv("GO_ENV")
	if goEnv != "" && goEnv != "development" {
		return
	}
	for _, file := range []string{".env.local", ".env"} {
		if err := godotenv.Load(file); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: Error loading %s file: %v\n", file, err)
		}
	}
}

func runServers(
	server *http.Server,
	opsServer *http.Server,
	health *handlers.HealthHandler,
	cfg *config.Config,
	log *logrus.Logger,
) {
	go startServer(server, cfg, log)
	if opsServer != nil {
		go startOpsServer(opsServer, log)
	}

	// Wait for interrupt signal to gracefully shutdown the servers
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	health.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
		log.WithError(shutdownErr).Error("Server forced to shutdown")
	} else {
		log.Info("Server exited gracefully")
	}

	if opsServer != nil {
		if shutdownErr := opsServer.Shutdown(shutdownCtx); shutdownErr != nil {
			log.WithError(shutdownErr).Error("Ops server forced to shutdown")
		}
	}
}

func startServer(server *http.Server, cfg *config.Config, log *logrus.Logger) {
	log.WithFields(logrus.Fields{
		"addr": server.Addr,
		"tls":  cfg.IsTLSEnabled(),
	}).Info("Starting HTTP server")

	var startErr error
	if cfg.IsTLSEnabled() {
		startErr = server.ListenAndServeTLS(cfg.Server.TLSCert, cfg.Server.TLSKey)
	} else {
		startErr = server.ListenAndServe()
	}

	if startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
		log.WithError(startErr).Fatal("Failed to start server")
	}
}

func startOpsServer(server *http.Server, log *logrus.Logger) {
	log.WithField("addr", server.Addr).Info("Starting ops server")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("Failed to start ops server")
	}
}

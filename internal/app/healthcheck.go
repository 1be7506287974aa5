package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/specialistvlad/ceresflow/internal/ctxlog"
)

type healthReport struct {
	Status    string           `json:"status"`
	Instances []instanceHealth `json:"instances"`
}

type instanceHealth struct {
	Name     string   `json:"name"`
	Path     string   `json:"path"`
	Events   []string `json:"events"`
	InFlight int      `json:"in_flight"`
}

func (a *App) health() healthReport {
	a.mu.RLock()
	defer a.mu.RUnlock()
	report := healthReport{Status: "ok", Instances: make([]instanceHealth, 0, len(a.instances))}
	for _, inst := range a.instances {
		h := instanceHealth{Name: inst.object.Name, Path: inst.object.Path}
		if g := inst.FlowGraph(); g != nil {
			h.Events = g.Events()
			h.InFlight = g.InFlight()
		}
		report.Instances = append(report.Instances, h)
	}
	return report
}

// healthHandler reports the loaded graph instances.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	logger := ctxlog.FromContext(a.ctx)
	logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(a.health()); err != nil {
		logger.Error("Failed to write health report.", "error", err)
	}
}

// healthCheckServer initializes and runs the health check HTTP server.
func (a *App) healthCheckServer() {
	logger := ctxlog.FromContext(a.ctx)
	if a.config.HealthcheckPort <= 0 {
		logger.Debug("Health check server not started: disabled")
		return
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.healthHandler)
	addr := fmt.Sprintf(":%d", a.config.HealthcheckPort)
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	a.mu.Lock()
	a.httpServer = server
	a.mu.Unlock()

	go func() {
		logger.Info("🩺 Health check server starting", "address", fmt.Sprintf("http://localhost%s/health", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Health check server failed unexpectedly", "error", err)
		}
	}()
}

func (a *App) closeHealthCheckServer() error {
	logger := ctxlog.FromContext(a.ctx)
	a.mu.Lock()
	server := a.httpServer
	a.httpServer = nil
	a.mu.Unlock()
	if server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()

	logger.Info("🩺 Shutting down health check server...")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Health check server shutdown failed", "error", err)
		return err
	}
	return nil
}

package api

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker is implemented by the entry store.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// ConnStatus is implemented by optional broker connections.
type ConnStatus interface {
	IsConnected() bool
}

type HealthResponse struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Checks        map[string]string `json:"checks"`
	Transcription []string          `json:"transcription_services"`
}

type HealthHandler struct {
	store     HealthChecker
	mqtt      ConnStatus // nil when notifications are disabled
	services  []string
	version   string
	startTime time.Time
}

func NewHealthHandler(store HealthChecker, mqtt ConnStatus, services []string, version string, startTime time.Time) *HealthHandler {
	return &HealthHandler{
		store:     store,
		mqtt:      mqtt,
		services:  services,
		version:   version,
		startTime: startTime,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	status := "healthy"
	httpStatus := http.StatusOK

	// Database check
	if err := h.store.HealthCheck(r.Context()); err != nil {
		checks["database"] = "error"
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	// MQTT check
	if h.mqtt != nil {
		if h.mqtt.IsConnected() {
			checks["mqtt"] = "ok"
		} else {
			checks["mqtt"] = "disconnected"
			if status == "healthy" {
				status = "degraded"
			}
		}
	} else {
		checks["mqtt"] = "not_configured"
	}

	// Transcription check
	if len(h.services) == 0 {
		checks["transcription"] = "not_configured"
		if status == "healthy" {
			status = "degraded"
		}
	} else {
		checks["transcription"] = "ok"
	}

	services := h.services
	if services == nil {
		services = []string{}
	}
	WriteJSON(w, httpStatus, HealthResponse{
		Status:        status,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Checks:        checks,
		Transcription: services,
	})
}

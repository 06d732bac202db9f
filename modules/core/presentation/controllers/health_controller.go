package controllers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/caseweave/caseweave/pkg/application"
)

type healthStatus string

const (
	healthStatusHealthy  healthStatus = "healthy"
	healthStatusDegraded healthStatus = "degraded"
	healthStatusDown     healthStatus = "down"
)

const dbDegradedLatency = 100 * time.Millisecond

type healthResponse struct {
	Status    healthStatus   `json:"status"`
	Timestamp string         `json:"timestamp"`
	Checks    map[string]any `json:"checks"`
}

type componentHealth struct {
	Status       healthStatus `json:"status"`
	ResponseTime string       `json:"responseTime,omitempty"`
	Error        string       `json:"error,omitempty"`
}

type HealthController struct {
	app      application.Application
	basePath string
}

func NewHealthController(app application.Application) application.Controller {
	return &HealthController{
		app:      app,
		basePath: "/health",
	}
}

func (c *HealthController) Key() string {
	return c.basePath
}

func (c *HealthController) Register(r *mux.Router) {
	r.HandleFunc(c.basePath, c.Get).Methods(http.MethodGet)
}

func (c *HealthController) Get(w http.ResponseWriter, r *http.Request) {
	checks := map[string]any{}
	overall := healthStatusHealthy

	dbHealth := c.checkDatabase(r.Context())
	checks["database"] = dbHealth
	if dbHealth.Status != healthStatusHealthy {
		overall = dbHealth.Status
	}

	status := http.StatusOK
	if overall == healthStatusDown {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, healthResponse{
		Status:    overall,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	})
}

func (c *HealthController) checkDatabase(ctx context.Context) componentHealth {
	start := time.Now()

	timeoutCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	db := c.app.DB()
	if db == nil {
		return componentHealth{
			Status:       healthStatusDown,
			ResponseTime: time.Since(start).String(),
			Error:        "database connection pool not available",
		}
	}

	var result int
	err := db.QueryRow(timeoutCtx, "SELECT 1").Scan(&result)
	responseTime := time.Since(start)
	if err != nil {
		return componentHealth{
			Status:       healthStatusDown,
			ResponseTime: responseTime.String(),
			Error:        fmt.Sprintf("database query failed: %v", err),
		}
	}

	status := healthStatusHealthy
	if responseTime > dbDegradedLatency {
		status = healthStatusDegraded
	}

	return componentHealth{
		Status:       status,
		ResponseTime: responseTime.String(),
	}
}

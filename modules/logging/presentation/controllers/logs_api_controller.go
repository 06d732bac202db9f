package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/caseweave/caseweave/modules/logging/domain/entities/actionlog"
	"github.com/caseweave/caseweave/modules/logging/domain/entities/audittrail"
	"github.com/caseweave/caseweave/modules/logging/services"
	"github.com/caseweave/caseweave/pkg/application"
	"github.com/caseweave/caseweave/pkg/middleware"
)

type LogsAPIController struct {
	app      application.Application
	logs     *services.LogsService
	basePath string
}

func NewLogsAPIController(app application.Application) application.Controller {
	return &LogsAPIController{
		app:      app,
		logs:     app.Service(services.LogsService{}).(*services.LogsService),
		basePath: "/api/v1/logs",
	}
}

func (c *LogsAPIController) Key() string {
	return c.basePath
}

func (c *LogsAPIController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(
		middleware.RequireTenantFromHost(c.app),
		middleware.ProvideActor(c.app),
		middleware.ProvideLocalizer(c.app),
		middleware.WithTransaction(),
	)
	router.HandleFunc("/actions", c.ListActionLogs).Methods(http.MethodGet)
	router.HandleFunc("/audit", c.ListAuditTrail).Methods(http.MethodGet)
}

type actionLogResponse struct {
	ID        int64  `json:"id"`
	UserID    string `json:"userId,omitempty"`
	Method    string `json:"method"`
	Path      string `json:"path"`
	UserAgent string `json:"userAgent,omitempty"`
	IP        string `json:"ip,omitempty"`
	CreatedAt string `json:"createdAt"`
}

type auditEntryResponse struct {
	ID         string          `json:"id"`
	UserID     string          `json:"userId,omitempty"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
	Patch      json.RawMessage `json:"patch,omitempty"`
	CreatedAt  string          `json:"createdAt"`
}

func pageParams(r *http.Request) (limit, offset int) {
	limit = 20
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("offset")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}

func (c *LogsAPIController) ListActionLogs(w http.ResponseWriter, r *http.Request) {
	params := &actionlog.FindParams{
		Method: strings.TrimSpace(r.URL.Query().Get("method")),
		Path:   strings.TrimSpace(r.URL.Query().Get("path")),
	}
	params.Limit, params.Offset = pageParams(r)
	if v := strings.TrimSpace(r.URL.Query().Get("userId")); v != "" {
		userID, err := uuid.Parse(v)
		if err != nil {
			writeAPIError(w, r, http.StatusBadRequest, "LOGS_INVALID_USER_ID", "invalid user id")
			return
		}
		params.UserID = &userID
	}

	items, total, err := c.logs.ListActionLogs(r.Context(), params)
	if err != nil {
		writeAPIError(w, r, http.StatusForbidden, "FORBIDDEN", "access denied")
		return
	}

	out := make([]actionLogResponse, 0, len(items))
	for _, item := range items {
		entry := actionLogResponse{
			ID:        item.ID,
			Method:    item.Method,
			Path:      item.Path,
			UserAgent: item.UserAgent,
			IP:        item.IP,
			CreatedAt: item.CreatedAt.UTC().Format(time.RFC3339),
		}
		if item.UserID != nil {
			entry.UserID = item.UserID.String()
		}
		out = append(out, entry)
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out, "total": total})
}

func (c *LogsAPIController) ListAuditTrail(w http.ResponseWriter, r *http.Request) {
	params := &audittrail.FindParams{
		Action:     strings.TrimSpace(r.URL.Query().Get("action")),
		EntityType: strings.TrimSpace(r.URL.Query().Get("entityType")),
	}
	params.Limit, params.Offset = pageParams(r)
	if v := strings.TrimSpace(r.URL.Query().Get("entityId")); v != "" {
		entityID, err := uuid.Parse(v)
		if err != nil {
			writeAPIError(w, r, http.StatusBadRequest, "LOGS_INVALID_ENTITY_ID", "invalid entity id")
			return
		}
		params.EntityID = &entityID
	}

	items, total, err := c.logs.ListAuditTrail(r.Context(), params)
	if err != nil {
		writeAPIError(w, r, http.StatusForbidden, "FORBIDDEN", "access denied")
		return
	}

	out := make([]auditEntryResponse, 0, len(items))
	for _, item := range items {
		entry := auditEntryResponse{
			ID:         item.ID.String(),
			Action:     item.Action,
			EntityType: item.EntityType,
			EntityID:   item.EntityID.String(),
			Before:     item.Before,
			After:      item.After,
			Patch:      item.Patch,
			CreatedAt:  item.CreatedAt.UTC().Format(time.RFC3339),
		}
		if item.UserID != uuid.Nil {
			entry.UserID = item.UserID.String()
		}
		out = append(out, entry)
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out, "total": total})
}

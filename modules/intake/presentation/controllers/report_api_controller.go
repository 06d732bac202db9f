package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/caseweave/caseweave/modules/intake/domain/aggregates/report"
	"github.com/caseweave/caseweave/modules/intake/services"
	"github.com/caseweave/caseweave/pkg/application"
	"github.com/caseweave/caseweave/pkg/middleware"
	"github.com/caseweave/caseweave/pkg/serrors"
)

type ReportAPIController struct {
	app      application.Application
	reports  *services.ReportService
	basePath string
}

func NewReportAPIController(app application.Application) application.Controller {
	return &ReportAPIController{
		app:      app,
		reports:  app.Service(services.ReportService{}).(*services.ReportService),
		basePath: "/api/v1/reports",
	}
}

func (c *ReportAPIController) Key() string {
	return c.basePath
}

func (c *ReportAPIController) Register(r *mux.Router) {
	commonMiddleware := []mux.MiddlewareFunc{
		middleware.RequireTenantFromHost(c.app),
		middleware.ProvideActor(c.app),
		middleware.ProvideLocalizer(c.app),
	}

	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(commonMiddleware...)
	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("/{id}", c.GetByID).Methods(http.MethodGet)

	writeRouter := r.PathPrefix(c.basePath).Subrouter()
	writeRouter.Use(commonMiddleware...)
	writeRouter.Use(middleware.WithTransaction())
	writeRouter.HandleFunc("", c.Create).Methods(http.MethodPost)
	writeRouter.HandleFunc("/{id}", c.Update).Methods(http.MethodPatch)
}

type hotlineResponse struct {
	OperatorName   string `json:"operatorName"`
	CallReference  string `json:"callReference,omitempty"`
	CallbackNumber string `json:"callbackNumber,omitempty"`
	ReceivedCallAt string `json:"receivedCallAt,omitempty"`
}

type webFormResponse struct {
	FormVersion string `json:"formVersion"`
	SubmitterIP string `json:"submitterIp,omitempty"`
	UserAgent   string `json:"userAgent,omitempty"`
	SubmittedAt string `json:"submittedAt,omitempty"`
}

type disclosureResponse struct {
	DiscloserRole string `json:"discloserRole"`
	Relationship  string `json:"relationship,omitempty"`
	LocationName  string `json:"locationName,omitempty"`
	DisclosedAt   string `json:"disclosedAt,omitempty"`
}

type reportResponse struct {
	ID                string              `json:"id"`
	ReportNumber      string              `json:"reportNumber"`
	Channel           string              `json:"channel"`
	Narrative         string              `json:"narrative"`
	Category          string              `json:"category"`
	Severity          string              `json:"severity"`
	Status            string              `json:"status"`
	QAOutcome         string              `json:"qaOutcome,omitempty"`
	AssignedToID      string              `json:"assignedToId,omitempty"`
	DetectedLanguage  string              `json:"detectedLanguage,omitempty"`
	ConfirmedLanguage string              `json:"confirmedLanguage,omitempty"`
	LanguageEffective string              `json:"languageEffective"`
	StatusChangedAt   string              `json:"statusChangedAt,omitempty"`
	StatusChangedBy   string              `json:"statusChangedBy,omitempty"`
	Hotline           *hotlineResponse    `json:"hotline,omitempty"`
	WebForm           *webFormResponse    `json:"webForm,omitempty"`
	Disclosure        *disclosureResponse `json:"disclosure,omitempty"`
	CreatedAt         string              `json:"createdAt"`
	UpdatedAt         string              `json:"updatedAt"`
}

func formatOptionalTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func (c *ReportAPIController) toResponse(r report.Report) reportResponse {
	out := reportResponse{
		ID:                r.ID().String(),
		ReportNumber:      r.ReportNumber(),
		Channel:           string(r.Channel()),
		Narrative:         r.Narrative(),
		Category:          r.Category(),
		Severity:          string(r.Severity()),
		Status:            string(r.Status()),
		QAOutcome:         string(r.QAOutcome()),
		DetectedLanguage:  r.DetectedLanguage(),
		ConfirmedLanguage: r.ConfirmedLanguage(),
		LanguageEffective: c.reports.LanguageEffective(r),
		StatusChangedAt:   formatOptionalTime(r.StatusChangedAt()),
		CreatedAt:         r.CreatedAt().UTC().Format(time.RFC3339),
		UpdatedAt:         r.UpdatedAt().UTC().Format(time.RFC3339),
	}
	if r.AssignedToID() != uuid.Nil {
		out.AssignedToID = r.AssignedToID().String()
	}
	if r.StatusChangedBy() != uuid.Nil {
		out.StatusChangedBy = r.StatusChangedBy().String()
	}
	switch ext := r.Extension().(type) {
	case report.HotlineDetails:
		out.Hotline = &hotlineResponse{
			OperatorName:   ext.OperatorName,
			CallReference:  ext.CallReference,
			CallbackNumber: ext.CallbackNumber,
			ReceivedCallAt: formatOptionalTime(ext.ReceivedCallAt),
		}
	case report.WebFormDetails:
		out.WebForm = &webFormResponse{
			FormVersion: ext.FormVersion,
			SubmitterIP: ext.SubmitterIP,
			UserAgent:   ext.UserAgent,
			SubmittedAt: formatOptionalTime(ext.SubmittedAt),
		}
	case report.DisclosureDetails:
		out.Disclosure = &disclosureResponse{
			DiscloserRole: ext.DiscloserRole,
			Relationship:  ext.Relationship,
			LocationName:  ext.LocationName,
			DisclosedAt:   formatOptionalTime(ext.DisclosedAt),
		}
	}
	return out
}

func (c *ReportAPIController) List(w http.ResponseWriter, r *http.Request) {
	if !ensureIntakeAuthz(w, r, reportsObject, "list") {
		return
	}

	params := &report.FindParams{
		Q:        strings.TrimSpace(r.URL.Query().Get("q")),
		Category: strings.TrimSpace(r.URL.Query().Get("category")),
		Limit:    20,
	}
	if v := strings.TrimSpace(r.URL.Query().Get("channel")); v != "" {
		params.Channel = report.Channel(strings.ToUpper(v))
	}
	if v := strings.TrimSpace(r.URL.Query().Get("status")); v != "" {
		params.Status = report.Status(strings.ToUpper(v))
	}
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 100 {
			params.Limit = parsed
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("offset")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			params.Offset = parsed
		}
	}

	items, total, err := c.reports.GetPaginated(r.Context(), params)
	if err != nil {
		writeAPIError(w, r, http.StatusInternalServerError, "REPORT_INTERNAL", "internal error")
		return
	}

	out := make([]reportResponse, 0, len(items))
	for _, item := range items {
		out = append(out, c.toResponse(item))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": out,
		"total": total,
	})
}

func (c *ReportAPIController) GetByID(w http.ResponseWriter, r *http.Request) {
	if !ensureIntakeAuthz(w, r, reportsObject, "view") {
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "REPORT_INVALID_ID", "invalid report id")
		return
	}

	entity, err := c.reports.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, report.ErrNotFound) {
			writeAPIError(w, r, http.StatusNotFound, "REPORT_NOT_FOUND", "report not found")
			return
		}
		writeAPIError(w, r, http.StatusInternalServerError, "REPORT_INTERNAL", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, c.toResponse(entity))
}

func (c *ReportAPIController) Create(w http.ResponseWriter, r *http.Request) {
	if !ensureIntakeAuthz(w, r, reportsObject, "create") {
		return
	}

	var dto report.CreateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "REPORT_INVALID_JSON", "invalid json")
		return
	}

	if errs, ok := dto.Ok(r.Context()); !ok {
		writeFieldErrors(w, r, "REPORT_VALIDATION_FAILED", "validation failed", errs)
		return
	}

	created, err := c.reports.Create(r.Context(), &dto)
	if err != nil {
		if errors.Is(err, report.ErrReportNumberTaken) {
			writeAPIError(w, r, http.StatusConflict, "REPORT_NUMBER_CONFLICT", "report number already used")
			return
		}
		writeAPIError(w, r, http.StatusInternalServerError, "REPORT_INTERNAL", "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, c.toResponse(created))
}

func (c *ReportAPIController) Update(w http.ResponseWriter, r *http.Request) {
	if !ensureIntakeAuthz(w, r, reportsObject, "update") {
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "REPORT_INVALID_ID", "invalid report id")
		return
	}

	var dto report.UpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "REPORT_INVALID_JSON", "invalid json")
		return
	}

	if errs, ok := dto.Ok(r.Context()); !ok {
		writeFieldErrors(w, r, "REPORT_VALIDATION_FAILED", "validation failed", errs)
		return
	}

	updated, err := c.reports.Update(r.Context(), id, &dto)
	if err != nil {
		if errors.Is(err, report.ErrNotFound) {
			writeAPIError(w, r, http.StatusNotFound, "REPORT_NOT_FOUND", "report not found")
			return
		}
		var fieldErrs serrors.ValidationErrors
		if errors.As(err, &fieldErrs) {
			fields := make(map[string]string, len(fieldErrs))
			for field, fieldErr := range fieldErrs {
				fields[field] = fieldErr.Error()
			}
			writeFieldErrors(w, r, "REPORT_FIELD_IMMUTABLE", "immutable report fields cannot be changed", fields)
			return
		}
		var transitionErr *report.StatusTransitionError
		if errors.As(err, &transitionErr) {
			writeAPIError(w, r, http.StatusBadRequest, "REPORT_STATUS_TRANSITION", transitionErr.Error())
			return
		}
		writeAPIError(w, r, http.StatusInternalServerError, "REPORT_INTERNAL", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, c.toResponse(updated))
}

package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/caseweave/caseweave/modules/cases/domain/aggregates/casefile"
	"github.com/caseweave/caseweave/modules/cases/services"
	"github.com/caseweave/caseweave/pkg/application"
	"github.com/caseweave/caseweave/pkg/middleware"
)

type CaseAPIController struct {
	app      application.Application
	cases    *services.CaseService
	merges   *services.MergeService
	basePath string
}

func NewCaseAPIController(app application.Application) application.Controller {
	return &CaseAPIController{
		app:      app,
		cases:    app.Service(services.CaseService{}).(*services.CaseService),
		merges:   app.Service(services.MergeService{}).(*services.MergeService),
		basePath: "/api/v1/cases",
	}
}

func (c *CaseAPIController) Key() string {
	return c.basePath
}

func (c *CaseAPIController) Register(r *mux.Router) {
	commonMiddleware := []mux.MiddlewareFunc{
		middleware.RequireTenantFromHost(c.app),
		middleware.ProvideActor(c.app),
		middleware.ProvideLocalizer(c.app),
	}

	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(commonMiddleware...)
	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("/{id}", c.GetByID).Methods(http.MethodGet)
	router.HandleFunc("/{id}/reports", c.ListReportLinks).Methods(http.MethodGet)
	router.HandleFunc("/{id}/merge-history", c.MergeHistory).Methods(http.MethodGet)
	router.HandleFunc("/{id}/primary", c.ResolvePrimary).Methods(http.MethodGet)

	writeRouter := r.PathPrefix(c.basePath).Subrouter()
	writeRouter.Use(commonMiddleware...)
	writeRouter.Use(middleware.WithTransaction())
	writeRouter.HandleFunc("", c.Create).Methods(http.MethodPost)
	writeRouter.HandleFunc("/{id}", c.Update).Methods(http.MethodPatch)
	writeRouter.HandleFunc("/{id}/reports", c.LinkReport).Methods(http.MethodPost)
	writeRouter.HandleFunc("/{id}/merge", c.Merge).Methods(http.MethodPost)
}

type caseResponse struct {
	ID               string `json:"id"`
	CaseNumber       string `json:"caseNumber"`
	Title            string `json:"title"`
	Status           string `json:"status"`
	Stage            string `json:"stage"`
	Outcome          string `json:"outcome,omitempty"`
	IsMerged         bool   `json:"isMerged"`
	MergedIntoCaseID string `json:"mergedIntoCaseId,omitempty"`
	MergedAt         string `json:"mergedAt,omitempty"`
	MergedBy         string `json:"mergedBy,omitempty"`
	MergedReason     string `json:"mergedReason,omitempty"`
	CreatedAt        string `json:"createdAt"`
	UpdatedAt        string `json:"updatedAt"`
}

type reportLinkResponse struct {
	ID        string `json:"id"`
	CaseID    string `json:"caseId"`
	ReportID  string `json:"reportId"`
	Label     string `json:"label"`
	CreatedAt string `json:"createdAt"`
}

func formatOptionalTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func toCaseResponse(entity casefile.Case) caseResponse {
	out := caseResponse{
		ID:           entity.ID().String(),
		CaseNumber:   entity.CaseNumber(),
		Title:        entity.Title(),
		Status:       string(entity.Status()),
		Stage:        string(entity.Stage()),
		Outcome:      string(entity.Outcome()),
		IsMerged:     entity.IsMerged(),
		MergedAt:     formatOptionalTime(entity.MergedAt()),
		MergedReason: entity.MergedReason(),
		CreatedAt:    entity.CreatedAt().UTC().Format(time.RFC3339),
		UpdatedAt:    entity.UpdatedAt().UTC().Format(time.RFC3339),
	}
	if entity.MergedIntoCaseID() != uuid.Nil {
		out.MergedIntoCaseID = entity.MergedIntoCaseID().String()
	}
	if entity.MergedBy() != uuid.Nil {
		out.MergedBy = entity.MergedBy().String()
	}
	return out
}

func toReportLinkResponse(link casefile.ReportLink) reportLinkResponse {
	return reportLinkResponse{
		ID:        link.ID().String(),
		CaseID:    link.CaseID().String(),
		ReportID:  link.ReportID().String(),
		Label:     string(link.Label()),
		CreatedAt: link.CreatedAt().UTC().Format(time.RFC3339),
	}
}

func pathUUID(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	return id, err == nil
}

func (c *CaseAPIController) List(w http.ResponseWriter, r *http.Request) {
	if !ensureCasesAuthz(w, r, casesObject, "list") {
		return
	}

	params := &casefile.FindParams{
		Q:     strings.TrimSpace(r.URL.Query().Get("q")),
		Limit: 20,
	}
	if v := strings.TrimSpace(r.URL.Query().Get("status")); v != "" {
		params.Status = casefile.Status(strings.ToUpper(v))
	}
	if v := strings.TrimSpace(r.URL.Query().Get("stage")); v != "" {
		params.Stage = casefile.Stage(strings.ToUpper(v))
	}
	if v := strings.TrimSpace(r.URL.Query().Get("includeMerged")); v != "" {
		params.IncludeMerged, _ = strconv.ParseBool(v)
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

	items, total, err := c.cases.GetPaginated(r.Context(), params)
	if err != nil {
		writeCasesError(w, r, err)
		return
	}

	out := make([]caseResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toCaseResponse(item))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": out,
		"total": total,
	})
}

func (c *CaseAPIController) GetByID(w http.ResponseWriter, r *http.Request) {
	if !ensureCasesAuthz(w, r, casesObject, "view") {
		return
	}

	id, ok := pathUUID(r, "id")
	if !ok {
		writeAPIError(w, r, http.StatusBadRequest, "CASE_INVALID_ID", "invalid case id")
		return
	}

	entity, err := c.cases.GetByID(r.Context(), id)
	if err != nil {
		writeCasesError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCaseResponse(entity))
}

func (c *CaseAPIController) Create(w http.ResponseWriter, r *http.Request) {
	if !ensureCasesAuthz(w, r, casesObject, "create") {
		return
	}

	var dto casefile.CreateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "CASE_INVALID_JSON", "invalid json")
		return
	}
	if errs, ok := dto.Ok(r.Context()); !ok {
		writeFieldErrors(w, r, "CASE_VALIDATION_FAILED", "validation failed", errs)
		return
	}

	created, err := c.cases.Create(r.Context(), &dto)
	if err != nil {
		writeCasesError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCaseResponse(created))
}

func (c *CaseAPIController) Update(w http.ResponseWriter, r *http.Request) {
	if !ensureCasesAuthz(w, r, casesObject, "update") {
		return
	}

	id, ok := pathUUID(r, "id")
	if !ok {
		writeAPIError(w, r, http.StatusBadRequest, "CASE_INVALID_ID", "invalid case id")
		return
	}

	var dto casefile.UpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "CASE_INVALID_JSON", "invalid json")
		return
	}
	if errs, ok := dto.Ok(r.Context()); !ok {
		writeFieldErrors(w, r, "CASE_VALIDATION_FAILED", "validation failed", errs)
		return
	}

	updated, err := c.cases.Update(r.Context(), id, &dto)
	if err != nil {
		writeCasesError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCaseResponse(updated))
}

type linkReportRequest struct {
	ReportID string `json:"reportId"`
}

func (c *CaseAPIController) LinkReport(w http.ResponseWriter, r *http.Request) {
	if !ensureCasesAuthz(w, r, casesObject, "update") {
		return
	}

	caseID, ok := pathUUID(r, "id")
	if !ok {
		writeAPIError(w, r, http.StatusBadRequest, "CASE_INVALID_ID", "invalid case id")
		return
	}

	var req linkReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "CASE_INVALID_JSON", "invalid json")
		return
	}
	reportID, err := uuid.Parse(strings.TrimSpace(req.ReportID))
	if err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "CASE_INVALID_REPORT_ID", "invalid report id")
		return
	}

	link, err := c.cases.LinkReport(r.Context(), caseID, reportID)
	if err != nil {
		writeCasesError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReportLinkResponse(link))
}

func (c *CaseAPIController) ListReportLinks(w http.ResponseWriter, r *http.Request) {
	if !ensureCasesAuthz(w, r, casesObject, "view") {
		return
	}

	caseID, ok := pathUUID(r, "id")
	if !ok {
		writeAPIError(w, r, http.StatusBadRequest, "CASE_INVALID_ID", "invalid case id")
		return
	}

	links, err := c.cases.ListReportLinks(r.Context(), caseID)
	if err != nil {
		writeCasesError(w, r, err)
		return
	}
	out := make([]reportLinkResponse, 0, len(links))
	for _, link := range links {
		out = append(out, toReportLinkResponse(link))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

type mergeRequest struct {
	TargetCaseID string `json:"targetCaseId"`
	Reason       string `json:"reason"`
}

func (c *CaseAPIController) Merge(w http.ResponseWriter, r *http.Request) {
	if !ensureCasesAuthz(w, r, mergesObject, "create") {
		return
	}

	sourceID, ok := pathUUID(r, "id")
	if !ok {
		writeAPIError(w, r, http.StatusBadRequest, "CASE_INVALID_ID", "invalid case id")
		return
	}

	var req mergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "CASE_INVALID_JSON", "invalid json")
		return
	}
	targetID, err := uuid.Parse(strings.TrimSpace(req.TargetCaseID))
	if err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "MERGE_INVALID_TARGET", "invalid target case id")
		return
	}

	result, err := c.merges.Merge(r.Context(), sourceID, targetID, strings.TrimSpace(req.Reason))
	if err != nil {
		writeCasesError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (c *CaseAPIController) MergeHistory(w http.ResponseWriter, r *http.Request) {
	if !ensureCasesAuthz(w, r, mergesObject, "view") {
		return
	}

	caseID, ok := pathUUID(r, "id")
	if !ok {
		writeAPIError(w, r, http.StatusBadRequest, "CASE_INVALID_ID", "invalid case id")
		return
	}

	sources, err := c.merges.GetMergeHistory(r.Context(), caseID)
	if err != nil {
		writeCasesError(w, r, err)
		return
	}
	out := make([]caseResponse, 0, len(sources))
	for _, source := range sources {
		out = append(out, toCaseResponse(source))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (c *CaseAPIController) ResolvePrimary(w http.ResponseWriter, r *http.Request) {
	if !ensureCasesAuthz(w, r, casesObject, "view") {
		return
	}

	caseID, ok := pathUUID(r, "id")
	if !ok {
		writeAPIError(w, r, http.StatusBadRequest, "CASE_INVALID_ID", "invalid case id")
		return
	}

	primary, err := c.merges.ResolvePrimary(r.Context(), caseID)
	if err != nil {
		writeCasesError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCaseResponse(primary))
}

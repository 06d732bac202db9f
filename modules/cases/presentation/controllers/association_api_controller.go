package controllers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/caseweave/caseweave/modules/cases/domain/aggregates/association"
	"github.com/caseweave/caseweave/modules/cases/domain/aggregates/casefile"
	"github.com/caseweave/caseweave/modules/cases/services"
	"github.com/caseweave/caseweave/pkg/application"
	"github.com/caseweave/caseweave/pkg/middleware"
)

type AssociationAPIController struct {
	app      application.Application
	assocs   *services.AssociationService
	basePath string
}

func NewAssociationAPIController(app application.Application) application.Controller {
	return &AssociationAPIController{
		app:      app,
		assocs:   app.Service(services.AssociationService{}).(*services.AssociationService),
		basePath: "/api/v1/associations",
	}
}

func (c *AssociationAPIController) Key() string {
	return c.basePath
}

func (c *AssociationAPIController) Register(r *mux.Router) {
	commonMiddleware := []mux.MiddlewareFunc{
		middleware.RequireTenantFromHost(c.app),
		middleware.ProvideActor(c.app),
		middleware.ProvideLocalizer(c.app),
	}

	readRouter := r.PathPrefix("/api/v1").Subrouter()
	readRouter.Use(commonMiddleware...)
	readRouter.HandleFunc("/cases/{caseId}/associations", c.ListForCase).Methods(http.MethodGet)
	readRouter.HandleFunc("/reports/{reportId}/associations", c.ListForReport).Methods(http.MethodGet)
	readRouter.HandleFunc("/persons/{personId}/associations", c.ListForPerson).Methods(http.MethodGet)

	writeRouter := r.PathPrefix("/api/v1").Subrouter()
	writeRouter.Use(commonMiddleware...)
	writeRouter.Use(middleware.WithTransaction())
	writeRouter.HandleFunc("/cases/{caseId}/associations/persons", c.CreatePersonCase).Methods(http.MethodPost)
	writeRouter.HandleFunc("/cases/{caseId}/associations/cases", c.CreateCaseCase).Methods(http.MethodPost)
	writeRouter.HandleFunc("/reports/{reportId}/associations/persons", c.CreatePersonReport).Methods(http.MethodPost)
	writeRouter.HandleFunc("/persons/{personId}/associations/persons", c.CreatePersonPerson).Methods(http.MethodPost)
	writeRouter.HandleFunc("/associations/{kind}/{id}/status", c.UpdateStatus).Methods(http.MethodPatch)
	writeRouter.HandleFunc("/associations/person-case/{id}/end", c.EndRole).Methods(http.MethodPatch)
	writeRouter.HandleFunc("/associations/{kind}/{id}", c.Remove).Methods(http.MethodDelete)
}

// associationResponse is shared across the four kinds; the subject and
// object names follow the kind (person/case, person/report, case/case,
// person/person in canonical order).
type associationResponse struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	SubjectID   string `json:"subjectId"`
	ObjectID    string `json:"objectId"`
	Label       string `json:"label"`
	Status      string `json:"status,omitempty"`
	StartedAt   string `json:"startedAt,omitempty"`
	EndedAt     string `json:"endedAt,omitempty"`
	EndedReason string `json:"endedReason,omitempty"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

func toPersonCaseResponse(a association.PersonCase) associationResponse {
	return associationResponse{
		ID:          a.ID().String(),
		Kind:        string(association.KindPersonCase),
		SubjectID:   a.PersonID().String(),
		ObjectID:    a.CaseID().String(),
		Label:       string(a.Label()),
		Status:      string(a.Status()),
		StartedAt:   formatOptionalTime(a.StartedAt()),
		EndedAt:     formatOptionalTime(a.EndedAt()),
		EndedReason: a.EndedReason(),
		CreatedAt:   a.CreatedAt().UTC().Format(time.RFC3339),
		UpdatedAt:   a.UpdatedAt().UTC().Format(time.RFC3339),
	}
}

func toPersonReportResponse(a association.PersonReport) associationResponse {
	return associationResponse{
		ID:        a.ID().String(),
		Kind:      string(association.KindPersonReport),
		SubjectID: a.PersonID().String(),
		ObjectID:  a.ReportID().String(),
		Label:     string(a.Label()),
		Status:    string(a.Status()),
		CreatedAt: a.CreatedAt().UTC().Format(time.RFC3339),
		UpdatedAt: a.UpdatedAt().UTC().Format(time.RFC3339),
	}
}

func toCaseCaseResponse(a association.CaseCase) associationResponse {
	return associationResponse{
		ID:        a.ID().String(),
		Kind:      string(association.KindCaseCase),
		SubjectID: a.SubjectCaseID().String(),
		ObjectID:  a.ObjectCaseID().String(),
		Label:     string(a.Label()),
		CreatedAt: a.CreatedAt().UTC().Format(time.RFC3339),
		UpdatedAt: a.UpdatedAt().UTC().Format(time.RFC3339),
	}
}

func toPersonPersonResponse(a association.PersonPerson) associationResponse {
	return associationResponse{
		ID:        a.ID().String(),
		Kind:      string(association.KindPersonPerson),
		SubjectID: a.PersonAID().String(),
		ObjectID:  a.PersonBID().String(),
		Label:     string(a.Label()),
		CreatedAt: a.CreatedAt().UTC().Format(time.RFC3339),
		UpdatedAt: a.UpdatedAt().UTC().Format(time.RFC3339),
	}
}

func toReportLinkResponses(links []casefile.ReportLink) []reportLinkResponse {
	out := make([]reportLinkResponse, 0, len(links))
	for _, link := range links {
		out = append(out, toReportLinkResponse(link))
	}
	return out
}

// parseKind turns the URL segment (person-case, case-case, ...) into the
// routing kind.
func parseKind(raw string) (association.Kind, bool) {
	kind := association.Kind(strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(raw)), "-", "_"))
	return kind, kind.IsValid()
}

func (c *AssociationAPIController) CreatePersonCase(w http.ResponseWriter, r *http.Request) {
	if !ensureCasesAuthz(w, r, associationsObject, "create") {
		return
	}

	caseID, ok := pathUUID(r, "caseId")
	if !ok {
		writeAPIError(w, r, http.StatusBadRequest, "CASE_INVALID_ID", "invalid case id")
		return
	}

	var dto association.CreatePersonCaseDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "ASSOCIATION_INVALID_JSON", "invalid json")
		return
	}
	if errs, ok := dto.Ok(r.Context()); !ok {
		writeFieldErrors(w, r, "ASSOCIATION_VALIDATION_FAILED", "validation failed", errs)
		return
	}

	created, err := c.assocs.CreatePersonCase(r.Context(), caseID, &dto)
	if err != nil {
		writeCasesError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPersonCaseResponse(created))
}

func (c *AssociationAPIController) CreatePersonReport(w http.ResponseWriter, r *http.Request) {
	if !ensureCasesAuthz(w, r, associationsObject, "create") {
		return
	}

	reportID, ok := pathUUID(r, "reportId")
	if !ok {
		writeAPIError(w, r, http.StatusBadRequest, "REPORT_INVALID_ID", "invalid report id")
		return
	}

	var dto association.CreatePersonReportDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "ASSOCIATION_INVALID_JSON", "invalid json")
		return
	}
	if errs, ok := dto.Ok(r.Context()); !ok {
		writeFieldErrors(w, r, "ASSOCIATION_VALIDATION_FAILED", "validation failed", errs)
		return
	}

	created, err := c.assocs.CreatePersonReport(r.Context(), reportID, &dto)
	if err != nil {
		writeCasesError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPersonReportResponse(created))
}

func (c *AssociationAPIController) CreateCaseCase(w http.ResponseWriter, r *http.Request) {
	if !ensureCasesAuthz(w, r, associationsObject, "create") {
		return
	}

	subjectCaseID, ok := pathUUID(r, "caseId")
	if !ok {
		writeAPIError(w, r, http.StatusBadRequest, "CASE_INVALID_ID", "invalid case id")
		return
	}

	var dto association.CreateCaseCaseDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "ASSOCIATION_INVALID_JSON", "invalid json")
		return
	}
	if errs, ok := dto.Ok(r.Context()); !ok {
		writeFieldErrors(w, r, "ASSOCIATION_VALIDATION_FAILED", "validation failed", errs)
		return
	}

	created, err := c.assocs.CreateCaseCase(r.Context(), subjectCaseID, &dto)
	if err != nil {
		writeCasesError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCaseCaseResponse(created))
}

func (c *AssociationAPIController) CreatePersonPerson(w http.ResponseWriter, r *http.Request) {
	if !ensureCasesAuthz(w, r, associationsObject, "create") {
		return
	}

	personID, ok := pathUUID(r, "personId")
	if !ok {
		writeAPIError(w, r, http.StatusBadRequest, "PERSON_INVALID_ID", "invalid person id")
		return
	}

	var dto association.CreatePersonPersonDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "ASSOCIATION_INVALID_JSON", "invalid json")
		return
	}
	if errs, ok := dto.Ok(r.Context()); !ok {
		writeFieldErrors(w, r, "ASSOCIATION_VALIDATION_FAILED", "validation failed", errs)
		return
	}

	created, err := c.assocs.CreatePersonPerson(r.Context(), personID, &dto)
	if err != nil {
		writeCasesError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPersonPersonResponse(created))
}

func (c *AssociationAPIController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	if !ensureCasesAuthz(w, r, associationsObject, "update") {
		return
	}

	kind, ok := parseKind(mux.Vars(r)["kind"])
	if !ok {
		writeAPIError(w, r, http.StatusBadRequest, "ASSOCIATION_INVALID_KIND", "invalid association kind")
		return
	}
	id, ok := pathUUID(r, "id")
	if !ok {
		writeAPIError(w, r, http.StatusBadRequest, "ASSOCIATION_INVALID_ID", "invalid association id")
		return
	}

	var dto association.UpdateStatusDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "ASSOCIATION_INVALID_JSON", "invalid json")
		return
	}
	if errs, ok := dto.Ok(r.Context()); !ok {
		writeFieldErrors(w, r, "ASSOCIATION_VALIDATION_FAILED", "validation failed", errs)
		return
	}

	if err := c.assocs.UpdateStatus(r.Context(), kind, id, &dto); err != nil {
		writeCasesError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (c *AssociationAPIController) EndRole(w http.ResponseWriter, r *http.Request) {
	if !ensureCasesAuthz(w, r, associationsObject, "update") {
		return
	}

	id, ok := pathUUID(r, "id")
	if !ok {
		writeAPIError(w, r, http.StatusBadRequest, "ASSOCIATION_INVALID_ID", "invalid association id")
		return
	}

	var dto association.EndRoleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "ASSOCIATION_INVALID_JSON", "invalid json")
		return
	}
	if errs, ok := dto.Ok(r.Context()); !ok {
		writeFieldErrors(w, r, "ASSOCIATION_VALIDATION_FAILED", "validation failed", errs)
		return
	}

	if err := c.assocs.EndRole(r.Context(), id, &dto); err != nil {
		writeCasesError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (c *AssociationAPIController) Remove(w http.ResponseWriter, r *http.Request) {
	if !ensureCasesAuthz(w, r, associationsObject, "delete") {
		return
	}

	kind, ok := parseKind(mux.Vars(r)["kind"])
	if !ok {
		writeAPIError(w, r, http.StatusBadRequest, "ASSOCIATION_INVALID_KIND", "invalid association kind")
		return
	}
	id, ok := pathUUID(r, "id")
	if !ok {
		writeAPIError(w, r, http.StatusBadRequest, "ASSOCIATION_INVALID_ID", "invalid association id")
		return
	}

	dto := &association.RemoveDTO{}
	if r.Body != nil {
		// The body is optional; a missing reason is allowed.
		_ = json.NewDecoder(r.Body).Decode(dto)
	}
	dto.Normalize()

	if err := c.assocs.Remove(r.Context(), kind, id, dto); err != nil {
		writeCasesError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (c *AssociationAPIController) ListForCase(w http.ResponseWriter, r *http.Request) {
	if !ensureCasesAuthz(w, r, associationsObject, "list") {
		return
	}

	caseID, ok := pathUUID(r, "caseId")
	if !ok {
		writeAPIError(w, r, http.StatusBadRequest, "CASE_INVALID_ID", "invalid case id")
		return
	}

	grouped, err := c.assocs.ListForCase(r.Context(), caseID)
	if err != nil {
		writeCasesError(w, r, err)
		return
	}

	persons := make([]associationResponse, 0, len(grouped.Persons))
	for _, a := range grouped.Persons {
		persons = append(persons, toPersonCaseResponse(a))
	}
	cases := make([]associationResponse, 0, len(grouped.Cases))
	for _, a := range grouped.Cases {
		cases = append(cases, toCaseCaseResponse(a))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"persons": persons,
		"cases":   cases,
		"reports": toReportLinkResponses(grouped.Reports),
	})
}

func (c *AssociationAPIController) ListForReport(w http.ResponseWriter, r *http.Request) {
	if !ensureCasesAuthz(w, r, associationsObject, "list") {
		return
	}

	reportID, ok := pathUUID(r, "reportId")
	if !ok {
		writeAPIError(w, r, http.StatusBadRequest, "REPORT_INVALID_ID", "invalid report id")
		return
	}

	items, err := c.assocs.ListForReport(r.Context(), reportID)
	if err != nil {
		writeCasesError(w, r, err)
		return
	}
	out := make([]associationResponse, 0, len(items))
	for _, a := range items {
		out = append(out, toPersonReportResponse(a))
	}
	writeJSON(w, http.StatusOK, map[string]any{"persons": out})
}

func (c *AssociationAPIController) ListForPerson(w http.ResponseWriter, r *http.Request) {
	if !ensureCasesAuthz(w, r, associationsObject, "list") {
		return
	}

	personID, ok := pathUUID(r, "personId")
	if !ok {
		writeAPIError(w, r, http.StatusBadRequest, "PERSON_INVALID_ID", "invalid person id")
		return
	}

	grouped, err := c.assocs.ListForPerson(r.Context(), personID)
	if err != nil {
		writeCasesError(w, r, err)
		return
	}

	cases := make([]associationResponse, 0, len(grouped.Cases))
	for _, a := range grouped.Cases {
		cases = append(cases, toPersonCaseResponse(a))
	}
	reports := make([]associationResponse, 0, len(grouped.Reports))
	for _, a := range grouped.Reports {
		reports = append(reports, toPersonReportResponse(a))
	}
	persons := make([]associationResponse, 0, len(grouped.Persons))
	for _, a := range grouped.Persons {
		persons = append(persons, toPersonPersonResponse(a))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"cases":   cases,
		"reports": reports,
		"persons": persons,
	})
}

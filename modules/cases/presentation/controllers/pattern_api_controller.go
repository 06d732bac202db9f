package controllers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/caseweave/caseweave/modules/cases/domain/projection"
	"github.com/caseweave/caseweave/modules/cases/services"
	"github.com/caseweave/caseweave/pkg/application"
	"github.com/caseweave/caseweave/pkg/middleware"
)

// PatternAPIController exposes the pattern index: who shows up across
// cases, in which combinations, and how often a person has reported before.
type PatternAPIController struct {
	app      application.Application
	patterns *services.PatternQueryService
	basePath string
}

func NewPatternAPIController(app application.Application) application.Controller {
	return &PatternAPIController{
		app:      app,
		patterns: app.Service(services.PatternQueryService{}).(*services.PatternQueryService),
		basePath: "/api/v1/patterns",
	}
}

func (c *PatternAPIController) Key() string {
	return c.basePath
}

func (c *PatternAPIController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(
		middleware.RequireTenantFromHost(c.app),
		middleware.ProvideActor(c.app),
		middleware.ProvideLocalizer(c.app),
	)
	router.HandleFunc("/persons/{personId}/cases", c.CasesInvolvingPerson).Methods(http.MethodGet)
	router.HandleFunc("/persons/{personId}/reporter-history", c.ReporterHistory).Methods(http.MethodGet)
	router.HandleFunc("/combinations", c.Combinations).Methods(http.MethodPost)
}

type caseMatchResponse struct {
	CaseID     string   `json:"caseId"`
	CaseNumber string   `json:"caseNumber"`
	Title      string   `json:"title"`
	Status     string   `json:"status"`
	Stage      string   `json:"stage"`
	IsMerged   bool     `json:"isMerged"`
	MatchCount int      `json:"matchCount"`
	Roles      []string `json:"roles"`
	IndexedAt  string   `json:"indexedAt"`
}

func toCaseMatchResponse(m projection.CaseMatch) caseMatchResponse {
	return caseMatchResponse{
		CaseID:     m.CaseID.String(),
		CaseNumber: m.CaseNumber,
		Title:      m.Title,
		Status:     m.Status,
		Stage:      m.Stage,
		IsMerged:   m.IsMerged,
		MatchCount: m.MatchCount,
		Roles:      m.Roles,
		IndexedAt:  m.IndexedAt.UTC().Format(time.RFC3339),
	}
}

func writeCaseMatches(w http.ResponseWriter, matches []projection.CaseMatch) {
	out := make([]caseMatchResponse, 0, len(matches))
	for _, m := range matches {
		out = append(out, toCaseMatchResponse(m))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (c *PatternAPIController) CasesInvolvingPerson(w http.ResponseWriter, r *http.Request) {
	if !ensureCasesAuthz(w, r, patternsObject, "view") {
		return
	}

	personID, ok := pathUUID(r, "personId")
	if !ok {
		writeAPIError(w, r, http.StatusBadRequest, "PERSON_INVALID_ID", "invalid person id")
		return
	}

	var roleFilter []string
	if v := strings.TrimSpace(r.URL.Query().Get("roles")); v != "" {
		for _, role := range strings.Split(v, ",") {
			if role = strings.ToUpper(strings.TrimSpace(role)); role != "" {
				roleFilter = append(roleFilter, role)
			}
		}
	}
	nameQuery := strings.TrimSpace(r.URL.Query().Get("name"))

	matches, err := c.patterns.FindCasesInvolvingPerson(r.Context(), personID, roleFilter, nameQuery)
	if err != nil {
		writeCasesError(w, r, err)
		return
	}
	writeCaseMatches(w, matches)
}

type combinationRequest struct {
	Criteria []struct {
		PersonID string   `json:"personId"`
		Roles    []string `json:"roles"`
	} `json:"criteria"`
}

func (c *PatternAPIController) Combinations(w http.ResponseWriter, r *http.Request) {
	if !ensureCasesAuthz(w, r, patternsObject, "view") {
		return
	}

	var req combinationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "PATTERN_INVALID_JSON", "invalid json")
		return
	}

	criteria := make([]projection.CombinationCriterion, 0, len(req.Criteria))
	for _, raw := range req.Criteria {
		personID, err := uuid.Parse(strings.TrimSpace(raw.PersonID))
		if err != nil {
			writeAPIError(w, r, http.StatusBadRequest, "PERSON_INVALID_ID", "invalid person id")
			return
		}
		roles := make([]string, 0, len(raw.Roles))
		for _, role := range raw.Roles {
			if role = strings.ToUpper(strings.TrimSpace(role)); role != "" {
				roles = append(roles, role)
			}
		}
		criteria = append(criteria, projection.CombinationCriterion{PersonID: personID, Roles: roles})
	}

	matches, err := c.patterns.FindCasesWithPersonCombination(r.Context(), criteria)
	if err != nil {
		writeCasesError(w, r, err)
		return
	}
	writeCaseMatches(w, matches)
}

func (c *PatternAPIController) ReporterHistory(w http.ResponseWriter, r *http.Request) {
	if !ensureCasesAuthz(w, r, patternsObject, "view") {
		return
	}

	personID, ok := pathUUID(r, "personId")
	if !ok {
		writeAPIError(w, r, http.StatusBadRequest, "PERSON_INVALID_ID", "invalid person id")
		return
	}

	excludingReportID := uuid.Nil
	if v := strings.TrimSpace(r.URL.Query().Get("excludingReportId")); v != "" {
		parsed, err := uuid.Parse(v)
		if err != nil {
			writeAPIError(w, r, http.StatusBadRequest, "REPORT_INVALID_ID", "invalid report id")
			return
		}
		excludingReportID = parsed
	}

	history, err := c.patterns.GetReporterHistory(r.Context(), personID, excludingReportID)
	if err != nil {
		writeCasesError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"personId":      history.PersonID.String(),
		"previousCount": history.PreviousCount,
		"summary":       history.Summary,
	})
}

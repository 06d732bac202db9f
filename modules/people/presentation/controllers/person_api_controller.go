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

	"github.com/caseweave/caseweave/modules/people/domain/aggregates/person"
	"github.com/caseweave/caseweave/modules/people/services"
	"github.com/caseweave/caseweave/pkg/application"
	"github.com/caseweave/caseweave/pkg/middleware"
	"github.com/caseweave/caseweave/pkg/serrors"
)

type PersonAPIController struct {
	app      application.Application
	persons  *services.PersonService
	basePath string
}

func NewPersonAPIController(app application.Application) application.Controller {
	return &PersonAPIController{
		app:      app,
		persons:  app.Service(services.PersonService{}).(*services.PersonService),
		basePath: "/api/v1/persons",
	}
}

func (c *PersonAPIController) Key() string {
	return c.basePath
}

func (c *PersonAPIController) Register(r *mux.Router) {
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
	writeRouter.HandleFunc("/{id}", c.Update).Methods(http.MethodPut)
	writeRouter.HandleFunc("/{id}/merge-marker", c.MarkMerged).Methods(http.MethodPost)
}

type personResponse struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	Source       string `json:"source"`
	Status       string `json:"status"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	DisplayName  string `json:"displayName"`
	Email        string `json:"email,omitempty"`
	ExternalRef  string `json:"externalRef,omitempty"`
	MergedIntoID string `json:"mergedIntoId,omitempty"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}

func personToResponse(p person.Person) personResponse {
	out := personResponse{
		ID:          p.ID().String(),
		Type:        string(p.Type()),
		Source:      string(p.Source()),
		Status:      string(p.Status()),
		FirstName:   p.FirstName(),
		LastName:    p.LastName(),
		DisplayName: p.DisplayName(),
		Email:       p.Email(),
		ExternalRef: p.ExternalRef(),
		CreatedAt:   p.CreatedAt().UTC().Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt().UTC().Format(time.RFC3339),
	}
	if p.MergedIntoID() != uuid.Nil {
		out.MergedIntoID = p.MergedIntoID().String()
	}
	return out
}

func (c *PersonAPIController) List(w http.ResponseWriter, r *http.Request) {
	if !ensurePeopleAuthz(w, r, personsObject, "list") {
		return
	}

	params := &person.FindParams{
		Q:     strings.TrimSpace(r.URL.Query().Get("q")),
		Limit: 20,
	}
	if v := strings.TrimSpace(r.URL.Query().Get("type")); v != "" {
		params.Type = person.Type(strings.ToUpper(v))
	}
	if v := strings.TrimSpace(r.URL.Query().Get("status")); v != "" {
		params.Status = person.Status(strings.ToUpper(v))
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

	items, total, err := c.persons.GetPaginated(r.Context(), params)
	if err != nil {
		writeAPIError(w, r, http.StatusInternalServerError, "PERSON_INTERNAL", "internal error")
		return
	}

	out := make([]personResponse, 0, len(items))
	for _, p := range items {
		out = append(out, personToResponse(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": out,
		"total": total,
	})
}

func (c *PersonAPIController) GetByID(w http.ResponseWriter, r *http.Request) {
	if !ensurePeopleAuthz(w, r, personsObject, "view") {
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "PERSON_INVALID_ID", "invalid person id")
		return
	}

	entity, err := c.persons.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, person.ErrNotFound) {
			writeAPIError(w, r, http.StatusNotFound, "PERSON_NOT_FOUND", "person not found")
			return
		}
		writeAPIError(w, r, http.StatusInternalServerError, "PERSON_INTERNAL", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, personToResponse(entity))
}

func (c *PersonAPIController) Create(w http.ResponseWriter, r *http.Request) {
	if !ensurePeopleAuthz(w, r, personsObject, "create") {
		return
	}

	var dto person.CreateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "PERSON_INVALID_JSON", "invalid json")
		return
	}

	if errs, ok := dto.Ok(r.Context()); !ok {
		writeFieldErrors(w, r, "PERSON_VALIDATION_FAILED", "validation failed", errs)
		return
	}

	created, err := c.persons.Create(r.Context(), &dto)
	if err != nil {
		if errors.Is(err, person.ErrExternalRefTaken) {
			writeAPIError(w, r, http.StatusConflict, "PERSON_EXTERNAL_REF_CONFLICT", "external ref already used")
			return
		}
		writeAPIError(w, r, http.StatusInternalServerError, "PERSON_INTERNAL", "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, personToResponse(created))
}

func (c *PersonAPIController) Update(w http.ResponseWriter, r *http.Request) {
	if !ensurePeopleAuthz(w, r, personsObject, "update") {
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "PERSON_INVALID_ID", "invalid person id")
		return
	}

	var dto person.UpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "PERSON_INVALID_JSON", "invalid json")
		return
	}

	if errs, ok := dto.Ok(r.Context()); !ok {
		writeFieldErrors(w, r, "PERSON_VALIDATION_FAILED", "validation failed", errs)
		return
	}

	updated, err := c.persons.Update(r.Context(), id, &dto)
	if err != nil {
		if errors.Is(err, person.ErrNotFound) {
			writeAPIError(w, r, http.StatusNotFound, "PERSON_NOT_FOUND", "person not found")
			return
		}
		if errors.Is(err, person.ErrExternalRefTaken) {
			writeAPIError(w, r, http.StatusConflict, "PERSON_EXTERNAL_REF_CONFLICT", "external ref already used")
			return
		}
		writeAPIError(w, r, http.StatusInternalServerError, "PERSON_INTERNAL", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, personToResponse(updated))
}

func (c *PersonAPIController) MarkMerged(w http.ResponseWriter, r *http.Request) {
	if !ensurePeopleAuthz(w, r, personsObject, "merge") {
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "PERSON_INVALID_ID", "invalid person id")
		return
	}

	var dto person.MarkMergedDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "PERSON_INVALID_JSON", "invalid json")
		return
	}

	if errs, ok := dto.Ok(r.Context()); !ok {
		writeFieldErrors(w, r, "PERSON_VALIDATION_FAILED", "validation failed", errs)
		return
	}

	intoID, err := uuid.Parse(dto.MergedIntoID)
	if err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "PERSON_INVALID_ID", "invalid merge target id")
		return
	}

	merged, err := c.persons.MarkMerged(r.Context(), id, intoID)
	if err != nil {
		if errors.Is(err, person.ErrNotFound) {
			writeAPIError(w, r, http.StatusNotFound, "PERSON_NOT_FOUND", "person not found")
			return
		}
		var base *serrors.BaseError
		if errors.As(err, &base) {
			writeAPIError(w, r, http.StatusConflict, base.Code, base.Error())
			return
		}
		writeAPIError(w, r, http.StatusInternalServerError, "PERSON_INTERNAL", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, personToResponse(merged))
}

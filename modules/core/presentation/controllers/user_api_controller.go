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

	"github.com/caseweave/caseweave/modules/core/domain/aggregates/user"
	"github.com/caseweave/caseweave/modules/core/infrastructure/persistence"
	"github.com/caseweave/caseweave/modules/core/presentation/controllers/dtos"
	"github.com/caseweave/caseweave/modules/core/services"
	"github.com/caseweave/caseweave/pkg/application"
	"github.com/caseweave/caseweave/pkg/middleware"
)

type UserAPIController struct {
	app      application.Application
	users    *services.UserService
	basePath string
}

func NewUserAPIController(app application.Application) application.Controller {
	return &UserAPIController{
		app:      app,
		users:    app.Service(services.UserService{}).(*services.UserService),
		basePath: "/api/v1/users",
	}
}

func (c *UserAPIController) Key() string {
	return c.basePath
}

func (c *UserAPIController) Register(r *mux.Router) {
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
	writeRouter.HandleFunc("/{id}", c.Delete).Methods(http.MethodDelete)
}

type userResponse struct {
	ID         string `json:"id"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	UILanguage string `json:"uiLanguage"`
	CreatedAt  string `json:"createdAt"`
	UpdatedAt  string `json:"updatedAt"`
}

func userToResponse(u user.User) userResponse {
	return userResponse{
		ID:         u.ID().String(),
		FirstName:  u.FirstName(),
		LastName:   u.LastName(),
		Email:      u.Email().Value(),
		UILanguage: string(u.UILanguage()),
		CreatedAt:  u.CreatedAt().UTC().Format(time.RFC3339),
		UpdatedAt:  u.UpdatedAt().UTC().Format(time.RFC3339),
	}
}

func (c *UserAPIController) List(w http.ResponseWriter, r *http.Request) {
	if !ensureCoreAuthz(w, r, usersObject, "list") {
		return
	}

	params := &user.FindParams{
		Search: strings.TrimSpace(r.URL.Query().Get("q")),
		Limit:  20,
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

	items, total, err := c.users.GetPaginatedWithTotal(r.Context(), params)
	if err != nil {
		writeAPIError(w, r, http.StatusInternalServerError, "USER_INTERNAL", "internal error")
		return
	}

	out := make([]userResponse, 0, len(items))
	for _, u := range items {
		out = append(out, userToResponse(u))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": out,
		"total": total,
	})
}

func (c *UserAPIController) GetByID(w http.ResponseWriter, r *http.Request) {
	if !ensureCoreAuthz(w, r, usersObject, "view") {
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "USER_INVALID_ID", "invalid user id")
		return
	}

	entity, err := c.users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, persistence.ErrUserNotFound) {
			writeAPIError(w, r, http.StatusNotFound, "USER_NOT_FOUND", "user not found")
			return
		}
		writeAPIError(w, r, http.StatusInternalServerError, "USER_INTERNAL", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, userToResponse(entity))
}

func (c *UserAPIController) Create(w http.ResponseWriter, r *http.Request) {
	if !ensureCoreAuthz(w, r, usersObject, "create") {
		return
	}

	var dto dtos.CreateUserDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "USER_INVALID_JSON", "invalid json")
		return
	}

	if errs, ok := dto.Ok(r.Context()); !ok {
		writeFieldErrors(w, r, "USER_VALIDATION_FAILED", "validation failed", errs)
		return
	}

	tenantID := tenantIDFromRequest(r)
	entity, err := dto.ToEntity(tenantID)
	if err != nil {
		writeAPIError(w, r, http.StatusUnprocessableEntity, "USER_INVALID_PAYLOAD", err.Error())
		return
	}

	created, err := c.users.Create(r.Context(), entity)
	if err != nil {
		if errors.Is(err, persistence.ErrUserEmailTaken) {
			writeAPIError(w, r, http.StatusConflict, "USER_EMAIL_CONFLICT", "email already taken")
			return
		}
		writeAPIError(w, r, http.StatusInternalServerError, "USER_INTERNAL", "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, userToResponse(created))
}

func (c *UserAPIController) Update(w http.ResponseWriter, r *http.Request) {
	if !ensureCoreAuthz(w, r, usersObject, "update") {
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "USER_INVALID_ID", "invalid user id")
		return
	}

	var dto dtos.UpdateUserDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "USER_INVALID_JSON", "invalid json")
		return
	}

	if errs, ok := dto.Ok(r.Context()); !ok {
		writeFieldErrors(w, r, "USER_VALIDATION_FAILED", "validation failed", errs)
		return
	}

	existing, err := c.users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, persistence.ErrUserNotFound) {
			writeAPIError(w, r, http.StatusNotFound, "USER_NOT_FOUND", "user not found")
			return
		}
		writeAPIError(w, r, http.StatusInternalServerError, "USER_INTERNAL", "internal error")
		return
	}

	entity, err := dto.Apply(existing)
	if err != nil {
		writeAPIError(w, r, http.StatusUnprocessableEntity, "USER_INVALID_PAYLOAD", err.Error())
		return
	}

	updated, err := c.users.Update(r.Context(), entity)
	if err != nil {
		if errors.Is(err, persistence.ErrUserEmailTaken) {
			writeAPIError(w, r, http.StatusConflict, "USER_EMAIL_CONFLICT", "email already taken")
			return
		}
		writeAPIError(w, r, http.StatusInternalServerError, "USER_INTERNAL", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, userToResponse(updated))
}

func (c *UserAPIController) Delete(w http.ResponseWriter, r *http.Request) {
	if !ensureCoreAuthz(w, r, usersObject, "delete") {
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "USER_INVALID_ID", "invalid user id")
		return
	}

	if _, err := c.users.Delete(r.Context(), id); err != nil {
		if errors.Is(err, persistence.ErrUserNotFound) {
			writeAPIError(w, r, http.StatusNotFound, "USER_NOT_FOUND", "user not found")
			return
		}
		writeAPIError(w, r, http.StatusInternalServerError, "USER_INTERNAL", "internal error")
		return
	}

	writeJSON(w, http.StatusNoContent, nil)
}

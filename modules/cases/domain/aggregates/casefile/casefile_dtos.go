package casefile

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/caseweave/caseweave/pkg/constants"
	"github.com/caseweave/caseweave/pkg/intl"
	"github.com/caseweave/caseweave/pkg/serrors"
)

type CreateDTO struct {
	CaseNumber string `json:"caseNumber" validate:"required"`
	Title      string `json:"title" validate:"required"`
}

func (d *CreateDTO) Normalize() {
	d.CaseNumber = strings.TrimSpace(d.CaseNumber)
	d.Title = strings.TrimSpace(d.Title)
}

func (d *CreateDTO) Ok(ctx context.Context) (map[string]string, bool) {
	l, ok := intl.UseLocalizer(ctx)
	if !ok {
		panic(intl.ErrNoLocalizer)
	}

	d.Normalize()

	validationErrors := make(serrors.ValidationErrors)
	if errs := constants.Validate.Struct(d); errs != nil {
		for field, err := range serrors.ProcessValidatorErrors(errs.(validator.ValidationErrors), caseFieldLocaleKey) {
			validationErrors[field] = err
		}
	}

	if len(validationErrors) == 0 {
		return map[string]string{}, true
	}
	return serrors.LocalizeValidationErrors(validationErrors, l), false
}

func (d *CreateDTO) ToEntity(tenantID uuid.UUID) Case {
	return New(tenantID, d.CaseNumber, d.Title)
}

// UpdateDTO carries the mutations a case accepts after creation. Stage and
// outcome are independent: advancing the pipeline and closing the case are
// different requests.
type UpdateDTO struct {
	Title   *string `json:"title"`
	Stage   string  `json:"stage" validate:"omitempty,oneof=INTAKE TRIAGE INVESTIGATION REVIEW CLOSURE"`
	Outcome string  `json:"outcome" validate:"omitempty,oneof=SUBSTANTIATED UNSUBSTANTIATED INCONCLUSIVE"`
}

func (d *UpdateDTO) Normalize() {
	if d.Title != nil {
		v := strings.TrimSpace(*d.Title)
		d.Title = &v
	}
	d.Stage = strings.ToUpper(strings.TrimSpace(d.Stage))
	d.Outcome = strings.ToUpper(strings.TrimSpace(d.Outcome))
}

func (d *UpdateDTO) Ok(ctx context.Context) (map[string]string, bool) {
	l, ok := intl.UseLocalizer(ctx)
	if !ok {
		panic(intl.ErrNoLocalizer)
	}

	d.Normalize()

	validationErrors := make(serrors.ValidationErrors)
	if errs := constants.Validate.Struct(d); errs != nil {
		for field, err := range serrors.ProcessValidatorErrors(errs.(validator.ValidationErrors), caseFieldLocaleKey) {
			validationErrors[field] = err
		}
	}
	if d.Title != nil && *d.Title == "" {
		validationErrors["Title"] = serrors.NewFieldRequiredError("Title", "Cases.Fields.Title")
	}

	if len(validationErrors) == 0 {
		return map[string]string{}, true
	}
	return serrors.LocalizeValidationErrors(validationErrors, l), false
}

func caseFieldLocaleKey(field string) string {
	switch field {
	case "CaseNumber", "Title", "Stage", "Outcome":
		return fmt.Sprintf("Cases.Fields.%s", field)
	default:
		return ""
	}
}

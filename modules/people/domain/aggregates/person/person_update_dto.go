package person

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/caseweave/caseweave/pkg/constants"
	"github.com/caseweave/caseweave/pkg/intl"
	"github.com/caseweave/caseweave/pkg/serrors"
)

// UpdateDTO covers the mutable identity fields. Type and source are fixed
// at creation and have no place here.
type UpdateDTO struct {
	FirstName   string `json:"firstName" validate:"required"`
	LastName    string `json:"lastName" validate:"required"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email" validate:"omitempty,email"`
	ExternalRef string `json:"externalRef"`
}

func (d *UpdateDTO) Normalize() {
	d.FirstName = strings.TrimSpace(d.FirstName)
	d.LastName = strings.TrimSpace(d.LastName)
	d.DisplayName = strings.TrimSpace(d.DisplayName)
	d.Email = strings.TrimSpace(d.Email)
	d.ExternalRef = strings.TrimSpace(d.ExternalRef)
}

func (d *UpdateDTO) Ok(ctx context.Context) (map[string]string, bool) {
	l, ok := intl.UseLocalizer(ctx)
	if !ok {
		panic(intl.ErrNoLocalizer)
	}

	d.Normalize()

	errs := constants.Validate.Struct(d)
	if errs == nil {
		return map[string]string{}, true
	}

	validationErrors := make(serrors.ValidationErrors)
	for field, err := range serrors.ProcessValidatorErrors(errs.(validator.ValidationErrors), personFieldLocaleKey) {
		validationErrors[field] = err
	}
	return serrors.LocalizeValidationErrors(validationErrors, l), false
}

func (d *UpdateDTO) Apply(p Person) Person {
	out := p.Rename(d.FirstName, d.LastName)
	out = out.SetDisplayName(d.DisplayName)
	out = out.SetEmail(d.Email)
	out = out.SetExternalRef(d.ExternalRef)
	return out
}

// MarkMergedDTO points a duplicate person at its survivor.
type MarkMergedDTO struct {
	MergedIntoID string `json:"mergedIntoId" validate:"required,uuid"`
}

func (d *MarkMergedDTO) Ok(ctx context.Context) (map[string]string, bool) {
	l, ok := intl.UseLocalizer(ctx)
	if !ok {
		panic(intl.ErrNoLocalizer)
	}

	d.MergedIntoID = strings.TrimSpace(d.MergedIntoID)

	errs := constants.Validate.Struct(d)
	if errs == nil {
		return map[string]string{}, true
	}

	validationErrors := make(serrors.ValidationErrors)
	for field, err := range serrors.ProcessValidatorErrors(errs.(validator.ValidationErrors), personFieldLocaleKey) {
		validationErrors[field] = err
	}
	return serrors.LocalizeValidationErrors(validationErrors, l), false
}

package person

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
	Type        string `json:"type" validate:"required,oneof=EMPLOYEE EXTERNAL"`
	Source      string `json:"source" validate:"required,oneof=HRIS MANUAL INTAKE"`
	FirstName   string `json:"firstName" validate:"required"`
	LastName    string `json:"lastName" validate:"required"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email" validate:"omitempty,email"`
	ExternalRef string `json:"externalRef"`
}

func (d *CreateDTO) Normalize() {
	d.Type = strings.ToUpper(strings.TrimSpace(d.Type))
	d.Source = strings.ToUpper(strings.TrimSpace(d.Source))
	d.FirstName = strings.TrimSpace(d.FirstName)
	d.LastName = strings.TrimSpace(d.LastName)
	d.DisplayName = strings.TrimSpace(d.DisplayName)
	d.Email = strings.TrimSpace(d.Email)
	d.ExternalRef = strings.TrimSpace(d.ExternalRef)
}

func (d *CreateDTO) Ok(ctx context.Context) (map[string]string, bool) {
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

func (d *CreateDTO) ToEntity(tenantID uuid.UUID) Person {
	p := New(tenantID, Type(d.Type), Source(d.Source), d.FirstName, d.LastName)
	if d.DisplayName != "" {
		p = p.SetDisplayName(d.DisplayName)
	}
	if d.Email != "" {
		p = p.SetEmail(d.Email)
	}
	if d.ExternalRef != "" {
		p = p.SetExternalRef(d.ExternalRef)
	}
	return p
}

func personFieldLocaleKey(field string) string {
	switch field {
	case "Type", "Source", "FirstName", "LastName", "DisplayName", "Email", "ExternalRef", "MergedIntoID":
		return fmt.Sprintf("People.Fields.%s", field)
	default:
		return ""
	}
}

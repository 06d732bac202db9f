package association

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/caseweave/caseweave/pkg/constants"
	"github.com/caseweave/caseweave/pkg/intl"
	"github.com/caseweave/caseweave/pkg/serrors"
)

// CreatePersonCaseDTO covers both label classes. Window fields belong to
// role labels only; submitting them with an evidentiary label is rejected
// rather than ignored.
type CreatePersonCaseDTO struct {
	PersonID  string     `json:"personId" validate:"required,uuid"`
	Label     string     `json:"label" validate:"required"`
	StartedAt *time.Time `json:"startedAt"`
	EndedAt   *time.Time `json:"endedAt"`
}

func (d *CreatePersonCaseDTO) Normalize() {
	d.PersonID = strings.TrimSpace(d.PersonID)
	d.Label = strings.ToUpper(strings.TrimSpace(d.Label))
}

func (d *CreatePersonCaseDTO) Ok(ctx context.Context) (map[string]string, bool) {
	l, ok := intl.UseLocalizer(ctx)
	if !ok {
		panic(intl.ErrNoLocalizer)
	}

	d.Normalize()

	validationErrors := make(serrors.ValidationErrors)
	if errs := constants.Validate.Struct(d); errs != nil {
		for field, err := range serrors.ProcessValidatorErrors(errs.(validator.ValidationErrors), associationFieldLocaleKey) {
			validationErrors[field] = err
		}
	}

	label := Label(d.Label)
	if d.Label != "" && !ValidPersonCaseLabel(label) {
		validationErrors["Label"] = newLabelKindError(KindPersonCase, label)
	}
	if IsEvidentiary(label) {
		if d.StartedAt != nil {
			validationErrors["StartedAt"] = newEvidentiaryWindowError("StartedAt", label)
		}
		if d.EndedAt != nil {
			validationErrors["EndedAt"] = newEvidentiaryWindowError("EndedAt", label)
		}
	}
	if IsRole(label) && d.EndedAt != nil {
		validationErrors["EndedAt"] = serrors.NewValidationError(
			"VALIDATION_ROLE_CREATED_ENDED",
			"a role association cannot be created already ended",
			"EndedAt",
			"Cases.Errors.RoleCreatedEnded",
		)
	}

	if len(validationErrors) == 0 {
		return map[string]string{}, true
	}
	return serrors.LocalizeValidationErrors(validationErrors, l), false
}

type CreatePersonReportDTO struct {
	PersonID string `json:"personId" validate:"required,uuid"`
	Label    string `json:"label" validate:"required"`
}

func (d *CreatePersonReportDTO) Normalize() {
	d.PersonID = strings.TrimSpace(d.PersonID)
	d.Label = strings.ToUpper(strings.TrimSpace(d.Label))
}

func (d *CreatePersonReportDTO) Ok(ctx context.Context) (map[string]string, bool) {
	l, ok := intl.UseLocalizer(ctx)
	if !ok {
		panic(intl.ErrNoLocalizer)
	}

	d.Normalize()

	validationErrors := make(serrors.ValidationErrors)
	if errs := constants.Validate.Struct(d); errs != nil {
		for field, err := range serrors.ProcessValidatorErrors(errs.(validator.ValidationErrors), associationFieldLocaleKey) {
			validationErrors[field] = err
		}
	}
	if d.Label != "" && !ValidPersonReportLabel(Label(d.Label)) {
		validationErrors["Label"] = newLabelKindError(KindPersonReport, Label(d.Label))
	}

	if len(validationErrors) == 0 {
		return map[string]string{}, true
	}
	return serrors.LocalizeValidationErrors(validationErrors, l), false
}

type CreateCaseCaseDTO struct {
	ObjectCaseID string `json:"objectCaseId" validate:"required,uuid"`
	Label        string `json:"label" validate:"required"`
}

func (d *CreateCaseCaseDTO) Normalize() {
	d.ObjectCaseID = strings.TrimSpace(d.ObjectCaseID)
	d.Label = strings.ToUpper(strings.TrimSpace(d.Label))
}

func (d *CreateCaseCaseDTO) Ok(ctx context.Context) (map[string]string, bool) {
	l, ok := intl.UseLocalizer(ctx)
	if !ok {
		panic(intl.ErrNoLocalizer)
	}

	d.Normalize()

	validationErrors := make(serrors.ValidationErrors)
	if errs := constants.Validate.Struct(d); errs != nil {
		for field, err := range serrors.ProcessValidatorErrors(errs.(validator.ValidationErrors), associationFieldLocaleKey) {
			validationErrors[field] = err
		}
	}
	if d.Label != "" && !ValidCaseCaseLabel(Label(d.Label)) {
		validationErrors["Label"] = newLabelKindError(KindCaseCase, Label(d.Label))
	}

	if len(validationErrors) == 0 {
		return map[string]string{}, true
	}
	return serrors.LocalizeValidationErrors(validationErrors, l), false
}

type CreatePersonPersonDTO struct {
	OtherPersonID string `json:"otherPersonId" validate:"required,uuid"`
	Label         string `json:"label" validate:"required"`
}

func (d *CreatePersonPersonDTO) Normalize() {
	d.OtherPersonID = strings.TrimSpace(d.OtherPersonID)
	d.Label = strings.ToUpper(strings.TrimSpace(d.Label))
}

func (d *CreatePersonPersonDTO) Ok(ctx context.Context) (map[string]string, bool) {
	l, ok := intl.UseLocalizer(ctx)
	if !ok {
		panic(intl.ErrNoLocalizer)
	}

	d.Normalize()

	validationErrors := make(serrors.ValidationErrors)
	if errs := constants.Validate.Struct(d); errs != nil {
		for field, err := range serrors.ProcessValidatorErrors(errs.(validator.ValidationErrors), associationFieldLocaleKey) {
			validationErrors[field] = err
		}
	}
	if d.Label != "" && !ValidPersonPersonLabel(Label(d.Label)) {
		validationErrors["Label"] = newLabelKindError(KindPersonPerson, Label(d.Label))
	}

	if len(validationErrors) == 0 {
		return map[string]string{}, true
	}
	return serrors.LocalizeValidationErrors(validationErrors, l), false
}

type UpdateStatusDTO struct {
	Status string `json:"status" validate:"required,oneof=ACTIVE CLEARED SUBSTANTIATED WITHDRAWN"`
	Reason string `json:"reason"`
}

func (d *UpdateStatusDTO) Normalize() {
	d.Status = strings.ToUpper(strings.TrimSpace(d.Status))
	d.Reason = strings.TrimSpace(d.Reason)
}

func (d *UpdateStatusDTO) Ok(ctx context.Context) (map[string]string, bool) {
	l, ok := intl.UseLocalizer(ctx)
	if !ok {
		panic(intl.ErrNoLocalizer)
	}

	d.Normalize()

	validationErrors := make(serrors.ValidationErrors)
	if errs := constants.Validate.Struct(d); errs != nil {
		for field, err := range serrors.ProcessValidatorErrors(errs.(validator.ValidationErrors), associationFieldLocaleKey) {
			validationErrors[field] = err
		}
	}

	if len(validationErrors) == 0 {
		return map[string]string{}, true
	}
	return serrors.LocalizeValidationErrors(validationErrors, l), false
}

type EndRoleDTO struct {
	EndedAt *time.Time `json:"endedAt"`
	Reason  string     `json:"reason" validate:"required"`
}

func (d *EndRoleDTO) Normalize() {
	d.Reason = strings.TrimSpace(d.Reason)
}

func (d *EndRoleDTO) Ok(ctx context.Context) (map[string]string, bool) {
	l, ok := intl.UseLocalizer(ctx)
	if !ok {
		panic(intl.ErrNoLocalizer)
	}

	d.Normalize()

	validationErrors := make(serrors.ValidationErrors)
	if errs := constants.Validate.Struct(d); errs != nil {
		for field, err := range serrors.ProcessValidatorErrors(errs.(validator.ValidationErrors), associationFieldLocaleKey) {
			validationErrors[field] = err
		}
	}

	if len(validationErrors) == 0 {
		return map[string]string{}, true
	}
	return serrors.LocalizeValidationErrors(validationErrors, l), false
}

type RemoveDTO struct {
	Reason string `json:"reason"`
}

func (d *RemoveDTO) Normalize() {
	d.Reason = strings.TrimSpace(d.Reason)
}

func newLabelKindError(kind Kind, label Label) *serrors.ValidationError {
	return serrors.NewValidationError(
		"VALIDATION_LABEL_KIND",
		fmt.Sprintf("label %s is not valid for %s associations", label, kind),
		"Label",
		"Cases.Errors.LabelKind",
	)
}

func newEvidentiaryWindowError(field string, label Label) *serrors.ValidationError {
	return serrors.NewValidationError(
		"VALIDATION_EVIDENTIARY_WINDOW",
		fmt.Sprintf("%s does not apply to evidentiary label %s", field, label),
		field,
		"Cases.Errors.EvidentiaryWindow",
	)
}

func associationFieldLocaleKey(field string) string {
	switch field {
	case "PersonID", "Label", "StartedAt", "EndedAt", "Status", "Reason",
		"ObjectCaseID", "OtherPersonID":
		return fmt.Sprintf("Cases.Fields.%s", field)
	default:
		return ""
	}
}

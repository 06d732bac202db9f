package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/caseweave/caseweave/pkg/constants"
	"github.com/caseweave/caseweave/pkg/intl"
	"github.com/caseweave/caseweave/pkg/serrors"
)

// CreateDTO captures everything intake knows at submission time. The
// content fields become immutable once the report is stored; the optional
// reporter/subject person ids let the platform wire the initial
// associations automatically.
type CreateDTO struct {
	ReportNumber     string `json:"reportNumber" validate:"required"`
	Channel          string `json:"channel" validate:"required,oneof=HOTLINE WEB_FORM DISCLOSURE"`
	Narrative        string `json:"narrative" validate:"required"`
	Category         string `json:"category" validate:"required"`
	Severity         string `json:"severity" validate:"required,oneof=LOW MEDIUM HIGH CRITICAL"`
	DetectedLanguage string `json:"detectedLanguage"`

	ReporterPersonID string   `json:"reporterPersonId" validate:"omitempty,uuid"`
	SubjectPersonIDs []string `json:"subjectPersonIds" validate:"omitempty,dive,uuid"`

	Hotline    *HotlineDetailsDTO    `json:"hotline"`
	WebForm    *WebFormDetailsDTO    `json:"webForm"`
	Disclosure *DisclosureDetailsDTO `json:"disclosure"`
}

type HotlineDetailsDTO struct {
	OperatorName   string    `json:"operatorName" validate:"required"`
	CallReference  string    `json:"callReference"`
	CallbackNumber string    `json:"callbackNumber"`
	ReceivedCallAt time.Time `json:"receivedCallAt" validate:"required"`
}

type WebFormDetailsDTO struct {
	FormVersion string    `json:"formVersion" validate:"required"`
	SubmitterIP string    `json:"submitterIp"`
	UserAgent   string    `json:"userAgent"`
	SubmittedAt time.Time `json:"submittedAt" validate:"required"`
}

type DisclosureDetailsDTO struct {
	DiscloserRole string    `json:"discloserRole" validate:"required"`
	Relationship  string    `json:"relationship"`
	LocationName  string    `json:"locationName"`
	DisclosedAt   time.Time `json:"disclosedAt" validate:"required"`
}

func (d *CreateDTO) Normalize() {
	d.ReportNumber = strings.TrimSpace(d.ReportNumber)
	d.Channel = strings.ToUpper(strings.TrimSpace(d.Channel))
	d.Category = strings.TrimSpace(d.Category)
	d.Severity = strings.ToUpper(strings.TrimSpace(d.Severity))
	d.DetectedLanguage = strings.ToLower(strings.TrimSpace(d.DetectedLanguage))
	d.ReporterPersonID = strings.TrimSpace(d.ReporterPersonID)
}

func (d *CreateDTO) Ok(ctx context.Context) (map[string]string, bool) {
	l, ok := intl.UseLocalizer(ctx)
	if !ok {
		panic(intl.ErrNoLocalizer)
	}

	d.Normalize()

	validationErrors := make(serrors.ValidationErrors)
	if errs := constants.Validate.Struct(d); errs != nil {
		for field, err := range serrors.ProcessValidatorErrors(errs.(validator.ValidationErrors), reportFieldLocaleKey) {
			validationErrors[field] = err
		}
	}

	// The extension must match the channel, and only one may be present.
	switch Channel(d.Channel) {
	case ChannelHotline:
		if d.Hotline == nil {
			validationErrors["Hotline"] = serrors.NewFieldRequiredError("Hotline", "Intake.Fields.Hotline")
		}
	case ChannelWebForm:
		if d.WebForm == nil {
			validationErrors["WebForm"] = serrors.NewFieldRequiredError("WebForm", "Intake.Fields.WebForm")
		}
	case ChannelDisclosure:
		if d.Disclosure == nil {
			validationErrors["Disclosure"] = serrors.NewFieldRequiredError("Disclosure", "Intake.Fields.Disclosure")
		}
	}
	if d.extensionCount() > 1 {
		validationErrors["Channel"] = serrors.NewValidationError(
			"VALIDATION_EXTENSION_MISMATCH",
			"exactly one channel extension must be provided",
			"Channel",
			"Intake.Errors.ExtensionMismatch",
		)
	}

	if len(validationErrors) == 0 {
		return map[string]string{}, true
	}
	return serrors.LocalizeValidationErrors(validationErrors, l), false
}

func (d *CreateDTO) extensionCount() int {
	n := 0
	if d.Hotline != nil {
		n++
	}
	if d.WebForm != nil {
		n++
	}
	if d.Disclosure != nil {
		n++
	}
	return n
}

func (d *CreateDTO) ToEntity(tenantID uuid.UUID) (Report, error) {
	var ext Extension
	switch Channel(d.Channel) {
	case ChannelHotline:
		if d.Hotline == nil {
			return Report{}, missingExtensionError("Hotline")
		}
		ext = HotlineDetails{
			OperatorName:   strings.TrimSpace(d.Hotline.OperatorName),
			CallReference:  strings.TrimSpace(d.Hotline.CallReference),
			CallbackNumber: strings.TrimSpace(d.Hotline.CallbackNumber),
			ReceivedCallAt: d.Hotline.ReceivedCallAt,
		}
	case ChannelWebForm:
		if d.WebForm == nil {
			return Report{}, missingExtensionError("WebForm")
		}
		ext = WebFormDetails{
			FormVersion: strings.TrimSpace(d.WebForm.FormVersion),
			SubmitterIP: strings.TrimSpace(d.WebForm.SubmitterIP),
			UserAgent:   strings.TrimSpace(d.WebForm.UserAgent),
			SubmittedAt: d.WebForm.SubmittedAt,
		}
	case ChannelDisclosure:
		if d.Disclosure == nil {
			return Report{}, missingExtensionError("Disclosure")
		}
		ext = DisclosureDetails{
			DiscloserRole: strings.TrimSpace(d.Disclosure.DiscloserRole),
			Relationship:  strings.TrimSpace(d.Disclosure.Relationship),
			LocationName:  strings.TrimSpace(d.Disclosure.LocationName),
			DisclosedAt:   d.Disclosure.DisclosedAt,
		}
	}

	r := New(tenantID, d.ReportNumber, Channel(d.Channel), d.Narrative, d.Category, Severity(d.Severity), ext)
	if d.DetectedLanguage != "" {
		r = r.SetDetectedLanguage(d.DetectedLanguage)
	}
	return r, nil
}

func missingExtensionError(field string) error {
	return serrors.ValidationErrors{
		field: serrors.NewFieldRequiredError(field, "Intake.Fields."+field),
	}
}

// UpdateDTO carries the tracking fields a report accepts after creation.
// Content fields appear here only so the immutability guard can name them
// when a caller tries to sneak a change through; a nil pointer means "not
// touched".
type UpdateDTO struct {
	Status            string  `json:"status" validate:"omitempty,oneof=NEW IN_REVIEW QA_PENDING ACKNOWLEDGED UNDER_ASSESSMENT TRIAGED CLOSED"`
	QAOutcome         *string `json:"qaOutcome" validate:"omitempty"`
	AssignedToID      *string `json:"assignedToId" validate:"omitempty,uuid"`
	ConfirmedLanguage *string `json:"confirmedLanguage"`

	Narrative *string `json:"narrative"`
	Category  *string `json:"category"`
	Severity  *string `json:"severity"`
	Channel   *string `json:"channel"`
}

func (d *UpdateDTO) Normalize() {
	d.Status = strings.ToUpper(strings.TrimSpace(d.Status))
	if d.QAOutcome != nil {
		v := strings.ToUpper(strings.TrimSpace(*d.QAOutcome))
		d.QAOutcome = &v
	}
	if d.ConfirmedLanguage != nil {
		v := strings.ToLower(strings.TrimSpace(*d.ConfirmedLanguage))
		d.ConfirmedLanguage = &v
	}
}

func (d *UpdateDTO) Ok(ctx context.Context) (map[string]string, bool) {
	l, ok := intl.UseLocalizer(ctx)
	if !ok {
		panic(intl.ErrNoLocalizer)
	}

	d.Normalize()

	validationErrors := make(serrors.ValidationErrors)
	if errs := constants.Validate.Struct(d); errs != nil {
		for field, err := range serrors.ProcessValidatorErrors(errs.(validator.ValidationErrors), reportFieldLocaleKey) {
			validationErrors[field] = err
		}
	}
	if d.QAOutcome != nil && !QAOutcome(*d.QAOutcome).IsValid() {
		validationErrors["QAOutcome"] = serrors.NewValidationError(
			"VALIDATION_ONEOF",
			"qaOutcome must be one of PASSED, FAILED, WAIVED",
			"QAOutcome",
			"ValidationErrors.oneof",
		)
	}

	if len(validationErrors) == 0 {
		return map[string]string{}, true
	}
	return serrors.LocalizeValidationErrors(validationErrors, l), false
}

func reportFieldLocaleKey(field string) string {
	switch field {
	case "ReportNumber", "Channel", "Narrative", "Category", "Severity",
		"DetectedLanguage", "ConfirmedLanguage", "Status", "QAOutcome",
		"AssignedToID", "ReporterPersonID", "SubjectPersonIDs",
		"Hotline", "WebForm", "Disclosure":
		return fmt.Sprintf("Intake.Fields.%s", field)
	default:
		return ""
	}
}

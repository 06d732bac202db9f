package serrors

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/nicksnyder/go-i18n/v2/i18n"
)

// ValidationError is a BaseError bound to a single field.
type ValidationError struct {
	*BaseError
	Field string
}

// ValidationErrors maps field names to their validation failures.
type ValidationErrors map[string]*ValidationError

// Error implements the error interface by listing the failing fields.
func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for field := range v {
		fields = append(fields, field)
	}
	return fmt.Sprintf("validation failed: %v", fields)
}

// Fields returns the names of all failing fields.
func (v ValidationErrors) Fields() []string {
	fields := make([]string, 0, len(v))
	for field := range v {
		fields = append(fields, field)
	}
	return fields
}

func NewValidationError(code, message, field, localeKey string) *ValidationError {
	return &ValidationError{
		BaseError: NewError(code, message, localeKey),
		Field:     field,
	}
}

// NewFieldRequiredError reports a missing required field. fieldLocaleKey is
// the locale key of the field label, resolved during localization.
func NewFieldRequiredError(field, fieldLocaleKey string) *ValidationError {
	e := NewValidationError(
		"VALIDATION_REQUIRED",
		fmt.Sprintf("%s is required", field),
		field,
		"ValidationErrors.required",
	)
	e.BaseError = e.BaseError.WithTemplateData(map[string]string{"Field": fieldLocaleKey})
	return e
}

// tagLocaleKeys maps go-playground validator tags to message ids. Tags
// without an entry fall back to ValidationErrors.invalid.
var tagLocaleKeys = map[string]string{
	"required": "ValidationErrors.required",
	"min":      "ValidationErrors.min",
	"max":      "ValidationErrors.max",
	"email":    "ValidationErrors.email",
	"uuid":     "ValidationErrors.uuid",
	"oneof":    "ValidationErrors.oneof",
	"gtfield":  "ValidationErrors.gtfield",
}

// ProcessValidatorErrors converts validator.ValidationErrors into coded
// field errors. getFieldLocaleKey resolves the locale key of a field's
// label; an empty result leaves the raw field name in the message.
func ProcessValidatorErrors(
	errs validator.ValidationErrors,
	getFieldLocaleKey func(field string) string,
) ValidationErrors {
	out := make(ValidationErrors, len(errs))
	for _, fe := range errs {
		field := fe.Field()
		localeKey, ok := tagLocaleKeys[fe.Tag()]
		if !ok {
			localeKey = "ValidationErrors.invalid"
		}
		e := NewValidationError(
			fmt.Sprintf("VALIDATION_%s", toUpperTag(fe.Tag())),
			fmt.Sprintf("%s failed on the %q rule", field, fe.Tag()),
			field,
			localeKey,
		)
		data := map[string]string{"Field": field}
		if key := getFieldLocaleKey(field); key != "" {
			data["FieldKey"] = key
		}
		if fe.Param() != "" {
			data["Param"] = fe.Param()
		}
		e.BaseError = e.BaseError.WithTemplateData(data)
		out[field] = e
	}
	return out
}

// LocalizeValidationErrors renders every field error through the localizer,
// resolving field-label locale keys first. Missing translations fall back to
// the developer message.
func LocalizeValidationErrors(errs ValidationErrors, l *i18n.Localizer) map[string]string {
	out := make(map[string]string, len(errs))
	for field, e := range errs {
		data := make(map[string]string, len(e.TemplateData))
		for k, v := range e.TemplateData {
			data[k] = v
		}
		if key, ok := data["FieldKey"]; ok && l != nil {
			if label, err := l.Localize(&i18n.LocalizeConfig{MessageID: key}); err == nil {
				data["Field"] = label
			}
			delete(data, "FieldKey")
		} else if key, ok := data["Field"]; ok && l != nil {
			// NewFieldRequiredError stores the label key under Field.
			if label, err := l.Localize(&i18n.LocalizeConfig{MessageID: key}); err == nil {
				data["Field"] = label
			}
		}
		localized := e.BaseError.WithTemplateData(data).Localize(l)
		out[field] = localized
	}
	return out
}

func toUpperTag(tag string) string {
	b := []byte(tag)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}

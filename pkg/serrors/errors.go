package serrors

import (
	"github.com/nicksnyder/go-i18n/v2/i18n"
)

// BaseError is a coded error with an optional locale key. Code is stable and
// machine-readable; Message is the developer-facing fallback used whenever no
// localizer (or no translation) is available.
type BaseError struct {
	Code         string
	Message      string
	LocaleKey    string
	TemplateData map[string]string
}

func NewError(code, message, localeKey string) *BaseError {
	return &BaseError{
		Code:      code,
		Message:   message,
		LocaleKey: localeKey,
	}
}

func (e *BaseError) Error() string {
	return e.Message
}

// WithTemplateData returns a copy of the error carrying template data for
// localization.
func (e *BaseError) WithTemplateData(data map[string]string) *BaseError {
	clone := *e
	clone.TemplateData = data
	return &clone
}

// Localize renders the error through the localizer, falling back to Message.
func (e *BaseError) Localize(l *i18n.Localizer) string {
	if l == nil || e.LocaleKey == "" {
		return e.Message
	}
	msg, err := l.Localize(&i18n.LocalizeConfig{
		MessageID:    e.LocaleKey,
		TemplateData: e.TemplateData,
	})
	if err != nil {
		return e.Message
	}
	return msg
}

package intl

import (
	"context"
	"embed"
	"errors"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.toml
var localeFS embed.FS

// ErrNoLocalizer is raised when a localizer is expected on the context but
// none was attached by the i18n middleware.
var ErrNoLocalizer = errors.New("localizer not found in context")

type localizerKey struct{}

type localeKey struct{}

var loadBundle = sync.OnceValue(func() *i18n.Bundle {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)
	for _, lang := range SupportedLanguages {
		if _, err := bundle.LoadMessageFileFS(localeFS, "locales/"+lang.Code+".toml"); err != nil {
			panic(err)
		}
	}
	return bundle
})

// Bundle returns the shared message bundle with all embedded locales loaded.
func Bundle() *i18n.Bundle {
	return loadBundle()
}

// NewLocalizer builds a localizer preferring the given languages, falling
// back to English.
func NewLocalizer(langs ...string) *i18n.Localizer {
	return i18n.NewLocalizer(Bundle(), append(langs, language.English.String())...)
}

// WithLocalizer attaches a localizer to the context.
func WithLocalizer(ctx context.Context, l *i18n.Localizer) context.Context {
	return context.WithValue(ctx, localizerKey{}, l)
}

// UseLocalizer returns the localizer attached to the context.
func UseLocalizer(ctx context.Context) (*i18n.Localizer, bool) {
	l, ok := ctx.Value(localizerKey{}).(*i18n.Localizer)
	return l, ok
}

// WithLocale attaches the resolved request locale to the context.
func WithLocale(ctx context.Context, locale language.Tag) context.Context {
	return context.WithValue(ctx, localeKey{}, locale)
}

// UseLocale returns the locale attached to the context.
func UseLocale(ctx context.Context) (language.Tag, bool) {
	locale, ok := ctx.Value(localeKey{}).(language.Tag)
	return locale, ok
}

// MustT translates the message id using the context localizer, falling back
// to the id itself when no localizer or translation exists.
func MustT(ctx context.Context, msgID string) string {
	l, ok := UseLocalizer(ctx)
	if !ok {
		return msgID
	}
	msg, err := l.Localize(&i18n.LocalizeConfig{MessageID: msgID})
	if err != nil {
		return msgID
	}
	return msg
}

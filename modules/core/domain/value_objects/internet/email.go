package internet

import (
	"net/mail"
	"strings"

	"github.com/go-faster/errors"
)

var ErrInvalidEmail = errors.New("invalid email address")

// Email is a validated RFC 5322 address without display name.
type Email struct {
	value string
}

func NewEmail(value string) (Email, error) {
	trimmed := strings.TrimSpace(value)
	addr, err := mail.ParseAddress(trimmed)
	if err != nil {
		return Email{}, errors.Wrap(ErrInvalidEmail, trimmed)
	}
	if addr.Address != trimmed {
		return Email{}, errors.Wrap(ErrInvalidEmail, trimmed)
	}
	return Email{value: strings.ToLower(trimmed)}, nil
}

// MustParseEmail is for literals in tests and seeds.
func MustParseEmail(value string) Email {
	e, err := NewEmail(value)
	if err != nil {
		panic(err)
	}
	return e
}

func (e Email) Value() string {
	return e.value
}

func (e Email) Domain() string {
	at := strings.LastIndex(e.value, "@")
	if at < 0 {
		return ""
	}
	return e.value[at+1:]
}

func (e Email) IsZero() bool {
	return e.value == ""
}

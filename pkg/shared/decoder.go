package shared

import (
	"time"

	"github.com/go-playground/form"
	"github.com/google/uuid"
)

// Decoder decodes query strings and form bodies into DTOs. Custom type
// functions cover the identifier and timestamp types used on the wire.
var Decoder = newDecoder()

func newDecoder() *form.Decoder {
	d := form.NewDecoder()
	d.RegisterCustomTypeFunc(func(vals []string) (interface{}, error) {
		return uuid.Parse(vals[0])
	}, uuid.UUID{})
	d.RegisterCustomTypeFunc(func(vals []string) (interface{}, error) {
		return time.Parse(time.RFC3339, vals[0])
	}, time.Time{})
	d.SetTagName("json")
	return d
}

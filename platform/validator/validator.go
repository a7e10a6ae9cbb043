// Package validator wraps go-playground validation and registers the
// custom rules the booking API uses in its request tags.
// This is part of the platform layer and contains no business logic.
package validator

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Validator validates transport structs against their validation tags.
type Validator struct {
	v *validator.Validate
}

// New creates a Validator with the custom rules registered.
//
// clocktime accepts wall-clock strings in 24h "HH:MM" form, the format
// business hours are stored and exchanged in.
func New() *Validator {
	v := validator.New()
	must(v.RegisterValidation("clocktime", isClockTime))
	return &Validator{v: v}
}

// Struct validates a struct based on its validation tags.
func (val *Validator) Struct(s interface{}) error {
	return val.v.Struct(s)
}

func isClockTime(fl validator.FieldLevel) bool {
	_, err := time.Parse("15:04", fl.Field().String())
	return err == nil
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

package validation

import (
	"github.com/go-playground/validator/v10"
)

// Validator adapts go-playground/validator to echo's Validator interface so
// handlers can use c.Validate on bound request structs.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	return &Validator{v: validator.New()}
}

func (v *Validator) Validate(i interface{}) error {
	return v.v.Struct(i)
}

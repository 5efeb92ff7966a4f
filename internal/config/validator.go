// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `LoadSettings` calls `validateStruct` right after it unmarshals the env
// overlay into `Settings`.  A tag mismatch aborts startup, so the bootstrap
// never runs with a malformed listener address or resource extension.
//
// The environment name doubles as a file name (`<env><ext>` under the
// module's config directory), so it gets a custom `envname` rule: lower-case
// letters, digits, `-`, and `_` only.  Anything else, `../prod` included, is
// rejected.
//
// Notes
// -----
//   • internal/module keeps its own instance for descriptor checks.
//   • Oxford commas, two spaces after periods.

package config

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var envNameRE = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New()
	_ = val.RegisterValidation("envname", func(fl validator.FieldLevel) bool {
		return envNameRE.MatchString(fl.Field().String())
	})
	return val
}

// validateStruct returns the first validation error, or nil on success.
func validateStruct(s *Settings) error {
	return v.Struct(s)
}

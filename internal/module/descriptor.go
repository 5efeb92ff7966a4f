// internal/module/descriptor.go
//
// The three facts resolved for a module: where its implementation file
// lives, which class it declares, and which mode runs it.  All three are set
// together by the resolver and never changed afterwards.

package module

import (
	"github.com/go-playground/validator/v10"

	"github.com/yanizio/adeptboot/internal/mode"
)

var v = validator.New()

// Descriptor identifies a resolved module.
type Descriptor struct {
	ClassPath string    `json:"class_path" validate:"required"`
	ClassName string    `json:"class_name" validate:"required"`
	Mode      mode.Mode `json:"mode"       validate:"required,oneof=Web Cli Srv Micro"`
}

// Validate returns the first shape violation, or nil.
func (d Descriptor) Validate() error {
	return v.Struct(d)
}

// IsZero reports whether the descriptor has not been resolved yet.
func (d Descriptor) IsZero() bool {
	return d == Descriptor{}
}

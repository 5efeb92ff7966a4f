package bootstrap

import (
	"errors"
	"fmt"

	"github.com/yanizio/adeptboot/internal/resource"
)

// Failure taxonomy.  Every error returned by the orchestrator wraps one of
// these; match with errors.Is.
var (
	// ErrResourceNotFound: a required file does not exist.
	ErrResourceNotFound = resource.ErrResourceNotFound

	// ErrConfigNotFound: the global or a module config file is missing.
	// It also matches ErrResourceNotFound.
	ErrConfigNotFound = fmt.Errorf("config not found: %w", resource.ErrResourceNotFound)

	// ErrInvalidModule: the resolved descriptor does not have the required shape.
	ErrInvalidModule = errors.New("invalid module")

	// ErrUnsupportedMode: the mode has no handler (Micro).
	ErrUnsupportedMode = errors.New("unsupported mode")

	// ErrApplication: the application collaborator failed to handle a request.
	ErrApplication = errors.New("application handler failure")

	// ErrModuleUnresolved: a module's implementation could not be located.
	ErrModuleUnresolved = errors.New("module unresolved")

	// ErrDependencyCycle: a dependency module is already being loaded.
	ErrDependencyCycle = errors.New("dependency cycle")

	// ErrNotBootstrapped: an operation needs the service registry, which
	// only exists once a mode handler ran.
	ErrNotBootstrapped = errors.New("service registry not initialised")
)

// errorKind labels err for the bootstrap error counter.
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrConfigNotFound):
		return "config_not_found"
	case errors.Is(err, ErrResourceNotFound):
		return "resource_not_found"
	case errors.Is(err, ErrInvalidModule):
		return "invalid_module"
	case errors.Is(err, ErrUnsupportedMode):
		return "unsupported_mode"
	case errors.Is(err, ErrApplication):
		return "application"
	case errors.Is(err, ErrModuleUnresolved):
		return "module_unresolved"
	case errors.Is(err, ErrDependencyCycle):
		return "dependency_cycle"
	default:
		return "other"
	}
}

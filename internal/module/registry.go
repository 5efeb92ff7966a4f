// internal/module/registry.go
//
// A super-light factory registry: module packages call
// Register(className, factory) in an init() function.  The orchestrator
// resolves a class name from config (`application.ns` + mode suffix) and
// looks the factory up here, so no string-to-type reflection is needed.
//
// Factory signature:
//
//	func(c *di.Container) (module.Instance, error)
//
// The container is the only construction input.  A factory may register
// further services, or fetch the application collaborator under
// di.Application and attach itself to it.
package module

import (
	"sort"
	"sync"

	"github.com/yanizio/adeptboot/internal/di"
)

// Instance is a constructed module.  No methods are required; the
// orchestrator probes for optional interfaces (route mounting, tasks, RPC).
type Instance any

// Factory builds an Instance from the current container.
type Factory func(*di.Container) (Instance, error)

var (
	mu       sync.RWMutex
	registry = map[string]Factory{}
)

// Register is called from module init() functions.  A later registration
// for the same class name replaces the former.
func Register(className string, f Factory) {
	mu.Lock()
	registry[className] = f
	mu.Unlock()
}

// Lookup returns the factory for className or nil.
func Lookup(className string) Factory {
	mu.RLock()
	defer mu.RUnlock()
	return registry[className]
}

// Names returns every registered class name, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Unregister removes className.  Used by tests.
func Unregister(className string) {
	mu.Lock()
	delete(registry, className)
	mu.Unlock()
}

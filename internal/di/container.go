// internal/di/container.go
//
// Named-service container.
//
// Context
// -------
// The orchestrator creates one Container per run and fills it with the
// bootstrap itself, the merged config, the application collaborator, and
// whatever the bootstrap resources and module factories register.  Two
// flavors exist: FlavorWeb for interactive applications (web, srv) and
// FlavorCLI for command runs.  A task run may be handed an existing
// container, which is only reused when its flavor is FlavorCLI.
//
// Services are either plain values (Set) or factories (SetFactory).  A
// shared factory runs once and its result is cached; a non-shared factory
// runs on every Get.
//
// Notes
// -----
// • Safe for concurrent use; live HTTP and RPC traffic read it.
// • Oxford commas, two spaces after periods.
package di

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Reserved service names.
const (
	Bootstrap    = "bootstrap"
	Config       = "config"
	ModuleConfig = "moduleConfig"
	Application  = "application"
	Logger       = "logger"
)

// ErrServiceNotFound is returned by Get for unknown names.
var ErrServiceNotFound = errors.New("service not found")

// Flavor distinguishes interactive containers from command containers.
type Flavor int

const (
	FlavorWeb Flavor = iota
	FlavorCLI
)

func (f Flavor) String() string {
	if f == FlavorCLI {
		return "cli"
	}
	return "web"
}

// Factory builds a service on demand.
type Factory func(*Container) (any, error)

type definition struct {
	value    any
	factory  Factory
	shared   bool
	resolved bool
}

// Container holds named services for the lifetime of the process.
type Container struct {
	flavor Flavor

	mu       sync.RWMutex
	services map[string]*definition
}

// New returns an empty container of the given flavor.
func New(f Flavor) *Container {
	return &Container{flavor: f, services: make(map[string]*definition)}
}

// Flavor reports the container flavor.
func (c *Container) Flavor() Flavor { return c.flavor }

// Set registers a ready value, replacing any previous definition.
func (c *Container) Set(name string, v any) {
	c.mu.Lock()
	c.services[name] = &definition{value: v, resolved: true, shared: true}
	c.mu.Unlock()
}

// SetFactory registers a lazily built service.
func (c *Container) SetFactory(name string, f Factory, shared bool) {
	c.mu.Lock()
	c.services[name] = &definition{factory: f, shared: shared}
	c.mu.Unlock()
}

// Has reports whether name is registered.
func (c *Container) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.services[name]
	return ok
}

// Get resolves name.  Factories run outside the lock so they may call Get.
func (c *Container) Get(name string) (any, error) {
	c.mu.RLock()
	def, ok := c.services[name]
	var (
		val      any
		resolved bool
		factory  Factory
		shared   bool
	)
	if ok {
		val, resolved, factory, shared = def.value, def.resolved, def.factory, def.shared
	}
	c.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, name)
	}
	if resolved {
		return val, nil
	}

	v, err := factory(c)
	if err != nil {
		return nil, fmt.Errorf("service %s: %w", name, err)
	}
	if shared {
		c.mu.Lock()
		if cur, still := c.services[name]; still && cur == def {
			def.value, def.resolved = v, true
		}
		c.mu.Unlock()
	}
	return v, nil
}

// Remove deletes name.  Unknown names are ignored.
func (c *Container) Remove(name string) {
	c.mu.Lock()
	delete(c.services, name)
	c.mu.Unlock()
}

// Names returns the registered names in sorted order.
func (c *Container) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.services))
	for n := range c.services {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Lookup resolves name and asserts its type.
func Lookup[T any](c *Container, name string) (T, error) {
	var zero T
	v, err := c.Get(name)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("service %s has type %T, want %T", name, v, zero)
	}
	return t, nil
}

// internal/provider/registry.go
//
// Service-provider registry (cycle-free).
//
// Bootstrap resources such as `common/load/default-web.yaml` list service
// names under `services`:
//
//	services:
//	  - logger
//	  - database
//
// Each name refers to a Provider registered here from an init() function.
// Apply invokes the providers in list order with the loader Bindings and
// stores the results in the container under the same name.  This is how a
// resource file populates baseline services without executing code itself.
//
// Entries may also be maps, which rename the service:
//
//	services:
//	  - primary_db: database
package provider

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/yanizio/adeptboot/internal/resource"
	"github.com/yanizio/adeptboot/internal/store"
)

// ServicesKey is the resource key holding the provider list.
const ServicesKey = "services"

// ErrUnknownProvider is returned by Apply for unregistered names.
var ErrUnknownProvider = errors.New("unknown service provider")

// Provider builds one service from the loader bindings.
type Provider func(resource.Bindings) (any, error)

var (
	mu       sync.RWMutex
	registry = map[string]Provider{}
)

// Register is invoked from init() functions.
func Register(name string, p Provider) {
	mu.Lock()
	registry[name] = p
	mu.Unlock()
}

// Lookup returns the provider or nil.
func Lookup(name string) Provider {
	mu.RLock()
	defer mu.RUnlock()
	return registry[name]
}

// Names returns every registered provider name, sorted.
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

// Apply runs every provider listed under ServicesKey in tree and registers
// the results in b.Registry.  It returns the registered service names.
func Apply(tree *store.Store, b resource.Bindings) ([]string, error) {
	if tree == nil || !tree.Exists(ServicesKey) {
		return nil, nil
	}
	if b.Registry == nil {
		return nil, errors.New("provider: bindings carry no registry")
	}

	entries, err := parseEntries(tree.Get(ServicesKey))
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		p := Lookup(e.provider)
		if p == nil {
			return names, fmt.Errorf("%w: %s", ErrUnknownProvider, e.provider)
		}
		svc, err := p(b)
		if err != nil {
			return names, fmt.Errorf("provider %s: %w", e.provider, err)
		}
		b.Registry.Set(e.service, svc)
		names = append(names, e.service)
	}
	return names, nil
}

type entry struct {
	service  string
	provider string
}

func parseEntries(raw any) ([]entry, error) {
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("provider: %q must be a list, got %T", ServicesKey, raw)
	}
	out := make([]entry, 0, len(list))
	for _, item := range list {
		switch v := item.(type) {
		case string:
			out = append(out, entry{service: v, provider: v})
		case map[string]any:
			keys := make([]string, 0, len(v))
			for k := range v {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				p, ok := v[k].(string)
				if !ok {
					return nil, fmt.Errorf("provider: entry %q must name a provider", k)
				}
				out = append(out, entry{service: k, provider: p})
			}
		default:
			return nil, fmt.Errorf("provider: unsupported entry %T", item)
		}
	}
	return out, nil
}

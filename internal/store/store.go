// internal/store/store.go
//
// Configuration tree with deep merge.
//
// Context
// -------
// A Store wraps one koanf instance.  Keys are dotted paths
// ("application.mode"), values are scalars, lists, or nested maps.  Layers
// are combined with Merge, which always lets the *argument* win on key
// conflicts:
//
//	global.Merge(module)      // module overrides global
//	dependency.Merge(current) // current overrides dependency
//
// After a merge there is only one tree; nothing records which layer a value
// came from.
//
// Notes
// -----
//   - Lists are replaced, not concatenated.
//   - Oxford commas, two spaces after periods.
package store

import (
	"reflect"

	koanf "github.com/knadh/koanf/v2"
)

// Delim separates path segments.
const Delim = "."

// Store is a mutable configuration tree.  The zero value is not usable; call
// New or FromKoanf.
type Store struct {
	k *koanf.Koanf
}

// New returns an empty Store.
func New() *Store {
	return &Store{k: koanf.New(Delim)}
}

// FromKoanf adopts k.  The caller must not keep using k afterwards.
func FromKoanf(k *koanf.Koanf) *Store {
	if k == nil {
		return New()
	}
	return &Store{k: k}
}

// FromMap builds a Store from a nested map.
func FromMap(m map[string]any) (*Store, error) {
	s := New()
	for key, val := range m {
		if err := s.k.Set(key, val); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Merge deep-merges src into s.  Values from src win on conflicts.
func (s *Store) Merge(src *Store) error {
	if src == nil {
		return nil
	}
	return s.k.Merge(src.k)
}

// Copy returns an independent deep copy.
func (s *Store) Copy() *Store {
	return &Store{k: s.k.Copy()}
}

// Get returns the value at path or nil.
func (s *Store) Get(path string) any { return s.k.Get(path) }

// String returns the value at path as a string ("" when absent).
func (s *Store) String(path string) string { return s.k.String(path) }

// Bool returns the value at path as a bool.
func (s *Store) Bool(path string) bool { return s.k.Bool(path) }

// Int returns the value at path as an int.
func (s *Store) Int(path string) int { return s.k.Int(path) }

// Exists reports whether path is set.
func (s *Store) Exists(path string) bool { return s.k.Exists(path) }

// Set assigns val at path, creating intermediate maps.
func (s *Store) Set(path string, val any) error { return s.k.Set(path, val) }

// Sub returns the subtree at path as its own Store.
func (s *Store) Sub(path string) *Store { return &Store{k: s.k.Cut(path)} }

// Keys returns every flattened leaf key.
func (s *Store) Keys() []string { return s.k.Keys() }

// Raw returns the nested map representation.
func (s *Store) Raw() map[string]any { return s.k.Raw() }

// Unmarshal decodes the subtree at path into out using koanf tags.
func (s *Store) Unmarshal(path string, out any) error { return s.k.Unmarshal(path, out) }

// Equal compares two stores by value.
func (s *Store) Equal(o *Store) bool {
	if s == nil || o == nil {
		return s == o
	}
	return reflect.DeepEqual(s.k.Raw(), o.k.Raw())
}

// Package mode holds the fixed run-mode table.
//
// Every module declares a mode in `application.mode`.  The mode decides the
// implementation suffix appended to the module namespace (and used as the
// implementation file name) and, in internal/bootstrap, which handler runs
// the module.
//
//	Web   → Module
//	Cli   → Task
//	Srv   → Srv
//	Micro → Micro  (recognised, no handler)
package mode

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Mode is a logical run mode.
type Mode string

const (
	Web   Mode = "Web"
	Cli   Mode = "Cli"
	Srv   Mode = "Srv"
	Micro Mode = "Micro"
)

// ErrUnknown is returned by Parse for names outside the table.
var ErrUnknown = errors.New("unknown mode")

var suffixes = map[Mode]string{
	Web:   "Module",
	Cli:   "Task",
	Srv:   "Srv",
	Micro: "Micro",
}

// All returns every recognised mode in declaration order.
func All() []Mode { return []Mode{Web, Cli, Srv, Micro} }

// Normalize lower-cases raw and upper-cases its first letter, so "WEB",
// "web" and "Web" all become "Web".
func Normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// Parse normalizes raw and checks it against the table.
func Parse(raw string) (Mode, error) {
	m := Mode(Normalize(raw))
	if _, ok := suffixes[m]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknown, raw)
	}
	return m, nil
}

// Suffix returns the implementation suffix for m.
func (m Mode) Suffix() (string, bool) {
	s, ok := suffixes[m]
	return s, ok
}

// Valid reports whether m is in the table.
func (m Mode) Valid() bool {
	_, ok := suffixes[m]
	return ok
}

func (m Mode) String() string { return string(m) }

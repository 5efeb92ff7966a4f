// internal/resource/loader.go
//
// Resource file loader.
//
// Context
// -------
// Every file the orchestrator reads (global config, module config, default
// bootstrap resources, module manifests) goes through Load.  The file is
// read with the koanf file provider, rendered as a text/template with the
// sprig function map, and parsed as YAML into a *store.Store.
//
// The template sees one value, Bindings:
//
//	{{ .RootPath }}                      root directory of the install
//	{{ .Config.String "db.host" }}       current merged config (may be nil)
//	{{ .Registry.Has "database" }}       current service container (may be nil)
//	{{ .Application }}, {{ .Bootstrap }} collaborator and orchestrator
//	{{ env "HOME" | default "/tmp" }}    any sprig function
//
// The loader interprets nothing else; it returns whatever tree the file
// produces.
//
// Notes
// -----
// • A missing path fails with ErrResourceNotFound naming the path.
// • Oxford commas, two spaces after periods.
package resource

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"

	"github.com/yanizio/adeptboot/internal/di"
	"github.com/yanizio/adeptboot/internal/store"
)

// DefaultExt is the resource file extension used when none is configured.
const DefaultExt = ".yaml"

// ErrResourceNotFound is returned when a required file does not exist.
var ErrResourceNotFound = errors.New("resource not found")

// Bindings are exposed to every loaded resource.
type Bindings struct {
	RootPath    string
	Loader      *Loader
	Config      *store.Store
	Application any
	Bootstrap   any
	Registry    *di.Container
}

// Loader reads resource files of one extension.
type Loader struct {
	ext string
	log *zap.SugaredLogger
}

// NewLoader returns a Loader for ext (".yaml" when empty).  log may be nil.
func NewLoader(ext string, log *zap.SugaredLogger) *Loader {
	if ext == "" {
		ext = DefaultExt
	}
	if log == nil {
		log = zap.S()
	}
	return &Loader{ext: ext, log: log}
}

// Ext returns the extension including the leading dot.
func (l *Loader) Ext() string { return l.ext }

// Path joins elem and appends the extension to the last element.
func (l *Loader) Path(elem ...string) string {
	return filepath.Join(elem...) + l.ext
}

// Exists reports whether path names an existing regular file.
func (l *Loader) Exists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}

// Load renders and parses path.
func (l *Loader) Load(path string, b Bindings) (*store.Store, error) {
	if !l.Exists(path) {
		return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, path)
	}

	raw, err := file.Provider(path).ReadBytes()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	rendered, err := render(filepath.Base(path), raw, b)
	if err != nil {
		l.log.Errorw("resource render failed", "file", path, "err", err)
		return nil, fmt.Errorf("render %s: %w", path, err)
	}

	k := koanf.New(store.Delim)
	if err := k.Load(rawbytes.Provider(rendered), yaml.Parser()); err != nil {
		l.log.Errorw("resource parse failed", "file", path, "err", err)
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	l.log.Debugw("resource loaded", "file", path, "keys", len(k.Keys()))
	return store.FromKoanf(k), nil
}

// Fresh returns a new Loader with the same extension and logger.
func (l *Loader) Fresh() *Loader {
	return &Loader{ext: l.ext, log: l.log}
}

func render(name string, raw []byte, b Bindings) ([]byte, error) {
	tpl, err := template.New(name).
		Option("missingkey=zero").
		Funcs(sprig.TxtFuncMap()).
		Parse(string(raw))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, b); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

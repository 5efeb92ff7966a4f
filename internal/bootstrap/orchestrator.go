// internal/bootstrap/orchestrator.go
//
// Module resolution and configuration cascade.
//
/*
Context
--------
One Orchestrator bootstraps one module directory M under a root R.  It
owns the merged config, the service container, and the resolved module
descriptor.

InitConfig cascade (highest precedence last):

  1. R/common/config/config<ext>                   global config.
  2. M/app/config/<env><ext>, else M/app/config/config<ext>.

The module layer is merged onto the global layer, so module values win.
Dependency modules (DependModule) invert that rule; see depend.go.

The descriptor comes from the module layer:

	mode      = ucfirst(lower(application.mode))
	className = application.ns + suffix(mode)
	classPath = M/app/<suffix><ext>

Instrumentation
---------------
  • DEBUG spans: each resource read and merge.
  • INFO  span:  "module resolved" with mode and class.
  • Every line carries boot_id.
*/
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yanizio/adeptboot/internal/config"
	"github.com/yanizio/adeptboot/internal/di"
	"github.com/yanizio/adeptboot/internal/metrics"
	"github.com/yanizio/adeptboot/internal/mode"
	"github.com/yanizio/adeptboot/internal/module"
	"github.com/yanizio/adeptboot/internal/resource"
	"github.com/yanizio/adeptboot/internal/store"
)

// Config keys read from the module layer.
const (
	KeyMode          = "application.mode"
	KeyNamespace     = "application.ns"
	KeyDefaultModule = "router.default_module"
	KeyHeaders       = "http.headers"
	KeyManifestClass = "class"
)

// Orchestrator resolves and runs one module.  It is not safe for concurrent
// bootstrap calls; HTTPHandler is safe once bootstrap has finished.
type Orchestrator struct {
	id       string
	paths    config.Paths
	settings config.Settings
	env      Environment
	cli      bool
	log      *zap.SugaredLogger
	loader   *resource.Loader
	out      io.Writer

	cfg        *store.Store
	reg        *di.Container
	app        any
	desc       module.Descriptor
	inst       module.Instance
	configured bool
	resolving  map[string]bool

	svcCtx    context.Context
	svcCancel context.CancelFunc
	closers   []func() error

	handlers   map[mode.Mode]handler
	newWebApp  func(*Orchestrator) WebApplication
	newConsole func(*Orchestrator) Console
	rpcServer  RPCServer
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithCLI marks the process as running in non-interactive CLI context.
func WithCLI(cli bool) Option { return func(o *Orchestrator) { o.cli = cli } }

// WithLogger sets the base logger (zap.S() by default).
func WithLogger(l *zap.SugaredLogger) Option { return func(o *Orchestrator) { o.log = l } }

// WithOutput sets where web responses are written (os.Stdout by default).
func WithOutput(w io.Writer) Option { return func(o *Orchestrator) { o.out = w } }

// WithWebApplication replaces the web collaborator factory.
func WithWebApplication(f func(*Orchestrator) WebApplication) Option {
	return func(o *Orchestrator) { o.newWebApp = f }
}

// WithConsole replaces the console collaborator factory.
func WithConsole(f func(*Orchestrator) Console) Option {
	return func(o *Orchestrator) { o.newConsole = f }
}

// WithRPCServer replaces the RPC server collaborator.
func WithRPCServer(s RPCServer) Option { return func(o *Orchestrator) { o.rpcServer = s } }

// New prepares an Orchestrator for the module directory modulePath.  The
// environment is resolved here, once.
func New(modulePath string, settings config.Settings, opts ...Option) (*Orchestrator, error) {
	paths, err := config.NewPaths(modulePath, settings.Ext)
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{
		id:        uuid.NewString(),
		paths:     paths,
		settings:  settings,
		out:       os.Stdout,
		resolving: make(map[string]bool),
		handlers:  defaultHandlers(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = zap.S()
	}
	o.log = o.log.With("boot_id", o.id)
	o.loader = resource.NewLoader(paths.Ext, o.log)
	o.env = ResolveEnvironment(settings, o.cli)
	if o.newWebApp == nil {
		o.newWebApp = defaultWebApp
	}
	if o.newConsole == nil {
		o.newConsole = defaultConsole
	}
	if o.rpcServer == nil {
		o.rpcServer = defaultRPCServer(o)
	}

	o.log.Debugw("bootstrap created",
		"module", paths.Module, "env", o.env.Name, "debug", o.env.Debug, "cli", o.cli)
	return o, nil
}

/*──────────────────────────── accessors ──────────────────────────────────*/

// ID is the per-process boot identifier.
func (o *Orchestrator) ID() string { return o.id }

// Env returns the resolved environment.
func (o *Orchestrator) Env() Environment { return o.env }

// Paths returns the immutable layout.
func (o *Orchestrator) Paths() config.Paths { return o.paths }

// Settings returns the process settings.
func (o *Orchestrator) Settings() config.Settings { return o.settings }

// Logger returns the bootstrap logger.
func (o *Orchestrator) Logger() *zap.SugaredLogger { return o.log }

// Config returns the current merged config (nil before InitConfig).
func (o *Orchestrator) Config() *store.Store { return o.cfg }

// Registry returns the current container (nil before a handler ran).
func (o *Orchestrator) Registry() *di.Container { return o.reg }

// Application returns the current collaborator (nil before a handler ran).
func (o *Orchestrator) Application() any { return o.app }

// Descriptor returns the primary module descriptor.
func (o *Orchestrator) Descriptor() module.Descriptor { return o.desc }

// RunMode is the resolved mode of the primary module.
func (o *Orchestrator) RunMode() mode.Mode { return o.desc.Mode }

// Module returns the primary module instance (nil before a handler ran).
func (o *Orchestrator) Module() module.Instance { return o.inst }

// Load reads a resource with the current bindings.
func (o *Orchestrator) Load(path string) (*store.Store, error) {
	return o.loader.Load(path, o.bindings())
}

// SetConfig merges s onto the config held by the container (or onto an
// empty store when there is none), makes the result current, and
// republishes it under di.Config.
func (o *Orchestrator) SetConfig(s *store.Store) error {
	base := store.New()
	if o.reg != nil {
		if cur, err := di.Lookup[*store.Store](o.reg, di.Config); err == nil {
			base = cur.Copy()
		}
	}
	if err := base.Merge(s); err != nil {
		return err
	}
	o.cfg = base
	if o.reg != nil {
		o.reg.Set(di.Config, base)
	}
	return nil
}

func (o *Orchestrator) bindings() resource.Bindings {
	return resource.Bindings{
		RootPath:    o.paths.Root,
		Loader:      o.loader.Fresh(),
		Config:      o.cfg,
		Application: o.app,
		Bootstrap:   o,
		Registry:    o.reg,
	}
}

/*──────────────────────────── cascade ────────────────────────────────────*/

// InitConfig loads global and module config, resolves the descriptor, and
// merges module over global.  Calling it again re-reads every file.
func (o *Orchestrator) InitConfig() error {
	if err := o.initConfig(); err != nil {
		metrics.BootstrapErrorsTotal.WithLabelValues(errorKind(err)).Inc()
		o.log.Errorw("config init failed", "err", err)
		return err
	}
	return nil
}

func (o *Orchestrator) initConfig() error {
	globalPath := o.paths.GlobalConfig()
	if !o.loader.Exists(globalPath) {
		return fmt.Errorf("%w: global config %s", ErrConfigNotFound, globalPath)
	}
	global, err := o.loader.Load(globalPath, o.bindings())
	if err != nil {
		return err
	}
	metrics.ConfigLoadsTotal.WithLabelValues("global").Inc()

	modCfg, err := o.loadModuleConfig("")
	if err != nil {
		return err
	}
	metrics.ConfigLoadsTotal.WithLabelValues("module").Inc()

	desc, err := o.describe("", modCfg)
	if err != nil {
		return err
	}

	if err := global.Merge(modCfg); err != nil {
		return err
	}

	o.desc = desc
	o.cfg = global
	o.configured = true
	if o.reg != nil {
		o.reg.Set(di.Config, o.cfg)
	}

	metrics.ModuleResolutionsTotal.WithLabelValues(desc.Mode.String()).Inc()
	o.log.Infow("module resolved",
		"mode", desc.Mode, "class", desc.ClassName, "path", desc.ClassPath, "env", o.env.Name)
	return nil
}

// moduleConfigPath picks <env><ext> over config<ext> for module name ("" is
// the primary module).
func (o *Orchestrator) moduleConfigPath(name string) (string, error) {
	candidates := o.paths.ModuleConfigCandidates(name, o.env.Name)
	for _, p := range candidates {
		if o.loader.Exists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: module config %s", ErrConfigNotFound, candidates[len(candidates)-1])
}

func (o *Orchestrator) loadModuleConfig(name string) (*store.Store, error) {
	path, err := o.moduleConfigPath(name)
	if err != nil {
		return nil, err
	}
	o.log.Debugw("module config selected", "module", name, "file", path)
	return o.loader.Load(path, o.bindings())
}

// describe derives the descriptor for module name from its own config.
func (o *Orchestrator) describe(name string, cfg *store.Store) (module.Descriptor, error) {
	m, err := mode.Parse(cfg.String(KeyMode))
	if err != nil {
		return module.Descriptor{}, fmt.Errorf("%w: %w", ErrInvalidModule, err)
	}
	suffix, _ := m.Suffix()

	ns := cfg.String(KeyNamespace)
	if ns == "" {
		return module.Descriptor{}, fmt.Errorf("%w: %s is empty", ErrInvalidModule, KeyNamespace)
	}

	d := module.Descriptor{
		ClassPath: o.paths.ImplementationFile(name, suffix),
		ClassName: ns + suffix,
		Mode:      m,
	}
	if err := d.Validate(); err != nil {
		return module.Descriptor{}, fmt.Errorf("%w: %+v: %w", ErrInvalidModule, d, err)
	}
	return d, nil
}

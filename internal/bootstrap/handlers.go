// internal/bootstrap/handlers.go
//
// Mode handlers and dispatch.
//
/*
Context
--------
Exec runs InitConfig and looks the resolved mode up in a fixed table:

	Web → execModule    Cli → execTask    Srv → execSrv    Micro → (none)

Micro is a recognised mode with no entry, so dispatch to it fails with
ErrUnsupportedMode.  Every handler follows the same steps:

  1. fresh container of the mode's flavor (Cli may reuse one);
  2. register bootstrap, config, application, and logger;
  3. load R/common/load/default-web|default-cli and apply its services;
  4. load the implementation manifest and run the module factory;
  5. unless resolution-only, hand over to the collaborator.

The web handler retries exactly once on the default route when the
application reports a failure.  Nothing else retries.
*/
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/yanizio/adeptboot/internal/config"
	"github.com/yanizio/adeptboot/internal/console"
	"github.com/yanizio/adeptboot/internal/di"
	"github.com/yanizio/adeptboot/internal/metrics"
	"github.com/yanizio/adeptboot/internal/mode"
	"github.com/yanizio/adeptboot/internal/module"
	"github.com/yanizio/adeptboot/internal/provider"
	"github.com/yanizio/adeptboot/internal/requestinfo"
	"github.com/yanizio/adeptboot/internal/rpc"
	"github.com/yanizio/adeptboot/internal/webapp"
	"github.com/yanizio/adeptboot/modules/debug"
)

// ModuleKey is the container name of the primary module instance.
const ModuleKey = "module"

/*──────────────────────────── collaborators ──────────────────────────────*/

// WebApplication turns a request into a buffered response.
type WebApplication interface {
	Handle(*http.Request) (*webapp.Response, error)
	DefaultRoute(target string) string
}

// Console runs a task argument list.
type Console interface {
	Handle(ctx context.Context, argv []string) error
}

// RPCServer serves a backend until ctx is done.
type RPCServer interface {
	Serve(ctx context.Context, b *rpc.Backend) error
}

func defaultWebApp(o *Orchestrator) WebApplication {
	def := o.paths.ModuleName()
	var opts []webapp.Option
	if o.cfg != nil {
		if s := o.cfg.String(KeyDefaultModule); s != "" {
			def = s
		}
		if o.cfg.Exists(KeyHeaders) {
			var h webapp.Headers
			if err := o.cfg.Unmarshal(KeyHeaders, &h); err != nil {
				o.log.Warnw("ignoring header policy", "key", KeyHeaders, "err", err)
			} else {
				opts = append(opts, webapp.WithHeaders(h))
			}
		}
	}
	return webapp.New(def, opts...)
}

func defaultConsole(o *Orchestrator) Console {
	return console.New(o.paths.ModuleName(), o.out)
}

func defaultRPCServer(o *Orchestrator) RPCServer {
	return rpc.NewServer(o.settings.RPC.ListenAddr, rpc.WithLogger(o.log))
}

/*──────────────────────────── dispatch ───────────────────────────────────*/

// Invocation carries caller arguments to the selected handler unchanged.
type Invocation struct {
	Target      string        // web request target, "/" when empty
	Args        []string      // task argv without the program name
	Registry    *di.Container // optional CLI container for tasks
	ResolveOnly bool          // build everything, hand over nothing
}

type handler func(o *Orchestrator, ctx context.Context, inv Invocation) error

func defaultHandlers() map[mode.Mode]handler {
	return map[mode.Mode]handler{
		mode.Web: func(o *Orchestrator, ctx context.Context, inv Invocation) error {
			return o.execModule(ctx, inv.Target, !inv.ResolveOnly)
		},
		mode.Cli: func(o *Orchestrator, ctx context.Context, inv Invocation) error {
			return o.execTask(ctx, inv.Args, inv.Registry, !inv.ResolveOnly)
		},
		mode.Srv: func(o *Orchestrator, ctx context.Context, inv Invocation) error {
			return o.execSrv(ctx, !inv.ResolveOnly)
		},
	}
}

// Exec initialises config and runs the handler for the resolved mode.
func (o *Orchestrator) Exec(ctx context.Context, inv Invocation) error {
	if err := o.InitConfig(); err != nil {
		return err
	}
	m := o.desc.Mode
	h, ok := o.handlers[m]
	if !ok {
		err := fmt.Errorf("%w: %s", ErrUnsupportedMode, m)
		metrics.BootstrapErrorsTotal.WithLabelValues(errorKind(err)).Inc()
		o.log.Errorw("dispatch rejected", "mode", m)
		return err
	}

	metrics.DispatchTotal.WithLabelValues(m.String()).Inc()
	o.log.Infow("dispatch", "mode", m, "resolve_only", inv.ResolveOnly)
	if err := h(o, ctx, inv); err != nil {
		metrics.BootstrapErrorsTotal.WithLabelValues(errorKind(err)).Inc()
		o.log.Errorw("handler failed", "mode", m, "err", err)
		return err
	}
	return nil
}

// ExecModule runs the Web handler standalone.
func (o *Orchestrator) ExecModule(ctx context.Context, target string, handle bool) error {
	if err := o.InitConfig(); err != nil {
		return err
	}
	return o.execModule(ctx, target, handle)
}

// ExecTask runs the Cli handler standalone.  reg is reused when it is a CLI
// container.
func (o *Orchestrator) ExecTask(ctx context.Context, argv []string, reg *di.Container, handle bool) error {
	if err := o.InitConfig(); err != nil {
		return err
	}
	return o.execTask(ctx, argv, reg, handle)
}

// ExecSrv runs the Srv handler standalone.  It blocks while serving.
func (o *Orchestrator) ExecSrv(ctx context.Context, handle bool) error {
	if err := o.InitConfig(); err != nil {
		return err
	}
	return o.execSrv(ctx, handle)
}

// ExecMicro always fails; Micro has no handler.
func (o *Orchestrator) ExecMicro(context.Context) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedMode, mode.Micro)
}

/*──────────────────────────── shared steps ───────────────────────────────*/

// prepare releases the services of the previous container, installs reg
// and the collaborator, then loads the default bootstrap resource named res.
func (o *Orchestrator) prepare(reg *di.Container, app any, res string) error {
	_ = o.release()
	o.reg = reg
	o.app = app
	o.resolving = make(map[string]bool)
	reg.Set(di.Bootstrap, o)
	reg.Set(di.Config, o.cfg)
	reg.Set(di.Application, app)
	reg.Set(di.Logger, o.log)

	path := o.paths.BootstrapResource(res)
	tree, err := o.loader.Load(path, o.bindings())
	if err != nil {
		return err
	}
	names, err := provider.Apply(tree, o.bindings())
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	o.log.Debugw("bootstrap resource applied", "file", path, "services", names)
	return nil
}

// instantiate loads d's manifest, applies its services, and runs the
// registered factory.  missing is returned when the implementation file is
// absent.
func (o *Orchestrator) instantiate(d module.Descriptor, missing error) (module.Instance, error) {
	if !o.loader.Exists(d.ClassPath) {
		return nil, fmt.Errorf("%w: implementation file %s", missing, d.ClassPath)
	}
	manifest, err := o.loader.Load(d.ClassPath, o.bindings())
	if err != nil {
		return nil, err
	}
	if c := manifest.String(KeyManifestClass); c != "" && c != d.ClassName {
		return nil, fmt.Errorf("%w: %s declares %q, want %q",
			ErrModuleUnresolved, d.ClassPath, c, d.ClassName)
	}
	if _, err := provider.Apply(manifest, o.bindings()); err != nil {
		return nil, fmt.Errorf("%s: %w", d.ClassPath, err)
	}

	f := module.Lookup(d.ClassName)
	if f == nil {
		return nil, fmt.Errorf("%w: no factory registered for %s", ErrModuleUnresolved, d.ClassName)
	}
	inst, err := f(o.reg)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrModuleUnresolved, d.ClassName, err)
	}
	o.log.Debugw("module instantiated", "class", d.ClassName, "type", fmt.Sprintf("%T", inst))
	return inst, nil
}

// attach wires optional instance capabilities into the collaborator.
func (o *Orchestrator) attach(inst module.Instance) {
	switch app := o.app.(type) {
	case *webapp.Application:
		if m, ok := inst.(webapp.Mounter); ok {
			app.MountModule(m)
		}
	case *console.Console:
		if p, ok := inst.(console.TaskProvider); ok {
			app.AddProvider(p)
		}
	}
	o.reg.Set(ModuleKey, inst)
	o.inst = inst
}

/*──────────────────────────── Web ────────────────────────────────────────*/

func (o *Orchestrator) execModule(ctx context.Context, target string, handle bool) error {
	app := o.newWebApp(o)
	if wa, ok := app.(*webapp.Application); ok && o.env.Debug {
		wa.Use(middleware.Recoverer)
		wa.Router().Get(debug.Path, debug.Handler(o))
	}
	if err := o.prepare(di.New(di.FlavorWeb), app, config.DefaultWeb); err != nil {
		return err
	}
	if wa, ok := app.(*webapp.Application); ok {
		if geo, err := di.Lookup[*requestinfo.GeoDB](o.reg, GeoIPService); err == nil {
			wa.SetLocator(geo)
		}
	}
	inst, err := o.instantiate(o.desc, ErrResourceNotFound)
	if err != nil {
		return err
	}
	o.attach(inst)
	if !handle {
		return nil
	}

	if target == "" {
		target = "/"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("%w: target %q: %w", ErrApplication, target, err)
	}
	resp, err := o.dispatchWeb(req)
	if err != nil {
		return err
	}
	_, err = o.out.Write(resp.Body)
	return err
}

// dispatchWeb handles r and, on failure, retries once on the default route.
func (o *Orchestrator) dispatchWeb(r *http.Request) (*webapp.Response, error) {
	app, ok := o.app.(WebApplication)
	if !ok {
		return nil, fmt.Errorf("%w: no web application", ErrNotBootstrapped)
	}

	resp, err := app.Handle(r)
	if err == nil {
		return resp, nil
	}

	fallback := app.DefaultRoute(r.URL.Path)
	if r.URL.RawQuery != "" {
		fallback += "?" + r.URL.RawQuery
	}
	metrics.WebFallbackTotal.Inc()
	o.log.Infow("web dispatch failed, retrying default route",
		"target", r.URL.RequestURI(), "fallback", fallback, "err", err)

	u, perr := r.URL.Parse(fallback)
	if perr != nil {
		return nil, fmt.Errorf("%w: default route %q: %w", ErrApplication, fallback, perr)
	}
	retry := r.Clone(r.Context())
	retry.URL = u
	retry.RequestURI = u.RequestURI()
	resp, err = app.Handle(retry)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrApplication, err)
	}
	return resp, nil
}

// HTTPHandler serves live traffic through the web application with the
// same one-retry rule as ExecModule.  ExecModule must have run first.
func (o *Orchestrator) HTTPHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp, err := o.dispatchWeb(r)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, webapp.ErrRouteNotFound) {
				status = http.StatusNotFound
			}
			o.log.Warnw("request failed", "uri", r.URL.RequestURI(), "err", err)
			http.Error(w, http.StatusText(status), status)
			return
		}
		resp.WriteTo(w)
	})
}

/*──────────────────────────── Srv ────────────────────────────────────────*/

func (o *Orchestrator) execSrv(ctx context.Context, handle bool) error {
	if err := o.prepare(di.New(di.FlavorWeb), o.rpcServer, config.DefaultWeb); err != nil {
		return err
	}
	inst, err := o.instantiate(o.desc, ErrResourceNotFound)
	if err != nil {
		return err
	}
	o.attach(inst)
	if !handle {
		return nil
	}
	return o.rpcServer.Serve(ctx, rpc.NewBackend(o.reg))
}

/*──────────────────────────── Cli ────────────────────────────────────────*/

func (o *Orchestrator) execTask(ctx context.Context, argv []string, reg *di.Container, handle bool) error {
	if reg == nil || reg.Flavor() != di.FlavorCLI {
		reg = di.New(di.FlavorCLI)
	}
	app := o.newConsole(o)
	if err := o.prepare(reg, app, config.DefaultCLI); err != nil {
		return err
	}
	inst, err := o.instantiate(o.desc, ErrResourceNotFound)
	if err != nil {
		return err
	}
	o.attach(inst)
	if !handle {
		return nil
	}
	if err := app.Handle(ctx, argv); err != nil {
		return fmt.Errorf("%w: %w", ErrApplication, err)
	}
	return nil
}

/*──────────────────────────── diagnostics ────────────────────────────────*/

// Snapshot implements debug.Source.
func (o *Orchestrator) Snapshot() debug.Snapshot {
	s := debug.Snapshot{
		BootID:    o.id,
		Env:       o.env.Name,
		Debug:     o.env.Debug,
		Mode:      o.desc.Mode.String(),
		ClassName: o.desc.ClassName,
		ClassPath: o.desc.ClassPath,
	}
	if o.cfg != nil {
		s.ConfigKeys = o.cfg.Keys()
	}
	if o.reg != nil {
		s.Services = o.reg.Names()
	}
	return s
}

var _ debug.Source = (*Orchestrator)(nil)


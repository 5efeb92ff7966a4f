// internal/bootstrap/depend.go
//
// Dependency-module loading.
//
/*
Context
--------
A running module may borrow another module under R/<name>/.  The
dependency's config is resolved like the primary module's (env file, then
config file), but precedence is inverted:

	moduleConfig ← dependency config, untouched
	config       ← dependency config with the current config merged on top

so the caller's settings stay authoritative while the dependency can still
read its own defaults.  The dependency's descriptor never replaces the
primary one.

A dependency that is already being loaded, or that names the primary
module, fails with ErrDependencyCycle.  The name must be a single directory
under R.  When instantiation fails, the current config, config, and
moduleConfig are put back as they were.
*/
package bootstrap

import (
	"fmt"
	"path/filepath"

	"github.com/yanizio/adeptboot/internal/di"
	"github.com/yanizio/adeptboot/internal/metrics"
	"github.com/yanizio/adeptboot/internal/module"
)

// DependModule resolves, configures, and instantiates module name with the
// current container.  A handler must have run first.
func (o *Orchestrator) DependModule(name string) (module.Instance, error) {
	inst, err := o.dependModule(name)
	if err != nil {
		metrics.BootstrapErrorsTotal.WithLabelValues(errorKind(err)).Inc()
		o.log.Errorw("dependency failed", "module", name, "err", err)
		return nil, err
	}
	return inst, nil
}

func (o *Orchestrator) dependModule(name string) (module.Instance, error) {
	if o.reg == nil || o.cfg == nil {
		return nil, fmt.Errorf("%w: depend %s", ErrNotBootstrapped, name)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: empty dependency name", ErrModuleUnresolved)
	}
	if name == "." || name == ".." || name != filepath.Base(name) || filepath.IsAbs(name) {
		return nil, fmt.Errorf("%w: dependency name %q is not a directory under the root",
			ErrInvalidModule, name)
	}
	if name == o.paths.ModuleName() || o.resolving[name] {
		return nil, fmt.Errorf("%w: %s", ErrDependencyCycle, name)
	}
	o.resolving[name] = true
	defer delete(o.resolving, name)

	depCfg, err := o.loadModuleConfig(name)
	if err != nil {
		return nil, err
	}
	metrics.ConfigLoadsTotal.WithLabelValues("dependency").Inc()

	desc, err := o.describe(name, depCfg)
	if err != nil {
		return nil, err
	}
	if !o.loader.Exists(desc.ClassPath) {
		return nil, fmt.Errorf("%w: implementation file %s", ErrModuleUnresolved, desc.ClassPath)
	}
	if module.Lookup(desc.ClassName) == nil {
		return nil, fmt.Errorf("%w: no factory registered for %s", ErrModuleUnresolved, desc.ClassName)
	}

	merged := depCfg.Copy()
	if err := merged.Merge(o.cfg); err != nil {
		return nil, err
	}

	restore := o.snapshotConfig()
	o.reg.Set(di.ModuleConfig, depCfg.Copy())
	o.cfg = merged
	o.reg.Set(di.Config, merged)

	o.log.Infow("dependency resolved",
		"module", name, "mode", desc.Mode, "class", desc.ClassName)
	inst, err := o.instantiate(desc, ErrModuleUnresolved)
	if err != nil {
		restore()
		return nil, err
	}
	return inst, nil
}

// snapshotConfig returns a func that puts the current config and the
// container's config entries back as they are now.
func (o *Orchestrator) snapshotConfig() func() {
	cfg := o.cfg
	own, ownErr := o.reg.Get(di.ModuleConfig)
	return func() {
		o.cfg = cfg
		o.reg.Set(di.Config, cfg)
		if ownErr == nil {
			o.reg.Set(di.ModuleConfig, own)
		} else {
			o.reg.Remove(di.ModuleConfig)
		}
	}
}

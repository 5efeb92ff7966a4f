// internal/config/loader.go
//
// Process-settings loader and path resolver.
//
/*
Context
--------
`LoadSettings(root)` builds one immutable `Settings` struct from three
layers (highest precedence last):

  1. Built-in defaults (env "dev", ext ".yaml", listen addresses).
  2. Optional `<root>/.env` file, exported into the process environment.
  3. Environment variables prefixed `ADEPT_`, where `__` maps to "."
     (e.g., `ADEPT_HTTP__LISTEN_ADDR → http.listen_addr`).

`NewPaths(modulePath, ext)` derives the install layout from the module
directory.  The module directory must exist.

Instrumentation
---------------
  • DEBUG spans: dotenv read, env overlay.
  • ERROR spans: env overlay, unmarshal, validation failures.
  • Logs use the global *sugared* logger (`zap.S()`) so early boot issues
    surface before the file logger is installed.
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"

	"github.com/yanizio/adeptboot/internal/resource"
)

// EnvPrefix is the prefix of every process setting.
const EnvPrefix = "ADEPT_"

// DefaultEnv is used when ADEPT_ENV is unset or empty.
const DefaultEnv = "dev"

func defaults() Settings {
	return Settings{
		Env:  DefaultEnv,
		Ext:  resource.DefaultExt,
		HTTP: HTTP{
			ListenAddr:        ":8080",
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		RPC:  RPC{ListenAddr: ":9090"},
	}
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// LoadSettings reads .env and ADEPT_ variables, validates, and returns
// Settings.  root may be empty, in which case no .env file is read.
func LoadSettings(root string) (Settings, error) {
	if root != "" {
		dotenv := filepath.Join(root, ".env")
		if err := godotenv.Load(dotenv); err == nil {
			zap.S().Debugw("settings dotenv loaded", "file", dotenv)
		}
	}

	k := koanf.New(".")
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(s, EnvPrefix), "__", "."))
	}), nil); err != nil {
		zap.S().Errorw("settings env overlay failed", "err", err)
		return Settings{}, err
	}

	cfg := defaults()
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("settings unmarshal failed", "err", err)
		return Settings{}, err
	}
	if cfg.Env == "" {
		cfg.Env = DefaultEnv
	}

	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("settings validation failed", "err", err)
		return Settings{}, err
	}
	zap.S().Debugw("settings loaded", "env", cfg.Env, "ext", cfg.Ext)
	return cfg, nil
}

/*──────────────────────────────── paths ───────────────────────────────────*/

// NewPaths resolves the layout around modulePath.  It fails with
// resource.ErrResourceNotFound when the module directory is missing or is
// not a directory.
func NewPaths(modulePath, ext string) (Paths, error) {
	if modulePath == "" {
		return Paths{}, errors.New("config: module path is empty")
	}
	abs, err := filepath.Abs(modulePath)
	if err != nil {
		return Paths{}, err
	}
	fi, err := os.Stat(abs)
	if err != nil || !fi.IsDir() {
		return Paths{}, fmt.Errorf("%w: module directory %s", resource.ErrResourceNotFound, abs)
	}
	if ext == "" {
		ext = resource.DefaultExt
	}

	root := filepath.Dir(abs)
	common := filepath.Join(root, CommonDirName)
	return Paths{
		Root:      root,
		Module:    abs,
		Common:    common,
		CommonCfg: filepath.Join(common, ConfDirName),
		CommonLd:  filepath.Join(common, LoadDirName),
		Ext:       ext,
	}, nil
}

// ModuleName is the base name of the module directory.
func (p Paths) ModuleName() string { return filepath.Base(p.Module) }

// GlobalConfig is <root>/common/config/config<ext>.
func (p Paths) GlobalConfig() string {
	return filepath.Join(p.CommonCfg, ConfigName+p.Ext)
}

// BootstrapResource is <root>/common/load/<name><ext>.
func (p Paths) BootstrapResource(name string) string {
	return filepath.Join(p.CommonLd, name+p.Ext)
}

// ModuleDir returns the directory of module name; "" means the primary
// module.
func (p Paths) ModuleDir(name string) string {
	if name == "" {
		return p.Module
	}
	return filepath.Join(p.Root, name)
}

// ModuleConfigCandidates returns the env-specific then the generic config
// path for module name.
func (p Paths) ModuleConfigCandidates(name, env string) []string {
	dir := filepath.Join(p.ModuleDir(name), AppDirName, ConfDirName)
	return []string{
		filepath.Join(dir, env+p.Ext),
		filepath.Join(dir, ConfigName+p.Ext),
	}
}

// ImplementationFile is <module>/app/<suffix><ext>.
func (p Paths) ImplementationFile(name, suffix string) string {
	return filepath.Join(p.ModuleDir(name), AppDirName, suffix+p.Ext)
}

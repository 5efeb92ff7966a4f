// internal/config/model.go
//
// Typed process settings and the immutable path layout.
//
// Context
// -------
// Settings are the *process-level* knobs of the bootstrap, not application
// config.  Application config lives in the module's YAML files and is
// cascaded by internal/bootstrap.  Settings come from two layers (highest
// precedence last):
//
//   • optional `<root>/.env`            – dotenv values,
//   • `ADEPT_`-prefixed environment     – e.g. ADEPT_ENV=production.
//
// Paths is derived once from the module directory and handed to every
// component, so no part of the cascade reads ambient globals.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

import "time"

//
// HTTP section
//

// HTTP holds web-server tunables for cmd/web.  Durations accept Go syntax
// ("15s") when set through the environment.
type HTTP struct {
	ListenAddr        string        `koanf:"listen_addr" validate:"required,hostname_port"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout" validate:"gt=0"`
	ReadTimeout       time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout      time.Duration `koanf:"write_timeout" validate:"gt=0"`
	IdleTimeout       time.Duration `koanf:"idle_timeout" validate:"gt=0"`
}

//
// RPC section
//

// RPC holds the Srv-mode listener.
type RPC struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
}

//
// Log section
//

// Log tunes the file logger.
type Log struct {
	Tee bool `koanf:"tee"`
}

//
// Root aggregate
//

// Settings is the validated process configuration.
type Settings struct {
	Env  string `koanf:"env" validate:"envname"`
	Ext  string `koanf:"ext" validate:"required,startswith=."`
	HTTP HTTP   `koanf:"http"`
	RPC  RPC    `koanf:"rpc"`
	Log  Log    `koanf:"log"`
}

//
// Paths (runtime only)
//

// Directory and file names of the install layout.
const (
	CommonDirName = "common"
	ConfDirName   = "config"
	LoadDirName   = "load"
	AppDirName    = "app"
	ConfigName    = "config"
	DefaultWeb    = "default-web"
	DefaultCLI    = "default-cli"
)

// Paths is the resolved layout for one module.  Values are absolute and
// never change after NewPaths returns.
type Paths struct {
	Root      string // parent of the module directory
	Module    string // module directory
	Common    string // <root>/common
	CommonCfg string // <root>/common/config
	CommonLd  string // <root>/common/load
	Ext       string // resource extension, e.g. ".yaml"
}

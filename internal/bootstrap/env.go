package bootstrap

import (
	"strings"

	"github.com/yanizio/adeptboot/internal/config"
)

// productionPrefix disables the diagnostic listener for matching environments.
const productionPrefix = "product"

// Environment is the deployment context selected at start-up.
type Environment struct {
	Name  string `json:"name"`
	Debug bool   `json:"debug"`
}

// ResolveEnvironment reads the env setting, defaulting to "dev".  Debug is
// on unless the process runs in CLI context or the name starts with
// "product".  Every mode shares this resolver.
func ResolveEnvironment(s config.Settings, cli bool) Environment {
	name := strings.TrimSpace(s.Env)
	if name == "" {
		name = config.DefaultEnv
	}
	return Environment{
		Name:  name,
		Debug: !cli && !strings.HasPrefix(name, productionPrefix),
	}
}

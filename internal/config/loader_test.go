package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/adeptboot/internal/resource"
)

func TestLoadSettings_Defaults(t *testing.T) {
	t.Setenv("ADEPT_ENV", "")

	s, err := LoadSettings("")
	require.NoError(t, err)
	assert.Equal(t, DefaultEnv, s.Env)
	assert.Equal(t, ".yaml", s.Ext)
	assert.Equal(t, ":8080", s.HTTP.ListenAddr)
	assert.Equal(t, ":9090", s.RPC.ListenAddr)
	assert.Equal(t, 15*time.Second, s.HTTP.WriteTimeout)
}

func TestLoadSettings_EnvOverlay(t *testing.T) {
	t.Setenv("ADEPT_ENV", "production")
	t.Setenv("ADEPT_HTTP__LISTEN_ADDR", "127.0.0.1:8181")
	t.Setenv("ADEPT_LOG__TEE", "true")
	t.Setenv("ADEPT_HTTP__READ_TIMEOUT", "3s")

	s, err := LoadSettings("")
	require.NoError(t, err)
	assert.Equal(t, "production", s.Env)
	assert.Equal(t, "127.0.0.1:8181", s.HTTP.ListenAddr)
	assert.True(t, s.Log.Tee)
	assert.Equal(t, 3*time.Second, s.HTTP.ReadTimeout)
}

func TestLoadSettings_DotEnv(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte("ADEPT_ENV=staging\n"), 0o644))
	// godotenv never overrides variables that are already set.
	require.NoError(t, os.Unsetenv("ADEPT_ENV"))
	t.Cleanup(func() { _ = os.Unsetenv("ADEPT_ENV") })

	s, err := LoadSettings(root)
	require.NoError(t, err)
	assert.Equal(t, "staging", s.Env)
}

func TestLoadSettings_Invalid(t *testing.T) {
	t.Setenv("ADEPT_EXT", "yaml")

	_, err := LoadSettings("")
	assert.Error(t, err)
}

func TestLoadSettings_EnvNameRule(t *testing.T) {
	for _, bad := range []string{"../prod", "Prod", "a/b", "-x"} {
		t.Setenv("ADEPT_ENV", bad)
		_, err := LoadSettings("")
		assert.Error(t, err, bad)
	}
	t.Setenv("ADEPT_ENV", "staging_eu-1")
	_, err := LoadSettings("")
	assert.NoError(t, err)
}

func TestNewPaths(t *testing.T) {
	root := t.TempDir()
	mod := filepath.Join(root, "shop")
	require.NoError(t, os.Mkdir(mod, 0o755))

	p, err := NewPaths(mod+"/", "")
	require.NoError(t, err)

	assert.Equal(t, root, p.Root)
	assert.Equal(t, mod, p.Module)
	assert.Equal(t, "shop", p.ModuleName())
	assert.Equal(t, filepath.Join(root, "common", "config", "config.yaml"), p.GlobalConfig())
	assert.Equal(t, filepath.Join(root, "common", "load", "default-cli.yaml"), p.BootstrapResource(DefaultCLI))
	assert.Equal(t, []string{
		filepath.Join(mod, "app", "config", "dev.yaml"),
		filepath.Join(mod, "app", "config", "config.yaml"),
	}, p.ModuleConfigCandidates("", "dev"))
	assert.Equal(t, filepath.Join(root, "billing", "app", "Task.yaml"), p.ImplementationFile("billing", "Task"))
}

func TestNewPaths_MissingModule(t *testing.T) {
	_, err := NewPaths(filepath.Join(t.TempDir(), "ghost"), "")
	assert.ErrorIs(t, err, resource.ErrResourceNotFound)

	_, err = NewPaths("", "")
	assert.Error(t, err)
}

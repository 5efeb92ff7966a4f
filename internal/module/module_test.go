package module

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/adeptboot/internal/di"
	"github.com/yanizio/adeptboot/internal/mode"
)

func TestDescriptorValidate(t *testing.T) {
	ok := Descriptor{ClassPath: "/m/app/Module.yaml", ClassName: "DemoModule", Mode: mode.Web}
	require.NoError(t, ok.Validate())
	assert.False(t, ok.IsZero())

	bad := []Descriptor{
		{ClassName: "DemoModule", Mode: mode.Web},
		{ClassPath: "/m/app/Module.yaml", Mode: mode.Web},
		{ClassPath: "/m/app/Module.yaml", ClassName: "DemoModule"},
		{ClassPath: "/m/app/Module.yaml", ClassName: "DemoModule", Mode: "Daemon"},
	}
	for _, d := range bad {
		assert.Error(t, d.Validate(), "%+v", d)
	}
	assert.True(t, Descriptor{}.IsZero())
}

func TestRegistry(t *testing.T) {
	const name = "RegistryTestModule"
	t.Cleanup(func() { Unregister(name) })

	assert.Nil(t, Lookup(name))

	Register(name, func(c *di.Container) (Instance, error) { return c.Flavor(), nil })
	f := Lookup(name)
	require.NotNil(t, f)

	inst, err := f(di.New(di.FlavorCLI))
	require.NoError(t, err)
	assert.Equal(t, di.FlavorCLI, inst)
	assert.Contains(t, Names(), name)
}

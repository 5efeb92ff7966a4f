package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustMap(t *testing.T, m map[string]any) *Store {
	t.Helper()
	s, err := FromMap(m)
	require.NoError(t, err)
	return s
}

func TestMerge_ArgumentWins(t *testing.T) {
	global := mustMap(t, map[string]any{
		"db":  map[string]any{"host": "global", "port": 3306},
		"app": map[string]any{"name": "global"},
	})
	module := mustMap(t, map[string]any{
		"db": map[string]any{"host": "module"},
	})

	require.NoError(t, global.Merge(module))

	assert.Equal(t, "module", global.String("db.host"))
	assert.Equal(t, 3306, global.Int("db.port"), "untouched keys survive a deep merge")
	assert.Equal(t, "global", global.String("app.name"))
}

func TestMerge_Nil(t *testing.T) {
	s := mustMap(t, map[string]any{"a": 1})
	require.NoError(t, s.Merge(nil))
	assert.Equal(t, 1, s.Int("a"))
}

func TestCopy_Independent(t *testing.T) {
	orig := mustMap(t, map[string]any{"a": map[string]any{"b": "x"}})
	cp := orig.Copy()
	require.NoError(t, cp.Set("a.b", "y"))

	assert.Equal(t, "x", orig.String("a.b"))
	assert.Equal(t, "y", cp.String("a.b"))
}

func TestEqual(t *testing.T) {
	a := mustMap(t, map[string]any{"x": map[string]any{"y": "z"}})
	b := mustMap(t, map[string]any{"x": map[string]any{"y": "z"}})
	c := mustMap(t, map[string]any{"x": map[string]any{"y": "w"}})

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(nil))
}

func TestDottedAccess(t *testing.T) {
	s := mustMap(t, map[string]any{"application": map[string]any{"mode": "web", "ns": "Demo"}})

	assert.True(t, s.Exists("application.mode"))
	assert.False(t, s.Exists("application.missing"))
	assert.Nil(t, s.Get("application.missing"))
	assert.ElementsMatch(t, []string{"application.mode", "application.ns"}, s.Keys())
	assert.Equal(t, "Demo", s.Sub("application").String("ns"))
}

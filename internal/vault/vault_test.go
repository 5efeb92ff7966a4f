package vault

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/adeptboot/internal/store"
)

type fakeGetter map[string]string

func (f fakeGetter) GetKV(_ context.Context, path, key string, _ time.Duration) (string, error) {
	v, ok := f[path+"#"+key]
	if !ok {
		return "", errors.New("missing")
	}
	return v, nil
}

func TestParseRef(t *testing.T) {
	path, key, ok := ParseRef("vault:secret/db#password")
	require.True(t, ok)
	assert.Equal(t, "secret/db", path)
	assert.Equal(t, "password", key)

	for _, bad := range []string{"secret/db#password", "vault:secret/db", "vault:#k", "vault:p#"} {
		_, _, ok := ParseRef(bad)
		assert.False(t, ok, bad)
	}
}

func TestResolveRefs(t *testing.T) {
	cfg, err := store.FromMap(map[string]any{
		"database": map[string]any{
			"dsn":      "user@tcp(db)/app",
			"password": "vault:secret/db#password",
		},
		"port": 3306,
	})
	require.NoError(t, err)

	require.NoError(t, ResolveRefs(context.Background(), cfg,
		fakeGetter{"secret/db#password": "s3cr3t"}, 0))

	assert.Equal(t, "s3cr3t", cfg.String("database.password"))
	assert.Equal(t, "user@tcp(db)/app", cfg.String("database.dsn"))
}

func TestResolveRefs_Missing(t *testing.T) {
	cfg, err := store.FromMap(map[string]any{"token": "vault:secret/api#token"})
	require.NoError(t, err)

	err = ResolveRefs(context.Background(), cfg, fakeGetter{}, 0)
	assert.ErrorContains(t, err, "token")
}

func TestSplitMount(t *testing.T) {
	m, r := splitMount("secret/app/db")
	assert.Equal(t, "secret", m)
	assert.Equal(t, "app/db", r)
}

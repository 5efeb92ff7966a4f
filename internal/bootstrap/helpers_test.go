package bootstrap

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yanizio/adeptboot/internal/config"
	"github.com/yanizio/adeptboot/internal/di"
	"github.com/yanizio/adeptboot/internal/module"
	"github.com/yanizio/adeptboot/internal/rpc"
	"github.com/yanizio/adeptboot/internal/webapp"
)

// installTree is a synthetic R directory.
type installTree struct {
	t    *testing.T
	root string
}

func newInstall(t *testing.T) *installTree {
	t.Helper()
	tr := &installTree{t: t, root: t.TempDir()}
	tr.write("common/config/config.yaml", "site:\n  name: global\n")
	tr.write("common/load/default-web.yaml", "services:\n  - loader\n")
	tr.write("common/load/default-cli.yaml", "services:\n  - loader\n")
	return tr
}

func (tr *installTree) write(rel, body string) {
	tr.t.Helper()
	p := filepath.Join(tr.root, filepath.FromSlash(rel))
	require.NoError(tr.t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(tr.t, os.WriteFile(p, []byte(body), 0o644))
}

func (tr *installTree) remove(rel string) {
	tr.t.Helper()
	require.NoError(tr.t, os.Remove(filepath.Join(tr.root, filepath.FromSlash(rel))))
}

// addModule writes name/app/config/config.yaml and name/app/<suffix>.yaml.
// extra is appended to the module config.
func (tr *installTree) addModule(name, modeVal, ns, suffix, extra string) string {
	tr.t.Helper()
	cfg := "application:\n  mode: " + modeVal + "\n  ns: " + ns + "\n" + extra
	tr.write(name+"/app/config/config.yaml", cfg)
	if suffix != "" {
		tr.write(name+"/app/"+suffix+".yaml", "class: "+ns+suffix+"\n")
	}
	return filepath.Join(tr.root, name)
}

func register(t *testing.T, className string, f module.Factory) {
	t.Helper()
	module.Register(className, f)
	t.Cleanup(func() { module.Unregister(className) })
}

func settings(env string) config.Settings {
	return config.Settings{
		Env:  env,
		Ext:  ".yaml",
		HTTP: config.HTTP{ListenAddr: ":0"},
		RPC:  config.RPC{ListenAddr: ":0"},
	}
}

func newOrch(t *testing.T, dir, env string, opts ...Option) *Orchestrator {
	t.Helper()
	opts = append([]Option{WithLogger(zap.NewNop().Sugar()), WithOutput(&bytes.Buffer{})}, opts...)
	o, err := New(dir, settings(env), opts...)
	require.NoError(t, err)
	return o
}

type nopInstance struct{ reg *di.Container }

func nopFactory(c *di.Container) (module.Instance, error) { return &nopInstance{reg: c}, nil }

/*──────────────────────────── fakes ──────────────────────────────────────*/

// fakeWeb fails every path listed in fail and records every handled path.
type fakeWeb struct {
	def   string
	fail  map[string]bool
	calls []string
}

func (f *fakeWeb) Handle(r *http.Request) (*webapp.Response, error) {
	f.calls = append(f.calls, r.URL.RequestURI())
	if f.fail[r.URL.Path] {
		return nil, webapp.ErrRouteNotFound
	}
	return &webapp.Response{Status: http.StatusOK, Header: http.Header{}, Body: []byte("ok " + r.URL.RequestURI())}, nil
}

func (f *fakeWeb) DefaultRoute(target string) string {
	return "/" + f.def + "/" + strings.TrimPrefix(target, "/")
}

type fakeConsole struct {
	argv [][]string
	err  error
}

func (f *fakeConsole) Handle(_ context.Context, argv []string) error {
	f.argv = append(f.argv, argv)
	return f.err
}

type fakeRPC struct {
	backends []*rpc.Backend
}

func (f *fakeRPC) Serve(_ context.Context, b *rpc.Backend) error {
	f.backends = append(f.backends, b)
	return nil
}

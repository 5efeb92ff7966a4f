package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/adeptboot/internal/di"
	"github.com/yanizio/adeptboot/internal/metrics"
	"github.com/yanizio/adeptboot/internal/mode"
	"github.com/yanizio/adeptboot/internal/module"
	"github.com/yanizio/adeptboot/internal/resource"
	"github.com/yanizio/adeptboot/modules/debug"
)

/*──────────────────────────── dispatch table ─────────────────────────────*/

func TestExec_Micro(t *testing.T) {
	tr := newInstall(t)
	dir := tr.addModule("edge", "micro", "Edge", "Micro", "")
	o := newOrch(t, dir, "dev")

	before := testutil.ToFloat64(metrics.BootstrapErrorsTotal.WithLabelValues("unsupported_mode"))
	err := o.Exec(t.Context(), Invocation{})
	assert.ErrorIs(t, err, ErrUnsupportedMode)
	assert.Equal(t, mode.Micro, o.RunMode())
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.BootstrapErrorsTotal.WithLabelValues("unsupported_mode")))

	assert.ErrorIs(t, o.ExecMicro(t.Context()), ErrUnsupportedMode)
}

func TestExec_DispatchOnce(t *testing.T) {
	cases := []struct {
		raw, suffix string
		want        mode.Mode
	}{
		{"web", "Module", mode.Web},
		{"cli", "Task", mode.Cli},
		{"srv", "Srv", mode.Srv},
	}
	for _, c := range cases {
		t.Run(c.raw, func(t *testing.T) {
			tr := newInstall(t)
			dir := tr.addModule("app", c.raw, "App", c.suffix, "")
			o := newOrch(t, dir, "dev")

			calls := map[mode.Mode]int{}
			var got Invocation
			for _, m := range []mode.Mode{mode.Web, mode.Cli, mode.Srv} {
				o.handlers[m] = func(_ *Orchestrator, _ context.Context, inv Invocation) error {
					calls[m]++
					got = inv
					return nil
				}
			}

			before := testutil.ToFloat64(metrics.DispatchTotal.WithLabelValues(c.want.String()))
			inv := Invocation{Target: "/x", Args: []string{"a", "b"}}
			require.NoError(t, o.Exec(t.Context(), inv))

			assert.Equal(t, map[mode.Mode]int{c.want: 1}, calls)
			assert.Equal(t, inv, got)
			assert.Equal(t, before+1, testutil.ToFloat64(metrics.DispatchTotal.WithLabelValues(c.want.String())))
		})
	}
}

/*──────────────────────────── Web ────────────────────────────────────────*/

type helloModule struct{}

func (helloModule) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/hello", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "hi %s", r.URL.Query().Get("name"))
	})
	r.Get("/home/landing", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("landing"))
	})
	return r
}

func TestExecModule_EndToEnd(t *testing.T) {
	tr := newInstall(t)
	dir := tr.addModule("site", "Web", "Site", "Module", "router:\n  default_module: home\n")
	register(t, "SiteModule", func(*di.Container) (module.Instance, error) { return helloModule{}, nil })

	var out bytes.Buffer
	o := newOrch(t, dir, "dev", WithOutput(&out))
	require.NoError(t, o.Exec(t.Context(), Invocation{Target: "/hello?name=bob"}))
	assert.Equal(t, "hi bob", out.String())

	for _, name := range []string{di.Bootstrap, di.Config, di.Application, di.Logger, ModuleKey, "loader"} {
		assert.True(t, o.Registry().Has(name), name)
	}
	assert.Equal(t, di.FlavorWeb, o.Registry().Flavor())
	assert.IsType(t, helloModule{}, o.Module())

	// Live traffic: direct hit, default-route retry, and a miss.
	srv := httptest.NewServer(o.HTTPHandler())
	defer srv.Close()

	body := get(t, srv.URL+"/hello?name=amy", http.StatusOK)
	assert.Equal(t, "hi amy", body)
	body = get(t, srv.URL+"/landing", http.StatusOK)
	assert.Equal(t, "landing", body)
	get(t, srv.URL+"/nowhere", http.StatusNotFound)

	// Diagnostic listener.
	var snap struct {
		Bootstrap debug.Snapshot `json:"bootstrap"`
	}
	require.NoError(t, json.Unmarshal([]byte(get(t, srv.URL+debug.Path, http.StatusOK)), &snap))
	assert.Equal(t, o.ID(), snap.Bootstrap.BootID)
	assert.Equal(t, "SiteModule", snap.Bootstrap.ClassName)
	assert.Contains(t, snap.Bootstrap.Services, ModuleKey)
}

func TestExecModule_NoDiagnosticsInProduction(t *testing.T) {
	tr := newInstall(t)
	dir := tr.addModule("site", "web", "Site", "Module", "")
	register(t, "SiteModule", func(*di.Container) (module.Instance, error) { return helloModule{}, nil })

	o := newOrch(t, dir, "production")
	require.NoError(t, o.ExecModule(t.Context(), "", false))

	srv := httptest.NewServer(o.HTTPHandler())
	defer srv.Close()
	get(t, srv.URL+debug.Path, http.StatusNotFound)
}

func TestExecModule_HeaderPolicyFromConfig(t *testing.T) {
	tr := newInstall(t)
	dir := tr.addModule("site", "web", "Site", "Module",
		"http:\n  headers:\n    X-Frame-Options: SAMEORIGIN\n    Strict-Transport-Security: \"\"\n")
	register(t, "SiteModule", func(*di.Container) (module.Instance, error) { return helloModule{}, nil })

	o := newOrch(t, dir, "production")
	require.NoError(t, o.ExecModule(t.Context(), "", false))

	srv := httptest.NewServer(o.HTTPHandler())
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL + "/hello")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "SAMEORIGIN", resp.Header.Get("X-Frame-Options"))
	assert.Empty(t, resp.Header.Get("Strict-Transport-Security"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
}

func TestWebFallback_RetriesOnce(t *testing.T) {
	tr := newInstall(t)
	dir := tr.addModule("site", "web", "Site", "Module", "")
	register(t, "SiteModule", nopFactory)

	fw := &fakeWeb{def: "home", fail: map[string]bool{"/missing": true}}
	var out bytes.Buffer
	o := newOrch(t, dir, "dev", WithOutput(&out),
		WithWebApplication(func(*Orchestrator) WebApplication { return fw }))

	before := testutil.ToFloat64(metrics.WebFallbackTotal)
	require.NoError(t, o.ExecModule(t.Context(), "/missing?q=1", true))
	assert.Equal(t, []string{"/missing?q=1", "/home/missing?q=1"}, fw.calls)
	assert.Equal(t, "ok /home/missing?q=1", out.String())
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.WebFallbackTotal))
}

func TestWebFallback_GivesUpAfterOneRetry(t *testing.T) {
	tr := newInstall(t)
	dir := tr.addModule("site", "web", "Site", "Module", "")
	register(t, "SiteModule", nopFactory)

	fw := &fakeWeb{def: "home", fail: map[string]bool{"/missing": true, "/home/missing": true}}
	o := newOrch(t, dir, "dev",
		WithWebApplication(func(*Orchestrator) WebApplication { return fw }))

	err := o.Exec(t.Context(), Invocation{Target: "/missing"})
	assert.ErrorIs(t, err, ErrApplication)
	assert.Len(t, fw.calls, 2)
}

func TestExecModule_ResolveOnly(t *testing.T) {
	tr := newInstall(t)
	dir := tr.addModule("site", "web", "Site", "Module", "")
	register(t, "SiteModule", nopFactory)

	fw := &fakeWeb{}
	o := newOrch(t, dir, "dev",
		WithWebApplication(func(*Orchestrator) WebApplication { return fw }))

	require.NoError(t, o.Exec(t.Context(), Invocation{ResolveOnly: true}))
	assert.Empty(t, fw.calls)
	inst, ok := o.Module().(*nopInstance)
	require.True(t, ok)
	assert.Same(t, o.Registry(), inst.reg)
}

func TestExecModule_MissingImplementation(t *testing.T) {
	tr := newInstall(t)
	dir := tr.addModule("site", "web", "Site", "", "")
	register(t, "SiteModule", nopFactory)

	err := newOrch(t, dir, "dev").ExecModule(t.Context(), "", false)
	assert.ErrorIs(t, err, ErrResourceNotFound)
	assert.NotErrorIs(t, err, ErrModuleUnresolved)
}

func TestExecModule_MissingDefaultResource(t *testing.T) {
	tr := newInstall(t)
	dir := tr.addModule("site", "web", "Site", "Module", "")
	tr.remove("common/load/default-web.yaml")
	register(t, "SiteModule", nopFactory)

	err := newOrch(t, dir, "dev").ExecModule(t.Context(), "", false)
	assert.ErrorIs(t, err, ErrResourceNotFound)
}

func TestExecModule_ClassMismatch(t *testing.T) {
	tr := newInstall(t)
	dir := tr.addModule("site", "web", "Site", "Module", "")
	tr.write("site/app/Module.yaml", "class: OtherModule\n")
	register(t, "SiteModule", nopFactory)

	err := newOrch(t, dir, "dev").ExecModule(t.Context(), "", false)
	assert.ErrorIs(t, err, ErrModuleUnresolved)
}

func TestExecModule_NoFactory(t *testing.T) {
	tr := newInstall(t)
	dir := tr.addModule("site", "web", "Ghost", "Module", "")

	err := newOrch(t, dir, "dev").ExecModule(t.Context(), "", false)
	assert.ErrorIs(t, err, ErrModuleUnresolved)
}

func TestExecModule_ManifestServices(t *testing.T) {
	tr := newInstall(t)
	dir := tr.addModule("site", "web", "Site", "Module", "")
	tr.write("site/app/Module.yaml", "class: SiteModule\nservices:\n  - site_loader: loader\n")

	var seen bool
	register(t, "SiteModule", func(c *di.Container) (module.Instance, error) {
		_, err := di.Lookup[*resource.Loader](c, "site_loader")
		seen = err == nil
		return &nopInstance{reg: c}, nil
	})

	require.NoError(t, newOrch(t, dir, "dev").ExecModule(t.Context(), "", false))
	assert.True(t, seen)
}

func TestExecModule_UnknownProvider(t *testing.T) {
	tr := newInstall(t)
	dir := tr.addModule("site", "web", "Site", "Module", "")
	tr.write("common/load/default-web.yaml", "services:\n  - teleporter\n")
	register(t, "SiteModule", nopFactory)

	err := newOrch(t, dir, "dev").ExecModule(t.Context(), "", false)
	assert.ErrorContains(t, err, "teleporter")
}

/*──────────────────────────── Cli ────────────────────────────────────────*/

type greetModule struct{}

func (greetModule) Tasks() []*cobra.Command {
	return []*cobra.Command{{
		Use: "greet",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("who?")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "hello %s", args[0])
			return nil
		},
	}}
}

func TestExecTask_EndToEnd(t *testing.T) {
	tr := newInstall(t)
	dir := tr.addModule("jobs", "cli", "Jobs", "Task", "")
	register(t, "JobsTask", func(*di.Container) (module.Instance, error) { return greetModule{}, nil })

	var out bytes.Buffer
	o := newOrch(t, dir, "production", WithCLI(true), WithOutput(&out))
	require.NoError(t, o.Exec(t.Context(), Invocation{Args: []string{"greet", "ann"}}))

	assert.Equal(t, "hello ann", out.String())
	assert.False(t, o.Env().Debug)
	assert.Equal(t, di.FlavorCLI, o.Registry().Flavor())

	err := o.Exec(t.Context(), Invocation{Args: []string{"greet"}})
	assert.ErrorIs(t, err, ErrApplication)
}

func TestExecTask_RegistryReuse(t *testing.T) {
	tr := newInstall(t)
	dir := tr.addModule("jobs", "cli", "Jobs", "Task", "")
	register(t, "JobsTask", nopFactory)

	fc := &fakeConsole{}
	o := newOrch(t, dir, "dev",
		WithConsole(func(*Orchestrator) Console { return fc }))

	cliReg := di.New(di.FlavorCLI)
	cliReg.Set("preset", 1)
	require.NoError(t, o.ExecTask(t.Context(), []string{"x"}, cliReg, true))
	assert.Same(t, cliReg, o.Registry())
	assert.True(t, o.Registry().Has("preset"))
	assert.Equal(t, [][]string{{"x"}}, fc.argv)

	webReg := di.New(di.FlavorWeb)
	require.NoError(t, o.ExecTask(t.Context(), nil, webReg, true))
	assert.NotSame(t, webReg, o.Registry())
	assert.Equal(t, di.FlavorCLI, o.Registry().Flavor())
}

func TestExecTask_ErrorsSurface(t *testing.T) {
	tr := newInstall(t)
	dir := tr.addModule("jobs", "cli", "Jobs", "Task", "")
	register(t, "JobsTask", nopFactory)

	boom := errors.New("boom")
	fc := &fakeConsole{err: boom}
	o := newOrch(t, dir, "dev", WithConsole(func(*Orchestrator) Console { return fc }))

	err := o.ExecTask(t.Context(), []string{"x"}, nil, true)
	assert.ErrorIs(t, err, ErrApplication)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, fc.argv, 1)
}

/*──────────────────────────── Srv ────────────────────────────────────────*/

func TestExecSrv(t *testing.T) {
	tr := newInstall(t)
	dir := tr.addModule("api", "srv", "Api", "Srv", "")
	register(t, "ApiSrv", nopFactory)

	fs := &fakeRPC{}
	o := newOrch(t, dir, "dev", WithRPCServer(fs))

	require.NoError(t, o.Exec(t.Context(), Invocation{}))
	require.Len(t, fs.backends, 1)
	assert.Same(t, o.Registry(), fs.backends[0].Registry())
	assert.True(t, o.Registry().Has(ModuleKey))

	require.NoError(t, o.ExecSrv(t.Context(), false))
	assert.Len(t, fs.backends, 1)
}

/*──────────────────────────── helpers ────────────────────────────────────*/

func get(t *testing.T, url string, wantStatus int) string {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, wantStatus, resp.StatusCode, url)
	return buf.String()
}

// cmd/web/main.go
//
// Bootstrap – HTTP entry point.
//
// Life-cycle
// ----------
//
//  1. Load process settings (<root>/.env, then ADEPT_ variables).
//
//  2. Start daily rotating logger (tees to console when running in a TTY
//     or when ADEPT_LOG__TEE=true).
//
//  3. Resolve the module under the directory given as the first argument.
//
//  4. Web modules: build the application once (resolution only), expose
//     Prometheus /metrics, and serve every other path through the
//     bootstrap's one-retry dispatcher until SIGINT/SIGTERM.
//
//  5. Srv modules: Exec blocks serving RPC.  Cli modules are refused with
//     a pointer to cmd/task, which runs them in CLI context.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/yanizio/adeptboot/internal/bootstrap"
	"github.com/yanizio/adeptboot/internal/config"
	"github.com/yanizio/adeptboot/internal/logger"
	"github.com/yanizio/adeptboot/internal/mode"
	"github.com/yanizio/adeptboot/internal/webapp"

	_ "github.com/yanizio/adeptboot/modules/example" // demo module
)

const shutdownGrace = 10 * time.Second

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: web <module-dir> [args...]")
		os.Exit(2)
	}
	if err := run(os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(moduleDir string, args []string) error {
	abs, err := filepath.Abs(moduleDir)
	if err != nil {
		return err
	}
	root := filepath.Dir(abs)

	settings, err := config.LoadSettings(root)
	if err != nil {
		return fmt.Errorf("settings: %w", err)
	}

	env := bootstrap.ResolveEnvironment(settings, false)
	log, err := logger.New(root, settings.Log.Tee || logger.RunningInTTY(), env.Debug)
	if err != nil {
		return fmt.Errorf("start logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//
	// ── 1.  Resolve the module ──────────────────────────────────────────
	//
	o, err := bootstrap.New(abs, settings, bootstrap.WithLogger(log))
	if err != nil {
		return err
	}
	if err := o.InitConfig(); err != nil {
		return err
	}

	//
	// ── 2.  Srv (and anything unsupported) runs through the dispatch
	//        table.  Cli modules belong to cmd/task.
	//
	defer func() { _ = o.Close() }()
	if err := refuseCLI(o.Paths().ModuleName(), o.RunMode()); err != nil {
		return err
	}
	if o.RunMode() != mode.Web {
		return o.Exec(ctx, bootstrap.Invocation{Args: args})
	}

	//
	// ── 3.  Build the web application once ──────────────────────────────
	//
	if err := o.ExecModule(ctx, "", false); err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/*", o.HTTPHandler())

	//
	// ── 4.  Serve until signalled ───────────────────────────────────────
	//
	srv := webapp.NewServer(settings.HTTP, r)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infow("listening", "addr", settings.HTTP.ListenAddr, "boot_id", o.ID())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		log.Infow("shutting down")
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

// refuseCLI rejects Cli modules.  They must run in CLI context, which only
// cmd/task sets up.
func refuseCLI(name string, m mode.Mode) error {
	if m != mode.Cli {
		return nil
	}
	return fmt.Errorf("%w: %s is a %s module, run it with cmd/task",
		bootstrap.ErrUnsupportedMode, name, m)
}

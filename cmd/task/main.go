// cmd/task/main.go
//
// Bootstrap – command-line entry point.
//
//	task <module-dir> [task args...]
//
// Runs the module through Exec in CLI context, so the diagnostic listener
// is never attached.  Flags after the module directory belong to the task.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yanizio/adeptboot/internal/bootstrap"
	"github.com/yanizio/adeptboot/internal/config"
	"github.com/yanizio/adeptboot/internal/logger"

	_ "github.com/yanizio/adeptboot/modules/example" // demo module
)

func main() {
	var resolveOnly bool

	root := &cobra.Command{
		Use:          "task <module-dir> [args...]",
		Short:        "Resolve a module and run it in CLI context",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			abs, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			settings, err := config.LoadSettings(filepath.Dir(abs))
			if err != nil {
				return fmt.Errorf("settings: %w", err)
			}

			env := bootstrap.ResolveEnvironment(settings, true)
			log, err := logger.New(filepath.Dir(abs), settings.Log.Tee, env.Debug)
			if err != nil {
				return fmt.Errorf("start logger: %w", err)
			}
			defer func() { _ = log.Sync() }()

			o, err := bootstrap.New(abs, settings,
				bootstrap.WithCLI(true),
				bootstrap.WithLogger(log),
				bootstrap.WithOutput(cmd.OutOrStdout()))
			if err != nil {
				return err
			}
			defer func() { _ = o.Close() }()
			return o.Exec(cmd.Context(), bootstrap.Invocation{
				Args:        args[1:],
				ResolveOnly: resolveOnly,
			})
		},
	}
	root.Flags().BoolVar(&resolveOnly, "resolve-only", false, "resolve and instantiate without running")
	root.Flags().SetInterspersed(false)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// Package console is the command-line application collaborator used by the
// Cli mode handler.
//
// A Console owns one cobra root command.  Module instances contribute tasks
// by implementing TaskProvider, or by fetching the Console from the
// container (di.Application) and calling AddTask.  Handle runs argv through
// cobra and returns whatever error the task produced.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// ErrTaskFailed wraps every error returned by Handle.
var ErrTaskFailed = errors.New("task failed")

// TaskProvider is implemented by module instances that expose tasks.
type TaskProvider interface {
	Tasks() []*cobra.Command
}

// Console dispatches argv to registered tasks.
type Console struct {
	root *cobra.Command
}

// New returns a Console named name.  out receives task output; nil means
// os.Stdout.
func New(name string, out io.Writer) *Console {
	if out == nil {
		out = os.Stdout
	}
	root := &cobra.Command{
		Use:           name,
		Short:         name + " tasks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(out)
	return &Console{root: root}
}

// AddTask registers commands.
func (c *Console) AddTask(cmds ...*cobra.Command) { c.root.AddCommand(cmds...) }

// AddProvider registers every task from p.
func (c *Console) AddProvider(p TaskProvider) { c.AddTask(p.Tasks()...) }

// Root exposes the cobra root for flag wiring.
func (c *Console) Root() *cobra.Command { return c.root }

// Handle runs argv (without the program name).
func (c *Console) Handle(ctx context.Context, argv []string) error {
	if argv == nil {
		argv = []string{}
	}
	c.root.SetArgs(argv)
	if err := c.root.ExecuteContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrTaskFailed, err)
	}
	return nil
}

package console

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type greeter struct{}

func (greeter) Tasks() []*cobra.Command {
	return []*cobra.Command{
		{
			Use:  "greet [name]",
			Args: cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cmd.Printf("hello %s\n", args[0])
				return nil
			},
		},
		{
			Use:  "fail",
			RunE: func(*cobra.Command, []string) error { return errors.New("nope") },
		},
	}
}

func TestHandle_RunsTask(t *testing.T) {
	var out bytes.Buffer
	c := New("demo", &out)
	c.AddProvider(greeter{})

	require.NoError(t, c.Handle(context.Background(), []string{"greet", "adept"}))
	assert.Equal(t, "hello adept\n", out.String())
}

func TestHandle_TaskError(t *testing.T) {
	c := New("demo", &bytes.Buffer{})
	c.AddProvider(greeter{})

	err := c.Handle(context.Background(), []string{"fail"})
	require.ErrorIs(t, err, ErrTaskFailed)
	assert.Contains(t, err.Error(), "nope")
}

func TestHandle_UnknownTask(t *testing.T) {
	c := New("demo", &bytes.Buffer{})
	c.AddProvider(greeter{})

	err := c.Handle(context.Background(), []string{"missing"})
	assert.ErrorIs(t, err, ErrTaskFailed)
}

// Package cli is the kratzbaum command line: the long-running serve
// command plus one-shot operator commands over the same components.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"kratzbaum/internal/app"
)

// Version is set at build time using ldflags.
var Version = "dev"

type cli struct {
	cfgPath string
	output  string

	// open is swapped in tests.
	open func(ctx context.Context, path string) (*app.App, error)
}

func NewRootCommand() *cobra.Command {
	c := &cli{open: app.Open}
	root := &cobra.Command{
		Use:   "kratzbaum",
		Short: "Houseplant care reminders",
		Long: `kratzbaum keeps watering and fertilizing reminders in step with your
plants and their care history, and notifies subscribers when one is due.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch c.output {
			case "text", "json":
				return nil
			default:
				return fmt.Errorf("--output must be text or json, got %q", c.output)
			}
		},
	}
	root.PersistentFlags().StringVarP(&c.cfgPath, "config", "c", "./config.yaml", "path to config file (json or yaml)")
	root.PersistentFlags().StringVarP(&c.output, "output", "o", "text", "output format: text or json")

	root.AddCommand(
		c.serveCmd(),
		c.sweepCmd(),
		c.reconcileCmd(),
		c.plantCmd(),
		c.careCmd(),
		c.potCmd(),
		c.settingsCmd(),
		c.reminderCmd(),
		c.subscriptionCmd(),
		versionCmd(),
	)
	return root
}

// withApp opens the app, makes sure settings exist and runs fn.
func (c *cli) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := c.open(ctx, c.cfgPath)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.SeedSettings(ctx); err != nil {
		return err
	}
	return fn(ctx, a)
}

func (c *cli) out(cmd *cobra.Command) io.Writer { return cmd.OutOrStdout() }

func (c *cli) json() bool { return strings.EqualFold(c.output, "json") }

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"kratzbaum/internal/app"
	"kratzbaum/internal/model"
	"kratzbaum/internal/reminder"
)

func (c *cli) serveCmd() *cobra.Command {
	var shutdown time.Duration
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reminder sweep, config hot reload and ops server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := c.open(ctx, c.cfgPath)
			if err != nil {
				return err
			}
			if err := a.Start(ctx); err != nil {
				_ = a.Close()
				return fmt.Errorf("start: %w", err)
			}
			select {
			case <-ctx.Done():
			case <-a.Done():
			}
			fatal := a.Err()

			sctx, cancel := context.WithTimeout(context.Background(), shutdown)
			defer cancel()
			if err := a.Stop(sctx); err != nil && fatal == nil {
				return err
			}
			return fatal
		},
	}
	cmd.Flags().DurationVar(&shutdown, "shutdown-timeout", 10*time.Second, "grace period for in-flight work on exit")
	return cmd
}

func (c *cli) sweepCmd() *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run one reminder sweep now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				now := time.Now().UTC()
				if at != "" {
					t, err := time.Parse(time.RFC3339, at)
					if err != nil {
						return model.Invalid("at", "expected RFC3339 time: %v", err)
					}
					now = t.UTC()
				}
				rep, err := a.Sweeper().RunSweep(ctx, now)
				if err != nil {
					return err
				}
				return c.render(c.out(cmd), rep, func(tw *tabwriter.Writer) {
					fmt.Fprintf(tw, "due\t%d\n", rep.Due)
					fmt.Fprintf(tw, "subscriptions\t%d\n", rep.Subscriptions)
					fmt.Fprintf(tw, "notified\t%d\n", rep.Notified)
					fmt.Fprintf(tw, "cooldown\t%d\n", rep.Cooldown)
					fmt.Fprintf(tw, "dormant\t%d\n", rep.Dormant)
					fmt.Fprintf(tw, "delivered\t%d\n", rep.Delivered)
					fmt.Fprintf(tw, "failed\t%d\n", rep.Failed)
				})
			})
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "sweep as of this RFC3339 time instead of now")
	return cmd
}

func (c *cli) reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile [plant-id]",
		Short: "Recompute stored reminders for one plant or all plants",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if len(args) == 1 {
					changes, err := a.Reconciler().ReconcilePlant(ctx, args[0])
					if err != nil {
						return err
					}
					return c.render(c.out(cmd), changes, func(tw *tabwriter.Writer) {
						fmt.Fprintln(tw, "TYPE\tOUTCOME\tNEXT DUE")
						for _, ch := range changes {
							next := "-"
							if !ch.Reminder.NextDue.IsZero() {
								next = fmtTime(ch.Reminder.NextDue)
							}
							fmt.Fprintf(tw, "%s\t%s\t%s\n", ch.Reminder.Type, ch.Outcome, next)
						}
					})
				}
				sum, err := a.Reconciler().ReconcileAll(ctx)
				if err != nil {
					return err
				}
				return c.render(c.out(cmd), sum, func(tw *tabwriter.Writer) {
					fmt.Fprintf(tw, "plants\t%d\n", sum.Plants)
					for _, o := range []reminder.Outcome{
						reminder.OutcomeCreated, reminder.OutcomeUpdated, reminder.OutcomeUnchanged,
						reminder.OutcomeDeleted, reminder.OutcomeNone,
					} {
						fmt.Fprintf(tw, "%s\t%d\n", o, sum.Outcomes[o])
					}
				})
			})
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "kratzbaum %s (%s, %s/%s)\n", Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}

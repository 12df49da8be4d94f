package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"kratzbaum/internal/app"
	"kratzbaum/internal/model"
	"kratzbaum/internal/reminder"
)

func (c *cli) reminderCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "reminder", Aliases: []string{"reminders"}, Short: "Inspect and adjust reminders"}
	cmd.AddCommand(
		c.reminderListCmd(),
		c.reminderOverdueCmd(),
		c.reminderShowCmd(),
		c.reminderSnoozeCmd(),
		c.reminderCompleteCmd(),
		c.reminderUpdateCmd(),
		c.reminderDeleteCmd(),
	)
	return cmd
}

func (c *cli) reminderListCmd() *cobra.Command {
	var f reminder.ListFilter
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reminders by due time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				items, err := a.Reminders().List(ctx, f)
				if err != nil {
					return err
				}
				return c.printReminders(cmd, items)
			})
		},
	}
	cmd.Flags().BoolVar(&f.UpcomingOnly, "upcoming", false, "only enabled reminders due soon")
	cmd.Flags().IntVar(&f.Days, "days", 0, "upcoming window in days (default from config)")
	cmd.Flags().StringVar(&f.PlantID, "plant", "", "only this plant")
	return cmd
}

func (c *cli) reminderOverdueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "overdue",
		Short: "List enabled reminders past due",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				items, err := a.Reminders().Overdue(ctx)
				if err != nil {
					return err
				}
				return c.printReminders(cmd, items)
			})
		},
	}
}

func (c *cli) reminderShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <reminder-id>",
		Short: "Show a reminder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				it, err := a.Reminders().Get(ctx, args[0])
				if err != nil {
					return err
				}
				return c.printReminders(cmd, []reminder.Item{it})
			})
		},
	}
}

func (c *cli) reminderSnoozeCmd() *cobra.Command {
	var hours int
	cmd := &cobra.Command{
		Use:   "snooze <reminder-id>",
		Short: "Push a reminder back; the next reconcile discards the snooze",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				it, err := a.Reminders().Snooze(ctx, args[0], hours)
				if err != nil {
					return err
				}
				return c.printReminders(cmd, []reminder.Item{it})
			})
		},
	}
	cmd.Flags().IntVar(&hours, "hours", 0, "snooze length (default from config)")
	return cmd
}

func (c *cli) reminderCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <reminder-id>",
		Short: "Log the matching care event now and reschedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				it, err := a.Reminders().Complete(ctx, args[0])
				if err != nil {
					return err
				}
				return c.printReminders(cmd, []reminder.Item{it})
			})
		},
	}
}

func (c *cli) reminderUpdateCmd() *cobra.Command {
	var enabled bool
	var freq, at, dormancy string
	var patch reminder.Patch
	cmd := &cobra.Command{
		Use:   "update <reminder-id>",
		Short: "Enable, disable or customize a reminder's schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fl := cmd.Flags()
			if fl.Changed("enabled") {
				patch.Enabled = &enabled
			}
			if fl.Changed("frequency") {
				f, err := model.ParseFrequency(freq)
				if err != nil {
					return err
				}
				patch.Frequency = &f
			}
			if fl.Changed("time") {
				t, err := model.ParseTimeOfDay(at)
				if err != nil {
					return err
				}
				patch.PreferredTime = &t
			}
			if fl.Changed("dormancy") {
				d, err := model.ParseDormancy(dormancy)
				if err != nil {
					return err
				}
				patch.Dormancy = &d
			}
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				it, err := a.Reminders().Update(ctx, args[0], patch)
				if err != nil {
					return err
				}
				return c.printReminders(cmd, []reminder.Item{it})
			})
		},
	}
	f := cmd.Flags()
	f.BoolVar(&enabled, "enabled", true, "enable or disable the reminder")
	f.StringVar(&freq, "frequency", "", "DAILY, WEEKLY, INTERVAL:n or SPECIFIC_DAYS:mon,thu")
	f.StringVar(&at, "time", "", "preferred time, HH:MM")
	f.StringVar(&dormancy, "dormancy", "", "months without notifications, e.g. 11-2")
	f.BoolVar(&patch.ClearDormancy, "clear-dormancy", false, "remove the dormancy window")
	f.BoolVar(&patch.ResetSchedule, "reset", false, "drop custom schedule and follow plant defaults")
	return cmd
}

func (c *cli) reminderDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <reminder-id>",
		Short: "Delete a reminder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Reminders().Delete(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(c.out(cmd), "deleted reminder %s\n", args[0])
				return nil
			})
		},
	}
}

func (c *cli) printReminders(cmd *cobra.Command, items []reminder.Item) error {
	return c.render(c.out(cmd), items, func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "ID\tPLANT\tTYPE\tFREQUENCY\tAT\tNEXT DUE\tNOTIFIED\tSTATE")
		for _, it := range items {
			state := "on"
			if !it.Enabled {
				state = "off"
			}
			if it.Custom {
				state += ",custom"
			}
			if it.Dormancy != nil {
				state += ",dormant " + it.Dormancy.String()
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				it.ID, orDash(it.PlantName), it.Type, it.Frequency, it.PreferredTime,
				fmtTime(it.NextDue), fmtTimePtr(it.LastNotified), state)
		}
	})
}

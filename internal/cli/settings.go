package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"kratzbaum/internal/app"
	"kratzbaum/internal/garden"
	"kratzbaum/internal/model"
)

func (c *cli) settingsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "settings", Short: "Show or change global reminder defaults"}
	cmd.AddCommand(c.settingsShowCmd(), c.settingsSetCmd())
	return cmd
}

func (c *cli) settingsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				s, err := a.Garden().GetSettings(ctx)
				if err != nil {
					return err
				}
				return c.printSettings(cmd, s)
			})
		},
	}
}

func (c *cli) settingsSetCmd() *cobra.Command {
	var water, fert int
	var at string
	var patch garden.SettingsPatch
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change settings; every plant's reminders are recomputed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			if f.Changed("water") {
				patch.DefaultWateringInterval = &water
			}
			if f.Changed("fertilize") {
				patch.DefaultFertilizingInterval = &fert
			}
			if f.Changed("time") {
				t, err := model.ParseTimeOfDay(at)
				if err != nil {
					return err
				}
				patch.PreferredReminderTime = &t
			}
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				s, sum, err := a.Garden().UpdateSettings(ctx, patch)
				if err != nil {
					return err
				}
				if err := c.printSettings(cmd, s); err != nil {
					return err
				}
				if !c.json() {
					fmt.Fprintf(c.out(cmd), "reconciled %d plants\n", sum.Plants)
				}
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.IntVar(&water, "water", 0, "default watering interval in days")
	f.BoolVar(&patch.ClearDefaultWateringInterval, "clear-water", false, "unset the default watering interval")
	f.IntVar(&fert, "fertilize", 0, "default fertilizing interval in days")
	f.BoolVar(&patch.ClearDefaultFertilizingInterval, "clear-fertilize", false, "unset the default fertilizing interval")
	f.StringVar(&at, "time", "", "preferred reminder time, HH:MM")
	return cmd
}

func (c *cli) printSettings(cmd *cobra.Command, s model.Settings) error {
	return c.render(c.out(cmd), s, func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "default watering\t%s\n", fmtDays(s.DefaultWateringInterval))
		fmt.Fprintf(tw, "default fertilizing\t%s\n", fmtDays(s.DefaultFertilizingInterval))
		fmt.Fprintf(tw, "reminder time\t%s\n", s.PreferredReminderTime)
	})
}

package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"kratzbaum/internal/app"
	"kratzbaum/internal/garden"
	"kratzbaum/internal/model"
	"kratzbaum/internal/storage"
)

func (c *cli) careCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "care", Short: "Log and inspect care events"}
	cmd.AddCommand(c.careLogCmd(), c.careListCmd(), c.careDeleteCmd())
	return cmd
}

// parseDate accepts a date (local midnight) or an RFC3339 time.
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return time.Time{}, model.Invalid("date", "expected YYYY-MM-DD or RFC3339, got %q", raw)
	}
	return t, nil
}

func (c *cli) careLogCmd() *cobra.Command {
	var typ, date, notes string
	cmd := &cobra.Command{
		Use:   "log <plant-id>",
		Short: "Record watering, fertilizing or repotting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := garden.CareInput{PlantID: args[0], Type: model.CareType(strings.ToUpper(typ)), Notes: notes}
			if date != "" {
				t, err := parseDate(date)
				if err != nil {
					return err
				}
				in.EventDate = &t
			}
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				e, err := a.Garden().LogCare(ctx, in)
				if err != nil {
					return err
				}
				return c.render(c.out(cmd), e, func(tw *tabwriter.Writer) {
					fmt.Fprintf(tw, "logged\t%s %s\n", e.Type, e.ID)
					fmt.Fprintf(tw, "date\t%s\n", fmtTime(e.EventDate))
				})
			})
		},
	}
	f := cmd.Flags()
	f.StringVarP(&typ, "type", "t", string(model.CareWatered), "WATERED, FERTILIZED or REPOTTED")
	f.StringVar(&date, "date", "", "when it happened (default now)")
	f.StringVar(&notes, "notes", "", "free-form notes")
	return cmd
}

func (c *cli) careListCmd() *cobra.Command {
	var typ string
	var limit uint64
	cmd := &cobra.Command{
		Use:   "list <plant-id>",
		Short: "List a plant's care events, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := storage.CareFilter{PlantID: args[0], Type: model.CareType(strings.ToUpper(typ)), Limit: limit}
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				events, err := a.Garden().ListCareEvents(ctx, filter)
				if err != nil {
					return err
				}
				return c.render(c.out(cmd), events, func(tw *tabwriter.Writer) {
					fmt.Fprintln(tw, "ID\tTYPE\tDATE\tNOTES")
					for _, e := range events {
						fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.ID, e.Type, fmtTime(e.EventDate), orDash(e.Notes))
					}
				})
			})
		},
	}
	cmd.Flags().StringVarP(&typ, "type", "t", "", "only this event type")
	cmd.Flags().Uint64Var(&limit, "limit", 0, "at most this many events (0 = all)")
	return cmd
}

func (c *cli) careDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <plant-id> <event-id>",
		Short: "Delete a care event; the reminder falls back to the previous one",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Garden().DeleteCareEvent(ctx, args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(c.out(cmd), "deleted care event %s\n", args[1])
				return nil
			})
		},
	}
}

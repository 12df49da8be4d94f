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

func (c *cli) potCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "pot", Short: "Manage pots"}
	cmd.AddCommand(c.potAddCmd(), c.potListCmd(), c.potShowCmd(), c.potUpdateCmd(), c.potDeleteCmd())
	return cmd
}

func (c *cli) potAddCmd() *cobra.Command {
	var in garden.PotInput
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a pot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				p, err := a.Garden().CreatePot(ctx, in)
				if err != nil {
					return err
				}
				return c.printPots(cmd, p)
			})
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "pot name (required)")
	cmd.Flags().Float64Var(&in.DiameterCM, "diameter", 0, "diameter in cm")
	cmd.Flags().Float64Var(&in.HeightCM, "height", 0, "height in cm")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func (c *cli) potListCmd() *cobra.Command {
	var available bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				pots, err := a.Garden().ListPots(ctx, available)
				if err != nil {
					return err
				}
				return c.printPots(cmd, pots...)
			})
		},
	}
	cmd.Flags().BoolVar(&available, "available", false, "only pots not assigned to a plant")
	return cmd
}

func (c *cli) potShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <pot-id>",
		Short: "Show a pot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				p, err := a.Garden().GetPot(ctx, args[0])
				if err != nil {
					return err
				}
				return c.printPots(cmd, p)
			})
		},
	}
}

func (c *cli) potUpdateCmd() *cobra.Command {
	var name string
	var diameter, height float64
	cmd := &cobra.Command{
		Use:   "update <pot-id>",
		Short: "Update a pot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch garden.PotPatch
			f := cmd.Flags()
			if f.Changed("name") {
				patch.Name = &name
			}
			if f.Changed("diameter") {
				patch.DiameterCM = &diameter
			}
			if f.Changed("height") {
				patch.HeightCM = &height
			}
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				p, err := a.Garden().UpdatePot(ctx, args[0], patch)
				if err != nil {
					return err
				}
				return c.printPots(cmd, p)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().Float64Var(&diameter, "diameter", 0, "diameter in cm")
	cmd.Flags().Float64Var(&height, "height", 0, "height in cm")
	return cmd
}

func (c *cli) potDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <pot-id>",
		Short: "Delete a pot, unassigning it from its plant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Garden().DeletePot(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(c.out(cmd), "deleted pot %s\n", args[0])
				return nil
			})
		},
	}
}

func (c *cli) printPots(cmd *cobra.Command, pots ...model.Pot) error {
	var v any = pots
	if len(pots) == 1 {
		v = pots[0]
	}
	return c.render(c.out(cmd), v, func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "ID\tNAME\tDIAMETER\tHEIGHT")
		for _, p := range pots {
			fmt.Fprintf(tw, "%s\t%s\t%.1fcm\t%.1fcm\n", p.ID, p.Name, p.DiameterCM, p.HeightCM)
		}
	})
}

package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"kratzbaum/internal/app"
	"kratzbaum/internal/garden"
	"kratzbaum/internal/model"
	"kratzbaum/internal/reminder"
	"kratzbaum/internal/storage"
)

func (c *cli) plantCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "plant", Short: "Manage plants"}
	cmd.AddCommand(c.plantAddCmd(), c.plantListCmd(), c.plantShowCmd(), c.plantUpdateCmd(), c.plantDeleteCmd())
	return cmd
}

func (c *cli) plantAddCmd() *cobra.Command {
	var in garden.PlantInput
	var water, fert int
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a plant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("water") {
				in.WateringInterval = &water
			}
			if cmd.Flags().Changed("fertilize") {
				in.FertilizingInterval = &fert
			}
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				p, err := a.Garden().CreatePlant(ctx, in)
				if err != nil {
					return err
				}
				return c.printPlant(cmd, garden.PlantDetail{Plant: p})
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Name, "name", "", "plant name (required)")
	f.StringVar(&in.Species, "species", "", "species")
	f.StringVar(&in.PotID, "pot", "", "pot id to assign")
	f.IntVar(&water, "water", 0, "watering interval in days (overrides the default)")
	f.IntVar(&fert, "fertilize", 0, "fertilizing interval in days (overrides the default)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func (c *cli) plantListCmd() *cobra.Command {
	var filter storage.PlantFilter
	var sort string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List plants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter.Sort = storage.PlantSort(sort)
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				plants, err := a.Garden().ListPlants(ctx, filter)
				if err != nil {
					return err
				}
				return c.render(c.out(cmd), plants, func(tw *tabwriter.Writer) {
					fmt.Fprintln(tw, "ID\tNAME\tSPECIES\tWATER\tFERTILIZE")
					for _, p := range plants {
						fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, orDash(p.Species), fmtDays(p.WateringInterval), fmtDays(p.FertilizingInterval))
					}
				})
			})
		},
	}
	f := cmd.Flags()
	f.StringVarP(&filter.Search, "search", "s", "", "match name or species")
	f.StringVar(&sort, "sort", "name", "sort by name, species or created_at")
	f.BoolVar(&filter.Desc, "desc", false, "descending order")
	return cmd
}

func (c *cli) plantShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <plant-id>",
		Short: "Show a plant with its last care and reminders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				d, err := a.Garden().GetPlant(ctx, args[0])
				if err != nil {
					return err
				}
				items, err := a.Reminders().List(ctx, reminder.ListFilter{PlantID: d.ID})
				if err != nil {
					return err
				}
				if c.json() {
					return c.render(c.out(cmd), struct {
						garden.PlantDetail
						Reminders []reminder.Item
					}{d, items}, nil)
				}
				if err := c.printPlant(cmd, d); err != nil {
					return err
				}
				fmt.Fprintln(c.out(cmd))
				return c.printReminders(cmd, items)
			})
		},
	}
}

func (c *cli) plantUpdateCmd() *cobra.Command {
	var name, species, pot string
	var water, fert int
	var patch garden.PlantPatch
	cmd := &cobra.Command{
		Use:   "update <plant-id>",
		Short: "Update a plant; reminders follow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			if f.Changed("name") {
				patch.Name = &name
			}
			if f.Changed("species") {
				patch.Species = &species
			}
			if f.Changed("pot") {
				patch.PotID = &pot
			}
			if f.Changed("water") {
				patch.WateringInterval = &water
			}
			if f.Changed("fertilize") {
				patch.FertilizingInterval = &fert
			}
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				p, err := a.Garden().UpdatePlant(ctx, args[0], patch)
				if err != nil {
					return err
				}
				return c.printPlant(cmd, garden.PlantDetail{Plant: p})
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&name, "name", "", "new name")
	f.StringVar(&species, "species", "", "new species")
	f.StringVar(&pot, "pot", "", `pot id to assign ("" unassigns)`)
	f.IntVar(&water, "water", 0, "watering interval in days")
	f.BoolVar(&patch.ClearWateringInterval, "clear-water", false, "use the default watering interval")
	f.IntVar(&fert, "fertilize", 0, "fertilizing interval in days")
	f.BoolVar(&patch.ClearFertilizingInterval, "clear-fertilize", false, "use the default fertilizing interval")
	return cmd
}

func (c *cli) plantDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <plant-id>",
		Short: "Delete a plant with its reminders and care history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Garden().DeletePlant(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(c.out(cmd), "deleted plant %s\n", args[0])
				return nil
			})
		},
	}
}

func (c *cli) printPlant(cmd *cobra.Command, d garden.PlantDetail) error {
	return c.render(c.out(cmd), d, func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "id\t%s\n", d.ID)
		fmt.Fprintf(tw, "name\t%s\n", d.Name)
		fmt.Fprintf(tw, "species\t%s\n", orDash(d.Species))
		pot := orDash(d.PotID)
		if d.Pot != nil {
			pot = fmt.Sprintf("%s (%s)", d.Pot.Name, d.Pot.ID)
		}
		fmt.Fprintf(tw, "pot\t%s\n", pot)
		fmt.Fprintf(tw, "watering\t%s\n", fmtDays(d.WateringInterval))
		fmt.Fprintf(tw, "fertilizing\t%s\n", fmtDays(d.FertilizingInterval))
		fmt.Fprintf(tw, "last %s\t%s\n", model.CareWatered, fmtTimePtr(d.LastWatered))
		fmt.Fprintf(tw, "last %s\t%s\n", model.CareFertilized, fmtTimePtr(d.LastFertilized))
		fmt.Fprintf(tw, "last %s\t%s\n", model.CareRepotted, fmtTimePtr(d.LastRepotted))
	})
}

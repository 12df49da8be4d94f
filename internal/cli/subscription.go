package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"kratzbaum/internal/app"
	"kratzbaum/internal/garden"
	"kratzbaum/internal/model"
	"kratzbaum/internal/notifier"
)

func (c *cli) subscriptionCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "subscription", Aliases: []string{"sub"}, Short: "Manage notification targets"}
	cmd.AddCommand(c.subscriptionAddCmd(), c.subscriptionListCmd(), c.subscriptionRemoveCmd(), c.subscriptionTestCmd())
	return cmd
}

func (c *cli) subscriptionAddCmd() *cobra.Command {
	var in garden.SubscriptionInput
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Subscribe a telegram chat or a webhook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				s, err := a.Garden().Subscribe(ctx, in)
				if err != nil {
					return err
				}
				return c.printSubscriptions(cmd, []model.Subscription{s})
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Channel, "channel", "", "telegram or webhook (required)")
	f.StringVar(&in.Endpoint, "endpoint", "", "chat id[:thread] or webhook url (required)")
	f.StringVar(&in.Auth, "secret", "", "webhook signing secret")
	_ = cmd.MarkFlagRequired("channel")
	_ = cmd.MarkFlagRequired("endpoint")
	return cmd
}

func (c *cli) subscriptionListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List subscriptions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				subs, err := a.Garden().ListSubscriptions(ctx)
				if err != nil {
					return err
				}
				return c.printSubscriptions(cmd, subs)
			})
		},
	}
}

func (c *cli) subscriptionRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <endpoint>",
		Short: "Unsubscribe an endpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Garden().Unsubscribe(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(c.out(cmd), "unsubscribed %s\n", args[0])
				return nil
			})
		},
	}
}

func (c *cli) subscriptionTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test <endpoint>",
		Short: "Send a test message to one subscription, retrying per notifier.retry_max",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				subs, err := a.Garden().ListSubscriptions(ctx)
				if err != nil {
					return err
				}
				i := slices.IndexFunc(subs, func(s model.Subscription) bool { return s.Endpoint == strings.TrimSpace(args[0]) })
				if i < 0 {
					return model.NotFound("subscription", args[0])
				}
				msg := notifier.Message{Title: "kratzbaum test", Body: "Notifications reach this target."}
				if !a.Notifier().Deliver(ctx, subs[i], msg) {
					return fmt.Errorf("%w: %s", model.ErrDeliveryFailed, subs[i].Endpoint)
				}
				fmt.Fprintf(c.out(cmd), "delivered to %s\n", subs[i].Endpoint)
				return nil
			})
		},
	}
}

func (c *cli) printSubscriptions(cmd *cobra.Command, subs []model.Subscription) error {
	type row struct {
		ID        string `json:"id"`
		Channel   string `json:"channel"`
		Endpoint  string `json:"endpoint"`
		Signed    bool   `json:"signed"`
		CreatedAt string `json:"created_at"`
	}
	rows := make([]row, 0, len(subs))
	for _, s := range subs {
		rows = append(rows, row{ID: s.ID, Channel: s.Channel, Endpoint: s.Endpoint, Signed: s.Auth != "", CreatedAt: fmtTime(s.CreatedAt)})
	}
	return c.render(c.out(cmd), rows, func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "ID\tCHANNEL\tENDPOINT\tSIGNED\tCREATED")
		for _, r := range rows {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n", r.ID, r.Channel, r.Endpoint, r.Signed, r.CreatedAt)
		}
	})
}

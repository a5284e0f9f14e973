package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/joao-fontenele/presswala/internal/client"
	"github.com/joao-fontenele/presswala/internal/domain"
	"github.com/joao-fontenele/presswala/internal/orderflow"
	"github.com/joao-fontenele/presswala/internal/pricing"
	"github.com/joao-fontenele/presswala/internal/refresh"
)

func ordersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Place, list, watch and advance orders",
	}
	cmd.AddCommand(placeCmd(a), quoteCmd(a), listCmd(a), showCmd(a), watchCmd(a))
	cmd.AddCommand(
		transitionCmd(a, "accept", "Accept a pending order as partner", func(domain.OrderStatus) (domain.OrderStatus, error) {
			return domain.OrderStatusAccepted, nil
		}),
		transitionCmd(a, "advance", "Move an order one step forward", func(s domain.OrderStatus) (domain.OrderStatus, error) {
			next, ok := orderflow.NextStatus(s)
			if !ok {
				return "", fmt.Errorf("%w: no next step from %s", domain.ErrInvalidTransition, s.Label())
			}
			return next, nil
		}),
		transitionCmd(a, "cancel", "Cancel an order as admin", func(domain.OrderStatus) (domain.OrderStatus, error) {
			return domain.OrderStatusCancelled, nil
		}),
	)
	return cmd
}

type quantities struct {
	shirts, pants, dresses int64
	items                  []string
}

func (q *quantities) register(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&q.shirts, "shirts", 0, "shirts")
	cmd.Flags().Int64Var(&q.pants, "pants", 0, "pants")
	cmd.Flags().Int64Var(&q.dresses, "dresses", 0, "dresses")
	cmd.Flags().StringSliceVar(&q.items, "item", nil, "catalog item as id=quantity, repeatable")
}

func (q *quantities) parse() ([]domain.ItemQuantity, error) {
	for _, v := range []int64{q.shirts, q.pants, q.dresses} {
		if err := pricing.ValidateQuantity(v); err != nil {
			return nil, err
		}
	}
	return parseItems(q.items)
}

// parseItems reads id=quantity pairs.
func parseItems(raw []string) ([]domain.ItemQuantity, error) {
	var out []domain.ItemQuantity
	for _, entry := range raw {
		id, qty, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("%w: item %q must be id=quantity", domain.ErrInvalidInput, entry)
		}
		itemID, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: item id %q", domain.ErrInvalidInput, id)
		}
		n, err := strconv.ParseInt(strings.TrimSpace(qty), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: item quantity %q", domain.ErrInvalidInput, qty)
		}
		if err := pricing.ValidateQuantity(n); err != nil {
			return nil, err
		}
		out = append(out, domain.ItemQuantity{ItemID: itemID, Quantity: n})
	}
	return out, nil
}

func placeCmd(a *app) *cobra.Command {
	var q quantities
	var address, payment string

	cmd := &cobra.Command{
		Use:   "place",
		Short: "Place an order",
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := q.parse()
			if err != nil {
				return err
			}
			o, err := a.client().PlaceOrder(cmd.Context(), client.PlaceOrder{
				Shirts:        q.shirts,
				Pants:         q.pants,
				Dresses:       q.dresses,
				ClothingItems: items,
				Address:       address,
				PaymentMethod: payment,
			})
			if err != nil {
				return err
			}
			a.printf("order #%d placed, total ₹%d\n", o.ID, o.TotalAmount)
			return nil
		},
	}
	q.register(cmd)
	cmd.Flags().StringVar(&address, "address", "", "pickup address")
	cmd.Flags().StringVar(&payment, "payment", "cash", "payment method")
	return cmd
}

// quoteCmd estimates a total from current prices without placing anything.
func quoteCmd(a *app) *cobra.Command {
	var q quantities

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Estimate the total for an order",
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := q.parse()
			if err != nil {
				return err
			}
			c := a.client()
			prices, err := c.Pricing(cmd.Context())
			if err != nil {
				return err
			}
			lines := pricing.LegacyLines(q.shirts, q.pants, q.dresses, *prices)
			if len(items) > 0 {
				active, err := c.ActiveItems(cmd.Context())
				if err != nil {
					return err
				}
				byID := make(map[int64]domain.ClothingItem, len(active))
				for _, it := range active {
					byID[it.ID] = it
				}
				for _, iq := range items {
					it, ok := byID[iq.ItemID]
					if !ok {
						return fmt.Errorf("%w: clothing item %d is not available", domain.ErrInvalidInput, iq.ItemID)
					}
					lines = append(lines, pricing.Line{Quantity: iq.Quantity, UnitPrice: it.PricePerItem})
				}
			}
			a.printf("estimated total ₹%d\n", pricing.Total(lines))
			return nil
		},
	}
	q.register(cmd)
	return cmd
}

func listCmd(a *app) *cobra.Command {
	var mine, pending bool
	var partner string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := a.client()
			var (
				orders []domain.Order
				err    error
			)
			switch {
			case mine:
				orders, err = c.MyOrders(cmd.Context())
			case pending:
				orders, err = c.PendingOrders(cmd.Context())
			case partner != "":
				orders, err = c.PartnerOrders(cmd.Context(), partner)
			default:
				orders, err = c.AllOrders(cmd.Context())
			}
			if err != nil {
				return err
			}
			a.printOrders(orders)
			return nil
		},
	}
	cmd.Flags().BoolVar(&mine, "mine", false, "only orders placed by the caller")
	cmd.Flags().BoolVar(&pending, "pending", false, "only unassigned pending orders")
	cmd.Flags().StringVar(&partner, "partner", "", "only orders taken by this partner")
	cmd.MarkFlagsMutuallyExclusive("mine", "pending", "partner")
	return cmd
}

func (a *app) printOrders(orders []domain.Order) {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tSTATUS\tCUSTOMER\tPARTNER\tTOTAL")
	for _, o := range orders {
		partner := o.PartnerID
		if partner == "" {
			partner = "-"
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t₹%d\n", o.ID, o.Status.Label(), o.CustomerID, partner, o.TotalAmount)
	}
	_ = tw.Flush()
}

func orderID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: order id %q", domain.ErrInvalidInput, arg)
	}
	return id, nil
}

func showCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := orderID(args[0])
			if err != nil {
				return err
			}
			o, err := a.client().Order(cmd.Context(), id)
			if err != nil {
				return err
			}
			a.printOrders([]domain.Order{*o})
			return nil
		},
	}
}

// watchCmd polls an order and prints every status change until it reaches a
// terminal status or the command is interrupted.
func watchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <id>",
		Short: "Follow an order's status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := orderID(args[0])
			if err != nil {
				return err
			}
			interval, _ := cmd.Flags().GetDuration("interval")
			if interval <= 0 {
				return fmt.Errorf("%w: interval must be positive", domain.ErrInvalidInput)
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			c := a.client()
			var last domain.OrderStatus
			refresh.Every(ctx, interval, func(ctx context.Context) error {
				o, err := c.Order(ctx, id)
				if err != nil {
					return err
				}
				if o.Status != last {
					a.printf("order #%d: %s\n", o.ID, o.Status.Label())
					last = o.Status
				}
				if o.Status.Terminal() {
					cancel()
				}
				return nil
			}, func(err error) {
				a.printf("refresh failed: %v\n", err)
			})
			return nil
		},
	}
	cmd.Flags().Duration("interval", refresh.OrderDetail, "poll interval")
	return cmd
}

func transitionCmd(a *app, use, short string, next func(domain.OrderStatus) (domain.OrderStatus, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := orderID(args[0])
			if err != nil {
				return err
			}
			c := a.client()
			o, err := c.Order(cmd.Context(), id)
			if err != nil {
				return err
			}
			to, err := next(o.Status)
			if err != nil {
				return err
			}
			principal, err := c.WhoAmI(cmd.Context())
			if err != nil {
				return err
			}
			isAdmin, _ := c.IsCallerAdmin(cmd.Context())
			// The server re-checks; this only avoids a doomed request.
			if err := orderflow.Check(o, to, orderflow.ActorFor(o, principal, isAdmin)); err != nil {
				return err
			}
			updated, err := c.UpdateStatus(cmd.Context(), id, to)
			if err != nil {
				return err
			}
			a.printf("order #%d: %s -> %s\n", updated.ID, o.Status.Label(), updated.Status.Label())
			return nil
		},
	}
}

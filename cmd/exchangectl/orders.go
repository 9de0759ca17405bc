package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/openbroker/exchange-client/internal/api"
	"github.com/openbroker/exchange-client/internal/model"
)

func accountFlag() cli.Flag {
	return &cli.StringFlag{Name: "accountKey", Usage: "account to act on"}
}

func orderIDFlag() cli.Flag {
	return &cli.StringFlag{Name: "clientOrderId", Usage: "client order id"}
}

func orderFlags() []cli.Flag {
	return []cli.Flag{
		accountFlag(),
		&cli.FloatFlag{Name: "price", Usage: "limit price"},
		&cli.IntFlag{Name: "quantity", Usage: "order quantity"},
		&cli.IntFlag{Name: "instrumentId", Usage: "numeric instrument id"},
		&cli.StringFlag{Name: "instrumentKey", Usage: "instrument key, used when --instrumentId is absent"},
		&cli.IntFlag{Name: "ratio", Usage: "leg ratio", Value: 1},
		&cli.StringFlag{Name: "extOrderId", Usage: "external order id"},
	}
}

func (a *app) ordersCommand() *cli.Command {
	return &cli.Command{
		Name:  "orders",
		Usage: "List, inspect, cancel, submit and preview orders",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List the orders of an account",
				Flags: []cli.Flag{accountFlag()},
				Action: a.withClient(func(ctx context.Context, cmd *cli.Command, c *api.Client) error {
					account, err := requireString(cmd, "accountKey")
					if err != nil {
						return err
					}
					return a.call(c.URL(api.OrdersPath(account)), nil, func() ([]byte, error) {
						return c.ListOrders(ctx, account)
					})
				}),
			},
			{
				Name:  "get",
				Usage: "Show one order",
				Flags: []cli.Flag{accountFlag(), orderIDFlag()},
				Action: a.withClient(func(ctx context.Context, cmd *cli.Command, c *api.Client) error {
					account, id, err := orderRef(cmd)
					if err != nil {
						return err
					}
					return a.call(c.URL(api.OrderPath(account, id)), nil, func() ([]byte, error) {
						return c.GetOrder(ctx, account, id)
					})
				}),
			},
			{
				Name:  "cancel",
				Usage: "Cancel an order",
				Flags: []cli.Flag{accountFlag(), orderIDFlag()},
				Action: a.withClient(func(ctx context.Context, cmd *cli.Command, c *api.Client) error {
					account, id, err := orderRef(cmd)
					if err != nil {
						return err
					}
					return a.call(c.URL(api.OrderPath(account, id)), nil, func() ([]byte, error) {
						return c.CancelOrder(ctx, account, id)
					})
				}),
			},
			{
				Name:  "submit",
				Usage: "Submit a single-leg order",
				Flags: orderFlags(),
				Action: a.withClient(func(ctx context.Context, cmd *cli.Command, c *api.Client) error {
					account, order, err := orderRequest(cmd)
					if err != nil {
						return err
					}
					return a.call(c.URL(api.OrdersPath(account)), order, func() ([]byte, error) {
						return c.SubmitOrder(ctx, account, order)
					})
				}),
			},
			{
				Name:  "preview",
				Usage: "Run pre-trade checks on a single-leg order",
				Flags: orderFlags(),
				Action: a.withClient(func(ctx context.Context, cmd *cli.Command, c *api.Client) error {
					account, order, err := orderRequest(cmd)
					if err != nil {
						return err
					}
					return a.call(c.URL(api.PreviewOrderPath(account)), order, func() ([]byte, error) {
						return c.PreviewOrder(ctx, account, order)
					})
				}),
			},
		},
	}
}

// withClient runs setup and hands the action an authenticated client.
func (a *app) withClient(fn func(context.Context, *cli.Command, *api.Client) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		if err := a.setup(cmd); err != nil {
			return err
		}
		c, err := a.restClient(ctx)
		if err != nil {
			return err
		}
		return fn(ctx, cmd, c)
	}
}

func orderRef(cmd *cli.Command) (account, clientOrderID string, err error) {
	if account, err = requireString(cmd, "accountKey"); err != nil {
		return "", "", err
	}
	if clientOrderID, err = requireString(cmd, "clientOrderId"); err != nil {
		return "", "", err
	}
	return account, clientOrderID, nil
}

func orderRequest(cmd *cli.Command) (string, model.OrderRequest, error) {
	account, err := requireString(cmd, "accountKey")
	if err != nil {
		return "", model.OrderRequest{}, err
	}
	price, err := requireFloat(cmd, "price")
	if err != nil {
		return "", model.OrderRequest{}, err
	}
	quantity, err := requireInt(cmd, "quantity")
	if err != nil {
		return "", model.OrderRequest{}, err
	}
	ratio := int(cmd.Int("ratio"))

	var instrumentID *int64
	if cmd.IsSet("instrumentId") {
		id := int64(cmd.Int("instrumentId"))
		instrumentID = &id
	}
	key := cmd.String("instrumentKey")
	if instrumentID == nil && key == "" {
		return "", model.OrderRequest{}, invalidArgs("one of --instrumentId or --instrumentKey is required")
	}

	order := model.SingleLegOrder(price, quantity, ratio, instrumentID, key)
	order.ExtOrderID = cmd.String("extOrderId")
	return account, order, nil
}

package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/openbroker/exchange-client/internal/api"
)

func (a *app) accountsCommand() *cli.Command {
	return &cli.Command{
		Name:  "accounts",
		Usage: "Show account positions and balances",
		Commands: []*cli.Command{
			{
				Name:  "positions",
				Usage: "List positions",
				Flags: []cli.Flag{accountFlag()},
				Action: a.withClient(func(ctx context.Context, cmd *cli.Command, c *api.Client) error {
					account, err := requireString(cmd, "accountKey")
					if err != nil {
						return err
					}
					return a.call(c.URL(api.PositionsPath(account)), nil, func() ([]byte, error) {
						return c.ListPositions(ctx, account)
					})
				}),
			},
			{
				Name:  "balances",
				Usage: "List balances",
				Flags: []cli.Flag{accountFlag()},
				Action: a.withClient(func(ctx context.Context, cmd *cli.Command, c *api.Client) error {
					account, err := requireString(cmd, "accountKey")
					if err != nil {
						return err
					}
					return a.call(c.URL(api.BalancesPath(account)), nil, func() ([]byte, error) {
						return c.ListBalances(ctx, account)
					})
				}),
			},
		},
	}
}

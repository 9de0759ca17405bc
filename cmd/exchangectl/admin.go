package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/openbroker/exchange-client/internal/api"
	"github.com/openbroker/exchange-client/internal/model"
)

func codeFlag() cli.Flag {
	return &cli.StringFlag{Name: "code", Usage: "exchange or offer code"}
}

func descriptionFlag() cli.Flag {
	return &cli.StringFlag{Name: "description", Usage: "free text description"}
}

func (a *app) adminCommand() *cli.Command {
	return &cli.Command{
		Name:  "admin",
		Usage: "Register exchanges, load instruments and create offers",
		Commands: []*cli.Command{
			{
				Name:  "create-exchange",
				Usage: "Register an upstream exchange",
				Flags: []cli.Flag{
					codeFlag(),
					descriptionFlag(),
					&cli.StringFlag{Name: "exchangeUrl", Usage: "upstream REST url"},
					&cli.StringFlag{Name: "websocketUrl", Usage: "upstream websocket url"},
					&cli.StringFlag{Name: "exchangeApiKey", Usage: "key for the upstream exchange"},
				},
				Action: a.withClient(func(ctx context.Context, cmd *cli.Command, c *api.Client) error {
					code, err := requireString(cmd, "code")
					if err != nil {
						return err
					}
					req := model.ExchangeRequest{
						Code:         code,
						Description:  cmd.String("description"),
						URL:          cmd.String("exchangeUrl"),
						WebsocketURL: cmd.String("websocketUrl"),
						APIKey:       cmd.String("exchangeApiKey"),
					}
					return a.call(c.URL(api.ExchangePath), req, func() ([]byte, error) {
						return c.CreateExchange(ctx, req)
					})
				}),
			},
			{
				Name:  "load-instruments",
				Usage: "Reload the instruments of a registered exchange",
				Flags: []cli.Flag{codeFlag()},
				Action: a.withClient(func(ctx context.Context, cmd *cli.Command, c *api.Client) error {
					code, err := requireString(cmd, "code")
					if err != nil {
						return err
					}
					return a.call(c.URL(api.ExchangePath+"/"+code), nil, func() ([]byte, error) {
						return c.LoadExchangeInstruments(ctx, code)
					})
				}),
			},
			{
				Name:  "create-offer",
				Usage: "Create an offer expiring after some days",
				Flags: []cli.Flag{
					codeFlag(),
					descriptionFlag(),
					&cli.IntFlag{Name: "expiration_days", Usage: "days until the offer expires"},
				},
				Action: a.withClient(func(ctx context.Context, cmd *cli.Command, c *api.Client) error {
					code, err := requireString(cmd, "code")
					if err != nil {
						return err
					}
					days, err := requireInt(cmd, "expiration_days")
					if err != nil {
						return err
					}
					req := model.NewOfferRequest(code, cmd.String("description"), days, time.Now())
					return a.call(c.URL(api.OfferPath), req, func() ([]byte, error) {
						return c.CreateOffer(ctx, req)
					})
				}),
			},
		},
	}
}

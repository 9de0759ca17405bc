package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/openbroker/exchange-client/internal/connection"
	"github.com/openbroker/exchange-client/internal/database"
	"github.com/openbroker/exchange-client/internal/model"
	"github.com/openbroker/exchange-client/internal/recorder"
	"github.com/openbroker/exchange-client/internal/session"
)

func (a *app) updatesCommand() *cli.Command {
	return &cli.Command{
		Name:  "updates",
		Usage: "Subscribe to an account's update pushes and print them",
		Flags: []cli.Flag{
			accountFlag(),
			&cli.StringFlag{Name: "topic", Usage: "order_updates or updates"},
			&cli.BoolFlag{Name: "record", Usage: "store received updates in PostgreSQL"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := a.setup(cmd); err != nil {
				return err
			}
			account, err := requireString(cmd, "accountKey")
			if err != nil {
				return err
			}
			if cmd.IsSet("topic") {
				a.cfg.Stream.Topic = cmd.String("topic")
			}
			if cmd.Bool("record") {
				a.cfg.Recorder.Enabled = true
			}
			if err := a.cfg.Validate(); err != nil {
				return &usageError{err: err}
			}
			return a.followUpdates(ctx, account)
		},
	}
}

// credential picks the cookie presented on the websocket upgrade.
func (a *app) credential(ctx context.Context) (connection.Credential, error) {
	if a.cfg.API.CredentialCookie == session.CookieName {
		sess, err := a.login(ctx)
		if err != nil {
			return connection.Credential{}, err
		}
		return connection.Credential{Name: session.CookieName, Value: sess.ID}, nil
	}

	key, err := a.apiKey()
	if err != nil {
		return connection.Credential{}, err
	}
	return connection.Credential{Name: a.cfg.API.CredentialCookie, Value: key}, nil
}

func (a *app) streamURL() string {
	scheme := "ws"
	if a.cfg.Server.Scheme == "https" {
		scheme = "wss"
	}
	path := a.cfg.Stream.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return scheme + "://" + a.cfg.Server.Addr + path
}

func (a *app) followUpdates(ctx context.Context, account string) error {
	cred, err := a.credential(ctx)
	if err != nil {
		return err
	}

	s := a.cfg.Stream
	sub := connection.NewSubscriber(connection.SubscriberConfig{
		URL:        a.streamURL(),
		Credential: cred,
		Subscription: connection.Subscription{
			Destination: connection.DestinationFor(s.Topic, account),
			ID:          s.SubscriptionID,
			Ack:         s.Ack,
		},
		AcceptVersion: s.AcceptVersion,
		WriteTimeout:  s.WriteTimeout,
		PingInterval:  s.PingInterval,
		PingTimeout:   s.PingTimeout,
		BufferSize:    s.BufferSize,
		Reconnect: connection.ReconnectConfig{
			BaseDelay:  s.Reconnect.BaseDelay,
			MaxDelay:   s.Reconnect.MaxDelay,
			MaxRetries: s.Reconnect.MaxRetries,
		},
	}, a.logger)

	var w *recorder.Writer
	if a.cfg.Recorder.Enabled {
		pool, err := database.Connect(ctx, a.cfg.Recorder.Database)
		if err != nil {
			return err
		}
		defer pool.Close()

		w = recorder.NewWriter(recorder.Config{
			BatchSize:     a.cfg.Recorder.BatchSize,
			FlushInterval: a.cfg.Recorder.FlushInterval,
		}, pool, a.logger)
		if err := w.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		if err := w.Start(ctx); err != nil {
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			w.Stop(stopCtx)
			stats := w.Stats()
			a.logger.Info("recorder totals",
				"received", stats.Received,
				"inserts", stats.Inserts,
				"duplicates", stats.Duplicates,
				"errors", stats.Errors,
			)
		}()
	}

	a.logger.Info("following account updates", "url", a.streamURL(), "account", account, "topic", s.Topic)

	done := make(chan error, 1)
	go func() { done <- sub.Run(ctx) }()

	for msg := range sub.Messages() {
		fmt.Fprintf(a.stdout, "Received the application message: %s\n", msg.Body)
		a.logUpdate(msg)
		if w != nil {
			w.Write(msg)
		}
	}

	err = <-done
	if errors.Is(err, context.Canceled) {
		a.logger.Info("stopped following updates")
		return nil
	}
	if connection.IsTerminal(err) {
		return fmt.Errorf("follow %s: %w", account, err)
	}
	return err
}

// logUpdate writes a debug summary when the payload is an account update.
func (a *app) logUpdate(msg connection.Message) {
	u, err := model.ParseAccountUpdate(msg.Body)
	if err != nil || u.Empty() {
		return
	}
	attrs := []any{"conn_id", msg.ConnID, "message_id", msg.MessageID, "summary", u.Summary()}
	if u.OrderState != nil {
		attrs = append(attrs, "open", u.OrderState.OrderStatus.IsOpen())
	}
	a.logger.Debug("account update", attrs...)
}

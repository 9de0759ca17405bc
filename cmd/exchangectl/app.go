package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/openbroker/exchange-client/internal/api"
	"github.com/openbroker/exchange-client/internal/config"
	"github.com/openbroker/exchange-client/internal/session"
	"github.com/openbroker/exchange-client/internal/version"
)

// app carries what every command shares. cfg and logger are set by setup.
type app struct {
	stdout io.Writer
	stderr io.Writer

	cfg    *config.Config
	logger *slog.Logger
}

func (a *app) command() *cli.Command {
	root := &cli.Command{
		Name:      "exchangectl",
		Usage:     "Talk to an exchange: orders, admin calls and account update pushes",
		Version:   version.String(),
		Writer:    a.stdout,
		ErrWriter: a.stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to an optional YAML config file",
			},
			&cli.StringFlag{
				Name:  "addr",
				Usage: "exchange `host:port`",
			},
			&cli.StringFlag{
				Name:  "scheme",
				Usage: "http or https",
			},
			&cli.StringFlag{
				Name:  "credentialCookie",
				Usage: "id (log in first), api_key or customer_key",
			},
			&cli.StringFlag{
				Name:    "apiKey",
				Usage:   "API key used to authenticate",
				Sources: cli.EnvVars("EXCHANGE_API_KEY"),
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "debug logging",
			},
		},
		Commands: []*cli.Command{
			a.loginCommand(),
			a.ordersCommand(),
			a.accountsCommand(),
			a.adminCommand(),
			a.updatesCommand(),
		},
	}
	withUsageErrors(root)
	return root
}

// withUsageErrors turns flag parsing failures anywhere in the tree into
// usage errors.
func withUsageErrors(cmd *cli.Command) {
	cmd.OnUsageError = func(ctx context.Context, cmd *cli.Command, err error, isSubcommand bool) error {
		return &usageError{err: err}
	}
	for _, sub := range cmd.Commands {
		withUsageErrors(sub)
	}
}

// setup resolves configuration (defaults, then file, then flags) and the
// logger. Every action calls it first.
func (a *app) setup(cmd *cli.Command) error {
	cfg, err := config.LoadWithDefaults(cmd.String("config"), func(c *config.Config) {
		if cmd.IsSet("addr") {
			c.Server.Addr = cmd.String("addr")
		}
		if cmd.IsSet("scheme") {
			c.Server.Scheme = cmd.String("scheme")
		}
		if cmd.IsSet("credentialCookie") {
			c.API.CredentialCookie = cmd.String("credentialCookie")
		}
		if cmd.IsSet("apiKey") {
			c.API.APIKey = cmd.String("apiKey")
		}
	})
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return &usageError{err: err}
	}
	a.cfg = cfg

	level := slog.LevelInfo
	if cmd.Bool("verbose") {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))

	a.logger.Debug("configuration loaded",
		"version", version.Version,
		"addr", cfg.Server.Addr,
		"credential_cookie", cfg.API.CredentialCookie,
	)
	return nil
}

func (a *app) baseURL() string {
	return a.cfg.Server.Scheme + "://" + a.cfg.Server.Addr
}

func (a *app) apiKey() (string, error) {
	if a.cfg.API.APIKey == "" {
		return "", invalidArgs("--apiKey is required")
	}
	return a.cfg.API.APIKey, nil
}

func (a *app) login(ctx context.Context) (*session.Session, error) {
	key, err := a.apiKey()
	if err != nil {
		return nil, err
	}
	return session.Login(ctx, nil, a.cfg.Server.Addr, key,
		session.WithScheme(a.cfg.Server.Scheme),
		session.WithLogger(a.logger),
	)
}

// restClient builds an API client authenticated the configured way.
func (a *app) restClient(ctx context.Context) (*api.Client, error) {
	opts := []api.ClientOption{
		api.WithLogger(a.logger),
		api.WithTimeout(a.cfg.API.Timeout),
		api.WithRetries(a.cfg.API.MaxRetries, a.cfg.API.RetryBackoff),
	}

	if a.cfg.API.CredentialCookie == session.CookieName {
		sess, err := a.login(ctx)
		if err != nil {
			return nil, err
		}
		return api.NewSessionClient(sess, opts...), nil
	}

	key, err := a.apiKey()
	if err != nil {
		return nil, err
	}
	opts = append(opts, api.WithCredentialCookie(a.cfg.API.CredentialCookie, key))
	return api.NewClient(a.baseURL(), opts...), nil
}

func (a *app) loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Log in with the API key and print the session cookie",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := a.setup(cmd); err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, "Requesting login at path", a.baseURL()+session.LoginPath)

			sess, err := a.login(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, "Session cookie:", sess.Cookie().String())
			return nil
		},
	}
}

// call prints the request, runs it, and prints the indented response.
func (a *app) call(url string, body any, do func() ([]byte, error)) error {
	fmt.Fprintln(a.stdout, "Requesting at path", url)
	if body != nil {
		req, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		fmt.Fprintln(a.stdout, "req", string(req))
	}

	resp, err := do()
	if err != nil {
		return err
	}

	fmt.Fprintln(a.stdout, "Response")
	var out bytes.Buffer
	if err := json.Indent(&out, resp, "", "  "); err != nil {
		out.Reset()
		out.Write(resp)
	}
	fmt.Fprintln(a.stdout, out.String())
	return nil
}

func requireString(cmd *cli.Command, name string) (string, error) {
	v := cmd.String(name)
	if v == "" {
		return "", invalidArgs("--%s is required", name)
	}
	return v, nil
}

func requireInt(cmd *cli.Command, name string) (int, error) {
	if !cmd.IsSet(name) {
		return 0, invalidArgs("--%s is required", name)
	}
	return int(cmd.Int(name)), nil
}

func requireFloat(cmd *cli.Command, name string) (float64, error) {
	if !cmd.IsSet(name) {
		return 0, invalidArgs("--%s is required", name)
	}
	return cmd.Float(name), nil
}

// Command exchangectl calls the exchange's REST API and follows account
// update pushes.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one command line and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}
	err := a.command().Run(ctx, args)
	return a.exitCode(err)
}

// usageError marks bad flags or arguments.
type usageError struct {
	err error
}

func (e *usageError) Error() string {
	return "invalid arguments: " + e.err.Error()
}

func (e *usageError) Unwrap() error {
	return e.err
}

func invalidArgs(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

func (a *app) exitCode(err error) int {
	if err == nil {
		return 0
	}

	var uerr *usageError
	if errors.As(err, &uerr) {
		fmt.Fprintln(a.stderr, uerr.Error())
		return 2
	}

	if a.logger != nil {
		a.logger.Error("command failed", "error", err)
	} else {
		fmt.Fprintln(a.stderr, "error:", err)
	}
	return 1
}

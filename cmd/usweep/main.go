// Package main is the entry point for the usweep CLI.
//
// All functionality lives in internal/cli; main only injects the
// build-time version information and installs signal handling so an
// interrupted run (Ctrl-C, or SIGTERM from a service manager) cancels
// in-flight work and exits with the dedicated cancellation code.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mmr-tortoise/usweep/internal/cli"
)

// Set via ldflags at release build time; the defaults identify a
// development build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.Execute(ctx, cli.NewRootCommand())
}

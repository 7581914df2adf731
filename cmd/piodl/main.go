package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/chazuruo/piodl/internal/cli"
	pioerrors "github.com/chazuruo/piodl/internal/errors"
)

// Version is set at build time using ldflags
var Version = "dev"

// Commit is set at build time using ldflags
var Commit = "unknown"

// Date is set at build time using ldflags
var Date = "unknown"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := cli.NewRootCommand()
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
	rootCmd.AddCommand(cli.NewVersionCommand(Version, Commit, Date))

	err := rootCmd.ExecuteContext(ctx)
	code := pioerrors.ExitCode(err)
	switch {
	case pioerrors.IsCanceled(err):
		fmt.Fprintln(os.Stderr, "Interrupted.")
	case code != pioerrors.ExitSuccess:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if ce, ok := pioerrors.AsConfigError(err); ok && ce.Path != "" {
			fmt.Fprintf(os.Stderr, "Check the config file at %s, or run 'piodl config init --force' to reset it.\n", ce.Path)
		}
	}
	return code
}

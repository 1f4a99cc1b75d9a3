package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/civicarchive/councilcast/internal/cli"
	"github.com/fatih/color"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCmd(&cli.Dependencies{}).ExecuteContext(ctx); err != nil {
		color.New(color.FgHiRed, color.Bold).Fprintf(os.Stderr, "Error: %s\n", err)
		stop()
		os.Exit(1)
	}
}

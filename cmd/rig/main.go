package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pcornish/rig/cmd/rig/commands"
)

func main() {
	// Interrupts cancel the run context so in-flight fetches stop and
	// deferred scratch-directory cleanup runs.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(commands.Execute(ctx, os.Args[1:], os.Stderr))
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Pengchengistaken/ocmirror/cmd/ocmirror/cmd"
)

func main() {
	// Interruptible between files and cycles; the filesystem holds all
	// resume state, so a second signal forcing exit loses nothing.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// Command inferform serves a generated interface for a DEEPaaS style
// inference service, either as a web form or as terminal prompts.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/goliatone/go-inferform/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(os.Stdout).ExecuteContext(ctx); err != nil {
		logger.Logger.Error("inferform failed", "err", err)
		stop()
		os.Exit(1)
	}
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/blackoreo/namwatch/cli/namwatch/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.New().Execute(ctx); err != nil {
		os.Exit(1)
	}
}

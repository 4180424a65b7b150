package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sistemabuses/busadmin/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx)
	stop()
	if err != nil {
		// Commands print their own errors
		os.Exit(1)
	}
}

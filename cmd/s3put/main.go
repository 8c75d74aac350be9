package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"s3put/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Run(ctx, os.Args[1:]); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "s3put: %v\n", err)
		os.Exit(1)
	}
}

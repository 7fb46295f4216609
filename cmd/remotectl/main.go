// Package main is the entry point for the remotectl CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tablekit/remotectl/internal/cli"
)

// Build-time variables set via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0"
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	if version != "dev" {
		cli.Version = version
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	return cli.Execute(ctx)
}

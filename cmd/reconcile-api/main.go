package main

import (
	"fmt"
	"os"

	"github.com/eshaffer321/amex-reconcile/internal/cli"
	"github.com/eshaffer321/amex-reconcile/internal/infrastructure/config"
)

func main() {
	flags := cli.ParseServeFlags()

	cfg := config.LoadOrEnv_WithPath(flags.ConfigPath)

	if err := cli.RunServe(cfg, flags); err != nil {
		fmt.Fprintf(os.Stderr, "server failed: %v\n", err)
		os.Exit(1)
	}
}

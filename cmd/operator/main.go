package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/chainsafe/watchtower-bridge/pkg/app"
	"github.com/chainsafe/watchtower-bridge/pkg/app/operator"
	"github.com/chainsafe/watchtower-bridge/pkg/config"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadWatchtowerConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	var runner app.Runner = operator.NewServer(cfg)
	if err := runner.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "operator exited with error: %v\n", err)
		os.Exit(1)
	}
}

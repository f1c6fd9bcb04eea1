package main

import (
	"os"

	"maika/internal/config"
	"maika/internal/logging"
)

func main() {
	logger := logging.New(logging.Options{})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	if err := newApp(os.Stdout, cfg).Run(os.Args); err != nil {
		logger.Fatal().Err(err).Msg("command failed")
	}
}

package main

import (
	"os"

	"imovelhub/internal/config"
	"imovelhub/internal/server"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load")
	}

	app, _, err := server.CreateApp(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("app create")
	}

	if cfg.DatabaseURL == "" {
		log.Info().Msg("No DATABASE_URL set, using in-memory sqlite")
	}
	log.Info().Str("port", cfg.Port).Msg("Server running")

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("listen")
	}
}

package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const logDate string = `2006-01-02T15:04:05.000-07:00`

func setupLogging(cfg *Config) {
	level := zerolog.InfoLevel
	if cfg.verbose {
		level = zerolog.DebugLevel
	}

	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: logDate,
	}).Level(level).With().Timestamp().Logger()
}

// suppressLogging silences the global logger; the console client owns stdout
// and stderr for the interactive prompt.
func suppressLogging() {
	log.Logger = zerolog.Nop()
}

func init() {
	zerolog.DurationFieldUnit = time.Millisecond
}

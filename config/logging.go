package config

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger configures the global zerolog logger.
func InitLogger(cfg LogConfig) {
	initLogger(cfg, os.Stdout)
}

func initLogger(cfg LogConfig, out io.Writer) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	// log.Ctx falls back to the global logger outside a request.
	zerolog.DefaultContextLogger = &log.Logger
}

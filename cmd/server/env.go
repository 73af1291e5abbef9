package main

import (
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/athan/internal/config"
)

// LoadEnvironment reads the configuration and sets up logging for it.
func LoadEnvironment() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("unknown LOG_LEVEL, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Development() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	log.Info().
		Str("env", cfg.Environment).
		Str("device", cfg.DeviceID).
		Str("prefs", cfg.PrefsBackend).
		Bool("auth", cfg.AuthEnabled()).
		Bool("history", cfg.DatabaseURL != "").
		Msg("configuration loaded")
	return cfg
}

package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/athan/internal/config"
	"github.com/Nixie-Tech-LLC/athan/internal/db"
	"github.com/Nixie-Tech-LLC/athan/internal/location"
	"github.com/Nixie-Tech-LLC/athan/internal/model"
	"github.com/Nixie-Tech-LLC/athan/internal/prefs"
	"github.com/Nixie-Tech-LLC/athan/internal/redis"
)

// Backend is the key-value store behind both the preferences and the timings cache.
type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error
}

// InitBackend selects and returns the configured preference backend
func InitBackend(ctx context.Context, cfg *config.Config) (Backend, func()) {
	if cfg.PrefsBackend == config.BackendMemory {
		log.Warn().Msg("using in-memory preferences, settings are lost on restart")
		return prefs.NewMemoryKV(), func() {}
	}

	client := redis.NewClient(cfg.RedisAddress, cfg.RedisUsername, cfg.RedisPassword, cfg.RedisDB, cfg.RedisPrefix)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx); err != nil {
		log.Fatal().Err(err).Str("address", cfg.RedisAddress).Msg("failed to connect to redis")
	}
	log.Info().Str("address", cfg.RedisAddress).Msg("using redis preferences")
	return client, func() {
		if err := client.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close redis client")
		}
	}
}

// InitHistory connects to Postgres when DATABASE_URL is set. It returns nil otherwise.
func InitHistory(cfg *config.Config) db.Store {
	if cfg.DatabaseURL == "" {
		log.Info().Msg("DATABASE_URL not set, adhan history disabled")
		return nil
	}
	if err := db.Init(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("db init")
	}
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}
	return db.NewStore(db.DB)
}

// InitLocator prefers a configured fixed location over IP geolocation.
func InitLocator(cfg *config.Config) location.Provider {
	if l := cfg.DefaultLocation; l != nil {
		log.Info().Float64("latitude", l.Latitude).Float64("longitude", l.Longitude).Msg("using fixed location")
		return location.Static{Location: model.Location{Latitude: l.Latitude, Longitude: l.Longitude, Timezone: l.Timezone}}
	}
	return location.NewIPClient(cfg.IPLocationURL, 10*time.Second, cfg.LookupsPerMin)
}

package main

import (
	"os"

	"github.com/rs/zerolog/log"
)

// Config holds the worker-only settings; everything else comes from the container
type Config struct {
	HealthAddr string
}

func loadConfig() *Config {
	cfg := &Config{
		HealthAddr: getEnv("WORKER_HEALTH_ADDR", ":9999"),
	}
	log.Info().Str("health_addr", cfg.HealthAddr).Msg("[Config] Worker config loaded")
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

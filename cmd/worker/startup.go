package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"intranet-backend/pkg/container"
)

// startServices checks Redis and the journal database, then serves /health
func startServices(c *container.Container, cfg *Config) error {
	log.Info().Msg("Intranet worker starting")

	checks := []struct {
		name string
		fn   func(ctx context.Context) error
	}{
		{"Redis Connection", c.Cache.Ping},
		{"Journal Database", func(ctx context.Context) error {
			if c.DB == nil {
				log.Warn().Msg("Journal disabled, the stale-run sweep will be a no-op")
				return nil
			}
			return c.DB.HealthCheck(ctx)
		}},
	}

	for _, check := range checks {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := check.fn(ctx)
		cancel()
		if err != nil {
			log.Error().Err(err).Str("check", check.name).Msg("Startup check failed")
			return fmt.Errorf("%s failed: %w", check.name, err)
		}
		log.Info().Str("check", check.name).Msg("Startup check OK")
	}

	go startHealthCheckServer(c, cfg.HealthAddr)
	return nil
}

// startHealthCheckServer serves the same report as the API's /health
func startHealthCheckServer(c *container.Container, addr string) {
	router := gin.New()
	router.GET("/health", c.Health.Serve)
	router.GET("/ready", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "READY"})
	})

	log.Info().Str("addr", addr).Msg("[Health] Starting health check server")
	if err := http.ListenAndServe(addr, router); err != nil {
		log.Error().Err(err).Msg("[Health] Failed to start")
	}
}

package config

import (
	"time"

	"intranet-backend/internal/infrastructure/database"
)

// DBConfig builds the pool settings for the journal database
func (c DatabaseConfig) DBConfig() *database.DBConfig {
	return &database.DBConfig{
		Host:              c.Host,
		Port:              c.Port,
		Username:          c.User,
		Password:          c.Password,
		DBName:            c.Database,
		SSLMode:           c.SSLMode,
		MaxConns:          int32(c.MaxConns),
		MinConns:          int32(c.MinConns),
		MaxConnLifetime:   getEnvDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
		MaxConnIdleTime:   getEnvDuration("DB_MAX_CONN_IDLE_TIME", time.Minute),
		HealthCheckPeriod: getEnvDuration("DB_HEALTH_CHECK_PERIOD", time.Minute),
		MaxRetries:        getEnvInt("DB_MAX_RETRIES", 5),
		RetryDelay:        getEnvDuration("DB_RETRY_DELAY", time.Second),
		ConnectTimeout:    getEnvDuration("DB_CONNECT_TIMEOUT", 10*time.Second),
	}
}

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// PoolStats is a snapshot of the pool counters
type PoolStats struct {
	AcquiredConns        int32         `json:"acquiredConns"`
	IdleConns            int32         `json:"idleConns"`
	TotalConns           int32         `json:"totalConns"`
	MaxConns             int32         `json:"maxConns"`
	AcquireCount         int64         `json:"acquireCount"`
	CanceledAcquireCount int64         `json:"canceledAcquireCount"`
	AvgAcquireDuration   time.Duration `json:"avgAcquireDuration"`
}

// Stats returns the current pool counters
func (db *PostgresDB) Stats() (*PoolStats, error) {
	if db.Pool == nil {
		return nil, fmt.Errorf("database pool is not initialized")
	}

	raw := db.Pool.Stat()
	return &PoolStats{
		AcquiredConns:        raw.AcquiredConns(),
		IdleConns:            raw.IdleConns(),
		TotalConns:           raw.TotalConns(),
		MaxConns:             raw.MaxConns(),
		AcquireCount:         raw.AcquireCount(),
		CanceledAcquireCount: raw.CanceledAcquireCount(),
		AvgAcquireDuration:   calculateAvgDuration(raw.AcquireDuration(), raw.AcquireCount()),
	}, nil
}

func calculateAvgDuration(totalDuration time.Duration, count int64) time.Duration {
	if count == 0 {
		return 0
	}
	return totalDuration / time.Duration(count)
}

// MonitorPoolHealth logs pool pressure until ctx is cancelled
func (db *PostgresDB) MonitorPoolHealth(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			stats, err := db.Stats()
			if err != nil {
				log.Warn().Err(err).Msg("[MONITOR] failed to get pool stats")
				continue
			}
			if stats.MaxConns > 0 {
				utilization := float64(stats.AcquiredConns) / float64(stats.MaxConns) * 100
				if utilization > 80 {
					log.Warn().
						Float64("utilization_pct", utilization).
						Int32("acquired", stats.AcquiredConns).
						Int32("max", stats.MaxConns).
						Msg("[MONITOR] high pool utilization")
				}
			}
			if stats.AvgAcquireDuration > 100*time.Millisecond {
				log.Warn().Dur("avg_acquire", stats.AvgAcquireDuration).Msg("[MONITOR] high acquire latency")
			}
		case <-ctx.Done():
			return
		}
	}
}

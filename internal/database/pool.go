package database

import (
	"context"
	"log/slog"
	"time"

	apperrors "tourdesk/internal/errors"
)

type PoolStats struct {
	MaxOpenConns      int           `json:"max_open_connections"`
	OpenConns         int           `json:"open_connections"`
	InUse             int           `json:"in_use"`
	Idle              int           `json:"idle"`
	WaitCount         int64         `json:"wait_count"`
	WaitDuration      time.Duration `json:"wait_duration"`
	MaxIdleClosed     int64         `json:"max_idle_closed"`
	MaxLifetimeClosed int64         `json:"max_lifetime_closed"`
}

type HealthCheck struct {
	Status       string        `json:"status"`
	ResponseTime time.Duration `json:"response_time"`
	Error        string        `json:"error,omitempty"`
	Stats        PoolStats     `json:"stats"`
	Timestamp    time.Time     `json:"timestamp"`
}

func (db *DB) GetPoolStats() PoolStats {
	stats := db.Stats()
	return PoolStats{
		MaxOpenConns:      stats.MaxOpenConnections,
		OpenConns:         stats.OpenConnections,
		InUse:             stats.InUse,
		Idle:              stats.Idle,
		WaitCount:         stats.WaitCount,
		WaitDuration:      stats.WaitDuration,
		MaxIdleClosed:     stats.MaxIdleClosed,
		MaxLifetimeClosed: stats.MaxLifetimeClosed,
	}
}

func (db *DB) HealthCheck(ctx context.Context) HealthCheck {
	start := time.Now()
	healthCheck := HealthCheck{
		Timestamp: start,
		Stats:     db.GetPoolStats(),
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := db.PingContext(pingCtx)
	healthCheck.ResponseTime = time.Since(start)

	if err != nil {
		healthCheck.Status = "unhealthy"
		healthCheck.Error = err.Error()
		slog.Error("Database health check failed", "error", err)
	} else {
		healthCheck.Status = "healthy"
	}

	if healthCheck.Stats.MaxOpenConns > 0 && healthCheck.Stats.InUse > int(float64(healthCheck.Stats.MaxOpenConns)*0.9) {
		slog.Warn("High connection usage detected",
			"in_use", healthCheck.Stats.InUse, "max_open", healthCheck.Stats.MaxOpenConns)
	}

	return healthCheck
}

// RetryPolicy bounds retries of idempotent reads
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.Attempts <= 0 {
		p.Attempts = 3
	}
	if p.Backoff <= 0 {
		p.Backoff = 100 * time.Millisecond
	}
	return p
}

// Retry runs fn until it succeeds, fails with a non-transient error or the
// attempts run out. The delay grows linearly with the attempt number. Only use
// it for reads; mutations surface their first failure to the caller.
func Retry(ctx context.Context, policy RetryPolicy, op string, fn func(ctx context.Context) error) error {
	policy = policy.withDefaults()

	var lastErr error
	for attempt := 1; attempt <= policy.Attempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !apperrors.IsTransient(err) {
			return err
		}

		if attempt < policy.Attempts {
			slog.Warn("Database query failed, retrying",
				"op", op, "attempt", attempt, "max_retries", policy.Attempts, "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * policy.Backoff):
			}
		}
	}

	return lastErr
}

// Read runs a read through the pool's retry policy. Inside a transaction the
// read runs once, since a failed statement aborts the transaction anyway.
func (db *DB) Read(ctx context.Context, op string, fn func(ctx context.Context, q Querier) error) error {
	if InTx(ctx) {
		return Classify(op, fn(ctx, db.Conn(ctx)))
	}
	return Retry(ctx, db.retry, op, func(ctx context.Context) error {
		return Classify(op, fn(ctx, db.DB))
	})
}

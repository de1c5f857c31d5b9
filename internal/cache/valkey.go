// Package cache keeps hot lookups in Valkey. Every miss or error falls back to
// the database, so callers never see cache failures.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tourdesk/internal/logger"
	"tourdesk/internal/metrics"
	"tourdesk/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Config struct {
	Enabled      bool
	Addr         string
	Password     string
	DB           int
	PrincipalTTL time.Duration
	ActivityTTL  time.Duration
}

const (
	principalPrefix = "principal:"
	activityPrefix  = "activity:"
)

type ValkeyClient struct {
	client       *redis.Client
	principalTTL time.Duration
	activityTTL  time.Duration
}

func NewValkeyClient(cfg Config) (*ValkeyClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}

	principalTTL := cfg.PrincipalTTL
	if principalTTL <= 0 {
		principalTTL = time.Minute
	}
	activityTTL := cfg.ActivityTTL
	if activityTTL <= 0 {
		activityTTL = 5 * time.Minute
	}

	return &ValkeyClient{
		client:       rdb,
		principalTTL: principalTTL,
		activityTTL:  activityTTL,
	}, nil
}

func (v *ValkeyClient) GetPrincipal(ctx context.Context, userID uuid.UUID) (*models.Principal, bool) {
	var p models.Principal
	if !v.get(ctx, "principal", principalPrefix+userID.String(), &p) {
		return nil, false
	}
	return &p, true
}

func (v *ValkeyClient) SetPrincipal(ctx context.Context, p *models.Principal) {
	v.set(ctx, principalPrefix+p.UserID.String(), p, v.principalTTL)
}

func (v *ValkeyClient) InvalidatePrincipal(ctx context.Context, userID uuid.UUID) {
	v.del(ctx, principalPrefix+userID.String())
}

func (v *ValkeyClient) GetActivity(ctx context.Context, id uuid.UUID) (*models.Activity, bool) {
	var a models.Activity
	if !v.get(ctx, "activity", activityPrefix+id.String(), &a) {
		return nil, false
	}
	return &a, true
}

func (v *ValkeyClient) SetActivity(ctx context.Context, a *models.Activity) {
	v.set(ctx, activityPrefix+a.ID.String(), a, v.activityTTL)
}

func (v *ValkeyClient) InvalidateActivity(ctx context.Context, id uuid.UUID) {
	v.del(ctx, activityPrefix+id.String())
}

func (v *ValkeyClient) get(ctx context.Context, name, key string, dst interface{}) bool {
	raw, err := v.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.WithContext(ctx).Warn("Cache lookup failed", "key", key, "error", err)
			metrics.CacheLookups.WithLabelValues(name, "error").Inc()
			return false
		}
		metrics.CacheLookups.WithLabelValues(name, "miss").Inc()
		return false
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		logger.WithContext(ctx).Warn("Dropping unreadable cache entry", "key", key, "error", err)
		v.del(ctx, key)
		metrics.CacheLookups.WithLabelValues(name, "error").Inc()
		return false
	}

	metrics.CacheLookups.WithLabelValues(name, "hit").Inc()
	return true
}

func (v *ValkeyClient) set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		logger.WithContext(ctx).Warn("Failed to encode cache entry", "key", key, "error", err)
		return
	}
	if err := v.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		logger.WithContext(ctx).Warn("Failed to write cache entry", "key", key, "error", err)
	}
}

func (v *ValkeyClient) del(ctx context.Context, key string) {
	if err := v.client.Del(ctx, key).Err(); err != nil {
		logger.WithContext(ctx).Warn("Failed to invalidate cache entry", "key", key, "error", err)
	}
}

func (v *ValkeyClient) Close() error {
	return v.client.Close()
}

package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis stores snapshots as JSON values with a TTL, for deployments
// where runs may resume on another host.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(addr, password string, db int, ttl time.Duration) *Redis {
	return &Redis{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		ttl: ttl,
	}
}

func redisKey(runID string) string {
	return "stride:checkpoint:" + runID
}

func (r *Redis) Save(ctx context.Context, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode checkpoint %s: %w", snap.RunID, err)
	}
	if err := r.client.Set(ctx, redisKey(snap.RunID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("save checkpoint %s: %w", snap.RunID, err)
	}
	return nil
}

func (r *Redis) Load(ctx context.Context, runID string) (*Snapshot, error) {
	data, err := r.client.Get(ctx, redisKey(runID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("checkpoint %s: not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("load checkpoint %s: %w", runID, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode checkpoint %s: %w", runID, err)
	}
	return &snap, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/weirlabs/weir/pkg/api"
)

// RedisVariables is a Variables implementation backed by Redis hashes.
// Values are stored JSON-encoded so arbitrary step output survives a
// round trip
type RedisVariables struct {
	client *redis.Client
	prefix string
}

// NewRedisVariables creates a Redis-backed variable store using the
// provided connection settings
func NewRedisVariables(addr, password, prefix string, db int) *RedisVariables {
	return &RedisVariables{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		prefix: prefix,
	}
}

// Ping verifies the Redis connection is usable
func (r *RedisVariables) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the underlying Redis connection
func (r *RedisVariables) Close() error {
	return r.client.Close()
}

// RunVars returns the variables recorded for a run
func (r *RedisVariables) RunVars(
	ctx context.Context, id api.RunID,
) (api.Vars, error) {
	return r.readHash(ctx, r.runKey(id))
}

// SetRunVar records a variable value at the run scope
func (r *RedisVariables) SetRunVar(
	ctx context.Context, id api.RunID, name string, value any,
) error {
	return r.writeField(ctx, r.runKey(id), name, value)
}

// GlobalVars returns the process-wide variables
func (r *RedisVariables) GlobalVars(ctx context.Context) (api.Vars, error) {
	return r.readHash(ctx, r.globalKey())
}

// SetGlobalVar records a variable value at the configuration scope
func (r *RedisVariables) SetGlobalVar(
	ctx context.Context, name string, value any,
) error {
	return r.writeField(ctx, r.globalKey(), name, value)
}

func (r *RedisVariables) readHash(
	ctx context.Context, key string,
) (api.Vars, error) {
	fields, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}

	vars := make(api.Vars, len(fields))
	for name, raw := range fields {
		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			return nil, fmt.Errorf("decode variable %s: %w", name, err)
		}
		vars[name] = value
	}
	return vars, nil
}

func (r *RedisVariables) writeField(
	ctx context.Context, key, name string, value any,
) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode variable %s: %w", name, err)
	}
	return r.client.HSet(ctx, key, name, string(raw)).Err()
}

func (r *RedisVariables) runKey(id api.RunID) string {
	return fmt.Sprintf("%s:run:%s:vars", r.prefix, id)
}

func (r *RedisVariables) globalKey() string {
	return r.prefix + ":vars:global"
}

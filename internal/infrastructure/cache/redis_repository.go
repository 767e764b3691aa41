package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/namay10/DcaVault/internal/domain/model"
	"github.com/namay10/DcaVault/internal/domain/repository"
)

// RedisRepository implements the VaultCache interface using Redis as the
// backend. It holds the latest snapshot of each vault record for fast API
// reads; the in-memory store stays authoritative.
type RedisRepository struct {
	client *redis.Client
}

func NewRedisRepository(addr, password string, db int) *RedisRepository {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisRepository{client: client}
}

// Ensure RedisRepository implements the VaultCache interface
var _ repository.VaultCache = (*RedisRepository)(nil)

// Ping checks connectivity so bootstrap can degrade gracefully.
func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func vaultKey(owner string) string {
	return fmt.Sprintf("vault:%s", owner)
}

// SaveVault stores the latest snapshot of a vault record.
func (r *RedisRepository) SaveVault(ctx context.Context, v *model.VaultRecord) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal vault record: %w", err)
	}
	return r.client.Set(ctx, vaultKey(v.Owner), data, 0).Err()
}

// GetVault retrieves a vault snapshot; a missing key returns (nil, nil).
func (r *RedisRepository) GetVault(ctx context.Context, owner string) (*model.VaultRecord, error) {
	data, err := r.client.Get(ctx, vaultKey(owner)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // No snapshot for this owner
		}
		return nil, err
	}

	var v model.VaultRecord
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		return nil, fmt.Errorf("failed to unmarshal vault record: %w", err)
	}
	return &v, nil
}

// GetAllVaults retrieves every cached vault snapshot.
func (r *RedisRepository) GetAllVaults(ctx context.Context) ([]*model.VaultRecord, error) {
	keys, err := r.client.Keys(ctx, "vault:*").Result()
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return []*model.VaultRecord{}, nil
	}

	// Get all values in a pipeline for efficiency
	pipe := r.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(keys))
	for i, key := range keys {
		cmds[i] = pipe.Get(ctx, key)
	}
	_, err = pipe.Exec(ctx)
	if err != nil && err != redis.Nil {
		return nil, err
	}

	result := make([]*model.VaultRecord, 0, len(keys))
	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil {
			continue // Skip failed keys
		}
		var v model.VaultRecord
		if err := json.Unmarshal([]byte(data), &v); err != nil {
			continue // Skip malformed data
		}
		result = append(result, &v)
	}
	return result, nil
}

// DeleteVault removes the snapshot after a withdrawal terminates the record.
func (r *RedisRepository) DeleteVault(ctx context.Context, owner string) error {
	return r.client.Del(ctx, vaultKey(owner)).Err()
}

package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const catalogKey = "catalog:skus"

// RedisCatalog shares the valid SKU set between processes. It implements
// port.CatalogProvider.
type RedisCatalog struct {
	client *redis.Client
	key    string
}

func NewRedisCatalog(client *redis.Client) *RedisCatalog {
	return &RedisCatalog{client: client, key: catalogKey}
}

// Publish replaces the stored set with skus in one MULTI/EXEC block, so
// readers never observe a partially written catalog.
func (r *RedisCatalog) Publish(ctx context.Context, skus []string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key)
		if len(skus) > 0 {
			members := make([]any, len(skus))
			for i, sku := range skus {
				members[i] = sku
			}
			pipe.SAdd(ctx, r.key, members...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("publish catalog: %w", err)
	}
	return nil
}

func (r *RedisCatalog) HasSKU(ctx context.Context, sku string) (bool, error) {
	ok, err := r.client.SIsMember(ctx, r.key, sku).Result()
	if err != nil {
		return false, fmt.Errorf("catalog membership: %w", err)
	}
	return ok, nil
}

func (r *RedisCatalog) Count(ctx context.Context) (int64, error) {
	return r.client.SCard(ctx, r.key).Result()
}

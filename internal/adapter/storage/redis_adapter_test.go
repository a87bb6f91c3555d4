package storage

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/redis/go-redis/v9"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

func newTestCatalog(client *redis.Client) *RedisCatalog {
	c := NewRedisCatalog(client)
	c.key = "test:catalog:skus"
	return c
}

func TestRedisCatalog_PublishAndHasSKU(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	catalog := newTestCatalog(client)
	defer client.Del(ctx, catalog.key)

	if err := catalog.Publish(ctx, []string{"SKU-A", "SKU-B"}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	ok, err := catalog.HasSKU(ctx, "SKU-A")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected SKU-A to exist")
	}

	ok, err = catalog.HasSKU(ctx, "SKU-Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected SKU-Z to be unknown")
	}
}

func TestRedisCatalog_PublishReplaces(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	catalog := newTestCatalog(client)
	defer client.Del(ctx, catalog.key)

	catalog.Publish(ctx, []string{"OLD-1", "OLD-2", "OLD-3"})
	if err := catalog.Publish(ctx, []string{"NEW-1"}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	count, err := catalog.Count(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 sku, got %d", count)
	}

	ok, _ := catalog.HasSKU(ctx, "OLD-1")
	if ok {
		t.Error("expected OLD-1 to be gone after republish")
	}
}

func TestRedisCatalog_ConcurrentReads(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	catalog := newTestCatalog(client)
	defer client.Del(ctx, catalog.key)

	catalog.Publish(ctx, []string{"SKU-A"})

	var hits atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := catalog.HasSKU(ctx, "SKU-A")
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if ok {
				hits.Add(1)
			}
		}()
	}
	wg.Wait()

	if hits.Load() != 50 {
		t.Errorf("expected 50 hits, got %d", hits.Load())
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rl1809/retail-ops/internal/adapter/client"
	"github.com/rl1809/retail-ops/internal/adapter/handler"
	"github.com/rl1809/retail-ops/internal/core/domain"
)

const (
	defaultServer = "http://localhost:8080"
	storeID       = "ST002"
	sku           = "AST-LIN-BLZ-SND-M"
	totalRequests = 50
)

func main() {
	ctx := context.Background()

	server := os.Getenv("RETAILCORE_BASE_URL")
	if server == "" {
		server = defaultServer
	}
	c := client.New(server, domain.RoleAssociate)

	if _, err := c.Health(ctx); err != nil {
		log.Fatalf("server not reachable: %v", err)
	}

	initialOnHand, err := onHand(ctx, c)
	if err != nil {
		log.Fatalf("failed to read stock: %v", err)
	}

	var (
		successCount  atomic.Int32
		conflictCount atomic.Int32
		otherCount    atomic.Int32
	)

	// Spawn concurrent confirmed reserves on one (store, sku)
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := c.Reserve(ctx, handler.ReserveRequest{StoreID: storeID, SKU: sku, Qty: 1, Confirm: true})
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, domain.ErrConflict):
				conflictCount.Add(1)
			default:
				otherCount.Add(1)
				log.Printf("unexpected error: %v", err)
			}
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	success := int(successCount.Load())
	conflicts := int(conflictCount.Load())

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Store / SKU:      %s / %s\n", storeID, sku)
	fmt.Printf("Initial On Hand:  %d\n", initialOnHand)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Reserved:         %d\n", success)
	fmt.Printf("Conflicts:        %d\n", conflicts)
	fmt.Printf("Other Errors:     %d\n", otherCount.Load())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	finalOnHand, err := onHand(ctx, c)
	if err != nil {
		log.Fatalf("failed to read stock: %v", err)
	}
	fmt.Printf("Final On Hand:    %d\n", finalOnHand)

	failed := false
	if success > initialOnHand {
		fmt.Printf("FAIL: %d reservations exceed the %d units on hand\n", success, initialOnHand)
		failed = true
	}
	if finalOnHand != initialOnHand-success {
		fmt.Printf("FAIL: expected on_hand %d, got %d\n", initialOnHand-success, finalOnHand)
		failed = true
	}
	if failed {
		os.Exit(1)
	}
	fmt.Println("PASS: no overdraw")
}

func onHand(ctx context.Context, c *client.Client) (int, error) {
	lookup, err := c.Lookup(ctx, sku, storeID, 0.1)
	if err != nil {
		return 0, err
	}
	for _, s := range lookup.Stores {
		if s.StoreID == storeID {
			return s.OnHand, nil
		}
	}
	return 0, fmt.Errorf("no inventory row for %s at %s", sku, storeID)
}

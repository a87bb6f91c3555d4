package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rl1809/retail-ops/internal/core/domain"
	"github.com/rl1809/retail-ops/internal/port"
)

func setupMySQL(t *testing.T) *SQLStore {
	t.Helper()
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/retailops?parseTime=false"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	s, err := OpenMySQL(ctx, dsn)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.LoadDemoData(context.Background(), "testdata/demo"); err != nil {
		t.Fatalf("LoadDemoData() failed: %v", err)
	}
	return s
}

func TestOpenMySQL_RequiresDatabase(t *testing.T) {
	_, err := OpenMySQL(context.Background(), "root:root@tcp(localhost:3306)/")
	if err == nil {
		t.Fatal("expected error for DSN without database")
	}
}

func TestMySQL_ConcurrentReserve(t *testing.T) {
	s := setupMySQL(t)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		success atomic.Int32
	)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.InTx(ctx, func(tx port.Tx) error {
				ok, err := tx.ReserveInventory(ctx, "ST002", "ECL-RUN-SNK-WHT-08", 1, time.Now())
				if err != nil {
					return err
				}
				if ok {
					success.Add(1)
				}
				return nil
			})
		}()
	}
	wg.Wait()

	if success.Load() != 20 {
		t.Errorf("expected 20 reservations, got %d", success.Load())
	}

	var onHand int
	s.DB().QueryRowContext(ctx, `SELECT on_hand FROM inventory WHERE store_id = 'ST002' AND sku = 'ECL-RUN-SNK-WHT-08'`).Scan(&onHand)
	if onHand != 0 {
		t.Errorf("expected on_hand 0, got %d", onHand)
	}
}

func TestMySQL_ConcurrentTicketIDs(t *testing.T) {
	s := setupMySQL(t)
	ctx := context.Background()

	const writers = 10
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		ids        []string
		duplicates atomic.Int32
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			err := s.InTx(ctx, func(tx port.Tx) error {
				existing, err := tx.TicketIDs(ctx)
				if err != nil {
					return err
				}
				highest := 0
				for _, id := range existing {
					if num, ok := domain.TicketNumber(id); ok && num > highest {
						highest = num
					}
				}
				id := domain.FormatTicketID(highest + 1)
				if err := tx.InsertTicket(ctx, domain.Ticket{
					ID: id, OpenedDate: time.Now(), LocationID: "ST001", Category: "Ops",
					Severity: "low", Summary: fmt.Sprintf("writer %d", n), Status: domain.TicketStatusOpen,
					Channel: "api", Description: fmt.Sprintf("writer %d", n),
				}); err != nil {
					return err
				}
				mu.Lock()
				ids = append(ids, id)
				mu.Unlock()
				return nil
			})
			if errors.Is(err, port.ErrDuplicateKey) {
				duplicates.Add(1)
			} else if err != nil {
				t.Errorf("ticket tx failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	sort.Strings(ids)
	for i := 1; i < len(ids); i++ {
		if ids[i] == ids[i-1] {
			t.Errorf("duplicate ticket id %s", ids[i])
		}
	}
	if len(ids)+int(duplicates.Load()) != writers {
		t.Errorf("expected %d outcomes, got %d ids and %d duplicates", writers, len(ids), duplicates.Load())
	}
}

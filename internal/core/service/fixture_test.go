package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rl1809/retail-ops/internal/adapter/storage"
	"github.com/rl1809/retail-ops/internal/core/domain"
	"github.com/rl1809/retail-ops/internal/core/geo"
	"github.com/rl1809/retail-ops/internal/core/service"
)

const (
	heroSKU    = "AST-LIN-BLZ-SND-M"
	sneakerSKU = "ECL-RUN-SNK-WHT-08"
)

var lastUpdated = time.Date(2026, 2, 22, 0, 0, 0, 0, time.UTC)

func demoSnapshot() *storage.Snapshot {
	return &storage.Snapshot{
		Locations: []domain.Location{
			{ID: "ST001", Name: "SoHo Flagship", City: "New York", State: "NY", Region: "Northeast", Latitude: 40.7233, Longitude: -74.0030},
			{ID: "ST002", Name: "Chelsea Market", City: "New York", State: "NY", Region: "Northeast", Latitude: 40.7422, Longitude: -74.0060},
			{ID: "ST003", Name: "Brooklyn Heights", City: "Brooklyn", State: "NY", Region: "Northeast", Latitude: 40.6959, Longitude: -73.9952},
			{ID: "ST004", Name: "Upper East Side", City: "New York", State: "NY", Region: "Northeast", Latitude: 40.7736, Longitude: -73.9566},
			{ID: "ST007", Name: "Boston Back Bay", City: "Boston", State: "MA", Region: "Northeast", Latitude: 42.3503, Longitude: -71.0810},
		},
		Products: []domain.Product{
			{SKU: heroSKU, StyleID: "AST-LIN-BLZ", Name: "Aster Linen Blazer", Category: "Apparel", Subcategory: "Outerwear", Color: "Sand", Size: "M", Season: "Spring 2026", UnitPrice: 148},
			{SKU: sneakerSKU, StyleID: "ECL-RUN-SNK", Name: "Eclipse Runner Sneaker", Category: "Footwear", Subcategory: "Sneakers", Color: "White", Size: "08", Season: "Core", UnitPrice: 98},
		},
		Inventory: []domain.InventoryRecord{
			{LocationID: "ST001", SKU: heroSKU, OnHand: 0, ReorderPoint: 5, LastUpdated: lastUpdated},
			{LocationID: "ST002", SKU: heroSKU, OnHand: 4, ReorderPoint: 5, LastUpdated: lastUpdated},
			{LocationID: "ST003", SKU: heroSKU, OnHand: 2, ReorderPoint: 5, LastUpdated: lastUpdated},
			{LocationID: "ST004", SKU: heroSKU, OnHand: 1, ReorderPoint: 5, LastUpdated: lastUpdated},
			{LocationID: "ST007", SKU: heroSKU, OnHand: 6, Reserved: 1, ReorderPoint: 5, LastUpdated: lastUpdated},
			{LocationID: "ST002", SKU: sneakerSKU, OnHand: 20, Reserved: 2, ReorderPoint: 8, LastUpdated: lastUpdated},
		},
		Tickets: []domain.Ticket{
			{ID: "TCKT0001", OpenedDate: lastUpdated, LocationID: "ST001", Category: "POS Sync Failure", Severity: "high", Summary: "Register sync timeout", Status: "open", Channel: "store_portal", Description: "Register sync timeout"},
			{ID: "TCKT0007", OpenedDate: lastUpdated, LocationID: "ST003", Category: "BOPIS Pickup Delay", Severity: "medium", Summary: "Pickup handoff late", Status: "in_progress", Channel: "email", Description: "Pickup handoff late"},
		},
	}
}

// fakeClock is a settable clock shared by a gateway and its ledger.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	store   *storage.SQLStore
	gateway *service.Gateway
	clock   *fakeClock
}

func openStore(t *testing.T, path string) *storage.SQLStore {
	t.Helper()
	store, err := storage.OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func gatewayFor(t *testing.T, store *storage.SQLStore, clock *fakeClock, opts ...service.Option) *service.Gateway {
	t.Helper()
	ctx := context.Background()
	locations, err := store.Locations(ctx)
	require.NoError(t, err)
	products, err := store.Products(ctx)
	require.NoError(t, err)

	opts = append([]service.Option{service.WithClock(clock.Now)}, opts...)
	return service.NewGateway(store, domain.NewCatalog(products), geo.NewIndex(locations), opts...)
}

func newFixture(t *testing.T, opts ...service.Option) *fixture {
	t.Helper()
	store := openStore(t, ":memory:")
	require.NoError(t, store.Replace(context.Background(), demoSnapshot()))
	clock := newFakeClock()
	return &fixture{store: store, gateway: gatewayFor(t, store, clock, opts...), clock: clock}
}

func (f *fixture) inventory(t *testing.T, locationID, sku string) (onHand, reserved int) {
	t.Helper()
	err := f.store.DB().QueryRow(
		`SELECT on_hand, reserved FROM inventory WHERE store_id = ? AND sku = ?`, locationID, sku,
	).Scan(&onHand, &reserved)
	require.NoError(t, err)
	return onHand, reserved
}

func (f *fixture) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, f.store.DB().QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}

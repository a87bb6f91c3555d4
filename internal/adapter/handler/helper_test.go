package handler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rl1809/retail-ops/internal/adapter/storage"
	"github.com/rl1809/retail-ops/internal/core/domain"
	"github.com/rl1809/retail-ops/internal/core/geo"
	"github.com/rl1809/retail-ops/internal/core/service"
)

const heroSKU = "AST-LIN-BLZ-SND-M"

func testGateway(t *testing.T) (*service.Gateway, *storage.SQLStore) {
	t.Helper()
	ctx := context.Background()
	day := time.Date(2026, 2, 22, 0, 0, 0, 0, time.UTC)

	snap := &storage.Snapshot{
		Locations: []domain.Location{
			{ID: "ST001", Name: "SoHo Flagship", City: "New York", State: "NY", Region: "Northeast", Latitude: 40.7233, Longitude: -74.0030},
			{ID: "ST002", Name: "Chelsea Market", City: "New York", State: "NY", Region: "Northeast", Latitude: 40.7422, Longitude: -74.0060},
			{ID: "ST003", Name: "Brooklyn Heights", City: "Brooklyn", State: "NY", Region: "Northeast", Latitude: 40.6959, Longitude: -73.9952},
		},
		Products: []domain.Product{
			{SKU: heroSKU, StyleID: "AST-LIN-BLZ", Name: "Aster Linen Blazer", Category: "Apparel", Subcategory: "Outerwear", Color: "Sand", Size: "M", Season: "Spring 2026", UnitPrice: 148},
		},
		Inventory: []domain.InventoryRecord{
			{LocationID: "ST001", SKU: heroSKU, OnHand: 0, ReorderPoint: 5, LastUpdated: day},
			{LocationID: "ST002", SKU: heroSKU, OnHand: 4, ReorderPoint: 5, LastUpdated: day},
			{LocationID: "ST003", SKU: heroSKU, OnHand: 2, ReorderPoint: 1, LastUpdated: day},
		},
		Tickets: []domain.Ticket{
			{ID: "TCKT0001", OpenedDate: day, LocationID: "ST001", Category: "POS", Severity: "high", Summary: "Register down", Status: "open", Channel: "store_portal", Description: "Register down"},
		},
	}

	store, err := storage.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Replace(ctx, snap))

	g := service.NewGateway(store, domain.NewCatalog(snap.Products), geo.NewIndex(snap.Locations))
	return g, store
}

package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/retail-ops/internal/adapter/handler"
	"github.com/rl1809/retail-ops/internal/adapter/storage"
	"github.com/rl1809/retail-ops/internal/core/domain"
	"github.com/rl1809/retail-ops/internal/core/geo"
	"github.com/rl1809/retail-ops/internal/core/service"
)

const heroSKU = "AST-LIN-BLZ-SND-M"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()
	day := time.Date(2026, 2, 22, 0, 0, 0, 0, time.UTC)
	snap := &storage.Snapshot{
		Locations: []domain.Location{
			{ID: "ST001", Name: "SoHo Flagship", City: "New York", State: "NY", Region: "Northeast", Latitude: 40.7233, Longitude: -74.0030},
			{ID: "ST002", Name: "Chelsea Market", City: "New York", State: "NY", Region: "Northeast", Latitude: 40.7422, Longitude: -74.0060},
		},
		Products: []domain.Product{{SKU: heroSKU, Name: "Aster Linen Blazer", UnitPrice: 148}},
		Inventory: []domain.InventoryRecord{
			{LocationID: "ST001", SKU: heroSKU, OnHand: 0, ReorderPoint: 5, LastUpdated: day},
			{LocationID: "ST002", SKU: heroSKU, OnHand: 4, ReorderPoint: 5, LastUpdated: day},
		},
	}

	store, err := storage.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Replace(ctx, snap))

	g := service.NewGateway(store, domain.NewCatalog(snap.Products), geo.NewIndex(snap.Locations))
	srv := httptest.NewServer(handler.NewRouter(handler.NewHTTPHandler(g, nil), nil))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_GoldenPath(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	c := New(srv.URL+"/", domain.RoleAssociate)

	health, err := c.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", health.Status)

	lookup, err := c.Lookup(ctx, heroSKU, "ST001", 10)
	require.NoError(t, err)
	require.Len(t, lookup.Stores, 2)
	assert.Equal(t, 10.0, lookup.RadiusMiles)

	preview, err := c.Reserve(ctx, handler.ReserveRequest{StoreID: "ST002", SKU: heroSKU, Qty: 1})
	require.NoError(t, err)
	assert.Equal(t, handler.StatusPreview, preview.Status)

	applied, err := c.Reserve(ctx, handler.ReserveRequest{StoreID: "ST002", SKU: heroSKU, Qty: 1, ConfirmToken: preview.ConfirmToken})
	require.NoError(t, err)
	assert.Equal(t, handler.StatusReserved, applied.Status)

	merch := c.WithRole(domain.RoleMerch)
	transfer, err := merch.Transfer(ctx, handler.TransferRequest{FromStore: "ST002", ToStore: "ST001", SKU: heroSKU, Qty: 1, Confirm: true})
	require.NoError(t, err)
	assert.Equal(t, handler.StatusCreated, transfer.Status)

	ticket, err := c.CreateTicket(ctx, handler.TicketRequest{StoreID: "ST001", Category: "Inventory", Severity: "low", Description: "Blazer transfer inbound"})
	require.NoError(t, err)
	assert.Equal(t, "TCKT0001", ticket.TicketID)

	got, err := c.Ticket(ctx, ticket.TicketID)
	require.NoError(t, err)
	assert.Equal(t, "Blazer transfer inbound", got.Description)

	audit, err := c.AuditLog(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, audit.Count)

	product, err := c.Product(ctx, heroSKU)
	require.NoError(t, err)
	assert.Equal(t, 148.0, product.UnitPrice)

	reorder, err := merch.Reorder(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, reorder.Count)
}

func TestClient_APIError(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	_, err := New(srv.URL, domain.RoleAssociate).Transfer(ctx, handler.TransferRequest{FromStore: "ST002", ToStore: "ST001", SKU: heroSKU, Qty: 1})
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.ErrorIs(t, err, domain.ErrAuthorization)

	_, err = New(srv.URL, "").AuditLog(ctx)
	assert.ErrorIs(t, err, domain.ErrAuthentication)

	_, err = New(srv.URL, domain.RoleAssociate).Reserve(ctx, handler.ReserveRequest{StoreID: "ST001", SKU: heroSKU, Qty: 1, Confirm: true})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestClient_TransportError(t *testing.T) {
	c := New("http://127.0.0.1:1", domain.RoleAssociate)
	_, err := c.Health(context.Background())
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

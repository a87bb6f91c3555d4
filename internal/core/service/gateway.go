package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/retail-ops/internal/core/domain"
	"github.com/rl1809/retail-ops/internal/core/geo"
	"github.com/rl1809/retail-ops/internal/port"
)

const (
	MinQty          = 1
	MaxQty          = 20
	DefaultTokenTTL = 900 * time.Second
)

// Gateway is the only entry point callers use. Every action validates its
// input and role before it touches the confirmation ledger or any state.
//
// The role argument of each action is the caller's assertion, typically a
// request header. It gates actions coarsely and proves nothing about who the
// caller is.
type Gateway struct {
	db        port.DatabaseRepository
	catalog   port.CatalogProvider
	products  *domain.Catalog
	locations *geo.Index
	ledger    *Ledger
	tokenTTL  time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

type Option func(*Gateway)

func WithLogger(logger *zap.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithClock replaces time.Now for the gateway and its ledger.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) {
		if now != nil {
			g.now = now
		}
	}
}

func WithTokenTTL(ttl time.Duration) Option {
	return func(g *Gateway) {
		if ttl > 0 {
			g.tokenTTL = ttl
		}
	}
}

// WithCatalogProvider overrides the SKU existence check, e.g. with a shared Redis set.
func WithCatalogProvider(catalog port.CatalogProvider) Option {
	return func(g *Gateway) {
		if catalog != nil {
			g.catalog = catalog
		}
	}
}

func NewGateway(db port.DatabaseRepository, products *domain.Catalog, locations *geo.Index, opts ...Option) *Gateway {
	g := &Gateway{
		db:        db,
		catalog:   products,
		products:  products,
		locations: locations,
		tokenTTL:  DefaultTokenTTL,
		now:       time.Now,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.ledger = NewLedger(g.tokenTTL, g.now)
	return g
}

func (g *Gateway) authenticate(role domain.Role) error {
	if role == "" {
		return domain.Authenticationf("missing role assertion")
	}
	if !role.Valid() {
		return domain.Authenticationf("invalid role %q", role)
	}
	return nil
}

func (g *Gateway) validateSKU(ctx context.Context, sku string) error {
	ok, err := g.catalog.HasSKU(ctx, sku)
	if err != nil {
		return fmt.Errorf("catalog lookup: %w", err)
	}
	if !ok {
		return domain.Validationf("unknown SKU %q", sku)
	}
	return nil
}

func validateQty(qty int) error {
	if qty < MinQty || qty > MaxQty {
		return domain.Validationf("qty must be between %d and %d, got %d", MinQty, MaxQty, qty)
	}
	return nil
}

// Product returns the catalog entry for sku.
func (g *Gateway) Product(ctx context.Context, role domain.Role, sku string) (domain.Product, error) {
	if err := g.authenticate(role); err != nil {
		return domain.Product{}, err
	}
	p, ok := g.products.Product(sku)
	if !ok {
		return domain.Product{}, domain.NotFoundf("product not found: %s", sku)
	}
	return p, nil
}

// ReorderReport lists records whose available units are at or below their reorder point.
func (g *Gateway) ReorderReport(ctx context.Context, role domain.Role) ([]domain.InventoryRecord, error) {
	if err := g.authenticate(role); err != nil {
		return nil, err
	}
	return g.LowStock(ctx)
}

// LowStock is ReorderReport without a role check, for in-process jobs.
func (g *Gateway) LowStock(ctx context.Context) ([]domain.InventoryRecord, error) {
	var records []domain.InventoryRecord
	err := g.db.InTx(ctx, func(tx port.Tx) error {
		var err error
		records, err = tx.LowStock(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func shortToken(token string) string {
	if len(token) <= 6 {
		return token
	}
	return token[:6] + "…"
}

type HealthStatus struct {
	Status    string
	Locations int
	Products  int
}

// Health reports whether the store answers. It needs no role.
func (g *Gateway) Health(ctx context.Context) (HealthStatus, error) {
	if err := g.db.Ping(ctx); err != nil {
		return HealthStatus{Status: "unavailable"}, fmt.Errorf("ping store: %w", err)
	}
	return HealthStatus{
		Status:    "ok",
		Locations: g.locations.Len(),
		Products:  g.products.Len(),
	}, nil
}

package service

import (
	"context"
	"math"
	"time"

	"github.com/rl1809/retail-ops/internal/core/domain"
	"github.com/rl1809/retail-ops/internal/port"
)

type LookupRequest struct {
	Role        domain.Role
	SKU         string
	LocationID  string
	RadiusMiles float64
}

type NearbyStock struct {
	Location      domain.Location
	DistanceMiles float64
	OnHand        int
	Reserved      int
	Available     int
	LastUpdated   time.Time
}

type LookupResult struct {
	SKU         string
	LocationID  string
	RadiusMiles float64
	Locations   []NearbyStock
}

// Lookup finds every location within the radius that carries the SKU,
// nearest first. It never mutates state.
func (g *Gateway) Lookup(ctx context.Context, req LookupRequest) (*LookupResult, error) {
	if err := g.authenticate(req.Role); err != nil {
		return nil, err
	}
	if err := g.validateSKU(ctx, req.SKU); err != nil {
		return nil, err
	}
	if !(req.RadiusMiles > 0) {
		return nil, domain.Validationf("radius_miles must be greater than 0")
	}
	if _, ok := g.locations.Get(req.LocationID); !ok {
		return nil, domain.NotFoundf("store not found: %s", req.LocationID)
	}

	var records []domain.InventoryRecord
	err := g.db.InTx(ctx, func(tx port.Tx) error {
		var err error
		records, err = tx.InventoryBySKU(ctx, req.SKU)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, domain.NotFoundf("SKU not found in inventory: %s", req.SKU)
	}

	byLocation := make(map[string]domain.InventoryRecord, len(records))
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		byLocation[rec.LocationID] = rec
		ids = append(ids, rec.LocationID)
	}

	result := &LookupResult{
		SKU:         req.SKU,
		LocationID:  req.LocationID,
		RadiusMiles: req.RadiusMiles,
		Locations:   []NearbyStock{},
	}
	for _, n := range g.locations.Within(req.LocationID, req.RadiusMiles, ids) {
		rec := byLocation[n.Location.ID]
		result.Locations = append(result.Locations, NearbyStock{
			Location:      n.Location,
			DistanceMiles: math.Round(n.DistanceMiles*100) / 100,
			OnHand:        rec.OnHand,
			Reserved:      rec.Reserved,
			Available:     rec.Available(),
			LastUpdated:   rec.LastUpdated,
		})
	}
	return result, nil
}

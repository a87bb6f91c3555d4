package domain

import "time"

type InventoryRecord struct {
	LocationID   string
	SKU          string
	OnHand       int
	Reserved     int
	ReorderPoint int
	LastUpdated  time.Time
}

// Available is derived and never stored.
func (r InventoryRecord) Available() int {
	return r.OnHand - r.Reserved
}

package port

import "context"

type CatalogProvider interface {
	// HasSKU reports whether sku exists in the catalog
	HasSKU(ctx context.Context, sku string) (bool, error)
}

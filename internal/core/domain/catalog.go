package domain

import (
	"context"
	"sort"
)

type Product struct {
	SKU         string
	StyleID     string
	Name        string
	Category    string
	Subcategory string
	Color       string
	Size        string
	Season      string
	UnitPrice   float64
}

// Catalog is the immutable SKU set built once at startup.
type Catalog struct {
	products map[string]Product
}

func NewCatalog(products []Product) *Catalog {
	c := &Catalog{products: make(map[string]Product, len(products))}
	for _, p := range products {
		c.products[p.SKU] = p
	}
	return c
}

func (c *Catalog) HasSKU(_ context.Context, sku string) (bool, error) {
	_, ok := c.products[sku]
	return ok, nil
}

func (c *Catalog) Product(sku string) (Product, bool) {
	p, ok := c.products[sku]
	return p, ok
}

// SKUs returns every SKU in ascending order.
func (c *Catalog) SKUs() []string {
	skus := make([]string, 0, len(c.products))
	for sku := range c.products {
		skus = append(skus, sku)
	}
	sort.Strings(skus)
	return skus
}

func (c *Catalog) Len() int {
	return len(c.products)
}

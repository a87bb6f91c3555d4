package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rl1809/retail-ops/internal/core/domain"
)

// Snapshot is the tabular demo state that replaces everything persisted.
type Snapshot struct {
	Locations []domain.Location
	Products  []domain.Product
	Inventory []domain.InventoryRecord
	Tickets   []domain.Ticket
}

// ReadSnapshot parses stores.csv, products.csv, inventory.csv and tickets.csv from dir.
func ReadSnapshot(dir string) (*Snapshot, error) {
	snap := &Snapshot{}

	stores, err := readCSV(dir, "stores.csv")
	if err != nil {
		return nil, err
	}
	for _, row := range stores {
		lat, err := row.parseFloat("latitude")
		if err != nil {
			return nil, err
		}
		lon, err := row.parseFloat("longitude")
		if err != nil {
			return nil, err
		}
		snap.Locations = append(snap.Locations, domain.Location{
			ID:        row.get("store_id"),
			Name:      row.get("store_name"),
			City:      row.get("city"),
			State:     row.get("state"),
			Region:    row.get("region"),
			Latitude:  lat,
			Longitude: lon,
		})
	}

	products, err := readCSV(dir, "products.csv")
	if err != nil {
		return nil, err
	}
	for _, row := range products {
		price, err := row.parseFloat("unit_price")
		if err != nil {
			return nil, err
		}
		snap.Products = append(snap.Products, domain.Product{
			SKU:         row.get("sku"),
			StyleID:     row.get("style_id"),
			Name:        row.get("product_name"),
			Category:    row.get("category"),
			Subcategory: row.get("subcategory"),
			Color:       row.get("color"),
			Size:        row.get("size"),
			Season:      row.get("season"),
			UnitPrice:   price,
		})
	}

	inventory, err := readCSV(dir, "inventory.csv")
	if err != nil {
		return nil, err
	}
	for _, row := range inventory {
		rec := domain.InventoryRecord{LocationID: row.get("store_id"), SKU: row.get("sku")}
		if rec.OnHand, err = row.atoi("on_hand"); err != nil {
			return nil, err
		}
		if rec.Reserved, err = row.atoi("reserved"); err != nil {
			return nil, err
		}
		if rec.ReorderPoint, err = row.atoi("reorder_point"); err != nil {
			return nil, err
		}
		if rec.OnHand < 0 || rec.Reserved < 0 {
			return nil, row.errorf("negative on_hand or reserved")
		}
		if rec.LastUpdated, err = parseTimestamp(row.get("last_updated")); err != nil {
			return nil, row.errorf("%v", err)
		}
		snap.Inventory = append(snap.Inventory, rec)
	}

	tickets, err := readCSV(dir, "tickets.csv")
	if err != nil {
		return nil, err
	}
	for _, row := range tickets {
		opened, err := parseTimestamp(row.get("opened_date"))
		if err != nil {
			return nil, row.errorf("%v", err)
		}
		description := row.get("description")
		if description == "" {
			description = row.get("summary")
		}
		snap.Tickets = append(snap.Tickets, domain.Ticket{
			ID:          row.get("ticket_id"),
			OpenedDate:  opened,
			LocationID:  row.get("store_id"),
			Category:    row.get("category"),
			Severity:    row.get("severity"),
			Summary:     row.get("summary"),
			Status:      row.get("status"),
			Channel:     row.get("channel"),
			Description: description,
		})
	}

	return snap, nil
}

// LoadDemoData reads the snapshot in dir and wholesale-replaces persisted state with it.
func (s *SQLStore) LoadDemoData(ctx context.Context, dir string) error {
	snap, err := ReadSnapshot(dir)
	if err != nil {
		return err
	}
	return s.Replace(ctx, snap)
}

// Replace deletes every row in every table, tokens and audit log included,
// then inserts snap, all in one transaction.
func (s *SQLStore) Replace(ctx context.Context, snap *Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// Children before parents for the foreign keys.
	tables := []string{
		"inbound_transfers", "transfers", "audit_log", "confirm_tokens",
		"tickets", "inventory", "products", "stores",
	}
	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, loc := range snap.Locations {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO stores (store_id, store_name, city, state, region, latitude, longitude)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			loc.ID, loc.Name, loc.City, loc.State, loc.Region, loc.Latitude, loc.Longitude,
		); err != nil {
			return fmt.Errorf("insert store %s: %w", loc.ID, err)
		}
	}

	for _, p := range snap.Products {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO products (sku, style_id, product_name, category, subcategory, color, size, season, unit_price)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.SKU, p.StyleID, p.Name, p.Category, p.Subcategory, p.Color, p.Size, p.Season, p.UnitPrice,
		); err != nil {
			return fmt.Errorf("insert product %s: %w", p.SKU, err)
		}
	}

	for _, rec := range snap.Inventory {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO inventory (store_id, sku, on_hand, reserved, reorder_point, last_updated)
			VALUES (?, ?, ?, ?, ?, ?)`,
			rec.LocationID, rec.SKU, rec.OnHand, rec.Reserved, rec.ReorderPoint, formatTimestamp(rec.LastUpdated),
		); err != nil {
			return fmt.Errorf("insert inventory %s/%s: %w", rec.LocationID, rec.SKU, err)
		}
	}

	for _, tk := range snap.Tickets {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO tickets (ticket_id, opened_date, store_id, category, summary, severity, status, channel, description)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			tk.ID, tk.OpenedDate.Format(dateLayout), tk.LocationID, tk.Category, tk.Summary,
			tk.Severity, tk.Status, tk.Channel, tk.Description,
		); err != nil {
			return fmt.Errorf("insert ticket %s: %w", tk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type csvRow struct {
	file   string
	line   int
	values map[string]string
}

func (r csvRow) get(col string) string {
	return r.values[col]
}

func (r csvRow) errorf(format string, args ...any) error {
	return fmt.Errorf("%s:%d: %s", r.file, r.line, fmt.Sprintf(format, args...))
}

func (r csvRow) atoi(col string) (int, error) {
	n, err := strconv.Atoi(r.values[col])
	if err != nil {
		return 0, r.errorf("column %s: %v", col, err)
	}
	return n, nil
}

func (r csvRow) parseFloat(col string) (float64, error) {
	f, err := strconv.ParseFloat(r.values[col], 64)
	if err != nil {
		return 0, r.errorf("column %s: %v", col, err)
	}
	return f, nil
}

func readCSV(dir, name string) ([]csvRow, error) {
	path := filepath.Join(dir, name)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("required CSV file not found: %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", name, err)
	}

	var rows []csvRow
	line := 1
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		values := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				values[col] = record[i]
			}
		}
		rows = append(rows, csvRow{file: name, line: line, values: values})
	}
	return rows, nil
}

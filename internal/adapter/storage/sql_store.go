package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rl1809/retail-ops/internal/core/domain"
	"github.com/rl1809/retail-ops/internal/port"
)

const dateLayout = "2006-01-02"

// dialect captures what differs between the MySQL and SQLite backends.
type dialect struct {
	name        string
	schema      []string
	lockSuffix  string
	isDuplicate func(error) bool
}

// SQLStore is the relational implementation of port.DatabaseRepository.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
}

func newSQLStore(db *sql.DB, d dialect) *SQLStore {
	return &SQLStore{db: db, dialect: d}
}

// DB exposes the pool for tests and tooling.
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

func (s *SQLStore) Driver() string {
	return s.dialect.name
}

func (s *SQLStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) applySchema(ctx context.Context) error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

func (s *SQLStore) InTx(ctx context.Context, fn func(tx port.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&sqlTx{tx: tx, dialect: s.dialect}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLStore) Locations(ctx context.Context) ([]domain.Location, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT store_id, store_name, city, state, region, latitude, longitude
		FROM stores ORDER BY store_id`)
	if err != nil {
		return nil, fmt.Errorf("query stores: %w", err)
	}
	defer rows.Close()

	var out []domain.Location
	for rows.Next() {
		var loc domain.Location
		if err := rows.Scan(&loc.ID, &loc.Name, &loc.City, &loc.State, &loc.Region, &loc.Latitude, &loc.Longitude); err != nil {
			return nil, fmt.Errorf("scan store: %w", err)
		}
		out = append(out, loc)
	}
	return out, rows.Err()
}

func (s *SQLStore) Products(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sku, style_id, product_name, category, subcategory, color, size, season, unit_price
		FROM products ORDER BY sku`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.SKU, &p.StyleID, &p.Name, &p.Category, &p.Subcategory, &p.Color, &p.Size, &p.Season, &p.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type sqlTx struct {
	tx      *sql.Tx
	dialect dialect
}

const inventoryColumns = `store_id, sku, on_hand, reserved, reorder_point, last_updated`

func scanInventory(scan func(dest ...any) error) (domain.InventoryRecord, error) {
	var rec domain.InventoryRecord
	var lastUpdated string
	if err := scan(&rec.LocationID, &rec.SKU, &rec.OnHand, &rec.Reserved, &rec.ReorderPoint, &lastUpdated); err != nil {
		return rec, err
	}
	t, err := parseTimestamp(lastUpdated)
	if err != nil {
		return rec, err
	}
	rec.LastUpdated = t
	return rec, nil
}

func (t *sqlTx) GetInventory(ctx context.Context, locationID, sku string) (*domain.InventoryRecord, error) {
	row := t.tx.QueryRowContext(ctx, `
		SELECT `+inventoryColumns+`
		FROM inventory WHERE store_id = ? AND sku = ?`, locationID, sku)

	rec, err := scanInventory(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query inventory: %w", err)
	}
	return &rec, nil
}

func (t *sqlTx) queryInventory(ctx context.Context, query string, args ...any) ([]domain.InventoryRecord, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query inventory: %w", err)
	}
	defer rows.Close()

	var out []domain.InventoryRecord
	for rows.Next() {
		rec, err := scanInventory(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan inventory: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (t *sqlTx) InventoryBySKU(ctx context.Context, sku string) ([]domain.InventoryRecord, error) {
	return t.queryInventory(ctx, `
		SELECT `+inventoryColumns+`
		FROM inventory WHERE sku = ? ORDER BY store_id`, sku)
}

func (t *sqlTx) LowStock(ctx context.Context) ([]domain.InventoryRecord, error) {
	return t.queryInventory(ctx, `
		SELECT `+inventoryColumns+`
		FROM inventory WHERE on_hand - reserved <= reorder_point
		ORDER BY store_id, sku`)
}

func (t *sqlTx) ReserveInventory(ctx context.Context, locationID, sku string, qty int, at time.Time) (bool, error) {
	result, err := t.tx.ExecContext(ctx, `
		UPDATE inventory
		SET on_hand = on_hand - ?, reserved = reserved + ?, last_updated = ?
		WHERE store_id = ? AND sku = ? AND on_hand >= ?`,
		qty, qty, formatTimestamp(at), locationID, sku, qty,
	)
	if err != nil {
		return false, fmt.Errorf("update inventory: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return rows == 1, nil
}

func (t *sqlTx) InsertToken(ctx context.Context, token domain.ConfirmationToken) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO confirm_tokens (token, action, payload_json, expires_at, used)
		VALUES (?, ?, ?, ?, 0)`,
		token.Token, string(token.Action), token.Payload, formatTimestamp(token.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

func (t *sqlTx) GetToken(ctx context.Context, token string) (*domain.ConfirmationToken, error) {
	var (
		out       domain.ConfirmationToken
		action    string
		expiresAt string
		used      int64
	)
	err := t.tx.QueryRowContext(ctx, `
		SELECT token, action, payload_json, expires_at, used
		FROM confirm_tokens WHERE token = ?`, token,
	).Scan(&out.Token, &action, &out.Payload, &expiresAt, &used)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query token: %w", err)
	}

	out.Action = domain.ActionKind(action)
	out.Used = used != 0
	out.ExpiresAt, err = parseTimestamp(expiresAt)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *sqlTx) MarkTokenUsed(ctx context.Context, token string) (bool, error) {
	result, err := t.tx.ExecContext(ctx, `
		UPDATE confirm_tokens SET used = 1
		WHERE token = ? AND used = 0`, token)
	if err != nil {
		return false, fmt.Errorf("update token: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return rows == 1, nil
}

func (t *sqlTx) InsertTransfer(ctx context.Context, tr domain.Transfer) (int64, error) {
	result, err := t.tx.ExecContext(ctx, `
		INSERT INTO transfers (from_store, to_store, sku, qty, status, created_at, created_by_role)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tr.FromLocation, tr.ToLocation, tr.SKU, tr.Qty, string(tr.Status),
		formatTimestamp(tr.CreatedAt), string(tr.CreatedByRole),
	)
	if err != nil {
		return 0, fmt.Errorf("insert transfer: %w", err)
	}
	return result.LastInsertId()
}

func (t *sqlTx) InsertInbound(ctx context.Context, in domain.InboundExpectation) (int64, error) {
	result, err := t.tx.ExecContext(ctx, `
		INSERT INTO inbound_transfers (transfer_id, store_id, sku, qty, expected_date, status)
		VALUES (?, ?, ?, ?, ?, ?)`,
		in.TransferID, in.LocationID, in.SKU, in.Qty, in.ExpectedDate.Format(dateLayout), string(in.Status),
	)
	if err != nil {
		return 0, fmt.Errorf("insert inbound: %w", err)
	}
	return result.LastInsertId()
}

func (t *sqlTx) TicketIDs(ctx context.Context) ([]string, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT ticket_id FROM tickets`+t.dialect.lockSuffix)
	if err != nil {
		return nil, fmt.Errorf("query ticket ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan ticket id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (t *sqlTx) InsertTicket(ctx context.Context, tk domain.Ticket) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO tickets (ticket_id, opened_date, store_id, category, summary, severity, status, channel, description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tk.ID, tk.OpenedDate.Format(dateLayout), tk.LocationID, tk.Category, tk.Summary,
		tk.Severity, tk.Status, tk.Channel, tk.Description,
	)
	if err != nil {
		if t.dialect.isDuplicate(err) {
			return fmt.Errorf("insert ticket %s: %w", tk.ID, port.ErrDuplicateKey)
		}
		return fmt.Errorf("insert ticket: %w", err)
	}
	return nil
}

func (t *sqlTx) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	var (
		tk     domain.Ticket
		opened string
	)
	err := t.tx.QueryRowContext(ctx, `
		SELECT ticket_id, opened_date, store_id, category, summary, severity, status, channel, description
		FROM tickets WHERE ticket_id = ?`, id,
	).Scan(&tk.ID, &opened, &tk.LocationID, &tk.Category, &tk.Summary, &tk.Severity, &tk.Status, &tk.Channel, &tk.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query ticket: %w", err)
	}
	tk.OpenedDate, err = parseTimestamp(opened)
	if err != nil {
		return nil, err
	}
	return &tk, nil
}

func (t *sqlTx) AppendAudit(ctx context.Context, entry domain.AuditEntry) (int64, error) {
	result, err := t.tx.ExecContext(ctx, `
		INSERT INTO audit_log (action, role, payload_json, created_at)
		VALUES (?, ?, ?, ?)`,
		string(entry.Action), string(entry.Role), entry.Payload, formatTimestamp(entry.CreatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("insert audit: %w", err)
	}
	return result.LastInsertId()
}

func (t *sqlTx) AuditEntries(ctx context.Context) ([]domain.AuditEntry, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT id, action, role, payload_json, created_at
		FROM audit_log ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	out := []domain.AuditEntry{}
	for rows.Next() {
		var (
			e            domain.AuditEntry
			action, role string
			createdAt    string
		)
		if err := rows.Scan(&e.ID, &action, &role, &e.Payload, &createdAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.Action = domain.ActionKind(action)
		e.Role = domain.Role(role)
		if e.CreatedAt, err = parseTimestamp(createdAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTimestamp accepts RFC 3339 timestamps and bare dates.
func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

package port

import (
	"context"
	"errors"
	"time"

	"github.com/rl1809/retail-ops/internal/core/domain"
)

// ErrDuplicateKey is returned when an insert collides with an existing primary key.
var ErrDuplicateKey = errors.New("duplicate key")

type DatabaseRepository interface {
	// InTx runs fn inside one unit of work; any error from fn rolls everything back
	InTx(ctx context.Context, fn func(tx Tx) error) error

	// Locations returns the static location catalog
	Locations(ctx context.Context) ([]domain.Location, error)

	// Products returns every catalog entry
	Products(ctx context.Context) ([]domain.Product, error)

	Ping(ctx context.Context) error
	Close() error
}

// Tx is valid only inside the InTx callback that received it.
type Tx interface {
	// GetInventory returns nil, nil when no record exists for (locationID, sku)
	GetInventory(ctx context.Context, locationID, sku string) (*domain.InventoryRecord, error)

	// InventoryBySKU returns every record carrying sku
	InventoryBySKU(ctx context.Context, sku string) ([]domain.InventoryRecord, error)

	// ReserveInventory moves qty from on_hand to reserved, returns false if on_hand < qty
	ReserveInventory(ctx context.Context, locationID, sku string, qty int, at time.Time) (bool, error)

	// LowStock returns records whose available units are at or below reorder point
	LowStock(ctx context.Context) ([]domain.InventoryRecord, error)

	InsertToken(ctx context.Context, token domain.ConfirmationToken) error

	// GetToken returns nil, nil for an unknown token
	GetToken(ctx context.Context, token string) (*domain.ConfirmationToken, error)

	// MarkTokenUsed flips used once, returns false if it was already set
	MarkTokenUsed(ctx context.Context, token string) (bool, error)

	InsertTransfer(ctx context.Context, transfer domain.Transfer) (int64, error)

	InsertInbound(ctx context.Context, inbound domain.InboundExpectation) (int64, error)

	// TicketIDs returns every stored ticket id and holds them until the unit of work ends
	TicketIDs(ctx context.Context) ([]string, error)

	InsertTicket(ctx context.Context, ticket domain.Ticket) error

	// GetTicket returns nil, nil for an unknown id
	GetTicket(ctx context.Context, id string) (*domain.Ticket, error)

	AppendAudit(ctx context.Context, entry domain.AuditEntry) (int64, error)

	// AuditEntries returns the full log oldest first
	AuditEntries(ctx context.Context) ([]domain.AuditEntry, error)
}

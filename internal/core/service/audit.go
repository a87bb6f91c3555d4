package service

import (
	"context"

	"github.com/rl1809/retail-ops/internal/core/domain"
	"github.com/rl1809/retail-ops/internal/port"
)

// AuditLog returns every committed mutation, oldest first.
func (g *Gateway) AuditLog(ctx context.Context, role domain.Role) ([]domain.AuditEntry, error) {
	if err := g.authenticate(role); err != nil {
		return nil, err
	}
	var entries []domain.AuditEntry
	err := g.db.InTx(ctx, func(tx port.Tx) error {
		var err error
		entries, err = tx.AuditEntries(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

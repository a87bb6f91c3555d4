package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/retail-ops/internal/core/canonical"
	"github.com/rl1809/retail-ops/internal/core/domain"
	"github.com/rl1809/retail-ops/internal/port"
)

type ReserveRequest struct {
	Role       domain.Role
	SKU        string
	LocationID string
	Qty        int
	Confirm    bool
	Token      string
}

type ReservePreview struct {
	Token         string
	ExpiresAt     time.Time
	CanReserve    bool
	OnHand        int
	Reserved      int
	OnHandAfter   int
	ReservedAfter int
}

// ReserveResult holds a preview or the post-state of an applied reservation, never both.
type ReserveResult struct {
	Preview *ReservePreview
	Record  *domain.InventoryRecord
}

func reservePayload(req ReserveRequest) map[string]any {
	return map[string]any{
		"sku":      req.SKU,
		"store_id": req.LocationID,
		"qty":      req.Qty,
	}
}

// Reserve holds qty units at a location. Without Confirm or Token it only
// previews and issues a token; with Token the token must redeem first.
func (g *Gateway) Reserve(ctx context.Context, req ReserveRequest) (*ReserveResult, error) {
	if err := g.authenticate(req.Role); err != nil {
		return nil, err
	}
	if err := g.validateSKU(ctx, req.SKU); err != nil {
		return nil, err
	}
	if err := validateQty(req.Qty); err != nil {
		return nil, err
	}

	payload := reservePayload(req)
	result := &ReserveResult{}

	err := g.db.InTx(ctx, func(tx port.Tx) error {
		rec, err := tx.GetInventory(ctx, req.LocationID, req.SKU)
		if err != nil {
			return fmt.Errorf("get inventory: %w", err)
		}
		if rec == nil {
			return domain.NotFoundf("inventory row not found for store %s and SKU %s", req.LocationID, req.SKU)
		}

		if !req.Confirm {
			if req.Token == "" {
				token, err := g.ledger.Issue(ctx, tx, domain.ActionReserve, payload)
				if err != nil {
					return err
				}
				result.Preview = &ReservePreview{
					Token:         token.Token,
					ExpiresAt:     token.ExpiresAt,
					CanReserve:    rec.OnHand >= req.Qty,
					OnHand:        rec.OnHand,
					Reserved:      rec.Reserved,
					OnHandAfter:   rec.OnHand - req.Qty,
					ReservedAfter: rec.Reserved + req.Qty,
				}
				return nil
			}
			if err := g.ledger.Redeem(ctx, tx, req.Token, domain.ActionReserve, payload); err != nil {
				return err
			}
		}

		ok, err := tx.ReserveInventory(ctx, req.LocationID, req.SKU, req.Qty, g.now().UTC())
		if err != nil {
			return fmt.Errorf("reserve inventory: %w", err)
		}
		if !ok {
			return domain.Conflictf("insufficient on_hand inventory to reserve %d", req.Qty)
		}

		updated, err := tx.GetInventory(ctx, req.LocationID, req.SKU)
		if err != nil {
			return fmt.Errorf("reload inventory: %w", err)
		}
		if updated == nil {
			return fmt.Errorf("inventory row vanished for store %s and SKU %s", req.LocationID, req.SKU)
		}

		if err := g.appendAudit(ctx, tx, domain.ActionReserve, req.Role, withConfirmed(payload)); err != nil {
			return err
		}
		result.Record = updated
		return nil
	})
	if err != nil {
		g.logRejected(domain.ActionReserve, req.Role, req.Token, err)
		return nil, err
	}

	if result.Record != nil {
		g.logger.Info("inventory reserved",
			zap.String("store_id", req.LocationID),
			zap.String("sku", req.SKU),
			zap.Int("qty", req.Qty),
			zap.Int("on_hand", result.Record.OnHand),
			zap.Int("reserved", result.Record.Reserved),
			zap.String("role", string(req.Role)))
	}
	return result, nil
}

func withConfirmed(payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		out[k] = v
	}
	out["confirmed"] = true
	return out
}

func (g *Gateway) appendAudit(ctx context.Context, tx port.Tx, action domain.ActionKind, role domain.Role, payload map[string]any) error {
	snapshot, err := canonical.Marshal(payload)
	if err != nil {
		return fmt.Errorf("audit payload: %w", err)
	}
	_, err = tx.AppendAudit(ctx, domain.AuditEntry{
		Action:    action,
		Role:      role,
		Payload:   snapshot,
		CreatedAt: g.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("append audit: %w", err)
	}
	return nil
}

func (g *Gateway) logRejected(action domain.ActionKind, role domain.Role, token string, err error) {
	kind := domain.KindOf(err)
	fields := []zap.Field{
		zap.String("action", string(action)),
		zap.String("role", string(role)),
		zap.String("kind", string(kind)),
		zap.Error(err),
	}
	if token != "" {
		fields = append(fields, zap.String("token", shortToken(token)))
	}
	if kind == domain.KindInternal {
		g.logger.Error("action failed", fields...)
		return
	}
	g.logger.Warn("action rejected", fields...)
}

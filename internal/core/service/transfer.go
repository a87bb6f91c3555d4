package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/retail-ops/internal/core/domain"
	"github.com/rl1809/retail-ops/internal/port"
)

const (
	inboundLeadTime = 48 * time.Hour
	transferNote    = "Transfer creates inbound record; source on_hand remains unchanged immediately."
)

type TransferRequest struct {
	Role         domain.Role
	FromLocation string
	ToLocation   string
	SKU          string
	Qty          int
	Confirm      bool
	Token        string
}

type TransferPreview struct {
	Token        string
	ExpiresAt    time.Time
	CanTransfer  bool
	SourceOnHand int
	Note         string
}

type TransferResult struct {
	Preview  *TransferPreview
	Transfer *domain.Transfer
	Inbound  *domain.InboundExpectation
}

func transferPayload(req TransferRequest) map[string]any {
	return map[string]any{
		"from_store": req.FromLocation,
		"to_store":   req.ToLocation,
		"sku":        req.SKU,
		"qty":        req.Qty,
	}
}

// CreateTransfer records a transfer request and the inbound expectation at the
// destination. Neither location's inventory record is changed; reconciling
// stock is left to a downstream process.
func (g *Gateway) CreateTransfer(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	if err := g.authenticate(req.Role); err != nil {
		return nil, err
	}
	if req.Role != domain.RoleMerch {
		return nil, domain.Authorizationf("only merch role can create transfers")
	}
	if err := g.validateSKU(ctx, req.SKU); err != nil {
		return nil, err
	}
	if err := validateQty(req.Qty); err != nil {
		return nil, err
	}
	if req.FromLocation == req.ToLocation {
		return nil, domain.Validationf("from_store and to_store must differ")
	}

	payload := transferPayload(req)
	result := &TransferResult{}

	err := g.db.InTx(ctx, func(tx port.Tx) error {
		source, err := tx.GetInventory(ctx, req.FromLocation, req.SKU)
		if err != nil {
			return fmt.Errorf("get source inventory: %w", err)
		}
		target, err := tx.GetInventory(ctx, req.ToLocation, req.SKU)
		if err != nil {
			return fmt.Errorf("get target inventory: %w", err)
		}
		if source == nil {
			return domain.NotFoundf("source inventory row not found")
		}
		if target == nil {
			return domain.NotFoundf("target inventory row not found")
		}

		if !req.Confirm {
			if req.Token == "" {
				token, err := g.ledger.Issue(ctx, tx, domain.ActionTransfer, payload)
				if err != nil {
					return err
				}
				result.Preview = &TransferPreview{
					Token:        token.Token,
					ExpiresAt:    token.ExpiresAt,
					CanTransfer:  source.OnHand >= req.Qty,
					SourceOnHand: source.OnHand,
					Note:         transferNote,
				}
				return nil
			}
			if err := g.ledger.Redeem(ctx, tx, req.Token, domain.ActionTransfer, payload); err != nil {
				return err
			}
		}

		if source.OnHand < req.Qty {
			return domain.Conflictf("insufficient source on_hand inventory for transfer")
		}

		now := g.now().UTC()
		transfer := domain.Transfer{
			FromLocation:  req.FromLocation,
			ToLocation:    req.ToLocation,
			SKU:           req.SKU,
			Qty:           req.Qty,
			Status:        domain.TransferStatusPending,
			CreatedAt:     now,
			CreatedByRole: req.Role,
		}
		transfer.ID, err = tx.InsertTransfer(ctx, transfer)
		if err != nil {
			return fmt.Errorf("insert transfer: %w", err)
		}

		expected := now.Add(inboundLeadTime)
		inbound := domain.InboundExpectation{
			TransferID:   transfer.ID,
			LocationID:   req.ToLocation,
			SKU:          req.SKU,
			Qty:          req.Qty,
			ExpectedDate: time.Date(expected.Year(), expected.Month(), expected.Day(), 0, 0, 0, 0, time.UTC),
			Status:       domain.InboundStatusInboundPending,
		}
		inbound.ID, err = tx.InsertInbound(ctx, inbound)
		if err != nil {
			return fmt.Errorf("insert inbound: %w", err)
		}

		if err := g.appendAudit(ctx, tx, domain.ActionTransfer, req.Role, withConfirmed(payload)); err != nil {
			return err
		}
		result.Transfer = &transfer
		result.Inbound = &inbound
		return nil
	})
	if err != nil {
		g.logRejected(domain.ActionTransfer, req.Role, req.Token, err)
		return nil, err
	}

	if result.Transfer != nil {
		g.logger.Info("transfer created",
			zap.Int64("transfer_id", result.Transfer.ID),
			zap.String("from_store", req.FromLocation),
			zap.String("to_store", req.ToLocation),
			zap.String("sku", req.SKU),
			zap.Int("qty", req.Qty))
	}
	return result, nil
}

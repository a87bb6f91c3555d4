package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/retail-ops/internal/core/domain"
	"github.com/rl1809/retail-ops/internal/port"
)

const DefaultTicketChannel = "api"

type TicketRequest struct {
	Role        domain.Role
	LocationID  string
	Category    string
	Severity    string
	Description string
	Channel     string
}

// nextTicketID is one past the largest numeric suffix in ids, so ids keep
// increasing across restarts from persisted state.
func nextTicketID(ids []string) string {
	highest := 0
	for _, id := range ids {
		if n, ok := domain.TicketNumber(id); ok && n > highest {
			highest = n
		}
	}
	return domain.FormatTicketID(highest + 1)
}

// CreateTicket files a support ticket. It is not treated as destructive and
// needs no confirmation token.
func (g *Gateway) CreateTicket(ctx context.Context, req TicketRequest) (*domain.Ticket, error) {
	if err := g.authenticate(req.Role); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Description) == "" {
		return nil, domain.Validationf("description must not be empty")
	}
	if strings.TrimSpace(req.Category) == "" {
		return nil, domain.Validationf("category must not be empty")
	}
	if strings.TrimSpace(req.Severity) == "" {
		return nil, domain.Validationf("severity must not be empty")
	}
	if _, ok := g.locations.Get(req.LocationID); !ok {
		return nil, domain.NotFoundf("store not found: %s", req.LocationID)
	}

	channel := req.Channel
	if channel == "" {
		channel = DefaultTicketChannel
	}

	var ticket domain.Ticket
	err := g.db.InTx(ctx, func(tx port.Tx) error {
		ids, err := tx.TicketIDs(ctx)
		if err != nil {
			return fmt.Errorf("scan ticket ids: %w", err)
		}

		now := g.now().UTC()
		ticket = domain.Ticket{
			ID:          nextTicketID(ids),
			OpenedDate:  time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
			LocationID:  req.LocationID,
			Category:    req.Category,
			Severity:    req.Severity,
			Summary:     domain.Summarize(req.Description),
			Status:      domain.TicketStatusOpen,
			Channel:     channel,
			Description: req.Description,
		}
		if err := tx.InsertTicket(ctx, ticket); err != nil {
			if errors.Is(err, port.ErrDuplicateKey) {
				return domain.Conflictf("ticket id %s was allocated concurrently, submit again", ticket.ID)
			}
			return fmt.Errorf("insert ticket: %w", err)
		}

		return g.appendAudit(ctx, tx, domain.ActionCreateTicket, req.Role, map[string]any{
			"ticket_id": ticket.ID,
			"store_id":  ticket.LocationID,
			"category":  ticket.Category,
			"severity":  ticket.Severity,
		})
	})
	if err != nil {
		g.logRejected(domain.ActionCreateTicket, req.Role, "", err)
		return nil, err
	}

	g.logger.Info("ticket created",
		zap.String("ticket_id", ticket.ID),
		zap.String("store_id", ticket.LocationID),
		zap.String("severity", ticket.Severity),
		zap.String("channel", ticket.Channel))
	return &ticket, nil
}

// Ticket returns a stored ticket by id.
func (g *Gateway) Ticket(ctx context.Context, role domain.Role, id string) (*domain.Ticket, error) {
	if err := g.authenticate(role); err != nil {
		return nil, err
	}
	var ticket *domain.Ticket
	err := g.db.InTx(ctx, func(tx port.Tx) error {
		var err error
		ticket, err = tx.GetTicket(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, domain.NotFoundf("ticket not found: %s", id)
	}
	return ticket, nil
}

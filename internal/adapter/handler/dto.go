package handler

import (
	"encoding/json"
	"time"

	"github.com/rl1809/retail-ops/internal/core/domain"
	"github.com/rl1809/retail-ops/internal/core/service"
)

// Wire types shared by the HTTP and gRPC transports and the API client.

const (
	StatusPreview  = "preview"
	StatusReserved = "reserved"
	StatusCreated  = "created"
)

const dateLayout = "2006-01-02"

type ErrorResponse struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Locations int    `json:"locations,omitempty"`
	Products  int    `json:"products,omitempty"`
}

type LookupRequest struct {
	SKU         string  `json:"sku"`
	StoreID     string  `json:"store_id"`
	RadiusMiles float64 `json:"radius_miles"`
}

type NearbyStore struct {
	StoreID       string  `json:"store_id"`
	StoreName     string  `json:"store_name"`
	City          string  `json:"city"`
	State         string  `json:"state"`
	DistanceMiles float64 `json:"distance_miles"`
	OnHand        int     `json:"on_hand"`
	Reserved      int     `json:"reserved"`
	Available     int     `json:"available"`
	LastUpdated   string  `json:"last_updated"`
}

type LookupResponse struct {
	SKU          string        `json:"sku"`
	QueryStoreID string        `json:"query_store_id"`
	RadiusMiles  float64       `json:"radius_miles"`
	Stores       []NearbyStore `json:"stores"`
}

type ProductResponse struct {
	SKU         string  `json:"sku"`
	StyleID     string  `json:"style_id"`
	ProductName string  `json:"product_name"`
	Category    string  `json:"category"`
	Subcategory string  `json:"subcategory"`
	Color       string  `json:"color"`
	Size        string  `json:"size"`
	Season      string  `json:"season"`
	UnitPrice   float64 `json:"unit_price"`
}

type ReserveRequest struct {
	StoreID      string `json:"store_id"`
	SKU          string `json:"sku"`
	Qty          int    `json:"qty"`
	Confirm      bool   `json:"confirm"`
	ConfirmToken string `json:"confirm_token,omitempty"`
}

// ReserveResponse carries either the preview fields or the applied post-state, selected by Status.
type ReserveResponse struct {
	Status string `json:"status"`
	Action string `json:"action,omitempty"`

	ConfirmToken          string `json:"confirm_token,omitempty"`
	ConfirmTokenExpiresAt string `json:"confirm_token_expires_at,omitempty"`
	CanReserve            *bool  `json:"can_reserve,omitempty"`
	CurrentOnHand         *int   `json:"current_on_hand,omitempty"`
	CurrentReserved       *int   `json:"current_reserved,omitempty"`
	PreviewOnHandAfter    *int   `json:"preview_on_hand_after,omitempty"`
	PreviewReservedAfter  *int   `json:"preview_reserved_after,omitempty"`

	StoreID     string `json:"store_id,omitempty"`
	SKU         string `json:"sku,omitempty"`
	Qty         int    `json:"qty,omitempty"`
	OnHand      *int   `json:"on_hand,omitempty"`
	Reserved    *int   `json:"reserved,omitempty"`
	LastUpdated string `json:"last_updated,omitempty"`
}

type TransferRequest struct {
	FromStore    string `json:"from_store"`
	ToStore      string `json:"to_store"`
	SKU          string `json:"sku"`
	Qty          int    `json:"qty"`
	Confirm      bool   `json:"confirm"`
	ConfirmToken string `json:"confirm_token,omitempty"`
}

type TransferResponse struct {
	Status string `json:"status"`
	Action string `json:"action,omitempty"`

	ConfirmToken          string `json:"confirm_token,omitempty"`
	ConfirmTokenExpiresAt string `json:"confirm_token_expires_at,omitempty"`
	CanTransfer           *bool  `json:"can_transfer,omitempty"`
	SourceOnHand          *int   `json:"source_on_hand,omitempty"`
	Note                  string `json:"note,omitempty"`

	TransferID    int64  `json:"transfer_id,omitempty"`
	FromStore     string `json:"from_store,omitempty"`
	ToStore       string `json:"to_store,omitempty"`
	SKU           string `json:"sku,omitempty"`
	Qty           int    `json:"qty,omitempty"`
	InboundStatus string `json:"inbound_status,omitempty"`
	ExpectedDate  string `json:"expected_date,omitempty"`
}

type TicketRequest struct {
	StoreID     string `json:"store_id"`
	Category    string `json:"category"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

type TicketResponse struct {
	TicketID    string `json:"ticket_id"`
	OpenedDate  string `json:"opened_date"`
	StoreID     string `json:"store_id"`
	Category    string `json:"category"`
	Severity    string `json:"severity"`
	Status      string `json:"status"`
	Channel     string `json:"channel,omitempty"`
	Summary     string `json:"summary,omitempty"`
	Description string `json:"description,omitempty"`
}

type AuditEntryResponse struct {
	ID        int64           `json:"id"`
	Action    string          `json:"action"`
	Role      string          `json:"role"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt string          `json:"created_at"`
}

type AuditLogResponse struct {
	Count   int                  `json:"count"`
	Entries []AuditEntryResponse `json:"entries"`
}

type ReorderEntry struct {
	StoreID      string `json:"store_id"`
	SKU          string `json:"sku"`
	OnHand       int    `json:"on_hand"`
	Reserved     int    `json:"reserved"`
	Available    int    `json:"available"`
	ReorderPoint int    `json:"reorder_point"`
}

type ReorderResponse struct {
	Count   int            `json:"count"`
	Entries []ReorderEntry `json:"entries"`
}

// TicketLookupRequest names a stored ticket.
type TicketLookupRequest struct {
	TicketID string `json:"ticket_id"`
}

// ProductRequest names a catalog entry.
type ProductRequest struct {
	SKU string `json:"sku"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func toLookupResponse(res *service.LookupResult) LookupResponse {
	out := LookupResponse{
		SKU:          res.SKU,
		QueryStoreID: res.LocationID,
		RadiusMiles:  res.RadiusMiles,
		Stores:       make([]NearbyStore, 0, len(res.Locations)),
	}
	for _, n := range res.Locations {
		out.Stores = append(out.Stores, NearbyStore{
			StoreID:       n.Location.ID,
			StoreName:     n.Location.Name,
			City:          n.Location.City,
			State:         n.Location.State,
			DistanceMiles: n.DistanceMiles,
			OnHand:        n.OnHand,
			Reserved:      n.Reserved,
			Available:     n.Available,
			LastUpdated:   formatTime(n.LastUpdated),
		})
	}
	return out
}

func toProductResponse(p domain.Product) ProductResponse {
	return ProductResponse{
		SKU:         p.SKU,
		StyleID:     p.StyleID,
		ProductName: p.Name,
		Category:    p.Category,
		Subcategory: p.Subcategory,
		Color:       p.Color,
		Size:        p.Size,
		Season:      p.Season,
		UnitPrice:   p.UnitPrice,
	}
}

func (r ReserveRequest) toService(role domain.Role) service.ReserveRequest {
	return service.ReserveRequest{
		Role:       role,
		SKU:        r.SKU,
		LocationID: r.StoreID,
		Qty:        r.Qty,
		Confirm:    r.Confirm,
		Token:      r.ConfirmToken,
	}
}

func toReserveResponse(req ReserveRequest, res *service.ReserveResult) ReserveResponse {
	if p := res.Preview; p != nil {
		return ReserveResponse{
			Status:                StatusPreview,
			Action:                string(domain.ActionReserve),
			ConfirmToken:          p.Token,
			ConfirmTokenExpiresAt: formatTime(p.ExpiresAt),
			CanReserve:            &p.CanReserve,
			CurrentOnHand:         &p.OnHand,
			CurrentReserved:       &p.Reserved,
			PreviewOnHandAfter:    &p.OnHandAfter,
			PreviewReservedAfter:  &p.ReservedAfter,
		}
	}
	rec := res.Record
	return ReserveResponse{
		Status:      StatusReserved,
		StoreID:     rec.LocationID,
		SKU:         rec.SKU,
		Qty:         req.Qty,
		OnHand:      &rec.OnHand,
		Reserved:    &rec.Reserved,
		LastUpdated: formatTime(rec.LastUpdated),
	}
}

func (r TransferRequest) toService(role domain.Role) service.TransferRequest {
	return service.TransferRequest{
		Role:         role,
		FromLocation: r.FromStore,
		ToLocation:   r.ToStore,
		SKU:          r.SKU,
		Qty:          r.Qty,
		Confirm:      r.Confirm,
		Token:        r.ConfirmToken,
	}
}

func toTransferResponse(res *service.TransferResult) TransferResponse {
	if p := res.Preview; p != nil {
		return TransferResponse{
			Status:                StatusPreview,
			Action:                string(domain.ActionTransfer),
			ConfirmToken:          p.Token,
			ConfirmTokenExpiresAt: formatTime(p.ExpiresAt),
			CanTransfer:           &p.CanTransfer,
			SourceOnHand:          &p.SourceOnHand,
			Note:                  p.Note,
		}
	}
	tr, in := res.Transfer, res.Inbound
	return TransferResponse{
		Status:        StatusCreated,
		TransferID:    tr.ID,
		FromStore:     tr.FromLocation,
		ToStore:       tr.ToLocation,
		SKU:           tr.SKU,
		Qty:           tr.Qty,
		InboundStatus: string(in.Status),
		ExpectedDate:  in.ExpectedDate.Format(dateLayout),
	}
}

func (r TicketRequest) toService(role domain.Role, channel string) service.TicketRequest {
	return service.TicketRequest{
		Role:        role,
		LocationID:  r.StoreID,
		Category:    r.Category,
		Severity:    r.Severity,
		Description: r.Description,
		Channel:     channel,
	}
}

func toTicketResponse(t *domain.Ticket, full bool) TicketResponse {
	out := TicketResponse{
		TicketID:   t.ID,
		OpenedDate: t.OpenedDate.Format(dateLayout),
		StoreID:    t.LocationID,
		Category:   t.Category,
		Severity:   t.Severity,
		Status:     t.Status,
	}
	if full {
		out.Channel = t.Channel
		out.Summary = t.Summary
		out.Description = t.Description
	}
	return out
}

func toAuditLogResponse(entries []domain.AuditEntry) AuditLogResponse {
	out := AuditLogResponse{
		Count:   len(entries),
		Entries: make([]AuditEntryResponse, 0, len(entries)),
	}
	for _, e := range entries {
		out.Entries = append(out.Entries, AuditEntryResponse{
			ID:        e.ID,
			Action:    string(e.Action),
			Role:      string(e.Role),
			Payload:   json.RawMessage(e.Payload),
			CreatedAt: formatTime(e.CreatedAt),
		})
	}
	return out
}

func toReorderResponse(records []domain.InventoryRecord) ReorderResponse {
	out := ReorderResponse{
		Count:   len(records),
		Entries: make([]ReorderEntry, 0, len(records)),
	}
	for _, r := range records {
		out.Entries = append(out.Entries, ReorderEntry{
			StoreID:      r.LocationID,
			SKU:          r.SKU,
			OnHand:       r.OnHand,
			Reserved:     r.Reserved,
			Available:    r.Available(),
			ReorderPoint: r.ReorderPoint,
		})
	}
	return out
}

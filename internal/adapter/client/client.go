package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/rl1809/retail-ops/internal/adapter/handler"
	"github.com/rl1809/retail-ops/internal/core/domain"
)

// APIError is a non-2xx response from the API.
type APIError struct {
	Status int
	Kind   domain.ErrorKind
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("retailcore api error: status=%d kind=%s detail=%s", e.Status, e.Kind, e.Detail)
}

// Is lets errors.Is match APIErrors against the domain sentinels.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*domain.Error)
	return ok && t.Kind == e.Kind
}

// Client is a resty-backed client for the HTTP API. Every request carries the
// configured role and a fresh X-Request-ID.
type Client struct {
	httpClient *resty.Client
	baseURL    string
}

func New(baseURL string, role domain.Role) *Client {
	base := strings.TrimSuffix(baseURL, "/")

	restyClient := resty.New()
	restyClient.
		SetBaseURL(base).
		SetHeader(handler.HeaderRole, string(role)).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)

	return &Client{httpClient: restyClient, baseURL: base}
}

// WithRole returns a client for the same server that asserts a different role.
func (c *Client) WithRole(role domain.Role) *Client {
	return New(c.baseURL, role)
}

func (c *Client) request(ctx context.Context, result any) *resty.Request {
	return c.httpClient.R().
		SetContext(ctx).
		SetHeader(handler.HeaderRequestID, uuid.NewString()).
		SetResult(result).
		SetError(&handler.ErrorResponse{})
}

func check(resp *resty.Response, err error, op string) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if resp.StatusCode() < http.StatusBadRequest {
		return nil
	}

	apiErr := &APIError{Status: resp.StatusCode(), Kind: domain.KindInternal}
	if body, ok := resp.Error().(*handler.ErrorResponse); ok && body.Kind != "" {
		apiErr.Kind = domain.ErrorKind(body.Kind)
		apiErr.Detail = body.Detail
	}
	return apiErr
}

func (c *Client) Health(ctx context.Context) (*handler.HealthResponse, error) {
	out := new(handler.HealthResponse)
	resp, err := c.request(ctx, out).Get("/health")
	if err := check(resp, err, "health"); err != nil {
		return nil, err
	}
	return out, nil
}

// Lookup queries nearby stock; radius <= 0 leaves the server default.
func (c *Client) Lookup(ctx context.Context, sku, storeID string, radius float64) (*handler.LookupResponse, error) {
	out := new(handler.LookupResponse)
	req := c.request(ctx, out).
		SetQueryParam("sku", sku).
		SetQueryParam("store_id", storeID)
	if radius > 0 {
		req.SetQueryParam("radius_miles", strconv.FormatFloat(radius, 'f', -1, 64))
	}
	resp, err := req.Get("/inventory/lookup")
	if err := check(resp, err, "lookup"); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Product(ctx context.Context, sku string) (*handler.ProductResponse, error) {
	out := new(handler.ProductResponse)
	resp, err := c.request(ctx, out).
		SetPathParam("sku", sku).
		Get("/products/{sku}")
	if err := check(resp, err, "product"); err != nil {
		return nil, err
	}
	return out, nil
}

// Reserve returns a preview (Status "preview") or the applied post-state.
func (c *Client) Reserve(ctx context.Context, req handler.ReserveRequest) (*handler.ReserveResponse, error) {
	out := new(handler.ReserveResponse)
	resp, err := c.request(ctx, out).SetBody(req).Post("/reserve")
	if err := check(resp, err, "reserve"); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Transfer(ctx context.Context, req handler.TransferRequest) (*handler.TransferResponse, error) {
	out := new(handler.TransferResponse)
	resp, err := c.request(ctx, out).SetBody(req).Post("/transfer")
	if err := check(resp, err, "transfer"); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateTicket(ctx context.Context, req handler.TicketRequest) (*handler.TicketResponse, error) {
	out := new(handler.TicketResponse)
	resp, err := c.request(ctx, out).SetBody(req).Post("/tickets")
	if err := check(resp, err, "create ticket"); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Ticket(ctx context.Context, id string) (*handler.TicketResponse, error) {
	out := new(handler.TicketResponse)
	resp, err := c.request(ctx, out).
		SetPathParam("ticket_id", id).
		Get("/tickets/{ticket_id}")
	if err := check(resp, err, "ticket"); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AuditLog(ctx context.Context) (*handler.AuditLogResponse, error) {
	out := new(handler.AuditLogResponse)
	resp, err := c.request(ctx, out).Get("/auditlog")
	if err := check(resp, err, "audit log"); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Reorder(ctx context.Context) (*handler.ReorderResponse, error) {
	out := new(handler.ReorderResponse)
	resp, err := c.request(ctx, out).Get("/inventory/reorder")
	if err := check(resp, err, "reorder"); err != nil {
		return nil, err
	}
	return out, nil
}

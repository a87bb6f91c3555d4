package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rl1809/retail-ops/internal/core/domain"
	"github.com/rl1809/retail-ops/internal/core/service"
)

const defaultRadiusMiles = 25.0

type HTTPHandler struct {
	gateway *service.Gateway
	logger  *zap.Logger
}

func NewHTTPHandler(gateway *service.Gateway, logger *zap.Logger) *HTTPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPHandler{gateway: gateway, logger: logger}
}

// NewRouter wires the gin engine with every route and middleware.
func NewRouter(h *HTTPHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestID())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/health", h.Health)

	authed := r.Group("/", requireRole())
	authed.GET("/inventory/lookup", h.Lookup)
	authed.GET("/inventory/reorder", h.Reorder)
	authed.GET("/products/:sku", h.Product)
	authed.POST("/reserve", h.Reserve)
	authed.POST("/transfer", h.Transfer)
	authed.POST("/tickets", h.CreateTicket)
	authed.GET("/tickets/:ticket_id", h.Ticket)
	authed.GET("/auditlog", h.AuditLog)

	return r
}

func (h *HTTPHandler) fail(c *gin.Context, err error) {
	resp := errorResponse(err)
	status := httpStatus(domain.ErrorKind(resp.Kind))
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("request_id", c.GetString(ctxRequestID)),
			zap.Error(err))
	}
	c.JSON(status, resp)
}

func (h *HTTPHandler) badBody(c *gin.Context, err error) {
	h.logger.Warn("invalid request body", zap.Error(err))
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Kind:   string(domain.KindValidation),
		Detail: "invalid request body",
	})
}

func (h *HTTPHandler) Health(c *gin.Context) {
	health, err := h.gateway.Health(c.Request.Context())
	if err != nil {
		h.logger.Error("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: health.Status})
		return
	}
	c.JSON(http.StatusOK, HealthResponse{
		Status:    health.Status,
		Locations: health.Locations,
		Products:  health.Products,
	})
}

func (h *HTTPHandler) Lookup(c *gin.Context) {
	radius := defaultRadiusMiles
	if raw := c.Query("radius_miles"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			h.fail(c, domain.Validationf("radius_miles must be a number"))
			return
		}
		radius = parsed
	}

	res, err := h.gateway.Lookup(c.Request.Context(), service.LookupRequest{
		Role:        roleFrom(c),
		SKU:         c.Query("sku"),
		LocationID:  c.Query("store_id"),
		RadiusMiles: radius,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toLookupResponse(res))
}

func (h *HTTPHandler) Reorder(c *gin.Context) {
	records, err := h.gateway.ReorderReport(c.Request.Context(), roleFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toReorderResponse(records))
}

func (h *HTTPHandler) Product(c *gin.Context) {
	p, err := h.gateway.Product(c.Request.Context(), roleFrom(c), c.Param("sku"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(p))
}

func (h *HTTPHandler) Reserve(c *gin.Context) {
	var req ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badBody(c, err)
		return
	}

	res, err := h.gateway.Reserve(c.Request.Context(), req.toService(roleFrom(c)))
	if err != nil {
		h.fail(c, err)
		return
	}

	status := http.StatusOK
	if res.Preview != nil {
		status = http.StatusAccepted
	}
	c.JSON(status, toReserveResponse(req, res))
}

func (h *HTTPHandler) Transfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badBody(c, err)
		return
	}

	res, err := h.gateway.CreateTransfer(c.Request.Context(), req.toService(roleFrom(c)))
	if err != nil {
		h.fail(c, err)
		return
	}

	status := http.StatusOK
	if res.Preview != nil {
		status = http.StatusAccepted
	}
	c.JSON(status, toTransferResponse(res))
}

func (h *HTTPHandler) CreateTicket(c *gin.Context) {
	var req TicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badBody(c, err)
		return
	}

	ticket, err := h.gateway.CreateTicket(c.Request.Context(), req.toService(roleFrom(c), service.DefaultTicketChannel))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toTicketResponse(ticket, false))
}

func (h *HTTPHandler) Ticket(c *gin.Context) {
	ticket, err := h.gateway.Ticket(c.Request.Context(), roleFrom(c), c.Param("ticket_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toTicketResponse(ticket, true))
}

func (h *HTTPHandler) AuditLog(c *gin.Context) {
	entries, err := h.gateway.AuditLog(c.Request.Context(), roleFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toAuditLogResponse(entries))
}

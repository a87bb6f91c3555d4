package handler

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/rl1809/retail-ops/internal/core/domain"
	"github.com/rl1809/retail-ops/internal/core/service"
)

const (
	ServiceName = "retailcore.v1.RetailCore"

	// MetadataRole is the gRPC counterpart of the X-DEMO-ROLE header.
	MetadataRole = "x-demo-role"

	GRPCTicketChannel = "grpc"
)

// Full method names, for clients invoking the service directly.
const (
	MethodHealth       = "/" + ServiceName + "/Health"
	MethodLookup       = "/" + ServiceName + "/Lookup"
	MethodProduct      = "/" + ServiceName + "/Product"
	MethodReserve      = "/" + ServiceName + "/Reserve"
	MethodTransfer     = "/" + ServiceName + "/Transfer"
	MethodCreateTicket = "/" + ServiceName + "/CreateTicket"
	MethodGetTicket    = "/" + ServiceName + "/GetTicket"
	MethodAuditLog     = "/" + ServiceName + "/AuditLog"
	MethodReorder      = "/" + ServiceName + "/Reorder"
)

// RetailCoreServer is the service implemented by GRPCHandler.
type RetailCoreServer interface {
	Health(ctx context.Context, req *struct{}) (*HealthResponse, error)
	Lookup(ctx context.Context, req *LookupRequest) (*LookupResponse, error)
	Product(ctx context.Context, req *ProductRequest) (*ProductResponse, error)
	Reserve(ctx context.Context, req *ReserveRequest) (*ReserveResponse, error)
	Transfer(ctx context.Context, req *TransferRequest) (*TransferResponse, error)
	CreateTicket(ctx context.Context, req *TicketRequest) (*TicketResponse, error)
	GetTicket(ctx context.Context, req *TicketLookupRequest) (*TicketResponse, error)
	AuditLog(ctx context.Context, req *struct{}) (*AuditLogResponse, error)
	Reorder(ctx context.Context, req *struct{}) (*ReorderResponse, error)
}

type GRPCHandler struct {
	gateway *service.Gateway
	logger  *zap.Logger
}

func NewGRPCHandler(gateway *service.Gateway, logger *zap.Logger) *GRPCHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GRPCHandler{gateway: gateway, logger: logger}
}

// NewGRPCServer builds a server with the JSON codec, the access log interceptor
// and the handler registered.
func NewGRPCServer(h *GRPCHandler, logger *zap.Logger, opts ...grpc.ServerOption) *grpc.Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = append([]grpc.ServerOption{
		grpc.ForceServerCodec(JSONCodec{}),
		grpc.ChainUnaryInterceptor(accessLogInterceptor(logger)),
	}, opts...)

	s := grpc.NewServer(opts...)
	s.RegisterService(&RetailCoreServiceDesc, h)
	return s
}

func accessLogInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Info("rpc completed",
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("duration", time.Since(start)))
		return resp, err
	}
}

// roleFromMetadata reads and validates the caller's role assertion.
func roleFromMetadata(ctx context.Context) (domain.Role, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	var raw string
	if values := md.Get(MetadataRole); len(values) > 0 {
		raw = values[0]
	}
	role, err := domain.ParseRole(raw)
	if err != nil {
		return "", status.Errorf(codes.Unauthenticated, "%s: missing or invalid %s metadata", domain.KindAuthentication, MetadataRole)
	}
	return role, nil
}

func (h *GRPCHandler) Health(ctx context.Context, _ *struct{}) (*HealthResponse, error) {
	health, err := h.gateway.Health(ctx)
	if err != nil {
		h.logger.Error("health check failed", zap.Error(err))
		return nil, status.Error(codes.Unavailable, health.Status)
	}
	return &HealthResponse{Status: health.Status, Locations: health.Locations, Products: health.Products}, nil
}

func (h *GRPCHandler) Lookup(ctx context.Context, req *LookupRequest) (*LookupResponse, error) {
	role, err := roleFromMetadata(ctx)
	if err != nil {
		return nil, err
	}
	radius := req.RadiusMiles
	if radius == 0 {
		radius = defaultRadiusMiles
	}
	res, err := h.gateway.Lookup(ctx, service.LookupRequest{
		Role: role, SKU: req.SKU, LocationID: req.StoreID, RadiusMiles: radius,
	})
	if err != nil {
		return nil, grpcError(err)
	}
	out := toLookupResponse(res)
	return &out, nil
}

func (h *GRPCHandler) Product(ctx context.Context, req *ProductRequest) (*ProductResponse, error) {
	role, err := roleFromMetadata(ctx)
	if err != nil {
		return nil, err
	}
	p, err := h.gateway.Product(ctx, role, req.SKU)
	if err != nil {
		return nil, grpcError(err)
	}
	out := toProductResponse(p)
	return &out, nil
}

func (h *GRPCHandler) Reserve(ctx context.Context, req *ReserveRequest) (*ReserveResponse, error) {
	role, err := roleFromMetadata(ctx)
	if err != nil {
		return nil, err
	}
	res, err := h.gateway.Reserve(ctx, req.toService(role))
	if err != nil {
		return nil, grpcError(err)
	}
	out := toReserveResponse(*req, res)
	return &out, nil
}

func (h *GRPCHandler) Transfer(ctx context.Context, req *TransferRequest) (*TransferResponse, error) {
	role, err := roleFromMetadata(ctx)
	if err != nil {
		return nil, err
	}
	res, err := h.gateway.CreateTransfer(ctx, req.toService(role))
	if err != nil {
		return nil, grpcError(err)
	}
	out := toTransferResponse(res)
	return &out, nil
}

func (h *GRPCHandler) CreateTicket(ctx context.Context, req *TicketRequest) (*TicketResponse, error) {
	role, err := roleFromMetadata(ctx)
	if err != nil {
		return nil, err
	}
	ticket, err := h.gateway.CreateTicket(ctx, req.toService(role, GRPCTicketChannel))
	if err != nil {
		return nil, grpcError(err)
	}
	out := toTicketResponse(ticket, false)
	return &out, nil
}

func (h *GRPCHandler) GetTicket(ctx context.Context, req *TicketLookupRequest) (*TicketResponse, error) {
	role, err := roleFromMetadata(ctx)
	if err != nil {
		return nil, err
	}
	ticket, err := h.gateway.Ticket(ctx, role, req.TicketID)
	if err != nil {
		return nil, grpcError(err)
	}
	out := toTicketResponse(ticket, true)
	return &out, nil
}

func (h *GRPCHandler) AuditLog(ctx context.Context, _ *struct{}) (*AuditLogResponse, error) {
	role, err := roleFromMetadata(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := h.gateway.AuditLog(ctx, role)
	if err != nil {
		return nil, grpcError(err)
	}
	out := toAuditLogResponse(entries)
	return &out, nil
}

func (h *GRPCHandler) Reorder(ctx context.Context, _ *struct{}) (*ReorderResponse, error) {
	role, err := roleFromMetadata(ctx)
	if err != nil {
		return nil, err
	}
	records, err := h.gateway.ReorderReport(ctx, role)
	if err != nil {
		return nil, grpcError(err)
	}
	out := toReorderResponse(records)
	return &out, nil
}

// KindFromStatus recovers the domain error kind from a status produced by this service.
func KindFromStatus(err error) domain.ErrorKind {
	st, ok := status.FromError(err)
	if !ok {
		return domain.KindInternal
	}
	kind, _, found := strings.Cut(st.Message(), ": ")
	if !found {
		return domain.KindInternal
	}
	return domain.ErrorKind(kind)
}

func unaryHandler[Req any, Resp any](call func(RetailCoreServer, context.Context, *Req) (*Resp, error), fullMethod string) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "%s: invalid request body", domain.KindValidation)
		}
		if interceptor == nil {
			return call(srv.(RetailCoreServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(RetailCoreServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// RetailCoreServiceDesc is declared by hand in place of protoc output.
var RetailCoreServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RetailCoreServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Health", Handler: unaryHandler(RetailCoreServer.Health, MethodHealth)},
		{MethodName: "Lookup", Handler: unaryHandler(RetailCoreServer.Lookup, MethodLookup)},
		{MethodName: "Product", Handler: unaryHandler(RetailCoreServer.Product, MethodProduct)},
		{MethodName: "Reserve", Handler: unaryHandler(RetailCoreServer.Reserve, MethodReserve)},
		{MethodName: "Transfer", Handler: unaryHandler(RetailCoreServer.Transfer, MethodTransfer)},
		{MethodName: "CreateTicket", Handler: unaryHandler(RetailCoreServer.CreateTicket, MethodCreateTicket)},
		{MethodName: "GetTicket", Handler: unaryHandler(RetailCoreServer.GetTicket, MethodGetTicket)},
		{MethodName: "AuditLog", Handler: unaryHandler(RetailCoreServer.AuditLog, MethodAuditLog)},
		{MethodName: "Reorder", Handler: unaryHandler(RetailCoreServer.Reorder, MethodReorder)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "retailcore/v1/retailcore.proto",
}

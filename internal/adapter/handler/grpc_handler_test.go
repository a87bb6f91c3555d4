package handler

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/rl1809/retail-ops/internal/core/domain"
)

func newTestConn(t *testing.T) *grpc.ClientConn {
	t.Helper()
	g, _ := testGateway(t)

	lis := bufconn.Listen(1 << 20)
	srv := NewGRPCServer(NewGRPCHandler(g, nil), nil)
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(JSONCodec{})),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func withRole(role string) context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), MetadataRole, role)
}

func TestGRPC_Health(t *testing.T) {
	conn := newTestConn(t)

	var resp HealthResponse
	require.NoError(t, conn.Invoke(context.Background(), MethodHealth, &struct{}{}, &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 3, resp.Locations)
}

func TestGRPC_RoleRequired(t *testing.T) {
	conn := newTestConn(t)

	var resp AuditLogResponse
	err := conn.Invoke(context.Background(), MethodAuditLog, &struct{}{}, &resp)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	assert.Equal(t, domain.KindAuthentication, KindFromStatus(err))
}

func TestGRPC_ReserveFlow(t *testing.T) {
	conn := newTestConn(t)
	ctx := withRole("associate")
	req := ReserveRequest{StoreID: "ST002", SKU: heroSKU, Qty: 2}

	var preview ReserveResponse
	require.NoError(t, conn.Invoke(ctx, MethodReserve, &req, &preview))
	assert.Equal(t, StatusPreview, preview.Status)
	require.NotEmpty(t, preview.ConfirmToken)

	req.ConfirmToken = preview.ConfirmToken
	var applied ReserveResponse
	require.NoError(t, conn.Invoke(ctx, MethodReserve, &req, &applied))
	assert.Equal(t, StatusReserved, applied.Status)
	assert.Equal(t, 2, *applied.OnHand)

	err := conn.Invoke(ctx, MethodReserve, &req, &applied)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
	assert.Equal(t, domain.KindToken, KindFromStatus(err))
}

func TestGRPC_TransferForbidden(t *testing.T) {
	conn := newTestConn(t)

	var resp TransferResponse
	err := conn.Invoke(withRole("support"), MethodTransfer,
		&TransferRequest{FromStore: "ST002", ToStore: "ST001", SKU: heroSKU, Qty: 1, Confirm: true}, &resp)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
}

func TestGRPC_TicketChannel(t *testing.T) {
	conn := newTestConn(t)
	ctx := withRole("support")

	var created TicketResponse
	require.NoError(t, conn.Invoke(ctx, MethodCreateTicket,
		&TicketRequest{StoreID: "ST003", Category: "BOPIS", Severity: "medium", Description: "Pickup shelf label missing"}, &created))
	assert.Equal(t, "TCKT0002", created.TicketID)

	var stored TicketResponse
	require.NoError(t, conn.Invoke(ctx, MethodGetTicket, &TicketLookupRequest{TicketID: created.TicketID}, &stored))
	assert.Equal(t, GRPCTicketChannel, stored.Channel)

	err := conn.Invoke(ctx, MethodGetTicket, &TicketLookupRequest{TicketID: "TCKT0404"}, &stored)
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestGRPC_LookupDefaultsRadius(t *testing.T) {
	conn := newTestConn(t)

	var resp LookupResponse
	require.NoError(t, conn.Invoke(withRole("merch"), MethodLookup, &LookupRequest{SKU: heroSKU, StoreID: "ST003"}, &resp))
	assert.Equal(t, 25.0, resp.RadiusMiles)
	assert.Equal(t, "ST003", resp.Stores[0].StoreID)
}

func TestKindFromStatus_Foreign(t *testing.T) {
	assert.Equal(t, domain.KindInternal, KindFromStatus(status.Error(codes.Unavailable, "down")))
}

package handler

import (
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rl1809/retail-ops/internal/core/domain"
)

func httpStatus(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation, domain.KindToken:
		return http.StatusBadRequest
	case domain.KindAuthentication:
		return http.StatusUnauthorized
	case domain.KindAuthorization:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func grpcCode(kind domain.ErrorKind) codes.Code {
	switch kind {
	case domain.KindValidation:
		return codes.InvalidArgument
	case domain.KindToken:
		return codes.FailedPrecondition
	case domain.KindAuthentication:
		return codes.Unauthenticated
	case domain.KindAuthorization:
		return codes.PermissionDenied
	case domain.KindNotFound:
		return codes.NotFound
	case domain.KindConflict:
		return codes.Aborted
	default:
		return codes.Internal
	}
}

// errorResponse never leaks internal error text to callers.
func errorResponse(err error) ErrorResponse {
	kind := domain.KindOf(err)
	return ErrorResponse{Kind: string(kind), Detail: domain.DetailOf(err)}
}

// grpcError prefixes the message with the kind so clients can recover it.
func grpcError(err error) error {
	resp := errorResponse(err)
	return status.Errorf(grpcCode(domain.ErrorKind(resp.Kind)), "%s: %s", resp.Kind, resp.Detail)
}

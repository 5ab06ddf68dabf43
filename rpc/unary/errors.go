package unary

import (
	"errors"
	"net/http"

	"connectrpc.com/connect"
	rpcerrors "github.com/monadicstack/welcome/rpc/errors"
)

// ToConnectError converts a service error to a *connect.Error whose code matches the error's
// HTTP status. Errors that already are connect errors pass through untouched.
func ToConnectError(err error) error {
	if err == nil {
		return nil
	}
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return err
	}
	return connect.NewError(CodeFromStatus(rpcerrors.Status(err)), err)
}

// FromConnectError converts a connect error received by a client into an RPCError with the
// equivalent HTTP status, so callers can use the same errors.IsXxx() checks on either transport.
func FromConnectError(err error) error {
	if err == nil {
		return nil
	}
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) {
		return rpcerrors.Unexpected("rpc: %v", err)
	}
	return rpcerrors.New(StatusFromCode(connectErr.Code()), "%s", connectErr.Message())
}

// CodeFromStatus maps an HTTP status to the closest Connect/gRPC code.
func CodeFromStatus(status int) connect.Code {
	switch status {
	case http.StatusBadRequest:
		return connect.CodeInvalidArgument
	case http.StatusUnauthorized:
		return connect.CodeUnauthenticated
	case http.StatusForbidden:
		return connect.CodePermissionDenied
	case http.StatusNotFound:
		return connect.CodeNotFound
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return connect.CodeDeadlineExceeded
	case http.StatusConflict:
		return connect.CodeAlreadyExists
	case http.StatusPreconditionFailed:
		return connect.CodeFailedPrecondition
	case http.StatusTooManyRequests:
		return connect.CodeResourceExhausted
	case http.StatusNotImplemented:
		return connect.CodeUnimplemented
	case http.StatusServiceUnavailable:
		return connect.CodeUnavailable
	}
	if status >= 500 {
		return connect.CodeInternal
	}
	return connect.CodeUnknown
}

// StatusFromCode maps a Connect/gRPC code to the closest HTTP status.
func StatusFromCode(code connect.Code) int {
	switch code {
	case connect.CodeInvalidArgument, connect.CodeOutOfRange:
		return http.StatusBadRequest
	case connect.CodeUnauthenticated:
		return http.StatusUnauthorized
	case connect.CodePermissionDenied:
		return http.StatusForbidden
	case connect.CodeNotFound:
		return http.StatusNotFound
	case connect.CodeCanceled, connect.CodeDeadlineExceeded:
		return http.StatusRequestTimeout
	case connect.CodeAlreadyExists, connect.CodeAborted:
		return http.StatusConflict
	case connect.CodeFailedPrecondition:
		return http.StatusPreconditionFailed
	case connect.CodeResourceExhausted:
		return http.StatusTooManyRequests
	case connect.CodeUnimplemented:
		return http.StatusNotImplemented
	case connect.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Package errors contains the failure type that travels across Welcome RPC calls. Every
// failure carries the HTTP status that best describes it so that the gateway can reply with
// the right code and so that clients can rebuild an equivalent error on their side of the wire.
// The Connect transport translates the same statuses to and from Connect/gRPC codes.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// RPCError is a failure with a human-readable message and the HTTP status closest to it.
// The 'respond' package recognizes the Status() method, so returning one of these from a
// handler is enough to get the right status in the gateway's reply.
type RPCError struct {
	// HTTPStatus is the HTTP status code that most closely describes this error.
	HTTPStatus int `json:"status"`
	// Message is the human-readable error message.
	Message string `json:"message"`
}

// Error returns the message describing this failure.
func (err RPCError) Error() string {
	return err.Message
}

// Status returns the HTTP status code for this error.
func (err RPCError) Status() int {
	return err.HTTPStatus
}

type errorWithStatus interface {
	Status() int
}

type errorWithStatusCode interface {
	StatusCode() int
}

type errorWithCode interface {
	Code() int
}

// New creates an error with an arbitrary status. Prefer the named constructors below; they
// read better at the call site.
func New(status int, messageFormat string, args ...interface{}) RPCError {
	return RPCError{
		HTTPStatus: status,
		Message:    fmt.Sprintf(messageFormat, args...),
	}
}

// Status digs through the error chain for a Status(), StatusCode(), or Code() method and
// returns the first one it finds. Anything else is a 500.
func Status(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var errStatus errorWithStatus
	if errors.As(err, &errStatus) {
		return errStatus.Status()
	}

	var errStatusCode errorWithStatusCode
	if errors.As(err, &errStatusCode) {
		return errStatusCode.StatusCode()
	}

	var errCode errorWithCode
	if errors.As(err, &errCode) {
		return errCode.Code()
	}

	return http.StatusInternalServerError
}

// Unexpected is the 500-style catch-all for failures you don't have a better status for.
func Unexpected(messageFormat string, args ...interface{}) RPCError {
	return New(http.StatusInternalServerError, messageFormat, args...)
}

// IsUnexpected returns true when the status of 'err' is 500.
func IsUnexpected(err error) bool {
	return Status(err) == http.StatusInternalServerError
}

// BadRequest is a 400-style error for input that is ill-formed or fails validation.
func BadRequest(messageFormat string, args ...interface{}) RPCError {
	return New(http.StatusBadRequest, messageFormat, args...)
}

// IsBadRequest returns true when the status of 'err' is 400.
func IsBadRequest(err error) bool {
	return Status(err) == http.StatusBadRequest
}

// BadCredentials is a 401-style error for missing or invalid credentials.
func BadCredentials(messageFormat string, args ...interface{}) RPCError {
	return New(http.StatusUnauthorized, messageFormat, args...)
}

// IsBadCredentials returns true when the status of 'err' is 401.
func IsBadCredentials(err error) bool {
	return Status(err) == http.StatusUnauthorized
}

// PermissionDenied is a 403-style error for callers that may not perform the operation.
func PermissionDenied(messageFormat string, args ...interface{}) RPCError {
	return New(http.StatusForbidden, messageFormat, args...)
}

// IsPermissionDenied returns true when the status of 'err' is 403.
func IsPermissionDenied(err error) bool {
	return Status(err) == http.StatusForbidden
}

// NotFound is a 404-style error for a record, resource or route that does not exist.
func NotFound(messageFormat string, args ...interface{}) RPCError {
	return New(http.StatusNotFound, messageFormat, args...)
}

// IsNotFound returns true when the status of 'err' is 404.
func IsNotFound(err error) bool {
	return Status(err) == http.StatusNotFound
}

// Timeout is a 408-style error for an operation that ran past its deadline or was cancelled.
func Timeout(messageFormat string, args ...interface{}) RPCError {
	return New(http.StatusRequestTimeout, messageFormat, args...)
}

// IsTimeout returns true when the status of 'err' is 408.
func IsTimeout(err error) bool {
	return Status(err) == http.StatusRequestTimeout
}

// AlreadyExists is a 409-style error for duplicate records.
func AlreadyExists(messageFormat string, args ...interface{}) RPCError {
	return New(http.StatusConflict, messageFormat, args...)
}

// IsAlreadyExists returns true when the status of 'err' is 409.
func IsAlreadyExists(err error) bool {
	return Status(err) == http.StatusConflict
}

// Throttled is a 429-style error for callers over their request budget.
func Throttled(messageFormat string, args ...interface{}) RPCError {
	return New(http.StatusTooManyRequests, messageFormat, args...)
}

// IsThrottled returns true when the status of 'err' is 429.
func IsThrottled(err error) bool {
	return Status(err) == http.StatusTooManyRequests
}

// Unimplemented is a 501-style error for operations the server does not support.
func Unimplemented(messageFormat string, args ...interface{}) RPCError {
	return New(http.StatusNotImplemented, messageFormat, args...)
}

// IsUnimplemented returns true when the status of 'err' is 501.
func IsUnimplemented(err error) bool {
	return Status(err) == http.StatusNotImplemented
}

// Unavailable is a 503-style error for a dependency or the service itself being down.
func Unavailable(messageFormat string, args ...interface{}) RPCError {
	return New(http.StatusServiceUnavailable, messageFormat, args...)
}

// IsUnavailable returns true when the status of 'err' is 503.
func IsUnavailable(err error) bool {
	return Status(err) == http.StatusServiceUnavailable
}

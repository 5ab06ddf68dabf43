package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/monadicstack/welcome/rpc/errors"
	"github.com/stretchr/testify/suite"
)

type ErrorsSuite struct {
	suite.Suite
}

func (suite *ErrorsSuite) TestNew() {
	suite.assertError(errors.New(100, "foo"), 100, "foo")
	suite.assertError(errors.New(100, "%s", "foo"), 100, "foo")
	suite.assertError(errors.New(100, "foo %s %v", "bar", 99), 100, "foo bar 99")

	// Nothing stops you from using statuses outside of the HTTP range.
	suite.assertError(errors.New(0, ""), 0, "")
	suite.assertError(errors.New(-42, ""), -42, "")
}

func (suite *ErrorsSuite) TestStatus() {
	suite.Equal(200, errors.Status(nil))
	suite.Equal(500, errors.Status(fmt.Errorf("hello")))

	suite.Equal(400, errors.Status(errors.BadRequest("")))
	suite.Equal(503, errors.Status(errors.Unavailable("")))
	suite.Equal(501, errors.Status(errors.Unimplemented("")))

	suite.Equal(404, errors.Status(errWithCode{code: 404}))
	suite.Equal(503, errors.Status(errWithStatusCode{statusCode: 503}))

	// Wrapped errors should still expose the status of the original failure.
	wrapped := fmt.Errorf("lookup failed: %w", errors.NotFound("nope"))
	suite.Equal(404, errors.Status(wrapped))
}

func (suite *ErrorsSuite) TestConstructors() {
	suite.assertError(errors.Unexpected("foo %d", 1), 500, "foo 1")
	suite.assertError(errors.BadRequest("foo %d", 1), 400, "foo 1")
	suite.assertError(errors.BadCredentials("foo %d", 1), 401, "foo 1")
	suite.assertError(errors.PermissionDenied("foo %d", 1), 403, "foo 1")
	suite.assertError(errors.NotFound("foo %d", 1), 404, "foo 1")
	suite.assertError(errors.Timeout("foo %d", 1), 408, "foo 1")
	suite.assertError(errors.AlreadyExists("foo %d", 1), 409, "foo 1")
	suite.assertError(errors.Throttled("foo %d", 1), 429, "foo 1")
	suite.assertError(errors.Unimplemented("foo %d", 1), 501, "foo 1")
	suite.assertError(errors.Unavailable("foo %d", 1), 503, "foo 1")
}

func (suite *ErrorsSuite) TestPredicates() {
	suite.True(errors.IsUnexpected(errors.Unexpected("")))
	suite.True(errors.IsUnexpected(fmt.Errorf("no status present still 500")))
	suite.False(errors.IsUnexpected(errors.NotFound("")))

	suite.True(errors.IsBadRequest(errors.BadRequest("")))
	suite.True(errors.IsBadRequest(errWithCode{code: 400}))
	suite.False(errors.IsBadRequest(errors.Unexpected("")))

	suite.True(errors.IsBadCredentials(errors.BadCredentials("")))
	suite.True(errors.IsPermissionDenied(errors.PermissionDenied("")))
	suite.True(errors.IsNotFound(errWithStatusCode{statusCode: 404}))
	suite.True(errors.IsTimeout(errors.Timeout("")))
	suite.True(errors.IsAlreadyExists(errors.AlreadyExists("")))
	suite.True(errors.IsThrottled(errors.Throttled("")))
	suite.True(errors.IsUnimplemented(errors.Unimplemented("")))
	suite.True(errors.IsUnavailable(errors.Unavailable("")))
	suite.False(errors.IsUnavailable(errors.Timeout("")))
}

func (suite *ErrorsSuite) TestAs() {
	var rpcErr errors.RPCError
	err := fmt.Errorf("outer: %w", errors.Throttled("slow down"))
	suite.Require().True(stderrors.As(err, &rpcErr))
	suite.Equal(429, rpcErr.HTTPStatus)
	suite.Equal("slow down", rpcErr.Message)
}

func (suite *ErrorsSuite) assertError(err errors.RPCError, expectedStatus int, expectedMessage string) {
	suite.Equal(expectedStatus, err.Status())
	suite.Equal(expectedStatus, err.HTTPStatus)
	suite.Equal(expectedMessage, err.Error())
	suite.Equal(expectedMessage, err.Message)
}

type errWithCode struct {
	code int
}

func (err errWithCode) Code() int {
	return err.code
}

func (err errWithCode) Error() string {
	return fmt.Sprintf("%d", err.code)
}

type errWithStatusCode struct {
	statusCode int
}

func (err errWithStatusCode) StatusCode() int {
	return err.statusCode
}

func (err errWithStatusCode) Error() string {
	return fmt.Sprintf("%d", err.statusCode)
}

func TestErrorsSuite(t *testing.T) {
	suite.Run(t, new(ErrorsSuite))
}

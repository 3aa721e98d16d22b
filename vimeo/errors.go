package vimeo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Error domains used to namespace the numeric error codes.
const (
	ErrorDomainClient    = "vimeokit.client"
	ErrorDomainAuth      = "vimeokit.auth"
	ErrorDomainTransport = "vimeokit.transport"
)

// ErrorCode identifies a failure class produced by this library.
type ErrorCode int

// Local error codes. Transport-level failures carry CodeUndefined plus the
// HTTP status of the response, when one was received.
const (
	CodeUndefined                 ErrorCode = 9000
	CodeInvalidResponseDictionary ErrorCode = 9001
	CodeRequestMalformed          ErrorCode = 9002
	CodeCachedResponseNotFound    ErrorCode = 9003
	CodeCodeGrant                 ErrorCode = 9005
	CodeCodeGrantState            ErrorCode = 9006
	CodeNoResponse                ErrorCode = 9007
	CodePinCodeInfo               ErrorCode = 9008
	CodePinCodeExpired            ErrorCode = 9009
	CodeAuthToken                 ErrorCode = 9010
)

// Error is the structured error type returned by the client and the
// authentication controller. Two errors match under errors.Is when their
// domain and code agree, so the sentinel values below can be used as targets.
type Error struct {
	Domain      string
	Code        ErrorCode
	Description string
	HTTPStatus  int // 0 when no HTTP response was received
	Err         error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s [%d]: %s: %v", e.Domain, e.Code, e.Description, e.Err)
	}
	return fmt.Sprintf("%s [%d]: %s", e.Domain, e.Code, e.Description)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by domain and code.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Domain == other.Domain && e.Code == other.Code
}

// Sentinel errors for the failure classes callers are expected to branch on.
var (
	// ErrCachedResponseNotFound is returned by a CacheOnly request whose
	// fingerprint has no cached payload.
	ErrCachedResponseNotFound = &Error{Domain: ErrorDomainClient, Code: CodeCachedResponseNotFound, Description: "cached response not found"}

	// ErrInvalidResponseDictionary indicates a response payload that could not
	// be parsed into the requested model.
	ErrInvalidResponseDictionary = &Error{Domain: ErrorDomainClient, Code: CodeInvalidResponseDictionary, Description: "invalid response dictionary"}

	// ErrRequestMalformed indicates a request that could not be submitted.
	ErrRequestMalformed = &Error{Domain: ErrorDomainClient, Code: CodeRequestMalformed, Description: "request malformed"}

	// ErrNoResponse indicates an authentication attempt that produced neither
	// an account nor an error.
	ErrNoResponse = &Error{Domain: ErrorDomainAuth, Code: CodeNoResponse, Description: "no response from authentication request"}

	// ErrCodeGrant indicates a code grant callback URL missing the code or
	// state query parameters.
	ErrCodeGrant = &Error{Domain: ErrorDomainAuth, Code: CodeCodeGrant, Description: "code grant returned no code or state"}

	// ErrCodeGrantState indicates a code grant callback whose state does not
	// match the state embedded in the authorization URL.
	ErrCodeGrantState = &Error{Domain: ErrorDomainAuth, Code: CodeCodeGrantState, Description: "code grant state did not match"}

	// ErrPinCodeInfo indicates a pin code response missing required fields.
	ErrPinCodeInfo = &Error{Domain: ErrorDomainAuth, Code: CodePinCodeInfo, Description: "pin code info is malformed"}

	// ErrPinCodeExpired indicates the pin code expired before activation.
	ErrPinCodeExpired = &Error{Domain: ErrorDomainAuth, Code: CodePinCodeExpired, Description: "pin code expired"}

	// ErrAuthToken indicates an account without an access token was handed to
	// a client. This is an integration error, returned rather than panicking.
	ErrAuthToken = &Error{Domain: ErrorDomainAuth, Code: CodeAuthToken, Description: "account has no access token"}
)

// newError builds an *Error from a sentinel, attaching a cause.
func newError(sentinel *Error, err error) *Error {
	return &Error{
		Domain:      sentinel.Domain,
		Code:        sentinel.Code,
		Description: sentinel.Description,
		Err:         err,
	}
}

// transportError wraps a transport failure with its HTTP status, when known.
func transportError(status int, err error) *Error {
	return &Error{
		Domain:      ErrorDomainTransport,
		Code:        CodeUndefined,
		Description: "request failed",
		HTTPStatus:  status,
		Err:         err,
	}
}

// HTTPStatusCode extracts the HTTP status carried by err, or 0.
func HTTPStatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.HTTPStatus
	}
	return 0
}

// IsCanceled reports whether err stems from caller-initiated cancellation.
// Deadline expiry is deliberately not treated as cancellation so that
// timeouts surface as regular, retriable failures.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// IsServiceUnavailable reports whether err represents an HTTP 503.
func IsServiceUnavailable(err error) bool {
	return HTTPStatusCode(err) == http.StatusServiceUnavailable
}

// IsInvalidToken reports whether err represents an HTTP 401, meaning the
// bearer token was rejected.
func IsInvalidToken(err error) bool {
	return HTTPStatusCode(err) == http.StatusUnauthorized
}

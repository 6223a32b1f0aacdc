package aws

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/smithy-go"
)

// ErrorCode is a stable machine-readable failure code surfaced to callers.
type ErrorCode string

const (
	ErrInvalidRoleArn     ErrorCode = "InvalidRoleArn"
	ErrInvalidWindow      ErrorCode = "InvalidWindow"
	ErrAccessDenied       ErrorCode = "AccessDenied"
	ErrInvalidCredentials ErrorCode = "InvalidCredentials"
	ErrMalformedPolicy    ErrorCode = "MalformedPolicy"
	ErrNoCredentials      ErrorCode = "NoCredentials"
	ErrDataUnavailable    ErrorCode = "DataUnavailable"
	ErrInvalidToken       ErrorCode = "InvalidToken"
	ErrValidationFailed   ErrorCode = "ValidationFailed"
	ErrUnknown            ErrorCode = "UnknownError"
)

// Error pairs a code with a display-safe message. The wrapped provider error
// is retained for logs but never crosses the service boundary.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a typed error without a cause.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// CodeOf extracts the ErrorCode from err, or ErrUnknown.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrUnknown
}

// classify maps a provider error onto the failure taxonomy. The fallback is
// used for API errors that match no known code.
func classify(err error, message string, fallback ErrorCode) *Error {
	code := fallback

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "AccessDeniedException", "UnauthorizedOperation", "UnauthorizedException":
			code = ErrAccessDenied
		case "InvalidClientTokenId", "SignatureDoesNotMatch", "AuthFailure",
			"UnrecognizedClientException", "ExpiredToken", "ExpiredTokenException", "IncompleteSignature":
			code = ErrInvalidCredentials
		case "MalformedPolicyDocument", "MalformedPolicyDocumentException":
			code = ErrMalformedPolicy
		case "DataUnavailableException":
			code = ErrDataUnavailable
		case "InvalidNextTokenException":
			code = ErrInvalidToken
		}
	} else if isCredentialResolutionError(err) {
		code = ErrNoCredentials
	}

	return &Error{Code: code, Message: message, Err: err}
}

// isCredentialResolutionError detects the SDK failing to find any usable
// base credential source (env, shared config, instance profile).
func isCredentialResolutionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range []string{
		"failed to retrieve credentials",
		"failed to refresh cached credentials",
		"no EC2 IMDS role found",
		"static credentials are empty",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

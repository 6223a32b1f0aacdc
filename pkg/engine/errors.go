package engine

import (
	"errors"
	"fmt"
	"net/http"

	awsx "github.com/aqkprogrammer/finops-saas/pkg/engine/aws"
)

// Stage names the pipeline phase a scan failure occurred in.
type Stage string

const (
	StageAssumingRole          Stage = "AssumingRole"
	StageValidatingPermissions Stage = "ValidatingPermissions"
	StageCollecting            Stage = "Collecting"
	StageEvaluating            Stage = "Evaluating"
	StageCalculating           Stage = "Calculating"
)

// CodeScanTimeout marks a scan that hit its overall deadline.
const CodeScanTimeout awsx.ErrorCode = "ScanTimeout"

// ScanError is the single failure shape a scan surfaces. The HTTP status
// lets an API layer map it onto a response band without inspecting codes.
type ScanError struct {
	Stage      Stage          `json:"stage"`
	Code       awsx.ErrorCode `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"httpStatus"`
	Err        error          `json:"-"`
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan failed in %s: %s: %s", e.Stage, e.Code, e.Message)
}

func (e *ScanError) Unwrap() error { return e.Err }

// failStage wraps a stage failure into a ScanError, classifying the code
// from the underlying error.
func failStage(stage Stage, err error) *ScanError {
	code := awsx.CodeOf(err)
	var vErr *awsx.ValidationError
	if errors.As(err, &vErr) {
		code = awsx.ErrValidationFailed
	}
	return &ScanError{
		Stage:      stage,
		Code:       code,
		Message:    err.Error(),
		HTTPStatus: httpStatusFor(code),
		Err:        err,
	}
}

// failTimeout reports a scan that exceeded its deadline in the given stage.
func failTimeout(stage Stage) *ScanError {
	return &ScanError{
		Stage:      stage,
		Code:       CodeScanTimeout,
		Message:    "scan exceeded its deadline",
		HTTPStatus: httpStatusFor(CodeScanTimeout),
	}
}

// httpStatusFor buckets failure codes into response bands: caller input
// problems are 400, authorization problems 403, upstream data gaps and
// timeouts 503, everything else 500.
func httpStatusFor(code awsx.ErrorCode) int {
	switch code {
	case awsx.ErrInvalidRoleArn, awsx.ErrInvalidWindow, awsx.ErrInvalidToken:
		return http.StatusBadRequest
	case awsx.ErrAccessDenied, awsx.ErrInvalidCredentials, awsx.ErrMalformedPolicy,
		awsx.ErrNoCredentials, awsx.ErrValidationFailed:
		return http.StatusForbidden
	case awsx.ErrDataUnavailable, CodeScanTimeout:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

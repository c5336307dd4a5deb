package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for retry and HTTP mapping decisions.
type Kind int

const (
	// KindNotFound: a referenced record is absent. Surfaced, never retried.
	KindNotFound Kind = iota
	// KindInvalidState: a transition attempted from the wrong state, or a
	// duplicate open request. Callers must not retry automatically.
	KindInvalidState
	// KindPolicyViolation: a user-facing rejection (insufficient notice,
	// unauthorized requester). Not a system fault.
	KindPolicyViolation
	// KindExternalFailure: a collaborator (payment, persistence) failed
	// mid-transition. State is unchanged, so the operation is retriable.
	KindExternalFailure
	// KindValidation: malformed or contradictory input.
	KindValidation
)

// Stable reason codes. Clients branch on these, not on messages.
const (
	CodePolicyNotFound        = "POLICY_NOT_FOUND"
	CodeBookingNotFound       = "BOOKING_NOT_FOUND"
	CodeCancellationNotFound  = "CANCELLATION_NOT_FOUND"
	CodeModificationNotFound  = "MODIFICATION_NOT_FOUND"
	CodeDuplicateRequest      = "DUPLICATE_REQUEST"
	CodeInvalidTransition     = "INVALID_TRANSITION"
	CodeInsufficientNotice    = "INSUFFICIENT_NOTICE"
	CodeNotConfirmed          = "NOT_CONFIRMED"
	CodeUnauthorizedRequester = "UNAUTHORIZED_REQUESTER"
	CodePaymentNotCaptured    = "PAYMENT_NOT_CAPTURED"
	CodeRefundNotEligible     = "REFUND_NOT_ELIGIBLE"
	CodeValidationFailed      = "VALIDATION_FAILED"
	CodeExternalFailure       = "EXTERNAL_FAILURE"
	CodeDatabaseError         = "DATABASE_ERROR"
	CodeTourNotFound          = "TOUR_NOT_FOUND"
	CodeCategoryNotFound      = "CATEGORY_NOT_FOUND"
	CodeScheduleNotFound      = "SCHEDULE_NOT_FOUND"
)

// Error is the single error type the engine surfaces to callers.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches two apperr.Errors by reason code so errors.Is works with
// the exported sentinel constructors below.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Newf(kind Kind, code, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches an underlying cause, typically a collaborator failure.
func Wrap(kind Kind, code, message string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

// NotFound builds a NotFound error for a record type and identifier.
func NotFound(code, resource string, id interface{}) *Error {
	return Newf(KindNotFound, code, "%s not found: %v", resource, id)
}

// InvalidTransition reports a transition attempted from a non-source state.
func InvalidTransition(from, to string) *Error {
	return Newf(KindInvalidState, CodeInvalidTransition, "cannot transition from %s to %s", from, to)
}

// Code extracts the stable reason code, or empty for non-app errors.
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindNotFound
}

func IsInvalidState(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindInvalidState
}

func IsPolicyViolation(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindPolicyViolation
}

func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindExternalFailure
}

// HTTPStatus maps an error to the status code controllers should return.
func HTTPStatus(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidState:
		return http.StatusConflict
	case KindPolicyViolation:
		return http.StatusUnprocessableEntity
	case KindValidation:
		return http.StatusBadRequest
	case KindExternalFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

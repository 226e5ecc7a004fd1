// Package apperr is the error taxonomy shared by the billing services.
// Services return *Error values; the HTTP layer maps the Kind to a status
// and a stable error_code.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindValidation        Kind = "validation"
	KindNotFound          Kind = "not_found"
	KindAuthorization     Kind = "authorization"
	KindAmountMismatch    Kind = "amount_mismatch"
	KindInvalidTransition Kind = "invalid_transition"
	KindGateway           Kind = "gateway"
	KindPersistence       Kind = "persistence"
)

type Error struct {
	Kind    Kind
	Message string
	// Fields holds per-field validation messages.
	Fields map[string][]string
	// Details carries structured extras, e.g. expected_amount.
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string, fields map[string][]string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Fields: fields}
}

// Field builds a validation error for a single field.
func Field(field, msg string) *Error {
	return Validation(msg, map[string][]string{field: {msg}})
}

func NotFound(entity string) *Error {
	return &Error{Kind: KindNotFound, Message: entity + " not found"}
}

func Authorization(msg string) *Error {
	return &Error{Kind: KindAuthorization, Message: msg}
}

func AmountMismatch(expected decimal.Decimal) *Error {
	return &Error{
		Kind:    KindAmountMismatch,
		Message: "Payment amount must match the total payable amount of " + expected.StringFixed(2),
		Details: map[string]any{"expected_amount": expected.StringFixed(2)},
	}
}

func InvalidTransition(from, to string) *Error {
	return &Error{
		Kind:    KindInvalidTransition,
		Message: fmt.Sprintf("cannot change payment status from %s to %s", from, to),
		Details: map[string]any{"from": from, "to": to},
	}
}

func Gateway(gateway string, err error) *Error {
	return &Error{Kind: KindGateway, Message: gateway + " gateway call failed", Err: err}
}

func Persistence(err error) *Error {
	return &Error{Kind: KindPersistence, Message: "storage unavailable", Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func Is(err error, k Kind) bool { return KindOf(err) == k }

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindAmountMismatch:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	case KindAuthorization:
		return http.StatusForbidden
	case KindInvalidTransition:
		return http.StatusConflict
	case KindGateway:
		return http.StatusBadGateway
	case KindPersistence:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func ErrorCode(err error) string {
	switch KindOf(err) {
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindAmountMismatch:
		return "AMOUNT_MISMATCH"
	case KindNotFound:
		return "NOT_FOUND"
	case KindAuthorization:
		return "AUTHORIZATION_ERROR"
	case KindInvalidTransition:
		return "INVALID_TRANSITION"
	case KindGateway:
		return "GATEWAY_ERROR"
	case KindPersistence:
		return "PERSISTENCE_ERROR"
	default:
		return "INTERNAL_ERROR"
	}
}

// PublicMessage never leaks wrapped causes.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}

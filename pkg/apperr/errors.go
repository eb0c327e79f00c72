// Package apperr contains the error taxonomy shared by every bridge
// component: the chain-agnostic core, the chain adapters, and the
// off-chain services.
package apperr

import (
	"errors"
	"net/http"
)

// Category classifies a bridge error into the taxonomy from the protocol
// specification (InvalidInput, NotRegistered, ReplayOrDuplicate, ...).
type Category int

const (
	// CategoryNoError marks the absence of an error for tracing purposes.
	CategoryNoError Category = iota
	// CategoryInvalidInput covers malformed or zero-value caller input.
	CategoryInvalidInput
	// CategoryNotRegistered covers unknown chains, tokens or mappings.
	CategoryNotRegistered
	// CategoryDisabled covers chains/tokens/mappings that exist but are disabled.
	CategoryDisabled
	// CategoryReplayOrDuplicate covers hash collisions and reused nonces.
	CategoryReplayOrDuplicate
	// CategoryWindowViolation covers cancel-window/execute-window timing errors.
	CategoryWindowViolation
	// CategoryReentrancy covers reentrant entry into a guarded transition.
	CategoryReentrancy
	// CategoryTokenMisbehaved covers balance-assertion failures on transfer/mint/burn.
	CategoryTokenMisbehaved
	// CategoryPaused covers calls rejected because the bridge is paused.
	CategoryPaused
	// CategoryForbidden covers RBAC rejections.
	CategoryForbidden
	// CategoryRpcTransient covers retryable off-chain RPC failures.
	CategoryRpcTransient
	// CategoryRpcPermanent covers malformed payloads that must not be retried.
	CategoryRpcPermanent
	// CategoryOperatorGasPaymentFailed covers a failed best-effort tip payout.
	CategoryOperatorGasPaymentFailed
	// CategoryConfirmationTimeout covers an unconfirmed broadcast.
	CategoryConfirmationTimeout
	// CategoryGeneralError is the fallback for unclassified failures.
	CategoryGeneralError
)

func (c Category) String() string {
	switch c {
	case CategoryInvalidInput:
		return "InvalidInput"
	case CategoryNotRegistered:
		return "NotRegistered"
	case CategoryDisabled:
		return "Disabled"
	case CategoryReplayOrDuplicate:
		return "ReplayOrDuplicate"
	case CategoryWindowViolation:
		return "WindowViolation"
	case CategoryReentrancy:
		return "ReentrancyDetected"
	case CategoryTokenMisbehaved:
		return "TokenMisbehaved"
	case CategoryPaused:
		return "Paused"
	case CategoryForbidden:
		return "Forbidden"
	case CategoryRpcTransient:
		return "RpcTransient"
	case CategoryRpcPermanent:
		return "RpcPermanent"
	case CategoryOperatorGasPaymentFailed:
		return "OperatorGasPaymentFailed"
	case CategoryConfirmationTimeout:
		return "ConfirmationTimeout"
	default:
		return "GeneralError"
	}
}

// BridgeError is the concrete error type returned by bridgecore, the chain
// adapters and the off-chain services.
type BridgeError struct {
	Category Category
	Message  string
	Err      error
}

func (e *BridgeError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes the wrapped error to errors.Is/errors.As.
func (e *BridgeError) Unwrap() error {
	return e.Err
}

// Is checks whether err is a BridgeError with category cat.
func Is(err error, cat Category) bool {
	var be *BridgeError
	if errors.As(err, &be) {
		return be.Category == cat
	}
	return false
}

// StatusCode maps a category onto the HTTP status code the registry/admin
// API surface should return for it.
func (e *BridgeError) StatusCode() int {
	switch e.Category {
	case CategoryInvalidInput:
		return http.StatusBadRequest
	case CategoryNotRegistered:
		return http.StatusNotFound
	case CategoryDisabled:
		return http.StatusConflict
	case CategoryReplayOrDuplicate:
		return http.StatusConflict
	case CategoryWindowViolation:
		return http.StatusConflict
	case CategoryReentrancy:
		return http.StatusConflict
	case CategoryTokenMisbehaved:
		return http.StatusUnprocessableEntity
	case CategoryPaused:
		return http.StatusServiceUnavailable
	case CategoryForbidden:
		return http.StatusForbidden
	case CategoryRpcTransient:
		return http.StatusBadGateway
	case CategoryRpcPermanent:
		return http.StatusBadGateway
	case CategoryOperatorGasPaymentFailed:
		return http.StatusConflict
	case CategoryConfirmationTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func newErr(cat Category, message string, err error) error {
	return &BridgeError{Category: cat, Message: message, Err: err}
}

// InvalidInput builds a CategoryInvalidInput error.
func InvalidInput(message string, err error) error {
	return newErr(CategoryInvalidInput, message, err)
}

// NotRegistered builds a CategoryNotRegistered error.
func NotRegistered(message string, err error) error {
	return newErr(CategoryNotRegistered, message, err)
}

// Disabled builds a CategoryDisabled error.
func Disabled(message string, err error) error {
	return newErr(CategoryDisabled, message, err)
}

// ReplayOrDuplicate builds a CategoryReplayOrDuplicate error.
func ReplayOrDuplicate(message string, err error) error {
	return newErr(CategoryReplayOrDuplicate, message, err)
}

// WindowViolation builds a CategoryWindowViolation error.
func WindowViolation(message string, err error) error {
	return newErr(CategoryWindowViolation, message, err)
}

// Reentrancy builds a CategoryReentrancy error.
func Reentrancy(message string) error {
	return newErr(CategoryReentrancy, message, nil)
}

// TokenMisbehaved builds a CategoryTokenMisbehaved error.
func TokenMisbehaved(message string, err error) error {
	return newErr(CategoryTokenMisbehaved, message, err)
}

// Paused builds a CategoryPaused error.
func Paused(message string) error {
	return newErr(CategoryPaused, message, nil)
}

// Forbidden builds a CategoryForbidden error.
func Forbidden(message string) error {
	return newErr(CategoryForbidden, message, nil)
}

// RpcTransient builds a CategoryRpcTransient error.
func RpcTransient(message string, err error) error {
	return newErr(CategoryRpcTransient, message, err)
}

// RpcPermanent builds a CategoryRpcPermanent error.
func RpcPermanent(message string, err error) error {
	return newErr(CategoryRpcPermanent, message, err)
}

// OperatorGasPaymentFailed builds a CategoryOperatorGasPaymentFailed error.
func OperatorGasPaymentFailed(message string, err error) error {
	return newErr(CategoryOperatorGasPaymentFailed, message, err)
}

// ConfirmationTimeout builds a CategoryConfirmationTimeout error.
func ConfirmationTimeout(message string) error {
	return newErr(CategoryConfirmationTimeout, message, nil)
}

// General builds a CategoryGeneralError error.
func General(err error) error {
	if err == nil {
		err = errors.New("internal error")
	}
	return newErr(CategoryGeneralError, "internal error", err)
}

package orders

import (
	"fmt"
	"net/http"
)

// Error is a business rule violation that maps directly onto an API response.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(status int, code, format string, args ...interface{}) *Error {
	return &Error{Status: status, Code: code, Message: fmt.Sprintf(format, args...)}
}

var (
	ErrNotVerified   = newError(http.StatusBadRequest, "EMAIL_NOT_VERIFIED", "Please verify your email before placing orders")
	ErrEmptyOrder    = newError(http.StatusBadRequest, "INVALID_REQUEST", "Order must contain at least one item")
	ErrNoAddress     = newError(http.StatusBadRequest, "INVALID_REQUEST", "Shipping address is required")
	ErrOrderNotFound = newError(http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
	ErrOrderClosed   = newError(http.StatusConflict, "ORDER_CLOSED", "Cancelled orders cannot change status")
)

func errInvalidQuantity(productID string) *Error {
	return newError(http.StatusBadRequest, "INVALID_REQUEST", "Quantity for product %s must be between 1 and %d", productID, MaxLineQuantity)
}

func errProductNotFound(productID string) *Error {
	return newError(http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product %s not found", productID)
}

func errProductUnavailable(name string) *Error {
	return newError(http.StatusBadRequest, "PRODUCT_UNAVAILABLE", "Product %s is not available", name)
}

func errInsufficientStock(name string) *Error {
	return newError(http.StatusBadRequest, "INSUFFICIENT_STOCK", "Insufficient stock for %s", name)
}

func errInvalidStatus(status string) *Error {
	return newError(http.StatusBadRequest, "INVALID_STATUS", "Invalid status %q", status)
}

// Package errors provides custom error types for order-related operations.
package errors

import "errors"

var ErrOrderNotFound = errors.New("order not found")
var ErrProductNotFound = errors.New("product not found")
var ErrInsufficientStock = errors.New("not enough stock")

var ErrAccessDenied = errors.New("access denied")
var ErrNotCancellable = errors.New("only pending orders can be cancelled")
var ErrInvalidTransition = errors.New("invalid order status transition")
var ErrAlreadyPaid = errors.New("order is already paid for")
var ErrPaymentRefMismatch = errors.New("payment reference does not match this order")
var ErrPaymentAmountMismatch = errors.New("paid amount does not match the order total")

var ErrCreateOrder = errors.New("failed to create order")
var ErrCancelOrder = errors.New("failed to cancel order")
var ErrUpdateOrder = errors.New("failed to update order")
var ErrFailedToFindOrder = errors.New("failed to find order")
var ErrFailedToFindUserOrders = errors.New("failed to find user orders")

var ErrTransactionBegin = errors.New("failed to begin transaction")
var ErrTransactionCommit = errors.New("failed to commit transaction")
var ErrTransactionRollback = errors.New("failed to rollback transaction")

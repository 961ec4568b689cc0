package canteen

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrNoPaymentMethod = errors.New("payment method not selected")
	ErrBadPayment      = errors.New("unknown payment method")
	ErrNotOwner        = errors.New("not permitted")
	ErrNotFound        = errors.New("not found")
	ErrTerminalState   = errors.New("order already in terminal state")
)

// InsufficientStockError membawa item yg kurang supaya pesan ke buyer spesifik.
type InsufficientStockError struct {
	MenuID    string
	MenuName  string
	Required  int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: need %d, have %d", e.MenuName, e.Required, e.Available)
}

// InvalidStateError: transisi diminta dari state yg tidak mengizinkannya.
type InvalidStateError struct {
	OrderID string
	Status  Status
	Action  string // "cancel" | "advance"
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s order %s in status %s", e.Action, e.OrderID, e.Status)
}

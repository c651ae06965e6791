package service

import (
	"fmt"

	"github.com/google/uuid"
)

// Shortfall itemizes one product whose requested quantity exceeds what is
// available. Insufficient-stock failures always carry the full list so the
// caller can show every problem at once.
type Shortfall struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name,omitempty"`
	Requested   int       `json:"requested"`
	Available   int       `json:"available"`
	Unit        string    `json:"unit,omitempty"`
}

// InsufficientStockError rejects an operation that would over-draw stock.
// Nothing has been persisted when this is returned.
type InsufficientStockError struct {
	Shortfalls []Shortfall
}

func (e *InsufficientStockError) Error() string {
	if len(e.Shortfalls) == 1 {
		s := e.Shortfalls[0]
		return fmt.Sprintf("insufficient stock: requested %d, available %d", s.Requested, s.Available)
	}
	return fmt.Sprintf("insufficient stock for %d items", len(e.Shortfalls))
}

// InvalidStatusTransitionError rejects a status edge that does not exist in
// the order state machine.
type InvalidStatusTransitionError struct {
	From string
	To   string
}

func (e *InvalidStatusTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %q to %q", e.From, e.To)
}

// OrderNotFoundError means the order/store pair did not resolve.
type OrderNotFoundError struct {
	OrderID uuid.UUID
}

func (e *OrderNotFoundError) Error() string {
	return fmt.Sprintf("order %s not found", e.OrderID)
}

// PaymentStatusError rejects a payment transition whose method/state
// precondition does not hold.
type PaymentStatusError struct {
	OrderID       uuid.UUID
	PaymentStatus string
	Reason        string
}

func (e *PaymentStatusError) Error() string {
	return fmt.Sprintf("payment error for order %s (status %s): %s", e.OrderID, e.PaymentStatus, e.Reason)
}

// StoresNotSameTenantError rejects a transfer between stores of different
// tenants.
type StoresNotSameTenantError struct {
	SourceStoreID      uuid.UUID
	DestinationStoreID uuid.UUID
}

func (e *StoresNotSameTenantError) Error() string {
	return fmt.Sprintf("stores %s and %s do not belong to the same tenant", e.SourceStoreID, e.DestinationStoreID)
}

// NotFoundError is a generic missing-resource failure for store/product
// resolution where no partial result makes sense.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ValidationError rejects structurally invalid input before any mutation.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

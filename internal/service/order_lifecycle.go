package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"posbackend/internal/model"
	"posbackend/internal/repository"
	ws "posbackend/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// BankTransferExpiry is how long a bank-transfer order may stay unpaid
// before IsPaymentExpired reports it as expired.
const BankTransferExpiry = 24 * time.Hour

// statusTransitions is the full order state graph. delivered and cancelled
// are terminal.
var statusTransitions = map[string][]string{
	model.OrderStatusPending:    {model.OrderStatusConfirmed, model.OrderStatusCancelled},
	model.OrderStatusConfirmed:  {model.OrderStatusProcessing, model.OrderStatusCancelled},
	model.OrderStatusProcessing: {model.OrderStatusShipped, model.OrderStatusCancelled},
	model.OrderStatusShipped:    {model.OrderStatusDelivered},
	model.OrderStatusDelivered:  {},
	model.OrderStatusCancelled:  {},
}

// IsValidTransition reports whether the edge current -> target exists in the
// order state graph. No self-transitions, no skipping states, no way out of
// a terminal state.
func IsValidTransition(current, target string) bool {
	for _, allowed := range statusTransitions[current] {
		if allowed == target {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the target statuses reachable from status.
func AllowedTransitions(status string) []string {
	targets := statusTransitions[status]
	out := make([]string, len(targets))
	copy(out, targets)
	return out
}

// IsPaymentExpired reports whether a pending bank-transfer payment has
// outlived its window. Pure predicate: it never mutates the order; callers
// poll it to decide whether to cancel.
func IsPaymentExpired(order *model.Order) bool {
	if order.PaymentMethod != model.PaymentMethodBankTransfer {
		return false
	}
	if order.PaymentStatus != model.PaymentStatusPending {
		return false
	}
	return time.Since(order.CreatedAt) > BankTransferExpiry
}

// DTOs
type UpdateStatusOptions struct {
	TrackingNumber  string `json:"tracking_number"`
	ShippingCarrier string `json:"shipping_carrier"`
	Note            string `json:"note"`
	ActorID         string `json:"-"`
}

type StatusChangeResult struct {
	Order          *model.Order `json:"order"`
	PreviousStatus string       `json:"previous_status"`
	NewStatus      string       `json:"new_status"`
	Timestamp      time.Time    `json:"timestamp"`
}

// OrderLifecycleService is the only writer of order status, payment status
// and their timestamps. Every transition runs in one transaction together
// with its side effects (stock restoration on cancel), so order state and
// inventory can never diverge.
type OrderLifecycleService interface {
	UpdateStatus(ctx context.Context, storeID, orderID uuid.UUID, target string, opts UpdateStatusOptions) (*StatusChangeResult, error)
	ConfirmBankTransfer(ctx context.Context, storeID, orderID uuid.UUID, reference string) (*model.Order, error)
	CompleteCODPayment(ctx context.Context, storeID, orderID uuid.UUID, collectedAmount decimal.Decimal) (*model.Order, error)
	MarkPaymentFailed(ctx context.Context, storeID, orderID uuid.UUID, reason string) (*model.Order, error)
	ProcessRefund(ctx context.Context, storeID, orderID uuid.UUID, amount decimal.Decimal, reason string) (*model.Order, error)
}

type orderLifecycleService struct {
	orderRepo repository.OrderRepository
	auditRepo repository.AuditRepository
	ledger    LotLedger
	txManager repository.TransactionManager
	hub       *ws.Hub
	logger    *logrus.Logger
}

func NewOrderLifecycleService(
	orderRepo repository.OrderRepository,
	auditRepo repository.AuditRepository,
	ledger LotLedger,
	txManager repository.TransactionManager,
	hub *ws.Hub,
	logger *logrus.Logger,
) OrderLifecycleService {
	return &orderLifecycleService{
		orderRepo: orderRepo,
		auditRepo: auditRepo,
		ledger:    ledger,
		txManager: txManager,
		hub:       hub,
		logger:    logger,
	}
}

// appendOrderNote appends one timestamped audit line to the order's embedded
// note log. The note field is append-only: lines are never rewritten.
func appendOrderNote(order *model.Order, line string) {
	entry := "[" + time.Now().Format("2006-01-02 15:04:05") + "] " + line
	if order.Note == "" {
		order.Note = entry
		return
	}
	order.Note += "\n" + entry
}

func (s *orderLifecycleService) UpdateStatus(ctx context.Context, storeID, orderID uuid.UUID, target string, opts UpdateStatusOptions) (*StatusChangeResult, error) {
	var result *StatusChangeResult

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err := s.orderRepo.FindByIDForUpdate(txCtx, storeID, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &OrderNotFoundError{OrderID: orderID}
			}
			return fmt.Errorf("failed to load order: %w", err)
		}

		if !IsValidTransition(order.Status, target) {
			return &InvalidStatusTransitionError{From: order.Status, To: target}
		}

		previous := order.Status
		now := time.Now()
		order.Status = target

		// Each lifecycle timestamp is written exactly once; the state graph
		// never revisits a status, so a non-nil value is left alone.
		switch target {
		case model.OrderStatusConfirmed:
			if order.ConfirmedAt == nil {
				order.ConfirmedAt = &now
			}
		case model.OrderStatusShipped:
			if order.ShippedAt == nil {
				order.ShippedAt = &now
			}
			if opts.TrackingNumber != "" {
				order.TrackingNumber = opts.TrackingNumber
			}
			if opts.ShippingCarrier != "" {
				order.ShippingCarrier = opts.ShippingCarrier
			}
		case model.OrderStatusDelivered:
			if order.DeliveredAt == nil {
				order.DeliveredAt = &now
			}
		case model.OrderStatusCancelled:
			if order.CancelledAt == nil {
				order.CancelledAt = &now
			}
			items, itemsErr := s.orderRepo.FindItems(txCtx, order.ID)
			if itemsErr != nil {
				return fmt.Errorf("failed to load order items: %w", itemsErr)
			}
			for _, item := range items {
				if restoreErr := s.ledger.Restore(txCtx, item.ProductID, order.StoreID, item.Quantity); restoreErr != nil {
					return fmt.Errorf("failed to restore stock for item %s: %w", item.ID, restoreErr)
				}
			}
		}

		line := fmt.Sprintf("status changed %s -> %s", previous, target)
		if opts.Note != "" {
			line += ": " + opts.Note
		}
		appendOrderNote(order, line)

		if saveErr := s.orderRepo.Save(txCtx, order); saveErr != nil {
			return fmt.Errorf("failed to save order: %w", saveErr)
		}

		if auditErr := s.logAudit(txCtx, opts.ActorID, model.ActionOrderStatusChange, order, map[string]interface{}{
			"previous_status": previous,
			"new_status":      target,
		}); auditErr != nil {
			return auditErr
		}

		updated, readErr := s.orderRepo.FindByIDWithItems(txCtx, storeID, orderID)
		if readErr != nil {
			return fmt.Errorf("failed to reload order: %w", readErr)
		}

		result = &StatusChangeResult{
			Order:          updated,
			PreviousStatus: previous,
			NewStatus:      target,
			Timestamp:      now,
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	publish(s.hub, EventOrderStatusChanged, map[string]interface{}{
		"order_id":        result.Order.ID.String(),
		"order_number":    result.Order.OrderNumber,
		"previous_status": result.PreviousStatus,
		"new_status":      result.NewStatus,
	})
	if result.NewStatus == model.OrderStatusCancelled {
		publish(s.hub, EventStockRestored, map[string]interface{}{
			"order_id": result.Order.ID.String(),
			"store_id": result.Order.StoreID.String(),
			"items":    len(result.Order.Items),
		})
	}

	return result, nil
}

// ConfirmBankTransfer marks a pending bank-transfer payment as paid.
func (s *orderLifecycleService) ConfirmBankTransfer(ctx context.Context, storeID, orderID uuid.UUID, reference string) (*model.Order, error) {
	return s.updatePayment(ctx, storeID, orderID, func(order *model.Order) error {
		if order.PaymentMethod != model.PaymentMethodBankTransfer {
			return &PaymentStatusError{OrderID: order.ID, PaymentStatus: order.PaymentStatus, Reason: "payment method is not bank_transfer"}
		}
		if order.Status == model.OrderStatusCancelled {
			return &PaymentStatusError{OrderID: order.ID, PaymentStatus: order.PaymentStatus, Reason: "order is cancelled"}
		}
		if order.PaymentStatus != model.PaymentStatusPending {
			return &PaymentStatusError{OrderID: order.ID, PaymentStatus: order.PaymentStatus, Reason: "payment is not pending"}
		}

		now := time.Now()
		order.PaymentStatus = model.PaymentStatusPaid
		order.PaidAt = &now
		appendOrderNote(order, "bank transfer confirmed, reference: "+reference)
		return nil
	})
}

// CompleteCODPayment marks a COD payment as paid. The order must already be
// shipped or delivered and the collected amount must match the total exactly.
func (s *orderLifecycleService) CompleteCODPayment(ctx context.Context, storeID, orderID uuid.UUID, collectedAmount decimal.Decimal) (*model.Order, error) {
	return s.updatePayment(ctx, storeID, orderID, func(order *model.Order) error {
		if order.PaymentMethod != model.PaymentMethodCOD {
			return &PaymentStatusError{OrderID: order.ID, PaymentStatus: order.PaymentStatus, Reason: "payment method is not cod"}
		}
		if order.Status != model.OrderStatusShipped && order.Status != model.OrderStatusDelivered {
			return &PaymentStatusError{OrderID: order.ID, PaymentStatus: order.PaymentStatus, Reason: "order must be shipped or delivered"}
		}
		if order.PaymentStatus != model.PaymentStatusPending {
			return &PaymentStatusError{OrderID: order.ID, PaymentStatus: order.PaymentStatus, Reason: "payment is not pending"}
		}
		if !collectedAmount.Equal(order.Total) {
			return &PaymentStatusError{
				OrderID:       order.ID,
				PaymentStatus: order.PaymentStatus,
				Reason:        fmt.Sprintf("collected amount %s does not match order total %s", collectedAmount, order.Total),
			}
		}

		now := time.Now()
		order.PaymentStatus = model.PaymentStatusPaid
		order.PaidAt = &now
		appendOrderNote(order, "cod payment collected: "+collectedAmount.String())
		return nil
	})
}

func (s *orderLifecycleService) MarkPaymentFailed(ctx context.Context, storeID, orderID uuid.UUID, reason string) (*model.Order, error) {
	return s.updatePayment(ctx, storeID, orderID, func(order *model.Order) error {
		if order.PaymentStatus != model.PaymentStatusPending {
			return &PaymentStatusError{OrderID: order.ID, PaymentStatus: order.PaymentStatus, Reason: "payment is not pending"}
		}

		order.PaymentStatus = model.PaymentStatusFailed
		appendOrderNote(order, "payment failed: "+reason)
		return nil
	})
}

func (s *orderLifecycleService) ProcessRefund(ctx context.Context, storeID, orderID uuid.UUID, amount decimal.Decimal, reason string) (*model.Order, error) {
	return s.updatePayment(ctx, storeID, orderID, func(order *model.Order) error {
		if order.PaymentStatus != model.PaymentStatusPaid {
			return &PaymentStatusError{OrderID: order.ID, PaymentStatus: order.PaymentStatus, Reason: "payment is not paid"}
		}
		if amount.GreaterThan(order.Total) {
			return &PaymentStatusError{
				OrderID:       order.ID,
				PaymentStatus: order.PaymentStatus,
				Reason:        fmt.Sprintf("refund amount %s exceeds order total %s", amount, order.Total),
			}
		}

		now := time.Now()
		order.PaymentStatus = model.PaymentStatusRefunded
		order.RefundedAt = &now
		appendOrderNote(order, fmt.Sprintf("refund of %s processed: %s", amount, reason))
		return nil
	})
}

// updatePayment runs one payment transition in a transaction: lock the
// order, apply the transition (or reject it), persist, audit.
func (s *orderLifecycleService) updatePayment(ctx context.Context, storeID, orderID uuid.UUID, apply func(order *model.Order) error) (*model.Order, error) {
	var updated *model.Order

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err := s.orderRepo.FindByIDForUpdate(txCtx, storeID, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &OrderNotFoundError{OrderID: orderID}
			}
			return fmt.Errorf("failed to load order: %w", err)
		}

		previous := order.PaymentStatus
		if applyErr := apply(order); applyErr != nil {
			return applyErr
		}

		if saveErr := s.orderRepo.Save(txCtx, order); saveErr != nil {
			return fmt.Errorf("failed to save order: %w", saveErr)
		}

		if auditErr := s.logAudit(txCtx, "", model.ActionPaymentUpdate, order, map[string]interface{}{
			"previous_payment_status": previous,
			"new_payment_status":      order.PaymentStatus,
		}); auditErr != nil {
			return auditErr
		}

		reloaded, readErr := s.orderRepo.FindByIDWithItems(txCtx, storeID, orderID)
		if readErr != nil {
			return fmt.Errorf("failed to reload order: %w", readErr)
		}
		updated = reloaded
		return nil
	})

	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *orderLifecycleService) logAudit(ctx context.Context, actorID, action string, order *model.Order, details map[string]interface{}) error {
	var uid *uuid.UUID
	if parsed, err := uuid.Parse(actorID); err == nil {
		uid = &parsed
	}

	payload, _ := json.Marshal(details)
	entry := &model.AuditLog{
		UserID:     uid,
		Action:     action,
		EntityID:   order.ID.String(),
		EntityName: order.OrderNumber,
		Details:    string(payload),
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

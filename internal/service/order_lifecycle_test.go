package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"posbackend/internal/cache"
	"posbackend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type lifecycleFixture struct {
	service   OrderLifecycleService
	orderRepo *fakeOrderRepo
	lotRepo   *fakeLotRepo
	auditRepo *fakeAuditRepo
	storeID   uuid.UUID
}

func newLifecycleFixture() *lifecycleFixture {
	orderRepo := &fakeOrderRepo{}
	lotRepo := &fakeLotRepo{}
	auditRepo := &fakeAuditRepo{}
	ledger := NewLotLedger(lotRepo, cache.NoopAvailabilityCache{}, testLogger())

	return &lifecycleFixture{
		service:   NewOrderLifecycleService(orderRepo, auditRepo, ledger, fakeTxManager{}, nil, testLogger()),
		orderRepo: orderRepo,
		lotRepo:   lotRepo,
		auditRepo: auditRepo,
		storeID:   uuid.New(),
	}
}

func (f *lifecycleFixture) seedOrder(status, paymentStatus, paymentMethod string, total decimal.Decimal) *model.Order {
	order := &model.Order{
		StoreID:       f.storeID,
		OrderNumber:   "ON202503010001",
		Status:        status,
		PaymentStatus: paymentStatus,
		PaymentMethod: paymentMethod,
		Subtotal:      total,
		Total:         total,
	}
	_ = f.orderRepo.Create(context.Background(), order)
	return order
}

func TestIsValidTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{model.OrderStatusPending, model.OrderStatusConfirmed, true},
		{model.OrderStatusPending, model.OrderStatusCancelled, true},
		{model.OrderStatusPending, model.OrderStatusShipped, false},
		{model.OrderStatusPending, model.OrderStatusPending, false},
		{model.OrderStatusConfirmed, model.OrderStatusProcessing, true},
		{model.OrderStatusConfirmed, model.OrderStatusCancelled, true},
		{model.OrderStatusConfirmed, model.OrderStatusDelivered, false},
		{model.OrderStatusProcessing, model.OrderStatusShipped, true},
		{model.OrderStatusProcessing, model.OrderStatusCancelled, true},
		{model.OrderStatusShipped, model.OrderStatusDelivered, true},
		{model.OrderStatusShipped, model.OrderStatusCancelled, false},
		{model.OrderStatusDelivered, model.OrderStatusCancelled, false},
		{model.OrderStatusCancelled, model.OrderStatusPending, false},
		{model.OrderStatusCancelled, model.OrderStatusConfirmed, false},
	}

	for _, tt := range tests {
		if got := IsValidTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("IsValidTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestUpdateStatusConfirm(t *testing.T) {
	f := newLifecycleFixture()
	order := f.seedOrder(model.OrderStatusPending, model.PaymentStatusPending, model.PaymentMethodCOD, decimal.NewFromInt(500))

	result, err := f.service.UpdateStatus(context.Background(), f.storeID, order.ID, model.OrderStatusConfirmed, UpdateStatusOptions{Note: "stock checked"})
	if err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}

	if result.PreviousStatus != model.OrderStatusPending || result.NewStatus != model.OrderStatusConfirmed {
		t.Errorf("result statuses = %s -> %s", result.PreviousStatus, result.NewStatus)
	}
	if result.Order.ConfirmedAt == nil {
		t.Error("confirmed_at should be set")
	}
	if !strings.Contains(result.Order.Note, "pending -> confirmed") || !strings.Contains(result.Order.Note, "stock checked") {
		t.Errorf("note should record the transition, got %q", result.Order.Note)
	}
	if len(f.auditRepo.entries) != 1 || f.auditRepo.entries[0].Action != model.ActionOrderStatusChange {
		t.Errorf("expected one ORDER_STATUS_CHANGE audit entry, got %+v", f.auditRepo.entries)
	}
}

func TestUpdateStatusShippedRecordsTracking(t *testing.T) {
	f := newLifecycleFixture()
	order := f.seedOrder(model.OrderStatusProcessing, model.PaymentStatusPending, model.PaymentMethodCOD, decimal.NewFromInt(100))

	result, err := f.service.UpdateStatus(context.Background(), f.storeID, order.ID, model.OrderStatusShipped, UpdateStatusOptions{
		TrackingNumber:  "VN123456789",
		ShippingCarrier: "GHN",
	})
	if err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}

	if result.Order.TrackingNumber != "VN123456789" || result.Order.ShippingCarrier != "GHN" {
		t.Errorf("tracking info not persisted: %q / %q", result.Order.TrackingNumber, result.Order.ShippingCarrier)
	}
	if result.Order.ShippedAt == nil {
		t.Error("shipped_at should be set")
	}
}

func TestUpdateStatusCancelRestoresStock(t *testing.T) {
	f := newLifecycleFixture()
	productID := uuid.New()
	seedLot(f.lotRepo, productID, f.storeID, 5, 80, time.Now().Add(-time.Hour))

	order := f.seedOrder(model.OrderStatusPending, model.PaymentStatusPending, model.PaymentMethodCOD, decimal.NewFromInt(240))
	_ = f.orderRepo.CreateItem(context.Background(), &model.OrderItem{
		OrderID:     order.ID,
		ProductID:   productID,
		ProductName: "Widget",
		UnitPrice:   decimal.NewFromInt(80),
		Quantity:    3,
	})

	result, err := f.service.UpdateStatus(context.Background(), f.storeID, order.ID, model.OrderStatusCancelled, UpdateStatusOptions{})
	if err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}

	if result.Order.CancelledAt == nil {
		t.Error("cancelled_at should be set")
	}
	if f.lotRepo.lots[0].RemainingQuantity != 8 {
		t.Errorf("lot remaining after cancel = %d, want 8 (5 + 3 restored)", f.lotRepo.lots[0].RemainingQuantity)
	}

	// Cancelled is terminal.
	_, err = f.service.UpdateStatus(context.Background(), f.storeID, order.ID, model.OrderStatusConfirmed, UpdateStatusOptions{})
	var invalid *InvalidStatusTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidStatusTransitionError after cancel, got %v", err)
	}
}

func TestUpdateStatusInvalidTransition(t *testing.T) {
	f := newLifecycleFixture()
	order := f.seedOrder(model.OrderStatusPending, model.PaymentStatusPending, model.PaymentMethodCOD, decimal.NewFromInt(100))

	_, err := f.service.UpdateStatus(context.Background(), f.storeID, order.ID, model.OrderStatusShipped, UpdateStatusOptions{})

	var invalid *InvalidStatusTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidStatusTransitionError, got %v", err)
	}
	if invalid.From != model.OrderStatusPending || invalid.To != model.OrderStatusShipped {
		t.Errorf("error carries %s -> %s", invalid.From, invalid.To)
	}

	// The rejected transition must leave the order untouched.
	stored, _ := f.orderRepo.FindByIDWithItems(context.Background(), f.storeID, order.ID)
	if stored.Status != model.OrderStatusPending {
		t.Errorf("order status mutated by rejected transition: %s", stored.Status)
	}
}

func TestUpdateStatusOrderNotFound(t *testing.T) {
	f := newLifecycleFixture()

	_, err := f.service.UpdateStatus(context.Background(), f.storeID, uuid.New(), model.OrderStatusConfirmed, UpdateStatusOptions{})
	var notFound *OrderNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected OrderNotFoundError, got %v", err)
	}
}

func TestConfirmBankTransfer(t *testing.T) {
	f := newLifecycleFixture()
	order := f.seedOrder(model.OrderStatusPending, model.PaymentStatusPending, model.PaymentMethodBankTransfer, decimal.NewFromInt(1000))

	updated, err := f.service.ConfirmBankTransfer(context.Background(), f.storeID, order.ID, "FT20250301XYZ")
	if err != nil {
		t.Fatalf("ConfirmBankTransfer returned error: %v", err)
	}

	if updated.PaymentStatus != model.PaymentStatusPaid {
		t.Errorf("payment status = %s, want paid", updated.PaymentStatus)
	}
	if updated.PaidAt == nil {
		t.Error("paid_at should be set")
	}
	if !strings.Contains(updated.Note, "FT20250301XYZ") {
		t.Errorf("note should carry the transfer reference, got %q", updated.Note)
	}
}

func TestConfirmBankTransferWrongMethod(t *testing.T) {
	f := newLifecycleFixture()
	order := f.seedOrder(model.OrderStatusPending, model.PaymentStatusPending, model.PaymentMethodCOD, decimal.NewFromInt(1000))

	_, err := f.service.ConfirmBankTransfer(context.Background(), f.storeID, order.ID, "ref")
	var paymentErr *PaymentStatusError
	if !errors.As(err, &paymentErr) {
		t.Fatalf("expected PaymentStatusError, got %v", err)
	}
}

func TestConfirmBankTransferCancelledOrder(t *testing.T) {
	f := newLifecycleFixture()
	order := f.seedOrder(model.OrderStatusCancelled, model.PaymentStatusPending, model.PaymentMethodBankTransfer, decimal.NewFromInt(1000))

	_, err := f.service.ConfirmBankTransfer(context.Background(), f.storeID, order.ID, "ref")
	var paymentErr *PaymentStatusError
	if !errors.As(err, &paymentErr) {
		t.Fatalf("expected PaymentStatusError for cancelled order, got %v", err)
	}
}

func TestCompleteCODPayment(t *testing.T) {
	f := newLifecycleFixture()
	total := decimal.NewFromFloat(249.99)

	t.Run("exact amount on shipped order", func(t *testing.T) {
		order := f.seedOrder(model.OrderStatusShipped, model.PaymentStatusPending, model.PaymentMethodCOD, total)
		updated, err := f.service.CompleteCODPayment(context.Background(), f.storeID, order.ID, decimal.NewFromFloat(249.99))
		if err != nil {
			t.Fatalf("CompleteCODPayment returned error: %v", err)
		}
		if updated.PaymentStatus != model.PaymentStatusPaid || updated.PaidAt == nil {
			t.Errorf("payment not completed: %s, paid_at %v", updated.PaymentStatus, updated.PaidAt)
		}
	})

	t.Run("amount mismatch rejected", func(t *testing.T) {
		order := f.seedOrder(model.OrderStatusShipped, model.PaymentStatusPending, model.PaymentMethodCOD, total)
		_, err := f.service.CompleteCODPayment(context.Background(), f.storeID, order.ID, decimal.NewFromInt(250))
		var paymentErr *PaymentStatusError
		if !errors.As(err, &paymentErr) {
			t.Fatalf("expected PaymentStatusError, got %v", err)
		}
	})

	t.Run("not yet shipped rejected", func(t *testing.T) {
		order := f.seedOrder(model.OrderStatusConfirmed, model.PaymentStatusPending, model.PaymentMethodCOD, total)
		_, err := f.service.CompleteCODPayment(context.Background(), f.storeID, order.ID, total)
		var paymentErr *PaymentStatusError
		if !errors.As(err, &paymentErr) {
			t.Fatalf("expected PaymentStatusError, got %v", err)
		}
	})
}

func TestMarkPaymentFailed(t *testing.T) {
	f := newLifecycleFixture()
	order := f.seedOrder(model.OrderStatusPending, model.PaymentStatusPending, model.PaymentMethodBankTransfer, decimal.NewFromInt(100))

	updated, err := f.service.MarkPaymentFailed(context.Background(), f.storeID, order.ID, "window expired")
	if err != nil {
		t.Fatalf("MarkPaymentFailed returned error: %v", err)
	}
	if updated.PaymentStatus != model.PaymentStatusFailed {
		t.Errorf("payment status = %s, want failed", updated.PaymentStatus)
	}

	// Only a pending payment can fail.
	_, err = f.service.MarkPaymentFailed(context.Background(), f.storeID, order.ID, "again")
	var paymentErr *PaymentStatusError
	if !errors.As(err, &paymentErr) {
		t.Fatalf("expected PaymentStatusError on non-pending payment, got %v", err)
	}
}

func TestProcessRefund(t *testing.T) {
	f := newLifecycleFixture()
	total := decimal.NewFromInt(500)

	t.Run("full refund of paid order", func(t *testing.T) {
		order := f.seedOrder(model.OrderStatusDelivered, model.PaymentStatusPaid, model.PaymentMethodBankTransfer, total)
		updated, err := f.service.ProcessRefund(context.Background(), f.storeID, order.ID, total, "customer return")
		if err != nil {
			t.Fatalf("ProcessRefund returned error: %v", err)
		}
		if updated.PaymentStatus != model.PaymentStatusRefunded || updated.RefundedAt == nil {
			t.Errorf("refund not applied: %s", updated.PaymentStatus)
		}
	})

	t.Run("refund above total rejected", func(t *testing.T) {
		order := f.seedOrder(model.OrderStatusDelivered, model.PaymentStatusPaid, model.PaymentMethodBankTransfer, total)
		_, err := f.service.ProcessRefund(context.Background(), f.storeID, order.ID, decimal.NewFromInt(600), "too much")
		var paymentErr *PaymentStatusError
		if !errors.As(err, &paymentErr) {
			t.Fatalf("expected PaymentStatusError, got %v", err)
		}
	})

	t.Run("refund of unpaid order rejected", func(t *testing.T) {
		order := f.seedOrder(model.OrderStatusPending, model.PaymentStatusPending, model.PaymentMethodBankTransfer, total)
		_, err := f.service.ProcessRefund(context.Background(), f.storeID, order.ID, total, "not paid")
		var paymentErr *PaymentStatusError
		if !errors.As(err, &paymentErr) {
			t.Fatalf("expected PaymentStatusError, got %v", err)
		}
	})
}

func TestIsPaymentExpired(t *testing.T) {
	old := time.Now().Add(-25 * time.Hour)
	fresh := time.Now().Add(-time.Hour)

	tests := []struct {
		name  string
		order model.Order
		want  bool
	}{
		{"pending bank transfer past window", model.Order{PaymentMethod: model.PaymentMethodBankTransfer, PaymentStatus: model.PaymentStatusPending, CreatedAt: old}, true},
		{"pending bank transfer within window", model.Order{PaymentMethod: model.PaymentMethodBankTransfer, PaymentStatus: model.PaymentStatusPending, CreatedAt: fresh}, false},
		{"paid bank transfer past window", model.Order{PaymentMethod: model.PaymentMethodBankTransfer, PaymentStatus: model.PaymentStatusPaid, CreatedAt: old}, false},
		{"cod never expires", model.Order{PaymentMethod: model.PaymentMethodCOD, PaymentStatus: model.PaymentStatusPending, CreatedAt: old}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := tt.order
			if got := IsPaymentExpired(&order); got != tt.want {
				t.Errorf("IsPaymentExpired = %v, want %v", got, tt.want)
			}
		})
	}
}

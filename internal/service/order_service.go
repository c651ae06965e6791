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

// DTOs
type CreateOrderItemRequest struct {
	OnlineProductID string `json:"online_product_id" binding:"required"`
	Quantity        int    `json:"quantity" binding:"required,gt=0"`
}

type CreateOrderRequest struct {
	OnlineStoreID   string                   `json:"online_store_id" binding:"required"`
	PaymentMethod   string                   `json:"payment_method" binding:"required,oneof=cod bank_transfer momo vnpay zalopay"`
	CustomerName    string                   `json:"customer_name" binding:"required"`
	CustomerPhone   string                   `json:"customer_phone"`
	CustomerEmail   string                   `json:"customer_email" binding:"omitempty,email"`
	ShippingAddress string                   `json:"shipping_address"`
	DiscountAmount  decimal.Decimal          `json:"discount_amount"`
	ShippingFee     decimal.Decimal          `json:"shipping_fee"`
	Items           []CreateOrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// OrderService creates online orders and reads them back. Creation composes
// the availability pre-flight, FIFO deduction and order persistence into one
// transaction: either the whole order lands with its stock deducted, or
// nothing happens at all.
type OrderService interface {
	CreateOrder(ctx context.Context, actorID string, req CreateOrderRequest) (*model.Order, error)
	GetOrder(ctx context.Context, storeID, orderID uuid.UUID) (*model.Order, error)
	ListOrders(ctx context.Context, storeID uuid.UUID, status string, page, limit int) ([]model.Order, int64, error)
}

type orderService struct {
	orderRepo    repository.OrderRepository
	productRepo  repository.ProductRepository
	storeRepo    repository.StoreRepository
	sequenceRepo repository.SequenceRepository
	auditRepo    repository.AuditRepository
	ledger       LotLedger
	txManager    repository.TransactionManager
	hub          *ws.Hub
	logger       *logrus.Logger
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	storeRepo repository.StoreRepository,
	sequenceRepo repository.SequenceRepository,
	auditRepo repository.AuditRepository,
	ledger LotLedger,
	txManager repository.TransactionManager,
	hub *ws.Hub,
	logger *logrus.Logger,
) OrderService {
	return &orderService{
		orderRepo:    orderRepo,
		productRepo:  productRepo,
		storeRepo:    storeRepo,
		sequenceRepo: sequenceRepo,
		auditRepo:    auditRepo,
		ledger:       ledger,
		txManager:    txManager,
		hub:          hub,
		logger:       logger,
	}
}

// resolvedLine pairs an input line with its resolved catalog data.
type resolvedLine struct {
	onlineProduct *model.OnlineProduct
	quantity      int
}

func (s *orderService) CreateOrder(ctx context.Context, actorID string, req CreateOrderRequest) (*model.Order, error) {
	onlineStoreID, err := uuid.Parse(req.OnlineStoreID)
	if err != nil {
		return nil, &ValidationError{Message: "invalid online_store_id: " + err.Error()}
	}
	if req.DiscountAmount.IsNegative() || req.ShippingFee.IsNegative() {
		return nil, &ValidationError{Message: "discount_amount and shipping_fee must not be negative"}
	}

	var created *model.Order

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		// 1. Resolve the parent store.
		onlineStore, findErr := s.storeRepo.FindOnlineStoreByID(txCtx, onlineStoreID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "online store", ID: req.OnlineStoreID}
			}
			return fmt.Errorf("failed to resolve online store: %w", findErr)
		}
		storeID := onlineStore.StoreID

		// 2. Resolve products and pre-flight availability for every line.
		// A missing product counts as an "available 0" shortfall, not a hard
		// failure, so the caller sees every problem in one response.
		var shortfalls []Shortfall
		lines := make([]resolvedLine, 0, len(req.Items))
		for _, itemReq := range req.Items {
			opID, parseErr := uuid.Parse(itemReq.OnlineProductID)
			if parseErr != nil {
				return &ValidationError{Message: "invalid online_product_id: " + parseErr.Error()}
			}

			onlineProduct, opErr := s.productRepo.FindOnlineProductByID(txCtx, opID)
			if opErr != nil {
				if errors.Is(opErr, gorm.ErrRecordNotFound) {
					shortfalls = append(shortfalls, Shortfall{
						ProductName: itemReq.OnlineProductID,
						Requested:   itemReq.Quantity,
						Available:   0,
					})
					continue
				}
				return fmt.Errorf("failed to resolve online product: %w", opErr)
			}

			available, availErr := s.ledger.AvailableQuantity(txCtx, onlineProduct.ProductID, storeID)
			if availErr != nil {
				return fmt.Errorf("failed to check availability: %w", availErr)
			}
			if available < itemReq.Quantity {
				shortfalls = append(shortfalls, Shortfall{
					ProductID:   onlineProduct.ProductID,
					ProductName: onlineProduct.Name,
					Requested:   itemReq.Quantity,
					Available:   available,
				})
				continue
			}

			lines = append(lines, resolvedLine{onlineProduct: onlineProduct, quantity: itemReq.Quantity})
		}

		// 3. All-or-nothing: one short line rejects the whole order with the
		// full shortfall list and no lot has been touched.
		if len(shortfalls) > 0 {
			return &InsufficientStockError{Shortfalls: shortfalls}
		}

		// 4. Deduct every line FIFO. The pre-flight guarantees enough stock
		// within this transaction; row locks keep concurrent orders honest.
		for _, line := range lines {
			if _, deductErr := s.ledger.DeductFIFO(txCtx, line.onlineProduct.ProductID, storeID, line.quantity); deductErr != nil {
				return deductErr
			}
		}

		// 5. Number and persist the order with item snapshots.
		day := time.Now().Format("20060102")
		seq, seqErr := s.sequenceRepo.Next(txCtx, model.SequenceScopeOrder, storeID, day)
		if seqErr != nil {
			return fmt.Errorf("failed to allocate order number: %w", seqErr)
		}
		orderNumber := fmt.Sprintf("ON%s%04d", day, seq)

		subtotal := decimal.Zero
		for _, line := range lines {
			subtotal = subtotal.Add(line.onlineProduct.Price.Mul(decimal.NewFromInt(int64(line.quantity))))
		}
		total := subtotal.Sub(req.DiscountAmount).Add(req.ShippingFee)

		order := &model.Order{
			StoreID:         storeID,
			OnlineStoreID:   &onlineStore.ID,
			OrderNumber:     orderNumber,
			Status:          model.OrderStatusPending,
			PaymentStatus:   model.PaymentStatusPending,
			PaymentMethod:   req.PaymentMethod,
			CustomerName:    req.CustomerName,
			CustomerPhone:   req.CustomerPhone,
			CustomerEmail:   req.CustomerEmail,
			ShippingAddress: req.ShippingAddress,
			Subtotal:        subtotal,
			DiscountAmount:  req.DiscountAmount,
			ShippingFee:     req.ShippingFee,
			Total:           total,
		}
		if createErr := s.orderRepo.Create(txCtx, order); createErr != nil {
			return fmt.Errorf("failed to create order: %w", createErr)
		}

		for _, line := range lines {
			onlineProductID := line.onlineProduct.ID
			item := &model.OrderItem{
				OrderID:         order.ID,
				ProductID:       line.onlineProduct.ProductID,
				OnlineProductID: &onlineProductID,
				ProductName:     line.onlineProduct.Name,
				SKU:             line.onlineProduct.SKU,
				UnitPrice:       line.onlineProduct.Price,
				Quantity:        line.quantity,
			}
			if itemErr := s.orderRepo.CreateItem(txCtx, item); itemErr != nil {
				return fmt.Errorf("failed to create order item: %w", itemErr)
			}
		}

		if auditErr := s.logAudit(txCtx, actorID, order, req); auditErr != nil {
			return auditErr
		}

		persisted, readErr := s.orderRepo.FindByIDWithItems(txCtx, storeID, order.ID)
		if readErr != nil {
			return fmt.Errorf("failed to reload order: %w", readErr)
		}
		created = persisted
		return nil
	})

	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"order_id":     created.ID,
		"order_number": created.OrderNumber,
		"items":        len(created.Items),
	}).Info("order created")

	publish(s.hub, EventOrderCreated, map[string]interface{}{
		"order_id":     created.ID.String(),
		"order_number": created.OrderNumber,
		"store_id":     created.StoreID.String(),
		"total":        created.Total.String(),
	})
	publish(s.hub, EventStockDeducted, map[string]interface{}{
		"order_id": created.ID.String(),
		"store_id": created.StoreID.String(),
		"items":    len(created.Items),
	})

	return created, nil
}

func (s *orderService) GetOrder(ctx context.Context, storeID, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.FindByIDWithItems(ctx, storeID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &OrderNotFoundError{OrderID: orderID}
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, storeID uuid.UUID, status string, page, limit int) ([]model.Order, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.orderRepo.List(ctx, storeID, status, page, limit)
}

func (s *orderService) logAudit(ctx context.Context, actorID string, order *model.Order, req CreateOrderRequest) error {
	var uid *uuid.UUID
	if parsed, err := uuid.Parse(actorID); err == nil {
		uid = &parsed
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"order_number":   order.OrderNumber,
		"payment_method": req.PaymentMethod,
		"items":          len(req.Items),
		"total":          order.Total.String(),
	})
	entry := &model.AuditLog{
		UserID:     uid,
		Action:     model.ActionCreateOrder,
		EntityID:   order.ID.String(),
		EntityName: order.OrderNumber,
		Details:    string(payload),
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

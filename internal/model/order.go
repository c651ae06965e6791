package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order status constants
const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// Payment status constants
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusRefunded = "refunded"
	PaymentStatusFailed   = "failed"
)

// Payment method constants
const (
	PaymentMethodCOD          = "cod"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodMomo         = "momo"
	PaymentMethodVNPay        = "vnpay"
	PaymentMethodZaloPay      = "zalopay"
)

// Order is an online storefront order. Status and payment status move only
// through the lifecycle engine; the per-status timestamps are each set once
// and never overwritten. Note is an append-only audit trail of lifecycle
// and payment events. Orders are never deleted.
type Order struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StoreID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"store_id"`
	OnlineStoreID   *uuid.UUID      `gorm:"type:uuid;index" json:"online_store_id"`
	OrderNumber     string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"order_number"`
	Status          string          `gorm:"type:varchar(20);default:'pending';not null" json:"status"`
	PaymentStatus   string          `gorm:"type:varchar(20);default:'pending';not null" json:"payment_status"`
	PaymentMethod   string          `gorm:"type:varchar(20);not null" json:"payment_method"`
	CustomerName    string          `gorm:"type:varchar(255)" json:"customer_name"`
	CustomerPhone   string          `gorm:"type:varchar(50)" json:"customer_phone"`
	CustomerEmail   string          `gorm:"type:varchar(255)" json:"customer_email"`
	ShippingAddress string          `gorm:"type:text" json:"shipping_address"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	DiscountAmount  decimal.Decimal `gorm:"type:decimal(12,2);default:0;not null" json:"discount_amount"`
	ShippingFee     decimal.Decimal `gorm:"type:decimal(12,2);default:0;not null" json:"shipping_fee"`
	Total           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	TrackingNumber  string          `gorm:"type:varchar(100)" json:"tracking_number"`
	ShippingCarrier string          `gorm:"type:varchar(100)" json:"shipping_carrier"`
	Note            string          `gorm:"type:text" json:"note"`
	ConfirmedAt     *time.Time      `json:"confirmed_at"`
	ShippedAt       *time.Time      `json:"shipped_at"`
	DeliveredAt     *time.Time      `json:"delivered_at"`
	CancelledAt     *time.Time      `json:"cancelled_at"`
	PaidAt          *time.Time      `json:"paid_at"`
	RefundedAt      *time.Time      `json:"refunded_at"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderItem snapshots product name/sku/price at order time so later catalog
// edits do not rewrite order history.
type OrderItem struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	OnlineProductID *uuid.UUID      `gorm:"type:uuid" json:"online_product_id"`
	ProductName     string          `gorm:"type:varchar(255);not null" json:"product_name"`
	SKU             string          `gorm:"type:varchar(100)" json:"sku"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Quantity        int             `gorm:"type:int;not null" json:"quantity"`
	CreatedAt       time.Time       `json:"created_at"`
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"posbackend/internal/cache"
	"posbackend/internal/model"
	"posbackend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// LotDeduction records how much was consumed from one lot and at what cost.
type LotDeduction struct {
	LotID    uuid.UUID       `json:"lot_id"`
	Quantity int             `json:"quantity"`
	UnitCost decimal.Decimal `json:"unit_cost"`
}

type ReceiveLotRequest struct {
	ProductID  string          `json:"product_id" binding:"required"`
	StoreID    string          `json:"store_id" binding:"required"`
	Quantity   int             `json:"quantity" binding:"required,gt=0"`
	UnitCost   decimal.Decimal `json:"unit_cost" binding:"required"`
	Unit       string          `json:"unit"`
	ReceivedAt *time.Time      `json:"received_at"`
}

// LotLedger owns every mutation of purchase lots. Stock leaves lots in FIFO
// order (oldest received first) and comes back via Restore. All callers that
// deduct must run inside a transaction so a failed multi-step operation
// leaves no partial lot mutation behind.
type LotLedger interface {
	AvailableQuantity(ctx context.Context, productID, storeID uuid.UUID) (int, error)
	DeductFIFO(ctx context.Context, productID, storeID uuid.UUID, quantity int) ([]LotDeduction, error)
	Restore(ctx context.Context, productID, storeID uuid.UUID, quantity int) error
	ReceiveLot(ctx context.Context, req ReceiveLotRequest) (*model.PurchaseLot, error)
	ListLots(ctx context.Context, productID, storeID uuid.UUID, page, limit int) ([]model.PurchaseLot, int64, error)
}

type lotLedger struct {
	lotRepo repository.LotRepository
	cache   cache.AvailabilityCache
	logger  *logrus.Logger
}

func NewLotLedger(lotRepo repository.LotRepository, availabilityCache cache.AvailabilityCache, logger *logrus.Logger) LotLedger {
	return &lotLedger{lotRepo: lotRepo, cache: availabilityCache, logger: logger}
}

func (l *lotLedger) AvailableQuantity(ctx context.Context, productID, storeID uuid.UUID) (int, error) {
	return l.lotRepo.SumAvailable(ctx, productID, storeID)
}

// DeductFIFO consumes stock from the oldest received lots first until the
// requested quantity is satisfied. If lots run out first it returns
// *InsufficientStockError; already-written lot updates are then discarded by
// the caller's transaction rollback — this method does not undo them itself.
func (l *lotLedger) DeductFIFO(ctx context.Context, productID, storeID uuid.UUID, quantity int) ([]LotDeduction, error) {
	if quantity <= 0 {
		return nil, &ValidationError{Message: fmt.Sprintf("deduct quantity must be positive, got %d", quantity)}
	}

	lots, err := l.lotRepo.FindAvailableForUpdate(ctx, productID, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load lots: %w", err)
	}

	available := 0
	for _, lot := range lots {
		available += lot.RemainingQuantity
	}

	deductions := make([]LotDeduction, 0, len(lots))
	remaining := quantity
	for i := range lots {
		if remaining == 0 {
			break
		}
		lot := &lots[i]
		take := lot.RemainingQuantity
		if take > remaining {
			take = remaining
		}
		lot.RemainingQuantity -= take
		if err := l.lotRepo.Save(ctx, lot); err != nil {
			return nil, fmt.Errorf("failed to update lot %s: %w", lot.ID, err)
		}
		deductions = append(deductions, LotDeduction{
			LotID:    lot.ID,
			Quantity: take,
			UnitCost: lot.UnitCost,
		})
		remaining -= take
	}

	if remaining > 0 {
		return nil, &InsufficientStockError{Shortfalls: []Shortfall{{
			ProductID: productID,
			Requested: quantity,
			Available: available,
		}}}
	}

	l.invalidate(ctx, productID, storeID)
	return deductions, nil
}

// Restore adds quantity back to the most recently received lot. This is an
// approximation, not an exact inverse of the deduction that preceded it: the
// lot may end up above its originally received quantity. When no lot exists
// for the product/store the restore is silently a no-op.
func (l *lotLedger) Restore(ctx context.Context, productID, storeID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return &ValidationError{Message: fmt.Sprintf("restore quantity must be positive, got %d", quantity)}
	}

	lot, err := l.lotRepo.FindLatestReceivedForUpdate(ctx, productID, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.logger.WithFields(logrus.Fields{
				"product_id": productID,
				"store_id":   storeID,
				"quantity":   quantity,
			}).Warn("restore skipped: no lot found for product/store")
			return nil
		}
		return fmt.Errorf("failed to find lot for restore: %w", err)
	}

	lot.RemainingQuantity += quantity
	if err := l.lotRepo.Save(ctx, lot); err != nil {
		return fmt.Errorf("failed to restore lot %s: %w", lot.ID, err)
	}

	l.invalidate(ctx, productID, storeID)
	return nil
}

func (l *lotLedger) ReceiveLot(ctx context.Context, req ReceiveLotRequest) (*model.PurchaseLot, error) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, &ValidationError{Message: "invalid product_id: " + err.Error()}
	}
	storeID, err := uuid.Parse(req.StoreID)
	if err != nil {
		return nil, &ValidationError{Message: "invalid store_id: " + err.Error()}
	}

	receivedAt := time.Now()
	if req.ReceivedAt != nil {
		receivedAt = *req.ReceivedAt
	}
	unit := req.Unit
	if unit == "" {
		unit = "pcs"
	}

	lot := &model.PurchaseLot{
		ProductID:         productID,
		StoreID:           storeID,
		InitialQuantity:   req.Quantity,
		RemainingQuantity: req.Quantity,
		UnitCost:          req.UnitCost,
		Unit:              unit,
		ReceivedAt:        receivedAt,
	}
	if err := l.lotRepo.Create(ctx, lot); err != nil {
		return nil, fmt.Errorf("failed to create lot: %w", err)
	}

	l.invalidate(ctx, productID, storeID)
	return lot, nil
}

func (l *lotLedger) ListLots(ctx context.Context, productID, storeID uuid.UUID, page, limit int) ([]model.PurchaseLot, int64, error) {
	return l.lotRepo.List(ctx, productID, storeID, page, limit)
}

// invalidate drops the cached availability figure. Best effort: the cache
// entry has a short TTL, so a failure here only delays freshness.
func (l *lotLedger) invalidate(ctx context.Context, productID, storeID uuid.UUID) {
	if err := l.cache.Invalidate(ctx, productID.String(), storeID.String()); err != nil {
		l.logger.WithFields(logrus.Fields{
			"product_id": productID,
			"store_id":   storeID,
		}).Warn("failed to invalidate availability cache: " + err.Error())
	}
}

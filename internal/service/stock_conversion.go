package service

import (
	"context"
	"errors"
	"fmt"

	"posbackend/internal/model"
	"posbackend/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DTOs
type DeductStockRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	StoreID   string `json:"store_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
	Unit      string `json:"unit" binding:"required"`
	SaleID    string `json:"sale_id"`
}

type AdjustStockRequest struct {
	ProductID           string `json:"product_id" binding:"required"`
	StoreID             string `json:"store_id" binding:"required"`
	ConversionUnitStock int    `json:"conversion_unit_stock" binding:"min=0"`
	BaseUnitStock       int    `json:"base_unit_stock" binding:"min=0"`
	Reason              string `json:"reason" binding:"required"`
}

// StockConversionService is the aggregate, unit-aware stock accessor used by
// the in-store POS path. It operates on the single InventoryRecord per
// (product, store) rather than discrete purchase lots, and writes a
// ConversionLog row for every mutation.
type StockConversionService interface {
	CheckAvailable(ctx context.Context, productID, storeID uuid.UUID, unit string) (int, error)
	Deduct(ctx context.Context, req DeductStockRequest) (*model.InventoryRecord, []model.ConversionLog, error)
	Restore(ctx context.Context, productID, storeID uuid.UUID, quantity int, unit string) (*model.InventoryRecord, error)
	Add(ctx context.Context, productID, storeID uuid.UUID, quantity int, unit, notes string) (*model.InventoryRecord, error)
	Initialize(ctx context.Context, productID, storeID uuid.UUID, initialStock int, unit string) (*model.InventoryRecord, error)
	AdjustManual(ctx context.Context, req AdjustStockRequest) (*model.InventoryRecord, *model.ConversionLog, error)
	ListLogs(ctx context.Context, productID, storeID uuid.UUID, page, limit int) ([]model.ConversionLog, int64, error)
}

type stockConversionService struct {
	inventoryRepo repository.InventoryRepository
	productRepo   repository.ProductRepository
	txManager     repository.TransactionManager
	logger        *logrus.Logger
}

func NewStockConversionService(
	inventoryRepo repository.InventoryRepository,
	productRepo repository.ProductRepository,
	txManager repository.TransactionManager,
	logger *logrus.Logger,
) StockConversionService {
	return &stockConversionService{
		inventoryRepo: inventoryRepo,
		productRepo:   productRepo,
		txManager:     txManager,
		logger:        logger,
	}
}

// stockForUnit returns the record's stock figure for the requested unit.
// The product's conversion unit maps to ConversionUnitStock; anything else
// (including an empty unit) reads the base unit side.
func stockForUnit(product *model.Product, record *model.InventoryRecord, unit string) int {
	if unit != "" && unit == product.ConversionUnit {
		return record.ConversionUnitStock
	}
	return record.BaseUnitStock
}

func applyDelta(product *model.Product, record *model.InventoryRecord, unit string, delta int) {
	if unit != "" && unit == product.ConversionUnit {
		record.ConversionUnitStock += delta
		return
	}
	record.BaseUnitStock += delta
}

func (s *stockConversionService) CheckAvailable(ctx context.Context, productID, storeID uuid.UUID, unit string) (int, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, &NotFoundError{Resource: "product", ID: productID.String()}
		}
		return 0, fmt.Errorf("failed to find product: %w", err)
	}

	record, err := s.inventoryRepo.Find(ctx, productID, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to find inventory record: %w", err)
	}

	return stockForUnit(product, record, unit), nil
}

func (s *stockConversionService) Deduct(ctx context.Context, req DeductStockRequest) (*model.InventoryRecord, []model.ConversionLog, error) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, nil, &ValidationError{Message: "invalid product_id: " + err.Error()}
	}
	storeID, err := uuid.Parse(req.StoreID)
	if err != nil {
		return nil, nil, &ValidationError{Message: "invalid store_id: " + err.Error()}
	}

	var saleID *uuid.UUID
	if req.SaleID != "" {
		parsed, parseErr := uuid.Parse(req.SaleID)
		if parseErr != nil {
			return nil, nil, &ValidationError{Message: "invalid sale_id: " + parseErr.Error()}
		}
		saleID = &parsed
	}

	var record *model.InventoryRecord
	var logs []model.ConversionLog

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		product, findErr := s.productRepo.FindByID(txCtx, productID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "product", ID: productID.String()}
			}
			return fmt.Errorf("failed to find product: %w", findErr)
		}

		rec, findErr := s.inventoryRepo.FindForUpdate(txCtx, productID, storeID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return &InsufficientStockError{Shortfalls: []Shortfall{{
					ProductID:   productID,
					ProductName: product.Name,
					Requested:   req.Quantity,
					Available:   0,
					Unit:        req.Unit,
				}}}
			}
			return fmt.Errorf("failed to find inventory record: %w", findErr)
		}

		available := stockForUnit(product, rec, req.Unit)
		if req.Quantity > available {
			return &InsufficientStockError{Shortfalls: []Shortfall{{
				ProductID:   productID,
				ProductName: product.Name,
				Requested:   req.Quantity,
				Available:   available,
				Unit:        req.Unit,
			}}}
		}

		entry := model.ConversionLog{
			InventoryRecordID:    rec.ID,
			ProductID:            productID,
			StoreID:              storeID,
			Type:                 model.ConversionTypeAutoDeduct,
			Unit:                 req.Unit,
			Quantity:             req.Quantity,
			ConversionUnitBefore: rec.ConversionUnitStock,
			BaseUnitBefore:       rec.BaseUnitStock,
			SaleID:               saleID,
		}

		applyDelta(product, rec, req.Unit, -req.Quantity)

		entry.ConversionUnitAfter = rec.ConversionUnitStock
		entry.BaseUnitAfter = rec.BaseUnitStock

		if saveErr := s.inventoryRepo.Save(txCtx, rec); saveErr != nil {
			return fmt.Errorf("failed to save inventory record: %w", saveErr)
		}
		if logErr := s.inventoryRepo.CreateLog(txCtx, &entry); logErr != nil {
			return fmt.Errorf("failed to write conversion log: %w", logErr)
		}

		record = rec
		logs = []model.ConversionLog{entry}
		return nil
	})

	if err != nil {
		return nil, nil, err
	}
	return record, logs, nil
}

// Restore is the inverse of Deduct. It always succeeds for a known product:
// restoring only increases stock, so no lower-bound check is needed, and a
// missing inventory record is created on the fly.
func (s *stockConversionService) Restore(ctx context.Context, productID, storeID uuid.UUID, quantity int, unit string) (*model.InventoryRecord, error) {
	if quantity <= 0 {
		return nil, &ValidationError{Message: fmt.Sprintf("restore quantity must be positive, got %d", quantity)}
	}
	return s.increment(ctx, productID, storeID, quantity, unit, "restore")
}

// Add is an upsert: it creates the inventory record when absent, otherwise
// increments stock in the given unit.
func (s *stockConversionService) Add(ctx context.Context, productID, storeID uuid.UUID, quantity int, unit, notes string) (*model.InventoryRecord, error) {
	if quantity <= 0 {
		return nil, &ValidationError{Message: fmt.Sprintf("add quantity must be positive, got %d", quantity)}
	}
	if notes == "" {
		notes = "stock added"
	}
	return s.increment(ctx, productID, storeID, quantity, unit, notes)
}

func (s *stockConversionService) increment(ctx context.Context, productID, storeID uuid.UUID, quantity int, unit, notes string) (*model.InventoryRecord, error) {
	var record *model.InventoryRecord

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		product, findErr := s.productRepo.FindByID(txCtx, productID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "product", ID: productID.String()}
			}
			return fmt.Errorf("failed to find product: %w", findErr)
		}

		rec, findErr := s.inventoryRepo.FindForUpdate(txCtx, productID, storeID)
		if findErr != nil {
			if !errors.Is(findErr, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to find inventory record: %w", findErr)
			}
			rec = &model.InventoryRecord{ProductID: productID, StoreID: storeID}
			if createErr := s.inventoryRepo.Create(txCtx, rec); createErr != nil {
				return fmt.Errorf("failed to initialize inventory record: %w", createErr)
			}
		}

		entry := model.ConversionLog{
			InventoryRecordID:    rec.ID,
			ProductID:            productID,
			StoreID:              storeID,
			Type:                 model.ConversionTypeAutoDeduct,
			Unit:                 unit,
			Quantity:             quantity,
			ConversionUnitBefore: rec.ConversionUnitStock,
			BaseUnitBefore:       rec.BaseUnitStock,
			Notes:                notes,
		}

		applyDelta(product, rec, unit, quantity)

		entry.ConversionUnitAfter = rec.ConversionUnitStock
		entry.BaseUnitAfter = rec.BaseUnitStock

		if saveErr := s.inventoryRepo.Save(txCtx, rec); saveErr != nil {
			return fmt.Errorf("failed to save inventory record: %w", saveErr)
		}
		if logErr := s.inventoryRepo.CreateLog(txCtx, &entry); logErr != nil {
			return fmt.Errorf("failed to write conversion log: %w", logErr)
		}

		record = rec
		return nil
	})

	if err != nil {
		return nil, err
	}
	return record, nil
}

// Initialize creates the inventory record if it does not exist yet. Calling
// it again for the same product/store returns the existing record untouched.
func (s *stockConversionService) Initialize(ctx context.Context, productID, storeID uuid.UUID, initialStock int, unit string) (*model.InventoryRecord, error) {
	if initialStock < 0 {
		return nil, &ValidationError{Message: "initial stock must not be negative"}
	}

	var record *model.InventoryRecord

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		product, findErr := s.productRepo.FindByID(txCtx, productID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "product", ID: productID.String()}
			}
			return fmt.Errorf("failed to find product: %w", findErr)
		}

		rec, findErr := s.inventoryRepo.FindForUpdate(txCtx, productID, storeID)
		if findErr == nil {
			record = rec
			return nil
		}
		if !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to find inventory record: %w", findErr)
		}

		rec = &model.InventoryRecord{ProductID: productID, StoreID: storeID}
		applyDelta(product, rec, unit, initialStock)
		if createErr := s.inventoryRepo.Create(txCtx, rec); createErr != nil {
			return fmt.Errorf("failed to create inventory record: %w", createErr)
		}

		record = rec
		return nil
	})

	if err != nil {
		return nil, err
	}
	return record, nil
}

// AdjustManual overwrites both stock figures (not a delta) and records a
// manual_adjust log carrying the reason.
func (s *stockConversionService) AdjustManual(ctx context.Context, req AdjustStockRequest) (*model.InventoryRecord, *model.ConversionLog, error) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, nil, &ValidationError{Message: "invalid product_id: " + err.Error()}
	}
	storeID, err := uuid.Parse(req.StoreID)
	if err != nil {
		return nil, nil, &ValidationError{Message: "invalid store_id: " + err.Error()}
	}
	if req.ConversionUnitStock < 0 || req.BaseUnitStock < 0 {
		return nil, nil, &ValidationError{Message: "stock values must not be negative"}
	}

	var record *model.InventoryRecord
	var entry *model.ConversionLog

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		rec, findErr := s.inventoryRepo.FindForUpdate(txCtx, productID, storeID)
		if findErr != nil {
			if !errors.Is(findErr, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to find inventory record: %w", findErr)
			}
			rec = &model.InventoryRecord{ProductID: productID, StoreID: storeID}
			if createErr := s.inventoryRepo.Create(txCtx, rec); createErr != nil {
				return fmt.Errorf("failed to initialize inventory record: %w", createErr)
			}
		}

		logEntry := model.ConversionLog{
			InventoryRecordID:    rec.ID,
			ProductID:            productID,
			StoreID:              storeID,
			Type:                 model.ConversionTypeManualAdjust,
			ConversionUnitBefore: rec.ConversionUnitStock,
			BaseUnitBefore:       rec.BaseUnitStock,
			Notes:                req.Reason,
		}

		rec.ConversionUnitStock = req.ConversionUnitStock
		rec.BaseUnitStock = req.BaseUnitStock

		logEntry.ConversionUnitAfter = rec.ConversionUnitStock
		logEntry.BaseUnitAfter = rec.BaseUnitStock

		if saveErr := s.inventoryRepo.Save(txCtx, rec); saveErr != nil {
			return fmt.Errorf("failed to save inventory record: %w", saveErr)
		}
		if logErr := s.inventoryRepo.CreateLog(txCtx, &logEntry); logErr != nil {
			return fmt.Errorf("failed to write conversion log: %w", logErr)
		}

		record = rec
		entry = &logEntry
		return nil
	})

	if err != nil {
		return nil, nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"product_id": productID,
		"store_id":   storeID,
		"reason":     req.Reason,
	}).Info("manual stock adjustment applied")

	return record, entry, nil
}

func (s *stockConversionService) ListLogs(ctx context.Context, productID, storeID uuid.UUID, page, limit int) ([]model.ConversionLog, int64, error) {
	return s.inventoryRepo.ListLogs(ctx, productID, storeID, page, limit)
}

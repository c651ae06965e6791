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
type TransferItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

type TransferRequest struct {
	SourceStoreID      string                `json:"source_store_id" binding:"required"`
	DestinationStoreID string                `json:"destination_store_id" binding:"required"`
	Note               string                `json:"note"`
	Items              []TransferItemRequest `json:"items" binding:"required,min=1,dive"`
}

type TransferredItem struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

type TransferResult struct {
	TransferID       uuid.UUID         `json:"transfer_id"`
	TransferNumber   string            `json:"transfer_number"`
	TransferredItems []TransferredItem `json:"transferred_items"`
}

// TransferService moves stock between two stores of the same tenant in one
// transaction: FIFO deduction at the source, one new destination lot per
// consumed cost tier so the cost basis survives the move.
type TransferService interface {
	TransferInventory(ctx context.Context, actorID string, req TransferRequest) (*TransferResult, error)
	GetTransfer(ctx context.Context, id uuid.UUID) (*model.StockTransfer, error)
	ListTransfers(ctx context.Context, storeID uuid.UUID, page, limit int) ([]model.StockTransfer, int64, error)
}

type transferService struct {
	transferRepo repository.TransferRepository
	storeRepo    repository.StoreRepository
	productRepo  repository.ProductRepository
	sequenceRepo repository.SequenceRepository
	auditRepo    repository.AuditRepository
	ledger       LotLedger
	txManager    repository.TransactionManager
	hub          *ws.Hub
	logger       *logrus.Logger
}

func NewTransferService(
	transferRepo repository.TransferRepository,
	storeRepo repository.StoreRepository,
	productRepo repository.ProductRepository,
	sequenceRepo repository.SequenceRepository,
	auditRepo repository.AuditRepository,
	ledger LotLedger,
	txManager repository.TransactionManager,
	hub *ws.Hub,
	logger *logrus.Logger,
) TransferService {
	return &transferService{
		transferRepo: transferRepo,
		storeRepo:    storeRepo,
		productRepo:  productRepo,
		sequenceRepo: sequenceRepo,
		auditRepo:    auditRepo,
		ledger:       ledger,
		txManager:    txManager,
		hub:          hub,
		logger:       logger,
	}
}

func (s *transferService) TransferInventory(ctx context.Context, actorID string, req TransferRequest) (*TransferResult, error) {
	sourceID, err := uuid.Parse(req.SourceStoreID)
	if err != nil {
		return nil, &ValidationError{Message: "invalid source_store_id: " + err.Error()}
	}
	destID, err := uuid.Parse(req.DestinationStoreID)
	if err != nil {
		return nil, &ValidationError{Message: "invalid destination_store_id: " + err.Error()}
	}
	if sourceID == destID {
		return nil, &ValidationError{Message: "source and destination stores must differ"}
	}

	var result *TransferResult

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		// 1. Both stores must resolve and share a tenant.
		source, findErr := s.storeRepo.FindByID(txCtx, sourceID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "store", ID: req.SourceStoreID}
			}
			return fmt.Errorf("failed to resolve source store: %w", findErr)
		}
		dest, findErr := s.storeRepo.FindByID(txCtx, destID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "store", ID: req.DestinationStoreID}
			}
			return fmt.Errorf("failed to resolve destination store: %w", findErr)
		}
		if source.TenantID != dest.TenantID {
			return &StoresNotSameTenantError{SourceStoreID: sourceID, DestinationStoreID: destID}
		}

		// 2. Pre-flight every item at the source; collect all shortfalls.
		var shortfalls []Shortfall
		productIDs := make([]uuid.UUID, 0, len(req.Items))
		for _, itemReq := range req.Items {
			productID, parseErr := uuid.Parse(itemReq.ProductID)
			if parseErr != nil {
				return &ValidationError{Message: "invalid product_id: " + parseErr.Error()}
			}
			productIDs = append(productIDs, productID)

			available, availErr := s.ledger.AvailableQuantity(txCtx, productID, sourceID)
			if availErr != nil {
				return fmt.Errorf("failed to check availability: %w", availErr)
			}
			if available < itemReq.Quantity {
				shortfall := Shortfall{
					ProductID: productID,
					Requested: itemReq.Quantity,
					Available: available,
				}
				if product, pErr := s.productRepo.FindByID(txCtx, productID); pErr == nil {
					shortfall.ProductName = product.Name
				}
				shortfalls = append(shortfalls, shortfall)
			}
		}
		if len(shortfalls) > 0 {
			return &InsufficientStockError{Shortfalls: shortfalls}
		}

		// 3. Number and create the transfer header.
		month := time.Now().Format("200601")
		seq, seqErr := s.sequenceRepo.Next(txCtx, model.SequenceScopeTransfer, sourceID, month)
		if seqErr != nil {
			return fmt.Errorf("failed to allocate transfer number: %w", seqErr)
		}
		transfer := &model.StockTransfer{
			TransferNumber:     fmt.Sprintf("TF%s%04d", month, seq),
			SourceStoreID:      sourceID,
			DestinationStoreID: destID,
			Note:               req.Note,
		}
		if createErr := s.transferRepo.Create(txCtx, transfer); createErr != nil {
			return fmt.Errorf("failed to create transfer: %w", createErr)
		}

		// 4. Deduct at the source and mirror each consumed cost tier as a
		// fresh lot at the destination, preserving quantity and unit cost.
		now := time.Now()
		var transferred []TransferredItem
		for i, itemReq := range req.Items {
			productID := productIDs[i]

			deductions, deductErr := s.ledger.DeductFIFO(txCtx, productID, sourceID, itemReq.Quantity)
			if deductErr != nil {
				return deductErr
			}

			for _, d := range deductions {
				lotReq := ReceiveLotRequest{
					ProductID:  productID.String(),
					StoreID:    destID.String(),
					Quantity:   d.Quantity,
					UnitCost:   d.UnitCost,
					ReceivedAt: &now,
				}
				if _, lotErr := s.ledger.ReceiveLot(txCtx, lotReq); lotErr != nil {
					return fmt.Errorf("failed to create destination lot: %w", lotErr)
				}

				item := &model.StockTransferItem{
					TransferID: transfer.ID,
					ProductID:  productID,
					Quantity:   d.Quantity,
					UnitCost:   d.UnitCost,
				}
				if itemErr := s.transferRepo.CreateItem(txCtx, item); itemErr != nil {
					return fmt.Errorf("failed to create transfer item: %w", itemErr)
				}

				transferred = append(transferred, TransferredItem{
					ProductID: productID,
					Quantity:  d.Quantity,
					UnitCost:  d.UnitCost,
				})
			}
		}

		if auditErr := s.logAudit(txCtx, actorID, transfer, transferred); auditErr != nil {
			return auditErr
		}

		result = &TransferResult{
			TransferID:       transfer.ID,
			TransferNumber:   transfer.TransferNumber,
			TransferredItems: transferred,
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"transfer_id":     result.TransferID,
		"transfer_number": result.TransferNumber,
		"items":           len(result.TransferredItems),
	}).Info("inventory transferred")

	publish(s.hub, EventTransferCompleted, map[string]interface{}{
		"transfer_id":     result.TransferID.String(),
		"transfer_number": result.TransferNumber,
		"source_store":    req.SourceStoreID,
		"dest_store":      req.DestinationStoreID,
	})

	return result, nil
}

func (s *transferService) GetTransfer(ctx context.Context, id uuid.UUID) (*model.StockTransfer, error) {
	transfer, err := s.transferRepo.FindByIDWithItems(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "transfer", ID: id.String()}
		}
		return nil, fmt.Errorf("failed to load transfer: %w", err)
	}
	return transfer, nil
}

func (s *transferService) ListTransfers(ctx context.Context, storeID uuid.UUID, page, limit int) ([]model.StockTransfer, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.transferRepo.List(ctx, storeID, page, limit)
}

func (s *transferService) logAudit(ctx context.Context, actorID string, transfer *model.StockTransfer, items []TransferredItem) error {
	var uid *uuid.UUID
	if parsed, err := uuid.Parse(actorID); err == nil {
		uid = &parsed
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"transfer_number": transfer.TransferNumber,
		"source_store":    transfer.SourceStoreID.String(),
		"dest_store":      transfer.DestinationStoreID.String(),
		"item_count":      len(items),
	})
	entry := &model.AuditLog{
		UserID:     uid,
		Action:     model.ActionTransferStock,
		EntityID:   transfer.ID.String(),
		EntityName: transfer.TransferNumber,
		Details:    string(payload),
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

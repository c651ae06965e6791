package service

import (
	"context"
	"errors"
	"testing"

	"posbackend/internal/model"

	"github.com/google/uuid"
)

type conversionFixture struct {
	service       StockConversionService
	inventoryRepo *fakeInventoryRepo
	productID     uuid.UUID
	storeID       uuid.UUID
}

// newConversionFixture sets up a product sold in "pcs" (base) and "box"
// (conversion, 12 pcs per box).
func newConversionFixture() *conversionFixture {
	productID := uuid.New()
	storeID := uuid.New()

	productRepo := &fakeProductRepo{
		products: map[uuid.UUID]*model.Product{
			productID: {
				ID:             productID,
				StoreID:        storeID,
				SKU:            "SKU-C",
				Name:           "Boxed Widget",
				BaseUnit:       "pcs",
				ConversionUnit: "box",
				ConversionRate: 12,
			},
		},
	}
	inventoryRepo := &fakeInventoryRepo{}

	return &conversionFixture{
		service:       NewStockConversionService(inventoryRepo, productRepo, fakeTxManager{}, testLogger()),
		inventoryRepo: inventoryRepo,
		productID:     productID,
		storeID:       storeID,
	}
}

func (f *conversionFixture) seedRecord(boxStock, pcsStock int) *model.InventoryRecord {
	record := &model.InventoryRecord{
		ProductID:           f.productID,
		StoreID:             f.storeID,
		ConversionUnitStock: boxStock,
		BaseUnitStock:       pcsStock,
	}
	_ = f.inventoryRepo.Create(context.Background(), record)
	return record
}

func TestDeductBaseUnit(t *testing.T) {
	f := newConversionFixture()
	f.seedRecord(5, 20)

	record, logs, err := f.service.Deduct(context.Background(), DeductStockRequest{
		ProductID: f.productID.String(),
		StoreID:   f.storeID.String(),
		Quantity:  5,
		Unit:      "pcs",
	})
	if err != nil {
		t.Fatalf("Deduct returned error: %v", err)
	}

	if record.BaseUnitStock != 15 || record.ConversionUnitStock != 5 {
		t.Errorf("stock after deduct = box %d / pcs %d, want 5/15", record.ConversionUnitStock, record.BaseUnitStock)
	}
	if len(logs) != 1 {
		t.Fatalf("expected 1 conversion log, got %d", len(logs))
	}
	entry := logs[0]
	if entry.Type != model.ConversionTypeAutoDeduct {
		t.Errorf("log type = %s, want auto_deduct", entry.Type)
	}
	if entry.BaseUnitBefore != 20 || entry.BaseUnitAfter != 15 {
		t.Errorf("base before/after = %d/%d, want 20/15", entry.BaseUnitBefore, entry.BaseUnitAfter)
	}
	if entry.ConversionUnitBefore != 5 || entry.ConversionUnitAfter != 5 {
		t.Errorf("conversion before/after = %d/%d, want untouched 5/5", entry.ConversionUnitBefore, entry.ConversionUnitAfter)
	}
}

func TestDeductConversionUnit(t *testing.T) {
	f := newConversionFixture()
	f.seedRecord(5, 20)

	record, _, err := f.service.Deduct(context.Background(), DeductStockRequest{
		ProductID: f.productID.String(),
		StoreID:   f.storeID.String(),
		Quantity:  2,
		Unit:      "box",
	})
	if err != nil {
		t.Fatalf("Deduct returned error: %v", err)
	}

	if record.ConversionUnitStock != 3 || record.BaseUnitStock != 20 {
		t.Errorf("stock after deduct = box %d / pcs %d, want 3/20", record.ConversionUnitStock, record.BaseUnitStock)
	}
}

func TestDeductTracksSale(t *testing.T) {
	f := newConversionFixture()
	f.seedRecord(5, 20)
	saleID := uuid.New()

	_, logs, err := f.service.Deduct(context.Background(), DeductStockRequest{
		ProductID: f.productID.String(),
		StoreID:   f.storeID.String(),
		Quantity:  1,
		Unit:      "pcs",
		SaleID:    saleID.String(),
	})
	if err != nil {
		t.Fatalf("Deduct returned error: %v", err)
	}
	if logs[0].SaleID == nil || *logs[0].SaleID != saleID {
		t.Errorf("log should carry the originating sale id, got %v", logs[0].SaleID)
	}
}

func TestDeductInsufficient(t *testing.T) {
	f := newConversionFixture()
	f.seedRecord(1, 3)

	_, _, err := f.service.Deduct(context.Background(), DeductStockRequest{
		ProductID: f.productID.String(),
		StoreID:   f.storeID.String(),
		Quantity:  4,
		Unit:      "pcs",
	})

	var insufficient *InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	sf := insufficient.Shortfalls[0]
	if sf.Requested != 4 || sf.Available != 3 || sf.Unit != "pcs" {
		t.Errorf("shortfall = %+v, want 4 requested, 3 available, unit pcs", sf)
	}

	// Rejected deduction leaves the record untouched.
	record, _ := f.inventoryRepo.Find(context.Background(), f.productID, f.storeID)
	if record.BaseUnitStock != 3 {
		t.Errorf("base stock = %d after rejected deduct, want 3", record.BaseUnitStock)
	}
	if len(f.inventoryRepo.logs) != 0 {
		t.Errorf("no log should be written for a rejected deduct, found %d", len(f.inventoryRepo.logs))
	}
}

func TestDeductMissingRecordIsShortfall(t *testing.T) {
	f := newConversionFixture()

	_, _, err := f.service.Deduct(context.Background(), DeductStockRequest{
		ProductID: f.productID.String(),
		StoreID:   f.storeID.String(),
		Quantity:  1,
		Unit:      "pcs",
	})

	var insufficient *InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if insufficient.Shortfalls[0].Available != 0 {
		t.Errorf("missing record should report available 0, got %d", insufficient.Shortfalls[0].Available)
	}
}

func TestRestoreCreatesMissingRecord(t *testing.T) {
	f := newConversionFixture()

	record, err := f.service.Restore(context.Background(), f.productID, f.storeID, 7, "pcs")
	if err != nil {
		t.Fatalf("Restore returned error: %v", err)
	}
	if record.BaseUnitStock != 7 {
		t.Errorf("base stock after restore = %d, want 7", record.BaseUnitStock)
	}
	if len(f.inventoryRepo.logs) != 1 {
		t.Errorf("restore should write one log, got %d", len(f.inventoryRepo.logs))
	}
}

func TestAddIncrementsStock(t *testing.T) {
	f := newConversionFixture()
	f.seedRecord(2, 10)

	record, err := f.service.Add(context.Background(), f.productID, f.storeID, 3, "box", "restock delivery")
	if err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if record.ConversionUnitStock != 5 {
		t.Errorf("conversion stock = %d, want 5", record.ConversionUnitStock)
	}
	if f.inventoryRepo.logs[0].Notes != "restock delivery" {
		t.Errorf("log notes = %q", f.inventoryRepo.logs[0].Notes)
	}
}

func TestAddRejectsNonPositive(t *testing.T) {
	f := newConversionFixture()

	_, err := f.service.Add(context.Background(), f.productID, f.storeID, 0, "pcs", "")
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestInitializeIsIdempotent(t *testing.T) {
	f := newConversionFixture()

	first, err := f.service.Initialize(context.Background(), f.productID, f.storeID, 30, "pcs")
	if err != nil {
		t.Fatalf("Initialize returned error: %v", err)
	}
	if first.BaseUnitStock != 30 {
		t.Errorf("initial base stock = %d, want 30", first.BaseUnitStock)
	}

	second, err := f.service.Initialize(context.Background(), f.productID, f.storeID, 99, "pcs")
	if err != nil {
		t.Fatalf("second Initialize returned error: %v", err)
	}
	if second.BaseUnitStock != 30 {
		t.Errorf("second Initialize must return the existing record untouched, got %d", second.BaseUnitStock)
	}
	if len(f.inventoryRepo.records) != 1 {
		t.Errorf("expected a single inventory record, got %d", len(f.inventoryRepo.records))
	}
}

func TestAdjustManualOverwrites(t *testing.T) {
	f := newConversionFixture()
	f.seedRecord(5, 20)

	record, entry, err := f.service.AdjustManual(context.Background(), AdjustStockRequest{
		ProductID:           f.productID.String(),
		StoreID:             f.storeID.String(),
		ConversionUnitStock: 8,
		BaseUnitStock:       4,
		Reason:              "annual stocktake",
	})
	if err != nil {
		t.Fatalf("AdjustManual returned error: %v", err)
	}

	if record.ConversionUnitStock != 8 || record.BaseUnitStock != 4 {
		t.Errorf("stock after adjust = box %d / pcs %d, want 8/4", record.ConversionUnitStock, record.BaseUnitStock)
	}
	if entry.Type != model.ConversionTypeManualAdjust {
		t.Errorf("log type = %s, want manual_adjust", entry.Type)
	}
	if entry.ConversionUnitBefore != 5 || entry.BaseUnitBefore != 20 {
		t.Errorf("log before = box %d / pcs %d, want 5/20", entry.ConversionUnitBefore, entry.BaseUnitBefore)
	}
	if entry.Notes != "annual stocktake" {
		t.Errorf("log notes = %q", entry.Notes)
	}
}

func TestAdjustManualRejectsNegative(t *testing.T) {
	f := newConversionFixture()

	_, _, err := f.service.AdjustManual(context.Background(), AdjustStockRequest{
		ProductID:           f.productID.String(),
		StoreID:             f.storeID.String(),
		ConversionUnitStock: -1,
		BaseUnitStock:       0,
		Reason:              "bad",
	})
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestCheckAvailableByUnit(t *testing.T) {
	f := newConversionFixture()
	f.seedRecord(5, 20)

	boxes, err := f.service.CheckAvailable(context.Background(), f.productID, f.storeID, "box")
	if err != nil {
		t.Fatalf("CheckAvailable returned error: %v", err)
	}
	pcs, err := f.service.CheckAvailable(context.Background(), f.productID, f.storeID, "pcs")
	if err != nil {
		t.Fatalf("CheckAvailable returned error: %v", err)
	}

	if boxes != 5 || pcs != 20 {
		t.Errorf("available = box %d / pcs %d, want 5/20", boxes, pcs)
	}

	// A missing record reads as zero, not an error.
	none, err := f.service.CheckAvailable(context.Background(), f.productID, uuid.New(), "pcs")
	if err != nil || none != 0 {
		t.Errorf("missing record should read 0, got %d (%v)", none, err)
	}
}

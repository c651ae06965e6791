package service

import (
	"context"
	"io"
	"sort"
	"strings"
	"time"

	"posbackend/internal/model"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// fakeTxManager runs the function on the caller's context. Tests exercise
// service behavior, not transaction plumbing.
type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type fakeLotRepo struct {
	lots []*model.PurchaseLot
}

func (r *fakeLotRepo) Create(_ context.Context, lot *model.PurchaseLot) error {
	if lot.ID == uuid.Nil {
		lot.ID = uuid.New()
	}
	if lot.CreatedAt.IsZero() {
		lot.CreatedAt = time.Now()
	}
	stored := *lot
	r.lots = append(r.lots, &stored)
	return nil
}

func (r *fakeLotRepo) Save(_ context.Context, lot *model.PurchaseLot) error {
	for _, stored := range r.lots {
		if stored.ID == lot.ID {
			*stored = *lot
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeLotRepo) matching(productID, storeID uuid.UUID) []*model.PurchaseLot {
	var out []*model.PurchaseLot
	for _, lot := range r.lots {
		if lot.ProductID == productID && lot.StoreID == storeID {
			out = append(out, lot)
		}
	}
	return out
}

func (r *fakeLotRepo) SumAvailable(_ context.Context, productID, storeID uuid.UUID) (int, error) {
	total := 0
	for _, lot := range r.matching(productID, storeID) {
		if lot.RemainingQuantity > 0 {
			total += lot.RemainingQuantity
		}
	}
	return total, nil
}

func fifoLess(a, b *model.PurchaseLot) bool {
	if !a.ReceivedAt.Equal(b.ReceivedAt) {
		return a.ReceivedAt.Before(b.ReceivedAt)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return strings.Compare(a.ID.String(), b.ID.String()) < 0
}

func (r *fakeLotRepo) FindAvailableForUpdate(_ context.Context, productID, storeID uuid.UUID) ([]model.PurchaseLot, error) {
	var stored []*model.PurchaseLot
	for _, lot := range r.matching(productID, storeID) {
		if lot.RemainingQuantity > 0 {
			stored = append(stored, lot)
		}
	}
	sort.SliceStable(stored, func(i, j int) bool { return fifoLess(stored[i], stored[j]) })

	out := make([]model.PurchaseLot, len(stored))
	for i, lot := range stored {
		out[i] = *lot
	}
	return out, nil
}

func (r *fakeLotRepo) FindLatestReceivedForUpdate(_ context.Context, productID, storeID uuid.UUID) (*model.PurchaseLot, error) {
	stored := r.matching(productID, storeID)
	if len(stored) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	sort.SliceStable(stored, func(i, j int) bool { return fifoLess(stored[j], stored[i]) })
	latest := *stored[0]
	return &latest, nil
}

func (r *fakeLotRepo) List(_ context.Context, productID, storeID uuid.UUID, page, limit int) ([]model.PurchaseLot, int64, error) {
	stored := r.matching(productID, storeID)
	sort.SliceStable(stored, func(i, j int) bool { return fifoLess(stored[i], stored[j]) })

	total := int64(len(stored))
	start := (page - 1) * limit
	if start > len(stored) {
		start = len(stored)
	}
	end := start + limit
	if end > len(stored) {
		end = len(stored)
	}

	out := make([]model.PurchaseLot, 0, end-start)
	for _, lot := range stored[start:end] {
		out = append(out, *lot)
	}
	return out, total, nil
}

type fakeInventoryRepo struct {
	records []*model.InventoryRecord
	logs    []model.ConversionLog
}

func (r *fakeInventoryRepo) find(productID, storeID uuid.UUID) *model.InventoryRecord {
	for _, rec := range r.records {
		if rec.ProductID == productID && rec.StoreID == storeID {
			return rec
		}
	}
	return nil
}

func (r *fakeInventoryRepo) Find(_ context.Context, productID, storeID uuid.UUID) (*model.InventoryRecord, error) {
	if rec := r.find(productID, storeID); rec != nil {
		out := *rec
		return &out, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeInventoryRepo) FindForUpdate(ctx context.Context, productID, storeID uuid.UUID) (*model.InventoryRecord, error) {
	return r.Find(ctx, productID, storeID)
}

func (r *fakeInventoryRepo) Create(_ context.Context, record *model.InventoryRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	stored := *record
	r.records = append(r.records, &stored)
	return nil
}

func (r *fakeInventoryRepo) Save(_ context.Context, record *model.InventoryRecord) error {
	for _, stored := range r.records {
		if stored.ID == record.ID {
			*stored = *record
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeInventoryRepo) CreateLog(_ context.Context, entry *model.ConversionLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now()
	r.logs = append(r.logs, *entry)
	return nil
}

func (r *fakeInventoryRepo) ListLogs(_ context.Context, productID, storeID uuid.UUID, page, limit int) ([]model.ConversionLog, int64, error) {
	var matched []model.ConversionLog
	for _, entry := range r.logs {
		if entry.ProductID == productID && entry.StoreID == storeID {
			matched = append(matched, entry)
		}
	}

	total := int64(len(matched))
	start := (page - 1) * limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

type fakeOrderRepo struct {
	orders []*model.Order
	items  []model.OrderItem
}

func (r *fakeOrderRepo) Create(_ context.Context, order *model.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	stored := *order
	stored.Items = nil
	r.orders = append(r.orders, &stored)
	return nil
}

func (r *fakeOrderRepo) CreateItem(_ context.Context, item *model.OrderItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	r.items = append(r.items, *item)
	return nil
}

func (r *fakeOrderRepo) find(storeID, id uuid.UUID) *model.Order {
	for _, order := range r.orders {
		if order.ID == id && order.StoreID == storeID {
			return order
		}
	}
	return nil
}

func (r *fakeOrderRepo) FindByIDWithItems(ctx context.Context, storeID, id uuid.UUID) (*model.Order, error) {
	stored := r.find(storeID, id)
	if stored == nil {
		return nil, gorm.ErrRecordNotFound
	}
	out := *stored
	items, _ := r.FindItems(ctx, id)
	out.Items = items
	return &out, nil
}

func (r *fakeOrderRepo) FindByIDForUpdate(_ context.Context, storeID, id uuid.UUID) (*model.Order, error) {
	stored := r.find(storeID, id)
	if stored == nil {
		return nil, gorm.ErrRecordNotFound
	}
	out := *stored
	return &out, nil
}

func (r *fakeOrderRepo) FindItems(_ context.Context, orderID uuid.UUID) ([]model.OrderItem, error) {
	var out []model.OrderItem
	for _, item := range r.items {
		if item.OrderID == orderID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) Save(_ context.Context, order *model.Order) error {
	for _, stored := range r.orders {
		if stored.ID == order.ID {
			updated := *order
			updated.Items = nil
			*stored = updated
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeOrderRepo) List(ctx context.Context, storeID uuid.UUID, status string, page, limit int) ([]model.Order, int64, error) {
	var out []model.Order
	for _, order := range r.orders {
		if order.StoreID != storeID {
			continue
		}
		if status != "" && order.Status != status {
			continue
		}
		loaded, _ := r.FindByIDWithItems(ctx, storeID, order.ID)
		out = append(out, *loaded)
	}
	return out, int64(len(out)), nil
}

type fakeStoreRepo struct {
	stores       map[uuid.UUID]*model.Store
	onlineStores map[uuid.UUID]*model.OnlineStore
}

func (r *fakeStoreRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Store, error) {
	if store, ok := r.stores[id]; ok {
		out := *store
		return &out, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeStoreRepo) FindOnlineStoreByID(_ context.Context, id uuid.UUID) (*model.OnlineStore, error) {
	if onlineStore, ok := r.onlineStores[id]; ok {
		out := *onlineStore
		return &out, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeProductRepo struct {
	products       map[uuid.UUID]*model.Product
	onlineProducts map[uuid.UUID]*model.OnlineProduct
}

func (r *fakeProductRepo) Create(_ context.Context, product *model.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if r.products == nil {
		r.products = map[uuid.UUID]*model.Product{}
	}
	stored := *product
	r.products[product.ID] = &stored
	return nil
}

func (r *fakeProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	if product, ok := r.products[id]; ok {
		out := *product
		return &out, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeProductRepo) FindBySKU(_ context.Context, storeID uuid.UUID, sku string) (*model.Product, error) {
	for _, product := range r.products {
		if product.StoreID == storeID && product.SKU == sku {
			out := *product
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeProductRepo) FindOnlineProductByID(_ context.Context, id uuid.UUID) (*model.OnlineProduct, error) {
	if onlineProduct, ok := r.onlineProducts[id]; ok {
		out := *onlineProduct
		return &out, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeSequenceRepo struct {
	counters map[string]int64
}

func (r *fakeSequenceRepo) Next(_ context.Context, scope string, storeID uuid.UUID, period string) (int64, error) {
	if r.counters == nil {
		r.counters = map[string]int64{}
	}
	key := scope + "|" + storeID.String() + "|" + period
	r.counters[key]++
	return r.counters[key], nil
}

type fakeTransferRepo struct {
	transfers []*model.StockTransfer
	items     []model.StockTransferItem
}

func (r *fakeTransferRepo) Create(_ context.Context, transfer *model.StockTransfer) error {
	if transfer.ID == uuid.Nil {
		transfer.ID = uuid.New()
	}
	stored := *transfer
	stored.Items = nil
	r.transfers = append(r.transfers, &stored)
	return nil
}

func (r *fakeTransferRepo) CreateItem(_ context.Context, item *model.StockTransferItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	r.items = append(r.items, *item)
	return nil
}

func (r *fakeTransferRepo) FindByIDWithItems(_ context.Context, id uuid.UUID) (*model.StockTransfer, error) {
	for _, transfer := range r.transfers {
		if transfer.ID == id {
			out := *transfer
			for _, item := range r.items {
				if item.TransferID == id {
					out.Items = append(out.Items, item)
				}
			}
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeTransferRepo) List(_ context.Context, storeID uuid.UUID, page, limit int) ([]model.StockTransfer, int64, error) {
	var out []model.StockTransfer
	for _, transfer := range r.transfers {
		if transfer.SourceStoreID == storeID || transfer.DestinationStoreID == storeID {
			out = append(out, *transfer)
		}
	}
	return out, int64(len(out)), nil
}

type fakeAuditRepo struct {
	entries []model.AuditLog
}

func (r *fakeAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) List(_ context.Context, page, limit int) ([]model.AuditLog, int64, error) {
	return r.entries, int64(len(r.entries)), nil
}

package handler

import (
	"net/http"
	"time"

	"posbackend/internal/cache"
	"posbackend/internal/middleware"
	"posbackend/internal/model"
	"posbackend/internal/service"
	"posbackend/pkg/pagination"
	"posbackend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// availabilityCacheTTL keeps cached figures short-lived; mutations also
// invalidate eagerly.
const availabilityCacheTTL = 30 * time.Second

type InventoryHandler struct {
	ledger            service.LotLedger
	conversionService service.StockConversionService
	availabilityCache cache.AvailabilityCache
	logger            *logrus.Logger
}

func NewInventoryHandler(
	ledger service.LotLedger,
	conversionService service.StockConversionService,
	availabilityCache cache.AvailabilityCache,
	logger *logrus.Logger,
) *InventoryHandler {
	return &InventoryHandler{
		ledger:            ledger,
		conversionService: conversionService,
		availabilityCache: availabilityCache,
		logger:            logger,
	}
}

func (h *InventoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	staff := middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff)
	managers := middleware.RequireRole(model.RoleAdmin, model.RoleManager)

	inventory := router.Group("/api/inventory")
	{
		inventory.GET("/availability", h.GetAvailability)
		inventory.GET("/lots", staff, h.ListLots)
		inventory.POST("/lots", managers, h.ReceiveLot)
	}

	pos := router.Group("/api/pos/stock", staff)
	{
		pos.GET("", h.CheckStock)
		pos.GET("/logs", h.ListConversionLogs)
		pos.POST("/deduct", h.DeductStock)
		pos.POST("/restore", h.RestoreStock)
		pos.POST("/add", h.AddStock)
		pos.POST("/initialize", h.InitializeStock)
		pos.POST("/adjust", managers, h.AdjustStock)
	}
}

type restoreStockRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	StoreID   string `json:"store_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
	Unit      string `json:"unit"`
}

type addStockRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	StoreID   string `json:"store_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
	Unit      string `json:"unit"`
	Notes     string `json:"notes"`
}

type initializeStockRequest struct {
	ProductID    string `json:"product_id" binding:"required"`
	StoreID      string `json:"store_id" binding:"required"`
	InitialStock int    `json:"initial_stock" binding:"min=0"`
	Unit         string `json:"unit"`
}

// GetAvailability returns the FIFO-available quantity for a product/store
// @Summary      Get available quantity
// @Description  Sum of remaining quantities over all purchase lots with stock; served from cache when fresh
// @Tags         inventory
// @Produce      json
// @Param        product_id  query     string  true  "Product ID"
// @Param        store_id    query     string  true  "Store ID"
// @Success      200         {object}  response.Response{data=object}
// @Router       /api/inventory/availability [get]
func (h *InventoryHandler) GetAvailability(c *gin.Context) {
	productID, storeID, ok := parseProductStore(c, c.Query("product_id"), c.Query("store_id"))
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if quantity, hit, err := h.availabilityCache.Get(ctx, productID.String(), storeID.String()); err == nil && hit {
		c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
			"product_id": productID,
			"store_id":   storeID,
			"available":  quantity,
			"cached":     true,
		}))
		return
	}

	quantity, err := h.ledger.AvailableQuantity(ctx, productID, storeID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if err := h.availabilityCache.Set(ctx, productID.String(), storeID.String(), quantity, availabilityCacheTTL); err != nil {
		h.logger.Warn("failed to cache availability: " + err.Error())
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"product_id": productID,
		"store_id":   storeID,
		"available":  quantity,
		"cached":     false,
	}))
}

// ReceiveLot records a newly received purchase lot
// @Summary      Receive purchase lot
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.ReceiveLotRequest  true  "Receive Lot Payload"
// @Success      201      {object}  response.Response{data=model.PurchaseLot}
// @Failure      400      {object}  response.Response
// @Router       /api/inventory/lots [post]
func (h *InventoryHandler) ReceiveLot(c *gin.Context) {
	var req service.ReceiveLotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	lot, err := h.ledger.ReceiveLot(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, lot))
}

// ListLots returns the lot history for a product/store
// @Summary      List purchase lots
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        product_id  query     string  true   "Product ID"
// @Param        store_id    query     string  true   "Store ID"
// @Param        page        query     int     false  "Page number (default 1)"
// @Param        limit       query     int     false  "Items per page (default 20)"
// @Success      200         {object}  response.Response{data=object}
// @Router       /api/inventory/lots [get]
func (h *InventoryHandler) ListLots(c *gin.Context) {
	productID, storeID, ok := parseProductStore(c, c.Query("product_id"), c.Query("store_id"))
	if !ok {
		return
	}

	params := pagination.Parse(c)
	lots, total, err := h.ledger.ListLots(c.Request.Context(), productID, storeID, params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve lots: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"lots":  lots,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	}))
}

// CheckStock returns the POS aggregate stock for a product/store/unit
// @Summary      Check POS stock
// @Tags         pos
// @Security     BearerAuth
// @Produce      json
// @Param        product_id  query     string  true   "Product ID"
// @Param        store_id    query     string  true   "Store ID"
// @Param        unit        query     string  false  "Unit"
// @Success      200         {object}  response.Response{data=object}
// @Router       /api/pos/stock [get]
func (h *InventoryHandler) CheckStock(c *gin.Context) {
	productID, storeID, ok := parseProductStore(c, c.Query("product_id"), c.Query("store_id"))
	if !ok {
		return
	}

	unit := c.Query("unit")
	available, err := h.conversionService.CheckAvailable(c.Request.Context(), productID, storeID, unit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"product_id": productID,
		"store_id":   storeID,
		"unit":       unit,
		"available":  available,
	}))
}

// DeductStock deducts POS stock with conversion bookkeeping
// @Summary      Deduct POS stock
// @Tags         pos
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.DeductStockRequest  true  "Deduct Payload"
// @Success      200      {object}  response.Response{data=object}
// @Failure      409      {object}  response.Response
// @Router       /api/pos/stock/deduct [post]
func (h *InventoryHandler) DeductStock(c *gin.Context) {
	var req service.DeductStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	record, logs, err := h.conversionService.Deduct(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"record": record,
		"logs":   logs,
	}))
}

// RestoreStock restores previously deducted POS stock
// @Summary      Restore POS stock
// @Tags         pos
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      restoreStockRequest  true  "Restore Payload"
// @Success      200      {object}  response.Response{data=model.InventoryRecord}
// @Router       /api/pos/stock/restore [post]
func (h *InventoryHandler) RestoreStock(c *gin.Context) {
	var req restoreStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	productID, storeID, ok := parseProductStore(c, req.ProductID, req.StoreID)
	if !ok {
		return
	}

	record, err := h.conversionService.Restore(c.Request.Context(), productID, storeID, req.Quantity, req.Unit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, record))
}

// AddStock adds POS stock, creating the inventory record when absent
// @Summary      Add POS stock
// @Tags         pos
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      addStockRequest  true  "Add Payload"
// @Success      200      {object}  response.Response{data=model.InventoryRecord}
// @Router       /api/pos/stock/add [post]
func (h *InventoryHandler) AddStock(c *gin.Context) {
	var req addStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	productID, storeID, ok := parseProductStore(c, req.ProductID, req.StoreID)
	if !ok {
		return
	}

	record, err := h.conversionService.Add(c.Request.Context(), productID, storeID, req.Quantity, req.Unit, req.Notes)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, record))
}

// InitializeStock idempotently creates the inventory record
// @Summary      Initialize POS stock
// @Tags         pos
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      initializeStockRequest  true  "Initialize Payload"
// @Success      200      {object}  response.Response{data=model.InventoryRecord}
// @Router       /api/pos/stock/initialize [post]
func (h *InventoryHandler) InitializeStock(c *gin.Context) {
	var req initializeStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	productID, storeID, ok := parseProductStore(c, req.ProductID, req.StoreID)
	if !ok {
		return
	}

	record, err := h.conversionService.Initialize(c.Request.Context(), productID, storeID, req.InitialStock, req.Unit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, record))
}

// AdjustStock overwrites both stock figures with a reason
// @Summary      Manually adjust POS stock
// @Tags         pos
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.AdjustStockRequest  true  "Adjust Payload"
// @Success      200      {object}  response.Response{data=object}
// @Router       /api/pos/stock/adjust [post]
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	var req service.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	record, entry, err := h.conversionService.AdjustManual(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"record": record,
		"log":    entry,
	}))
}

// ListConversionLogs returns the POS stock audit trail
// @Summary      List conversion logs
// @Tags         pos
// @Security     BearerAuth
// @Produce      json
// @Param        product_id  query     string  true   "Product ID"
// @Param        store_id    query     string  true   "Store ID"
// @Param        page        query     int     false  "Page number (default 1)"
// @Param        limit       query     int     false  "Items per page (default 20)"
// @Success      200         {object}  response.Response{data=object}
// @Router       /api/pos/stock/logs [get]
func (h *InventoryHandler) ListConversionLogs(c *gin.Context) {
	productID, storeID, ok := parseProductStore(c, c.Query("product_id"), c.Query("store_id"))
	if !ok {
		return
	}

	params := pagination.Parse(c)
	logs, total, err := h.conversionService.ListLogs(c.Request.Context(), productID, storeID, params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve logs: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"logs":  logs,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	}))
}

func parseProductStore(c *gin.Context, productIDRaw, storeIDRaw string) (uuid.UUID, uuid.UUID, bool) {
	productID, err := uuid.Parse(productIDRaw)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid product id"))
		return uuid.Nil, uuid.Nil, false
	}
	storeID, err := uuid.Parse(storeIDRaw)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid store id"))
		return uuid.Nil, uuid.Nil, false
	}
	return productID, storeID, true
}

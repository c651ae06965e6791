package handler

import (
	"net/http"

	"posbackend/internal/middleware"
	"posbackend/internal/model"
	"posbackend/internal/service"
	"posbackend/pkg/pagination"
	"posbackend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderHandler struct {
	orderService     service.OrderService
	lifecycleService service.OrderLifecycleService
}

func NewOrderHandler(orderService service.OrderService, lifecycleService service.OrderLifecycleService) *OrderHandler {
	return &OrderHandler{orderService: orderService, lifecycleService: lifecycleService}
}

func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/api/orders")
	{
		// Order creation is the storefront path and carries no staff token.
		orders.POST("", h.CreateOrder)

		staff := middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff)
		orders.GET("", staff, h.ListOrders)
		orders.GET("/:id", staff, h.GetOrder)
		orders.PATCH("/:id/status", staff, h.UpdateStatus)
		orders.POST("/:id/payments/bank-transfer", staff, h.ConfirmBankTransfer)
		orders.POST("/:id/payments/cod", staff, h.CompleteCODPayment)
		orders.POST("/:id/payments/fail", staff, h.MarkPaymentFailed)
		orders.POST("/:id/payments/refund", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.ProcessRefund)
	}
}

type updateStatusRequest struct {
	Target          string `json:"target" binding:"required,oneof=pending confirmed processing shipped delivered cancelled"`
	StoreID         string `json:"store_id" binding:"required"`
	TrackingNumber  string `json:"tracking_number"`
	ShippingCarrier string `json:"shipping_carrier"`
	Note            string `json:"note"`
}

type bankTransferRequest struct {
	StoreID   string `json:"store_id" binding:"required"`
	Reference string `json:"reference" binding:"required"`
}

type codPaymentRequest struct {
	StoreID         string          `json:"store_id" binding:"required"`
	CollectedAmount decimal.Decimal `json:"collected_amount" binding:"required"`
}

type failPaymentRequest struct {
	StoreID string `json:"store_id" binding:"required"`
	Reason  string `json:"reason"`
}

type refundRequest struct {
	StoreID string          `json:"store_id" binding:"required"`
	Amount  decimal.Decimal `json:"amount" binding:"required"`
	Reason  string          `json:"reason"`
}

// CreateOrder creates an online order
// @Summary      Create order
// @Description  Creates an order with its items, deducting FIFO stock atomically; rejects with the full shortfall list when any line is short
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateOrderRequest  true  "Create Order Payload"
// @Success      201      {object}  response.Response{data=model.Order}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// GetOrder returns one order with items
// @Summary      Get order
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id        path      string  true  "Order ID"
// @Param        store_id  query     string  true  "Store ID"
// @Success      200       {object}  response.Response{data=object}
// @Failure      404       {object}  response.Response
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, storeID, ok := h.parseIDs(c, c.Param("id"), c.Query("store_id"))
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), storeID, orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"order":           order,
		"payment_expired": service.IsPaymentExpired(order),
	}))
}

// ListOrders returns paginated orders for a store
// @Summary      List orders
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        store_id  query     string  true   "Store ID"
// @Param        status    query     string  false  "Filter by status"
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        limit     query     int     false  "Items per page (default 20)"
// @Success      200       {object}  response.Response{data=object}
// @Router       /api/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	storeID, err := uuid.Parse(c.Query("store_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid store_id"))
		return
	}

	params := pagination.Parse(c)
	orders, total, err := h.orderService.ListOrders(c.Request.Context(), storeID, c.Query("status"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve orders: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"orders": orders,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	}))
}

// UpdateStatus executes one order status transition
// @Summary      Update order status
// @Description  Validates the transition against the order state machine; cancelling restores all item quantities to stock in the same transaction
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string               true  "Order ID"
// @Param        payload  body      updateStatusRequest  true  "Status Change Payload"
// @Success      200      {object}  response.Response{data=service.StatusChangeResult}
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/orders/{id}/status [patch]
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	orderID, storeID, ok := h.parseIDs(c, c.Param("id"), req.StoreID)
	if !ok {
		return
	}

	result, err := h.lifecycleService.UpdateStatus(c.Request.Context(), storeID, orderID, req.Target, service.UpdateStatusOptions{
		TrackingNumber:  req.TrackingNumber,
		ShippingCarrier: req.ShippingCarrier,
		Note:            req.Note,
		ActorID:         c.GetString("userID"),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// ConfirmBankTransfer marks a bank-transfer payment as paid
// @Summary      Confirm bank transfer
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string               true  "Order ID"
// @Param        payload  body      bankTransferRequest  true  "Confirmation Payload"
// @Success      200      {object}  response.Response{data=model.Order}
// @Failure      422      {object}  response.Response
// @Router       /api/orders/{id}/payments/bank-transfer [post]
func (h *OrderHandler) ConfirmBankTransfer(c *gin.Context) {
	var req bankTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	orderID, storeID, ok := h.parseIDs(c, c.Param("id"), req.StoreID)
	if !ok {
		return
	}

	order, err := h.lifecycleService.ConfirmBankTransfer(c.Request.Context(), storeID, orderID, req.Reference)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// CompleteCODPayment records a collected COD payment
// @Summary      Complete COD payment
// @Description  The collected amount must exactly match the order total and the order must be shipped or delivered
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string             true  "Order ID"
// @Param        payload  body      codPaymentRequest  true  "COD Payload"
// @Success      200      {object}  response.Response{data=model.Order}
// @Failure      422      {object}  response.Response
// @Router       /api/orders/{id}/payments/cod [post]
func (h *OrderHandler) CompleteCODPayment(c *gin.Context) {
	var req codPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	orderID, storeID, ok := h.parseIDs(c, c.Param("id"), req.StoreID)
	if !ok {
		return
	}

	order, err := h.lifecycleService.CompleteCODPayment(c.Request.Context(), storeID, orderID, req.CollectedAmount)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// MarkPaymentFailed marks a pending payment as failed
// @Summary      Mark payment failed
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string              true  "Order ID"
// @Param        payload  body      failPaymentRequest  true  "Failure Payload"
// @Success      200      {object}  response.Response{data=model.Order}
// @Failure      422      {object}  response.Response
// @Router       /api/orders/{id}/payments/fail [post]
func (h *OrderHandler) MarkPaymentFailed(c *gin.Context) {
	var req failPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	orderID, storeID, ok := h.parseIDs(c, c.Param("id"), req.StoreID)
	if !ok {
		return
	}

	order, err := h.lifecycleService.MarkPaymentFailed(c.Request.Context(), storeID, orderID, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// ProcessRefund refunds a paid order
// @Summary      Process refund
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string         true  "Order ID"
// @Param        payload  body      refundRequest  true  "Refund Payload"
// @Success      200      {object}  response.Response{data=model.Order}
// @Failure      422      {object}  response.Response
// @Router       /api/orders/{id}/payments/refund [post]
func (h *OrderHandler) ProcessRefund(c *gin.Context) {
	var req refundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	orderID, storeID, ok := h.parseIDs(c, c.Param("id"), req.StoreID)
	if !ok {
		return
	}

	order, err := h.lifecycleService.ProcessRefund(c.Request.Context(), storeID, orderID, req.Amount, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

func (h *OrderHandler) parseIDs(c *gin.Context, orderIDRaw, storeIDRaw string) (uuid.UUID, uuid.UUID, bool) {
	orderID, err := uuid.Parse(orderIDRaw)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid order id"))
		return uuid.Nil, uuid.Nil, false
	}
	storeID, err := uuid.Parse(storeIDRaw)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid store id"))
		return uuid.Nil, uuid.Nil, false
	}
	return orderID, storeID, true
}

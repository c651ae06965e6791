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
)

type TransferHandler struct {
	transferService service.TransferService
}

func NewTransferHandler(transferService service.TransferService) *TransferHandler {
	return &TransferHandler{transferService: transferService}
}

func (h *TransferHandler) RegisterRoutes(router *gin.RouterGroup) {
	managers := middleware.RequireRole(model.RoleAdmin, model.RoleManager)
	staff := middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff)

	transfers := router.Group("/api/transfers")
	{
		transfers.POST("", managers, h.CreateTransfer)
		transfers.GET("", staff, h.ListTransfers)
		transfers.GET("/:id", staff, h.GetTransfer)
	}
}

// CreateTransfer moves stock between two stores of the same tenant
// @Summary      Transfer inventory between stores
// @Description  Deducts FIFO lots at the source and recreates them per cost tier at the destination, atomically
// @Tags         transfers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.TransferRequest  true  "Transfer Payload"
// @Success      201      {object}  response.Response{data=service.TransferResult}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/transfers [post]
func (h *TransferHandler) CreateTransfer(c *gin.Context) {
	var req service.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	actorID := c.GetString("userID")
	result, err := h.transferService.TransferInventory(c.Request.Context(), actorID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// GetTransfer returns a transfer with its per-cost-tier items
// @Summary      Get stock transfer
// @Tags         transfers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Transfer ID"
// @Success      200  {object}  response.Response{data=model.StockTransfer}
// @Failure      404  {object}  response.Response
// @Router       /api/transfers/{id} [get]
func (h *TransferHandler) GetTransfer(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid transfer id"))
		return
	}

	transfer, err := h.transferService.GetTransfer(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, transfer))
}

// ListTransfers lists transfers touching a store, newest first
// @Summary      List stock transfers
// @Tags         transfers
// @Security     BearerAuth
// @Produce      json
// @Param        store_id  query     string  true   "Store ID (source or destination)"
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        limit     query     int     false  "Items per page (default 20)"
// @Success      200       {object}  response.Response{data=object}
// @Router       /api/transfers [get]
func (h *TransferHandler) ListTransfers(c *gin.Context) {
	storeID, err := uuid.Parse(c.Query("store_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid store id"))
		return
	}

	params := pagination.Parse(c)
	transfers, total, err := h.transferService.ListTransfers(c.Request.Context(), storeID, params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve transfers: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"transfers": transfers,
		"total":     total,
		"page":      params.Page,
		"limit":     params.Limit,
	}))
}

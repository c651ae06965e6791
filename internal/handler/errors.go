package handler

import (
	"errors"
	"net/http"

	"posbackend/internal/service"
	"posbackend/pkg/response"

	"github.com/gin-gonic/gin"
)

// respondServiceError maps typed service errors onto HTTP responses. Every
// declared error kind distinguishes "nothing happened" (4xx with a
// structured payload) from an unexpected mid-flight failure (500).
func respondServiceError(c *gin.Context, err error) {
	var insufficientStock *service.InsufficientStockError
	var invalidTransition *service.InvalidStatusTransitionError
	var orderNotFound *service.OrderNotFoundError
	var paymentErr *service.PaymentStatusError
	var tenantErr *service.StoresNotSameTenantError
	var notFound *service.NotFoundError
	var validationErr *service.ValidationError

	switch {
	case errors.As(err, &insufficientStock):
		c.JSON(http.StatusConflict, response.ErrorWithDetails(http.StatusConflict, err.Error(), gin.H{
			"shortfalls": insufficientStock.Shortfalls,
		}))
	case errors.As(err, &invalidTransition):
		c.JSON(http.StatusConflict, response.ErrorWithDetails(http.StatusConflict, err.Error(), gin.H{
			"current_status": invalidTransition.From,
			"target_status":  invalidTransition.To,
			"allowed":        service.AllowedTransitions(invalidTransition.From),
		}))
	case errors.As(err, &orderNotFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
	case errors.As(err, &paymentErr):
		c.JSON(http.StatusUnprocessableEntity, response.ErrorWithDetails(http.StatusUnprocessableEntity, err.Error(), gin.H{
			"order_id":       paymentErr.OrderID.String(),
			"payment_status": paymentErr.PaymentStatus,
		}))
	case errors.As(err, &tenantErr):
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
	}
}

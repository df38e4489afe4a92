package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/seedledger-api/internal/application/service"
	"github.com/sangkips/seedledger-api/internal/domain/enum"
	"github.com/sangkips/seedledger-api/internal/presentation/http/dto/request"
	"github.com/sangkips/seedledger-api/internal/presentation/http/dto/response"
)

// PaymentHandler handles payments against existing sales
type PaymentHandler struct {
	paymentService *service.PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// Create handles recording a payment on the sale in the path
func (h *PaymentHandler) Create(c *gin.Context) {
	saleID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req request.CreatePaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.paymentService.CreatePayment(c.Request.Context(), &service.CreatePaymentInput{
		SaleID: saleID,
		Amount: req.Amount,
		Method: enum.PaymentMethod(req.Method),
		Note:   req.Note,
		Actor:  GetActorID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Payment recorded successfully", result)
}

// Delete handles reversing a payment
func (h *PaymentHandler) Delete(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.paymentService.DeletePayment(c.Request.Context(), id, GetActorID(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Payment deleted successfully", nil)
}

package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/seedledger-api/internal/application/service"
	"github.com/sangkips/seedledger-api/internal/presentation/http/dto/request"
	"github.com/sangkips/seedledger-api/internal/presentation/http/dto/response"
)

// OverpaymentHandler exposes the client overpayment ledger
type OverpaymentHandler struct {
	overpaymentService *service.OverpaymentService
}

// NewOverpaymentHandler creates a new overpayment handler
func NewOverpaymentHandler(overpaymentService *service.OverpaymentService) *OverpaymentHandler {
	return &OverpaymentHandler{overpaymentService: overpaymentService}
}

// Balance returns a client's credit balance
func (h *OverpaymentHandler) Balance(c *gin.Context) {
	clientID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	balance, err := h.overpaymentService.Balance(c.Request.Context(), clientID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Overpayment balance retrieved successfully", gin.H{
		"client_id": clientID,
		"balance":   balance,
	})
}

// History lists a client's overpayment transactions, newest first
func (h *OverpaymentHandler) History(c *gin.Context) {
	clientID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req request.LimitRequest
	if !bindQuery(c, &req) {
		return
	}

	txns, err := h.overpaymentService.History(c.Request.Context(), clientID, req.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Overpayment history retrieved successfully", txns)
}

// Withdraw pays credit out to the client
func (h *OverpaymentHandler) Withdraw(c *gin.Context) {
	h.apply(c, "Overpayment withdrawn successfully", h.overpaymentService.Withdraw)
}

// Adjust applies a signed correction to the client's credit
func (h *OverpaymentHandler) Adjust(c *gin.Context) {
	h.apply(c, "Overpayment adjusted successfully", h.overpaymentService.Adjust)
}

func (h *OverpaymentHandler) apply(
	c *gin.Context,
	message string,
	op func(ctx context.Context, entry *service.OverpaymentEntry) (*service.OverpaymentResult, error),
) {
	clientID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req request.OverpaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := op(c.Request.Context(), &service.OverpaymentEntry{
		ClientID: clientID,
		Amount:   req.Amount,
		Actor:    GetActorID(c),
		Note:     req.Note,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, message, result)
}

// Recalculate rebuilds a client's balance from the transaction log
func (h *OverpaymentHandler) Recalculate(c *gin.Context) {
	clientID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	result, err := h.overpaymentService.Recalculate(c.Request.Context(), clientID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Overpayment balance recalculated", result)
}

// Reconcile lists clients whose balance disagrees with their log
func (h *OverpaymentHandler) Reconcile(c *gin.Context) {
	rows, err := h.overpaymentService.Reconcile(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Overpayments reconciled", rows)
}

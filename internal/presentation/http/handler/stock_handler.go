package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/seedledger-api/internal/application/service"
	"github.com/sangkips/seedledger-api/internal/presentation/http/dto/request"
	"github.com/sangkips/seedledger-api/internal/presentation/http/dto/response"
	"github.com/sangkips/seedledger-api/pkg/utils"
)

// StockHandler exposes the stock ledger and the documents that move stock
type StockHandler struct {
	stockService      *service.StockService
	writeOffService   *service.WriteOffService
	productionService *service.ProductionService
}

// NewStockHandler creates a new stock handler
func NewStockHandler(
	stockService *service.StockService,
	writeOffService *service.WriteOffService,
	productionService *service.ProductionService,
) *StockHandler {
	return &StockHandler{
		stockService:      stockService,
		writeOffService:   writeOffService,
		productionService: productionService,
	}
}

// Quantity returns the on-hand quantity of a product
func (h *StockHandler) Quantity(c *gin.Context) {
	productID, ok := pathUUID(c, "product_id")
	if !ok {
		return
	}

	quantity, err := h.stockService.Quantity(c.Request.Context(), productID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Stock retrieved successfully", gin.H{
		"product_id": productID,
		"quantity":   quantity,
	})
}

// Adjust sets a product's quantity after a physical count
func (h *StockHandler) Adjust(c *gin.Context) {
	productID, ok := pathUUID(c, "product_id")
	if !ok {
		return
	}

	var req request.AdjustStockRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.stockService.Adjust(c.Request.Context(), productID, *req.Quantity, GetActorID(c), req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	message := "Stock adjusted successfully"
	if !result.Changed {
		message = "Stock unchanged"
	}
	response.OK(c, message, result)
}

// Movements lists stock movements, newest first
func (h *StockHandler) Movements(c *gin.Context) {
	var req request.LimitRequest
	if !bindQuery(c, &req) {
		return
	}

	productID, err := utils.ParseOptionalUUID(c.Query("product_id"))
	if err != nil {
		response.BadRequest(c, "Invalid product ID")
		return
	}

	movements, err := h.stockService.Movements(c.Request.Context(), productID, req.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Stock movements retrieved successfully", movements)
}

// Reconcile lists products whose quantity disagrees with their movements
func (h *StockHandler) Reconcile(c *gin.Context) {
	rows, err := h.stockService.Reconcile(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Stock reconciled", rows)
}

// CreateWriteOff handles writing off damaged or lost stock
func (h *StockHandler) CreateWriteOff(c *gin.Context) {
	var req request.StockDocumentRequest
	if !bindJSON(c, &req) {
		return
	}

	writeOff, err := h.writeOffService.CreateWriteOff(c.Request.Context(), &service.CreateWriteOffInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Reason:    req.Note,
		Actor:     GetActorID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Write-off recorded successfully", writeOff)
}

// DeleteWriteOff handles reversing a write-off
func (h *StockHandler) DeleteWriteOff(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.writeOffService.DeleteWriteOff(c.Request.Context(), id, GetActorID(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Write-off deleted successfully", nil)
}

// CreateProduction handles recording a production batch
func (h *StockHandler) CreateProduction(c *gin.Context) {
	var req request.StockDocumentRequest
	if !bindJSON(c, &req) {
		return
	}

	batch, err := h.productionService.CreateProduction(c.Request.Context(), &service.CreateProductionInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Note:      req.Note,
		Actor:     GetActorID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Production recorded successfully", batch)
}

// DeleteProduction handles reversing a production batch
func (h *StockHandler) DeleteProduction(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.productionService.DeleteProduction(c.Request.Context(), id, GetActorID(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Production deleted successfully", nil)
}

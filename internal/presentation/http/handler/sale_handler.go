package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/seedledger-api/internal/application/service"
	"github.com/sangkips/seedledger-api/internal/domain/enum"
	"github.com/sangkips/seedledger-api/internal/domain/repository"
	"github.com/sangkips/seedledger-api/internal/presentation/http/dto/request"
	"github.com/sangkips/seedledger-api/internal/presentation/http/dto/response"
	"github.com/sangkips/seedledger-api/pkg/pagination"
	"github.com/sangkips/seedledger-api/pkg/utils"
)

const dateLayout = "2006-01-02"

// SaleHandler handles sale-related HTTP requests
type SaleHandler struct {
	saleService   *service.SaleService
	returnService *service.ReturnService
}

// NewSaleHandler creates a new sale handler
func NewSaleHandler(saleService *service.SaleService, returnService *service.ReturnService) *SaleHandler {
	return &SaleHandler{saleService: saleService, returnService: returnService}
}

// Create handles creating a sale
func (h *SaleHandler) Create(c *gin.Context) {
	var req request.CreateSaleRequest
	if !bindJSON(c, &req) {
		return
	}

	items := make([]service.SaleItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, service.SaleItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}

	sale, err := h.saleService.CreateSale(c.Request.Context(), &service.CreateSaleInput{
		ClientID:      req.ClientID,
		Items:         items,
		PaidAmount:    req.PaidAmount,
		PaymentMethod: enum.PaymentMethod(req.PaymentMethod),
		CreditApplied: req.CreditApplied,
		Note:          req.Note,
		Actor:         GetActorID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Sale created successfully", sale)
}

// Get handles getting a sale by ID
func (h *SaleHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	sale, err := h.saleService.GetSale(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Sale retrieved successfully", sale)
}

// List handles listing sales
func (h *SaleHandler) List(c *gin.Context) {
	var req request.SaleFilterRequest
	if !bindQuery(c, &req) {
		return
	}

	params := &repository.SaleFilterParams{
		Pagination: pagination.NewParams(req.Page, req.PerPage),
		SortOrder:  req.SortOrder,
	}

	clientID, err := utils.ParseOptionalUUID(req.ClientID)
	if err != nil {
		response.BadRequest(c, "Invalid client ID")
		return
	}
	params.ClientID = clientID

	if req.StartDate != "" {
		startDate, err := time.Parse(dateLayout, req.StartDate)
		if err != nil {
			response.BadRequest(c, "start_date must be YYYY-MM-DD")
			return
		}
		params.StartDate = &startDate
	}
	if req.EndDate != "" {
		endDate, err := time.Parse(dateLayout, req.EndDate)
		if err != nil {
			response.BadRequest(c, "end_date must be YYYY-MM-DD")
			return
		}
		// inclusive of the whole end day
		endDate = endDate.Add(24*time.Hour - time.Nanosecond)
		params.EndDate = &endDate
	}

	result, err := h.saleService.ListSales(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, "Sales retrieved successfully", result)
}

// Delete handles deleting a sale and reversing its effects
func (h *SaleHandler) Delete(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.saleService.DeleteSale(c.Request.Context(), id, GetActorID(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Sale deleted successfully", nil)
}

// ReceiptGaps lists receipt numbers missing among active sales
func (h *SaleHandler) ReceiptGaps(c *gin.Context) {
	gaps, err := h.saleService.CheckReceiptSequence(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Receipt sequence checked", gin.H{"missing": gaps})
}

// CreateReturn handles goods brought back against a sale
func (h *SaleHandler) CreateReturn(c *gin.Context) {
	saleID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req request.CreateReturnRequest
	if !bindJSON(c, &req) {
		return
	}

	items := make([]service.ReturnItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, service.ReturnItemInput{SaleItemID: item.SaleItemID, Quantity: item.Quantity})
	}

	ret, err := h.returnService.CreateReturn(c.Request.Context(), &service.CreateReturnInput{
		SaleID: saleID,
		Items:  items,
		Reason: req.Reason,
		Actor:  GetActorID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Return recorded successfully", ret)
}

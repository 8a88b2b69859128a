package handler

import (
	"github.com/gin-gonic/gin"

	inventoryapp "github.com/vaxtrack/backend/internal/application/inventory"
)

// InventoryHandler handles stock intake, adjustment and ledger endpoints
type InventoryHandler struct {
	BaseHandler
	inventoryService      *inventoryapp.InventoryService
	reconciliationService *inventoryapp.ReconciliationService
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(inventoryService *inventoryapp.InventoryService, reconciliationService *inventoryapp.ReconciliationService) *InventoryHandler {
	return &InventoryHandler{
		inventoryService:      inventoryService,
		reconciliationService: reconciliationService,
	}
}

// ReceiveStock handles POST /inventory/receipts
func (h *InventoryHandler) ReceiveStock(c *gin.Context) {
	var req inventoryapp.ReceiveStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.inventoryService.ReceiveStock(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// AdjustStock handles POST /inventory/adjustments
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	var req inventoryapp.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.inventoryService.AdjustOnHand(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetAvailability handles GET /inventory/:productId/availability
func (h *InventoryHandler) GetAvailability(c *gin.Context) {
	productID, err := parseUUIDParam(c, "productId")
	if err != nil {
		h.BadRequest(c, "invalid product id")
		return
	}

	resp, err := h.inventoryService.GetAvailability(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListMovements handles GET /inventory/:productId/movements
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	productID, err := parseUUIDParam(c, "productId")
	if err != nil {
		h.BadRequest(c, "invalid product id")
		return
	}

	var filter inventoryapp.MovementListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	page, err := h.inventoryService.ListMovements(c.Request.Context(), productID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// ExpiringLots handles GET /inventory/:productId/expiring-lots
func (h *InventoryHandler) ExpiringLots(c *gin.Context) {
	productID, err := parseUUIDParam(c, "productId")
	if err != nil {
		h.BadRequest(c, "invalid product id")
		return
	}

	filter := inventoryapp.ExpiringLotsFilter{WithinDays: 30}
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	lots, err := h.inventoryService.ExpiringLots(c.Request.Context(), productID, filter.WithinDays)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, lots)
}

// RetireExpiredLots handles POST /inventory/:productId/retire-expired
func (h *InventoryHandler) RetireExpiredLots(c *gin.Context) {
	productID, err := parseUUIDParam(c, "productId")
	if err != nil {
		h.BadRequest(c, "invalid product id")
		return
	}

	writtenOff, err := h.inventoryService.RetireExpiredLots(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"written_off": writtenOff})
}

// RunReconciliation handles POST /inventory/reconciliation
func (h *InventoryHandler) RunReconciliation(c *gin.Context) {
	var req inventoryapp.ReconciliationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, err.Error())
			return
		}
	}

	report, err := h.reconciliationService.Reconcile(c.Request.Context(), req.ProductID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// RegisterRoutes registers inventory endpoints
func (h *InventoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	inventory := rg.Group("/inventory")
	{
		inventory.POST("/receipts", h.ReceiveStock)
		inventory.POST("/adjustments", h.AdjustStock)
		inventory.POST("/reconciliation", h.RunReconciliation)
		inventory.GET("/:productId/availability", h.GetAvailability)
		inventory.GET("/:productId/movements", h.ListMovements)
		inventory.GET("/:productId/expiring-lots", h.ExpiringLots)
		inventory.POST("/:productId/retire-expired", h.RetireExpiredLots)
	}
}

package handler

import (
	"github.com/gin-gonic/gin"

	schedulingapp "github.com/vaxtrack/backend/internal/application/scheduling"
)

// SchedulingHandler handles quote reservation and calendar endpoints
type SchedulingHandler struct {
	BaseHandler
	schedulingService *schedulingapp.Service
}

// NewSchedulingHandler creates a new SchedulingHandler
func NewSchedulingHandler(schedulingService *schedulingapp.Service) *SchedulingHandler {
	return &SchedulingHandler{schedulingService: schedulingService}
}

// ReserveForQuote handles POST /quotes/:quoteId/reservations.
// The Idempotency-Key header makes retries of the same commit safe.
func (h *SchedulingHandler) ReserveForQuote(c *gin.Context) {
	quoteID, err := parseUUIDParam(c, "quoteId")
	if err != nil {
		h.BadRequest(c, "invalid quote id")
		return
	}

	var req schedulingapp.ReserveForQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.QuoteID = quoteID
	req.IdempotencyKey = c.GetHeader("Idempotency-Key")

	result, err := h.schedulingService.ReserveForQuote(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if result.Replayed {
		h.Success(c, result)
		return
	}
	h.Created(c, result)
}

// ReleaseForQuote handles DELETE /quotes/:quoteId/reservations
func (h *SchedulingHandler) ReleaseForQuote(c *gin.Context) {
	quoteID, err := parseUUIDParam(c, "quoteId")
	if err != nil {
		h.BadRequest(c, "invalid quote id")
		return
	}

	result, err := h.schedulingService.ReleaseForQuote(c.Request.Context(), quoteID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// GetQuoteSchedule handles GET /quotes/:quoteId/schedule
func (h *SchedulingHandler) GetQuoteSchedule(c *gin.Context) {
	quoteID, err := parseUUIDParam(c, "quoteId")
	if err != nil {
		h.BadRequest(c, "invalid quote id")
		return
	}

	result, err := h.schedulingService.GetQuoteSchedule(c.Request.Context(), quoteID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ApplyQuoteState handles POST /quotes/:quoteId/state
func (h *SchedulingHandler) ApplyQuoteState(c *gin.Context) {
	quoteID, err := parseUUIDParam(c, "quoteId")
	if err != nil {
		h.BadRequest(c, "invalid quote id")
		return
	}

	var req schedulingapp.ApplyQuoteStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.QuoteID = quoteID

	result, err := h.schedulingService.ApplyQuoteState(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ConfirmDelivery handles POST /calendar-entries/:entryId/deliveries
func (h *SchedulingHandler) ConfirmDelivery(c *gin.Context) {
	entryID, err := parseUUIDParam(c, "entryId")
	if err != nil {
		h.BadRequest(c, "invalid calendar entry id")
		return
	}

	var req schedulingapp.ConfirmDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.schedulingService.ConfirmDelivery(c.Request.Context(), entryID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// SplitCalendarEntry handles POST /calendar-entries/:entryId/split
func (h *SchedulingHandler) SplitCalendarEntry(c *gin.Context) {
	entryID, err := parseUUIDParam(c, "entryId")
	if err != nil {
		h.BadRequest(c, "invalid calendar entry id")
		return
	}

	var req schedulingapp.SplitEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.schedulingService.SplitCalendarEntry(c.Request.Context(), entryID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// RegisterRoutes registers scheduling endpoints
func (h *SchedulingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	quotes := rg.Group("/quotes")
	{
		quotes.POST("/:quoteId/reservations", h.ReserveForQuote)
		quotes.DELETE("/:quoteId/reservations", h.ReleaseForQuote)
		quotes.GET("/:quoteId/schedule", h.GetQuoteSchedule)
		quotes.POST("/:quoteId/state", h.ApplyQuoteState)
	}

	entries := rg.Group("/calendar-entries")
	{
		entries.POST("/:entryId/deliveries", h.ConfirmDelivery)
		entries.POST("/:entryId/split", h.SplitCalendarEntry)
	}
}

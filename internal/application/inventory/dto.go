package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vaxtrack/backend/internal/domain/inventory"
)

// ReceiveStockRequest represents an inbound stock receipt
type ReceiveStockRequest struct {
	ProductID         uuid.UUID       `json:"product_id" binding:"required"`
	Quantity          decimal.Decimal `json:"quantity" binding:"required"`
	LotCode           string          `json:"lot_code"`
	Expiry            *time.Time      `json:"expiry"`
	DosesPerContainer decimal.Decimal `json:"doses_per_container"`
	Location          string          `json:"location"`
	ShipmentID        *uuid.UUID      `json:"shipment_id"`
}

// AdjustStockRequest represents a manual stock correction
type AdjustStockRequest struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	LotID     *uuid.UUID      `json:"lot_id"`
	Delta     decimal.Decimal `json:"delta" binding:"required"`
	Reason    string          `json:"reason" binding:"required,max=500"`
}

// LotResponse represents a lot in API responses
type LotResponse struct {
	ID                uuid.UUID       `json:"id"`
	LotCode           string          `json:"lot_code"`
	Expiry            *time.Time      `json:"expiry,omitempty"`
	QuantityOnHand    decimal.Decimal `json:"quantity_on_hand"`
	QuantityReserved  decimal.Decimal `json:"quantity_reserved"`
	Available         decimal.Decimal `json:"available"`
	DosesPerContainer decimal.Decimal `json:"doses_per_container"`
	Location          string          `json:"location,omitempty"`
	Retired           bool            `json:"retired"`
}

// AvailabilityResponse represents a product's stock position
type AvailabilityResponse struct {
	ProductID     uuid.UUID       `json:"product_id"`
	LotTracked    bool            `json:"lot_tracked"`
	StockOnHand   decimal.Decimal `json:"stock_on_hand"`
	StockReserved decimal.Decimal `json:"stock_reserved"`
	Available     decimal.Decimal `json:"available"`
	Lots          []LotResponse   `json:"lots,omitempty"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// StockMovementResponse represents one ledger line in API responses
type StockMovementResponse struct {
	ID            uuid.UUID       `json:"id"`
	ProductID     uuid.UUID       `json:"product_id"`
	MovementType  string          `json:"movement_type"`
	Quantity      decimal.Decimal `json:"quantity"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	SourceType    string          `json:"source_type"`
	SourceID      *uuid.UUID      `json:"source_id,omitempty"`
	LotID         *uuid.UUID      `json:"lot_id,omitempty"`
	ReservationID *uuid.UUID      `json:"reservation_id,omitempty"`
	Reason        string          `json:"reason,omitempty"`
	MovementDate  time.Time       `json:"movement_date"`
}

// MovementListFilter represents filter options for the movement ledger
type MovementListFilter struct {
	MovementType string `form:"movement_type"`
	SourceType   string `form:"source_type"`
	Page         int    `form:"page" binding:"min=0"`
	PageSize     int    `form:"page_size" binding:"min=0,max=100"`
}

// ExpiringLotsFilter selects lots close to expiry
type ExpiringLotsFilter struct {
	WithinDays int `form:"within_days" binding:"min=1,max=3650"`
}

// ReconciliationRequest selects the scope of a reconciliation run
type ReconciliationRequest struct {
	ProductID *uuid.UUID `json:"product_id"`
}

func toLotResponse(lot *inventory.Lot) LotResponse {
	return LotResponse{
		ID:                lot.ID,
		LotCode:           lot.LotCode,
		Expiry:            lot.Expiry,
		QuantityOnHand:    lot.QuantityOnHand,
		QuantityReserved:  lot.QuantityReserved,
		Available:         lot.Available(),
		DosesPerContainer: lot.DosesPerContainer,
		Location:          lot.Location,
		Retired:           lot.Retired,
	}
}

// ToAvailabilityResponse converts a product stock aggregate to a response
func ToAvailabilityResponse(stock *inventory.ProductStock) AvailabilityResponse {
	resp := AvailabilityResponse{
		ProductID:     stock.ProductID,
		LotTracked:    stock.LotTracked,
		StockOnHand:   stock.StockOnHand,
		StockReserved: stock.StockReserved,
		Available:     stock.Available(),
		UpdatedAt:     stock.UpdatedAt,
	}
	for i := range stock.Lots {
		resp.Lots = append(resp.Lots, toLotResponse(&stock.Lots[i]))
	}
	return resp
}

// ToStockMovementResponse converts a ledger line to a response
func ToStockMovementResponse(m *inventory.StockMovement) StockMovementResponse {
	return StockMovementResponse{
		ID:            m.ID,
		ProductID:     m.ProductID,
		MovementType:  string(m.MovementType),
		Quantity:      m.Quantity,
		BalanceBefore: m.BalanceBefore,
		BalanceAfter:  m.BalanceAfter,
		SourceType:    string(m.SourceType),
		SourceID:      m.SourceID,
		LotID:         m.LotID,
		ReservationID: m.ReservationID,
		Reason:        m.Reason,
		MovementDate:  m.MovementDate,
	}
}

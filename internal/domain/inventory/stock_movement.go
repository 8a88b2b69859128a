package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vaxtrack/backend/internal/domain/shared"
)

// MovementType represents the type of stock movement
type MovementType string

const (
	MovementTypeReceipt            MovementType = "RECEIPT"
	MovementTypeReserve            MovementType = "RESERVE"
	MovementTypeRelease            MovementType = "RELEASE"
	MovementTypeConsume            MovementType = "CONSUME"
	MovementTypeAdjustmentIncrease MovementType = "ADJUSTMENT_INCREASE"
	MovementTypeAdjustmentDecrease MovementType = "ADJUSTMENT_DECREASE"
	MovementTypeCorrection         MovementType = "CORRECTION"
)

// IsValid checks if the movement type is valid
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeReceipt, MovementTypeReserve, MovementTypeRelease,
		MovementTypeConsume, MovementTypeAdjustmentIncrease,
		MovementTypeAdjustmentDecrease, MovementTypeCorrection:
		return true
	}
	return false
}

// MovesOnHand reports whether this movement changes physical stock
// (reserve/release only move the reserved counter)
func (t MovementType) MovesOnHand() bool {
	switch t {
	case MovementTypeReserve, MovementTypeRelease, MovementTypeCorrection:
		return false
	}
	return true
}

// MovementSource identifies what caused a stock movement
type MovementSource string

const (
	MovementSourceQuote            MovementSource = "QUOTE"
	MovementSourceDelivery         MovementSource = "DELIVERY"
	MovementSourceInboundShipment  MovementSource = "INBOUND_SHIPMENT"
	MovementSourceReconciliation   MovementSource = "RECONCILIATION"
	MovementSourceManualAdjustment MovementSource = "MANUAL_ADJUSTMENT"
)

// IsValid checks if the movement source is valid
func (s MovementSource) IsValid() bool {
	switch s {
	case MovementSourceQuote, MovementSourceDelivery, MovementSourceInboundShipment,
		MovementSourceReconciliation, MovementSourceManualAdjustment:
		return true
	}
	return false
}

// StockMovement is one immutable ledger line. Movements are appended,
// never updated or deleted; the counters on ProductStock are a cache
// over this history.
type StockMovement struct {
	shared.BaseEntity
	ProductStockID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	MovementType   MovementType    `gorm:"type:varchar(30);not null;index"`
	Quantity       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	BalanceBefore  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	BalanceAfter   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	SourceType     MovementSource  `gorm:"type:varchar(30);not null;index"`
	SourceID       *uuid.UUID      `gorm:"type:uuid;index"`
	LotID          *uuid.UUID      `gorm:"type:uuid;index"`
	ReservationID  *uuid.UUID      `gorm:"type:uuid;index"`
	Reason         string          `gorm:"type:varchar(500)"`
	MovementDate   time.Time       `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (StockMovement) TableName() string {
	return "stock_movements"
}

// NewStockMovement creates a ledger line
func NewStockMovement(productStockID, productID uuid.UUID, movementType MovementType, source MovementSource, quantity, balanceBefore, balanceAfter decimal.Decimal) (*StockMovement, error) {
	if !movementType.IsValid() {
		return nil, shared.NewDomainError("INVALID_MOVEMENT_TYPE", "Invalid movement type")
	}
	if !source.IsValid() {
		return nil, shared.NewDomainError("INVALID_MOVEMENT_SOURCE", "Invalid movement source")
	}
	if quantity.IsZero() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Movement quantity cannot be zero")
	}

	return &StockMovement{
		BaseEntity:     shared.NewBaseEntity(),
		ProductStockID: productStockID,
		ProductID:      productID,
		MovementType:   movementType,
		Quantity:       quantity,
		BalanceBefore:  balanceBefore,
		BalanceAfter:   balanceAfter,
		SourceType:     source,
		MovementDate:   time.Now(),
	}, nil
}

// WithSource links the movement to the document that caused it
func (m *StockMovement) WithSource(sourceID uuid.UUID) *StockMovement {
	m.SourceID = &sourceID
	return m
}

// WithLot links the movement to a lot
func (m *StockMovement) WithLot(lotID uuid.UUID) *StockMovement {
	m.LotID = &lotID
	return m
}

// WithReservation links the movement to a reservation
func (m *StockMovement) WithReservation(reservationID uuid.UUID) *StockMovement {
	m.ReservationID = &reservationID
	return m
}

// WithReason attaches free-form context to the movement
func (m *StockMovement) WithReason(reason string) *StockMovement {
	m.Reason = reason
	return m
}

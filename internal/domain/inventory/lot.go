package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vaxtrack/backend/internal/domain/shared"
)

// Lot represents a physical batch of a vaccine product with its own
// expiry, quantities and dose-per-container conversion factor.
type Lot struct {
	shared.BaseEntity
	ProductStockID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	LotCode           string          `gorm:"type:varchar(100);not null;index"`
	Expiry            *time.Time      // Expiry date (optional for non-perishable presentations)
	QuantityOnHand    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // Doses physically present
	QuantityReserved  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // Doses claimed by active reservations
	DosesPerContainer decimal.Decimal `gorm:"type:decimal(18,4);not null;default:1"` // Vial/box conversion factor
	Location          string          `gorm:"type:varchar(100)"`
	Retired           bool            `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (Lot) TableName() string {
	return "lots"
}

// LotInfo carries the attributes needed to open a new lot on stock receipt.
type LotInfo struct {
	LotCode           string
	Expiry            *time.Time
	DosesPerContainer decimal.Decimal
	Location          string
}

// NewLot creates a new lot for a product stock record
func NewLot(productStockID uuid.UUID, info LotInfo, quantity decimal.Decimal) (*Lot, error) {
	if info.LotCode == "" {
		return nil, shared.NewDomainError("INVALID_LOT_CODE", "Lot code cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Lot quantity must be positive")
	}
	dosesPerContainer := info.DosesPerContainer
	if dosesPerContainer.LessThanOrEqual(decimal.Zero) {
		dosesPerContainer = decimal.NewFromInt(1)
	}

	return &Lot{
		BaseEntity:        shared.NewBaseEntity(),
		ProductStockID:    productStockID,
		LotCode:           info.LotCode,
		Expiry:            info.Expiry,
		QuantityOnHand:    quantity,
		QuantityReserved:  decimal.Zero,
		DosesPerContainer: dosesPerContainer,
		Location:          info.Location,
	}, nil
}

// Available returns the quantity that can still be reserved.
// Never negative: reserved <= on-hand is enforced by every mutation.
func (l *Lot) Available() decimal.Decimal {
	return l.QuantityOnHand.Sub(l.QuantityReserved)
}

// IsExpired returns true if the lot has passed its expiry date
func (l *Lot) IsExpired() bool {
	if l.Expiry == nil {
		return false
	}
	return l.Expiry.Before(time.Now())
}

// WillExpireWithin returns true if the lot expires within the given duration
func (l *Lot) WillExpireWithin(d time.Duration) bool {
	if l.Expiry == nil {
		return false
	}
	return l.Expiry.Before(time.Now().Add(d))
}

// IsAllocatable returns true if the lot can participate in allocation
func (l *Lot) IsAllocatable() bool {
	return !l.Retired && !l.IsExpired() && l.Available().GreaterThan(decimal.Zero)
}

// Reserve claims quantity from this lot for a reservation
func (l *Lot) Reserve(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Reserve quantity must be positive")
	}
	if l.Available().LessThan(quantity) {
		return shared.ErrInsufficientStock
	}

	l.QuantityReserved = l.QuantityReserved.Add(quantity)
	l.UpdatedAt = time.Now()
	return nil
}

// ReleaseReserved returns a previously reserved quantity to the available pool
func (l *Lot) ReleaseReserved(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Release quantity must be positive")
	}
	if l.QuantityReserved.LessThan(quantity) {
		return shared.ErrWouldViolateInvariant
	}

	l.QuantityReserved = l.QuantityReserved.Sub(quantity)
	l.UpdatedAt = time.Now()
	return nil
}

// Consume removes a reserved quantity from physical stock: both on-hand
// and reserved drop together (delivery confirmed).
func (l *Lot) Consume(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Consume quantity must be positive")
	}
	if l.QuantityReserved.LessThan(quantity) || l.QuantityOnHand.LessThan(quantity) {
		return shared.ErrWouldViolateInvariant
	}

	l.QuantityOnHand = l.QuantityOnHand.Sub(quantity)
	l.QuantityReserved = l.QuantityReserved.Sub(quantity)
	l.UpdatedAt = time.Now()
	return nil
}

// AdjustOnHand applies a signed correction to the physical quantity.
// Rejected when the result would leave reserved > on-hand or on-hand < 0.
func (l *Lot) AdjustOnHand(delta decimal.Decimal) error {
	newOnHand := l.QuantityOnHand.Add(delta)
	if newOnHand.IsNegative() || newOnHand.LessThan(l.QuantityReserved) {
		return shared.ErrWouldViolateInvariant
	}

	l.QuantityOnHand = newOnHand
	l.UpdatedAt = time.Now()
	return nil
}

// SetReserved overwrites the reserved counter from the reservation source
// of truth. Only the reconciliation path uses this.
func (l *Lot) SetReserved(actual decimal.Decimal) error {
	if actual.IsNegative() || actual.GreaterThan(l.QuantityOnHand) {
		return shared.ErrWouldViolateInvariant
	}

	l.QuantityReserved = actual
	l.UpdatedAt = time.Now()
	return nil
}

// Retire marks the lot as retired (expired stock written off).
// Retired lots keep their history and are excluded from allocation.
func (l *Lot) Retire() error {
	if l.QuantityReserved.GreaterThan(decimal.Zero) {
		return shared.NewDomainError("HAS_ACTIVE_RESERVATIONS", "Cannot retire a lot with reserved stock")
	}

	l.Retired = true
	l.QuantityOnHand = decimal.Zero
	l.UpdatedAt = time.Now()
	return nil
}

// Containers converts the on-hand dose count to whole containers
func (l *Lot) Containers() decimal.Decimal {
	if l.DosesPerContainer.LessThanOrEqual(decimal.Zero) {
		return l.QuantityOnHand
	}
	return l.QuantityOnHand.Div(l.DosesPerContainer)
}

// DosesForContainers converts a container count to doses using this lot's factor
func (l *Lot) DosesForContainers(containers decimal.Decimal) decimal.Decimal {
	return containers.Mul(l.DosesPerContainer)
}

// DaysUntilExpiry returns the number of days until expiry, -1 if no expiry date
func (l *Lot) DaysUntilExpiry() int {
	if l.Expiry == nil {
		return -1
	}
	return int(time.Until(*l.Expiry).Hours() / 24)
}

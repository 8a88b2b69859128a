package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vaxtrack/backend/internal/domain/inventory"
	"github.com/vaxtrack/backend/internal/domain/shared"
)

// InventoryService handles stock receipt, corrections and availability queries
type InventoryService struct {
	scope          TransactionScope
	eventPublisher shared.EventPublisher
}

// NewInventoryService creates a new InventoryService
func NewInventoryService(scope TransactionScope) *InventoryService {
	return &InventoryService{scope: scope}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *InventoryService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// ReceiveStock records an inbound receipt. A lot code on the request makes
// the receipt lot-tracked and opens a new lot.
func (s *InventoryService) ReceiveStock(ctx context.Context, req ReceiveStockRequest) (*AvailabilityResponse, error) {
	var events []shared.DomainEvent
	var resp AvailabilityResponse

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		lotTracked := req.LotCode != ""
		stock, err := repos.StockRepo().GetOrCreate(ctx, req.ProductID, lotTracked)
		if err != nil {
			return err
		}

		balanceBefore := stock.StockOnHand
		var lotInfo *inventory.LotInfo
		if stock.LotTracked {
			if req.LotCode == "" {
				return shared.NewDomainError("MISSING_LOT_INFO", "Lot-tracked products require a lot code on receipt")
			}
			lotInfo = &inventory.LotInfo{
				LotCode:           req.LotCode,
				Expiry:            req.Expiry,
				DosesPerContainer: req.DosesPerContainer,
				Location:          req.Location,
			}
		}

		lot, err := stock.ReceiveStock(req.Quantity, lotInfo)
		if err != nil {
			return err
		}

		if err := repos.StockRepo().SaveWithLock(ctx, stock); err != nil {
			return err
		}

		source := inventory.MovementSourceInboundShipment
		movement, err := inventory.NewStockMovement(stock.ID, stock.ProductID,
			inventory.MovementTypeReceipt, source,
			req.Quantity, balanceBefore, stock.StockOnHand)
		if err != nil {
			return err
		}
		if req.ShipmentID != nil {
			movement.WithSource(*req.ShipmentID)
		}
		if lot != nil {
			movement.WithLot(lot.ID)
		}
		if err := repos.MovementRepo().Create(ctx, movement); err != nil {
			return err
		}

		events = stock.GetDomainEvents()
		stock.ClearDomainEvents()
		resp = ToAvailabilityResponse(stock)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events)
	return &resp, nil
}

// AdjustOnHand applies a manual correction to a product or a specific lot
func (s *InventoryService) AdjustOnHand(ctx context.Context, req AdjustStockRequest) (*AvailabilityResponse, error) {
	if req.Delta.IsZero() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Adjustment delta cannot be zero")
	}

	var events []shared.DomainEvent
	var resp AvailabilityResponse

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		stock, err := repos.StockRepo().FindByProductIDForUpdate(ctx, req.ProductID)
		if err != nil {
			return err
		}

		balanceBefore := stock.StockOnHand
		if req.LotID != nil {
			err = stock.AdjustLotOnHand(*req.LotID, req.Delta)
		} else {
			err = stock.AdjustOnHand(req.Delta)
		}
		if err != nil {
			return err
		}

		if err := repos.StockRepo().SaveWithLock(ctx, stock); err != nil {
			return err
		}

		movementType := inventory.MovementTypeAdjustmentIncrease
		if req.Delta.IsNegative() {
			movementType = inventory.MovementTypeAdjustmentDecrease
		}
		movement, err := inventory.NewStockMovement(stock.ID, stock.ProductID,
			movementType, inventory.MovementSourceManualAdjustment,
			req.Delta.Abs(), balanceBefore, stock.StockOnHand)
		if err != nil {
			return err
		}
		movement.WithReason(req.Reason)
		if req.LotID != nil {
			movement.WithLot(*req.LotID)
		}
		if err := repos.MovementRepo().Create(ctx, movement); err != nil {
			return err
		}

		events = stock.GetDomainEvents()
		stock.ClearDomainEvents()
		resp = ToAvailabilityResponse(stock)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events)
	return &resp, nil
}

// GetAvailability returns the stock position of a product
func (s *InventoryService) GetAvailability(ctx context.Context, productID uuid.UUID) (*AvailabilityResponse, error) {
	var resp AvailabilityResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		stock, err := repos.StockRepo().FindByProductID(ctx, productID)
		if err != nil {
			return err
		}
		resp = ToAvailabilityResponse(stock)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListMovements returns the ledger for a product, newest first
func (s *InventoryService) ListMovements(ctx context.Context, productID uuid.UUID, filter MovementListFilter) (shared.Paginated[StockMovementResponse], error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	domainFilter.OrderBy = "movement_date"
	if filter.MovementType != "" {
		domainFilter.Filters["movement_type"] = filter.MovementType
	}
	if filter.SourceType != "" {
		domainFilter.Filters["source_type"] = filter.SourceType
	}

	var result shared.Paginated[StockMovementResponse]
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		page, err := repos.MovementRepo().FindByProduct(ctx, productID, domainFilter)
		if err != nil {
			return err
		}
		items := make([]StockMovementResponse, 0, len(page.Items))
		for _, m := range page.Items {
			items = append(items, ToStockMovementResponse(m))
		}
		result = shared.NewPaginated(items, page.Total, page.Page, page.PageSize)
		return nil
	})
	return result, err
}

// ExpiringLots returns the lots of a product expiring within the window
func (s *InventoryService) ExpiringLots(ctx context.Context, productID uuid.UUID, withinDays int) ([]LotResponse, error) {
	if withinDays <= 0 {
		withinDays = 30
	}

	var out []LotResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		stock, err := repos.StockRepo().FindByProductID(ctx, productID)
		if err != nil {
			return err
		}
		window := time.Duration(withinDays) * 24 * time.Hour
		for i := range stock.Lots {
			lot := &stock.Lots[i]
			if lot.Retired || lot.QuantityOnHand.IsZero() {
				continue
			}
			if lot.WillExpireWithin(window) {
				out = append(out, toLotResponse(lot))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RetireExpiredLots writes off lots past expiry for a product and records
// the write-off in the ledger. Returns the written-off quantity.
func (s *InventoryService) RetireExpiredLots(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	written := decimal.Zero
	var events []shared.DomainEvent

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		stock, err := repos.StockRepo().FindByProductIDForUpdate(ctx, productID)
		if err != nil {
			return err
		}

		for i := range stock.Lots {
			lot := &stock.Lots[i]
			if lot.Retired || !lot.IsExpired() || lot.QuantityReserved.GreaterThan(decimal.Zero) {
				continue
			}
			if lot.QuantityOnHand.IsZero() {
				continue
			}

			balanceBefore := stock.StockOnHand
			qty, err := stock.RetireLot(lot.ID)
			if err != nil {
				return err
			}

			movement, err := inventory.NewStockMovement(stock.ID, stock.ProductID,
				inventory.MovementTypeAdjustmentDecrease, inventory.MovementSourceManualAdjustment,
				qty, balanceBefore, stock.StockOnHand)
			if err != nil {
				return err
			}
			movement.WithLot(lot.ID).WithReason("expired lot write-off")
			if err := repos.MovementRepo().Create(ctx, movement); err != nil {
				return err
			}
			written = written.Add(qty)
		}

		if written.IsZero() {
			return nil
		}
		if err := repos.StockRepo().SaveWithLock(ctx, stock); err != nil {
			return err
		}
		events = stock.GetDomainEvents()
		stock.ClearDomainEvents()
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}

	s.publish(ctx, events)
	return written, nil
}

func (s *InventoryService) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
}

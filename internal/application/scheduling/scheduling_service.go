package scheduling

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vaxtrack/backend/internal/domain/inventory"
	"github.com/vaxtrack/backend/internal/domain/schedule"
	"github.com/vaxtrack/backend/internal/domain/shared"
)

// Options configures scheduling behavior
type Options struct {
	// SplitRemainderOnPartial re-schedules the undelivered remainder of a
	// partially delivered entry as a new split entry one week later
	SplitRemainderOnPartial bool
	// IdempotencyTTL bounds how long a reservation request key is remembered
	IdempotencyTTL time.Duration
}

// Service orchestrates quote reservation, release, delivery confirmation
// and calendar maintenance
type Service struct {
	scope          TransactionScope
	expander       *schedule.Expander
	allocator      *inventory.StockAllocationService
	idempotency    IdempotencyStore
	options        Options
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	now            func() time.Time
}

// NewService creates a scheduling service
func NewService(scope TransactionScope, options Options, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if options.IdempotencyTTL <= 0 {
		options.IdempotencyTTL = 24 * time.Hour
	}
	return &Service{
		scope:     scope,
		expander:  schedule.NewExpander(),
		allocator: inventory.NewStockAllocationService(),
		options:   options,
		logger:    log,
		now:       time.Now,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetIdempotencyStore enables idempotency-key deduplication for ReserveForQuote
func (s *Service) SetIdempotencyStore(store IdempotencyStore) {
	s.idempotency = store
}

// SetClock overrides the time source
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// ReserveForQuote expands the quote's line items into calendar entries and
// reserves stock for every entry inside one transaction. All-or-nothing
// across the whole quote: any shortfall rolls everything back. A repeated
// call with the same idempotency key replays the stored outcome instead
// of reserving again.
func (s *Service) ReserveForQuote(ctx context.Context, req ReserveForQuoteRequest) (*ReserveForQuoteResult, error) {
	snapshot := req.ToSnapshot()
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}

	policy, err := s.policyFor(req.Policy)
	if err != nil {
		return nil, err
	}

	claimed := false
	if s.idempotency != nil && req.IdempotencyKey != "" {
		ok, stored, err := s.idempotency.Claim(ctx, req.IdempotencyKey, snapshot.ID.String(), s.options.IdempotencyTTL)
		if err != nil {
			return nil, err
		}
		if !ok {
			// Replay only when the key was claimed for this same quote.
			// A key reused across quotes must not leak another quote's
			// reservation back to the caller.
			if stored != snapshot.ID.String() {
				return nil, shared.NewDomainError("IDEMPOTENCY_KEY_REUSED", "Idempotency key was already used for a different quote")
			}
			return s.replayReservation(ctx, snapshot.ID)
		}
		claimed = true
	}

	entries, err := s.expander.Expand(s.now(), snapshot.ID, snapshot.LineItems)
	if err != nil {
		s.releaseClaim(ctx, claimed, req.IdempotencyKey)
		return nil, err
	}

	var reservations []*inventory.Reservation
	var events []shared.DomainEvent

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		byProduct := groupEntriesByProduct(entries)

		// Products locked in ascending id order to avoid deadlocks with
		// concurrent reservations over an overlapping product set
		for _, productID := range sortedProductIDs(byProduct) {
			stock, err := repos.StockRepo().FindByProductIDForUpdate(ctx, productID)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					return shared.ErrInsufficientStock
				}
				return err
			}

			var movements []*inventory.StockMovement
			for _, entry := range byProduct[productID] {
				entryID := entry.ID
				reservedBefore := stock.StockReserved
				allocated, err := s.allocator.Allocate(stock, snapshot.ID, &entryID, entry.Quantity, policy)
				if err != nil {
					return err
				}
				for _, res := range allocated {
					movement, err := s.reserveMovement(stock, res, reservedBefore, inventory.MovementTypeReserve)
					if err != nil {
						return err
					}
					movements = append(movements, movement)
					reservedBefore = reservedBefore.Add(res.Quantity)
				}
				reservations = append(reservations, allocated...)
			}

			if err := repos.StockRepo().SaveWithLock(ctx, stock); err != nil {
				return err
			}
			if err := repos.MovementRepo().CreateBatch(ctx, movements); err != nil {
				return err
			}
			events = append(events, stock.GetDomainEvents()...)
			stock.ClearDomainEvents()
		}

		if err := repos.CalendarRepo().SaveAll(ctx, entries); err != nil {
			return err
		}
		return repos.ReservationRepo().SaveAll(ctx, reservations)
	})
	if err != nil {
		s.releaseClaim(ctx, claimed, req.IdempotencyKey)
		return nil, err
	}

	s.publish(ctx, events)
	s.logger.Info("quote reserved",
		zap.String("quote_id", snapshot.ID.String()),
		zap.Int("entries", len(entries)),
		zap.Int("reservations", len(reservations)))

	result := &ReserveForQuoteResult{}
	for _, e := range entries {
		result.Calendar = append(result.Calendar, ToCalendarEntryResponse(e))
	}
	for _, r := range reservations {
		result.Reservations = append(result.Reservations, ToReservationResponse(r))
	}
	return result, nil
}

// GetQuoteSchedule returns the calendar and reservations of a quote
func (s *Service) GetQuoteSchedule(ctx context.Context, quoteID uuid.UUID) (*ReserveForQuoteResult, error) {
	if quoteID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_QUOTE_ID", "Quote ID cannot be empty")
	}

	result := &ReserveForQuoteResult{}
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		entries, err := repos.CalendarRepo().FindByQuote(ctx, quoteID)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return shared.ErrNotFound
		}
		reservations, err := repos.ReservationRepo().FindByQuote(ctx, quoteID)
		if err != nil {
			return err
		}
		for _, e := range entries {
			result.Calendar = append(result.Calendar, ToCalendarEntryResponse(e))
		}
		for _, r := range reservations {
			result.Reservations = append(result.Reservations, ToReservationResponse(r))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ReleaseForQuote releases every active reservation of a quote. Calendar
// entries are preserved for audit. Idempotent: a quote with nothing
// active yields an empty result, not an error.
func (s *Service) ReleaseForQuote(ctx context.Context, quoteID uuid.UUID) (*ReleaseForQuoteResult, error) {
	if quoteID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_QUOTE_ID", "Quote ID cannot be empty")
	}

	result := &ReleaseForQuoteResult{Released: make([]ReservationResponse, 0)}
	var events []shared.DomainEvent

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		active, err := repos.ReservationRepo().FindActiveByQuote(ctx, quoteID)
		if err != nil {
			return err
		}
		if len(active) == 0 {
			return nil
		}

		byProduct := groupReservationsByProduct(active)
		for _, productID := range sortedReservationProductIDs(byProduct) {
			stock, err := repos.StockRepo().FindByProductIDForUpdate(ctx, productID)
			if err != nil {
				return err
			}

			var movements []*inventory.StockMovement
			for _, res := range byProduct[productID] {
				reservedBefore := stock.StockReserved
				changed, err := stock.ReleaseReservation(res)
				if err != nil {
					return err
				}
				if !changed {
					continue
				}
				movement, err := s.reserveMovement(stock, res, reservedBefore, inventory.MovementTypeRelease)
				if err != nil {
					return err
				}
				movements = append(movements, movement)
				if err := repos.ReservationRepo().Save(ctx, res); err != nil {
					return err
				}
				result.Released = append(result.Released, ToReservationResponse(res))
			}

			if err := repos.StockRepo().SaveWithLock(ctx, stock); err != nil {
				return err
			}
			if err := repos.MovementRepo().CreateBatch(ctx, movements); err != nil {
				return err
			}
			events = append(events, stock.GetDomainEvents()...)
			stock.ClearDomainEvents()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events)
	return result, nil
}

// ConfirmDelivery records delivered quantity against a calendar entry and
// consumes the matching reservations, soonest-expiring lot first. A
// partial delivery marks the entry partially_delivered and consumes only
// the delivered portion, splitting a reservation when needed.
func (s *Service) ConfirmDelivery(ctx context.Context, entryID uuid.UUID, req ConfirmDeliveryRequest) (*ConfirmDeliveryResult, error) {
	if req.DeliveredQuantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Delivered quantity must be positive")
	}

	var result ConfirmDeliveryResult
	var events []shared.DomainEvent

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		entry, err := repos.CalendarRepo().FindByID(ctx, entryID)
		if err != nil {
			return err
		}
		if entry.Remaining().LessThan(req.DeliveredQuantity) {
			return shared.NewDomainError("QUANTITY_EXCEEDS_ENTRY", "Delivered quantity exceeds the entry's remaining quantity")
		}

		stock, err := repos.StockRepo().FindByProductIDForUpdate(ctx, entry.ProductID)
		if err != nil {
			return err
		}

		linked, err := repos.ReservationRepo().FindByCalendarEntry(ctx, entryID)
		if err != nil {
			return err
		}
		active := activeSortedByExpiry(linked, stock)

		coverage := decimal.Zero
		for _, res := range active {
			coverage = coverage.Add(res.Quantity)
		}
		if coverage.LessThan(req.DeliveredQuantity) {
			return shared.NewDomainError("UNRESERVED_QUANTITY", "Entry does not have enough reserved stock for this delivery")
		}

		var movements []*inventory.StockMovement
		remaining := req.DeliveredQuantity
		for _, res := range active {
			if remaining.IsZero() {
				break
			}

			onHandBefore := stock.StockOnHand
			consumed := res
			if res.Quantity.GreaterThan(remaining) {
				consumed, err = stock.ConsumePartial(res, remaining)
				if err != nil {
					return err
				}
				// The untouched remainder stays active under the original row
				if err := repos.ReservationRepo().Save(ctx, res); err != nil {
					return err
				}
			} else if err := stock.ConsumeReservation(res); err != nil {
				return err
			}

			movement, err := inventory.NewStockMovement(stock.ID, stock.ProductID,
				inventory.MovementTypeConsume, inventory.MovementSourceDelivery,
				consumed.Quantity, onHandBefore, stock.StockOnHand)
			if err != nil {
				return err
			}
			movement.WithReservation(consumed.ID)
			if consumed.LotID != nil {
				movement.WithLot(*consumed.LotID)
			}
			if req.DeliveryID != nil {
				movement.WithSource(*req.DeliveryID)
			}
			movements = append(movements, movement)

			if err := repos.ReservationRepo().Save(ctx, consumed); err != nil {
				return err
			}
			result.Used = append(result.Used, ToReservationResponse(consumed))
			remaining = remaining.Sub(consumed.Quantity)
		}

		// Optionally push the undelivered remainder out as a split entry
		// before recording delivery, so the source entry closes fully
		shortfall := entry.Remaining().Sub(req.DeliveredQuantity)
		if shortfall.GreaterThan(decimal.Zero) && s.options.SplitRemainderOnPartial {
			seq, err := repos.CalendarRepo().MaxSplitSequence(ctx, entry.LineageRoot())
			if err != nil {
				return err
			}
			sibling, err := entry.Split(shortfall, entry.ScheduledDate.AddDate(0, 0, 7), seq+1)
			if err != nil {
				return err
			}
			if err := s.reassignReservations(ctx, repos, entry, sibling, shortfall); err != nil {
				return err
			}
			if err := repos.CalendarRepo().Save(ctx, sibling); err != nil {
				return err
			}
			resp := ToCalendarEntryResponse(sibling)
			result.RemainderEntry = &resp
		}

		if err := entry.RecordDelivery(req.DeliveredQuantity); err != nil {
			return err
		}

		if err := repos.CalendarRepo().SaveWithLock(ctx, entry); err != nil {
			return err
		}
		if err := repos.StockRepo().SaveWithLock(ctx, stock); err != nil {
			return err
		}
		if err := repos.MovementRepo().CreateBatch(ctx, movements); err != nil {
			return err
		}

		events = append(events, stock.GetDomainEvents()...)
		events = append(events, entry.GetDomainEvents()...)
		stock.ClearDomainEvents()
		entry.ClearDomainEvents()
		result.Entry = ToCalendarEntryResponse(entry)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events)
	return &result, nil
}

// SplitCalendarEntry carves quantity off an entry into a new entry on a
// new date. Reservations covering the carved quantity follow the new
// entry; total committed quantity is conserved.
func (s *Service) SplitCalendarEntry(ctx context.Context, entryID uuid.UUID, req SplitEntryRequest) (*SplitEntryResult, error) {
	var result SplitEntryResult
	var events []shared.DomainEvent

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		entry, err := repos.CalendarRepo().FindByID(ctx, entryID)
		if err != nil {
			return err
		}

		seq, err := repos.CalendarRepo().MaxSplitSequence(ctx, entry.LineageRoot())
		if err != nil {
			return err
		}

		sibling, err := entry.Split(req.Quantity, req.NewScheduledDate, seq+1)
		if err != nil {
			return err
		}

		if err := s.reassignReservations(ctx, repos, entry, sibling, req.Quantity); err != nil {
			return err
		}

		if err := repos.CalendarRepo().SaveWithLock(ctx, entry); err != nil {
			return err
		}
		if err := repos.CalendarRepo().Save(ctx, sibling); err != nil {
			return err
		}

		events = append(events, entry.GetDomainEvents()...)
		entry.ClearDomainEvents()
		result.Original = ToCalendarEntryResponse(entry)
		result.NewEntry = ToCalendarEntryResponse(sibling)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events)
	return &result, nil
}

// ApplyQuoteState drives the quote-state to reservation mapping:
// committing reserves, closed consumes (all entries must be delivered),
// cancelled releases. Other states change nothing.
func (s *Service) ApplyQuoteState(ctx context.Context, req ApplyQuoteStateRequest) (*ApplyQuoteStateResult, error) {
	state := schedule.QuoteState(req.State)
	if !state.IsValid() {
		return nil, shared.NewDomainError("INVALID_QUOTE_STATE", "Unknown quote state")
	}

	effect := schedule.ReservationEffectFor(state)
	result := &ApplyQuoteStateResult{Effect: string(effect)}

	switch effect {
	case schedule.EffectReserve:
		reserved, err := s.ReserveForQuote(ctx, ReserveForQuoteRequest{
			QuoteID:   req.QuoteID,
			ClientRef: req.ClientRef,
			LineItems: req.LineItems,
		})
		if err != nil {
			return nil, err
		}
		result.Calendar = reserved.Calendar
		result.Reservations = reserved.Reservations

	case schedule.EffectRelease:
		released, err := s.ReleaseForQuote(ctx, req.QuoteID)
		if err != nil {
			return nil, err
		}
		result.Reservations = released.Released

	case schedule.EffectConsume:
		consumed, err := s.consumeForQuote(ctx, req.QuoteID)
		if err != nil {
			return nil, err
		}
		result.Reservations = consumed
	}

	return result, nil
}

// consumeForQuote marks every remaining active reservation of a closed
// quote as used. Valid only once all calendar entries are delivered.
func (s *Service) consumeForQuote(ctx context.Context, quoteID uuid.UUID) ([]ReservationResponse, error) {
	var out []ReservationResponse
	var events []shared.DomainEvent

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		entries, err := repos.CalendarRepo().FindByQuote(ctx, quoteID)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if !entry.IsDelivered() {
				return shared.ErrInvalidTransition
			}
		}

		active, err := repos.ReservationRepo().FindActiveByQuote(ctx, quoteID)
		if err != nil {
			return err
		}
		if len(active) == 0 {
			return nil
		}

		byProduct := groupReservationsByProduct(active)
		for _, productID := range sortedReservationProductIDs(byProduct) {
			stock, err := repos.StockRepo().FindByProductIDForUpdate(ctx, productID)
			if err != nil {
				return err
			}

			var movements []*inventory.StockMovement
			for _, res := range byProduct[productID] {
				onHandBefore := stock.StockOnHand
				if err := stock.ConsumeReservation(res); err != nil {
					return err
				}
				movement, err := inventory.NewStockMovement(stock.ID, stock.ProductID,
					inventory.MovementTypeConsume, inventory.MovementSourceQuote,
					res.Quantity, onHandBefore, stock.StockOnHand)
				if err != nil {
					return err
				}
				movement.WithSource(quoteID).WithReservation(res.ID)
				if res.LotID != nil {
					movement.WithLot(*res.LotID)
				}
				movements = append(movements, movement)
				if err := repos.ReservationRepo().Save(ctx, res); err != nil {
					return err
				}
				out = append(out, ToReservationResponse(res))
			}

			if err := repos.StockRepo().SaveWithLock(ctx, stock); err != nil {
				return err
			}
			if err := repos.MovementRepo().CreateBatch(ctx, movements); err != nil {
				return err
			}
			events = append(events, stock.GetDomainEvents()...)
			stock.ClearDomainEvents()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events)
	return out, nil
}

// reassignReservations moves active reservations covering quantity from
// the source entry to the sibling, splitting one reservation if the
// quantity falls inside it
func (s *Service) reassignReservations(ctx context.Context, repos TransactionalRepositories, source, sibling *schedule.CalendarEntry, quantity decimal.Decimal) error {
	linked, err := repos.ReservationRepo().FindByCalendarEntry(ctx, source.ID)
	if err != nil {
		return err
	}

	remaining := quantity
	for _, res := range linked {
		if remaining.IsZero() {
			break
		}
		if !res.IsActive() {
			continue
		}

		if res.Quantity.LessThanOrEqual(remaining) {
			res.CalendarEntryID = &sibling.ID
			remaining = remaining.Sub(res.Quantity)
			if err := repos.ReservationRepo().Save(ctx, res); err != nil {
				return err
			}
			continue
		}

		carved, err := res.Split(remaining)
		if err != nil {
			return err
		}
		carved.CalendarEntryID = &sibling.ID
		remaining = decimal.Zero
		if err := repos.ReservationRepo().Save(ctx, res); err != nil {
			return err
		}
		if err := repos.ReservationRepo().Save(ctx, carved); err != nil {
			return err
		}
	}
	return nil
}

// replayReservation returns the stored outcome of a previously processed
// reservation request
func (s *Service) replayReservation(ctx context.Context, quoteID uuid.UUID) (*ReserveForQuoteResult, error) {
	result := &ReserveForQuoteResult{Replayed: true}
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		entries, err := repos.CalendarRepo().FindByQuote(ctx, quoteID)
		if err != nil {
			return err
		}
		reservations, err := repos.ReservationRepo().FindByQuote(ctx, quoteID)
		if err != nil {
			return err
		}
		for _, e := range entries {
			result.Calendar = append(result.Calendar, ToCalendarEntryResponse(e))
		}
		for _, r := range reservations {
			result.Reservations = append(result.Reservations, ToReservationResponse(r))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("reservation request replayed from idempotency key",
		zap.String("quote_id", quoteID.String()))
	return result, nil
}

func (s *Service) reserveMovement(stock *inventory.ProductStock, res *inventory.Reservation, reservedBefore decimal.Decimal, movementType inventory.MovementType) (*inventory.StockMovement, error) {
	var after decimal.Decimal
	if movementType == inventory.MovementTypeReserve {
		after = reservedBefore.Add(res.Quantity)
	} else {
		after = reservedBefore.Sub(res.Quantity)
	}

	movement, err := inventory.NewStockMovement(stock.ID, stock.ProductID,
		movementType, inventory.MovementSourceQuote,
		res.Quantity, reservedBefore, after)
	if err != nil {
		return nil, err
	}
	movement.WithSource(res.QuoteID).WithReservation(res.ID)
	if res.LotID != nil {
		movement.WithLot(*res.LotID)
	}
	return movement, nil
}

func (s *Service) releaseClaim(ctx context.Context, claimed bool, key string) {
	if !claimed || s.idempotency == nil {
		return
	}
	if err := s.idempotency.Release(ctx, key); err != nil {
		s.logger.Warn("failed to release idempotency key", zap.String("key", key), zap.Error(err))
	}
}

func (s *Service) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
}

func (s *Service) policyFor(name string) (inventory.LotSelectionPolicy, error) {
	if name == "" {
		return inventory.DefaultLotSelectionPolicy(), nil
	}
	return inventory.NewLotSelectionPolicy(inventory.LotSelectionPolicyType(name))
}

func groupEntriesByProduct(entries []*schedule.CalendarEntry) map[uuid.UUID][]*schedule.CalendarEntry {
	out := make(map[uuid.UUID][]*schedule.CalendarEntry)
	for _, e := range entries {
		out[e.ProductID] = append(out[e.ProductID], e)
	}
	return out
}

func sortedProductIDs(m map[uuid.UUID][]*schedule.CalendarEntry) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

func groupReservationsByProduct(reservations []*inventory.Reservation) map[uuid.UUID][]*inventory.Reservation {
	out := make(map[uuid.UUID][]*inventory.Reservation)
	for _, r := range reservations {
		out[r.ProductID] = append(out[r.ProductID], r)
	}
	return out
}

func sortedReservationProductIDs(m map[uuid.UUID][]*inventory.Reservation) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// activeSortedByExpiry orders active reservations soonest-expiring lot
// first so deliveries consume stock the same way it was allocated
func activeSortedByExpiry(reservations []*inventory.Reservation, stock *inventory.ProductStock) []*inventory.Reservation {
	active := make([]*inventory.Reservation, 0, len(reservations))
	for _, r := range reservations {
		if r.IsActive() {
			active = append(active, r)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		a, b := active[i], active[j]
		ae := lotExpiry(stock, a)
		be := lotExpiry(stock, b)
		switch {
		case ae == nil && be == nil:
			return a.CreatedAt.Before(b.CreatedAt)
		case ae == nil:
			return false
		case be == nil:
			return true
		case !ae.Equal(*be):
			return ae.Before(*be)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return active
}

func lotExpiry(stock *inventory.ProductStock, res *inventory.Reservation) *time.Time {
	if res.LotID == nil {
		return nil
	}
	lot := stock.FindLot(*res.LotID)
	if lot == nil {
		return nil
	}
	return lot.Expiry
}

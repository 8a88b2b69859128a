package schedule

import (
	"context"

	"github.com/google/uuid"

	"github.com/vaxtrack/backend/internal/domain/shared"
)

// CalendarEntryRepository persists calendar entries
type CalendarEntryRepository interface {
	// FindByID retrieves an entry
	FindByID(ctx context.Context, id uuid.UUID) (*CalendarEntry, error)
	// FindByQuote retrieves all entries for a quote ordered by sort key
	FindByQuote(ctx context.Context, quoteID uuid.UUID) ([]*CalendarEntry, error)
	// FindByLineage retrieves the original entry and all its splits
	FindByLineage(ctx context.Context, rootID uuid.UUID) ([]*CalendarEntry, error)
	// MaxSplitSequence returns the highest split sequence in a lineage
	MaxSplitSequence(ctx context.Context, rootID uuid.UUID) (int, error)
	// FindAll retrieves entries with filtering
	FindAll(ctx context.Context, filter shared.Filter) (shared.Paginated[*CalendarEntry], error)
	// Save persists an entry
	Save(ctx context.Context, entry *CalendarEntry) error
	// SaveAll persists a batch of entries
	SaveAll(ctx context.Context, entries []*CalendarEntry) error
	// SaveWithLock persists with optimistic lock checking
	SaveWithLock(ctx context.Context, entry *CalendarEntry) error
}

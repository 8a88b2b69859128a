package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vaxtrack/backend/internal/domain/schedule"
	"github.com/vaxtrack/backend/internal/domain/shared"
)

// GormCalendarEntryRepository implements schedule.CalendarEntryRepository using GORM
type GormCalendarEntryRepository struct {
	db *gorm.DB
}

// NewGormCalendarEntryRepository creates a new calendar entry repository
func NewGormCalendarEntryRepository(db *gorm.DB) *GormCalendarEntryRepository {
	return &GormCalendarEntryRepository{db: db}
}

// FindByID finds a calendar entry by ID
func (r *GormCalendarEntryRepository) FindByID(ctx context.Context, id uuid.UUID) (*schedule.CalendarEntry, error) {
	var entry schedule.CalendarEntry
	err := r.db.WithContext(ctx).First(&entry, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// FindByQuote lists all calendar entries for a quote in schedule order
func (r *GormCalendarEntryRepository) FindByQuote(ctx context.Context, quoteID uuid.UUID) ([]*schedule.CalendarEntry, error) {
	var entries []*schedule.CalendarEntry
	err := r.db.WithContext(ctx).
		Where("quote_id = ?", quoteID).
		Order("week_number ASC, split_sequence ASC").
		Find(&entries).Error
	return entries, err
}

// FindByLineage lists an entry and every sibling split off from it
func (r *GormCalendarEntryRepository) FindByLineage(ctx context.Context, rootID uuid.UUID) ([]*schedule.CalendarEntry, error) {
	var entries []*schedule.CalendarEntry
	err := r.db.WithContext(ctx).
		Where("id = ? OR split_from_id = ?", rootID, rootID).
		Order("split_sequence ASC").
		Find(&entries).Error
	return entries, err
}

// MaxSplitSequence returns the highest split sequence within a lineage
func (r *GormCalendarEntryRepository) MaxSplitSequence(ctx context.Context, rootID uuid.UUID) (int, error) {
	var result struct {
		Max int
	}
	err := r.db.WithContext(ctx).
		Model(&schedule.CalendarEntry{}).
		Select("COALESCE(MAX(split_sequence), 0) as max").
		Where("id = ? OR split_from_id = ?", rootID, rootID).
		Scan(&result).Error
	if err != nil {
		return 0, err
	}
	return result.Max, nil
}

// FindAll lists calendar entries with pagination
func (r *GormCalendarEntryRepository) FindAll(ctx context.Context, filter shared.Filter) (shared.Paginated[*schedule.CalendarEntry], error) {
	var total int64
	if err := applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&schedule.CalendarEntry{}), filter).Count(&total).Error; err != nil {
		return shared.Paginated[*schedule.CalendarEntry]{}, err
	}

	var entries []*schedule.CalendarEntry
	if err := applyFilter(r.db.WithContext(ctx).Model(&schedule.CalendarEntry{}), filter).Find(&entries).Error; err != nil {
		return shared.Paginated[*schedule.CalendarEntry]{}, err
	}

	return shared.NewPaginated(entries, total, filter.Page, filter.PageSize), nil
}

// Save creates or updates a calendar entry
func (r *GormCalendarEntryRepository) Save(ctx context.Context, entry *schedule.CalendarEntry) error {
	return r.db.WithContext(ctx).Save(entry).Error
}

// SaveAll persists a batch of calendar entries
func (r *GormCalendarEntryRepository) SaveAll(ctx context.Context, entries []*schedule.CalendarEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Save(entries).Error
}

// SaveWithLock saves with optimistic locking. The write only lands when
// the in-memory version is ahead of the stored row, mutators may bump
// the version several times within one transaction.
func (r *GormCalendarEntryRepository) SaveWithLock(ctx context.Context, entry *schedule.CalendarEntry) error {
	result := r.db.WithContext(ctx).
		Model(entry).
		Where("id = ? AND version < ?", entry.ID, entry.Version).
		Updates(map[string]interface{}{
			"scheduled_date":     entry.ScheduledDate,
			"quantity":           entry.Quantity,
			"delivered_quantity": entry.DeliveredQuantity,
			"delivery_state":     entry.DeliveryState,
			"split_sequence":     entry.SplitSequence,
			"version":            entry.Version,
			"updated_at":         entry.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_FAILED", "Calendar entry was modified by another transaction")
	}
	return nil
}

var _ schedule.CalendarEntryRepository = (*GormCalendarEntryRepository)(nil)

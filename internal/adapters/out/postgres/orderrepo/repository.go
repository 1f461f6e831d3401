package orderrepo

import (
	"context"
	"errors"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormOrderRepository implements OrderRepository using GORM.
type GormOrderRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// aggregateTracker defines the interface for tracking aggregates.
type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

// NewGormOrderRepository creates a new GORM order repository.
func NewGormOrderRepository(db *gorm.DB, tracker aggregateTracker) *GormOrderRepository {
	return &GormOrderRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add saves a new order with its line items and history.
func (r *GormOrderRepository) Add(ctx context.Context, snapshot order.Snapshot) error {
	if err := validateSnapshot(snapshot); err != nil {
		return err
	}

	dto := fromDomain(snapshot)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return err
	}

	r.tracker.TrackAggregate(snapshot.ID, snapshot)
	return nil
}

// Update saves the status of an existing order and appends its new history records.
// The row is only written when the stored version equals expectedVersion.
func (r *GormOrderRepository) Update(ctx context.Context, snapshot order.Snapshot, expectedVersion int64) error {
	if err := validateSnapshot(snapshot); err != nil {
		return err
	}
	if expectedVersion < 1 || expectedVersion > snapshot.Version {
		return errs.NewValueIsOutOfRangeError("expected version", expectedVersion, 1, snapshot.Version)
	}

	dto := fromDomain(snapshot)
	db := r.db.WithContext(ctx)

	result := db.Model(&OrderDTO{}).
		Where("id = ? AND version = ?", dto.ID, expectedVersion).
		Updates(map[string]any{
			"status":     dto.Status,
			"version":    dto.Version,
			"updated_at": dto.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := db.Model(&OrderDTO{}).Where("id = ?", dto.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return errs.NewObjectNotFoundError("order", snapshot.ID.String())
		}
		return errs.NewVersionConflictError(snapshot.ID.String(), expectedVersion)
	}

	if appended := dto.History[expectedVersion:]; len(appended) > 0 {
		if err := db.Create(&appended).Error; err != nil {
			return err
		}
	}

	r.tracker.TrackAggregate(snapshot.ID, snapshot)
	return nil
}

// Get retrieves an order by ID with its line items and full history.
func (r *GormOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto OrderDTO
	if err := r.preloaded(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// ListPendingCreatedBefore retrieves up to limit Pending orders created before cutoff, oldest first.
func (r *GormOrderRepository) ListPendingCreatedBefore(
	ctx context.Context,
	cutoff time.Time,
	limit int,
) ([]*order.Order, error) {
	if limit <= 0 {
		return nil, errs.NewValueIsInvalidError("limit")
	}

	var dtos []OrderDTO
	if err := r.preloaded(ctx).
		Where("status = ? AND created_at < ?", int(order.Pending), cutoff).
		Order("created_at").
		Limit(limit).
		Find(&dtos).Error; err != nil {
		return nil, err
	}

	orders := make([]*order.Order, 0, len(dtos))
	for _, dto := range dtos {
		o, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	return orders, nil
}

func (r *GormOrderRepository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("sequence") })
}

// validateSnapshot rebuilds the aggregate to make sure only consistent orders are stored.
func validateSnapshot(snapshot order.Snapshot) error {
	_, err := order.RestoreOrder(snapshot)
	return err
}

package dbmysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"postflow/internal/common"

	"gorm.io/gorm"
)

// RecordRepository is the persistence boundary for publish records. The
// guarded Update* methods are compare-and-set on status: the WHERE clause
// carries the expected current status and RowsAffected reports whether
// this caller won. That is the optimistic discipline the engine and the
// state machine rely on instead of row locks.
type RecordRepository interface {
	Create(ctx context.Context, record *PublishRecord) error
	ByID(ctx context.Context, id int64) (*PublishRecord, error)
	ByOwner(ctx context.Context, ownerID int64, limit, offset int) ([]*PublishRecord, error)
	Scheduled(ctx context.Context) ([]*PublishRecord, error)
	UpdateStatusFrom(ctx context.Context, id int64, from common.RecordStatus, updates map[string]interface{}) (bool, error)
	MarkPublished(ctx context.Context, id int64, externalRef, externalURL string) (bool, error)
	MarkFailed(ctx context.Context, id int64, reason string) (bool, error)
	IncrementAttempt(ctx context.Context, id int64) error
}

type recordRepository struct {
	db *gorm.DB
}

func NewRecordRepository(db *gorm.DB) RecordRepository {
	return &recordRepository{db: db}
}

func (r *recordRepository) Create(ctx context.Context, record *PublishRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to create publish record: %w", err)
	}
	return nil
}

func (r *recordRepository) ByID(ctx context.Context, id int64) (*PublishRecord, error) {
	var record PublishRecord

	if err := r.db.WithContext(ctx).First(&record, "record_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get publish record: %w", err)
	}

	return &record, nil
}

func (r *recordRepository) ByOwner(
	ctx context.Context,
	ownerID int64,
	limit, offset int,
) ([]*PublishRecord, error) {
	var records []*PublishRecord

	query := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list publish records: %w", err)
	}

	return records, nil
}

// Scheduled returns every record the engine must hold a timer for. Used
// by the recovery sweep; the scheduled_at column is the durable timer.
func (r *recordRepository) Scheduled(ctx context.Context) ([]*PublishRecord, error) {
	var records []*PublishRecord

	err := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_at IS NOT NULL", string(common.StatusScheduled)).
		Order("scheduled_at ASC").
		Find(&records).Error

	if err != nil {
		return nil, fmt.Errorf("failed to get scheduled records: %w", err)
	}

	return records, nil
}

func (r *recordRepository) UpdateStatusFrom(
	ctx context.Context,
	id int64,
	from common.RecordStatus,
	updates map[string]interface{},
) (bool, error) {
	updates["updated_at"] = time.Now()

	result := r.db.WithContext(ctx).
		Model(&PublishRecord{}).
		Where("record_id = ? AND status = ?", id, string(from)).
		Updates(updates)

	if result.Error != nil {
		return false, fmt.Errorf("failed to update record status: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

func (r *recordRepository) MarkPublished(ctx context.Context, id int64, externalRef, externalURL string) (bool, error) {
	now := time.Now()
	return r.UpdateStatusFrom(ctx, id, common.StatusScheduled, map[string]interface{}{
		"status":       string(common.StatusPublished),
		"published_at": now,
		"external_ref": externalRef,
		"external_url": externalURL,
	})
}

func (r *recordRepository) MarkFailed(ctx context.Context, id int64, reason string) (bool, error) {
	return r.UpdateStatusFrom(ctx, id, common.StatusScheduled, map[string]interface{}{
		"status":         string(common.StatusFailed),
		"failure_reason": reason,
	})
}

func (r *recordRepository) IncrementAttempt(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).
		Model(&PublishRecord{}).
		Where("record_id = ?", id).
		UpdateColumn("attempt_count", gorm.Expr("attempt_count + 1"))

	if result.Error != nil {
		return fmt.Errorf("failed to increment attempt count: %w", result.Error)
	}

	return nil
}

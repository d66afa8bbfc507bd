package dbmysql

import (
	"context"
	"errors"
	"fmt"

	"postflow/internal/common"

	"gorm.io/gorm"
)

// AccountRepository resolves the destination account for a record's
// (owner, platform) pair. Account linking itself is an external
// collaborator; this subsystem never writes these rows.
type AccountRepository interface {
	LookupDestination(ctx context.Context, ownerID int64, platformID string) (*DestinationAccount, error)
}

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) LookupDestination(
	ctx context.Context,
	ownerID int64,
	platformID string,
) (*DestinationAccount, error) {
	var account DestinationAccount

	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND platform_id = ?", ownerID, platformID).
		First(&account).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up destination account: %w", err)
	}

	return &account, nil
}

// PrefRepository looks up the owner's failure-notification preference.
type PrefRepository interface {
	ByOwner(ctx context.Context, ownerID int64) (*NotifyPref, error)
}

type prefRepository struct {
	db *gorm.DB
}

func NewPrefRepository(db *gorm.DB) PrefRepository {
	return &prefRepository{db: db}
}

func (r *prefRepository) ByOwner(ctx context.Context, ownerID int64) (*NotifyPref, error) {
	var pref NotifyPref

	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		First(&pref).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get notify pref: %w", err)
	}

	return &pref, nil
}

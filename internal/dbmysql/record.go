package dbmysql

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// MediaRefList is an ordered list of media URIs stored as a JSON column.
type MediaRefList []string

func (m MediaRefList) Value() (driver.Value, error) {
	if m == nil {
		return "[]", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *MediaRefList) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("cannot scan media refs from %T", value)
	}
}

// PublishRecord is one piece of content destined for one external
// platform. The row is the single source of truth for the record's
// status and for the durable timer state the engine re-arms from.
type PublishRecord struct {
	RecordID      int64        `gorm:"primaryKey;autoIncrement;column:record_id" json:"record_id"`
	OwnerID       int64        `gorm:"not null;index;column:owner_id" json:"owner_id"`
	PlatformID    string       `gorm:"not null;size:50;column:platform_id" json:"platform_id"`
	Body          string       `gorm:"not null;type:text" json:"body"`
	MediaRefs     MediaRefList `gorm:"type:json" json:"media_refs"`
	Status        string       `gorm:"not null;default:'DRAFT';size:20;index" json:"status"`
	ScheduledAt   *time.Time   `json:"scheduled_at,omitempty"`
	PublishedAt   *time.Time   `json:"published_at,omitempty"`
	ExternalRef   *string      `gorm:"size:255" json:"external_ref,omitempty"`
	ExternalURL   *string      `gorm:"size:512" json:"external_url,omitempty"`
	FailureReason *string      `gorm:"size:512" json:"failure_reason,omitempty"`
	AttemptCount  int          `gorm:"not null;default:0" json:"attempt_count"`
	CreatedAt     time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PublishRecord) TableName() string {
	return "publish_records"
}

// DestinationAccount is the linked external account a record publishes
// to. Owned by the account-management collaborator; read-only here.
type DestinationAccount struct {
	AccountID         int64     `gorm:"primaryKey;autoIncrement;column:account_id" json:"account_id"`
	OwnerID           int64     `gorm:"not null;index;column:owner_id" json:"owner_id"`
	PlatformID        string    `gorm:"not null;size:50;column:platform_id" json:"platform_id"`
	ExternalAccountID string    `gorm:"not null;size:255;column:external_account_id" json:"external_account_id"`
	AccessToken       string    `gorm:"size:512" json:"-"`
	Active            bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (DestinationAccount) TableName() string {
	return "destination_accounts"
}

// NotifyPref is the owner's failure-notification preference.
type NotifyPref struct {
	OwnerID      int64     `gorm:"primaryKey;column:owner_id" json:"owner_id"`
	Email        string    `gorm:"size:255" json:"email"`
	EmailEnabled bool      `gorm:"not null;default:false" json:"email_enabled"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (NotifyPref) TableName() string {
	return "notify_prefs"
}

package common

// RecordStatus is the lifecycle state of a publish record.
type RecordStatus string

const (
	StatusDraft     RecordStatus = "DRAFT"
	StatusScheduled RecordStatus = "SCHEDULED"
	StatusPublished RecordStatus = "PUBLISHED"
	StatusFailed    RecordStatus = "FAILED"
)

func (s RecordStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusScheduled, StatusPublished, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether the record may never change again.
// PUBLISHED is the only terminal state; FAILED can be reopened to DRAFT.
func (s RecordStatus) Terminal() bool {
	return s == StatusPublished
}

// AttemptOutcome classifies one engine firing in the attempt journal.
type AttemptOutcome string

const (
	OutcomePublished AttemptOutcome = "published"
	OutcomeRetry     AttemptOutcome = "retry"
	OutcomeFailed    AttemptOutcome = "failed"
	OutcomeSkipped   AttemptOutcome = "skipped"
)

// FailureNotice is the one-shot message dispatched when a record is
// escalated to FAILED and the owner opted in to notifications.
type FailureNotice struct {
	OwnerID    int64
	Email      string
	Excerpt    string
	PlatformID string
	Reason     string
	DeepLink   string
}

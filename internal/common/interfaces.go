package common

import "time"

// Scheduler is the single interface through which the rest of the system
// talks to the delayed execution substrate. Every schedule/cancel command
// goes through here so the "never roll back the DB write" policy is
// enforced in one place: callers commit the record first, then issue the
// command and only log a failure to send.
type Scheduler interface {
	Schedule(recordID int64, fireAt time.Time) error
	Cancel(recordID int64) error
}

// Notifier dispatches one failure notice to the owner. Implemented by the
// email notifier; swapped for a mock in tests and when email is disabled.
type Notifier interface {
	Send(notice FailureNotice) error
}

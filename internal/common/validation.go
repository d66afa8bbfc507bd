package common

import (
	"net/url"
	"strings"
	"time"
)

const (
	// MaxMediaRefs is the platform-independent cap on attachments.
	MaxMediaRefs = 10

	MaxBodyLength = 5000
)

func ValidateBody(body string) error {
	body = strings.TrimSpace(body)
	if body == "" {
		return NewValidationError("body must not be empty")
	}

	if len(body) > MaxBodyLength {
		return NewValidationError("body must be at most %d characters", MaxBodyLength)
	}

	return nil
}

func ValidatePlatformID(platformID string) error {
	if strings.TrimSpace(platformID) == "" {
		return NewValidationError("destination platform is required")
	}
	return nil
}

func ValidateMediaRefs(refs []string) error {
	if len(refs) > MaxMediaRefs {
		return NewValidationError("at most %d media refs are allowed", MaxMediaRefs)
	}

	for _, ref := range refs {
		u, err := url.Parse(ref)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return NewValidationError("invalid media ref: %s", ref)
		}
	}

	return nil
}

// ValidateScheduleTime checks the target time a record may be scheduled
// for. A SCHEDULED record must always carry a future fire time.
func ValidateScheduleTime(at *time.Time, now time.Time) error {
	if at == nil {
		return NewValidationError("scheduled_at is required to schedule a record")
	}

	if !at.After(now) {
		return NewValidationError("scheduled_at must be in the future")
	}

	return nil
}

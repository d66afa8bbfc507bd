package notif

import (
	"context"
	"errors"
	"fmt"
	"log"

	"postflow/internal/common"
	"postflow/internal/config"
	"postflow/internal/dbmysql"
	"postflow/internal/record"
)

// Escalator handles the terminal failure path: write FAILED, then
// optionally tell the owner. The FAILED write commits first and is never
// reverted because a notification could not be dispatched.
type Escalator struct {
	records  dbmysql.RecordRepository
	prefs    dbmysql.PrefRepository
	notifier common.Notifier
	deepLink string
}

func NewEscalator(
	records dbmysql.RecordRepository,
	prefs dbmysql.PrefRepository,
	notifier common.Notifier,
	cfg *config.Config,
) *Escalator {
	return &Escalator{
		records:  records,
		prefs:    prefs,
		notifier: notifier,
		deepLink: cfg.Platform.DeepLinkURL,
	}
}

func (e *Escalator) Escalate(ctx context.Context, rec *dbmysql.PublishRecord, reason string) {
	if err := record.ValidateAutomatic(common.RecordStatus(rec.Status), common.StatusFailed); err != nil {
		log.Printf("Escalation refused for record %d: %v", rec.RecordID, err)
		return
	}

	ok, err := e.records.MarkFailed(ctx, rec.RecordID, reason)
	if err != nil {
		log.Printf("Failed to persist FAILED status for record %d: %v", rec.RecordID, err)
		return
	}
	if !ok {
		// A manual edit moved the record off SCHEDULED first; it wins and
		// there is nothing to escalate.
		log.Printf("Record %d left SCHEDULED before escalation, skipping", rec.RecordID)
		return
	}

	log.Printf("Record %d escalated to FAILED: %s", rec.RecordID, reason)

	e.notifyOwner(ctx, rec, reason)
}

func (e *Escalator) notifyOwner(ctx context.Context, rec *dbmysql.PublishRecord, reason string) {
	pref, err := e.prefs.ByOwner(ctx, rec.OwnerID)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			log.Printf("Failed to load notify pref for owner %d: %v", rec.OwnerID, err)
		}
		return
	}

	if !pref.EmailEnabled || pref.Email == "" {
		return
	}

	notice := common.FailureNotice{
		OwnerID:    rec.OwnerID,
		Email:      pref.Email,
		Excerpt:    excerpt(rec.Body),
		PlatformID: rec.PlatformID,
		Reason:     reason,
		DeepLink:   fmt.Sprintf("%s/%d", e.deepLink, rec.RecordID),
	}

	// A dispatch failure never reopens the FAILED write.
	if err := e.notifier.Send(notice); err != nil {
		log.Printf("Failed to dispatch failure notice for record %d: %v", rec.RecordID, err)
		return
	}

	log.Printf("Failure notice sent to owner %d for record %d", rec.OwnerID, rec.RecordID)
}

func excerpt(body string) string {
	const max = 80
	if len(body) <= max {
		return body
	}
	return body[:max] + "..."
}

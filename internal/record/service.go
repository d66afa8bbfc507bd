package record

import (
	"context"
	"fmt"
	"log"
	"time"

	"postflow/internal/common"
	"postflow/internal/dbmysql"
)

// RecordService is the manual surface of the publication engine: record
// creation on behalf of the drafting collaborator and state-machine
// transitions on behalf of the board collaborator. The authoritative DB
// write always commits before any scheduler command is issued, and a
// failed command is logged and swallowed, never rolled back.
type RecordService interface {
	CreateRecord(ctx context.Context, ownerID int64, in CreateInput) (*dbmysql.PublishRecord, error)
	Transition(ctx context.Context, ownerID, recordID int64, target common.RecordStatus) (*dbmysql.PublishRecord, error)
	Reschedule(ctx context.Context, ownerID, recordID int64, at time.Time) (*dbmysql.PublishRecord, error)
	GetRecord(ctx context.Context, ownerID, recordID int64) (*dbmysql.PublishRecord, error)
	ListRecords(ctx context.Context, ownerID int64, limit, offset int) ([]*dbmysql.PublishRecord, error)
}

type CreateInput struct {
	PlatformID  string
	Body        string
	MediaRefs   []string
	ScheduledAt *time.Time
}

type recordService struct {
	repo      dbmysql.RecordRepository
	scheduler common.Scheduler
}

func NewRecordService(repo dbmysql.RecordRepository, scheduler common.Scheduler) RecordService {
	return &recordService{repo: repo, scheduler: scheduler}
}

func (s *recordService) CreateRecord(ctx context.Context, ownerID int64, in CreateInput) (*dbmysql.PublishRecord, error) {
	if err := common.ValidatePlatformID(in.PlatformID); err != nil {
		return nil, err
	}

	if err := common.ValidateBody(in.Body); err != nil {
		return nil, err
	}

	if err := common.ValidateMediaRefs(in.MediaRefs); err != nil {
		return nil, err
	}

	status := common.StatusDraft
	if in.ScheduledAt != nil {
		if err := common.ValidateScheduleTime(in.ScheduledAt, time.Now()); err != nil {
			return nil, err
		}
		status = common.StatusScheduled
	}

	rec := &dbmysql.PublishRecord{
		OwnerID:     ownerID,
		PlatformID:  in.PlatformID,
		Body:        in.Body,
		MediaRefs:   in.MediaRefs,
		Status:      string(status),
		ScheduledAt: in.ScheduledAt,
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}

	if status == common.StatusScheduled {
		s.issueSchedule(rec.RecordID, *rec.ScheduledAt)
	}

	return rec, nil
}

func (s *recordService) Transition(
	ctx context.Context,
	ownerID, recordID int64,
	target common.RecordStatus,
) (*dbmysql.PublishRecord, error) {
	rec, err := s.loadOwned(ctx, ownerID, recordID)
	if err != nil {
		return nil, err
	}

	from := common.RecordStatus(rec.Status)
	if err := ValidateManual(from, target); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"status": string(target)}

	switch {
	case from == common.StatusDraft && target == common.StatusScheduled:
		if err := common.ValidateScheduleTime(rec.ScheduledAt, time.Now()); err != nil {
			return nil, err
		}

	case from == common.StatusScheduled && target == common.StatusDraft:
		updates["scheduled_at"] = nil

	case from == common.StatusFailed && target == common.StatusDraft:
		updates["failure_reason"] = nil
		updates["attempt_count"] = 0
	}

	ok, err := s.repo.UpdateStatusFrom(ctx, recordID, from, updates)
	if err != nil {
		return nil, err
	}
	if !ok {
		// A concurrent caller changed the status between our read and the
		// guarded write. Their transition wins; report ours against the
		// status the record actually has now.
		return nil, s.concurrentLoss(ctx, recordID, target)
	}

	switch {
	case target == common.StatusScheduled:
		s.issueSchedule(recordID, *rec.ScheduledAt)
	case from == common.StatusScheduled:
		s.issueCancel(recordID)
	}

	return s.repo.ByID(ctx, recordID)
}

// Reschedule moves a record's fire time. There is no in-place primitive
// in the engine: the new time is applied as cancel-then-schedule.
func (s *recordService) Reschedule(
	ctx context.Context,
	ownerID, recordID int64,
	at time.Time,
) (*dbmysql.PublishRecord, error) {
	rec, err := s.loadOwned(ctx, ownerID, recordID)
	if err != nil {
		return nil, err
	}

	if err := common.ValidateScheduleTime(&at, time.Now()); err != nil {
		return nil, err
	}

	from := common.RecordStatus(rec.Status)
	switch from {
	case common.StatusDraft, common.StatusScheduled:
	default:
		return nil, common.NewValidationError("cannot reschedule a %s record", from)
	}

	ok, err := s.repo.UpdateStatusFrom(ctx, recordID, from, map[string]interface{}{
		"scheduled_at": at,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.concurrentLoss(ctx, recordID, from)
	}

	if from == common.StatusScheduled {
		s.issueCancel(recordID)
		s.issueSchedule(recordID, at)
	}

	return s.repo.ByID(ctx, recordID)
}

func (s *recordService) GetRecord(ctx context.Context, ownerID, recordID int64) (*dbmysql.PublishRecord, error) {
	return s.loadOwned(ctx, ownerID, recordID)
}

func (s *recordService) ListRecords(ctx context.Context, ownerID int64, limit, offset int) ([]*dbmysql.PublishRecord, error) {
	return s.repo.ByOwner(ctx, ownerID, limit, offset)
}

func (s *recordService) loadOwned(ctx context.Context, ownerID, recordID int64) (*dbmysql.PublishRecord, error) {
	rec, err := s.repo.ByID(ctx, recordID)
	if err != nil {
		return nil, err
	}

	// Absence and not-owned are deliberately indistinguishable.
	if rec.OwnerID != ownerID {
		return nil, common.ErrNotFound
	}

	return rec, nil
}

func (s *recordService) concurrentLoss(ctx context.Context, recordID int64, target common.RecordStatus) error {
	current, err := s.repo.ByID(ctx, recordID)
	if err != nil {
		return fmt.Errorf("record changed concurrently: %w", err)
	}
	return &common.InvalidTransitionError{From: common.RecordStatus(current.Status), To: target}
}

func (s *recordService) issueSchedule(recordID int64, fireAt time.Time) {
	if err := s.scheduler.Schedule(recordID, fireAt); err != nil {
		log.Printf("Failed to issue schedule command for record %d: %v", recordID, err)
	}
}

func (s *recordService) issueCancel(recordID int64) {
	if err := s.scheduler.Cancel(recordID); err != nil {
		log.Printf("Failed to issue cancel command for record %d: %v", recordID, err)
	}
}

package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"postflow/internal/common"
	"postflow/internal/config"
	"postflow/internal/dbmongo"
	"postflow/internal/dbmysql"
	"postflow/internal/publish"
	"postflow/internal/record"
)

// Escalator applies the terminal FAILED outcome once retries are
// exhausted or a permanent failure is classified.
type Escalator interface {
	Escalate(ctx context.Context, rec *dbmysql.PublishRecord, reason string)
}

// Engine is the delayed execution substrate: at-least-once, single timer
// per record id. The scheduled_at column on the record row is the durable
// timer state; the in-process timers are re-armed from it by the recovery
// sweep, so a restart loses nothing. Each record's task runs
// independently; there is no cross-record ordering.
type Engine struct {
	records   dbmysql.RecordRepository
	accounts  dbmysql.AccountRepository
	publisher publish.Publisher
	escalator Escalator
	journal   dbmongo.AttemptJournal // nil when the journal is disabled
	cfg       config.EngineConfig

	mu    sync.Mutex
	tasks map[int64]*task

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// task is one armed timer. inFlight flips just before re-validation; a
// cancel arriving after that point is late and deliberately ignored.
type task struct {
	recordID int64
	fireAt   time.Time
	cancelCh chan struct{}
	inFlight bool
}

func NewEngine(
	records dbmysql.RecordRepository,
	accounts dbmysql.AccountRepository,
	publisher publish.Publisher,
	escalator Escalator,
	journal dbmongo.AttemptJournal,
	cfg *config.Config,
) *Engine {
	ctx, cancel := context.WithCancel(context.Background())

	ec := cfg.Engine
	if ec.MaxAttempts <= 0 {
		ec.MaxAttempts = 3
	}
	if ec.RetryDelay <= 0 {
		ec.RetryDelay = 30
	}

	return &Engine{
		records:   records,
		accounts:  accounts,
		publisher: publisher,
		escalator: escalator,
		journal:   journal,
		cfg:       ec,
		tasks:     make(map[int64]*task),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start arms timers for everything already SCHEDULED and keeps a sweep
// ticker running to catch records this process has no timer for.
func (e *Engine) Start() {
	e.sweep()

	interval := time.Duration(e.cfg.SweepInterval) * time.Minute
	if interval <= 0 {
		interval = time.Minute
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				e.sweep()
			case <-e.ctx.Done():
				return
			}
		}
	}()

	log.Println("✅ Delayed execution engine started")
}

func (e *Engine) Stop() {
	e.cancel()
	e.wg.Wait()
	log.Println("Delayed execution engine stopped")
}

// Schedule arms (or replaces) the single timer for a record id.
func (e *Engine) Schedule(recordID int64, fireAt time.Time) error {
	if e.ctx.Err() != nil {
		return fmt.Errorf("engine is stopped")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.armLocked(recordID, fireAt)
	return nil
}

// Cancel removes a pending timer. A cancel for a missing key, or for a
// task that already passed re-validation, is a no-op: that firing runs to
// its terminal outcome and the re-validate step is what actually decides.
func (e *Engine) Cancel(recordID int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.tasks[recordID]
	if !ok || t.inFlight {
		return nil
	}

	close(t.cancelCh)
	delete(e.tasks, recordID)
	return nil
}

func (e *Engine) armLocked(recordID int64, fireAt time.Time) {
	if existing, ok := e.tasks[recordID]; ok && !existing.inFlight {
		close(existing.cancelCh)
	}

	t := &task{
		recordID: recordID,
		fireAt:   fireAt,
		cancelCh: make(chan struct{}),
	}
	e.tasks[recordID] = t

	e.wg.Add(1)
	go e.runTask(t)
}

func (e *Engine) runTask(t *task) {
	defer e.wg.Done()

	// Sleep step. No DB work happens until the timer fires.
	timer := time.NewTimer(time.Until(t.fireAt))
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-t.cancelCh:
		return
	case <-e.ctx.Done():
		return
	}

	e.mu.Lock()
	if e.tasks[t.recordID] != t {
		// Replaced by a newer schedule command while waiting.
		e.mu.Unlock()
		return
	}
	t.inFlight = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		if e.tasks[t.recordID] == t {
			delete(e.tasks, t.recordID)
		}
		e.mu.Unlock()
	}()

	e.execute(e.ctx, t.recordID)
}

// execute runs the firing for one record: re-validate, resolve the
// destination, invoke the adapter, persist the outcome.
func (e *Engine) execute(ctx context.Context, recordID int64) common.AttemptOutcome {
	rec, err := e.records.ByID(ctx, recordID)
	if err != nil {
		log.Printf("Engine: cannot load record %d, skipping firing: %v", recordID, err)
		return common.OutcomeSkipped
	}

	// Re-validate: a manual transition away from SCHEDULED that landed
	// before this point always wins.
	if common.RecordStatus(rec.Status) != common.StatusScheduled {
		log.Printf("Engine: record %d is %s, not SCHEDULED, skipping firing", recordID, rec.Status)
		return common.OutcomeSkipped
	}

	attempt := rec.AttemptCount + 1

	acct, err := e.accounts.LookupDestination(ctx, rec.OwnerID, rec.PlatformID)
	switch {
	case errors.Is(err, common.ErrNotFound):
		return e.fail(ctx, rec, attempt, "destination account is not linked")
	case err != nil:
		// Infrastructure trouble, not a missing destination: retryable.
		return e.retryOrFail(ctx, rec, attempt, fmt.Sprintf("destination lookup failed: %v", err))
	case !acct.Active:
		return e.fail(ctx, rec, attempt, "destination account is inactive")
	}

	res := e.publisher.Publish(ctx, rec, acct)

	switch res.Class {
	case publish.Success:
		return e.succeed(ctx, rec, attempt, res)
	case publish.Transient:
		return e.retryOrFail(ctx, rec, attempt, res.Reason)
	default:
		return e.fail(ctx, rec, attempt, res.Reason)
	}
}

func (e *Engine) succeed(ctx context.Context, rec *dbmysql.PublishRecord, attempt int, res publish.Result) common.AttemptOutcome {
	if err := record.ValidateAutomatic(common.StatusScheduled, common.StatusPublished); err != nil {
		log.Printf("Engine: refusing publish transition for record %d: %v", rec.RecordID, err)
		return common.OutcomeSkipped
	}

	ok, err := e.records.MarkPublished(ctx, rec.RecordID, res.Ref, res.URL)
	if err != nil {
		log.Printf("Engine: failed to persist publish outcome for record %d: %v", rec.RecordID, err)
		return common.OutcomeRetry
	}
	if !ok {
		// A manual edit changed the status mid-flight; it wins.
		log.Printf("Engine: record %d left SCHEDULED mid-flight, publish outcome dropped", rec.RecordID)
		return common.OutcomeSkipped
	}

	e.journalAttempt(rec.RecordID, attempt, common.OutcomePublished, "", res.Ref)
	log.Printf("Engine: record %d published as %s (attempt %d)", rec.RecordID, res.Ref, attempt)
	return common.OutcomePublished
}

func (e *Engine) retryOrFail(ctx context.Context, rec *dbmysql.PublishRecord, attempt int, reason string) common.AttemptOutcome {
	if attempt >= e.cfg.MaxAttempts {
		return e.fail(ctx, rec, attempt, fmt.Sprintf("retry budget exhausted after %d attempts: %s", attempt, reason))
	}

	if err := e.records.IncrementAttempt(ctx, rec.RecordID); err != nil {
		log.Printf("Engine: failed to persist attempt count for record %d: %v", rec.RecordID, err)
	}

	delay := e.backoff(attempt)
	e.journalAttempt(rec.RecordID, attempt, common.OutcomeRetry, reason, "")
	log.Printf("Engine: record %d attempt %d failed transiently (%s), retrying in %s",
		rec.RecordID, attempt, reason, delay)

	e.mu.Lock()
	e.armLocked(rec.RecordID, time.Now().Add(delay))
	e.mu.Unlock()

	return common.OutcomeRetry
}

func (e *Engine) fail(ctx context.Context, rec *dbmysql.PublishRecord, attempt int, reason string) common.AttemptOutcome {
	e.journalAttempt(rec.RecordID, attempt, common.OutcomeFailed, reason, "")
	e.escalator.Escalate(ctx, rec, reason)
	return common.OutcomeFailed
}

// backoff is exponential on the configured base delay: base, 2x, 4x...
func (e *Engine) backoff(attempt int) time.Duration {
	delay := time.Duration(e.cfg.RetryDelay) * time.Second
	for i := 1; i < attempt; i++ {
		delay *= 2
	}
	return delay
}

// sweep re-arms timers for SCHEDULED records this process is not holding
// one for. On startup that is every scheduled record; afterwards it is a
// safety net for commands lost between the DB write and the engine.
func (e *Engine) sweep() {
	ctx, cancel := context.WithTimeout(e.ctx, 30*time.Second)
	defer cancel()

	records, err := e.records.Scheduled(ctx)
	if err != nil {
		log.Printf("Engine sweep failed: %v", err)
		return
	}

	armed := 0
	e.mu.Lock()
	for _, rec := range records {
		if rec.ScheduledAt == nil {
			continue
		}
		if _, ok := e.tasks[rec.RecordID]; ok {
			continue
		}
		e.armLocked(rec.RecordID, *rec.ScheduledAt)
		armed++
	}
	e.mu.Unlock()

	if armed > 0 {
		log.Printf("Engine sweep armed %d timers", armed)
	}
}

func (e *Engine) journalAttempt(recordID int64, attempt int, outcome common.AttemptOutcome, reason, ref string) {
	if e.journal == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	entry := dbmongo.AttemptEntry{
		RecordID:    recordID,
		Attempt:     attempt,
		Outcome:     outcome,
		Reason:      reason,
		ExternalRef: ref,
		AttemptedAt: time.Now(),
	}

	if err := e.journal.Append(ctx, entry); err != nil {
		log.Printf("Engine: failed to journal attempt for record %d: %v", recordID, err)
	}
}

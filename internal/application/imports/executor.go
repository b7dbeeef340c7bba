package imports

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	domain "github.com/habitforge/bulk-user-import/internal/domain/imports"
)

const fallbackPassword = "Habit!Welcome1"

// SessionStore is the durable home of one snapshot per session key. Load
// returns nil without error when no snapshot exists (including when a stored
// snapshot is malformed and has been discarded).
type SessionStore interface {
	Load(ctx context.Context, key string) (*domain.SessionSnapshot, error)
	Save(ctx context.Context, key string, snapshot domain.SessionSnapshot) error
	Clear(ctx context.Context, key string) error
}

type auditRecorder interface {
	Record(ctx context.Context, sessionKey string, file domain.FileMeta, progress domain.Progress) error
}

type ExecutorConfig struct {
	Workers          int
	QueueSize        int
	RecordDelay      time.Duration
	PerRecordTimeout time.Duration
	DefaultPassword  string
}

// Executor drives the uploading phase of import sessions. Runs are consumed
// off a queue by a single worker, so records within a session are processed
// strictly in order and creation calls never overlap.
type Executor struct {
	store    SessionStore
	accounts AccountCreator
	audit    auditRecorder
	cfg      ExecutorConfig

	queue chan string
	once  sync.Once

	mu        sync.Mutex
	running   map[string]context.CancelFunc
	completed map[string]domain.SessionSnapshot
}

func NewExecutor(store SessionStore, accounts AccountCreator, audit auditRecorder, cfg ExecutorConfig) *Executor {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.RecordDelay <= 0 {
		cfg.RecordDelay = 250 * time.Millisecond
	}
	if cfg.PerRecordTimeout <= 0 {
		cfg.PerRecordTimeout = 30 * time.Second
	}
	if cfg.DefaultPassword == "" {
		cfg.DefaultPassword = fallbackPassword
	}

	return &Executor{
		store:     store,
		accounts:  accounts,
		audit:     audit,
		cfg:       cfg,
		queue:     make(chan string, cfg.QueueSize),
		running:   make(map[string]context.CancelFunc),
		completed: make(map[string]domain.SessionSnapshot),
	}
}

func (e *Executor) Start(ctx context.Context) {
	e.once.Do(func() {
		for i := 0; i < e.cfg.Workers; i++ {
			go e.workerLoop(ctx)
		}
	})
}

func (e *Executor) workerLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case key := <-e.queue:
			if err := e.Run(ctx, key); err != nil {
				log.Printf("import session %s: %v", key, err)
			}
		}
	}
}

func (e *Executor) Enqueue(sessionKey string) error {
	select {
	case e.queue <- sessionKey:
		return nil
	default:
		return ErrExecutorBusy
	}
}

// Cancel stops a running session between records. Partial progress stays
// durable in the uploading phase, so a later Enqueue resumes at the next
// unprocessed record.
func (e *Executor) Cancel(sessionKey string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if cancel, ok := e.running[sessionKey]; ok {
		cancel()
	}
}

// Completed returns the final snapshot of a finished session. The durable
// snapshot is cleared on completion, so this in-memory copy is what keeps
// the result renderable until the admin resets.
func (e *Executor) Completed(sessionKey string) (domain.SessionSnapshot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	snapshot, ok := e.completed[sessionKey]
	return snapshot, ok
}

func (e *Executor) Forget(sessionKey string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.completed, sessionKey)
}

// Run processes every unprocessed record of the session, in order, and is
// exported for tests and for synchronous callers; normal traffic goes
// through Enqueue.
func (e *Executor) Run(ctx context.Context, sessionKey string) error {
	snapshot, err := e.store.Load(ctx, sessionKey)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if snapshot == nil {
		return fmt.Errorf("session %s has no snapshot", sessionKey)
	}
	if snapshot.Phase != domain.PhaseParsed && snapshot.Phase != domain.PhaseUploading {
		return fmt.Errorf("%w: phase is %s", ErrNotReady, snapshot.Phase)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	e.track(sessionKey, cancel)
	defer e.untrack(sessionKey)

	snapshot.Phase = domain.PhaseUploading
	if err := e.store.Save(ctx, sessionKey, *snapshot); err != nil {
		return fmt.Errorf("checkpoint uploading phase: %w", err)
	}

	for i := snapshot.Progress.Processed; i < len(snapshot.Records); i++ {
		select {
		case <-runCtx.Done():
			return nil
		default:
		}

		outcome := e.processRecord(runCtx, snapshot.Records[i], snapshot.Options)
		snapshot.Progress.Record(outcome)
		if err := e.store.Save(ctx, sessionKey, *snapshot); err != nil {
			return fmt.Errorf("checkpoint record %d: %w", i+1, err)
		}

		if i+1 < len(snapshot.Records) && !sleepWithContext(runCtx, e.cfg.RecordDelay) {
			return nil
		}
	}

	snapshot.Phase = domain.PhaseComplete
	e.remember(sessionKey, *snapshot)

	if e.audit != nil {
		if err := e.audit.Record(ctx, sessionKey, snapshot.File, snapshot.Progress); err != nil {
			log.Printf("record import audit for session %s: %v", sessionKey, err)
		}
	}

	if err := e.store.Clear(ctx, sessionKey); err != nil {
		return fmt.Errorf("clear completed session: %w", err)
	}
	return nil
}

func (e *Executor) processRecord(ctx context.Context, record domain.UserRecord, opts domain.Options) domain.UploadOutcome {
	password := record.Password
	if password == "" {
		password = opts.DefaultPassword
	}
	if password == "" {
		password = e.cfg.DefaultPassword
	}

	// Cancellation takes effect between records only; an in-flight creation
	// call is bounded by the per-record timeout instead.
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.cfg.PerRecordTimeout)
	defer cancel()

	result, err := e.accounts.Create(callCtx, CreateAccountRequest{
		Email:            record.Email,
		Password:         password,
		FirstName:        record.FirstName,
		LastName:         record.LastName,
		OrganizationName: record.OrganizationName,
		Department:       record.Department,
		Role:             record.Role,
		CohortID:         record.CohortID,
	})

	outcome := classifyOutcome(record, result, err)
	return promoteDuplicate(outcome, result, opts.SkipExisting)
}

func (e *Executor) track(sessionKey string, cancel context.CancelFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running[sessionKey] = cancel
}

func (e *Executor) untrack(sessionKey string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.running, sessionKey)
}

func (e *Executor) remember(sessionKey string, snapshot domain.SessionSnapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.completed[sessionKey] = snapshot
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

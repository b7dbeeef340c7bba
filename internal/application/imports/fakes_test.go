package imports_test

import (
	"context"
	"sync"

	app "github.com/habitforge/bulk-user-import/internal/application/imports"
	domain "github.com/habitforge/bulk-user-import/internal/domain/imports"
)

type fakeSessionStore struct {
	mu        sync.Mutex
	snapshots map[string]domain.SessionSnapshot
	history   []domain.SessionSnapshot
	loadErr   error
	saveErr   error
	clearErr  error
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{snapshots: make(map[string]domain.SessionSnapshot)}
}

func (f *fakeSessionStore) Load(ctx context.Context, key string) (*domain.SessionSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	snapshot, ok := f.snapshots[key]
	if !ok {
		return nil, nil
	}
	return &snapshot, nil
}

func (f *fakeSessionStore) Save(ctx context.Context, key string, snapshot domain.SessionSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.snapshots[key] = snapshot
	f.history = append(f.history, snapshot)
	return nil
}

func (f *fakeSessionStore) Clear(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.clearErr != nil {
		return f.clearErr
	}
	delete(f.snapshots, key)
	return nil
}

func (f *fakeSessionStore) get(key string) (domain.SessionSnapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snapshot, ok := f.snapshots[key]
	return snapshot, ok
}

func (f *fakeSessionStore) saved() []domain.SessionSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.SessionSnapshot(nil), f.history...)
}

type accountReply struct {
	result app.CreateAccountResult
	err    error
}

type fakeAccountCreator struct {
	mu       sync.Mutex
	replies  map[string]accountReply
	calls    []string
	onCreate func(email string)
}

func newFakeAccountCreator() *fakeAccountCreator {
	return &fakeAccountCreator{replies: make(map[string]accountReply)}
}

func (f *fakeAccountCreator) Create(ctx context.Context, req app.CreateAccountRequest) (app.CreateAccountResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req.Email)
	reply, ok := f.replies[req.Email]
	hook := f.onCreate
	f.mu.Unlock()

	if hook != nil {
		hook(req.Email)
	}
	if !ok {
		return app.CreateAccountResult{StatusCode: 201, Success: true, UserID: "u-" + req.Email}, nil
	}
	return reply.result, reply.err
}

func (f *fakeAccountCreator) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeCohortLister struct {
	cohorts []domain.Cohort
	err     error
	calls   int
}

func (f *fakeCohortLister) List(ctx context.Context) ([]domain.Cohort, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.cohorts, nil
}

type fakeAuditRecorder struct {
	mu       sync.Mutex
	sessions []string
	progress []domain.Progress
	err      error
}

func (f *fakeAuditRecorder) Record(ctx context.Context, sessionKey string, file domain.FileMeta, progress domain.Progress) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sessions = append(f.sessions, sessionKey)
	f.progress = append(f.progress, progress)
	return nil
}

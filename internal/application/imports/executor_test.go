package imports_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	app "github.com/habitforge/bulk-user-import/internal/application/imports"
	domain "github.com/habitforge/bulk-user-import/internal/domain/imports"
)

func testExecutorConfig() app.ExecutorConfig {
	return app.ExecutorConfig{
		RecordDelay:      time.Millisecond,
		PerRecordTimeout: time.Second,
	}
}

func parsedSnapshot(emails ...string) domain.SessionSnapshot {
	records := make([]domain.UserRecord, 0, len(emails))
	for _, email := range emails {
		records = append(records, domain.UserRecord{
			Email:     email,
			FirstName: "Test",
			LastName:  "User",
			Role:      domain.RoleUser,
		})
	}
	return domain.SessionSnapshot{
		Phase:    domain.PhaseParsed,
		File:     domain.FileMeta{Name: "users.csv", Format: domain.FormatCSV},
		Records:  records,
		Progress: domain.Progress{Total: len(records)},
	}
}

func TestExecutorRunProcessesAllRecordsInOrder(t *testing.T) {
	t.Parallel()

	store := newFakeSessionStore()
	creator := newFakeAccountCreator()
	creator.replies["b@x.co"] = accountReply{result: app.CreateAccountResult{
		StatusCode:   422,
		ErrorMessage: "role not allowed for this organization",
	}}
	audit := &fakeAuditRecorder{}

	executor := app.NewExecutor(store, creator, audit, testExecutorConfig())

	if err := store.Save(context.Background(), "s-1", parsedSnapshot("a@x.co", "b@x.co", "c@x.co")); err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}

	if err := executor.Run(context.Background(), "s-1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	calls := creator.called()
	want := []string{"a@x.co", "b@x.co", "c@x.co"}
	if len(calls) != len(want) {
		t.Fatalf("expected %d calls, got %d", len(want), len(calls))
	}
	for i, email := range want {
		if calls[i] != email {
			t.Fatalf("expected call %d to be %s, got %s", i, email, calls[i])
		}
	}

	finished, ok := executor.Completed("s-1")
	if !ok {
		t.Fatal("expected completed snapshot")
	}
	if finished.Phase != domain.PhaseComplete {
		t.Fatalf("expected complete phase, got %s", finished.Phase)
	}
	if finished.Progress.Processed != 3 {
		t.Fatalf("expected processed=3, got %d", finished.Progress.Processed)
	}
	if len(finished.Progress.Successes) != 2 || len(finished.Progress.Errors) != 1 {
		t.Fatalf("unexpected buckets: %+v", finished.Progress)
	}
	if finished.Progress.Errors[0].Email != "b@x.co" {
		t.Fatalf("unexpected failing email: %s", finished.Progress.Errors[0].Email)
	}
	if !strings.Contains(finished.Progress.Errors[0].Message, "role not allowed") {
		t.Fatalf("expected payload error message, got %q", finished.Progress.Errors[0].Message)
	}

	// A per-record failure never stops the batch, and the durable snapshot
	// is gone once the run completes.
	if _, ok := store.get("s-1"); ok {
		t.Fatal("expected durable snapshot to be cleared on completion")
	}
	if len(audit.sessions) != 1 || audit.progress[0].Processed != 3 {
		t.Fatalf("expected one audit row with processed=3, got %+v", audit.progress)
	}
}

func TestExecutorProgressInvariantAtEveryCheckpoint(t *testing.T) {
	t.Parallel()

	store := newFakeSessionStore()
	executor := app.NewExecutor(store, newFakeAccountCreator(), &fakeAuditRecorder{}, testExecutorConfig())

	if err := store.Save(context.Background(), "s-1", parsedSnapshot("a@x.co", "b@x.co", "c@x.co", "d@x.co")); err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}
	if err := executor.Run(context.Background(), "s-1"); err != nil {
		t.Fatalf("run: %v", err)
	}

	previous := 0
	for _, snapshot := range store.saved() {
		progress := snapshot.Progress
		sum := len(progress.Successes) + len(progress.Errors) + len(progress.Skipped)
		if progress.Processed != sum {
			t.Fatalf("processed=%d but bucket sum=%d", progress.Processed, sum)
		}
		if progress.Processed < previous {
			t.Fatalf("processed decreased from %d to %d", previous, progress.Processed)
		}
		previous = progress.Processed
	}
}

func TestExecutorDuplicatePromotion(t *testing.T) {
	t.Parallel()

	run := func(t *testing.T, skipExisting bool) domain.Progress {
		store := newFakeSessionStore()
		creator := newFakeAccountCreator()
		creator.replies["dup@x.co"] = accountReply{result: app.CreateAccountResult{
			StatusCode:   409,
			ErrorMessage: "an account with this email already exists",
			ErrorCode:    "23505",
		}}

		executor := app.NewExecutor(store, creator, &fakeAuditRecorder{}, testExecutorConfig())

		snapshot := parsedSnapshot("new@x.co", "dup@x.co")
		snapshot.Options.SkipExisting = skipExisting
		if err := store.Save(context.Background(), "s-1", snapshot); err != nil {
			t.Fatalf("seed snapshot: %v", err)
		}
		if err := executor.Run(context.Background(), "s-1"); err != nil {
			t.Fatalf("run: %v", err)
		}

		finished, ok := executor.Completed("s-1")
		if !ok {
			t.Fatal("expected completed snapshot")
		}
		return finished.Progress
	}

	withSkip := run(t, true)
	if withSkip.Processed != 2 || len(withSkip.Successes) != 1 || len(withSkip.Skipped) != 1 || len(withSkip.Errors) != 0 {
		t.Fatalf("expected {processed:2, successes:1, skipped:1, errors:0}, got %+v", withSkip)
	}

	withoutSkip := run(t, false)
	if len(withoutSkip.Skipped) != 0 || len(withoutSkip.Errors) != 1 {
		t.Fatalf("expected duplicate to stay an error, got %+v", withoutSkip)
	}
}

func TestExecutorClassification(t *testing.T) {
	t.Parallel()

	store := newFakeSessionStore()
	creator := newFakeAccountCreator()
	creator.replies["transport@x.co"] = accountReply{err: errors.New("dial tcp: connection refused")}
	creator.replies["status@x.co"] = accountReply{result: app.CreateAccountResult{StatusCode: 500}}
	creator.replies["silent@x.co"] = accountReply{result: app.CreateAccountResult{StatusCode: 200}}

	executor := app.NewExecutor(store, creator, &fakeAuditRecorder{}, testExecutorConfig())

	if err := store.Save(context.Background(), "s-1", parsedSnapshot("transport@x.co", "status@x.co", "silent@x.co", "ok@x.co")); err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}
	if err := executor.Run(context.Background(), "s-1"); err != nil {
		t.Fatalf("run: %v", err)
	}

	finished, _ := executor.Completed("s-1")
	if len(finished.Progress.Errors) != 3 || len(finished.Progress.Successes) != 1 {
		t.Fatalf("unexpected buckets: %+v", finished.Progress)
	}

	messages := map[string]string{}
	for _, outcome := range finished.Progress.Errors {
		messages[outcome.Email] = outcome.Message
	}
	if !strings.Contains(messages["transport@x.co"], "connection refused") {
		t.Fatalf("unexpected transport message: %q", messages["transport@x.co"])
	}
	if !strings.Contains(messages["status@x.co"], "status 500") {
		t.Fatalf("unexpected status message: %q", messages["status@x.co"])
	}
	if !strings.Contains(messages["silent@x.co"], "no success confirmation") {
		t.Fatalf("unexpected silent message: %q", messages["silent@x.co"])
	}
}

func TestExecutorResumeSkipsProcessedRecords(t *testing.T) {
	t.Parallel()

	store := newFakeSessionStore()
	creator := newFakeAccountCreator()
	executor := app.NewExecutor(store, creator, &fakeAuditRecorder{}, testExecutorConfig())

	snapshot := parsedSnapshot("a@x.co", "b@x.co", "c@x.co", "d@x.co")
	snapshot.Phase = domain.PhaseUploading
	snapshot.Progress.Record(domain.UploadOutcome{Email: "a@x.co", Status: domain.OutcomeSuccess, Message: "created"})
	snapshot.Progress.Record(domain.UploadOutcome{Email: "b@x.co", Status: domain.OutcomeSuccess, Message: "created"})
	if err := store.Save(context.Background(), "s-1", snapshot); err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}

	if err := executor.Run(context.Background(), "s-1"); err != nil {
		t.Fatalf("run: %v", err)
	}

	calls := creator.called()
	if len(calls) != 2 || calls[0] != "c@x.co" || calls[1] != "d@x.co" {
		t.Fatalf("expected resume from record 3, got calls %v", calls)
	}

	finished, ok := executor.Completed("s-1")
	if !ok {
		t.Fatal("expected completed snapshot")
	}
	if finished.Progress.Processed != 4 || len(finished.Progress.Successes) != 4 {
		t.Fatalf("unexpected final progress: %+v", finished.Progress)
	}
	if finished.Progress.Successes[0].Email != "a@x.co" || finished.Progress.Successes[3].Email != "d@x.co" {
		t.Fatalf("expected outcome order preserved across resume, got %+v", finished.Progress.Successes)
	}
}

func TestExecutorCancelBetweenRecords(t *testing.T) {
	t.Parallel()

	store := newFakeSessionStore()
	creator := newFakeAccountCreator()
	executor := app.NewExecutor(store, creator, &fakeAuditRecorder{}, testExecutorConfig())
	creator.onCreate = func(email string) {
		if email == "a@x.co" {
			executor.Cancel("s-1")
		}
	}

	if err := store.Save(context.Background(), "s-1", parsedSnapshot("a@x.co", "b@x.co", "c@x.co")); err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}
	if err := executor.Run(context.Background(), "s-1"); err != nil {
		t.Fatalf("run: %v", err)
	}

	// The in-flight record still finishes; everything after it does not
	// start. Partial progress stays durable and resumable.
	if calls := creator.called(); len(calls) != 1 {
		t.Fatalf("expected 1 call before cancel, got %v", calls)
	}

	remaining, ok := store.get("s-1")
	if !ok {
		t.Fatal("expected snapshot to survive cancellation")
	}
	if remaining.Phase != domain.PhaseUploading {
		t.Fatalf("expected uploading phase, got %s", remaining.Phase)
	}
	if remaining.Progress.Processed != 1 {
		t.Fatalf("expected processed=1, got %d", remaining.Progress.Processed)
	}
	if _, completed := executor.Completed("s-1"); completed {
		t.Fatal("cancelled run must not be recorded as completed")
	}
}

func TestExecutorRunNotReady(t *testing.T) {
	t.Parallel()

	store := newFakeSessionStore()
	executor := app.NewExecutor(store, newFakeAccountCreator(), &fakeAuditRecorder{}, testExecutorConfig())

	if err := store.Save(context.Background(), "s-1", domain.SessionSnapshot{Phase: domain.PhaseParsing}); err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}

	err := executor.Run(context.Background(), "s-1")
	if !errors.Is(err, app.ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
}

func TestExecutorDefaultPassword(t *testing.T) {
	t.Parallel()

	var captured []string
	store := newFakeSessionStore()
	creator := newFakeAccountCreator()

	cfg := testExecutorConfig()
	cfg.DefaultPassword = "Fallback#1"
	executor := app.NewExecutor(store, &passwordRecorder{inner: creator, passwords: &captured}, &fakeAuditRecorder{}, cfg)

	snapshot := parsedSnapshot("a@x.co", "b@x.co")
	snapshot.Records[1].Password = "chosen-by-row"
	if err := store.Save(context.Background(), "s-1", snapshot); err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}
	if err := executor.Run(context.Background(), "s-1"); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(captured) != 2 || captured[0] != "Fallback#1" || captured[1] != "chosen-by-row" {
		t.Fatalf("unexpected passwords: %v", captured)
	}
}

type passwordRecorder struct {
	inner     *fakeAccountCreator
	passwords *[]string
}

func (p *passwordRecorder) Create(ctx context.Context, req app.CreateAccountRequest) (app.CreateAccountResult, error) {
	*p.passwords = append(*p.passwords, req.Password)
	return p.inner.Create(ctx, req)
}

func TestExecutorEnqueueBusy(t *testing.T) {
	t.Parallel()

	cfg := testExecutorConfig()
	cfg.QueueSize = 1
	executor := app.NewExecutor(newFakeSessionStore(), newFakeAccountCreator(), &fakeAuditRecorder{}, cfg)

	if err := executor.Enqueue("s-1"); err != nil {
		t.Fatalf("first enqueue: %v", err)
	}
	if err := executor.Enqueue("s-2"); !errors.Is(err, app.ErrExecutorBusy) {
		t.Fatalf("expected ErrExecutorBusy, got %v", err)
	}
}

package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/forgo/maestro/internal/model"
	"github.com/forgo/maestro/internal/scheduler"
)

// memJobStore is an in-memory scheduler.JobStore for tests
type memJobStore struct {
	mu   sync.Mutex
	jobs map[string]*model.JobDefinition
}

func newMemJobStore() *memJobStore {
	return &memJobStore{jobs: make(map[string]*model.JobDefinition)}
}

func (m *memJobStore) Put(_ context.Context, job *model.JobDefinition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *job
	m.jobs[job.JobID] = &copied
	return nil
}

func (m *memJobStore) Get(_ context.Context, jobID string) (*model.JobDefinition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return nil, nil
	}
	copied := *job
	return &copied, nil
}

func (m *memJobStore) ListDue(_ context.Context, now time.Time) ([]*model.JobDefinition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var due []*model.JobDefinition
	for _, job := range m.jobs {
		if job.Status == model.JobStatusActive && job.NextRun != nil && !job.NextRun.After(now) {
			copied := *job
			due = append(due, &copied)
		}
	}
	return due, nil
}

func (m *memJobStore) UpdateRun(_ context.Context, jobID string, status model.JobStatus, nextRun, lastRun *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job, ok := m.jobs[jobID]; ok {
		job.Status = status
		job.NextRun = nextRun
		job.LastRun = lastRun
	}
	return nil
}

func (m *memJobStore) Delete(_ context.Context, jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.jobs, jobID)
	return nil
}

func (m *memJobStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}

// memExecutionLog is an in-memory scheduler.ExecutionLog for tests
type memExecutionLog struct {
	mu      sync.Mutex
	entries []*model.ExecutionLogEntry
}

func (m *memExecutionLog) Append(_ context.Context, entry *model.ExecutionLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memExecutionLog) results() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.Result)
	}
	return out
}

// memCrewRepo is an in-memory CrewRepository for tests
type memCrewRepo struct {
	mu    sync.Mutex
	crews map[int]*model.Crew
}

func (m *memCrewRepo) Get(_ context.Context, crewID int) (*model.Crew, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	crew, ok := m.crews[crewID]
	if !ok {
		return nil, nil
	}
	copied := *crew
	return &copied, nil
}

func (m *memCrewRepo) UpdateKind(_ context.Context, crewID int, kind string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if crew, ok := m.crews[crewID]; ok {
		crew.Kind = kind
	}
	return nil
}

// fakeScorer returns a fixed set of scored emails
type fakeScorer struct {
	emails []ScoredEmail
	err    error
	calls  int
}

func (f *fakeScorer) ScoreRecentEmails(context.Context, int) ([]ScoredEmail, error) {
	f.calls++
	return f.emails, f.err
}

// fakeMailer records sent replies
type fakeMailer struct {
	mu    sync.Mutex
	sends []sentReply
	err   error
}

type sentReply struct {
	To      string
	Subject string
	Body    string
}

func (f *fakeMailer) SendReply(_ context.Context, _ int, to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, sentReply{To: to, Subject: subject, Body: body})
	return nil
}

func (f *fakeMailer) sent() []sentReply {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentReply(nil), f.sends...)
}

type fixture struct {
	orch   *Orchestrator
	sched  *scheduler.Scheduler
	store  *memJobStore
	log    *memExecutionLog
	crews  *memCrewRepo
	scorer *fakeScorer
	mailer *fakeMailer
}

func setup(t *testing.T, emails []ScoredEmail) *fixture {
	t.Helper()

	store := newMemJobStore()
	log := &memExecutionLog{}
	sched := scheduler.New(scheduler.Config{Store: store, Log: log})
	crews := &memCrewRepo{crews: map[int]*model.Crew{
		2: {CrewID: 2, TenantID: 1, Kind: model.CrewKindEmail},
	}}
	scorer := &fakeScorer{emails: emails}
	mailer := &fakeMailer{}

	orch := New(Config{
		Scheduler: sched,
		CrewRepo:  crews,
		Log:       log,
		Scorer:    scorer,
		Drafter:   &TemplateDrafter{},
		Mailer:    mailer,
		Calendar:  RunnerFunc(func(context.Context, int, int) (string, error) { return "calendar ran", nil }),
		LinkedIn:  RunnerFunc(func(context.Context, int, int) (string, error) { return "linkedin ran", nil }),
	})

	return &fixture{orch: orch, sched: sched, store: store, log: log, crews: crews, scorer: scorer, mailer: mailer}
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestUrgentEmailGetsImmediateReply(t *testing.T) {
	f := setup(t, []ScoredEmail{{
		ID:           "e1",
		Subject:      "Server down",
		From:         "Alex Doe <alex@example.com>",
		Body:         "Production is on fire",
		UrgencyScore: 3,
	}})

	result, err := f.orch.RunEmailPipeline(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("RunEmailPipeline() error = %v", err)
	}
	if !strings.Contains(result, "1 urgent replies") {
		t.Errorf("result = %q, want 1 urgent reply counted", result)
	}

	sends := f.mailer.sent()
	if len(sends) != 1 {
		t.Fatalf("sent %d replies, want 1", len(sends))
	}
	if sends[0].To != "Alex Doe <alex@example.com>" || sends[0].Subject != "Re: Server down" {
		t.Errorf("reply = %+v, want addressed to sender with Re: subject", sends[0])
	}

	found := false
	for _, r := range f.log.results() {
		if r == "Sent reply for email e1" {
			found = true
		}
	}
	if !found {
		t.Errorf("execution log %v missing reply entry", f.log.results())
	}

	if f.store.count() != 0 {
		t.Errorf("urgent email must not schedule a follow-up, store has %d jobs", f.store.count())
	}
}

func TestDeferredEmailSchedulesFollowUp(t *testing.T) {
	f := setup(t, []ScoredEmail{{
		ID:           "e2",
		Subject:      "Quarterly newsletter",
		From:         "news@example.com",
		Date:         "Mon, 01 Jan 2024 10:00:00 +0000",
		UrgencyScore: 8,
	}})

	if _, err := f.orch.RunEmailPipeline(context.Background(), 1, 2); err != nil {
		t.Fatalf("RunEmailPipeline() error = %v", err)
	}

	if len(f.mailer.sent()) != 0 {
		t.Errorf("deferred email must not get an immediate reply, sent %d", len(f.mailer.sent()))
	}

	job, _ := f.store.Get(context.Background(), "email_followup_e2")
	if job == nil {
		t.Fatal("follow-up job was not scheduled")
	}
	if job.Trigger.Type != model.TriggerAt {
		t.Errorf("trigger type = %q, want at", job.Trigger.Type)
	}
	want := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	if job.NextRun == nil || !job.NextRun.Equal(want) {
		t.Errorf("next_run = %v, want %v (received + 2h)", job.NextRun, want)
	}
	if job.Args["to"] != "news@example.com" {
		t.Errorf("job args = %v, want email context persisted", job.Args)
	}
}

func TestUnparsableDateFallsBackToNow(t *testing.T) {
	f := setup(t, []ScoredEmail{{
		ID:           "e3",
		Subject:      "FYI",
		From:         "fyi@example.com",
		Date:         "not a date",
		UrgencyScore: 9,
	}})

	before := time.Now().UTC()
	if _, err := f.orch.RunEmailPipeline(context.Background(), 1, 2); err != nil {
		t.Fatalf("RunEmailPipeline() error = %v", err)
	}

	job, _ := f.store.Get(context.Background(), "email_followup_e3")
	if job == nil || job.NextRun == nil {
		t.Fatal("follow-up job missing")
	}

	lo := before.Add(followUpDelay).Add(-time.Minute)
	hi := time.Now().UTC().Add(followUpDelay).Add(time.Minute)
	if job.NextRun.Before(lo) || job.NextRun.After(hi) {
		t.Errorf("next_run = %v, want roughly now + 2h", job.NextRun)
	}
}

func TestRescoringReplacesPendingFollowUp(t *testing.T) {
	f := setup(t, []ScoredEmail{{
		ID:           "e4",
		Subject:      "Later",
		From:         "later@example.com",
		UrgencyScore: 7,
	}})

	for i := 0; i < 2; i++ {
		if _, err := f.orch.RunEmailPipeline(context.Background(), 1, 2); err != nil {
			t.Fatalf("RunEmailPipeline() run %d error = %v", i, err)
		}
	}

	if got := f.store.count(); got != 1 {
		t.Errorf("store has %d jobs after rescoring, want 1", got)
	}
}

func TestFollowUpJobSendsReplyWhenDue(t *testing.T) {
	// An email received long ago is due immediately once scheduled.
	f := setup(t, []ScoredEmail{{
		ID:           "e5",
		Subject:      "Old thread",
		From:         "old@example.com",
		Body:         "Checking in",
		Date:         "Mon, 01 Jan 2024 10:00:00 +0000",
		UrgencyScore: 8,
	}})

	if _, err := f.orch.RunEmailPipeline(context.Background(), 1, 2); err != nil {
		t.Fatalf("RunEmailPipeline() error = %v", err)
	}

	if err := f.sched.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}

	waitFor(t, func() bool {
		j, _ := f.store.Get(context.Background(), "email_followup_e5")
		return j != nil && j.Status == model.JobStatusCompleted
	}, "follow-up job never completed")

	sends := f.mailer.sent()
	if len(sends) != 1 || sends[0].To != "old@example.com" || sends[0].Subject != "Re: Old thread" {
		t.Fatalf("sends = %+v, want one reply to the original sender", sends)
	}

	found := false
	for _, r := range f.log.results() {
		if r == "Sent reply for email e5" {
			found = true
		}
	}
	if !found {
		t.Errorf("execution log %v missing follow-up reply entry", f.log.results())
	}
}

func TestLegacyCrewKindIsMigrated(t *testing.T) {
	f := setup(t, nil)
	f.crews.crews[9] = &model.Crew{CrewID: 9, TenantID: 1, Kind: model.CrewKindLegacyEmail}

	runAt := time.Now().UTC().Add(-time.Minute)
	if _, err := f.sched.Schedule(context.Background(), scheduler.ScheduleRequest{
		JobID:     "crew_job_9",
		JobPrefix: "crew_job",
		FuncName:  model.FuncCrewJob,
		TenantID:  1,
		CrewID:    9,
		Trigger:   model.TriggerSpec{Type: model.TriggerAt, RunAt: runAt},
	}); err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}

	if err := f.sched.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}

	waitFor(t, func() bool {
		crew, _ := f.crews.Get(context.Background(), 9)
		return crew != nil && crew.Kind == model.CrewKindEmail
	}, "legacy crew kind was not migrated")

	if f.scorer.calls == 0 {
		t.Error("migrated crew did not run the email pipeline")
	}
}

func TestScorerFailurePropagates(t *testing.T) {
	f := setup(t, nil)
	f.scorer.err = errors.New("gmail unavailable")

	_, err := f.orch.RunEmailPipeline(context.Background(), 1, 2)
	if err == nil || !strings.Contains(err.Error(), "gmail unavailable") {
		t.Errorf("RunEmailPipeline() error = %v, want scorer failure", err)
	}
}

package orchestrator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/forgo/maestro/internal/model"
	"github.com/forgo/maestro/internal/scheduler"
)

// CrewRepository defines crew data access used by the orchestrator
type CrewRepository interface {
	Get(ctx context.Context, crewID int) (*model.Crew, error)
	UpdateKind(ctx context.Context, crewID int, kind string) error
}

// EmailScorer fetches a tenant's recent inbox and scores each message for
// urgency on a 0..10 scale. Lower means more urgent.
type EmailScorer interface {
	ScoreRecentEmails(ctx context.Context, tenantID int) ([]ScoredEmail, error)
}

// ReplyDrafter produces a reply body for an email
type ReplyDrafter interface {
	DraftReply(ctx context.Context, tenantID int, email ScoredEmail) (string, error)
}

// Mailer sends a drafted reply
type Mailer interface {
	SendReply(ctx context.Context, tenantID int, to, subject, body string) error
}

// ContentRunner runs a non-email crew kind (calendar, linkedin content)
type ContentRunner interface {
	Run(ctx context.Context, tenantID, crewID int) (string, error)
}

// RunnerFunc adapts a function to the ContentRunner interface
type RunnerFunc func(ctx context.Context, tenantID, crewID int) (string, error)

// Run implements ContentRunner
func (f RunnerFunc) Run(ctx context.Context, tenantID, crewID int) (string, error) {
	return f(ctx, tenantID, crewID)
}

// Orchestrator maps crew kinds to work functions and owns the email
// urgency pipeline. The kind set is closed; anything outside it is an
// invocation error.
type Orchestrator struct {
	sched    *scheduler.Scheduler
	crews    CrewRepository
	log      scheduler.ExecutionLog
	scorer   EmailScorer
	drafter  ReplyDrafter
	mailer   Mailer
	calendar ContentRunner
	linkedin ContentRunner
}

// Config holds configuration for the orchestrator
type Config struct {
	Scheduler *scheduler.Scheduler
	CrewRepo  CrewRepository
	Log       scheduler.ExecutionLog
	Scorer    EmailScorer
	Drafter   ReplyDrafter
	Mailer    Mailer
	Calendar  ContentRunner
	LinkedIn  ContentRunner
}

// New creates an orchestrator and registers its work functions with the
// scheduler, so persisted jobs referencing them resolve on the next scan.
func New(cfg Config) *Orchestrator {
	o := &Orchestrator{
		sched:    cfg.Scheduler,
		crews:    cfg.CrewRepo,
		log:      cfg.Log,
		scorer:   cfg.Scorer,
		drafter:  cfg.Drafter,
		mailer:   cfg.Mailer,
		calendar: cfg.Calendar,
		linkedin: cfg.LinkedIn,
	}

	o.sched.Register(model.FuncCrewJob, o.runCrewJob)
	o.sched.Register(model.FuncEmailFollowup, o.runEmailFollowup)

	return o
}

// runCrewJob resolves the crew's kind and dispatches to the matching work
// function. A crew still carrying the deprecated "email" kind is migrated
// in place first; the rewrite is idempotent.
func (o *Orchestrator) runCrewJob(ctx context.Context, inv scheduler.Invocation) (string, error) {
	crew, err := o.crews.Get(ctx, inv.CrewID)
	if err != nil {
		return "", fmt.Errorf("loading crew %d: %w", inv.CrewID, err)
	}
	if crew == nil {
		return "", fmt.Errorf("crew %d not found", inv.CrewID)
	}

	kind := crew.Kind
	if kind == model.CrewKindLegacyEmail {
		if err := o.crews.UpdateKind(ctx, crew.CrewID, model.CrewKindEmail); err != nil {
			return "", fmt.Errorf("migrating crew %d kind: %w", crew.CrewID, err)
		}
		kind = model.CrewKindEmail
		slog.Info("migrated legacy crew kind",
			slog.Int("crew_id", crew.CrewID),
			slog.String("kind", kind),
		)
	}

	switch kind {
	case model.CrewKindEmail:
		return o.RunEmailPipeline(ctx, inv.TenantID, inv.CrewID)
	case model.CrewKindCalendar:
		return o.calendar.Run(ctx, inv.TenantID, inv.CrewID)
	case model.CrewKindLinkedIn:
		return o.linkedin.Run(ctx, inv.TenantID, inv.CrewID)
	}
	return "", fmt.Errorf("crew %d has unknown kind %q", crew.CrewID, kind)
}

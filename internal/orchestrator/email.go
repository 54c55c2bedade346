package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"time"

	"github.com/forgo/maestro/internal/model"
	"github.com/forgo/maestro/internal/scheduler"
)

const (
	// urgencyThreshold splits the pipeline: scores below it get an
	// immediate reply, scores at or above it get a deferred follow-up.
	// Lower score means more urgent.
	urgencyThreshold = 5

	// followUpDelay is how long after receipt a deferred email waits
	followUpDelay = 2 * time.Hour
)

// ScoredEmail is one inbox message with its urgency score
type ScoredEmail struct {
	ID           string `json:"id"`
	Subject      string `json:"subject"`
	From         string `json:"from"`
	Body         string `json:"body"`
	Date         string `json:"date"` // raw Date header
	UrgencyScore int    `json:"urgency_score"`
}

// RunEmailPipeline scores the tenant's recent inbox and branches on
// urgency: urgent emails are answered immediately, the rest get a one-off
// follow-up job two hours after receipt. Per-email failures are logged and
// do not stop the batch.
func (o *Orchestrator) RunEmailPipeline(ctx context.Context, tenantID, crewID int) (string, error) {
	emails, err := o.scorer.ScoreRecentEmails(ctx, tenantID)
	if err != nil {
		return "", fmt.Errorf("scoring recent emails: %w", err)
	}

	var urgent, deferred, failed int
	for _, email := range emails {
		if email.UrgencyScore < urgencyThreshold {
			if err := o.replyNow(ctx, tenantID, email); err != nil {
				failed++
				o.logEmailFailure(ctx, tenantID, email, err)
				continue
			}
			urgent++
		} else {
			if err := o.scheduleFollowUp(ctx, tenantID, crewID, email); err != nil {
				failed++
				o.logEmailFailure(ctx, tenantID, email, err)
				continue
			}
			deferred++
		}
	}

	return fmt.Sprintf("processed %d emails: %d urgent replies, %d follow-ups scheduled, %d failed",
		len(emails), urgent, deferred, failed), nil
}

// replyNow drafts and sends a reply synchronously
func (o *Orchestrator) replyNow(ctx context.Context, tenantID int, email ScoredEmail) error {
	body, err := o.drafter.DraftReply(ctx, tenantID, email)
	if err != nil {
		return fmt.Errorf("drafting reply: %w", err)
	}
	if err := o.mailer.SendReply(ctx, tenantID, email.From, "Re: "+email.Subject, body); err != nil {
		return fmt.Errorf("sending reply: %w", err)
	}

	if err := o.log.Append(ctx, &model.ExecutionLogEntry{
		Timestamp: time.Now().UTC(),
		TenantID:  tenantID,
		JobID:     "email_reply_" + email.ID,
		Result:    fmt.Sprintf("Sent reply for email %s", email.ID),
	}); err != nil {
		slog.Error("appending execution log", slog.Int("tenant_id", tenantID), slog.Any("error", err))
	}
	return nil
}

// scheduleFollowUp registers a one-off job at received time + 2h. The
// email's context is persisted in the job args so the follow-up survives a
// restart. Re-scoring the same email replaces its pending follow-up.
func (o *Orchestrator) scheduleFollowUp(ctx context.Context, tenantID, crewID int, email ScoredEmail) error {
	runAt := receivedTime(email.Date).Add(followUpDelay)
	jobID := "email_followup_" + email.ID

	_, err := o.sched.Schedule(ctx, scheduler.ScheduleRequest{
		JobID:     jobID,
		JobPrefix: "email_followup",
		FuncName:  model.FuncEmailFollowup,
		TenantID:  tenantID,
		CrewID:    crewID,
		Trigger:   model.TriggerSpec{Type: model.TriggerAt, RunAt: runAt},
		Args: map[string]string{
			"email_id": email.ID,
			"to":       email.From,
			"subject":  email.Subject,
			"body":     email.Body,
		},
		ReplaceExisting: true,
	})
	if err != nil {
		return fmt.Errorf("scheduling follow-up: %w", err)
	}

	if err := o.log.Append(ctx, &model.ExecutionLogEntry{
		Timestamp: time.Now().UTC(),
		TenantID:  tenantID,
		JobID:     jobID,
		Result:    fmt.Sprintf("Scheduled follow-up for email %s at %s", email.ID, runAt.UTC().Format(time.RFC3339)),
	}); err != nil {
		slog.Error("appending execution log", slog.Int("tenant_id", tenantID), slog.Any("error", err))
	}
	return nil
}

// runEmailFollowup fires when a deferred email's follow-up comes due. The
// email context is rebuilt from the persisted job args.
func (o *Orchestrator) runEmailFollowup(ctx context.Context, inv scheduler.Invocation) (string, error) {
	email := ScoredEmail{
		ID:      inv.Args["email_id"],
		From:    inv.Args["to"],
		Subject: inv.Args["subject"],
		Body:    inv.Args["body"],
	}
	if email.ID == "" || email.From == "" {
		return "", fmt.Errorf("follow-up job %s has no email context", inv.JobID)
	}

	body, err := o.drafter.DraftReply(ctx, inv.TenantID, email)
	if err != nil {
		return "", fmt.Errorf("drafting reply: %w", err)
	}
	if err := o.mailer.SendReply(ctx, inv.TenantID, email.From, "Re: "+email.Subject, body); err != nil {
		return "", fmt.Errorf("sending reply: %w", err)
	}

	return fmt.Sprintf("Sent reply for email %s", email.ID), nil
}

func (o *Orchestrator) logEmailFailure(ctx context.Context, tenantID int, email ScoredEmail, failure error) {
	slog.Error("email pipeline step failed",
		slog.Int("tenant_id", tenantID),
		slog.String("email_id", email.ID),
		slog.Any("error", failure),
	)
	if err := o.log.Append(ctx, &model.ExecutionLogEntry{
		Timestamp: time.Now().UTC(),
		TenantID:  tenantID,
		JobID:     "email_reply_" + email.ID,
		Error:     failure.Error(),
	}); err != nil {
		slog.Error("appending execution log", slog.Int("tenant_id", tenantID), slog.Any("error", err))
	}
}

// receivedTime parses an RFC 5322 Date header. Unparsable dates fall back
// to now, so a malformed header still produces a follow-up roughly two
// hours out.
func receivedTime(date string) time.Time {
	if date == "" {
		return time.Now().UTC()
	}
	t, err := mail.ParseDate(date)
	if err != nil {
		return time.Now().UTC()
	}
	return t.UTC()
}

// Package orchestrator maps crews to work functions and runs the email
// urgency pipeline.
//
// # Crew Kinds
//
// The kind set is closed: email_scoring_and_reply, calendar and
// linkedin_content. The deprecated "email" literal found in old crew
// records is rewritten to email_scoring_and_reply the first time the crew
// runs; the migration is idempotent.
//
// # Email Pipeline
//
// Each run scores the tenant's recent inbox (0..10, lower is more
// urgent) and branches per email:
//
//   - score < 5: draft and send a reply immediately
//   - score >= 5: schedule a one-off follow-up at the email's received
//     time plus two hours (now plus two hours when the Date header is
//     unparsable), job id email_followup_{id}, replacing any pending
//     follow-up for the same email
//
// The follow-up job carries the email's context in its persisted args, so
// it survives restarts and drafts the reply when it fires. Every outcome
// lands in the execution log.
//
// # Collaborators
//
// Scoring, drafting, sending and content generation are consumed through
// narrow interfaces (EmailScorer, ReplyDrafter, Mailer, ContentRunner) so
// the pipeline is testable with fakes and the backing integrations can be
// swapped in wiring.
package orchestrator

// Package google integrates Gmail and Google Calendar.
//
// The Client wraps the REST APIs behind a TokenSource, so every request
// rides on a per-tenant access token that refreshes transparently. On top
// of it sit the Scorer (keyword-heuristic inbox urgency, feeding the email
// pipeline) and the CalendarRunner (upcoming-event review for calendar
// crews). The Client itself satisfies the pipeline's Mailer contract via
// SendReply.
package google

package google

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// reviewWindow is how far ahead a calendar crew run looks
const reviewWindow = 24 * time.Hour

// CalendarRunner reviews a tenant's upcoming schedule. It satisfies the
// orchestrator's ContentRunner contract for calendar crews.
type CalendarRunner struct {
	client *Client
}

// NewCalendarRunner creates a calendar runner
func NewCalendarRunner(client *Client) *CalendarRunner {
	return &CalendarRunner{client: client}
}

// Run fetches the next day's events and reports a summary
func (r *CalendarRunner) Run(ctx context.Context, tenantID, _ int) (string, error) {
	events, err := r.client.UpcomingEvents(ctx, tenantID, reviewWindow)
	if err != nil {
		return "", fmt.Errorf("reviewing calendar: %w", err)
	}
	if len(events) == 0 {
		return "no events in the next 24 hours", nil
	}

	titles := make([]string, 0, len(events))
	for _, ev := range events {
		title := ev.Summary
		if title == "" {
			title = "(untitled)"
		}
		titles = append(titles, title)
	}
	return fmt.Sprintf("reviewed %d upcoming events: %s", len(events), strings.Join(titles, ", ")), nil
}

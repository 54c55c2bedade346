package google

import (
	"context"
	"strings"

	"github.com/forgo/maestro/internal/orchestrator"
)

// defaultMaxMessages caps how many inbox messages one scoring pass reads
const defaultMaxMessages = 25

// Keyword weights for the urgency heuristic. Lower final score means more
// urgent; the scale is 0..10.
var (
	urgentKeywords = []string{
		"urgent", "asap", "immediately", "critical", "emergency",
		"outage", "down", "broken", "failed", "deadline", "overdue",
	}
	bulkKeywords = []string{
		"newsletter", "unsubscribe", "digest", "no-reply", "noreply",
		"promotion", "sale", "webinar",
	}
)

// Scorer scores a tenant's recent inbox by keyword heuristic
type Scorer struct {
	client *Client
	max    int
}

// NewScorer creates a scorer reading through the given client
func NewScorer(client *Client) *Scorer {
	return &Scorer{client: client, max: defaultMaxMessages}
}

// ScoreRecentEmails implements orchestrator.EmailScorer
func (s *Scorer) ScoreRecentEmails(ctx context.Context, tenantID int) ([]orchestrator.ScoredEmail, error) {
	messages, err := s.client.ListRecentMessages(ctx, tenantID, s.max)
	if err != nil {
		return nil, err
	}

	scored := make([]orchestrator.ScoredEmail, 0, len(messages))
	for _, msg := range messages {
		scored = append(scored, orchestrator.ScoredEmail{
			ID:           msg.ID,
			Subject:      msg.Subject,
			From:         msg.From,
			Body:         msg.Body,
			Date:         msg.Date,
			UrgencyScore: scoreMessage(msg),
		})
	}
	return scored, nil
}

// scoreMessage rates one message 0 (most urgent) to 10 (ignorable).
// Everything starts at a neutral 7; urgent keywords pull the score down,
// bulk-mail markers push it up.
func scoreMessage(msg Message) int {
	text := strings.ToLower(msg.Subject + " " + msg.From + " " + msg.Body)

	score := 7
	for _, kw := range urgentKeywords {
		if strings.Contains(text, kw) {
			score -= 3
		}
	}
	for _, kw := range bulkKeywords {
		if strings.Contains(text, kw) {
			score += 2
		}
	}

	// A question aimed directly at the recipient reads as actionable.
	if strings.Contains(text, "?") {
		score--
	}

	if score < 0 {
		return 0
	}
	if score > 10 {
		return 10
	}
	return score
}

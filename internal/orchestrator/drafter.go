package orchestrator

import (
	"context"
	"fmt"
	"strings"
)

// TemplateDrafter produces reply bodies from a fixed acknowledgement
// template. It stands in wherever no generative drafting backend is wired.
type TemplateDrafter struct {
	// Signature is appended to every reply when set.
	Signature string
}

// DraftReply implements ReplyDrafter
func (d *TemplateDrafter) DraftReply(_ context.Context, _ int, email ScoredEmail) (string, error) {
	name := senderName(email.From)

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", name)
	fmt.Fprintf(&b, "Thanks for your message regarding %q. ", strings.TrimSpace(email.Subject))
	b.WriteString("I've received it and will get back to you with a full answer shortly.\n")
	if d.Signature != "" {
		b.WriteString("\n")
		b.WriteString(d.Signature)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// senderName extracts a display name from a From header, falling back to
// the mailbox local part.
func senderName(from string) string {
	from = strings.TrimSpace(from)
	if i := strings.Index(from, "<"); i > 0 {
		if name := strings.Trim(strings.TrimSpace(from[:i]), `"`); name != "" {
			return name
		}
		from = strings.Trim(from[i:], "<>")
	}
	if i := strings.Index(from, "@"); i > 0 {
		return from[:i]
	}
	if from == "" {
		return "there"
	}
	return from
}

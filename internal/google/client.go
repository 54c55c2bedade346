package google

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/forgo/maestro/internal/model"
)

const (
	defaultGmailBaseURL    = "https://gmail.googleapis.com/gmail/v1"
	defaultCalendarBaseURL = "https://www.googleapis.com/calendar/v3"

	// recentWindow limits inbox scans to messages from the last day
	recentWindow = "newer_than:1d"
)

// TokenSource supplies a valid access token per tenant, refreshing behind
// the scenes when needed.
type TokenSource interface {
	GetValidToken(ctx context.Context, tenantID int, provider model.Provider) (*model.Token, error)
}

// Client talks to the Gmail and Calendar REST APIs on behalf of a tenant
type Client struct {
	tokens          TokenSource
	httpClient      *http.Client
	gmailBaseURL    string
	calendarBaseURL string
}

// ClientConfig holds configuration for the client
type ClientConfig struct {
	Tokens          TokenSource
	GmailBaseURL    string // default production endpoint
	CalendarBaseURL string // default production endpoint
}

// NewClient creates a Google API client
func NewClient(cfg ClientConfig) *Client {
	if cfg.GmailBaseURL == "" {
		cfg.GmailBaseURL = defaultGmailBaseURL
	}
	if cfg.CalendarBaseURL == "" {
		cfg.CalendarBaseURL = defaultCalendarBaseURL
	}
	return &Client{
		tokens:          cfg.Tokens,
		httpClient:      &http.Client{Timeout: 30 * time.Second},
		gmailBaseURL:    cfg.GmailBaseURL,
		calendarBaseURL: cfg.CalendarBaseURL,
	}
}

// Message is one inbox message with its interesting headers extracted
type Message struct {
	ID      string
	Subject string
	From    string
	Date    string
	Snippet string
	Body    string
}

// ListRecentMessages fetches up to max inbox messages from the last day
func (c *Client) ListRecentMessages(ctx context.Context, tenantID, max int) ([]Message, error) {
	params := url.Values{}
	params.Set("maxResults", fmt.Sprintf("%d", max))
	params.Set("q", "in:inbox "+recentWindow)

	var list struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	if err := c.get(ctx, tenantID, c.gmailBaseURL+"/users/me/messages?"+params.Encode(), &list); err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}

	messages := make([]Message, 0, len(list.Messages))
	for _, ref := range list.Messages {
		msg, err := c.getMessage(ctx, tenantID, ref.ID)
		if err != nil {
			return nil, fmt.Errorf("fetching message %s: %w", ref.ID, err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// gmailMessage is the subset of the Gmail message resource we read
type gmailMessage struct {
	ID      string `json:"id"`
	Snippet string `json:"snippet"`
	Payload struct {
		MimeType string `json:"mimeType"`
		Headers  []struct {
			Name  string `json:"name"`
			Value string `json:"value"`
		} `json:"headers"`
		Body struct {
			Data string `json:"data"`
		} `json:"body"`
		Parts []struct {
			MimeType string `json:"mimeType"`
			Body     struct {
				Data string `json:"data"`
			} `json:"body"`
		} `json:"parts"`
	} `json:"payload"`
}

func (c *Client) getMessage(ctx context.Context, tenantID int, id string) (Message, error) {
	var raw gmailMessage
	if err := c.get(ctx, tenantID, c.gmailBaseURL+"/users/me/messages/"+id+"?format=full", &raw); err != nil {
		return Message{}, err
	}

	msg := Message{ID: raw.ID, Snippet: raw.Snippet}
	for _, h := range raw.Payload.Headers {
		switch strings.ToLower(h.Name) {
		case "subject":
			msg.Subject = h.Value
		case "from":
			msg.From = h.Value
		case "date":
			msg.Date = h.Value
		}
	}
	msg.Body = messageBody(raw)
	return msg, nil
}

// messageBody extracts the text/plain body, falling back to the snippet
func messageBody(raw gmailMessage) string {
	decode := func(data string) string {
		b, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(data)
		if err != nil {
			return ""
		}
		return string(b)
	}

	if raw.Payload.MimeType == "text/plain" && raw.Payload.Body.Data != "" {
		if body := decode(raw.Payload.Body.Data); body != "" {
			return body
		}
	}
	for _, part := range raw.Payload.Parts {
		if part.MimeType == "text/plain" && part.Body.Data != "" {
			if body := decode(part.Body.Data); body != "" {
				return body
			}
		}
	}
	return raw.Snippet
}

// SendReply sends an RFC 822 plain-text reply through the tenant's mailbox
func (c *Client) SendReply(ctx context.Context, tenantID int, to, subject, body string) error {
	var rfc822 bytes.Buffer
	fmt.Fprintf(&rfc822, "To: %s\r\n", to)
	fmt.Fprintf(&rfc822, "Subject: %s\r\n", subject)
	rfc822.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	rfc822.WriteString("\r\n")
	rfc822.WriteString(body)

	payload := map[string]string{
		"raw": base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(rfc822.Bytes()),
	}
	if err := c.post(ctx, tenantID, c.gmailBaseURL+"/users/me/messages/send", payload, nil); err != nil {
		return fmt.Errorf("sending reply: %w", err)
	}
	return nil
}

// Event is one upcoming calendar event
type Event struct {
	ID      string `json:"id"`
	Summary string `json:"summary"`
	Start   struct {
		DateTime string `json:"dateTime"`
		Date     string `json:"date"`
	} `json:"start"`
}

// UpcomingEvents lists primary-calendar events starting within the window
func (c *Client) UpcomingEvents(ctx context.Context, tenantID int, window time.Duration) ([]Event, error) {
	now := time.Now().UTC()
	params := url.Values{}
	params.Set("timeMin", now.Format(time.RFC3339))
	params.Set("timeMax", now.Add(window).Format(time.RFC3339))
	params.Set("singleEvents", "true")
	params.Set("orderBy", "startTime")

	var list struct {
		Items []Event `json:"items"`
	}
	if err := c.get(ctx, tenantID, c.calendarBaseURL+"/calendars/primary/events?"+params.Encode(), &list); err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	return list.Items, nil
}

func (c *Client) get(ctx context.Context, tenantID int, url string, out any) error {
	return c.do(ctx, tenantID, http.MethodGet, url, nil, out)
}

func (c *Client) post(ctx context.Context, tenantID int, url string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	return c.do(ctx, tenantID, http.MethodPost, url, body, out)
}

// do issues an authenticated request, fetching a valid token first
func (c *Client) do(ctx context.Context, tenantID int, method, url string, body []byte, out any) error {
	tok, err := c.tokens.GetValidToken(ctx, tenantID, model.ProviderGoogle)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("google api status %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

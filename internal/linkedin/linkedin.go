// Package linkedin posts member content through the LinkedIn REST API.
//
// The ContentRunner generates a short post per crew run and publishes it
// under the tenant's member URN, riding on the same per-tenant token flow
// as the Google integrations.
package linkedin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/forgo/maestro/internal/model"
)

const defaultBaseURL = "https://api.linkedin.com/v2"

// TokenSource supplies a valid access token per tenant
type TokenSource interface {
	GetValidToken(ctx context.Context, tenantID int, provider model.Provider) (*model.Token, error)
}

// ContentComposer produces the text of a post. Swappable so generative
// backends can replace the default template.
type ContentComposer interface {
	Compose(ctx context.Context, tenantID int) (string, error)
}

// ComposerFunc adapts a function to the ContentComposer interface
type ComposerFunc func(ctx context.Context, tenantID int) (string, error)

// Compose implements ContentComposer
func (f ComposerFunc) Compose(ctx context.Context, tenantID int) (string, error) {
	return f(ctx, tenantID)
}

// ContentRunner publishes one post per crew run
type ContentRunner struct {
	tokens     TokenSource
	composer   ContentComposer
	httpClient *http.Client
	baseURL    string
}

// ContentRunnerConfig holds configuration for the content runner
type ContentRunnerConfig struct {
	Tokens   TokenSource
	Composer ContentComposer // default template composer when nil
	BaseURL  string          // default production endpoint
}

// NewContentRunner creates a LinkedIn content runner
func NewContentRunner(cfg ContentRunnerConfig) *ContentRunner {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Composer == nil {
		cfg.Composer = ComposerFunc(defaultCompose)
	}
	return &ContentRunner{
		tokens:     cfg.Tokens,
		composer:   cfg.Composer,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    cfg.BaseURL,
	}
}

// defaultCompose is the stand-in composer used until a generative backend
// is wired.
func defaultCompose(_ context.Context, _ int) (string, error) {
	return fmt.Sprintf("Weekly update for %s: shipping steadily and learning as we go.",
		time.Now().UTC().Format("January 2006")), nil
}

// Run implements the orchestrator's ContentRunner contract: compose a post
// and publish it under the tenant's member URN.
func (r *ContentRunner) Run(ctx context.Context, tenantID, _ int) (string, error) {
	tok, err := r.tokens.GetValidToken(ctx, tenantID, model.ProviderLinkedIn)
	if err != nil {
		return "", err
	}

	text, err := r.composer.Compose(ctx, tenantID)
	if err != nil {
		return "", fmt.Errorf("composing post: %w", err)
	}

	member, err := r.memberURN(ctx, tok.AccessToken)
	if err != nil {
		return "", err
	}

	postID, err := r.publish(ctx, tok.AccessToken, member, text)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("published post %s (%d characters)", postID, len(text)), nil
}

// memberURN resolves the authenticated member id via the userinfo endpoint
func (r *ContentRunner) memberURN(ctx context.Context, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/userinfo", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching member info: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading member info: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("linkedin userinfo status %d: %s", resp.StatusCode, string(body))
	}

	var info struct {
		Sub string `json:"sub"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return "", fmt.Errorf("decoding member info: %w", err)
	}
	if info.Sub == "" {
		return "", fmt.Errorf("linkedin userinfo returned no member id")
	}
	return "urn:li:person:" + info.Sub, nil
}

// publish creates a PUBLISHED ugcPost with the given text
func (r *ContentRunner) publish(ctx context.Context, accessToken, author, text string) (string, error) {
	payload := map[string]any{
		"author":         author,
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]any{
			"com.linkedin.ugc.ShareContent": map[string]any{
				"shareCommentary":    map[string]string{"text": text},
				"shareMediaCategory": "NONE",
			},
		},
		"visibility": map[string]string{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding post: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/ugcPosts", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("publishing post: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading post response: %w", err)
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("linkedin post status %d: %s", resp.StatusCode, string(respBody))
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &created); err != nil {
		return "", fmt.Errorf("decoding post response: %w", err)
	}
	return created.ID, nil
}

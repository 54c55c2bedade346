package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/forgo/maestro/internal/model"
	"github.com/forgo/maestro/internal/vault"
)

const (
	// stateTTL bounds how long an issued consent state stays valid.
	stateTTL = 10 * time.Minute

	// refreshBuffer triggers a proactive refresh before actual expiry, so
	// callers never receive a token about to die mid-request.
	refreshBuffer = 5 * time.Minute
)

var providerScopes = map[model.Provider][]string{
	model.ProviderGoogle: {
		"https://www.googleapis.com/auth/gmail.modify",
		"https://www.googleapis.com/auth/calendar",
	},
	model.ProviderLinkedIn: {"openid", "profile", "w_member_social"},
}

// OAuthStateRepository defines consent state storage used by the handshake
type OAuthStateRepository interface {
	Put(ctx context.Context, state *model.OAuthState) error
	Get(ctx context.Context, tenantID int, provider model.Provider) (*model.OAuthState, error)
	Delete(ctx context.Context, tenantID int, provider model.Provider) error
}

// HandshakeService drives the OAuth consent flow per (tenant, provider):
// issue a single-use state, exchange the returned code for tokens, and
// keep access tokens fresh for callers.
type HandshakeService struct {
	vault         *vault.Vault
	tenants       TenantRepository
	states        OAuthStateRepository
	redirectURL   string
	googleAuthURI string
	httpClient    *http.Client
}

// HandshakeServiceConfig holds configuration for the handshake service
type HandshakeServiceConfig struct {
	Vault         *vault.Vault
	TenantRepo    TenantRepository
	StateRepo     OAuthStateRepository
	RedirectURL   string
	GoogleAuthURI string // default Google authorization endpoint when empty
}

// NewHandshakeService creates a new handshake service
func NewHandshakeService(cfg HandshakeServiceConfig) *HandshakeService {
	if cfg.GoogleAuthURI == "" {
		cfg.GoogleAuthURI = "https://accounts.google.com/o/oauth2/auth"
	}
	return &HandshakeService{
		vault:         cfg.Vault,
		tenants:       cfg.TenantRepo,
		states:        cfg.StateRepo,
		redirectURL:   cfg.RedirectURL,
		googleAuthURI: cfg.GoogleAuthURI,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// AuthBegin is the start of a consent flow
type AuthBegin struct {
	URL   string `json:"url"`
	State string `json:"state"`
}

// BeginAuth issues a fresh state token and builds the provider
// authorization URL. Issuing a new state replaces any previous one for the
// same (tenant, provider) pair.
func (s *HandshakeService) BeginAuth(ctx context.Context, tenantID int, provider model.Provider) (*AuthBegin, error) {
	if !provider.Valid() {
		return nil, ErrUnknownProvider
	}

	_, pc, err := s.loadProvider(ctx, tenantID, provider)
	if err != nil {
		return nil, err
	}

	state := uuid.NewString()
	if err := s.states.Put(ctx, &model.OAuthState{
		TenantID:  tenantID,
		Provider:  provider,
		State:     state,
		ExpiresAt: time.Now().UTC().Add(stateTTL),
	}); err != nil {
		return nil, err
	}

	authURI := pc.Config.AuthURI
	if authURI == "" && provider == model.ProviderGoogle {
		authURI = s.googleAuthURI
	}

	params := url.Values{}
	params.Set("client_id", pc.Config.ClientID)
	params.Set("redirect_uri", s.redirectURL)
	params.Set("response_type", "code")
	params.Set("scope", strings.Join(providerScopes[provider], " "))
	params.Set("state", state)
	if provider == model.ProviderGoogle {
		// Offline access with forced consent guarantees a refresh token.
		params.Set("access_type", "offline")
		params.Set("prompt", "consent")
	}

	return &AuthBegin{
		URL:   authURI + "?" + params.Encode(),
		State: state,
	}, nil
}

// CompleteAuth validates the returned state, exchanges the code for tokens
// and persists them encrypted. The state is deleted before the exchange so
// it can never be accepted twice.
func (s *HandshakeService) CompleteAuth(ctx context.Context, tenantID int, provider model.Provider, code, state string) error {
	if !provider.Valid() {
		return ErrUnknownProvider
	}

	stored, err := s.states.Get(ctx, tenantID, provider)
	if err != nil {
		return err
	}
	if stored == nil || stored.State != state {
		return fmt.Errorf("%w: state mismatch", ErrInvalidState)
	}

	now := time.Now().UTC()
	if stored.Expired(now) {
		_ = s.states.Delete(ctx, tenantID, provider)
		return fmt.Errorf("%w: state expired", ErrInvalidState)
	}

	// Single use: gone before we talk to the provider.
	if err := s.states.Delete(ctx, tenantID, provider); err != nil {
		return err
	}

	tenant, pc, err := s.loadProvider(ctx, tenantID, provider)
	if err != nil {
		return err
	}

	data := url.Values{}
	data.Set("code", code)
	data.Set("client_id", pc.Config.ClientID)
	data.Set("client_secret", pc.Config.ClientSecret)
	data.Set("redirect_uri", s.redirectURL)
	data.Set("grant_type", "authorization_code")

	resp, err := s.exchange(ctx, pc.Config.TokenURI, data)
	if err != nil {
		return err
	}

	pc.Token = &model.Token{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		Expiry:       now.Add(time.Duration(resp.ExpiresIn) * time.Second),
		TokenType:    resp.TokenType,
		Scopes:       strings.Fields(resp.Scope),
	}

	if err := s.saveProvider(ctx, tenant, provider, pc); err != nil {
		return err
	}

	slog.Info("oauth flow completed",
		slog.Int("tenant_id", tenantID),
		slog.String("provider", string(provider)),
	)
	return nil
}

// GetValidToken returns a token guaranteed to outlive the refresh buffer.
// A token within the buffer is refreshed synchronously and persisted; an
// expired token without a refresh token fails with ErrExpiredCredentials.
func (s *HandshakeService) GetValidToken(ctx context.Context, tenantID int, provider model.Provider) (*model.Token, error) {
	if !provider.Valid() {
		return nil, ErrUnknownProvider
	}

	tenant, pc, err := s.loadProvider(ctx, tenantID, provider)
	if err != nil {
		return nil, err
	}
	if pc.Token == nil {
		return nil, fmt.Errorf("%w: no token for %s", ErrMissingCredentials, provider)
	}

	now := time.Now().UTC()
	if !pc.Token.ExpiresWithin(refreshBuffer, now) {
		return pc.Token, nil
	}

	if pc.Token.RefreshToken == "" {
		return nil, fmt.Errorf("%w: token expired and no refresh token for %s", ErrExpiredCredentials, provider)
	}

	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", pc.Token.RefreshToken)
	data.Set("client_id", pc.Config.ClientID)
	data.Set("client_secret", pc.Config.ClientSecret)

	resp, err := s.exchange(ctx, pc.Config.TokenURI, data)
	if err != nil {
		return nil, err
	}

	pc.Token.AccessToken = resp.AccessToken
	pc.Token.Expiry = now.Add(time.Duration(resp.ExpiresIn) * time.Second)
	if resp.RefreshToken != "" {
		// Providers may rotate the refresh token; keep the old one otherwise.
		pc.Token.RefreshToken = resp.RefreshToken
	}
	if resp.TokenType != "" {
		pc.Token.TokenType = resp.TokenType
	}

	if err := s.saveProvider(ctx, tenant, provider, pc); err != nil {
		return nil, err
	}

	slog.Info("token refreshed",
		slog.Int("tenant_id", tenantID),
		slog.String("provider", string(provider)),
		slog.Time("expiry", pc.Token.Expiry),
	)
	return pc.Token, nil
}

// tokenResponse is the provider token endpoint body, for both the code
// exchange and the refresh grant.
type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	ExpiresIn        int    `json:"expires_in"`
	TokenType        string `json:"token_type"`
	Scope            string `json:"scope"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// exchange POSTs a form to the provider token endpoint. A provider-reported
// error field means the grant itself was rejected (ErrInvalidGrant); any
// transport or protocol failure is ErrTokenExchange.
func (s *HandshakeService) exchange(ctx context.Context, tokenURI string, data url.Values) (*tokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURI, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrTokenExchange, err)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("%w: status %d: %s", ErrTokenExchange, resp.StatusCode, string(body))
	}

	if tr.Error != "" {
		return nil, fmt.Errorf("%w: %s: %s", ErrInvalidGrant, tr.Error, tr.ErrorDescription)
	}
	if resp.StatusCode != http.StatusOK || tr.AccessToken == "" {
		return nil, fmt.Errorf("%w: status %d: %s", ErrTokenExchange, resp.StatusCode, string(body))
	}

	return &tr, nil
}

// loadProvider loads a tenant and its decrypted credential entry for the
// provider, requiring a client configuration to be present.
func (s *HandshakeService) loadProvider(ctx context.Context, tenantID int, provider model.Provider) (*model.Tenant, *model.ProviderCredential, error) {
	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, nil, err
	}
	if tenant == nil {
		return nil, nil, ErrTenantNotFound
	}

	creds, err := loadCredentials(s.vault, tenant)
	if err != nil {
		return nil, nil, err
	}

	pc := creds.ForProvider(provider)
	if pc == nil || pc.Config == nil {
		return nil, nil, fmt.Errorf("%w: no %s client configuration", ErrMissingCredentials, provider)
	}
	return tenant, pc, nil
}

// saveProvider re-encrypts the credential structure with the updated
// provider entry and persists it.
func (s *HandshakeService) saveProvider(ctx context.Context, tenant *model.Tenant, provider model.Provider, pc *model.ProviderCredential) error {
	creds, err := loadCredentials(s.vault, tenant)
	if err != nil {
		return err
	}
	creds.SetProvider(provider, pc)

	encrypted, err := s.vault.Encrypt(creds)
	if err != nil {
		return err
	}
	if err := s.tenants.UpdateCredentials(ctx, tenant.TenantID, encrypted); err != nil {
		return err
	}
	tenant.Credentials = encrypted
	return nil
}

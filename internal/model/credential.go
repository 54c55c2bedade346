package model

import "time"

// Provider identifies an OAuth provider
type Provider string

const (
	ProviderGoogle   Provider = "google"
	ProviderLinkedIn Provider = "linkedin"
)

// Valid reports whether p is a known provider
func (p Provider) Valid() bool {
	return p == ProviderGoogle || p == ProviderLinkedIn
}

// Credentials is the decrypted per-tenant credential structure. It only
// ever exists in memory; at rest it is sealed by the vault.
type Credentials struct {
	Google   *ProviderCredential `json:"google,omitempty"`
	LinkedIn *ProviderCredential `json:"linkedin,omitempty"`
}

// ProviderCredential pairs a provider's client configuration with the
// token obtained through its consent flow.
type ProviderCredential struct {
	Config *ClientConfig `json:"config,omitempty"`
	Token  *Token        `json:"token,omitempty"`
}

// ClientConfig is the OAuth client registration for one provider
type ClientConfig struct {
	ClientID     string   `json:"client_id" validate:"required"`
	ClientSecret string   `json:"client_secret" validate:"required"`
	AuthURI      string   `json:"auth_uri,omitempty"`
	TokenURI     string   `json:"token_uri" validate:"required"`
	RedirectURIs []string `json:"redirect_uris" validate:"required,min=1"`
}

// Token is an issued OAuth token. Expiry is always UTC.
type Token struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry"`
	TokenType    string    `json:"token_type,omitempty"`
	Scopes       []string  `json:"scopes,omitempty"`
}

// ExpiresWithin reports whether the token expires within d of now.
// Comparison happens in UTC regardless of how the expiry was stored.
func (t *Token) ExpiresWithin(d time.Duration, now time.Time) bool {
	return !t.Expiry.UTC().After(now.UTC().Add(d))
}

// ForProvider returns the credential entry for p, or nil
func (c *Credentials) ForProvider(p Provider) *ProviderCredential {
	switch p {
	case ProviderGoogle:
		return c.Google
	case ProviderLinkedIn:
		return c.LinkedIn
	}
	return nil
}

// SetProvider stores the credential entry for p
func (c *Credentials) SetProvider(p Provider, pc *ProviderCredential) {
	switch p {
	case ProviderGoogle:
		c.Google = pc
	case ProviderLinkedIn:
		c.LinkedIn = pc
	}
}

// ProviderStatus reports configuration state per provider without
// exposing any secret material.
type ProviderStatus struct {
	Configured bool `json:"configured"`
	Valid      bool `json:"valid"`
}

// CredentialStatus is the non-secret view of a tenant's credentials
type CredentialStatus struct {
	Google   ProviderStatus `json:"google"`
	LinkedIn ProviderStatus `json:"linkedin"`
}

// OAuthState is a single-use CSRF token issued at the start of a consent
// flow. One live state per (tenant, provider); issuing a new one replaces it.
type OAuthState struct {
	TenantID  int       `json:"tenant_id"`
	Provider  Provider  `json:"provider"`
	State     string    `json:"state"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the state is past its validity window
func (s *OAuthState) Expired(now time.Time) bool {
	return now.UTC().After(s.ExpiresAt.UTC())
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/forgo/maestro/internal/model"
	"github.com/forgo/maestro/internal/vault"
)

// CredentialService manages the encrypted credential blobs tenants upload.
// Client configurations go in through Upload / SaveLinkedIn; the handshake
// service reads them back to run consent flows.
type CredentialService struct {
	vault       *vault.Vault
	tenants     TenantRepository
	redirectURL string
	linkedin    LinkedInDefaults
}

// LinkedInDefaults are the fixed LinkedIn endpoints merged into uploaded
// client credentials (LinkedIn registration does not ship a config file).
type LinkedInDefaults struct {
	AuthURI  string
	TokenURI string
}

// CredentialServiceConfig holds configuration for the credential service
type CredentialServiceConfig struct {
	Vault       *vault.Vault
	TenantRepo  TenantRepository
	RedirectURL string
	LinkedIn    LinkedInDefaults
}

// NewCredentialService creates a new credential service
func NewCredentialService(cfg CredentialServiceConfig) *CredentialService {
	return &CredentialService{
		vault:       cfg.Vault,
		tenants:     cfg.TenantRepo,
		redirectURL: cfg.RedirectURL,
		linkedin:    cfg.LinkedIn,
	}
}

// uploadedClientFile mirrors the JSON document OAuth providers hand out on
// client registration: the configuration sits under a "web" or "installed"
// key depending on the application type.
type uploadedClientFile struct {
	Web       *model.ClientConfig `json:"web"`
	Installed *model.ClientConfig `json:"installed"`
}

// Upload validates and stores a Google OAuth client configuration.
// Nothing is persisted unless the whole document validates.
func (s *CredentialService) Upload(ctx context.Context, tenantID int, raw []byte) error {
	tenant, err := s.requireTenant(ctx, tenantID)
	if err != nil {
		return err
	}

	var file uploadedClientFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return NewValidationError("", "document is not valid JSON")
	}

	cfg := file.Web
	if cfg == nil {
		cfg = file.Installed
	}
	if cfg == nil {
		return NewValidationError("web", "document must contain a web or installed section")
	}

	if verr := validateStruct(cfg); verr != nil {
		return verr
	}
	if !slices.Contains(cfg.RedirectURIs, s.redirectURL) {
		return NewValidationError("redirect_uris",
			fmt.Sprintf("must include the registered callback %s", s.redirectURL))
	}

	creds, err := loadCredentials(s.vault, tenant)
	if err != nil {
		return err
	}

	// A fresh config invalidates any token issued under the old one.
	creds.SetProvider(model.ProviderGoogle, &model.ProviderCredential{Config: cfg})

	return s.save(ctx, tenantID, creds)
}

// SaveLinkedIn stores LinkedIn client credentials, filling in the fixed
// provider endpoints.
func (s *CredentialService) SaveLinkedIn(ctx context.Context, tenantID int, clientID, clientSecret string) error {
	tenant, err := s.requireTenant(ctx, tenantID)
	if err != nil {
		return err
	}

	cfg := &model.ClientConfig{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		AuthURI:      s.linkedin.AuthURI,
		TokenURI:     s.linkedin.TokenURI,
		RedirectURIs: []string{s.redirectURL},
	}
	if verr := validateStruct(cfg); verr != nil {
		return verr
	}

	creds, err := loadCredentials(s.vault, tenant)
	if err != nil {
		return err
	}

	creds.SetProvider(model.ProviderLinkedIn, &model.ProviderCredential{Config: cfg})

	return s.save(ctx, tenantID, creds)
}

// Status reports per-provider configuration state without exposing secrets
func (s *CredentialService) Status(ctx context.Context, tenantID int) (*model.CredentialStatus, error) {
	tenant, err := s.requireTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	creds, err := loadCredentials(s.vault, tenant)
	if err != nil {
		return nil, err
	}

	return &model.CredentialStatus{
		Google:   providerStatus(creds.Google),
		LinkedIn: providerStatus(creds.LinkedIn),
	}, nil
}

func (s *CredentialService) requireTenant(ctx context.Context, tenantID int) (*model.Tenant, error) {
	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, ErrTenantNotFound
	}
	return tenant, nil
}

func (s *CredentialService) save(ctx context.Context, tenantID int, creds *model.Credentials) error {
	encrypted, err := s.vault.Encrypt(creds)
	if err != nil {
		return err
	}
	return s.tenants.UpdateCredentials(ctx, tenantID, encrypted)
}

func providerStatus(pc *model.ProviderCredential) model.ProviderStatus {
	if pc == nil {
		return model.ProviderStatus{}
	}
	return model.ProviderStatus{
		Configured: pc.Config != nil,
		Valid:      pc.Token != nil,
	}
}

// loadCredentials decrypts a tenant's credential blob. An empty blob yields
// an empty structure rather than an error.
func loadCredentials(v *vault.Vault, tenant *model.Tenant) (*model.Credentials, error) {
	creds := &model.Credentials{}
	if tenant.Credentials == "" {
		return creds, nil
	}
	if err := v.Decrypt(tenant.Credentials, creds); err != nil {
		return nil, err
	}
	return creds, nil
}

package service

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/forgo/maestro/internal/model"
)

// TenantRepository defines tenant data access used by the services
type TenantRepository interface {
	Create(ctx context.Context, tenant *model.Tenant) error
	GetByID(ctx context.Context, tenantID int) (*model.Tenant, error)
	GetByEmail(ctx context.Context, email string) (*model.Tenant, error)
	UpdateCredentials(ctx context.Context, tenantID int, encrypted string) error
	UpdateSchedulePrefs(ctx context.Context, tenantID int, prefs map[string]model.SchedulePref) error
}

// TenantService handles tenant account lifecycle
type TenantService struct {
	tenants TenantRepository
}

// TenantServiceConfig holds configuration for the tenant service
type TenantServiceConfig struct {
	TenantRepo TenantRepository
}

// NewTenantService creates a new tenant service
func NewTenantService(cfg TenantServiceConfig) *TenantService {
	return &TenantService{tenants: cfg.TenantRepo}
}

// CreateTenantRequest is the signup input
type CreateTenantRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

// Create registers a new tenant account
func (s *TenantService) Create(ctx context.Context, req CreateTenantRequest) (*model.Tenant, error) {
	if verr := validateStruct(req); verr != nil {
		return nil, verr
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := s.tenants.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrTenantExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	tenant := &model.Tenant{
		Email:        email,
		Name:         req.Name,
		PasswordHash: string(hash),
		Status:       model.TenantStatusActive,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.tenants.Create(ctx, tenant); err != nil {
		return nil, err
	}
	return tenant, nil
}

// Get retrieves a tenant by id
func (s *TenantService) Get(ctx context.Context, tenantID int) (*model.Tenant, error) {
	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, ErrTenantNotFound
	}
	return tenant, nil
}

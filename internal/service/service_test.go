package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/forgo/maestro/internal/model"
	"github.com/forgo/maestro/internal/vault"
)

// memTenantRepo is an in-memory TenantRepository for tests
type memTenantRepo struct {
	mu      sync.Mutex
	tenants map[int]*model.Tenant
	nextID  int
}

func newMemTenantRepo() *memTenantRepo {
	return &memTenantRepo{tenants: make(map[int]*model.Tenant)}
}

func (r *memTenantRepo) Create(_ context.Context, tenant *model.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	tenant.TenantID = r.nextID
	clone := *tenant
	r.tenants[tenant.TenantID] = &clone
	return nil
}

func (r *memTenantRepo) GetByID(_ context.Context, tenantID int) (*model.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tenant, ok := r.tenants[tenantID]
	if !ok {
		return nil, nil
	}
	clone := *tenant
	return &clone, nil
}

func (r *memTenantRepo) GetByEmail(_ context.Context, email string) (*model.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tenant := range r.tenants {
		if tenant.Email == email {
			clone := *tenant
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *memTenantRepo) UpdateCredentials(_ context.Context, tenantID int, encrypted string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tenant, ok := r.tenants[tenantID]
	if !ok {
		return fmt.Errorf("tenant %d not found", tenantID)
	}
	tenant.Credentials = encrypted
	return nil
}

func (r *memTenantRepo) UpdateSchedulePrefs(_ context.Context, tenantID int, prefs map[string]model.SchedulePref) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tenant, ok := r.tenants[tenantID]
	if !ok {
		return fmt.Errorf("tenant %d not found", tenantID)
	}
	tenant.SchedulePrefs = prefs
	return nil
}

// memStateRepo is an in-memory OAuthStateRepository keyed by (tenant, provider)
type memStateRepo struct {
	mu     sync.Mutex
	states map[string]*model.OAuthState
}

func newMemStateRepo() *memStateRepo {
	return &memStateRepo{states: make(map[string]*model.OAuthState)}
}

func stateKey(tenantID int, provider model.Provider) string {
	return fmt.Sprintf("%d/%s", tenantID, provider)
}

func (r *memStateRepo) Put(_ context.Context, state *model.OAuthState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *state
	r.states[stateKey(state.TenantID, state.Provider)] = &clone
	return nil
}

func (r *memStateRepo) Get(_ context.Context, tenantID int, provider model.Provider) (*model.OAuthState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.states[stateKey(tenantID, provider)]
	if !ok {
		return nil, nil
	}
	clone := *state
	return &clone, nil
}

func (r *memStateRepo) Delete(_ context.Context, tenantID int, provider model.Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, stateKey(tenantID, provider))
	return nil
}

func testVault(t *testing.T) *vault.Vault {
	t.Helper()
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	v, err := vault.New(key)
	if err != nil {
		t.Fatalf("creating test vault: %v", err)
	}
	return v
}

// seedTenant inserts a tenant and returns its id
func seedTenant(t *testing.T, repo *memTenantRepo) int {
	t.Helper()
	tenant := &model.Tenant{
		Email:  "ada@example.com",
		Name:   "Ada",
		Status: model.TenantStatusActive,
	}
	if err := repo.Create(context.Background(), tenant); err != nil {
		t.Fatalf("seeding tenant: %v", err)
	}
	return tenant.TenantID
}

// seedCredentials encrypts and stores a credential structure for a tenant
func seedCredentials(t *testing.T, v *vault.Vault, repo *memTenantRepo, tenantID int, creds *model.Credentials) {
	t.Helper()
	encrypted, err := v.Encrypt(creds)
	if err != nil {
		t.Fatalf("encrypting credentials: %v", err)
	}
	if err := repo.UpdateCredentials(context.Background(), tenantID, encrypted); err != nil {
		t.Fatalf("storing credentials: %v", err)
	}
}

// decryptCredentials reads a tenant's blob back through the vault
func decryptCredentials(t *testing.T, v *vault.Vault, repo *memTenantRepo, tenantID int) *model.Credentials {
	t.Helper()
	tenant, err := repo.GetByID(context.Background(), tenantID)
	if err != nil || tenant == nil {
		t.Fatalf("loading tenant %d: %v", tenantID, err)
	}
	creds := &model.Credentials{}
	if tenant.Credentials == "" {
		return creds
	}
	if err := v.Decrypt(tenant.Credentials, creds); err != nil {
		t.Fatalf("decrypting credentials: %v", err)
	}
	return creds
}

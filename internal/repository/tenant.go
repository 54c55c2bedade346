package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/forgo/maestro/internal/database"
	"github.com/forgo/maestro/internal/model"
)

// TenantRepository handles tenant data access
type TenantRepository struct {
	db database.Database
}

// NewTenantRepository creates a new tenant repository
func NewTenantRepository(db database.Database) *TenantRepository {
	return &TenantRepository{db: db}
}

// Create stores a new tenant, assigning the next sequential tenant id
func (r *TenantRepository) Create(ctx context.Context, tenant *model.Tenant) error {
	id, err := nextSequence(ctx, r.db, "tenant")
	if err != nil {
		return err
	}

	query := `
		CREATE tenant CONTENT {
			tenant_id: $tenant_id,
			email: $email,
			name: $name,
			password_hash: $password_hash,
			status: $status,
			api_credentials: $api_credentials,
			schedule_prefs: {},
			created_at: time::now()
		}
	`

	vars := map[string]interface{}{
		"tenant_id":       id,
		"email":           tenant.Email,
		"name":            tenant.Name,
		"password_hash":   tenant.PasswordHash,
		"status":          string(tenant.Status),
		"api_credentials": tenant.Credentials,
	}

	if err := r.db.Execute(ctx, query, vars); err != nil {
		if isUniqueConstraintError(err) {
			return database.ErrDuplicate
		}
		return err
	}

	tenant.TenantID = id
	tenant.CreatedAt = time.Now().UTC()
	return nil
}

// GetByID retrieves a tenant by its numeric id
func (r *TenantRepository) GetByID(ctx context.Context, tenantID int) (*model.Tenant, error) {
	query := `SELECT * FROM tenant WHERE tenant_id = $tenant_id LIMIT 1`
	vars := map[string]interface{}{"tenant_id": tenantID}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return parseTenantResult(result)
}

// GetByEmail retrieves a tenant by email
func (r *TenantRepository) GetByEmail(ctx context.Context, email string) (*model.Tenant, error) {
	query := `SELECT * FROM tenant WHERE email = $email LIMIT 1`
	vars := map[string]interface{}{"email": email}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return parseTenantResult(result)
}

// UpdateCredentials replaces the tenant's encrypted credential blob
func (r *TenantRepository) UpdateCredentials(ctx context.Context, tenantID int, encrypted string) error {
	query := `UPDATE tenant SET api_credentials = $api_credentials WHERE tenant_id = $tenant_id`
	vars := map[string]interface{}{
		"tenant_id":       tenantID,
		"api_credentials": encrypted,
	}

	return r.db.Execute(ctx, query, vars)
}

// UpdateSchedulePrefs replaces the tenant's per-service schedule preferences
func (r *TenantRepository) UpdateSchedulePrefs(ctx context.Context, tenantID int, prefs map[string]model.SchedulePref) error {
	encoded := make(map[string]interface{}, len(prefs))
	for service, pref := range prefs {
		encoded[service] = map[string]interface{}{
			"frequency": pref.Frequency,
			"time":      pref.Time,
		}
	}

	query := `UPDATE tenant SET schedule_prefs = $schedule_prefs WHERE tenant_id = $tenant_id`
	vars := map[string]interface{}{
		"tenant_id":      tenantID,
		"schedule_prefs": encoded,
	}

	return r.db.Execute(ctx, query, vars)
}

func parseTenantResult(result interface{}) (*model.Tenant, error) {
	if result == nil {
		return nil, database.ErrNotFound
	}

	data, ok := result.(map[string]interface{})
	if !ok {
		return nil, errors.New("unexpected tenant result format")
	}

	tenant := &model.Tenant{
		TenantID:     getInt(data, "tenant_id"),
		Email:        getString(data, "email"),
		Name:         getString(data, "name"),
		PasswordHash: getString(data, "password_hash"),
		Status:       model.TenantStatus(getString(data, "status")),
		Credentials:  getString(data, "api_credentials"),
	}
	if created := getTime(data, "created_at"); created != nil {
		tenant.CreatedAt = *created
	}

	if prefs := getMap(data, "schedule_prefs"); len(prefs) > 0 {
		tenant.SchedulePrefs = make(map[string]model.SchedulePref, len(prefs))
		for service, raw := range prefs {
			pref, ok := raw.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("unexpected schedule_prefs format for service %s", service)
			}
			tenant.SchedulePrefs[service] = model.SchedulePref{
				Frequency: getString(pref, "frequency"),
				Time:      getString(pref, "time"),
			}
		}
	}

	return tenant, nil
}

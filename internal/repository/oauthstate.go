package repository

import (
	"context"
	"errors"
	"time"

	"github.com/forgo/maestro/internal/database"
	"github.com/forgo/maestro/internal/model"
)

// OAuthStateRepository handles consent-flow state token data access
type OAuthStateRepository struct {
	db database.Database
}

// NewOAuthStateRepository creates a new OAuth state repository
func NewOAuthStateRepository(db database.Database) *OAuthStateRepository {
	return &OAuthStateRepository{db: db}
}

// Put stores a state token, replacing any live state for the same
// (tenant, provider) pair. Issuing a new state invalidates the previous one.
func (r *OAuthStateRepository) Put(ctx context.Context, state *model.OAuthState) error {
	query := `
		BEGIN TRANSACTION;
		DELETE oauth_state WHERE tenant_id = $tenant_id AND provider = $provider;
		CREATE oauth_state CONTENT {
			tenant_id: $tenant_id,
			provider: $provider,
			state: $state,
			expires_at: <datetime>$expires_at,
			created_at: time::now()
		};
		COMMIT TRANSACTION;
	`

	vars := map[string]interface{}{
		"tenant_id":  state.TenantID,
		"provider":   string(state.Provider),
		"state":      state.State,
		"expires_at": state.ExpiresAt.UTC().Format(time.RFC3339),
	}

	return r.db.Execute(ctx, query, vars)
}

// Get retrieves the live state for a (tenant, provider) pair
func (r *OAuthStateRepository) Get(ctx context.Context, tenantID int, provider model.Provider) (*model.OAuthState, error) {
	query := `SELECT * FROM oauth_state WHERE tenant_id = $tenant_id AND provider = $provider LIMIT 1`
	vars := map[string]interface{}{
		"tenant_id": tenantID,
		"provider":  string(provider),
	}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return parseOAuthStateResult(result)
}

// Delete removes the live state for a (tenant, provider) pair
func (r *OAuthStateRepository) Delete(ctx context.Context, tenantID int, provider model.Provider) error {
	query := `DELETE oauth_state WHERE tenant_id = $tenant_id AND provider = $provider`
	vars := map[string]interface{}{
		"tenant_id": tenantID,
		"provider":  string(provider),
	}

	return r.db.Execute(ctx, query, vars)
}

func parseOAuthStateResult(result interface{}) (*model.OAuthState, error) {
	if result == nil {
		return nil, database.ErrNotFound
	}

	data, ok := result.(map[string]interface{})
	if !ok {
		return nil, errors.New("unexpected oauth_state result format")
	}

	state := &model.OAuthState{
		TenantID: getInt(data, "tenant_id"),
		Provider: model.Provider(getString(data, "provider")),
		State:    getString(data, "state"),
	}
	if expires := getTime(data, "expires_at"); expires != nil {
		state.ExpiresAt = *expires
	}
	return state, nil
}

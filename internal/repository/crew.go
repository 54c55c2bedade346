package repository

import (
	"context"
	"errors"
	"time"

	"github.com/forgo/maestro/internal/database"
	"github.com/forgo/maestro/internal/model"
)

// CrewRepository handles crew data access
type CrewRepository struct {
	db database.Database
}

// NewCrewRepository creates a new crew repository
func NewCrewRepository(db database.Database) *CrewRepository {
	return &CrewRepository{db: db}
}

// Create stores a new crew, assigning the next sequential crew id
func (r *CrewRepository) Create(ctx context.Context, crew *model.Crew) error {
	id, err := nextSequence(ctx, r.db, "crew")
	if err != nil {
		return err
	}

	query := `
		CREATE crew CONTENT {
			crew_id: $crew_id,
			tenant_id: $tenant_id,
			kind: $kind,
			created_at: time::now()
		}
	`

	vars := map[string]interface{}{
		"crew_id":   id,
		"tenant_id": crew.TenantID,
		"kind":      crew.Kind,
	}

	if err := r.db.Execute(ctx, query, vars); err != nil {
		return err
	}

	crew.CrewID = id
	crew.CreatedAt = time.Now().UTC()
	return nil
}

// Get retrieves a crew by its numeric id
func (r *CrewRepository) Get(ctx context.Context, crewID int) (*model.Crew, error) {
	query := `SELECT * FROM crew WHERE crew_id = $crew_id LIMIT 1`
	vars := map[string]interface{}{"crew_id": crewID}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return parseCrewResult(result)
}

// FindByTenantAndKind retrieves the tenant's crew of the given kind, if any
func (r *CrewRepository) FindByTenantAndKind(ctx context.Context, tenantID int, kind string) (*model.Crew, error) {
	query := `SELECT * FROM crew WHERE tenant_id = $tenant_id AND kind = $kind LIMIT 1`
	vars := map[string]interface{}{
		"tenant_id": tenantID,
		"kind":      kind,
	}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return parseCrewResult(result)
}

// ListByTenant retrieves all crews owned by a tenant
func (r *CrewRepository) ListByTenant(ctx context.Context, tenantID int) ([]*model.Crew, error) {
	query := `SELECT * FROM crew WHERE tenant_id = $tenant_id ORDER BY crew_id`
	vars := map[string]interface{}{"tenant_id": tenantID}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	rows, ok := extractQueryResults(result)
	if !ok {
		return nil, nil
	}

	crews := make([]*model.Crew, 0, len(rows))
	for _, row := range rows {
		crew, err := parseCrewResult(row)
		if err != nil {
			return nil, err
		}
		crews = append(crews, crew)
	}
	return crews, nil
}

// UpdateKind rewrites a crew's kind in place
func (r *CrewRepository) UpdateKind(ctx context.Context, crewID int, kind string) error {
	query := `UPDATE crew SET kind = $kind WHERE crew_id = $crew_id`
	vars := map[string]interface{}{
		"crew_id": crewID,
		"kind":    kind,
	}

	return r.db.Execute(ctx, query, vars)
}

func parseCrewResult(result interface{}) (*model.Crew, error) {
	if result == nil {
		return nil, database.ErrNotFound
	}

	data, ok := result.(map[string]interface{})
	if !ok {
		return nil, errors.New("unexpected crew result format")
	}

	crew := &model.Crew{
		CrewID:   getInt(data, "crew_id"),
		TenantID: getInt(data, "tenant_id"),
		Kind:     getString(data, "kind"),
	}
	if created := getTime(data, "created_at"); created != nil {
		crew.CreatedAt = *created
	}
	return crew, nil
}

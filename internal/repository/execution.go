package repository

import (
	"context"
	"errors"
	"time"

	"github.com/forgo/maestro/internal/database"
	"github.com/forgo/maestro/internal/model"
)

// ExecutionLogRepository is an append-only record of job invocation
// outcomes. Entries are never updated or deleted by the application.
type ExecutionLogRepository struct {
	db database.Database
}

// NewExecutionLogRepository creates a new execution log repository
func NewExecutionLogRepository(db database.Database) *ExecutionLogRepository {
	return &ExecutionLogRepository{db: db}
}

// Append stores one invocation outcome
func (r *ExecutionLogRepository) Append(ctx context.Context, entry *model.ExecutionLogEntry) error {
	query := `
		CREATE execution_log CONTENT {
			timestamp: <datetime>$timestamp,
			tenant_id: $tenant_id,
			job_id: $job_id,
			result: $result,
			error: $error
		}
	`

	timestamp := entry.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	vars := map[string]interface{}{
		"timestamp": timestamp.UTC().Format(time.RFC3339),
		"tenant_id": entry.TenantID,
		"job_id":    entry.JobID,
		"result":    entry.Result,
		"error":     entry.Error,
	}

	return r.db.Execute(ctx, query, vars)
}

// ListRecent retrieves the most recent entries for a tenant, newest first
func (r *ExecutionLogRepository) ListRecent(ctx context.Context, tenantID, limit int) ([]*model.ExecutionLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT * FROM execution_log WHERE tenant_id = $tenant_id ORDER BY timestamp DESC LIMIT $limit`
	vars := map[string]interface{}{
		"tenant_id": tenantID,
		"limit":     limit,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	rows, ok := extractQueryResults(result)
	if !ok {
		return nil, nil
	}

	entries := make([]*model.ExecutionLogEntry, 0, len(rows))
	for _, row := range rows {
		entry, err := parseExecutionLogResult(row)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func parseExecutionLogResult(result interface{}) (*model.ExecutionLogEntry, error) {
	if result == nil {
		return nil, database.ErrNotFound
	}

	data, ok := result.(map[string]interface{})
	if !ok {
		return nil, errors.New("unexpected execution_log result format")
	}

	entry := &model.ExecutionLogEntry{
		TenantID: getInt(data, "tenant_id"),
		JobID:    getString(data, "job_id"),
		Result:   getString(data, "result"),
		Error:    getString(data, "error"),
	}
	if ts := getTime(data, "timestamp"); ts != nil {
		entry.Timestamp = *ts
	}
	return entry, nil
}

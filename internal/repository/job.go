package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/forgo/maestro/internal/database"
	"github.com/forgo/maestro/internal/model"
)

// JobRepository handles persisted job definitions. Every job the
// scheduler knows about lives here; an in-memory scheduler restart
// recovers its work from this table.
type JobRepository struct {
	db database.Database
}

// NewJobRepository creates a new job repository
func NewJobRepository(db database.Database) *JobRepository {
	return &JobRepository{db: db}
}

// Put upserts a job definition by job_id. Replacement deletes the previous
// record and creates the new one in a single transaction, so exactly one
// job per id survives.
func (r *JobRepository) Put(ctx context.Context, job *model.JobDefinition) error {
	nextRunClause := "NONE"
	vars := map[string]interface{}{
		"job_id":     job.JobID,
		"func_name":  job.FuncName,
		"job_prefix": job.Metadata.JobPrefix,
		"tenant_id":  job.Metadata.TenantID,
		"crew_id":    job.Metadata.CrewID,
		"type":       string(job.Trigger.Type),
		"schedule":   encodeSchedule(job.Trigger),
		"args":       encodeArgs(job.Args),
		"status":     string(job.Status),
	}
	if job.NextRun != nil {
		nextRunClause = "<datetime>$next_run"
		vars["next_run"] = job.NextRun.UTC().Format(time.RFC3339)
	}

	query := fmt.Sprintf(`
		BEGIN TRANSACTION;
		DELETE job WHERE job_id = $job_id;
		CREATE job CONTENT {
			job_id: $job_id,
			func_name: $func_name,
			metadata: {
				job_prefix: $job_prefix,
				tenant_id: $tenant_id,
				crew_id: $crew_id
			},
			type: $type,
			schedule: $schedule,
			args: $args,
			status: $status,
			next_run: %s,
			last_run: NONE,
			created_at: time::now()
		};
		COMMIT TRANSACTION;
	`, nextRunClause)

	if err := r.db.Execute(ctx, query, vars); err != nil {
		if isUniqueConstraintError(err) {
			return database.ErrDuplicate
		}
		return err
	}
	return nil
}

// Get retrieves a job by its job id
func (r *JobRepository) Get(ctx context.Context, jobID string) (*model.JobDefinition, error) {
	query := `SELECT * FROM job WHERE job_id = $job_id LIMIT 1`
	vars := map[string]interface{}{"job_id": jobID}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return parseJobResult(result)
}

// ListByTenant retrieves all jobs owned by a tenant
func (r *JobRepository) ListByTenant(ctx context.Context, tenantID int) ([]*model.JobDefinition, error) {
	query := `SELECT * FROM job WHERE metadata.tenant_id = $tenant_id ORDER BY job_id`
	vars := map[string]interface{}{"tenant_id": tenantID}

	return r.list(ctx, query, vars)
}

// ListDue retrieves active jobs whose next_run is at or before now
func (r *JobRepository) ListDue(ctx context.Context, now time.Time) ([]*model.JobDefinition, error) {
	query := `SELECT * FROM job WHERE status = $status AND next_run != NONE AND next_run <= <datetime>$now`
	vars := map[string]interface{}{
		"status": string(model.JobStatusActive),
		"now":    now.UTC().Format(time.RFC3339),
	}

	return r.list(ctx, query, vars)
}

// UpdateRun records the outcome of an invocation: status, the newly
// computed next_run and the last_run timestamp change together in a
// single UPDATE statement.
func (r *JobRepository) UpdateRun(ctx context.Context, jobID string, status model.JobStatus, nextRun, lastRun *time.Time) error {
	nextRunClause := "NONE"
	lastRunClause := "NONE"
	vars := map[string]interface{}{
		"job_id": jobID,
		"status": string(status),
	}
	if nextRun != nil {
		nextRunClause = "<datetime>$next_run"
		vars["next_run"] = nextRun.UTC().Format(time.RFC3339)
	}
	if lastRun != nil {
		lastRunClause = "<datetime>$last_run"
		vars["last_run"] = lastRun.UTC().Format(time.RFC3339)
	}

	query := fmt.Sprintf(
		`UPDATE job SET status = $status, next_run = %s, last_run = %s WHERE job_id = $job_id`,
		nextRunClause, lastRunClause,
	)

	return r.db.Execute(ctx, query, vars)
}

// Delete removes a job by its job id
func (r *JobRepository) Delete(ctx context.Context, jobID string) error {
	query := `DELETE job WHERE job_id = $job_id`
	vars := map[string]interface{}{"job_id": jobID}

	return r.db.Execute(ctx, query, vars)
}

func (r *JobRepository) list(ctx context.Context, query string, vars map[string]interface{}) ([]*model.JobDefinition, error) {
	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	rows, ok := extractQueryResults(result)
	if !ok {
		return nil, nil
	}

	jobs := make([]*model.JobDefinition, 0, len(rows))
	for _, row := range rows {
		job, err := parseJobResult(row)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func encodeSchedule(trigger model.TriggerSpec) map[string]interface{} {
	if trigger.Type == model.TriggerAt {
		return map[string]interface{}{
			"run_at": trigger.RunAt.UTC().Format(time.RFC3339),
		}
	}
	return map[string]interface{}{
		"frequency": string(trigger.Frequency),
		"hour":      trigger.Hour,
		"minute":    trigger.Minute,
	}
}

func encodeArgs(args map[string]string) map[string]interface{} {
	encoded := make(map[string]interface{}, len(args))
	for k, v := range args {
		encoded[k] = v
	}
	return encoded
}

func parseJobResult(result interface{}) (*model.JobDefinition, error) {
	if result == nil {
		return nil, database.ErrNotFound
	}

	data, ok := result.(map[string]interface{})
	if !ok {
		return nil, errors.New("unexpected job result format")
	}

	job := &model.JobDefinition{
		JobID:    getString(data, "job_id"),
		FuncName: getString(data, "func_name"),
		Args:     getStringMap(data, "args"),
		Status:   model.JobStatus(getString(data, "status")),
		NextRun:  getTime(data, "next_run"),
		LastRun:  getTime(data, "last_run"),
	}

	if meta := getMap(data, "metadata"); meta != nil {
		job.Metadata = model.JobMetadata{
			JobPrefix: getString(meta, "job_prefix"),
			TenantID:  getInt(meta, "tenant_id"),
			CrewID:    getInt(meta, "crew_id"),
		}
	}

	trigger := model.TriggerSpec{Type: model.TriggerType(getString(data, "type"))}
	if schedule := getMap(data, "schedule"); schedule != nil {
		switch trigger.Type {
		case model.TriggerAt:
			if runAt := getTime(schedule, "run_at"); runAt != nil {
				trigger.RunAt = runAt.UTC()
			}
		case model.TriggerCron:
			trigger.Frequency = model.Frequency(getString(schedule, "frequency"))
			trigger.Hour = getInt(schedule, "hour")
			trigger.Minute = getInt(schedule, "minute")
		}
	}
	job.Trigger = trigger

	return job, nil
}

package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/forgo/maestro/internal/model"
	"github.com/forgo/maestro/internal/scheduler"
)

// CrewRepository defines crew data access used by the schedule service
type CrewRepository interface {
	Create(ctx context.Context, crew *model.Crew) error
	FindByTenantAndKind(ctx context.Context, tenantID int, kind string) (*model.Crew, error)
	ListByTenant(ctx context.Context, tenantID int) ([]*model.Crew, error)
}

// JobRepository defines the job reads the schedule service exposes
type JobRepository interface {
	ListByTenant(ctx context.Context, tenantID int) ([]*model.JobDefinition, error)
}

// ExecutionLogReader defines the audit-trail reads the schedule service
// exposes
type ExecutionLogReader interface {
	ListRecent(ctx context.Context, tenantID, limit int) ([]*model.ExecutionLogEntry, error)
}

// serviceKinds maps configurable service names to crew kinds
var serviceKinds = map[string]string{
	"gmail":    model.CrewKindEmail,
	"calendar": model.CrewKindCalendar,
	"linkedin": model.CrewKindLinkedIn,
}

// ScheduleService turns a tenant's service configuration into crews and
// recurring jobs.
type ScheduleService struct {
	tenants   TenantRepository
	crews     CrewRepository
	jobs      JobRepository
	logs      ExecutionLogReader
	scheduler *scheduler.Scheduler
}

// ScheduleServiceConfig holds configuration for the schedule service
type ScheduleServiceConfig struct {
	TenantRepo   TenantRepository
	CrewRepo     CrewRepository
	JobRepo      JobRepository
	ExecutionLog ExecutionLogReader
	Scheduler    *scheduler.Scheduler
}

// NewScheduleService creates a new schedule service
func NewScheduleService(cfg ScheduleServiceConfig) *ScheduleService {
	return &ScheduleService{
		tenants:   cfg.TenantRepo,
		crews:     cfg.CrewRepo,
		jobs:      cfg.JobRepo,
		logs:      cfg.ExecutionLog,
		scheduler: cfg.Scheduler,
	}
}

// ServiceSchedule is one service's requested cadence
type ServiceSchedule struct {
	Service   string `json:"service" validate:"required,oneof=gmail calendar linkedin"`
	Frequency string `json:"frequency" validate:"required,oneof=daily weekly monthly"`
	Time      string `json:"time" validate:"required,datetime=15:04"`
}

// ConfigureServices stores the tenant's schedule preferences, ensures a
// crew per configured service, and registers one recurring job per crew.
// Reconfiguring a service replaces its existing job.
func (s *ScheduleService) ConfigureServices(ctx context.Context, tenantID int, schedules []ServiceSchedule) ([]*model.JobDefinition, error) {
	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, ErrTenantNotFound
	}
	if len(schedules) == 0 {
		return nil, NewValidationError("schedules", "at least one service schedule is required")
	}

	for i := range schedules {
		schedules[i].Service = strings.ToLower(strings.TrimSpace(schedules[i].Service))
		schedules[i].Frequency = strings.ToLower(strings.TrimSpace(schedules[i].Frequency))
		if verr := validateStruct(schedules[i]); verr != nil {
			return nil, verr
		}
	}

	prefs := tenant.SchedulePrefs
	if prefs == nil {
		prefs = make(map[string]model.SchedulePref)
	}
	for _, sched := range schedules {
		prefs[sched.Service] = model.SchedulePref{Frequency: sched.Frequency, Time: sched.Time}
	}
	if err := s.tenants.UpdateSchedulePrefs(ctx, tenantID, prefs); err != nil {
		return nil, err
	}

	jobs := make([]*model.JobDefinition, 0, len(schedules))
	for _, sched := range schedules {
		kind := serviceKinds[sched.Service]

		crew, err := s.crews.FindByTenantAndKind(ctx, tenantID, kind)
		if err != nil {
			return nil, err
		}
		if crew == nil {
			crew = &model.Crew{TenantID: tenantID, Kind: kind}
			if err := s.crews.Create(ctx, crew); err != nil {
				return nil, err
			}
		}

		trigger, err := scheduler.ParseSchedule(sched.Frequency, sched.Time)
		if err != nil {
			return nil, NewValidationError("time", err.Error())
		}

		job, err := s.scheduler.Schedule(ctx, scheduler.ScheduleRequest{
			JobID:           fmt.Sprintf("%s_job_%d", kind, tenantID),
			JobPrefix:       kind + "_job",
			FuncName:        model.FuncCrewJob,
			TenantID:        tenantID,
			CrewID:          crew.CrewID,
			Trigger:         trigger,
			ReplaceExisting: true,
		})
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	return jobs, nil
}

// ListJobs retrieves all persisted jobs for a tenant
func (s *ScheduleService) ListJobs(ctx context.Context, tenantID int) ([]*model.JobDefinition, error) {
	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, ErrTenantNotFound
	}
	return s.jobs.ListByTenant(ctx, tenantID)
}

// ListLogs retrieves the most recent execution log entries for a tenant,
// newest first. A non-positive limit falls back to the store default.
func (s *ScheduleService) ListLogs(ctx context.Context, tenantID, limit int) ([]*model.ExecutionLogEntry, error) {
	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, ErrTenantNotFound
	}
	return s.logs.ListRecent(ctx, tenantID, limit)
}

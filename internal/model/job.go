package model

import "time"

// TriggerType distinguishes recurring jobs from one-off jobs
type TriggerType string

const (
	TriggerCron TriggerType = "cron" // recurring, computed from Frequency
	TriggerAt   TriggerType = "at"   // fires once at RunAt
)

// Frequency is the recurrence grammar for cron triggers. The set is
// closed: daily at hour:minute, weekly on Monday, monthly on day 1.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// TriggerSpec describes when a job fires. For cron triggers Frequency,
// Hour and Minute are set; for at triggers only RunAt is set (UTC).
type TriggerSpec struct {
	Type      TriggerType `json:"type"`
	Frequency Frequency   `json:"frequency,omitempty"`
	Hour      int         `json:"hour,omitempty"`
	Minute    int         `json:"minute,omitempty"`
	RunAt     time.Time   `json:"run_at,omitempty"`
}

// Registered work function names stored in JobDefinition.FuncName.
const (
	FuncCrewJob       = "crew_job"
	FuncEmailFollowup = "email_followup"
)

// JobStatus represents the lifecycle state of a job
type JobStatus string

const (
	JobStatusActive    JobStatus = "active"
	JobStatusCompleted JobStatus = "completed" // one-off fired successfully
	JobStatusError     JobStatus = "error"     // one-off failed, terminal
	JobStatusCancelled JobStatus = "cancelled"
)

// JobMetadata identifies the owner of a job
type JobMetadata struct {
	JobPrefix string `json:"job_prefix"`
	TenantID  int    `json:"tenant_id"`
	CrewID    int    `json:"crew_id"`
}

// JobDefinition is the persisted description of a scheduled job.
// JobID is unique across the store; re-registering the same id with
// replacement keeps exactly one job.
type JobDefinition struct {
	JobID    string            `json:"job_id"`
	FuncName string            `json:"func_name"`
	Metadata JobMetadata       `json:"metadata"`
	Trigger  TriggerSpec       `json:"trigger"`
	Args     map[string]string `json:"args,omitempty"`
	Status   JobStatus         `json:"status"`
	NextRun  *time.Time        `json:"next_run,omitempty"`
	LastRun  *time.Time        `json:"last_run,omitempty"`
}

// ExecutionLogEntry records one job invocation outcome
type ExecutionLogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	TenantID  int       `json:"tenant_id"`
	JobID     string    `json:"job_id"`
	Result    string    `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
}

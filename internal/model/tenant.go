package model

import "time"

// TenantStatus represents the lifecycle state of a tenant account
type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "active"
	TenantStatusSuspended TenantStatus = "suspended"
)

// Tenant represents a customer account. Credentials holds the encrypted
// OAuth credential blob; it is opaque outside the vault and never serialized
// to API responses.
type Tenant struct {
	TenantID      int                     `json:"tenant_id"`
	Email         string                  `json:"email"`
	Name          string                  `json:"name"`
	PasswordHash  string                  `json:"-"`
	Status        TenantStatus            `json:"status"`
	Credentials   string                  `json:"-"`
	SchedulePrefs map[string]SchedulePref `json:"schedule_prefs,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
}

// SchedulePref is a tenant's configured cadence for one service
type SchedulePref struct {
	Frequency string `json:"frequency"` // daily, weekly, monthly
	Time      string `json:"time"`      // "HH:MM" UTC
}

// Crew kinds form a closed set. CrewKindLegacyEmail is a deprecated
// literal still present in old records; it is migrated to
// CrewKindEmail in place on first encounter.
const (
	CrewKindEmail       = "email_scoring_and_reply"
	CrewKindCalendar    = "calendar"
	CrewKindLinkedIn    = "linkedin_content"
	CrewKindLegacyEmail = "email"
)

// Crew is a unit of scheduled work owned by a tenant. Kind selects the
// work function the orchestrator runs for it.
type Crew struct {
	CrewID    int       `json:"crew_id"`
	TenantID  int       `json:"tenant_id"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

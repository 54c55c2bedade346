// Package model defines domain entities and data structures for Maestro.
//
// The model package contains all struct definitions for domain objects,
// request/response types, and error definitions. Models are used across all
// layers of the application.
//
// # Domain Entities
//
// Core domain entities include:
//
//   - Tenant: Customer account owning credentials and scheduled work
//   - Crew: Unit of scheduled work; its kind selects a work function
//   - Credentials: Decrypted per-provider OAuth material (config + token)
//   - OAuthState: Single-use CSRF token for a consent flow in progress
//   - JobDefinition: Persisted description of a scheduled job
//   - ExecutionLogEntry: Append-only record of a job invocation outcome
//
// # JSON Serialization
//
// All models use json struct tags for API serialization:
//
//	type JobDefinition struct {
//	    JobID    string      `json:"job_id"`
//	    FuncName string      `json:"func_name"`
//	    Status   JobStatus   `json:"status"`
//	}
//
// Secret-bearing fields (Tenant.Credentials, Tenant.PasswordHash) are
// excluded from serialization with `json:"-"`.
//
// # Error Types
//
// RFC 9457 Problem Details errors are defined in errors.go:
//
//	type ProblemDetails struct {
//	    Type    string    `json:"type"`
//	    Title   string    `json:"title"`
//	    Status  int       `json:"status"`
//	    Detail  string    `json:"detail"`
//	}
package model

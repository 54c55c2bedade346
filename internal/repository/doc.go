// Package repository implements the data access layer for Maestro.
//
// The repository package contains all database operations using SurrealDB.
// Each repository struct handles CRUD operations for a specific domain entity:
// tenants, crews, OAuth states, job definitions and the execution log.
//
// # Repository Pattern
//
// All repositories follow a consistent pattern:
//
//   - Constructor function (NewXxxRepository) accepts a database connection
//   - Methods implement specific data operations (Create, GetByID, Update, Delete, etc.)
//   - SurrealQL queries are used for all database interactions
//   - Results are parsed and mapped to model structs
//
// # Upsert Semantics
//
// JobRepository.Put and OAuthStateRepository.Put replace any existing
// record for the same key inside a BEGIN/COMMIT TRANSACTION block, so
// exactly one record per job id (or tenant/provider pair) survives.
//
// # Query Patterns
//
// Common query patterns used:
//
//   - Parameterized queries with $variable syntax for security
//   - <datetime> casts with RFC 3339 strings for timestamp columns
//   - time::now() for automatic timestamps
//   - UPSERT counter records for sequential numeric ids
//
// # Example Usage
//
//	repo := NewJobRepository(db)
//	job, err := repo.Get(ctx, "email_followup_abc123")
//	if err != nil {
//	    if errors.Is(err, database.ErrNotFound) {
//	        // Handle not found
//	    }
//	    return err
//	}
package repository

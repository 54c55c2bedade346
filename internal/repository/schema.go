package repository

import (
	"context"
	"fmt"

	"github.com/forgo/maestro/internal/database"
)

// schemaStatements define the indexes the scheduler's scan loop and the
// per-tenant lookups rely on. All statements are idempotent.
var schemaStatements = []string{
	`DEFINE INDEX IF NOT EXISTS idx_tenant_id ON TABLE tenant COLUMNS tenant_id UNIQUE`,
	`DEFINE INDEX IF NOT EXISTS idx_tenant_email ON TABLE tenant COLUMNS email UNIQUE`,
	`DEFINE INDEX IF NOT EXISTS idx_crew_id ON TABLE crew COLUMNS crew_id UNIQUE`,
	`DEFINE INDEX IF NOT EXISTS idx_crew_tenant ON TABLE crew COLUMNS tenant_id`,
	`DEFINE INDEX IF NOT EXISTS idx_oauth_state_key ON TABLE oauth_state COLUMNS tenant_id, provider`,
	`DEFINE INDEX IF NOT EXISTS idx_job_id ON TABLE job COLUMNS job_id UNIQUE`,
	`DEFINE INDEX IF NOT EXISTS idx_job_status ON TABLE job COLUMNS status`,
	`DEFINE INDEX IF NOT EXISTS idx_job_next_run ON TABLE job COLUMNS next_run`,
	`DEFINE INDEX IF NOT EXISTS idx_execution_log_tenant ON TABLE execution_log COLUMNS tenant_id`,
}

// EnsureSchema creates the indexes the repositories depend on
func EnsureSchema(ctx context.Context, db database.Database) error {
	for _, stmt := range schemaStatements {
		if err := db.Execute(ctx, stmt, nil); err != nil {
			return fmt.Errorf("defining schema: %w", err)
		}
	}
	return nil
}

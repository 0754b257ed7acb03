package store

import (
	"context"
	"fmt"
)

// One row per submission, enum column for status, indexes for the claim
// scan, FIFO ordering and per-language analytics.
var migrations = []string{
	`DO $$ BEGIN
		CREATE TYPE job_status AS ENUM (
			'pending', 'running', 'completed',
			'compile_error', 'runtime_error', 'timeout', 'internal_error'
		);
	EXCEPTION WHEN duplicate_object THEN NULL;
	END $$`,

	`CREATE TABLE IF NOT EXISTS jobs (
		id                 text PRIMARY KEY,
		language           text NOT NULL,
		source_code        text NOT NULL,
		stdin              text NOT NULL DEFAULT '',
		timeout_ms         bigint,
		memory_limit_mib   bigint,
		status             job_status NOT NULL DEFAULT 'pending',
		worker_id          text,
		stdout             text,
		stderr             text,
		exit_code          integer,
		execution_time_ms  bigint,
		memory_usage_kib   bigint,
		compile_output     text,
		error_message      text,
		created_at         timestamptz NOT NULL DEFAULT now(),
		started_at         timestamptz,
		completed_at       timestamptz
	)`,

	`CREATE INDEX IF NOT EXISTS idx_jobs_status_created_at ON jobs (status, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_language ON jobs (language)`,
}

// Migrate creates the jobs schema if it does not exist yet.
func Migrate(ctx context.Context, db DBTX) error {
	for _, stmt := range migrations {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

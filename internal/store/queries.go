// Package store persists job records in Postgres and mediates the queue:
// workers claim the oldest pending row with FOR UPDATE SKIP LOCKED, so a
// record is never handed to two workers and a crashed worker loses no job.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when no job exists with the requested id.
	ErrNotFound = errors.New("job not found")
	// ErrNoJob is returned by ClaimNextJob when the queue is empty.
	ErrNoJob = errors.New("no pending job")
	// ErrNotRunning is returned when a terminal transition targets a job
	// that is not in the running state.
	ErrNotRunning = errors.New("job is not running")
)

// DBTX is the subset of pgxpool.Pool the queries need.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Querier is the store interface the worker pool and the API depend on.
type Querier interface {
	CreateJob(ctx context.Context, arg CreateJobParams) (Job, error)
	ClaimNextJob(ctx context.Context, workerID string) (Job, error)
	CompleteJob(ctx context.Context, arg CompleteJobParams) (Job, error)
	GetJob(ctx context.Context, id string) (Job, error)
	ListJobs(ctx context.Context, arg ListJobsParams) ([]Job, int64, error)
	CountByStatus(ctx context.Context) (map[Status]int64, error)
	RequeueStaleJobs(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Queries implements Querier against a pgx connection pool.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

const jobColumns = `id, language, source_code, stdin, timeout_ms, memory_limit_mib,
	status, worker_id, stdout, stderr, exit_code, execution_time_ms,
	memory_usage_kib, compile_output, error_message,
	created_at, started_at, completed_at`

func scanJob(row pgx.Row) (Job, error) {
	var j Job
	err := row.Scan(
		&j.ID, &j.Language, &j.Source, &j.Stdin, &j.TimeoutMs, &j.MemoryLimitMiB,
		&j.Status, &j.WorkerID, &j.Stdout, &j.Stderr, &j.ExitCode, &j.ExecutionTimeMs,
		&j.MemoryUsageKiB, &j.CompileOutput, &j.ErrorMessage,
		&j.CreatedAt, &j.StartedAt, &j.CompletedAt,
	)
	return j, err
}

type CreateJobParams struct {
	ID             string
	Language       string
	Source         string
	Stdin          string
	TimeoutMs      *int64
	MemoryLimitMiB *int64
}

const createJob = `INSERT INTO jobs (id, language, source_code, stdin, timeout_ms, memory_limit_mib, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, 'pending', now())
RETURNING ` + jobColumns

func (q *Queries) CreateJob(ctx context.Context, arg CreateJobParams) (Job, error) {
	j, err := scanJob(q.db.QueryRow(ctx, createJob,
		arg.ID, arg.Language, arg.Source, arg.Stdin, arg.TimeoutMs, arg.MemoryLimitMiB))
	if err != nil {
		return Job{}, fmt.Errorf("create job: %w", err)
	}
	return j, nil
}

// claimNextJob serializes concurrent claimers through row locking: SKIP
// LOCKED makes competing workers pass over rows already being claimed, so
// each pending job is returned to exactly one worker.
const claimNextJob = `UPDATE jobs
SET status = 'running', worker_id = $1, started_at = now()
WHERE id = (
	SELECT id FROM jobs
	WHERE status = 'pending'
	ORDER BY created_at
	LIMIT 1
	FOR UPDATE SKIP LOCKED
)
RETURNING ` + jobColumns

func (q *Queries) ClaimNextJob(ctx context.Context, workerID string) (Job, error) {
	j, err := scanJob(q.db.QueryRow(ctx, claimNextJob, workerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Job{}, ErrNoJob
	}
	if err != nil {
		return Job{}, fmt.Errorf("claim job: %w", err)
	}
	return j, nil
}

type CompleteJobParams struct {
	ID              string
	Status          Status
	Stdout          *string
	Stderr          *string
	ExitCode        *int32
	ExecutionTimeMs *int64
	MemoryUsageKiB  *int64
	CompileOutput   *string
	ErrorMessage    *string
}

// completeJob only matches rows in the running state, which both rejects
// transitions from pending or terminal states and makes result fields
// single-writer: once terminal, no statement can touch the row again.
const completeJob = `UPDATE jobs
SET status = $2, worker_id = NULL, stdout = $3, stderr = $4, exit_code = $5,
	execution_time_ms = $6, memory_usage_kib = $7, compile_output = $8,
	error_message = $9, completed_at = now()
WHERE id = $1 AND status = 'running'
RETURNING ` + jobColumns

func (q *Queries) CompleteJob(ctx context.Context, arg CompleteJobParams) (Job, error) {
	if !arg.Status.Terminal() {
		return Job{}, fmt.Errorf("complete job %s: %q is not a terminal status", arg.ID, arg.Status)
	}
	j, err := scanJob(q.db.QueryRow(ctx, completeJob,
		arg.ID, arg.Status, arg.Stdout, arg.Stderr, arg.ExitCode,
		arg.ExecutionTimeMs, arg.MemoryUsageKiB, arg.CompileOutput, arg.ErrorMessage))
	if errors.Is(err, pgx.ErrNoRows) {
		return Job{}, ErrNotRunning
	}
	if err != nil {
		return Job{}, fmt.Errorf("complete job %s: %w", arg.ID, err)
	}
	return j, nil
}

const getJob = `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`

func (q *Queries) GetJob(ctx context.Context, id string) (Job, error) {
	j, err := scanJob(q.db.QueryRow(ctx, getJob, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Job{}, ErrNotFound
	}
	if err != nil {
		return Job{}, fmt.Errorf("get job %s: %w", id, err)
	}
	return j, nil
}

type ListJobsParams struct {
	Status Status // empty: all statuses
	Limit  int32
	Offset int32
}

const listJobs = `SELECT ` + jobColumns + ` FROM jobs
WHERE ($1 = '' OR status::text = $1)
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

const countJobs = `SELECT count(*) FROM jobs WHERE ($1 = '' OR status::text = $1)`

func (q *Queries) ListJobs(ctx context.Context, arg ListJobsParams) ([]Job, int64, error) {
	rows, err := q.db.Query(ctx, listJobs, string(arg.Status), arg.Limit, arg.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("list jobs: %w", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}

	var total int64
	if err := q.db.QueryRow(ctx, countJobs, string(arg.Status)).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count jobs: %w", err)
	}
	return jobs, total, nil
}

const countByStatus = `SELECT status, count(*) FROM jobs GROUP BY status`

func (q *Queries) CountByStatus(ctx context.Context) (map[Status]int64, error) {
	rows, err := q.db.Query(ctx, countByStatus)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[Status]int64)
	for rows.Next() {
		var s Status
		var n int64
		if err := rows.Scan(&s, &n); err != nil {
			return nil, fmt.Errorf("count by status: %w", err)
		}
		counts[s] = n
	}
	return counts, rows.Err()
}

// requeueStaleJobs revokes claims whose worker has been silent far longer
// than any configured timeout, putting the job back at the front of the
// queue with its original created_at.
const requeueStaleJobs = `UPDATE jobs
SET status = 'pending', worker_id = NULL, started_at = NULL
WHERE status = 'running' AND started_at < now() - $1 * interval '1 second'`

func (q *Queries) RequeueStaleJobs(ctx context.Context, olderThan time.Duration) (int64, error) {
	tag, err := q.db.Exec(ctx, requeueStaleJobs, olderThan.Seconds())
	if err != nil {
		return 0, fmt.Errorf("requeue stale jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}

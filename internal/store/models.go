package store

import "time"

// Status is the lifecycle state of a job. Transitions are linear:
// pending → running → exactly one terminal status.
type Status string

const (
	StatusPending       Status = "pending"
	StatusRunning       Status = "running"
	StatusCompleted     Status = "completed"
	StatusCompileError  Status = "compile_error"
	StatusRuntimeError  Status = "runtime_error"
	StatusTimeout       Status = "timeout"
	StatusInternalError Status = "internal_error"
)

// Terminal reports whether s permits no further transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCompileError, StatusRuntimeError, StatusTimeout, StatusInternalError:
		return true
	}
	return false
}

// Job is one row of the jobs table. Result fields are null until the job
// reaches a terminal status and immutable afterwards.
type Job struct {
	ID       string `json:"job_id"`
	Language string `json:"language"`
	Source   string `json:"source_code"`
	Stdin    string `json:"stdin"`

	// Per-job overrides of the recipe defaults; null means default.
	TimeoutMs      *int64 `json:"timeout_ms,omitempty"`
	MemoryLimitMiB *int64 `json:"memory_limit_mib,omitempty"`

	Status   Status  `json:"status"`
	WorkerID *string `json:"worker_id,omitempty"`

	Stdout          *string `json:"stdout"`
	Stderr          *string `json:"stderr"`
	ExitCode        *int32  `json:"exit_code"`
	ExecutionTimeMs *int64  `json:"execution_time_ms"`
	MemoryUsageKiB  *int64  `json:"memory_usage_kib"`
	CompileOutput   *string `json:"compile_output"`
	ErrorMessage    *string `json:"error_message"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

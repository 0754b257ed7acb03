package judge

import (
	"fmt"
	"time"
)

// Status is a job lifecycle state as reported by the API.
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

// Terminal reports whether the job has finished.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCompileError, StatusRuntimeError, StatusTimeout, StatusInternalError:
		return true
	}
	return false
}

// SubmitRequest is the body of POST /submissions.
type SubmitRequest struct {
	Language       string `json:"language"`
	SourceCode     string `json:"source_code"`
	Stdin          string `json:"stdin,omitempty"`
	TimeoutMs      *int64 `json:"timeout_ms,omitempty"`
	MemoryLimitMiB *int64 `json:"memory_limit_mib,omitempty"`
}

// SubmitResponse is returned when a submission is accepted.
type SubmitResponse struct {
	JobID  string `json:"job_id"`
	Status Status `json:"status"`
}

// Job is the full job record.
type Job struct {
	JobID    string `json:"job_id"`
	Language string `json:"language"`
	Status   Status `json:"status"`

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

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	OK      bool  `json:"ok"`
	Workers int   `json:"workers"`
	Pending int64 `json:"pending"`
	Running int64 `json:"running"`
}

// LanguageInfo describes one registry entry.
type LanguageInfo struct {
	ID             string `json:"id"`
	Image          string `json:"image"`
	SourceFile     string `json:"source_file"`
	Compiled       bool   `json:"compiled"`
	TimeoutMs      int64  `json:"timeout_ms"`
	MemoryLimitMiB int64  `json:"memory_limit_mib"`
}

type languagesResponse struct {
	Languages []LanguageInfo `json:"languages"`
}

// APIError is returned when the judge API responds with a non-success status.
type APIError struct {
	StatusCode int
	Message    string
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("judge: HTTP %d: %s (%s)", e.StatusCode, e.Message, e.Detail)
	}
	return fmt.Sprintf("judge: HTTP %d: %s", e.StatusCode, e.Message)
}

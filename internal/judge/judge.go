// Package judge turns one claimed job into a terminal result: it lays out
// the working directory, drives the container runtime through the compile
// and run steps of the language recipe, and maps the captured outcome onto
// the job state machine. One failed job never takes down its worker; every
// failure mode here becomes data.
package judge

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mapcrafter2048/judge0-docker-cli/internal/language"
	"github.com/mapcrafter2048/judge0-docker-cli/internal/sandbox"
	"github.com/mapcrafter2048/judge0-docker-cli/internal/store"
)

// Runner is the slice of the container driver the executor needs.
type Runner interface {
	Execute(ctx context.Context, spec sandbox.ExecSpec) (sandbox.Outcome, error)
}

// Executor implements the per-job execution protocol.
type Executor struct {
	runner  Runner
	workDir string // base for per-job directories; empty means os.TempDir()
	logger  *slog.Logger
}

func NewExecutor(runner Runner, workDir string, logger *slog.Logger) *Executor {
	return &Executor{runner: runner, workDir: workDir, logger: logger}
}

// Execute runs the job to a terminal result. The returned error is non-nil
// only for process-wide conditions (context cancelled during shutdown); in
// that case the job must not be committed and is left to the stale-claim
// sweeper.
func (e *Executor) Execute(ctx context.Context, job store.Job) (result store.CompleteJobParams, err error) {
	result = store.CompleteJobParams{ID: job.ID}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("panic during job execution", "job_id", job.ID, "panic", r)
			result = internalError(job.ID, fmt.Sprintf("panic during execution: %v", r))
			err = nil
		}
	}()

	recipe, ok := language.Lookup(job.Language)
	if !ok {
		// The API validates the language on submit; reaching this means the
		// registry shrank between submission and claim.
		return internalError(job.ID, fmt.Sprintf("unknown language %q", job.Language)), nil
	}

	workdir, err := os.MkdirTemp(e.workDir, "judge0-job-")
	if err != nil {
		return internalError(job.ID, fmt.Sprintf("create working directory: %v", err)), nil
	}
	defer os.RemoveAll(workdir)

	if err := os.WriteFile(filepath.Join(workdir, recipe.SourceFile), []byte(job.Source), 0o644); err != nil {
		return internalError(job.ID, fmt.Sprintf("write source file: %v", err)), nil
	}

	timeout := recipe.RunTimeout
	if job.TimeoutMs != nil {
		timeout = msToDuration(*job.TimeoutMs)
	}
	memory := recipe.MemoryMiB
	if job.MemoryLimitMiB != nil {
		memory = *job.MemoryLimitMiB
	}

	if recipe.Compiled() {
		outcome, cerr := e.runner.Execute(ctx, sandbox.ExecSpec{
			Image:     recipe.Image,
			Command:   recipe.CompileCmd,
			Workdir:   workdir,
			Timeout:   recipe.CompileTimeout,
			MemoryMiB: memory,
			CPUQuota:  recipe.CPUQuota,
		})
		if cerr != nil {
			return result, fmt.Errorf("compile %s: %w", job.ID, cerr)
		}
		merged := string(outcome.Stdout) + string(outcome.Stderr)
		switch {
		case outcome.SpawnFailed:
			return internalError(job.ID, spawnFailureMessage(recipe.Image, merged)), nil
		case outcome.TimedOut:
			return compileError(job.ID, appendLine(merged, "compilation timed out")), nil
		case outcome.ExitCode != 0:
			return compileError(job.ID, merged), nil
		}
		if merged != "" {
			result.CompileOutput = &merged
		}
	}

	outcome, rerr := e.runner.Execute(ctx, sandbox.ExecSpec{
		Image:     recipe.Image,
		Command:   recipe.RunCmd,
		Workdir:   workdir,
		Stdin:     []byte(job.Stdin),
		Timeout:   timeout,
		MemoryMiB: memory,
		CPUQuota:  recipe.CPUQuota,
	})
	if rerr != nil {
		return result, fmt.Errorf("run %s: %w", job.ID, rerr)
	}

	stdout := string(outcome.Stdout)
	stderr := string(outcome.Stderr)
	result.Stdout = &stdout
	result.Stderr = &stderr

	switch {
	case outcome.TimedOut:
		result.Status = store.StatusTimeout
		result.ExitCode = i32ptr(-1)
		result.ExecutionTimeMs = i64ptr(timeout.Milliseconds())
	case outcome.SpawnFailed:
		return internalError(job.ID, spawnFailureMessage(recipe.Image, stderr)), nil
	case outcome.ExitCode == 0:
		result.Status = store.StatusCompleted
		result.ExitCode = i32ptr(0)
		result.ExecutionTimeMs = i64ptr(outcome.Duration.Milliseconds())
	default:
		result.Status = store.StatusRuntimeError
		result.ExitCode = i32ptr(int32(outcome.ExitCode))
		result.ExecutionTimeMs = i64ptr(outcome.Duration.Milliseconds())
	}
	return result, nil
}

func appendLine(out, line string) string {
	if out != "" {
		out += "\n"
	}
	return out + line
}

func compileError(jobID, output string) store.CompleteJobParams {
	empty := ""
	return store.CompleteJobParams{
		ID:            jobID,
		Status:        store.StatusCompileError,
		Stdout:        &empty,
		Stderr:        &empty,
		CompileOutput: &output,
	}
}

func internalError(jobID, msg string) store.CompleteJobParams {
	return store.CompleteJobParams{
		ID:           jobID,
		Status:       store.StatusInternalError,
		ErrorMessage: &msg,
	}
}

func spawnFailureMessage(image, detail string) string {
	msg := fmt.Sprintf("container runtime failed to start image %q", image)
	if detail != "" {
		msg += ": " + detail
	}
	return msg
}

func msToDuration(ms int64) time.Duration { return time.Duration(ms) * time.Millisecond }

func i32ptr(v int32) *int32 { return &v }
func i64ptr(v int64) *int64 { return &v }

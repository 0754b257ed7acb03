// Package sandbox drives the docker CLI to run one command inside a fresh,
// resource-bounded container. Each call creates a uniquely named container,
// feeds it stdin, captures both output streams up to a per-stream cap
// (excess is dropped and a truncation sentinel is appended to stderr),
// enforces a wall-clock deadline and always removes the container before
// returning.
package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ContainerWorkdir is the fixed path the host working directory is mounted
// at inside every container. Recipe commands are relative to it.
const ContainerWorkdir = "/work"

// dockerFailure is the exit status the docker CLI reserves for its own
// errors (daemon unreachable, image pull failed, mount refused). Anything
// the contained program returns is passed through unchanged.
const dockerFailure = 125

const cleanupTimeout = 10 * time.Second

// ExecSpec describes one container execution.
type ExecSpec struct {
	Image     string
	Command   []string
	Workdir   string // host directory bind-mounted at ContainerWorkdir
	Stdin     []byte
	Timeout   time.Duration
	MemoryMiB int64
	CPUQuota  float64
}

// Outcome is the captured result of one container execution.
type Outcome struct {
	Stdout      []byte
	Stderr      []byte
	ExitCode    int // -1 when terminated by the deadline or a signal
	Duration    time.Duration
	TimedOut    bool
	SpawnFailed bool // the runtime itself could not run the container
}

// Engine shells out to a docker-compatible CLI. It is stateless per call and
// safe for concurrent use; unique container names prevent collisions.
type Engine struct {
	bin         string
	outputLimit int64
	logger      *slog.Logger
}

func NewEngine(bin string, outputLimit int64, logger *slog.Logger) *Engine {
	if bin == "" {
		bin = "docker"
	}
	return &Engine{bin: bin, outputLimit: outputLimit, logger: logger}
}

// Ping verifies the container runtime is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, cleanupTimeout)
	defer cancel()
	if out, err := exec.CommandContext(ctx, e.bin, "version", "--format", "{{.Server.Version}}").CombinedOutput(); err != nil {
		return fmt.Errorf("container runtime unavailable: %w: %s", err, bytes.TrimSpace(out))
	}
	return nil
}

// Execute runs spec.Command in a fresh container and waits for it to finish
// or for the deadline to expire. The returned error is non-nil only when the
// surrounding context was cancelled; every per-execution failure mode is
// reported through the Outcome instead.
func (e *Engine) Execute(ctx context.Context, spec ExecSpec) (Outcome, error) {
	name := containerName()

	args := []string{
		"run",
		"--name", name,
		"--rm",
		"--interactive",
		"--volume", spec.Workdir + ":" + ContainerWorkdir,
		"--workdir", ContainerWorkdir,
		"--network", "none",
		"--user", "nobody",
		"--memory", fmt.Sprintf("%dm", spec.MemoryMiB),
		"--cpus", strconv.FormatFloat(spec.CPUQuota, 'f', -1, 64),
		spec.Image,
	}
	args = append(args, spec.Command...)

	stdout := newCappedBuffer(e.outputLimit)
	stderr := newCappedBuffer(e.outputLimit)

	cmd := exec.Command(e.bin, args...)
	cmd.Stdin = bytes.NewReader(spec.Stdin)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return Outcome{ExitCode: -1, SpawnFailed: true}, nil
	}
	// The container may outlive the CLI process (detached kill, crashed
	// client), so removal is keyed on the generated name, not the child pid.
	defer e.remove(name)

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	timer := time.NewTimer(spec.Timeout)
	defer timer.Stop()

	var waitErr error
	out := Outcome{}
	select {
	case waitErr = <-waitCh:
	case <-timer.C:
		out.TimedOut = true
		e.kill(name)
		waitErr = <-waitCh
	case <-ctx.Done():
		e.kill(name)
		<-waitCh
		out.ExitCode = -1
		out.Duration = time.Since(start)
		return out, ctx.Err()
	}
	out.Duration = time.Since(start)

	switch {
	case out.TimedOut:
		out.ExitCode = -1
	case waitErr == nil:
		out.ExitCode = 0
	default:
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			out.ExitCode = exitErr.ExitCode()
			if out.ExitCode == dockerFailure {
				out.SpawnFailed = true
			}
		} else {
			out.ExitCode = -1
			out.SpawnFailed = true
		}
	}

	out.Stdout = stdout.Bytes()
	out.Stderr = stderr.Bytes()
	if stdout.Truncated() || stderr.Truncated() {
		out.Stderr = append(out.Stderr, []byte(truncationSentinel)...)
	}

	if e.logger != nil {
		e.logger.Debug("container finished",
			"name", name,
			"image", spec.Image,
			"exit_code", out.ExitCode,
			"timed_out", out.TimedOut,
			"duration_ms", out.Duration.Milliseconds())
	}
	return out, nil
}

// kill terminates a running container by name, out of band of the CLI child.
func (e *Engine) kill(name string) {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()
	if out, err := exec.CommandContext(ctx, e.bin, "kill", name).CombinedOutput(); err != nil {
		if e.logger != nil {
			e.logger.Debug("container kill", "name", name, "err", err, "output", string(bytes.TrimSpace(out)))
		}
	}
}

// remove force-removes the container. --rm usually beats us to it, so a
// "no such container" failure is the expected case.
func (e *Engine) remove(name string) {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()
	_ = exec.CommandContext(ctx, e.bin, "rm", "--force", name).Run()
}

func containerName() string {
	return "judge0-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

package sandbox

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// fakeRuntime writes a shell script that stands in for the docker binary.
// The script receives the full CLI invocation (run/kill/rm ...), so each
// test chooses what its "run" does; kill and rm always succeed.
func fakeRuntime(t *testing.T, runBody string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake runtime scripts require a POSIX shell")
	}
	script := "#!/bin/sh\ncase \"$1\" in\nkill|rm) exit 0 ;;\nesac\n" + runBody + "\n"
	path := filepath.Join(t.TempDir(), "fake-docker")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func testSpec(workdir string) ExecSpec {
	return ExecSpec{
		Image:     "python:3.11-slim",
		Command:   []string{"python3", "solution.py"},
		Workdir:   workdir,
		Timeout:   5 * time.Second,
		MemoryMiB: 128,
		CPUQuota:  1,
	}
}

func TestExecuteCapturesStreamsAndExitCode(t *testing.T) {
	bin := fakeRuntime(t, `printf 'out'; printf 'err' >&2; exit 7`)
	e := NewEngine(bin, 1<<20, nil)

	out, err := e.Execute(context.Background(), testSpec(t.TempDir()))
	if err != nil {
		t.Fatal(err)
	}
	if string(out.Stdout) != "out" || string(out.Stderr) != "err" {
		t.Errorf("streams: stdout=%q stderr=%q", out.Stdout, out.Stderr)
	}
	if out.ExitCode != 7 {
		t.Errorf("exit code: want 7, got %d", out.ExitCode)
	}
	if out.TimedOut || out.SpawnFailed {
		t.Errorf("unexpected flags: %+v", out)
	}
}

func TestExecuteFeedsStdin(t *testing.T) {
	bin := fakeRuntime(t, `cat`)
	e := NewEngine(bin, 1<<20, nil)

	spec := testSpec(t.TempDir())
	spec.Stdin = []byte("21\nhello \x00 bytes")
	out, err := e.Execute(context.Background(), spec)
	if err != nil {
		t.Fatal(err)
	}
	if string(out.Stdout) != string(spec.Stdin) {
		t.Errorf("stdin not preserved byte-for-byte: %q", out.Stdout)
	}
	if out.ExitCode != 0 {
		t.Errorf("exit code: want 0, got %d", out.ExitCode)
	}
}

func TestExecutePassesRuntimeFlags(t *testing.T) {
	bin := fakeRuntime(t, `printf '%s\n' "$@"`)
	e := NewEngine(bin, 1<<20, nil)

	workdir := t.TempDir()
	out, err := e.Execute(context.Background(), testSpec(workdir))
	if err != nil {
		t.Fatal(err)
	}
	args := strings.Split(strings.TrimSuffix(string(out.Stdout), "\n"), "\n")

	wantPairs := map[string]string{
		"--volume":  workdir + ":" + ContainerWorkdir,
		"--workdir": ContainerWorkdir,
		"--network": "none",
		"--user":    "nobody",
		"--memory":  "128m",
		"--cpus":    "1",
	}
	for flag, val := range wantPairs {
		found := false
		for i := 0; i < len(args)-1; i++ {
			if args[i] == flag && args[i+1] == val {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing %s %s in %v", flag, val, args)
		}
	}
	if args[0] != "run" {
		t.Errorf("first arg must be run, got %q", args[0])
	}
	// image then command tokens, in order, at the tail
	n := len(args)
	if n < 3 || args[n-3] != "python:3.11-slim" || args[n-2] != "python3" || args[n-1] != "solution.py" {
		t.Errorf("image/command tail wrong: %v", args[max(0, n-4):])
	}
	hasRM := false
	for _, a := range args {
		if a == "--rm" {
			hasRM = true
		}
	}
	if !hasRM {
		t.Errorf("--rm missing in %v", args)
	}
}

func TestExecuteTimeout(t *testing.T) {
	bin := fakeRuntime(t, `sleep 2`)
	e := NewEngine(bin, 1<<20, nil)

	spec := testSpec(t.TempDir())
	spec.Timeout = 100 * time.Millisecond
	start := time.Now()
	out, err := e.Execute(context.Background(), spec)
	if err != nil {
		t.Fatal(err)
	}
	if !out.TimedOut {
		t.Fatal("expected TimedOut")
	}
	if out.ExitCode != -1 {
		t.Errorf("timeout exit code: want -1, got %d", out.ExitCode)
	}
	if time.Since(start) < 100*time.Millisecond {
		t.Error("returned before the deadline")
	}
}

func TestExecuteSpawnFailure(t *testing.T) {
	e := NewEngine(filepath.Join(t.TempDir(), "missing-binary"), 1<<20, nil)
	out, err := e.Execute(context.Background(), testSpec(t.TempDir()))
	if err != nil {
		t.Fatal(err)
	}
	if !out.SpawnFailed {
		t.Error("expected SpawnFailed when the runtime binary is missing")
	}
}

func TestExecuteDockerFailureIsSpawnFailure(t *testing.T) {
	bin := fakeRuntime(t, `printf 'pull access denied' >&2; exit 125`)
	e := NewEngine(bin, 1<<20, nil)

	out, err := e.Execute(context.Background(), testSpec(t.TempDir()))
	if err != nil {
		t.Fatal(err)
	}
	if !out.SpawnFailed {
		t.Error("exit 125 from the CLI must be reported as a spawn failure")
	}
	if !strings.Contains(string(out.Stderr), "pull access denied") {
		t.Errorf("stderr should carry the runtime diagnostic: %q", out.Stderr)
	}
}

func TestExecuteTruncatesWithSentinel(t *testing.T) {
	bin := fakeRuntime(t, `printf 'aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa'`)
	e := NewEngine(bin, 8, nil)

	out, err := e.Execute(context.Background(), testSpec(t.TempDir()))
	if err != nil {
		t.Fatal(err)
	}
	if string(out.Stdout) != "aaaaaaaa" {
		t.Errorf("stdout not capped: %q", out.Stdout)
	}
	if !strings.HasSuffix(string(out.Stderr), truncationSentinel) {
		t.Errorf("stderr missing truncation sentinel: %q", out.Stderr)
	}
}

func TestContainerNamesAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		name := containerName()
		if !strings.HasPrefix(name, "judge0-") {
			t.Fatalf("bad name %q", name)
		}
		if seen[name] {
			t.Fatalf("duplicate container name %q", name)
		}
		seen[name] = true
	}
}

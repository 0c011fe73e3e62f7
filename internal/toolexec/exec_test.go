package toolexec_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"mipexport/internal/toolexec"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs require a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "tool")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

type lineRecorder struct {
	mu    sync.Mutex
	lines []string
}

func (r *lineRecorder) add(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, line)
}

func (r *lineRecorder) joined() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return strings.Join(r.lines, "\n")
}

func TestRunUsesWorkingDirectoryAndEnv(t *testing.T) {
	script := writeScript(t, "pwd\necho \"flag=$MIPEXPORT_TEST_FLAG\"\necho \"$@\" 1>&2\n")
	dir := t.TempDir()
	rec := &lineRecorder{}

	err := toolexec.NewExecutor().Run(context.Background(), toolexec.Command{
		Tool:   "stub",
		Binary: script,
		Args:   []string{"-dxt3", "-file", "export_00.png"},
		Dir:    dir,
		Env:    []string{"MIPEXPORT_TEST_FLAG=on"},
	}, rec.add)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	out := rec.joined()
	resolved, _ := filepath.EvalSymlinks(dir)
	if !strings.Contains(out, dir) && !strings.Contains(out, resolved) {
		t.Fatalf("expected working directory %q in output, got %q", dir, out)
	}
	if !strings.Contains(out, "flag=on") {
		t.Fatalf("expected env to reach child, got %q", out)
	}
	if !strings.Contains(out, "-dxt3 -file export_00.png") {
		t.Fatalf("expected stderr args echo, got %q", out)
	}
}

func TestRunReportsExitStatus(t *testing.T) {
	script := writeScript(t, "echo failing\nexit 3\n")

	err := toolexec.NewExecutor().Run(context.Background(), toolexec.Command{Tool: "nvdxt", Binary: script, Dir: t.TempDir()}, nil)
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	var exitErr *toolexec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected *ExitError, got %T: %v", err, err)
	}
	if exitErr.Tool != "nvdxt" || exitErr.Code != 3 {
		t.Fatalf("unexpected exit error: %+v", exitErr)
	}
	if code, ok := toolexec.ExitCode(err); !ok || code != 3 {
		t.Fatalf("ExitCode = %d, %v", code, ok)
	}
}

func TestRunMissingBinary(t *testing.T) {
	err := toolexec.NewExecutor().Run(context.Background(), toolexec.Command{
		Tool:   "inkscape",
		Binary: filepath.Join(t.TempDir(), "absent"),
	}, nil)
	if err == nil {
		t.Fatal("expected error for missing binary")
	}
	if _, ok := toolexec.ExitCode(err); ok {
		t.Fatal("missing binary should not look like a tool exit")
	}
}

func TestRunCancelled(t *testing.T) {
	script := writeScript(t, "sleep 5\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := toolexec.NewExecutor().Run(ctx, toolexec.Command{Tool: "slow", Binary: script}, nil)
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestCommandString(t *testing.T) {
	cmd := toolexec.Command{
		Binary: "wine",
		Args:   []string{"/home/u/.wine/drive_c/Programme/NVIDIA Corporation/DDS Utilities/nvdxt.exe", "-dxt3"},
	}
	want := `wine "/home/u/.wine/drive_c/Programme/NVIDIA Corporation/DDS Utilities/nvdxt.exe" -dxt3`
	if got := cmd.String(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestLogOutputSkipsBlankLines(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	forward := toolexec.LogOutput(logger, "stitch")
	forward("   ")
	forward("Writing export.dds\r")

	out := buf.String()
	if strings.Count(out, "\n") != 1 {
		t.Fatalf("expected exactly one record, got %q", out)
	}
	if !strings.Contains(out, "Writing export.dds") || !strings.Contains(out, "tool=stitch") {
		t.Fatalf("unexpected record %q", out)
	}
}

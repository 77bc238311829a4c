package runner

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/diffuzzer/diffuzzer/abstractfs"
	"github.com/diffuzzer/diffuzzer/dash"
	"github.com/diffuzzer/diffuzzer/encode"
	"github.com/diffuzzer/diffuzzer/trace"
)

// LocalHarness runs the compiled workload directly on the host, inside
// an already-mounted directory -- the path taken when the CLI is
// invoked with --no-qemu (original_source's args.rs distinguishes this
// from the VM-backed path at the same call site).
type LocalHarness struct {
	fsName    string
	mountPath string
	execDir   string
	binary    string
}

// NewLocalHarness drives mountPath (expected to already be a mounted
// instance of the named filesystem) using execDir as scratch space for
// compiling and running workload binaries.
func NewLocalHarness(fsName, mountPath, execDir string) *LocalHarness {
	return &LocalHarness{fsName: fsName, mountPath: mountPath, execDir: execDir}
}

func (h *LocalHarness) MountPath() string { return h.mountPath }
func (h *LocalHarness) FSName() string    { return h.fsName }

// DashEntries walks the mount directly, since the local harness and the
// filesystem under test share one host.
func (h *LocalHarness) DashEntries() ([]dash.FileInfo, error) {
	return dash.WalkLocal(h.mountPath)
}

// Compile writes the executor runtime and the encoded workload to
// execDir and invokes cc once; the resulting binary is reused by every
// subsequent Run until the next Compile call.
func (h *LocalHarness) Compile(w abstractfs.Workload) error {
	if err := os.MkdirAll(h.execDir, 0o755); err != nil {
		return fmt.Errorf("runner: creating exec dir: %w", err)
	}

	files := map[string]string{
		"executor.h": encode.ExecutorHeader,
		"executor.c": encode.ExecutorSource,
		"test.c":     encode.Encode(w),
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(h.execDir, name), []byte(content), 0o644); err != nil {
			return fmt.Errorf("runner: writing %s: %w", name, err)
		}
	}

	mainC := `#include "executor.h"
int main(void) { test_workload(); return 0; }
`
	if err := os.WriteFile(filepath.Join(h.execDir, "main.c"), []byte(mainC), 0o644); err != nil {
		return fmt.Errorf("runner: writing main.c: %w", err)
	}

	binary := filepath.Join(h.execDir, "test.out")
	cmd := exec.Command("cc", "-O0", "-g", "executor.c", "test.c", "main.c", "-o", binary)
	cmd.Dir = h.execDir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("runner: cc failed: %w: %s", err, stderr.String())
	}
	h.binary = binary
	return nil
}

// Run executes the compiled binary with the mounted filesystem as its
// working directory, so trace.csv lands under mountPath where the
// outer runner expects it.
func (h *LocalHarness) Run(ctx context.Context) (Outcome, error) {
	if h.binary == "" {
		return Outcome{}, fmt.Errorf("runner: Run called before Compile")
	}

	cmd := exec.CommandContext(ctx, h.binary)
	cmd.Dir = h.mountPath
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	outcome := Outcome{Stdout: stdout.String(), Stderr: stderr.String()}

	if ctx.Err() != nil {
		outcome.Kind = OutcomeTimedOut
		return outcome, nil
	}
	if err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			outcome.Kind = OutcomePanicked
			return outcome, nil
		}
	}

	traceFile, openErr := os.Open(filepath.Join(h.mountPath, "trace.csv"))
	if openErr != nil {
		outcome.Kind = OutcomeCompleted
		return outcome, nil
	}
	defer traceFile.Close()

	rows, parseErr := trace.Parse(traceFile)
	if parseErr != nil {
		return outcome, fmt.Errorf("runner: parsing trace: %w", parseErr)
	}
	outcome.Kind = OutcomeCompleted
	outcome.Trace = rows
	return outcome, nil
}

// Reset removes every entry under mountPath, a cheap stand-in for the
// snapshot/restore cycle the QEMU harness performs via the monitor
// socket.
func (h *LocalHarness) Reset(ctx context.Context) error {
	entries, err := os.ReadDir(h.mountPath)
	if err != nil {
		return fmt.Errorf("runner: reading mount dir: %w", err)
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(h.mountPath, entry.Name())); err != nil {
			return fmt.Errorf("runner: clearing %s: %w", entry.Name(), err)
		}
	}
	return nil
}

package qemu

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/diffuzzer/diffuzzer/abstractfs"
	"github.com/diffuzzer/diffuzzer/dash"
	"github.com/diffuzzer/diffuzzer/encode"
	"github.com/diffuzzer/diffuzzer/runner"
	"github.com/diffuzzer/diffuzzer/trace"
)

// Harness drives a workload inside a QEMU guest over SSH, against a
// filesystem mounted at a fixed guest path, with snapshot/restore via
// a Monitor (spec.md 5, 6.6). It satisfies runner.Harness.
type Harness struct {
	fsName    string
	mountPath string // guest-side mount point
	execDir   string // guest-side scratch directory
	timeout   uint8  // seconds; wrapped with `timeout(1)` per spec.md 5

	client   *ssh.Client
	sftp     *sftp.Client
	monitor  *Monitor
	listener *Listener

	snapshotTag string
}

// NewHarness wraps an already-dialed SSH client, monitor connection, and
// QMP listener. The caller is responsible for establishing all three
// (dialing, auth, and the initial savevm) before fuzzing begins.
func NewHarness(fsName, mountPath, execDir string, timeout uint8, client *ssh.Client, sftpClient *sftp.Client, monitor *Monitor, listener *Listener, snapshotTag string) *Harness {
	return &Harness{
		fsName: fsName, mountPath: mountPath, execDir: execDir, timeout: timeout,
		client: client, sftp: sftpClient, monitor: monitor, listener: listener, snapshotTag: snapshotTag,
	}
}

func (h *Harness) MountPath() string { return h.mountPath }
func (h *Harness) FSName() string    { return h.fsName }

// DashEntries walks the guest-side mount over the same SFTP session
// Compile/Run already use. The SFTP protocol carries no hardlink count,
// so Nlink is left at zero for every entry on this side; that is stable
// (never a source of a spurious diff) but means a real nlink divergence
// between two QEMU-backed filesystems goes undetected -- DashOpts should
// disable IncludeNlink for QEMU-only comparisons if that signal matters.
func (h *Harness) DashEntries() ([]dash.FileInfo, error) {
	var entries []dash.FileInfo
	walker := h.sftp.Walk(h.mountPath)
	for walker.Step() {
		if err := walker.Err(); err != nil {
			return nil, fmt.Errorf("qemu: walking %s: %w", h.mountPath, err)
		}
		p := walker.Path()
		if p == h.mountPath {
			continue
		}

		info := walker.Stat()
		rel, err := filepath.Rel(h.mountPath, p)
		if err != nil {
			return nil, fmt.Errorf("qemu: relativizing %s: %w", p, err)
		}

		fi := dash.FileInfo{
			AbsPath: p,
			RelPath: "/" + filepath.ToSlash(rel),
			Size:    uint64(info.Size()),
			Mode:    uint32(info.Mode().Perm()),
			IsDir:   info.IsDir(),
		}
		if st, ok := info.Sys().(*sftp.FileStat); ok {
			fi.UID = st.UID
			fi.GID = st.GID
		}
		entries = append(entries, fi)
	}
	dash.SortByRelPath(entries)
	return entries, nil
}

// Compile copies the executor runtime and the encoded workload's C
// source to the guest and invokes cc remotely. The resulting binary
// persists on the guest and is reused by every Run until the next
// Compile call.
func (h *Harness) Compile(w abstractfs.Workload) error {
	if err := h.sftp.MkdirAll(h.execDir); err != nil {
		return fmt.Errorf("qemu: creating guest exec dir: %w", err)
	}

	files := map[string]string{
		"executor.h": encode.ExecutorHeader,
		"executor.c": encode.ExecutorSource,
		"test.c":     encode.Encode(w),
		"main.c":     "#include \"executor.h\"\nint main(void) { test_workload(); return 0; }\n",
	}
	for name, content := range files {
		if err := h.uploadFile(path.Join(h.execDir, name), content); err != nil {
			return err
		}
	}

	session, err := h.client.NewSession()
	if err != nil {
		return fmt.Errorf("qemu: opening compile session: %w", err)
	}
	defer session.Close()

	binary := path.Join(h.execDir, "test.out")
	cmd := fmt.Sprintf("cd %s && cc -O0 -g executor.c test.c main.c -o %s", h.execDir, binary)
	var stderr bytes.Buffer
	session.Stderr = &stderr
	if err := session.Run(cmd); err != nil {
		return fmt.Errorf("qemu: remote cc failed: %w: %s", err, stderr.String())
	}
	return nil
}

func (h *Harness) uploadFile(remotePath, content string) error {
	f, err := h.sftp.Create(remotePath)
	if err != nil {
		return fmt.Errorf("qemu: creating %s: %w", remotePath, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, bytesReader(content)); err != nil {
		return fmt.Errorf("qemu: writing %s: %w", remotePath, err)
	}
	return nil
}

func bytesReader(s string) io.Reader { return bytes.NewReader([]byte(s)) }

// Run executes the compiled binary over SSH, wrapping it with
// `timeout(1)` per h.timeout (spec.md 5); an exit code of 124 maps to
// OutcomeTimedOut.
func (h *Harness) Run(ctx context.Context) (runner.Outcome, error) {
	session, err := h.client.NewSession()
	if err != nil {
		return runner.Outcome{}, fmt.Errorf("qemu: opening run session: %w", err)
	}
	defer session.Close()

	binary := path.Join(h.execDir, "test.out")
	cmd := fmt.Sprintf("cd %s && timeout %d %s", h.mountPath, h.timeout, binary)

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	runErr := session.Run(cmd)
	outcome := runner.Outcome{Stdout: stdout.String(), Stderr: stderr.String()}

	if exitErr, ok := runErr.(*ssh.ExitError); ok {
		if exitErr.ExitStatus() == 124 {
			// spec.md 5: on timeout, a panic event observed since the
			// last reset still takes precedence over TimedOut.
			if h.listener != nil && h.listener.PolledSincePanic() {
				outcome.Kind = runner.OutcomePanicked
				return outcome, nil
			}
			outcome.Kind = runner.OutcomeTimedOut
			return outcome, nil
		}
	} else if runErr != nil {
		outcome.Kind = runner.OutcomePanicked
		return outcome, nil
	}

	traceFile, openErr := h.sftp.Open(path.Join(h.mountPath, "trace.csv"))
	if openErr != nil {
		outcome.Kind = runner.OutcomeCompleted
		return outcome, nil
	}
	defer traceFile.Close()

	rows, parseErr := trace.Parse(traceFile)
	if parseErr != nil {
		return outcome, fmt.Errorf("qemu: parsing trace: %w", parseErr)
	}
	outcome.Kind = runner.OutcomeCompleted
	outcome.Trace = rows
	return outcome, nil
}

// Reset restores the guest to its saved snapshot via the monitor
// socket, the VM-backed equivalent of LocalHarness's directory clear.
func (h *Harness) Reset(ctx context.Context) error {
	return h.monitor.LoadSnapshot(h.snapshotTag)
}

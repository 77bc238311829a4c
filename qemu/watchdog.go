package qemu

import (
	"context"
	"fmt"
	"os/exec"

	ps "github.com/mitchellh/go-ps"
)

// Process launches and supervises the QEMU child process for one
// instance (spec.md 5): Wait runs until the process exits, which the
// caller treats as an unexpected-termination error regardless of exit
// code, since a healthy instance is only ever stopped by cancelling ctx.
type Process struct {
	cmd *exec.Cmd
}

// Launch starts qemu (or a launch script wrapping it) with args.
func Launch(ctx context.Context, launchScript string, args ...string) (*Process, error) {
	cmd := exec.CommandContext(ctx, launchScript, args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("qemu: starting launch script: %w", err)
	}
	return &Process{cmd: cmd}, nil
}

// Wait blocks until the QEMU process exits. A nil error paired with a
// non-cancelled ctx still indicates an unexpected termination: the
// fuzz loop's errgroup treats any return from Wait as fatal for the
// instance unless ctx was the cause.
func (p *Process) Wait(ctx context.Context) error {
	err := p.cmd.Wait()
	if ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("qemu: process exited: %w", err)
	}
	return fmt.Errorf("qemu: process exited unexpectedly")
}

func (p *Process) Kill() error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}

// Alive reports whether the OS still lists this PID, a cheap
// complement to Wait for a console that wants to poll liveness without
// blocking on the process's exit.
func (p *Process) Alive() (bool, error) {
	if p.cmd.Process == nil {
		return false, nil
	}
	proc, err := ps.FindProcess(p.cmd.Process.Pid)
	if err != nil {
		return false, fmt.Errorf("qemu: polling pid %d: %w", p.cmd.Process.Pid, err)
	}
	return proc != nil, nil
}

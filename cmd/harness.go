package cmd

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/diffuzzer/diffuzzer/config"
	"github.com/diffuzzer/diffuzzer/qemu"
	"github.com/diffuzzer/diffuzzer/runner"
)

// harnessSet is one side's fully wired harness plus whatever background
// resources (QMP listener, launched VM process) the caller's broker
// needs to supervise, and a cleanup func to tear all of it down.
type harnessSet struct {
	Harness  runner.Harness
	Listener *qemu.Listener
	Process  *qemu.Process
	Cleanup  func()
}

// buildHarness returns a ready-to-use runner.Harness for fsName: a
// LocalHarness against mountPath when --no-qemu is set, or a fully
// dialed qemu.Harness (VM launch, SSH/SFTP connect, monitor dial, QMP
// listener dial, initial snapshot) otherwise.
func buildHarness(ctx context.Context, cfg *config.Config, fsName, mountPath string) (harnessSet, error) {
	execDir := cfg.QEMU.ExecDir
	if execDir == "" {
		execDir = "/tmp/diffuzzer-" + fsName
	}

	if noQemu {
		return harnessSet{Harness: runner.NewLocalHarness(fsName, mountPath, execDir), Cleanup: func() {}}, nil
	}

	proc, err := qemu.Launch(ctx, cfg.QEMU.LaunchScript, fsName)
	if err != nil {
		return harnessSet{}, fmt.Errorf("cmd: launching qemu for %s: %w", fsName, err)
	}
	if cfg.QEMU.BootWaitTime > 0 {
		time.Sleep(time.Duration(cfg.QEMU.BootWaitTime) * time.Second)
	}

	sshAddr := net.JoinHostPort(addrOrDefault(cfg.QEMU.SSHHost), fmt.Sprint(cfg.QEMU.SSHPort))
	client, sftpClient, err := qemu.Connect(ctx, sshAddr, cfg.QEMU.SSHUser, cfg.QEMU.SSHPrivateKeyPath)
	if err != nil {
		proc.Kill()
		return harnessSet{}, fmt.Errorf("cmd: connecting to %s guest: %w", fsName, err)
	}

	monitor, err := qemu.DialMonitor(ctx, "unix", cfg.QEMU.MonitorSocketPath)
	if err != nil {
		client.Close()
		proc.Kill()
		return harnessSet{}, fmt.Errorf("cmd: dialing %s monitor socket: %w", fsName, err)
	}

	listener, err := qemu.Dial(ctx, "unix", cfg.QEMU.QMPSocketPath)
	if err != nil {
		monitor.Close()
		client.Close()
		proc.Kill()
		return harnessSet{}, fmt.Errorf("cmd: dialing %s QMP socket: %w", fsName, err)
	}

	snapshotTag := "initial"
	if err := monitor.SaveSnapshot(snapshotTag); err != nil {
		listener.Close()
		monitor.Close()
		client.Close()
		proc.Kill()
		return harnessSet{}, fmt.Errorf("cmd: saving %s initial snapshot: %w", fsName, err)
	}

	h := qemu.NewHarness(fsName, mountPath, execDir, cfg.Timeout, client, sftpClient, monitor, listener, snapshotTag)

	cleanup := func() {
		listener.Close()
		monitor.Close()
		client.Close()
		proc.Kill()
	}

	return harnessSet{Harness: h, Listener: listener, Process: proc, Cleanup: cleanup}, nil
}

func addrOrDefault(host string) string {
	if host == "" {
		return "127.0.0.1"
	}
	return host
}

// Package qemu drives a QEMU VM over its QMP event socket, its human
// monitor socket, and an SSH/SCP connection into the guest (spec.md 5,
// 6.6): the three together let the fuzz loop treat "the filesystem under
// test" as a disposable, snapshot-restorable remote host. SSH/SCP
// plumbing follows rclone's sftp backend's client-construction style;
// the QMP listener and process watchdog are the two always-running
// background tasks spec.md 5 calls for per instance.
package qemu

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
)

// PanicSignal is sent on Listener's channel whenever the guest emits any
// QMP message carrying an "event" key (spec.md 6.6): the fuzz loop polls
// this non-blockingly between tests.
type PanicSignal struct {
	Event string
}

// Listener reads newline-framed JSON from a QMP socket and reports every
// event message it observes.
type Listener struct {
	conn    net.Conn
	signals chan PanicSignal
}

// Dial connects to the QMP socket at addr (a unix socket path), performs
// the greeting/qmp_capabilities handshake, and starts the background
// read loop. Close stops the loop.
func Dial(ctx context.Context, network, addr string) (*Listener, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, fmt.Errorf("qemu: dialing QMP socket: %w", err)
	}

	l := &Listener{conn: conn, signals: make(chan PanicSignal, 16)}

	reader := bufio.NewReader(conn)
	// Greeting message; discarded once read.
	if _, err := reader.ReadString('\n'); err != nil {
		conn.Close()
		return nil, fmt.Errorf("qemu: reading QMP greeting: %w", err)
	}
	if _, err := conn.Write([]byte(`{"execute":"qmp_capabilities"}` + "\n")); err != nil {
		conn.Close()
		return nil, fmt.Errorf("qemu: sending qmp_capabilities: %w", err)
	}
	// Capabilities-negotiated reply; discarded once read.
	if _, err := reader.ReadString('\n'); err != nil {
		conn.Close()
		return nil, fmt.Errorf("qemu: reading qmp_capabilities reply: %w", err)
	}

	go l.loop(reader)
	return l, nil
}

func (l *Listener) loop(reader *bufio.Reader) {
	defer close(l.signals)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		var msg map[string]json.RawMessage
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			continue
		}
		if eventRaw, ok := msg["event"]; ok {
			var event string
			_ = json.Unmarshal(eventRaw, &event)
			select {
			case l.signals <- PanicSignal{Event: event}:
			default:
			}
		}
	}
}

// Signals exposes the channel the fuzz loop polls non-blockingly.
func (l *Listener) Signals() <-chan PanicSignal { return l.signals }

// PolledSincePanic drains every currently queued signal and reports
// whether at least one was present, the exact "did the VM panic since
// last reset" check spec.md 5 describes.
func (l *Listener) PolledSincePanic() bool {
	panicked := false
	for {
		select {
		case _, ok := <-l.signals:
			if !ok {
				return panicked
			}
			panicked = true
		default:
			return panicked
		}
	}
}

func (l *Listener) Close() error {
	return l.conn.Close()
}

// Package broker owns the crash directory, console output, and
// cross-instance statistics a fuzzing run accumulates (spec.md 5): one
// broker process receives event.Message values from a multi-producer
// single-consumer channel fed by every running Instance, and renders
// them the way the teacher's own common.loggerLoop renders its single
// buffered log channel -- one goroutine draining one channel, never
// writing to stdout/stderr from more than one place at once.
package broker

import (
	"fmt"
	"sync"

	"go.uber.org/atomic"

	"github.com/diffuzzer/diffuzzer/common"

	"github.com/diffuzzer/diffuzzer/event"
)

// Broker collects events from every running instance and keeps the
// latest stats snapshot per instance, matching spec.md 5's "statistics
// for any single instance monotonically increase" guarantee -- the
// broker itself never reorders or drops a message, it only ever
// overwrites an instance's last-known snapshot with a newer one.
type Broker struct {
	messages chan event.Message

	mu    sync.Mutex
	stats map[string]event.Message
	errs  []event.Error

	// messagesProcessed is read far more often than it's written (every
	// console tick vs. every Send), so it's a lock-free counter rather
	// than folded into the mutex-guarded fields above.
	messagesProcessed atomic.Uint64

	// metrics is nil until EnableMetrics is called; observe is then a
	// no-op-free fast path since Prometheus's own client is safe to call
	// from the single drain goroutine.
	metrics *metrics

	// consoleActive suppresses render's common.Log/common.Error writes
	// while RunConsole owns the terminal -- record still runs so the
	// console's own polling sees up-to-date snapshots.
	consoleActive atomic.Bool

	done chan struct{}
}

// New returns a Broker ready to Run; bufSize bounds how many
// in-flight messages instances may queue before Send blocks.
func New(bufSize int) *Broker {
	return &Broker{
		messages: make(chan event.Message, bufSize),
		stats:    make(map[string]event.Message),
		done:     make(chan struct{}),
	}
}

// Send delivers one event to the broker; instances call this from
// their own goroutine, never touching the console directly.
func (b *Broker) Send(msg event.Message) {
	b.messages <- msg
}

// Close signals no further Send calls will arrive and waits for the
// drain loop to process whatever remains queued.
func (b *Broker) Close() {
	close(b.messages)
	<-b.done
}

// Run drains the message channel until Close is called, rendering each
// message with the teacher's own single-writer console idiom
// (common.Log/common.Error) and keeping per-instance stats up to date.
// Run must be started in its own goroutine before any Send call.
func (b *Broker) Run() {
	defer close(b.done)
	for msg := range b.messages {
		b.record(msg)
		b.render(msg)
		b.messagesProcessed.Inc()
	}
}

// MessagesProcessed returns how many events the broker has drained so
// far; the console polls this to detect liveness without touching the
// mutex-guarded stats map.
func (b *Broker) MessagesProcessed() uint64 {
	return b.messagesProcessed.Load()
}

func (b *Broker) record(msg event.Message) {
	switch m := msg.(type) {
	case event.Error:
		b.mu.Lock()
		b.errs = append(b.errs, m)
		b.mu.Unlock()
	case event.BlackBoxStats, event.GreyBoxStats:
		b.mu.Lock()
		b.stats[msg.InstanceID()] = msg
		b.mu.Unlock()
		if b.metrics != nil {
			b.metrics.observe(msg)
		}
	}
}

func (b *Broker) render(msg event.Message) {
	if b.consoleActive.Load() {
		return
	}
	switch m := msg.(type) {
	case event.Error:
		common.Error(m.InstanceID(), m.Err)
	case event.Warn:
		common.Log("Warning [%s]: %s", m.InstanceID(), m.Text)
	case event.Info:
		common.Log("[%s] %s", m.InstanceID(), m.Text)
	case event.BlackBoxStats:
		common.Log("[%s] %s", m.InstanceID(), formatBlackBox(m))
	case event.GreyBoxStats:
		common.Log("[%s] %s", m.InstanceID(), formatGreyBox(m))
	}
}

func formatBlackBox(m event.BlackBoxStats) string {
	return fmt.Sprintf("executions: %d, crashes: %d, accidents: %d", m.TestsRun, m.CrashesFound, m.AccidentsFound)
}

func formatGreyBox(m event.GreyBoxStats) string {
	return fmt.Sprintf("executions: %d, crashes: %d, accidents: %d, corpus: %d, coverage: %d",
		m.TestsRun, m.CrashesFound, m.AccidentsFound, m.CorpusSize, m.CoverageSize)
}

// Errors returns every error event recorded so far, for the broker's
// caller to decide on a non-zero exit code (spec.md 6.1: "non-zero on
// fatal error in the broker").
func (b *Broker) Errors() []event.Error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]event.Error{}, b.errs...)
}

// Snapshot returns the latest stats event received for instanceID, if
// any.
func (b *Broker) Snapshot(instanceID string) (event.Message, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, ok := b.stats[instanceID]
	return m, ok
}

package broker

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/diffuzzer/diffuzzer/event"
	"github.com/diffuzzer/diffuzzer/qemu"
)

// FuzzLoop is the minimal shape both blackbox.Loop and greybox.Loop
// satisfy: step exactly one iteration, reporting a fatal error if the
// instance cannot continue.
type FuzzLoop interface {
	Step(ctx context.Context) error
}

// Instance owns exactly one VM (or the local host, when QEMU is
// disabled) and runs one fuzz loop sequentially (spec.md 5). When
// Watchdog is non-nil (the QEMU path), Run launches it as an
// errgroup.Go sibling of the fuzz loop, matching the teacher's own
// habit of one broker, many worker goroutines (anywork.WorkGroup),
// generalized here to a per-instance pair instead of a static pool.
// Listener's read loop is the goroutine qemu.Dial started; Run neither
// launches nor waits on it.
type Instance struct {
	ID       string
	Loop     FuzzLoop
	Listener *qemu.Listener // nil when --no-qemu
	Watchdog *qemu.Process  // nil when --no-qemu
	Broker   *Broker

	// TestCount bounds how many iterations Run performs; zero means
	// run until ctx is canceled.
	TestCount uint64
}

// Run drives the instance until ctx is canceled, TestCount iterations
// have completed, or the fuzz loop or watchdog goroutine errors -- per
// spec.md 5's ordering guarantee, the fuzz loop itself is
// always single-threaded: only its siblings run concurrently with it.
func (inst *Instance) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return inst.runLoop(gctx) })

	if inst.Watchdog != nil {
		g.Go(func() error {
			if err := inst.Watchdog.Wait(gctx); err != nil {
				inst.emit(event.NewError(inst.ID, now(), err))
				return err
			}
			return nil
		})
	}

	return g.Wait()
}

func (inst *Instance) runLoop(ctx context.Context) error {
	var i uint64
	for {
		if inst.TestCount > 0 && i >= inst.TestCount {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if err := inst.Loop.Step(ctx); err != nil {
			wrapped := fmt.Errorf("broker: instance %s: %w", inst.ID, err)
			inst.emit(event.NewError(inst.ID, now(), wrapped))
			return wrapped
		}
		i++
	}
}

func (inst *Instance) emit(msg event.Message) {
	if inst.Broker != nil {
		inst.Broker.Send(msg)
	}
}

// now is a thin indirection so instance.go never calls time.Now from
// more than one place, matching the rest of the event-construction
// call sites.
func now() time.Time { return time.Now() }

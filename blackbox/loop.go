// Package blackbox implements the corpus-free fuzz loop (spec.md 4.8,
// 6.1): generate a fresh workload from scratch, run it against both
// harnesses, compare, discard. Unlike greybox it carries no corpus and
// no coverage feedback -- every iteration starts from an empty
// abstractfs.FS.
package blackbox

import (
	"context"
	"fmt"
	"time"

	"github.com/diffuzzer/diffuzzer/abstractfs"
	"github.com/diffuzzer/diffuzzer/event"
	"github.com/diffuzzer/diffuzzer/generator"
	"github.com/diffuzzer/diffuzzer/runner"
)

// Stats is the periodic heartbeat payload (spec.md 5's BlackBoxStats).
type Stats struct {
	TestsRun       uint64
	CrashesFound   uint64
	AccidentsFound uint64
}

// Loop drives one instance's blackbox fuzzing: generate a workload of
// up to MaxOps operations against a fresh abstractfs.FS, run it against
// both harnesses via Runner, and route the result to OnCrash.
type Loop struct {
	Runner    *runner.Runner
	Generator *generator.Generator
	MaxOps    int

	Stats Stats

	OnCrash    func(w abstractfs.Workload, v runner.Verdict)
	OnEvent    func(event.Message)
	InstanceID string
}

// Step generates one fresh workload and runs exactly one blackbox
// iteration.
func (l *Loop) Step(ctx context.Context) error {
	w := l.generate()

	if err := l.Runner.CompileOnce(w); err != nil {
		return fmt.Errorf("blackbox: compiling generated workload: %w", err)
	}

	v, err := l.Runner.RunOnce(ctx)
	if err != nil {
		return fmt.Errorf("blackbox: running generated workload: %w", err)
	}
	l.Stats.TestsRun++

	switch v.Kind {
	case runner.VerdictCrash:
		l.Stats.CrashesFound++
		if l.OnCrash != nil {
			l.OnCrash(w, v)
		}
	case runner.VerdictAccident:
		l.Stats.AccidentsFound++
		if l.OnCrash != nil {
			l.OnCrash(w, v)
		}
	}

	l.emitStats()
	return nil
}

// generate produces a fully replayable workload of up to MaxOps
// operations by repeatedly stepping the generator against the
// in-memory filesystem state resulting from every operation accepted
// so far. Generator.Step only inspects fs -- it never mutates it -- so
// each accepted operation is folded in via a fresh abstractfs.Replay
// before the next Step call, matching the mutator's own replay
// discipline. A generator that (transiently) finds no eligible
// operation simply stops early rather than erroring the whole run.
func (l *Loop) generate() abstractfs.Workload {
	fs := abstractfs.New()
	ops := make([]abstractfs.Operation, 0, l.MaxOps)
	for i := 0; i < l.MaxOps; i++ {
		op, err := l.Generator.Step(fs)
		if err != nil {
			break
		}
		ops = append(ops, op)

		next, err := abstractfs.Replay(abstractfs.Workload{Ops: ops})
		if err != nil {
			ops = ops[:len(ops)-1]
			break
		}
		fs = next
	}
	return abstractfs.Workload{Ops: ops}
}

func (l *Loop) emitStats() {
	if l.OnEvent == nil {
		return
	}
	l.OnEvent(event.NewBlackBoxStats(l.InstanceID, time.Now(), l.Stats.TestsRun, l.Stats.CrashesFound, l.Stats.AccidentsFound))
}

// Package greybox implements the corpus-guided fuzz loop (spec.md 4.8):
// round-robin seed scheduling, mutation, running both sides, and
// feeding coverage-interesting mutants back into the corpus.
package greybox

import (
	"context"
	"fmt"
	"time"

	"github.com/diffuzzer/diffuzzer/abstractfs"
	"github.com/diffuzzer/diffuzzer/event"
	"github.com/diffuzzer/diffuzzer/greybox/feedback"
	"github.com/diffuzzer/diffuzzer/mutator"
	"github.com/diffuzzer/diffuzzer/runner"
)

// Corpus is a round-robin scheduler over accepted workloads, seeded
// with a single empty workload (spec.md 4.8).
type Corpus struct {
	seeds []abstractfs.Workload
	next  int
}

// NewCorpus returns a corpus containing only the empty workload.
func NewCorpus() *Corpus {
	return &Corpus{seeds: []abstractfs.Workload{{}}}
}

// Pick returns the next seed in round-robin order.
func (c *Corpus) Pick() abstractfs.Workload {
	w := c.seeds[c.next]
	c.next = (c.next + 1) % len(c.seeds)
	return w
}

// Add appends a newly accepted workload to the corpus.
func (c *Corpus) Add(w abstractfs.Workload) {
	c.seeds = append(c.seeds, w)
}

func (c *Corpus) Len() int { return len(c.seeds) }

// Stats is the periodic heartbeat payload (spec.md 4.8).
type Stats struct {
	TestsRun       uint64
	CrashesFound   uint64
	AccidentsFound uint64
	CorpusSize     int
	CoverageSize   int
}

// ObserveFunc reads a single side's post-run coverage for feedback
// evaluation; returns zero Observation when coverage is disabled.
type ObserveFunc func(ctx context.Context) (feedback.Observation, error)

// Loop drives one instance's greybox fuzzing: mutate a scheduled seed,
// run it against both harnesses via r, and route the result either into
// a crash report or back into the corpus.
type Loop struct {
	Runner   *runner.Runner
	Mutator  *mutator.Mutator
	Corpus   *Corpus
	Feedback *feedback.Map

	ObserveFst, ObserveSnd ObserveFunc

	Stats Stats

	OnCrash    func(w abstractfs.Workload, v runner.Verdict)
	OnEvent    func(event.Message)
	InstanceID string
}

// Step runs exactly one greybox iteration.
func (l *Loop) Step(ctx context.Context) error {
	seed := l.Corpus.Pick()
	mutated := abstractfs.Workload{Ops: l.Mutator.Mutate(seed.Ops)}

	if err := l.Runner.CompileOnce(mutated); err != nil {
		return fmt.Errorf("greybox: compiling mutated workload: %w", err)
	}

	v, err := l.Runner.RunOnce(ctx)
	if err != nil {
		return fmt.Errorf("greybox: running mutated workload: %w", err)
	}
	l.Stats.TestsRun++

	switch v.Kind {
	case runner.VerdictCrash:
		l.Stats.CrashesFound++
		if l.OnCrash != nil {
			l.OnCrash(mutated, v)
		}
		return nil
	case runner.VerdictAccident:
		l.Stats.AccidentsFound++
		if l.OnCrash != nil {
			l.OnCrash(mutated, v)
		}
		return nil
	case runner.VerdictTimedOut, runner.VerdictPanicked:
		return nil
	}

	if l.Feedback != nil && l.Feedback.Kind != feedback.KindNone {
		interesting := false
		if l.ObserveFst != nil {
			if obs, err := l.ObserveFst(ctx); err == nil && l.Feedback.Consider(obs) {
				interesting = true
			}
		}
		if l.ObserveSnd != nil {
			if obs, err := l.ObserveSnd(ctx); err == nil && l.Feedback.Consider(obs) {
				interesting = true
			}
		}
		if interesting {
			l.Corpus.Add(mutated)
		}
	}

	l.Stats.CorpusSize = l.Corpus.Len()
	if l.Feedback != nil {
		l.Stats.CoverageSize = l.Feedback.Size()
	}
	l.emitStats()
	return nil
}

func (l *Loop) emitStats() {
	if l.OnEvent == nil {
		return
	}
	l.OnEvent(event.NewGreyBoxStats(l.InstanceID, time.Now(), l.Stats.TestsRun, l.Stats.CrashesFound,
		l.Stats.AccidentsFound, uint64(l.Stats.CorpusSize), uint64(l.Stats.CoverageSize)))
}

// Package reducer delta-debugs a known-bad workload (spec.md 4.9):
// attempt to remove the operation at index n-1, n-2, ..., 0 of whatever
// the workload currently is, keeping a removal only when the model
// still replays and the resulting run still reports a diff equivalent
// to the one being chased. Diffs that still crash but differ in shape
// are kept aside as variations rather than discarded.
package reducer

import (
	"context"
	"fmt"

	"github.com/diffuzzer/diffuzzer/abstractfs"
	"github.com/diffuzzer/diffuzzer/dash"
	"github.com/diffuzzer/diffuzzer/runner"
	"github.com/diffuzzer/diffuzzer/trace"
)

// Variation is a reduction candidate that still produced a diff, but
// not one equivalent to the bugcase being shrunk (spec.md 4.9).
type Variation struct {
	Workload abstractfs.Workload
	Verdict  runner.Verdict
}

// Result is the outcome of one full reduction pass.
type Result struct {
	Workload   abstractfs.Workload
	Verdict    runner.Verdict
	Variations []Variation
}

// Reduce shrinks w, whose run against r already produced original,
// stopping once index 0 of the (possibly already-shrunk) workload has
// been considered. variationLimit caps how many distinct variations are
// retained; zero means unlimited.
func Reduce(ctx context.Context, r *runner.Runner, w abstractfs.Workload, original runner.Verdict, variationLimit int) (Result, error) {
	current := w
	currentVerdict := original
	var variations []Variation

	for i := len(w.Ops) - 1; i >= 0; i-- {
		if i >= len(current.Ops) {
			continue
		}

		candidate := removeAt(current.Ops, i)
		if _, err := abstractfs.Replay(abstractfs.Workload{Ops: candidate}); err != nil {
			continue
		}

		candidateWorkload := abstractfs.Workload{Ops: candidate}
		if err := r.CompileOnce(candidateWorkload); err != nil {
			return Result{}, fmt.Errorf("reducer: compiling candidate: %w", err)
		}
		v, err := r.RunOnce(ctx)
		if err != nil {
			return Result{}, fmt.Errorf("reducer: running candidate: %w", err)
		}

		switch {
		case v.Kind == runner.VerdictOK:
			continue
		case equivalent(v, currentVerdict):
			current = candidateWorkload
			currentVerdict = v
		default:
			if variationLimit == 0 || len(variations) < variationLimit {
				variations = append(variations, Variation{Workload: candidateWorkload, Verdict: v})
			}
		}
	}

	return Result{Workload: current, Verdict: currentVerdict, Variations: variations}, nil
}

// removeAt returns a copy of ops with the element at i deleted.
func removeAt(ops []abstractfs.Operation, i int) []abstractfs.Operation {
	out := make([]abstractfs.Operation, 0, len(ops)-1)
	out = append(out, ops[:i]...)
	out = append(out, ops[i+1:]...)
	return out
}

// equivalent reports whether v is the "same" diff as want for the
// purpose of accepting a reduction: same verdict kind, the same trace
// row shapes modulo row index, and an identical dash diff (spec.md
// 4.9's "same trace-row shapes modulo indices AND identical dash-diff").
func equivalent(v, want runner.Verdict) bool {
	if v.Kind != want.Kind {
		return false
	}
	if !traceDiffsEquivalent(v.TraceDiffs, want.TraceDiffs) {
		return false
	}
	return dashDiffsEquivalent(v.DashDiffs, want.DashDiffs)
}

func traceDiffsEquivalent(a, b []trace.Diff) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Kind != b[i].Kind {
			return false
		}
		switch a[i].Kind {
		case trace.DiffDifferentLength:
			if a[i].FstLen != b[i].FstLen || a[i].SndLen != b[i].SndLen {
				return false
			}
		case trace.DiffTraceRowIsDifferent:
			if !rowShapeEqual(a[i].Fst, b[i].Fst) || !rowShapeEqual(a[i].Snd, b[i].Snd) {
				return false
			}
		}
	}
	return true
}

// rowShapeEqual compares everything but Index, the column the reduced
// workload's shorter operation sequence is expected to shift.
func rowShapeEqual(a, b trace.Row) bool {
	return a.Command == b.Command &&
		a.ReturnCode == b.ReturnCode &&
		a.HasErrno == b.HasErrno &&
		a.ErrnoName == b.ErrnoName &&
		a.ErrnoCode == b.ErrnoCode &&
		a.Extra == b.Extra
}

func dashDiffsEquivalent(a, b []dash.Diff) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Kind != b[i].Kind {
			return false
		}
		switch a[i].Kind {
		case dash.DiffOnlyOneExists:
			if a[i].Entry.File.RelPath != b[i].Entry.File.RelPath || a[i].Entry.Side != b[i].Entry.Side {
				return false
			}
		case dash.DiffFileIsDifferent:
			if a[i].Fst.RelPath != b[i].Fst.RelPath {
				return false
			}
		}
	}
	return true
}

package runner

import (
	"context"
	"fmt"
	"regexp"

	"github.com/diffuzzer/diffuzzer/abstractfs"
	"github.com/diffuzzer/diffuzzer/dash"
	"github.com/diffuzzer/diffuzzer/trace"
)

// VerdictKind classifies the result of comparing both sides' outcomes.
type VerdictKind int

const (
	VerdictOK VerdictKind = iota
	VerdictCrash
	VerdictAccident
	VerdictTimedOut
	VerdictPanicked
)

// Verdict is the outcome of running one workload against both sides of
// a differential pair and comparing their traces (and, if enabled,
// their DASH digests).
type Verdict struct {
	Kind       VerdictKind
	FstOutcome Outcome
	SndOutcome Outcome
	TraceDiffs []trace.Diff
	DashDiffs  []dash.Diff
}

// Runner pairs two Harnesses -- one per filesystem under test -- and
// drives them through the compile-once-run-many differential testing
// loop (spec.md 4.7, 9): FS-A is always fully torn down before FS-B
// begins, matching the ordering guarantee in spec.md 5.
type Runner struct {
	Fst, Snd     Harness
	DashEnabled  bool
	DashOpts     dash.Options
	DashInternal *regexp.Regexp
}

// New builds a Runner over an already-constructed harness pair, with
// DASH comparison (when enabled) skipping spec.md 4.5's default set of
// filesystem-private entries.
func New(fst, snd Harness, dashEnabled bool) *Runner {
	return &Runner{
		Fst: fst, Snd: snd, DashEnabled: dashEnabled,
		DashOpts: dash.DefaultOptions(), DashInternal: dash.DefaultInternalDirs,
	}
}

// CompileOnce compiles w against both harnesses a single time; the
// resulting binaries are reused by every subsequent RunOnce call, the
// "compile once, reuse across both harness runs" optimization this
// fuzzer carries over from its source (spec.md 9).
func (r *Runner) CompileOnce(w abstractfs.Workload) error {
	if err := r.Fst.Compile(w); err != nil {
		return fmt.Errorf("runner: compiling for %s: %w", r.Fst.FSName(), err)
	}
	if err := r.Snd.Compile(w); err != nil {
		return fmt.Errorf("runner: compiling for %s: %w", r.Snd.FSName(), err)
	}
	return nil
}

// RunOnce resets both mounts, runs the already-compiled binary against
// each in turn (FS-A fully before FS-B begins), and compares the
// resulting traces. When no trace divergence is found and DashEnabled
// is set, it falls back to comparing both sides' DASH entries (spec.md
// 4.5, 4.7) via each Harness's own DashEntries.
func (r *Runner) RunOnce(ctx context.Context) (Verdict, error) {
	if err := r.Fst.Reset(ctx); err != nil {
		return Verdict{}, fmt.Errorf("runner: resetting %s: %w", r.Fst.FSName(), err)
	}
	fstOutcome, err := r.Fst.Run(ctx)
	if err != nil {
		return Verdict{}, fmt.Errorf("runner: running %s: %w", r.Fst.FSName(), err)
	}

	if err := r.Snd.Reset(ctx); err != nil {
		return Verdict{}, fmt.Errorf("runner: resetting %s: %w", r.Snd.FSName(), err)
	}
	sndOutcome, err := r.Snd.Run(ctx)
	if err != nil {
		return Verdict{}, fmt.Errorf("runner: running %s: %w", r.Snd.FSName(), err)
	}

	v := Verdict{FstOutcome: fstOutcome, SndOutcome: sndOutcome}

	if fstOutcome.Kind != OutcomeCompleted || sndOutcome.Kind != OutcomeCompleted {
		v.Kind = classifyAbnormal(fstOutcome, sndOutcome)
		return v, nil
	}

	v.TraceDiffs = trace.Compare(fstOutcome.Trace, sndOutcome.Trace)
	if len(v.TraceDiffs) > 0 {
		if trace.IsAccident(fstOutcome.Trace, sndOutcome.Trace) {
			v.Kind = VerdictAccident
		} else {
			v.Kind = VerdictCrash
		}
		return v, nil
	}

	if r.DashEnabled {
		fstInfo, err := r.Fst.DashEntries()
		if err != nil {
			return v, fmt.Errorf("runner: reading %s dash entries: %w", r.Fst.FSName(), err)
		}
		sndInfo, err := r.Snd.DashEntries()
		if err != nil {
			return v, fmt.Errorf("runner: reading %s dash entries: %w", r.Snd.FSName(), err)
		}
		dash.SortByRelPath(fstInfo)
		dash.SortByRelPath(sndInfo)
		v.DashDiffs = dash.DiffEntries(fstInfo, sndInfo, r.DashInternal, r.DashOpts)
		if len(v.DashDiffs) > 0 {
			v.Kind = VerdictCrash
			return v, nil
		}
	}

	v.Kind = VerdictOK
	return v, nil
}

func classifyAbnormal(fst, snd Outcome) VerdictKind {
	if fst.Kind == OutcomeTimedOut || snd.Kind == OutcomeTimedOut {
		return VerdictTimedOut
	}
	if fst.Kind != snd.Kind {
		return VerdictCrash
	}
	return VerdictPanicked
}

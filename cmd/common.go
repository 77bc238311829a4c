package cmd

import (
	"time"

	"github.com/diffuzzer/diffuzzer/abstractfs"
	"github.com/diffuzzer/diffuzzer/report"
	"github.com/diffuzzer/diffuzzer/runner"
)

// defaultCrashDir is where greybox and blackbox save crash/accident
// reports: neither subcommand takes an --output-dir flag (only
// solo-single, duo-single, and reduce do), matching the original
// fuzzer's main.rs, which hardcodes "./crashes" for both loops.
const defaultCrashDir = "./crashes"

// timeSeed derives a mutator/generator PRNG seed from the wall clock,
// the teacher's own go-with-the-grain way of seeding a run that has no
// caller-supplied seed flag.
func timeSeed() int64 {
	return time.Now().UnixNano()
}

// saveCrash builds a report.Case from one differential verdict and
// writes it under dir, logging (rather than failing the run) if the
// write itself errors -- a bad crash-report write should never abort
// an in-progress fuzz loop.
func saveCrash(dir string, fstFSName, sndFSName string, w abstractfs.Workload, v runner.Verdict, dashEnabled bool) {
	c := report.Case{
		Workload:    w,
		FstFSName:   fstFSName,
		SndFSName:   sndFSName,
		FstTrace:    v.FstOutcome.Trace,
		SndTrace:    v.SndOutcome.Trace,
		FstStdout:   v.FstOutcome.Stdout,
		SndStdout:   v.SndOutcome.Stdout,
		FstStderr:   v.FstOutcome.Stderr,
		SndStderr:   v.SndOutcome.Stderr,
		TraceDiffs:  v.TraceDiffs,
		DashDiffs:   v.DashDiffs,
		DashEnabled: dashEnabled,
	}
	if _, err := report.Save(dir, c); err != nil {
		emitSaveError(err)
	}
}

// emitSaveError is a seam so tests can stub out the side effect; in the
// running binary it prints to stderr with the println builtin, outside
// the common package's log sink.
var emitSaveError = func(err error) {
	println("cmd: saving crash report:", err.Error())
}

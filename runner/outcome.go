package runner

import "github.com/diffuzzer/diffuzzer/trace"

// OutcomeKind tags which of the three ways a single test execution can
// end (spec.md 5, 9).
type OutcomeKind int

const (
	OutcomeCompleted OutcomeKind = iota
	OutcomeTimedOut
	OutcomePanicked
)

// Outcome is the sealed result of running one compiled workload against
// one harness.
type Outcome struct {
	Kind  OutcomeKind
	Trace []trace.Row
	// Stdout/Stderr are captured for crash-directory reporting
	// regardless of Kind.
	Stdout string
	Stderr string
}

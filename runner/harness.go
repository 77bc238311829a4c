// Package runner drives a compiled workload binary against one
// filesystem mount and turns its trace.csv plus exit behavior into an
// Outcome, then a Runner pairs two Harnesses to produce a verdict
// (spec.md 4.7, 9). The --no-qemu CLI flag selects between a
// LocalHarness (for CI/dev iteration on a throwaway directory) and the
// qemu package's Harness (for the real snapshot/restore fuzzing
// loop); both satisfy this one interface.
package runner

import (
	"context"

	"github.com/diffuzzer/diffuzzer/abstractfs"
	"github.com/diffuzzer/diffuzzer/dash"
)

// Harness compiles a workload once and can run it repeatedly against a
// single mounted filesystem, resetting the mount's state between runs.
type Harness interface {
	// Compile builds the workload's C source into a binary reusable
	// across every subsequent Run call, until the next Compile.
	Compile(w abstractfs.Workload) error

	// Run executes the most recently compiled binary against the
	// mounted filesystem under test and returns its Outcome.
	Run(ctx context.Context) (Outcome, error)

	// Reset clears the mount back to an empty state so the next Run
	// starts from a known baseline.
	Reset(ctx context.Context) error

	// MountPath is the absolute path, on whichever host actually
	// executes the workload, of the filesystem under test.
	MountPath() string

	// FSName names the filesystem this harness drives, for crash
	// directory file naming (spec.md 6.3).
	FSName() string

	// DashEntries enumerates every live entry under the mounted
	// filesystem, name-sorted, for a DASH comparison (spec.md 4.5, 4.7).
	// Only called when the owning Runner's DashEnabled is set.
	DashEntries() ([]dash.FileInfo, error)
}

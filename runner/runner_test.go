package runner_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diffuzzer/diffuzzer/abstractfs"
	"github.com/diffuzzer/diffuzzer/dash"
	"github.com/diffuzzer/diffuzzer/runner"
	"github.com/diffuzzer/diffuzzer/trace"
)

// fakeHarness lets runner tests exercise Runner's comparison logic
// without invoking a C compiler.
type fakeHarness struct {
	fsName      string
	outcome     runner.Outcome
	dashEntries []dash.FileInfo
	resets      int
	runs        int
}

func (h *fakeHarness) Compile(w abstractfs.Workload) error { return nil }
func (h *fakeHarness) Run(ctx context.Context) (runner.Outcome, error) {
	h.runs++
	return h.outcome, nil
}
func (h *fakeHarness) Reset(ctx context.Context) error { h.resets++; return nil }
func (h *fakeHarness) MountPath() string               { return "/mnt/" + h.fsName }
func (h *fakeHarness) FSName() string                  { return h.fsName }
func (h *fakeHarness) DashEntries() ([]dash.FileInfo, error) {
	return h.dashEntries, nil
}

func completedOutcome(rows []trace.Row) runner.Outcome {
	return runner.Outcome{Kind: runner.OutcomeCompleted, Trace: rows}
}

func TestRunOnceOKWhenTracesMatch(t *testing.T) {
	rows := []trace.Row{{Command: "mkdir", ReturnCode: 0}}
	fst := &fakeHarness{fsName: "ext4", outcome: completedOutcome(rows)}
	snd := &fakeHarness{fsName: "btrfs", outcome: completedOutcome(rows)}

	r := runner.New(fst, snd, false)
	v, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, runner.VerdictOK, v.Kind)
	assert.Equal(t, 1, fst.resets)
	assert.Equal(t, 1, snd.resets)
}

func TestRunOnceCrashWhenTracesDiffer(t *testing.T) {
	fst := &fakeHarness{fsName: "ext4", outcome: completedOutcome([]trace.Row{{Command: "mkdir", ReturnCode: 0}})}
	snd := &fakeHarness{fsName: "btrfs", outcome: completedOutcome([]trace.Row{{Command: "mkdir", ReturnCode: -1, HasErrno: true, ErrnoName: "EEXIST", ErrnoCode: 17}})}

	r := runner.New(fst, snd, false)
	v, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, runner.VerdictCrash, v.Kind)
}

func TestRunOnceAccidentWhenBothSidesErrorCarrying(t *testing.T) {
	fst := &fakeHarness{fsName: "ext4", outcome: completedOutcome([]trace.Row{{Command: "open", ReturnCode: -1, HasErrno: true, ErrnoName: "ENOENT", ErrnoCode: 2}})}
	snd := &fakeHarness{fsName: "btrfs", outcome: completedOutcome([]trace.Row{{Command: "open", ReturnCode: -1, HasErrno: true, ErrnoName: "EACCES", ErrnoCode: 13}})}

	r := runner.New(fst, snd, false)
	v, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, runner.VerdictAccident, v.Kind)
}

func TestRunOnceTimedOut(t *testing.T) {
	fst := &fakeHarness{fsName: "ext4", outcome: runner.Outcome{Kind: runner.OutcomeTimedOut}}
	snd := &fakeHarness{fsName: "btrfs", outcome: completedOutcome(nil)}

	r := runner.New(fst, snd, false)
	v, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, runner.VerdictTimedOut, v.Kind)
}

func TestRunOnceOrdersFstBeforeSnd(t *testing.T) {
	var order []string
	fst := &fakeHarness{fsName: "ext4", outcome: completedOutcome(nil)}
	snd := &fakeHarness{fsName: "btrfs", outcome: completedOutcome(nil)}

	r := runner.New(recordingHarness{fst, &order}, recordingHarness{snd, &order}, false)
	_, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ext4", "btrfs"}, order)
}

type recordingHarness struct {
	*fakeHarness
	order *[]string
}

func (h recordingHarness) Run(ctx context.Context) (runner.Outcome, error) {
	*h.order = append(*h.order, h.fsName)
	return h.fakeHarness.Run(ctx)
}

// TestRunOnceDashCatchesSilentDivergence covers the DashEnabled path:
// two sides whose traces match exactly but whose on-disk state has
// diverged (spec.md 4.5, 4.7) must still be flagged as a crash.
func TestRunOnceDashCatchesSilentDivergence(t *testing.T) {
	rows := []trace.Row{{Command: "mkdir", ReturnCode: 0}}
	fst := &fakeHarness{
		fsName: "ext4", outcome: completedOutcome(rows),
		dashEntries: []dash.FileInfo{{RelPath: "/a", Mode: 0o755, IsDir: true}},
	}
	snd := &fakeHarness{
		fsName: "btrfs", outcome: completedOutcome(rows),
		dashEntries: []dash.FileInfo{{RelPath: "/a", Mode: 0o700, IsDir: true}},
	}

	r := runner.New(fst, snd, true)
	v, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, runner.VerdictCrash, v.Kind)
	require.Len(t, v.DashDiffs, 1)
	assert.Equal(t, dash.DiffFileIsDifferent, v.DashDiffs[0].Kind)
}

// TestRunOnceDashIgnoresInternalDirs confirms DASH's default
// filesystem-private skip list applies here the same way it applies to
// dash.DiffEntries directly (spec.md 4.5, 4.7's "silent" divergence
// should never fire on /lost+found alone).
func TestRunOnceDashIgnoresInternalDirs(t *testing.T) {
	rows := []trace.Row{{Command: "mkdir", ReturnCode: 0}}
	fst := &fakeHarness{
		fsName: "ext4", outcome: completedOutcome(rows),
		dashEntries: []dash.FileInfo{{RelPath: "/a", IsDir: true}},
	}
	snd := &fakeHarness{
		fsName: "ext4", outcome: completedOutcome(rows),
		dashEntries: []dash.FileInfo{
			{RelPath: "/a", IsDir: true},
			{RelPath: "/lost+found", IsDir: true},
		},
	}

	r := runner.New(fst, snd, true)
	v, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, runner.VerdictOK, v.Kind)
}

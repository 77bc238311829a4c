package blackbox_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diffuzzer/diffuzzer/abstractfs"
	"github.com/diffuzzer/diffuzzer/blackbox"
	"github.com/diffuzzer/diffuzzer/dash"
	"github.com/diffuzzer/diffuzzer/event"
	"github.com/diffuzzer/diffuzzer/generator"
	"github.com/diffuzzer/diffuzzer/runner"
	"github.com/diffuzzer/diffuzzer/trace"
)

type fakeHarness struct {
	fsName  string
	outcome runner.Outcome
}

func (h *fakeHarness) Compile(w abstractfs.Workload) error             { return nil }
func (h *fakeHarness) Run(ctx context.Context) (runner.Outcome, error) { return h.outcome, nil }
func (h *fakeHarness) Reset(ctx context.Context) error                 { return nil }
func (h *fakeHarness) MountPath() string                               { return "/mnt/" + h.fsName }
func (h *fakeHarness) FSName() string                                  { return h.fsName }
func (h *fakeHarness) DashEntries() ([]dash.FileInfo, error)           { return nil, nil }

func TestStepRunsOneCleanIterationPerCall(t *testing.T) {
	fst := &fakeHarness{fsName: "ext4", outcome: runner.Outcome{Kind: runner.OutcomeCompleted}}
	snd := &fakeHarness{fsName: "btrfs", outcome: runner.Outcome{Kind: runner.OutcomeCompleted}}

	var seen abstractfs.Workload
	l := &blackbox.Loop{
		Runner:    runner.New(fst, snd, false),
		Generator: generator.New(7, nil),
		MaxOps:    50,
		OnCrash:   func(w abstractfs.Workload, v runner.Verdict) { seen = w },
	}

	for i := 0; i < 20; i++ {
		require.NoError(t, l.Step(context.Background()))
	}
	assert.Equal(t, uint64(20), l.Stats.TestsRun)
	assert.Equal(t, uint64(0), l.Stats.CrashesFound)
	assert.Empty(t, seen.Ops)
}

func TestStepCountsCrashWhenTracesDiverge(t *testing.T) {
	fst := &fakeHarness{fsName: "ext4", outcome: runner.Outcome{
		Kind:  runner.OutcomeCompleted,
		Trace: []trace.Row{{Command: "mkdir", ReturnCode: 0}},
	}}
	snd := &fakeHarness{fsName: "btrfs", outcome: runner.Outcome{
		Kind:  runner.OutcomeCompleted,
		Trace: []trace.Row{{Command: "mkdir", ReturnCode: -1, HasErrno: true, ErrnoName: "EEXIST", ErrnoCode: 17}},
	}}

	l := &blackbox.Loop{
		Runner:    runner.New(fst, snd, false),
		Generator: generator.New(3, nil),
		MaxOps:    10,
	}

	require.NoError(t, l.Step(context.Background()))
	assert.Equal(t, uint64(1), l.Stats.TestsRun)
	assert.Equal(t, uint64(1), l.Stats.CrashesFound)
}

func TestEmitsStatsEventWhenOnEventIsSet(t *testing.T) {
	fst := &fakeHarness{fsName: "ext4", outcome: runner.Outcome{Kind: runner.OutcomeCompleted}}
	snd := &fakeHarness{fsName: "btrfs", outcome: runner.Outcome{Kind: runner.OutcomeCompleted}}

	var got event.Message
	l := &blackbox.Loop{
		Runner:     runner.New(fst, snd, false),
		Generator:  generator.New(1, nil),
		MaxOps:     5,
		InstanceID: "inst-0",
		OnEvent:    func(msg event.Message) { got = msg },
	}

	require.NoError(t, l.Step(context.Background()))
	require.NotNil(t, got)
	stats, ok := got.(event.BlackBoxStats)
	require.True(t, ok)
	assert.Equal(t, "inst-0", stats.InstanceID())
	assert.Equal(t, uint64(1), stats.TestsRun)
}

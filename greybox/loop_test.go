package greybox_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diffuzzer/diffuzzer/abstractfs"
	"github.com/diffuzzer/diffuzzer/dash"
	"github.com/diffuzzer/diffuzzer/greybox"
	"github.com/diffuzzer/diffuzzer/mutator"
	"github.com/diffuzzer/diffuzzer/runner"
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

func TestCorpusStartsWithEmptyWorkload(t *testing.T) {
	c := greybox.NewCorpus()
	require.Equal(t, 1, c.Len())
	assert.Empty(t, c.Pick().Ops)
}

func TestCorpusRoundRobins(t *testing.T) {
	c := greybox.NewCorpus()
	w := abstractfs.Workload{Ops: []abstractfs.Operation{abstractfs.MkDir{}}}
	c.Add(w)

	first := c.Pick()
	second := c.Pick()
	third := c.Pick()
	assert.Empty(t, first.Ops)
	assert.Equal(t, w.Ops, second.Ops)
	assert.Empty(t, third.Ops)
}

func TestStepCountsTestRunWhenOneSidePanics(t *testing.T) {
	fst := &fakeHarness{fsName: "ext4", outcome: runner.Outcome{Kind: runner.OutcomeCompleted}}
	snd := &fakeHarness{fsName: "btrfs", outcome: runner.Outcome{Kind: runner.OutcomePanicked}}

	l := &greybox.Loop{
		Runner:  runner.New(fst, snd, false),
		Mutator: mutator.New(1, mutator.DefaultConfig()),
		Corpus:  greybox.NewCorpus(),
	}

	var crashed bool
	l.OnCrash = func(w abstractfs.Workload, v runner.Verdict) { crashed = true }

	require.NoError(t, l.Step(context.Background()))
	assert.True(t, crashed)
	assert.Equal(t, uint64(1), l.Stats.TestsRun)
}

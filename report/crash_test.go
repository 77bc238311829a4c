package report_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diffuzzer/diffuzzer/abstractfs"
	"github.com/diffuzzer/diffuzzer/pathname"
	"github.com/diffuzzer/diffuzzer/report"
	"github.com/diffuzzer/diffuzzer/trace"
)

func mustPath(t *testing.T, raw string) pathname.Path {
	t.Helper()
	p, err := pathname.New(raw)
	require.NoError(t, err)
	return p
}

func TestSaveWritesExpectedFiles(t *testing.T) {
	w := abstractfs.Workload{Ops: []abstractfs.Operation{
		abstractfs.MkDir{Path: mustPath(t, "/a"), Mode: abstractfs.ModeIRWXU},
	}}
	c := report.Case{
		Workload:  w,
		FstFSName: "ext4",
		SndFSName: "btrfs",
		FstTrace:  []trace.Row{{Command: "mkdir", ReturnCode: 0}},
		SndTrace:  []trace.Row{{Command: "mkdir", ReturnCode: -1, HasErrno: true, ErrnoName: "EEXIST", ErrnoCode: 17}},
	}
	c.TraceDiffs = []trace.Diff{{Kind: trace.DiffTraceRowIsDifferent, RowIndex: 0, Fst: c.FstTrace[0], Snd: c.SndTrace[0]}}

	dir := t.TempDir()
	caseDir, err := report.Save(dir, c)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, w.Name()), caseDir)

	for _, name := range []string{"test.c", "test.json", "ext4.trace.csv", "btrfs.trace.csv", "reason.md"} {
		_, err := os.Stat(filepath.Join(caseDir, name))
		assert.NoErrorf(t, err, "expected %s to exist", name)
	}
}

func TestSaveIsIdempotentForIdenticalWorkload(t *testing.T) {
	w := abstractfs.Workload{Ops: []abstractfs.Operation{
		abstractfs.MkDir{Path: mustPath(t, "/a"), Mode: 0},
	}}
	dir := t.TempDir()

	d1, err := report.Save(dir, report.Case{Workload: w, FstFSName: "ext4", SndFSName: "btrfs"})
	require.NoError(t, err)
	d2, err := report.Save(dir, report.Case{Workload: w, FstFSName: "ext4", SndFSName: "btrfs"})
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
}

func TestReasonIncludesFSNames(t *testing.T) {
	w := abstractfs.Workload{Ops: []abstractfs.Operation{abstractfs.MkDir{Path: mustPath(t, "/a"), Mode: 0}}}
	text := report.Reason(report.Case{Workload: w, FstFSName: "ext4", SndFSName: "btrfs"})
	assert.Contains(t, text, "ext4")
	assert.Contains(t, text, "btrfs")
}

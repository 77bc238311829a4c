package report_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diffuzzer/diffuzzer/abstractfs"
	"github.com/diffuzzer/diffuzzer/report"
	"github.com/diffuzzer/diffuzzer/trace"
)

func TestSaveSoloWritesTraceOnlyWhenCompleted(t *testing.T) {
	w := abstractfs.Workload{Ops: []abstractfs.Operation{
		abstractfs.MkDir{Path: mustPath(t, "/a"), Mode: abstractfs.ModeIRWXU},
	}}
	dir := t.TempDir()

	caseDir, err := report.SaveSolo(dir, report.SoloCase{
		Workload: w,
		FSName:   "ext4",
		Kind:     report.SoloCompleted,
		Trace:    []trace.Row{{Command: "mkdir", ReturnCode: 0}},
	})
	require.NoError(t, err)

	for _, name := range []string{"test.c", "test.json", "ext4.trace.csv", "reason.md"} {
		_, err := os.Stat(filepath.Join(caseDir, name))
		assert.NoErrorf(t, err, "expected %s to exist", name)
	}
}

func TestSaveSoloSkipsTraceWhenPanicked(t *testing.T) {
	w := abstractfs.Workload{Ops: []abstractfs.Operation{
		abstractfs.MkDir{Path: mustPath(t, "/a"), Mode: abstractfs.ModeIRWXU},
	}}
	dir := t.TempDir()

	caseDir, err := report.SaveSolo(dir, report.SoloCase{
		Workload: w,
		FSName:   "ext4",
		Kind:     report.SoloPanicked,
	})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(caseDir, "ext4.trace.csv"))
	assert.True(t, os.IsNotExist(err))

	reason, err := os.ReadFile(filepath.Join(caseDir, "reason.md"))
	require.NoError(t, err)
	assert.Contains(t, string(reason), "panicked")
}

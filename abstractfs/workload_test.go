package abstractfs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diffuzzer/diffuzzer/abstractfs"
)

func buildSampleWorkload(t *testing.T) abstractfs.Workload {
	t.Helper()
	return abstractfs.Workload{Ops: []abstractfs.Operation{
		abstractfs.MkDir{Path: mustPath(t, "/a"), Mode: abstractfs.ModeIRWXU},
		abstractfs.Create{Path: mustPath(t, "/a/f"), Mode: 0},
		abstractfs.Open{Path: mustPath(t, "/a/f"), Des: 0},
		abstractfs.Write{Des: 0, SrcOffset: 0, Size: 16},
		abstractfs.Close{Des: 0},
	}}
}

func TestWorkloadNameIsStableAcrossIdenticalBuilds(t *testing.T) {
	w1 := buildSampleWorkload(t)
	w2 := buildSampleWorkload(t)
	assert.Equal(t, w1.Name(), w2.Name())
}

func TestWorkloadNameChangesWithOps(t *testing.T) {
	w1 := buildSampleWorkload(t)
	w2 := abstractfs.Workload{Ops: append(append([]abstractfs.Operation{}, w1.Ops...),
		abstractfs.FSync{Des: 0})}
	assert.NotEqual(t, w1.Name(), w2.Name())
}

func TestReplayIsTotalAndReproducesAliveSet(t *testing.T) {
	w := buildSampleWorkload(t)
	fs, err := abstractfs.Replay(w)
	require.NoError(t, err)

	dirs, files, _ := fs.Alive()
	require.Len(t, dirs, 2)
	require.Len(t, files, 1)
	assert.Equal(t, "/a/f", files[0].Path.String())
	assert.Equal(t, w.Ops, fs.Recording())
}

func TestReplayFailsOnBrokenSequence(t *testing.T) {
	w := abstractfs.Workload{Ops: []abstractfs.Operation{
		abstractfs.Remove{Path: mustPath(t, "/never-created")},
	}}
	_, err := abstractfs.Replay(w)
	require.Error(t, err)
}

func TestModeAtomsRendering(t *testing.T) {
	m := abstractfs.ModeIRWXU | abstractfs.ModeISVTX
	assert.Equal(t, []string{"S_IRWXU", "S_ISVTX"}, m.Atoms())
	assert.Empty(t, abstractfs.Mode(0).Atoms())
}

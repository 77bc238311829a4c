package mutator_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/diffuzzer/diffuzzer/abstractfs"
	"github.com/diffuzzer/diffuzzer/generator"
	"github.com/diffuzzer/diffuzzer/mutator"
)

func seedWorkload(t *testing.T) []abstractfs.Operation {
	t.Helper()
	fs := abstractfs.New()
	g := generator.New(1, nil)
	var ops []abstractfs.Operation
	for i := 0; i < 50; i++ {
		op, err := g.Step(fs)
		if err == generator.ErrNoCandidates {
			continue
		}
		require.NoError(t, err)
		applyForTest(t, fs, op)
		ops = append(ops, op)
	}
	return ops
}

func applyForTest(t *testing.T, fs *abstractfs.FS, op abstractfs.Operation) {
	t.Helper()
	var err error
	switch o := op.(type) {
	case abstractfs.MkDir:
		_, err = fs.Mkdir(o.Path, o.Mode)
	case abstractfs.Create:
		_, err = fs.Create(o.Path, o.Mode)
	case abstractfs.Remove:
		err = fs.Remove(o.Path)
	case abstractfs.Hardlink:
		err = fs.Hardlink(o.Old, o.New)
	case abstractfs.Symlink:
		err = fs.Symlink(o.Target, o.LinkPath)
	case abstractfs.Rename:
		err = fs.Rename(o.Old, o.New)
	case abstractfs.Open:
		_, err = fs.Open(o.Path)
	case abstractfs.Close:
		err = fs.Close(o.Des)
	case abstractfs.Read:
		_, err = fs.Read(o.Des, o.Size)
	case abstractfs.Write:
		err = fs.Write(o.Des, o.SrcOffset, o.Size)
	case abstractfs.FSync:
		err = fs.FSync(o.Des)
	}
	require.NoError(t, err)
}

func TestMutateProducesAReplayableWorkload(t *testing.T) {
	base := seedWorkload(t)
	require.NotEmpty(t, base)

	m := mutator.New(99, mutator.DefaultConfig())
	for trial := 0; trial < 20; trial++ {
		mutated := m.Mutate(base)
		_, err := abstractfs.Replay(abstractfs.Workload{Ops: mutated})
		require.NoError(t, err)
	}
}

func TestMutateRespectsMaxWorkloadLength(t *testing.T) {
	base := seedWorkload(t)
	cfg := mutator.DefaultConfig()
	cfg.MaxWorkloadLength = len(base)
	cfg.MaxMutations = 10

	m := mutator.New(3, cfg)
	mutated := m.Mutate(base)
	require.LessOrEqual(t, len(mutated), cfg.MaxWorkloadLength)
}

func TestMutateDoesNotModifyInputSlice(t *testing.T) {
	base := seedWorkload(t)
	snapshot := append([]abstractfs.Operation{}, base...)

	m := mutator.New(5, mutator.DefaultConfig())
	_ = m.Mutate(base)

	require.Equal(t, snapshot, base)
}

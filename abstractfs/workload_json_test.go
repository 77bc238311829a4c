package abstractfs_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diffuzzer/diffuzzer/abstractfs"
	"github.com/diffuzzer/diffuzzer/pathname"
)

func TestWorkloadJSONRoundTrips(t *testing.T) {
	a := mustPathJSON(t, "/a")
	b := mustPathJSON(t, "/a/b")

	w := abstractfs.Workload{Ops: []abstractfs.Operation{
		abstractfs.MkDir{Path: a, Mode: abstractfs.ModeIRWXU},
		abstractfs.Create{Path: b, Mode: abstractfs.Mode(0o400)},
		abstractfs.Open{Path: b, Des: 0},
		abstractfs.Write{Des: 0, SrcOffset: 3, Size: 7},
		abstractfs.Close{Des: 0},
	}}

	data, err := json.Marshal(w)
	require.NoError(t, err)

	var got abstractfs.Workload
	require.NoError(t, json.Unmarshal(data, &got))

	require.Equal(t, len(w.Ops), len(got.Ops))
	for i := range w.Ops {
		assert.Equal(t, w.Ops[i], got.Ops[i])
	}
}

func TestWorkloadJSONRejectsUnknownKind(t *testing.T) {
	var w abstractfs.Workload
	err := json.Unmarshal([]byte(`[{"kind":"Teleport"}]`), &w)
	assert.Error(t, err)
}

func mustPathJSON(t *testing.T, raw string) pathname.Path {
	t.Helper()
	p, err := pathname.New(raw)
	require.NoError(t, err)
	return p
}

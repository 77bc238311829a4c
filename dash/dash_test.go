package dash_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/diffuzzer/diffuzzer/dash"
)

func sampleTree() []dash.FileInfo {
	return []dash.FileInfo{
		{RelPath: "/a", UID: 0, GID: 0, Size: 0, Nlink: 2, Mode: 0o755, IsDir: true},
		{RelPath: "/a/f", UID: 0, GID: 0, Size: 16, Nlink: 1, Mode: 0o644, IsDir: false},
	}
}

func TestHashIsStableForIdenticalInput(t *testing.T) {
	opts := dash.DefaultOptions()
	a := sampleTree()
	b := sampleTree()
	assert.Equal(t, dash.Hash(a, dash.DefaultInternalDirs, opts), dash.Hash(b, dash.DefaultInternalDirs, opts))
}

func TestHashChangesWhenContentDiffers(t *testing.T) {
	opts := dash.DefaultOptions()
	a := sampleTree()
	b := sampleTree()
	b[1].Size = 17
	assert.NotEqual(t, dash.Hash(a, dash.DefaultInternalDirs, opts), dash.Hash(b, dash.DefaultInternalDirs, opts))
}

func TestLostAndFoundIsExcludedByInternalDirs(t *testing.T) {
	opts := dash.DefaultOptions()
	a := sampleTree()
	b := append(sampleTree(), dash.FileInfo{RelPath: "/lost+found", UID: 0, GID: 0, IsDir: true, Nlink: 2, Mode: 0o700})

	dash.SortByRelPath(a)
	dash.SortByRelPath(b)

	assert.Equal(t, dash.Hash(a, dash.DefaultInternalDirs, opts), dash.Hash(b, dash.DefaultInternalDirs, opts))
	assert.Empty(t, dash.DiffEntries(a, b, dash.DefaultInternalDirs, opts))
}

func TestDiffEntriesReportsOnlyOneExists(t *testing.T) {
	opts := dash.DefaultOptions()
	a := sampleTree()
	b := []dash.FileInfo{a[0]}

	diffs := dash.DiffEntries(a, b, dash.DefaultInternalDirs, opts)
	if assert.Len(t, diffs, 1) {
		assert.Equal(t, dash.DiffOnlyOneExists, diffs[0].Kind)
		assert.Equal(t, "/a/f", diffs[0].Entry.File.RelPath)
		assert.Equal(t, dash.SideFirst, diffs[0].Entry.Side)
	}
}

func TestDiffEntriesReportsFileIsDifferent(t *testing.T) {
	opts := dash.DefaultOptions()
	a := sampleTree()
	b := sampleTree()
	b[1].Mode = 0o600

	diffs := dash.DiffEntries(a, b, dash.DefaultInternalDirs, opts)
	if assert.Len(t, diffs, 1) {
		assert.Equal(t, dash.DiffFileIsDifferent, diffs[0].Kind)
		assert.Equal(t, "/a/f", diffs[0].Fst.RelPath)
	}
}

func TestDiffEntriesPreservesPathOrder(t *testing.T) {
	opts := dash.DefaultOptions()
	a := []dash.FileInfo{{RelPath: "/a"}, {RelPath: "/b"}, {RelPath: "/c"}}
	b := []dash.FileInfo{{RelPath: "/b"}}

	diffs := dash.DiffEntries(a, b, dash.DefaultInternalDirs, opts)
	var got []string
	for _, d := range diffs {
		got = append(got, d.Entry.File.RelPath)
	}
	assert.Equal(t, []string{"/a", "/c"}, got)
}

package generator

import (
	"fmt"
	"math/rand"

	"github.com/diffuzzer/diffuzzer/abstractfs"
	"github.com/diffuzzer/diffuzzer/pathname"
)

// ErrNoCandidates is the error Step reports when every operation kind
// is pruned for the current model state. MkDir, Create and Symlink are
// never pruned, so the eligible set is never empty and Step does not
// return it.
var ErrNoCandidates = fmt.Errorf("generator: no eligible operation kind for current state")

// Generator samples replayable operations against a live abstractfs.FS,
// pruning candidate kinds to whatever the current model state actually
// supports (spec.md 4.2) so that every emitted operation is guaranteed
// to succeed when applied.
type Generator struct {
	rng     *rand.Rand
	weights Weights
	names   *NameCounter
}

// New builds a Generator seeded from seed, using w for per-kind sampling
// weights (DefaultWeights if w is nil).
func New(seed int64, w Weights) *Generator {
	if w == nil {
		w = DefaultWeights()
	}
	return &Generator{
		rng:     rand.New(rand.NewSource(seed)),
		weights: w,
		names:   NewNameCounter(),
	}
}

// SeedNamesPast advances g's internal NameCounter so it never hands out
// a name already present in some other workload -- used by the mutator
// when splicing a freshly generated operation into an existing one.
func (g *Generator) SeedNamesPast(n uint64) {
	g.names.SeedPast(n)
}

// eligibility describes, for one candidate FS snapshot, which kinds
// currently have at least one valid operand.
type eligibility struct {
	dirs      []abstractfs.AliveDir
	files     []abstractfs.AliveFile
	nonRoot   []abstractfs.AliveDir
	closedF   []abstractfs.AliveFile
	openDes   []abstractfs.FileDescriptorIndex
}

func inspect(fs *abstractfs.FS) eligibility {
	dirs, files, _ := fs.Alive()
	e := eligibility{dirs: dirs, files: files}
	for _, d := range dirs {
		if !d.Path.IsRoot() {
			e.nonRoot = append(e.nonRoot, d)
		}
	}
	for _, f := range files {
		if !fs.IsFileOpen(f.Index) {
			e.closedF = append(e.closedF, f)
		}
	}
	e.openDes = fs.OpenDescriptors()
	return e
}

// eligibleKinds returns the subset of spec.md's 11 kinds that have at
// least one valid candidate operand in the current model state.
func eligibleKinds(e eligibility) []abstractfs.OperationKind {
	kinds := []abstractfs.OperationKind{abstractfs.OpMkDir, abstractfs.OpCreate}
	if len(e.nonRoot) > 0 || len(e.files) > 0 {
		kinds = append(kinds, abstractfs.OpRemove)
	}
	if len(e.files) > 0 {
		kinds = append(kinds, abstractfs.OpHardlink)
	}
	kinds = append(kinds, abstractfs.OpSymlink)
	if len(e.nonRoot) > 0 || len(e.files) > 0 {
		kinds = append(kinds, abstractfs.OpRename)
	}
	if len(e.closedF) > 0 {
		kinds = append(kinds, abstractfs.OpOpen)
	}
	if len(e.openDes) > 0 {
		kinds = append(kinds, abstractfs.OpClose, abstractfs.OpRead, abstractfs.OpWrite, abstractfs.OpFSync)
	}
	return kinds
}

func (g *Generator) pickKind(kinds []abstractfs.OperationKind) abstractfs.OperationKind {
	total := uint32(0)
	for _, k := range kinds {
		total += g.weights[k]
	}
	if total == 0 {
		return kinds[g.rng.Intn(len(kinds))]
	}
	roll := uint32(g.rng.Intn(int(total)))
	for _, k := range kinds {
		if roll < g.weights[k] {
			return k
		}
		roll -= g.weights[k]
	}
	return kinds[len(kinds)-1]
}

func (g *Generator) pickDir(dirs []abstractfs.AliveDir) abstractfs.AliveDir {
	return dirs[g.rng.Intn(len(dirs))]
}

func (g *Generator) pickFile(files []abstractfs.AliveFile) abstractfs.AliveFile {
	return files[g.rng.Intn(len(files))]
}

func (g *Generator) pickDes(des []abstractfs.FileDescriptorIndex) abstractfs.FileDescriptorIndex {
	return des[g.rng.Intn(len(des))]
}

func (g *Generator) pickInterestingInt() uint64 {
	return InterestingInts[g.rng.Intn(len(InterestingInts))]
}

func (g *Generator) pickMode() abstractfs.Mode {
	all := abstractfs.ModeIRWXU | abstractfs.ModeIRWXG | abstractfs.ModeIRWXO |
		abstractfs.ModeISUID | abstractfs.ModeISGID | abstractfs.ModeISVTX
	return abstractfs.Mode(g.rng.Uint32()) & all
}

// Step samples one replayable operation against fs's current state. It
// never mutates fs; the caller applies the returned operation itself
// (typically via abstractfs.Replay's op dispatch, one operation at a
// time).
func (g *Generator) Step(fs *abstractfs.FS) (abstractfs.Operation, error) {
	e := inspect(fs)
	kinds := eligibleKinds(e)
	if len(kinds) == 0 {
		return nil, ErrNoCandidates
	}

	switch g.pickKind(kinds) {
	case abstractfs.OpMkDir:
		parent := g.pickDir(e.dirs)
		return abstractfs.MkDir{Path: parent.Path.Join(g.names.Next()), Mode: g.pickMode()}, nil

	case abstractfs.OpCreate:
		parent := g.pickDir(e.dirs)
		return abstractfs.Create{Path: parent.Path.Join(g.names.Next()), Mode: g.pickMode()}, nil

	case abstractfs.OpRemove:
		if len(e.nonRoot) > 0 && (len(e.files) == 0 || g.rng.Intn(2) == 0) {
			return abstractfs.Remove{Path: g.pickDir(e.nonRoot).Path}, nil
		}
		return abstractfs.Remove{Path: g.pickFile(e.files).Path}, nil

	case abstractfs.OpHardlink:
		old := g.pickFile(e.files)
		parent := g.pickDir(e.dirs)
		return abstractfs.Hardlink{Old: old.Path, New: parent.Path.Join(g.names.Next())}, nil

	case abstractfs.OpSymlink:
		parent := g.pickDir(e.dirs)
		target := parent.Path.Join(g.names.Next())
		linkParent := g.pickDir(e.dirs)
		return abstractfs.Symlink{Target: target, LinkPath: linkParent.Path.Join(g.names.Next())}, nil

	case abstractfs.OpRename:
		if len(e.nonRoot) > 0 && (len(e.files) == 0 || g.rng.Intn(2) == 0) {
			oldDir := g.pickDir(e.nonRoot)
			dest := g.pickRenameDest(e.dirs, oldDir.Path)
			return abstractfs.Rename{Old: oldDir.Path, New: dest.Path.Join(g.names.Next())}, nil
		}
		oldFile := g.pickFile(e.files)
		dest := g.pickDir(e.dirs)
		return abstractfs.Rename{Old: oldFile.Path, New: dest.Path.Join(g.names.Next())}, nil

	case abstractfs.OpOpen:
		f := g.pickFile(e.closedF)
		// Descriptors are allocated monotonically and never reused
		// (abstractfs.FS.allocDescriptor always appends), so the next
		// Open's index is exactly the current descriptor count.
		return abstractfs.Open{Path: f.Path, Des: abstractfs.FileDescriptorIndex(fs.DescriptorCount())}, nil

	case abstractfs.OpClose:
		return abstractfs.Close{Des: g.pickDes(e.openDes)}, nil

	case abstractfs.OpRead:
		return abstractfs.Read{Des: g.pickDes(e.openDes), Size: g.pickInterestingInt()}, nil

	case abstractfs.OpWrite:
		return abstractfs.Write{
			Des:       g.pickDes(e.openDes),
			SrcOffset: g.pickInterestingInt(),
			Size:      g.pickInterestingInt(),
		}, nil

	case abstractfs.OpFSync:
		return abstractfs.FSync{Des: g.pickDes(e.openDes)}, nil
	}

	return nil, ErrNoCandidates
}

// pickRenameDest samples a destination directory for a directory rename,
// excluding every alive directory whose path has oldPath as a prefix
// (spec.md 4.2, including oldPath itself): renaming a directory into its
// own subtree is never a valid candidate, so it must never be generated.
func (g *Generator) pickRenameDest(dirs []abstractfs.AliveDir, oldPath pathname.Path) abstractfs.AliveDir {
	var eligible []abstractfs.AliveDir
	for _, d := range dirs {
		if oldPath.IsPrefixOf(d.Path) {
			continue
		}
		eligible = append(eligible, d)
	}
	if len(eligible) == 0 {
		// Root can never be excluded (oldPath is never root here, since
		// pickDir only draws from e.nonRoot for directory renames), so
		// this is unreachable in practice; fall back to root for safety.
		return dirs[0]
	}
	return eligible[g.rng.Intn(len(eligible))]
}

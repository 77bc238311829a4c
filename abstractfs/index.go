package abstractfs

// Arena indices. All four are opaque, monotonically allocated, and never
// reused: deletion never shrinks an arena, so an index is a stable
// identity for the lifetime of a FileSystem and of any recording made
// against it.
type (
	FileIndex           uint64
	DirIndex             uint64
	SymlinkIndex         uint64
	FileDescriptorIndex uint64
)

// RootDir is the always-present, never-destroyed root directory index.
const RootDir DirIndex = 0

// NodeKind tags which arena a Node's index refers to.
type NodeKind int

const (
	KindFile NodeKind = iota
	KindDir
	KindSymlink
)

func (k NodeKind) String() string {
	switch k {
	case KindFile:
		return "File"
	case KindDir:
		return "Dir"
	case KindSymlink:
		return "Symlink"
	default:
		return "Unknown"
	}
}

// Node is the sum type {File(FileIndex) | Dir(DirIndex) | Symlink(SymlinkIndex)}
// stored as a directory's child. Only the field matching Kind is meaningful.
type Node struct {
	Kind    NodeKind
	File    FileIndex
	Dir     DirIndex
	Symlink SymlinkIndex
}

func FileNode(idx FileIndex) Node       { return Node{Kind: KindFile, File: idx} }
func DirNode(idx DirIndex) Node         { return Node{Kind: KindDir, Dir: idx} }
func SymlinkNode(idx SymlinkIndex) Node { return Node{Kind: KindSymlink, Symlink: idx} }

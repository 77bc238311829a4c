package abstractfs

import "github.com/diffuzzer/diffuzzer/pathname"

// Mode is a POSIX permission/attribute bitmask. Individual bits follow
// the numeric values from <sys/stat.h>; the generator and C encoder only
// ever compose the coarse atoms below, matching spec.md 3.9's
// "set of flag atoms".
type Mode uint32

const (
	ModeIRWXU Mode = 0o700
	ModeIRWXG Mode = 0o070
	ModeIRWXO Mode = 0o007
	ModeISUID Mode = 0o4000
	ModeISGID Mode = 0o2000
	ModeISVTX Mode = 0o1000
)

// modeAtom names the symbolic C macro for a single mode bit, in the
// fixed rendering order the encoder uses.
type modeAtom struct {
	bit  Mode
	name string
}

var modeAtoms = []modeAtom{
	{ModeIRWXU, "S_IRWXU"},
	{ModeIRWXG, "S_IRWXG"},
	{ModeIRWXO, "S_IRWXO"},
	{ModeISUID, "S_ISUID"},
	{ModeISGID, "S_ISGID"},
	{ModeISVTX, "S_ISVTX"},
}

// Atoms returns the symbolic names of every atom set in m, in rendering
// order, for the C encoder's "|"-joined output.
func (m Mode) Atoms() []string {
	var names []string
	for _, a := range modeAtoms {
		if m&a.bit == a.bit {
			names = append(names, a.name)
		}
	}
	return names
}

// Directory holds named children. The root directory (index 0) is
// always present and is never removed from its own parent (it has none).
type Directory struct {
	children map[string]Node
}

func newDirectory() Directory {
	return Directory{children: make(map[string]Node)}
}

// Lookup returns the child named name, if any.
func (d Directory) Lookup(name string) (Node, bool) {
	n, ok := d.children[name]
	return n, ok
}

// Names returns the directory's child names in arbitrary order.
func (d Directory) Names() []string {
	names := make([]string, 0, len(d.children))
	for name := range d.children {
		names = append(names, name)
	}
	return names
}

// Len reports how many children d has.
func (d Directory) Len() int {
	return len(d.children)
}

// File is {descriptor: optional, content}. A file is "open" iff
// Descriptor is non-nil; only one open descriptor per file at a time.
type File struct {
	Descriptor *FileDescriptorIndex
	Content    Content
}

func newFile() File {
	return File{Content: NewContent()}
}

// FileDescriptor is {file, offset}. Descriptor slots are never freed:
// closing a descriptor clears the owning File's back-pointer, not the
// slot itself, so recorded operations referencing it by index stay valid.
type FileDescriptor struct {
	File   FileIndex
	Offset uint64
}

// Symlink stores its target path by value, matching POSIX: the target
// may be dangling and is never validated at creation time.
type Symlink struct {
	Target pathname.Path
}

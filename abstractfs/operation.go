package abstractfs

import "github.com/diffuzzer/diffuzzer/pathname"

// OperationKind tags which of the 11 operation variants a value carries.
type OperationKind int

const (
	OpMkDir OperationKind = iota
	OpCreate
	OpRemove
	OpHardlink
	OpSymlink
	OpRename
	OpOpen
	OpClose
	OpRead
	OpWrite
	OpFSync
)

func (k OperationKind) String() string {
	switch k {
	case OpMkDir:
		return "MkDir"
	case OpCreate:
		return "Create"
	case OpRemove:
		return "Remove"
	case OpHardlink:
		return "Hardlink"
	case OpSymlink:
		return "Symlink"
	case OpRename:
		return "Rename"
	case OpOpen:
		return "Open"
	case OpClose:
		return "Close"
	case OpRead:
		return "Read"
	case OpWrite:
		return "Write"
	case OpFSync:
		return "FSync"
	default:
		return "Unknown"
	}
}

// Operation is the tagged union of all 11 operation kinds, implemented
// as a sealed interface (one concrete struct per variant) rather than
// one fat struct, so generator/mutator/encoder code can type-switch on
// the kinds they care about without juggling irrelevant zero fields.
type Operation interface {
	Kind() OperationKind
}

type MkDir struct {
	Path pathname.Path
	Mode Mode
}

func (MkDir) Kind() OperationKind { return OpMkDir }

type Create struct {
	Path pathname.Path
	Mode Mode
}

func (Create) Kind() OperationKind { return OpCreate }

type Remove struct {
	Path pathname.Path
}

func (Remove) Kind() OperationKind { return OpRemove }

type Hardlink struct {
	Old pathname.Path
	New pathname.Path
}

func (Hardlink) Kind() OperationKind { return OpHardlink }

type Symlink struct {
	Target   pathname.Path
	LinkPath pathname.Path
}

func (Symlink) Kind() OperationKind { return OpSymlink }

type Rename struct {
	Old pathname.Path
	New pathname.Path
}

func (Rename) Kind() OperationKind { return OpRename }

type Open struct {
	Path pathname.Path
	Des  FileDescriptorIndex
}

func (Open) Kind() OperationKind { return OpOpen }

type Close struct {
	Des FileDescriptorIndex
}

func (Close) Kind() OperationKind { return OpClose }

type Read struct {
	Des  FileDescriptorIndex
	Size uint64
}

func (Read) Kind() OperationKind { return OpRead }

type Write struct {
	Des       FileDescriptorIndex
	SrcOffset uint64
	Size      uint64
}

func (Write) Kind() OperationKind { return OpWrite }

type FSync struct {
	Des FileDescriptorIndex
}

func (FSync) Kind() OperationKind { return OpFSync }

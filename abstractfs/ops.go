package abstractfs

import "github.com/diffuzzer/diffuzzer/pathname"

// Mkdir resolves path's parent directory and inserts a new, empty
// directory under path's basename. Fails NameAlreadyExists if the slot
// is taken.
func (fs *FS) Mkdir(path pathname.Path, mode Mode) (DirIndex, error) {
	parent, name := path.Split()
	if name == "" {
		return 0, newErr(KindInvalidPath, "mkdir", path.String())
	}
	_, parentIdx, err := fs.resolveDir(parent, "mkdir")
	if err != nil {
		return 0, err
	}
	dir := fs.dir(parentIdx)
	if _, exists := dir.Lookup(name); exists {
		return 0, newErr(KindNameAlreadyExists, "mkdir", path.String())
	}
	idx := fs.allocDir()
	dir.children[name] = DirNode(idx)
	fs.record(MkDir{Path: path, Mode: mode})
	return idx, nil
}

// Create is like Mkdir but allocates a closed File with empty content.
func (fs *FS) Create(path pathname.Path, mode Mode) (FileIndex, error) {
	parent, name := path.Split()
	if name == "" {
		return 0, newErr(KindInvalidPath, "create", path.String())
	}
	_, parentIdx, err := fs.resolveDir(parent, "create")
	if err != nil {
		return 0, err
	}
	dir := fs.dir(parentIdx)
	if _, exists := dir.Lookup(name); exists {
		return 0, newErr(KindNameAlreadyExists, "create", path.String())
	}
	idx := fs.allocFile()
	dir.children[name] = FileNode(idx)
	fs.record(Create{Path: path, Mode: mode})
	return idx, nil
}

// Remove deletes path's basename from its parent directory. Removing
// "/" itself always fails RootRemovalForbidden. Does not free the
// removed node's arena slot.
func (fs *FS) Remove(path pathname.Path) error {
	if path.IsRoot() {
		return newErr(KindRootRemovalForbidden, "remove", path.String())
	}
	parent, name := path.Split()
	_, parentIdx, err := fs.resolveDir(parent, "remove")
	if err != nil {
		return err
	}
	dir := fs.dir(parentIdx)
	if _, exists := dir.Lookup(name); !exists {
		return newErr(KindNotFound, "remove", path.String())
	}
	delete(dir.children, name)
	fs.record(Remove{Path: path})
	return nil
}

// Hardlink resolves old as a file -- symlinks are followed only in the
// dirname portion, so a trailing symlink at old is NotAFile -- and
// inserts the same FileIndex under new's basename.
func (fs *FS) Hardlink(old, new pathname.Path) error {
	_, oldNode, err := fs.resolve(old, false, make(map[SymlinkIndex]bool))
	if err != nil {
		return err
	}
	if oldNode.Kind != KindFile {
		return newErr(KindNotAFile, "hardlink", old.String())
	}
	parent, name := new.Split()
	if name == "" {
		return newErr(KindInvalidPath, "hardlink", new.String())
	}
	_, parentIdx, err := fs.resolveDir(parent, "hardlink")
	if err != nil {
		return err
	}
	dir := fs.dir(parentIdx)
	if _, exists := dir.Lookup(name); exists {
		return newErr(KindNameAlreadyExists, "hardlink", new.String())
	}
	dir.children[name] = FileNode(oldNode.File)
	fs.record(Hardlink{Old: old, New: new})
	return nil
}

// Symlink inserts a new symlink whose target is stored verbatim (the
// target may be dangling; it is never validated here).
func (fs *FS) Symlink(target, linkpath pathname.Path) error {
	parent, name := linkpath.Split()
	if name == "" {
		return newErr(KindInvalidPath, "symlink", linkpath.String())
	}
	_, parentIdx, err := fs.resolveDir(parent, "symlink")
	if err != nil {
		return err
	}
	dir := fs.dir(parentIdx)
	if _, exists := dir.Lookup(name); exists {
		return newErr(KindNameAlreadyExists, "symlink", linkpath.String())
	}
	idx := fs.allocSymlink(target)
	dir.children[name] = SymlinkNode(idx)
	fs.record(Symlink{Target: target, LinkPath: linkpath})
	return nil
}

// Rename implements spec.md 4.1's five-step algorithm: reject renaming
// into a non-empty existing directory, resolve old without following a
// trailing symlink, reject moving a directory into its own subtree, then
// splice the node from old's parent into new's parent (possibly
// overwriting an existing entry).
func (fs *FS) Rename(old, new pathname.Path) error {
	if old.Equal(new) {
		// Renaming a path to itself leaves the tree as it is in this
		// model (splicing the same map slot out and back in would
		// otherwise delete it), but it is still recorded like any other
		// successful operation. Not specified by spec.md; see DESIGN.md.
		fs.record(Rename{Old: old, New: new})
		return nil
	}

	oldParentPath, oldName := old.Split()
	if oldName == "" {
		return newErr(KindInvalidPath, "rename", old.String())
	}
	_, oldParentIdx, err := fs.resolveDir(oldParentPath, "rename")
	if err != nil {
		return err
	}
	oldParentDir := fs.dir(oldParentIdx)
	oldChild, ok := oldParentDir.Lookup(oldName)
	if !ok {
		return newErr(KindNotFound, "rename", old.String())
	}

	// Step 1: reject if new resolves to an existing, non-empty directory.
	_, newExisting, existErr := fs.resolve(new, false, make(map[SymlinkIndex]bool))
	if existErr == nil && newExisting.Kind == KindDir {
		if fs.dir(newExisting.Dir).Len() > 0 {
			return newErr(KindDirNotEmpty, "rename", new.String())
		}
	} else if existErr != nil && !isKind(existErr, KindNotFound) {
		return existErr
	}

	newParentPath, newName := new.Split()
	if newName == "" {
		return newErr(KindInvalidPath, "rename", new.String())
	}
	newParentChain, newParentIdx, err := fs.resolveDir(newParentPath, "rename")
	if err != nil {
		return err
	}

	// Step 3: reject moving a directory into its own subtree.
	if oldChild.Kind == KindDir {
		if chainContains(newParentChain, oldChild.Dir) || newParentIdx == oldChild.Dir {
			return newErr(KindRenameToSubdirectoryError, "rename", new.String())
		}
	}

	// Steps 4-5: splice. The operation is recorded even if it overwrote
	// an existing entry at new.
	newParentDir := fs.dir(newParentIdx)
	newParentDir.children[newName] = oldChild
	delete(oldParentDir.children, oldName)
	fs.record(Rename{Old: old, New: new})
	return nil
}

func isKind(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}

// Open resolves path to a file (symlinks followed) and allocates a new
// descriptor at offset 0. Fails FileAlreadyOpened if the file already
// has an open descriptor.
func (fs *FS) Open(path pathname.Path) (FileDescriptorIndex, error) {
	_, node, err := fs.resolve(path, true, make(map[SymlinkIndex]bool))
	if err != nil {
		return 0, err
	}
	if node.Kind != KindFile {
		return 0, newErr(KindNotAFile, "open", path.String())
	}
	file := fs.file(node.File)
	if file.Descriptor != nil {
		return 0, newErr(KindFileAlreadyOpened, "open", path.String())
	}
	idx := fs.allocDescriptor(node.File)
	file.Descriptor = &idx
	fs.record(Open{Path: path, Des: idx})
	return idx, nil
}

// validateDescriptor implements the BadDescriptor / DescriptorWasClosed
// checks shared by close/read/write/fsync (spec.md 4.1).
func (fs *FS) validateDescriptor(des FileDescriptorIndex, op string) (*FileDescriptor, *File, error) {
	if int(des) >= len(fs.descriptors) {
		return nil, nil, newErr(KindBadDescriptor, op, "")
	}
	fd := &fs.descriptors[des]
	file := fs.file(fd.File)
	if file.Descriptor == nil || *file.Descriptor != des {
		return nil, nil, newErr(KindDescriptorWasClosed, op, "")
	}
	return fd, file, nil
}

// Close clears the owning file's back-pointer; the descriptor arena
// slot is retained so recorded operations referencing it stay valid.
func (fs *FS) Close(des FileDescriptorIndex) error {
	_, file, err := fs.validateDescriptor(des, "close")
	if err != nil {
		return err
	}
	file.Descriptor = nil
	fs.record(Close{Des: des})
	return nil
}

// Read returns up to size bytes from the descriptor's current offset
// and advances the offset by the number of bytes actually returned, so
// offset never exceeds the file's size.
func (fs *FS) Read(des FileDescriptorIndex, size uint64) (Content, error) {
	fd, file, err := fs.validateDescriptor(des, "read")
	if err != nil {
		return Content{}, err
	}
	result, n := file.Content.ReadAt(fd.Offset, size)
	fd.Offset += n
	fs.record(Read{Des: des, Size: size})
	return result, nil
}

// Write labels size bytes with provenance [srcOffset, srcOffset+size-1]
// at the descriptor's offset, possibly growing the file, and advances
// the offset by size.
func (fs *FS) Write(des FileDescriptorIndex, srcOffset, size uint64) error {
	fd, file, err := fs.validateDescriptor(des, "write")
	if err != nil {
		return err
	}
	file.Content.WriteAt(fd.Offset, srcOffset, size)
	fd.Offset += size
	fs.record(Write{Des: des, SrcOffset: srcOffset, Size: size})
	return nil
}

// FSync validates the descriptor but performs no state change.
func (fs *FS) FSync(des FileDescriptorIndex) error {
	_, _, err := fs.validateDescriptor(des, "fsync")
	if err != nil {
		return err
	}
	fs.record(FSync{Des: des})
	return nil
}

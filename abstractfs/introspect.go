package abstractfs

// IsFileOpen reports whether idx currently has an open descriptor.
func (fs *FS) IsFileOpen(idx FileIndex) bool {
	return fs.files[idx].Descriptor != nil
}

// OpenDescriptors returns every currently open descriptor index, in
// file-arena order. Used by the generator and mutator to prune
// Close/Read/Write/FSync candidates to descriptors that actually exist.
func (fs *FS) OpenDescriptors() []FileDescriptorIndex {
	var result []FileDescriptorIndex
	for _, f := range fs.files {
		if f.Descriptor != nil {
			result = append(result, *f.Descriptor)
		}
	}
	return result
}

// FileAt returns the File record stored at arena index idx, and false
// when idx is out of range. It does not map the index back to a path.
func (fs *FS) FileAt(idx FileIndex) (File, bool) {
	if int(idx) >= len(fs.files) {
		return File{}, false
	}
	return fs.files[idx], true
}

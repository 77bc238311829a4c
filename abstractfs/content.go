package abstractfs

// Slice is a non-empty, closed interval [From, To] of source offsets:
// opaque byte provenance, never the bytes themselves. The model never
// materializes real file content; only where it came from.
type Slice struct {
	From uint64
	To   uint64
}

// Size returns the number of bytes the slice covers.
func (s Slice) Size() uint64 {
	return s.To - s.From + 1
}

// Content is an ordered sequence of slices modeling a file's bytes.
// Invariant: every slice has Size() >= 1, and Size() sums to the file
// length.
type Content struct {
	slices []Slice
}

// NewContent returns an empty content value (a freshly created file).
func NewContent() Content {
	return Content{}
}

// Slices returns the ordered slice list. The returned slice must not be
// mutated by the caller.
func (c Content) Slices() []Slice {
	return c.slices
}

// Size returns the total content length in bytes.
func (c Content) Size() uint64 {
	var total uint64
	for _, s := range c.slices {
		total += s.Size()
	}
	return total
}

// splitSlices partitions slices into the content strictly before logical
// position pos ("before") and the content at or after pos ("after"),
// splitting at most one slice in two when pos falls inside it.
func splitSlices(slices []Slice, pos uint64) (before, after []Slice) {
	cum := uint64(0)
	for i, s := range slices {
		sz := s.Size()
		if cum+sz <= pos {
			before = append(before, s)
			cum += sz
			continue
		}
		if pos > cum {
			intra := pos - cum
			before = append(before, Slice{From: s.From, To: s.From + intra - 1})
			after = append(after, Slice{From: s.From + intra, To: s.To})
		} else {
			after = append(after, s)
		}
		after = append(after, slices[i+1:]...)
		return before, after
	}
	return before, nil
}

// WriteAt overwrites [offset, offset+size) with a freshly labeled slice
// carrying provenance [srcFrom, srcFrom+size-1], keeping any content
// strictly before offset and any content at or beyond offset+size.
// This implements the total-size law from spec.md 3.7:
// new_size = max(offset+size, old_size).
func (c *Content) WriteAt(offset, srcFrom, size uint64) {
	if size == 0 {
		return
	}
	prefix, _ := splitSlices(c.slices, offset)
	_, suffix := splitSlices(c.slices, offset+size)
	newSlice := Slice{From: srcFrom, To: srcFrom + size - 1}
	merged := make([]Slice, 0, len(prefix)+1+len(suffix))
	merged = append(merged, prefix...)
	merged = append(merged, newSlice)
	merged = append(merged, suffix...)
	c.slices = merged
}

// ReadAt returns the slices covering [offset, offset+n) where
// n = min(size, size()-offset), and n itself (the number of bytes
// actually available to read).
func (c Content) ReadAt(offset, size uint64) (Content, uint64) {
	total := c.Size()
	if offset >= total || size == 0 {
		return Content{}, 0
	}
	remaining := total - offset
	n := size
	if remaining < n {
		n = remaining
	}
	var result []Slice
	skip := offset
	need := n
	for _, s := range c.slices {
		sz := s.Size()
		if skip >= sz {
			skip -= sz
			continue
		}
		from := s.From + skip
		avail := sz - skip
		skip = 0
		take := avail
		if take > need {
			take = need
		}
		result = append(result, Slice{From: from, To: from + take - 1})
		need -= take
		if need == 0 {
			break
		}
	}
	return Content{slices: result}, n
}

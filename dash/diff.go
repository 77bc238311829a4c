package dash

import "regexp"

// DiffKind tags which of the two directory-diff variants a Diff value
// carries.
type DiffKind int

const (
	DiffOnlyOneExists DiffKind = iota
	DiffFileIsDifferent
)

// Diff is one divergence found between two FileInfo vectors. For
// DiffOnlyOneExists only Entry is populated, and Entry.Side says which
// vector the entry came from. For DiffFileIsDifferent both Fst and Snd
// are populated.
type Diff struct {
	Kind DiffKind
	Entry Entry
	Fst   FileInfo
	Snd   FileInfo
}

// Entry disambiguates which side an OnlyOneExists diff came from.
type Entry struct {
	File FileInfo
	Side Side
}

type Side int

const (
	SideFirst Side = iota
	SideSecond
)

// DiffEntries merges fst and snd (both already sorted ascending by
// RelPath) from the tail toward the head, the corrected algorithm
// spec.md 4.5 calls out by name in preference to an older head-to-tail
// merge that mis-ordered trailing-entry comparisons by one position.
// internalDirs (DefaultInternalDirs, typically) is applied during the
// merge exactly as Hash applies it: an entry matching it on either side
// is skipped entirely rather than reported as DiffOnlyOneExists, the
// same fst_skip/snd_skip treatment original_source/dash/src/lib.rs's
// get_diff gives filesystem-private entries like /lost+found.
func DiffEntries(fst, snd []FileInfo, internalDirs *regexp.Regexp, opts Options) []Diff {
	var diffs []Diff
	i, j := len(fst)-1, len(snd)-1

	skip := func(e FileInfo) bool {
		return internalDirs != nil && internalDirs.MatchString(e.RelPath)
	}

	for i >= 0 && j >= 0 {
		if skip(fst[i]) {
			i--
			continue
		}
		if skip(snd[j]) {
			j--
			continue
		}
		a, b := fst[i], snd[j]
		switch {
		case a.RelPath == b.RelPath:
			if !entriesEqual(a, b, opts) {
				diffs = append(diffs, Diff{Kind: DiffFileIsDifferent, Fst: a, Snd: b})
			}
			i--
			j--
		case a.RelPath > b.RelPath:
			diffs = append(diffs, Diff{Kind: DiffOnlyOneExists, Entry: Entry{File: a, Side: SideFirst}})
			i--
		default:
			diffs = append(diffs, Diff{Kind: DiffOnlyOneExists, Entry: Entry{File: b, Side: SideSecond}})
			j--
		}
	}
	for ; i >= 0; i-- {
		if skip(fst[i]) {
			continue
		}
		diffs = append(diffs, Diff{Kind: DiffOnlyOneExists, Entry: Entry{File: fst[i], Side: SideFirst}})
	}
	for ; j >= 0; j-- {
		if skip(snd[j]) {
			continue
		}
		diffs = append(diffs, Diff{Kind: DiffOnlyOneExists, Entry: Entry{File: snd[j], Side: SideSecond}})
	}

	// Emitted tail-to-head; reverse so callers see diffs in path order.
	for l, r := 0, len(diffs)-1; l < r; l, r = l+1, r-1 {
		diffs[l], diffs[r] = diffs[r], diffs[l]
	}
	return diffs
}

func entriesEqual(a, b FileInfo, opts Options) bool {
	if a.UID != b.UID || a.GID != b.GID || a.IsDir != b.IsDir {
		return false
	}
	if opts.IncludeSize && a.Size != b.Size {
		return false
	}
	if opts.IncludeNlink && a.Nlink != b.Nlink {
		return false
	}
	if opts.IncludeMode && a.Mode != b.Mode {
		return false
	}
	return true
}

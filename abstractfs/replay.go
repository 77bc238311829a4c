package abstractfs

import "fmt"

// apply dispatches a single recorded operation to its FS method. Used
// both by Replay and by the mutator's prefix/suffix replay checks.
func apply(fs *FS, op Operation) error {
	switch o := op.(type) {
	case MkDir:
		_, err := fs.Mkdir(o.Path, o.Mode)
		return err
	case Create:
		_, err := fs.Create(o.Path, o.Mode)
		return err
	case Remove:
		return fs.Remove(o.Path)
	case Hardlink:
		return fs.Hardlink(o.Old, o.New)
	case Symlink:
		return fs.Symlink(o.Target, o.LinkPath)
	case Rename:
		return fs.Rename(o.Old, o.New)
	case Open:
		_, err := fs.Open(o.Path)
		return err
	case Close:
		return fs.Close(o.Des)
	case Read:
		_, err := fs.Read(o.Des, o.Size)
		return err
	case Write:
		return fs.Write(o.Des, o.SrcOffset, o.Size)
	case FSync:
		return fs.FSync(o.Des)
	default:
		return fmt.Errorf("abstractfs: unknown operation %T", op)
	}
}

// Replay applies w's operations, in order, against a fresh FS. Per
// spec.md 3.10, replay is total: every recorded operation must succeed,
// and the first failure aborts the replay.
func Replay(w Workload) (*FS, error) {
	fs := New()
	for i, op := range w.Ops {
		if err := apply(fs, op); err != nil {
			return nil, fmt.Errorf("abstractfs: replay failed at op %d (%s): %w", i, op.Kind(), err)
		}
	}
	return fs, nil
}

// ReplayPrefix applies ops[:n] against a fresh FS, returning the FS and
// nil only if every one of them succeeded. Used by the mutator to
// replay the portion of a workload preceding an insertion/removal point.
func ReplayPrefix(ops []Operation, n int) (*FS, error) {
	fs := New()
	for i := 0; i < n; i++ {
		if err := apply(fs, ops[i]); err != nil {
			return nil, fmt.Errorf("abstractfs: prefix replay failed at op %d (%s): %w", i, ops[i].Kind(), err)
		}
	}
	return fs, nil
}

// ReplaySuffix continues applying ops (a full candidate sequence) onto
// an already-populated fs, starting at index from. Used by the mutator
// once a prefix has been replayed and a new operation spliced in.
func ReplaySuffix(fs *FS, ops []Operation, from int) error {
	for i := from; i < len(ops); i++ {
		if err := apply(fs, ops[i]); err != nil {
			return fmt.Errorf("abstractfs: suffix replay failed at op %d (%s): %w", i, ops[i].Kind(), err)
		}
	}
	return nil
}

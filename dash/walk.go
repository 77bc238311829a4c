package dash

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// WalkLocal walks root (a locally mounted filesystem under test) and
// stats every entry below it into a FileInfo vector, mirroring
// original_source/dash/src/lib.rs's calc_dir_hash, which walks and
// stats a directory in the same single pass. Callers apply an
// internal-dirs regex at Hash/DiffEntries time, not here, matching
// where the rest of this package already does that filtering.
func WalkLocal(root string) ([]FileInfo, error) {
	var entries []FileInfo
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if p == root {
			return nil
		}

		var st unix.Stat_t
		if err := unix.Lstat(p, &st); err != nil {
			return fmt.Errorf("dash: stat %s: %w", p, err)
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}

		entries = append(entries, FileInfo{
			AbsPath: p,
			RelPath: "/" + filepath.ToSlash(rel),
			UID:     st.Uid,
			GID:     st.Gid,
			Size:    uint64(st.Size),
			Nlink:   uint64(st.Nlink),
			Mode:    st.Mode,
			IsDir:   d.IsDir(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("dash: walking %s: %w", root, err)
	}
	SortByRelPath(entries)
	return entries, nil
}

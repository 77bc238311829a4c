package abstractfs

import (
	"sort"

	"github.com/diffuzzer/diffuzzer/pathname"
)

// AliveDir pairs a live directory's arena index with one of its paths.
type AliveDir struct {
	Index DirIndex
	Path  pathname.Path
}

// AliveFile pairs a live file's arena index with one of its paths. A
// single FileIndex may appear under more than one AliveFile when it is
// reachable both directly and through a followed symlink, or through
// more than one hard link.
type AliveFile struct {
	Index FileIndex
	Path  pathname.Path
}

type aliveQueueItem struct {
	dir     DirIndex
	path    pathname.Path
	follows int
}

// Alive performs the breadth-first "liveness" enumeration of spec.md
// 4.1: every node reachable from root, following symlinks at most
// MaxSymlinkFollow times along any one path. It returns three lists
// sorted by path: directories, files, and symlink paths.
func (fs *FS) Alive() (dirs []AliveDir, files []AliveFile, symlinks []string) {
	dirs = append(dirs, AliveDir{RootDir, pathname.Root()})
	queue := []aliveQueueItem{{RootDir, pathname.Root(), 0}}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		dir := fs.dir(item.dir)
		names := dir.Names()
		sort.Strings(names)

		for _, name := range names {
			node, _ := dir.Lookup(name)
			childPath := item.path.Join(name)

			switch node.Kind {
			case KindFile:
				files = append(files, AliveFile{node.File, childPath})
			case KindDir:
				dirs = append(dirs, AliveDir{node.Dir, childPath})
				queue = append(queue, aliveQueueItem{node.Dir, childPath, item.follows})
			case KindSymlink:
				symlinks = append(symlinks, childPath.String())
				if item.follows < MaxSymlinkFollow {
					target := fs.symlink(node.Symlink).Target
					_, targetNode, err := fs.resolve(target, true, make(map[SymlinkIndex]bool))
					if err == nil {
						switch targetNode.Kind {
						case KindDir:
							dirs = append(dirs, AliveDir{targetNode.Dir, childPath})
							queue = append(queue, aliveQueueItem{targetNode.Dir, childPath, item.follows + 1})
						case KindFile:
							files = append(files, AliveFile{targetNode.File, childPath})
						}
					}
				}
			}
		}
	}

	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Path.String() < dirs[j].Path.String() })
	sort.Slice(files, func(i, j int) bool { return files[i].Path.String() < files[j].Path.String() })
	sort.Strings(symlinks)
	return dirs, files, symlinks
}

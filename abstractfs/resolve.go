package abstractfs

import "github.com/diffuzzer/diffuzzer/pathname"

// resolve walks path from the root, following symlinks encountered in
// every non-final segment unconditionally and following a symlink in
// the final segment only when followFinal is true. It returns the
// ordered chain of directories traversed -- root first, then every
// directory stepped into directly or via a followed symlink -- plus the
// resolved terminal Node.
//
// visited accumulates symlink indices followed during this call so a
// symlink cycle anywhere in the walk (dirname or final component) is
// reported as LoopExists instead of recursing forever (spec.md 4.1,
// 4.9).
func (fs *FS) resolve(path pathname.Path, followFinal bool, visited map[SymlinkIndex]bool) ([]DirIndex, Node, error) {
	chain := []DirIndex{RootDir}
	segs := path.Segments()
	if len(segs) == 0 {
		return chain, DirNode(RootDir), nil
	}

	current := RootDir
	for i, seg := range segs {
		isLast := i == len(segs)-1
		child, ok := fs.dir(current).Lookup(seg)
		if !ok {
			return nil, Node{}, newErr(KindNotFound, "resolve", path.String())
		}

		if child.Kind == KindSymlink {
			if isLast && !followFinal {
				return chain, child, nil
			}
			if visited[child.Symlink] {
				return nil, Node{}, newErr(KindLoopExists, "resolve", path.String())
			}
			visited[child.Symlink] = true
			target := fs.symlink(child.Symlink).Target
			subChain, subNode, err := fs.resolve(target, true, visited)
			if err != nil {
				return nil, Node{}, err
			}
			chain = append(chain, subChain[1:]...)
			if isLast {
				return chain, subNode, nil
			}
			if subNode.Kind != KindDir {
				return nil, Node{}, newErr(KindNotADir, "resolve", path.String())
			}
			current = subNode.Dir
			chain = append(chain, current)
			continue
		}

		if isLast {
			return chain, child, nil
		}
		if child.Kind != KindDir {
			return nil, Node{}, newErr(KindNotADir, "resolve", path.String())
		}
		current = child.Dir
		chain = append(chain, current)
	}
	// unreachable: loop always returns on isLast
	return chain, DirNode(current), nil
}

// ResolveNode is the public entry point for resolve_node (spec.md 4.1):
// given an absolute path and whether to follow a trailing symlink, it
// returns the directory chain traversed and the terminal node.
func (fs *FS) ResolveNode(path pathname.Path, followSymlinks bool) ([]DirIndex, Node, error) {
	return fs.resolve(path, followSymlinks, make(map[SymlinkIndex]bool))
}

// resolveDir resolves path to a directory node, following every symlink
// encountered (dirname components are always followed; spec.md 4.1).
func (fs *FS) resolveDir(path pathname.Path, op string) ([]DirIndex, DirIndex, error) {
	chain, node, err := fs.resolve(path, true, make(map[SymlinkIndex]bool))
	if err != nil {
		return nil, 0, err
	}
	if node.Kind != KindDir {
		return nil, 0, newErr(KindNotADir, op, path.String())
	}
	return chain, node.Dir, nil
}

func chainContains(chain []DirIndex, target DirIndex) bool {
	for _, idx := range chain {
		if idx == target {
			return true
		}
	}
	return false
}

package car

import (
	"os"
	"path/filepath"
)

// walkEntry pairs an absolute path with its link index within its parent's
// Node, so a child's finalized CID/tsize can be patched back in once it is
// packed (spec.md §3 WalkPath, §9 "Parent-child back-references without
// cycles"). parentIdx is nil for the root entry.
type walkEntry struct {
	path      string
	parentIdx *int
}

// pathCache maps an absolute path to the Node built for it (spec.md §3
// PathCache).
type pathCache map[string]*Node

// walk implements spec.md §4.5: a breadth-first traversal that is then
// reversed and terminated with the root, so descendants are always
// processed before their ancestors (walk's callers rely on this order).
// Grounded on archive_local.rs's walk_path.
func walk(rootPath string) ([]walkEntry, pathCache, error) {
	cache := make(pathCache)
	var order []walkEntry

	queue := []string{rootPath}
	for len(queue) > 0 {
		dirPath := queue[0]
		queue = queue[1:]

		entries, err := os.ReadDir(dirPath)
		if err != nil {
			return nil, nil, wrapErr(KindIO, "walk", err)
		}

		node := &Node{Kind: NodeKindDirectory}
		for _, entry := range entries {
			info, err := entry.Info()
			if err != nil {
				return nil, nil, wrapErr(KindIO, "walk", err)
			}
			name := entry.Name()
			switch {
			case entry.Type().IsRegular():
				node.AddLink(Link{Name: name, Kind: NodeKindFile})
			case entry.IsDir():
				idx := node.AddLink(Link{Name: name, Kind: NodeKindDirectory})
				childPath := filepath.Join(dirPath, name)
				parentIdx := idx
				order = append(order, walkEntry{path: childPath, parentIdx: &parentIdx})
				queue = append(queue, childPath)
			default:
				// Open Question (a): non-regular dentries (symlinks, sockets,
				// FIFOs, device files) are skipped deterministically rather
				// than erroring.
				logger.Warnf("walk: skipping non-regular entry %s (mode %s)", filepath.Join(dirPath, name), info.Mode())
			}
		}
		cache[dirPath] = node
	}

	reversed := make([]walkEntry, len(order))
	for i, e := range order {
		reversed[len(order)-1-i] = e
	}
	reversed = append(reversed, walkEntry{path: rootPath, parentIdx: nil})

	return reversed, cache, nil
}

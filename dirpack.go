package car

import (
	"path/filepath"

	cid "github.com/ipfs/go-cid"
)

// processPath implements spec.md §4.6: for the directory at entry.path, it
// packs every File-kind link's file content, encodes the directory's own
// DAG-PB node, writes it, and patches the corresponding slot in its
// parent's Node (Directory-kind links were already patched when their own
// walkEntry was processed, since walk() emits descendants before ancestors).
// It returns the node's own tsize (Σ link tsizes + its encoded length), so
// callers that need it — a root directory being wrapped further, per
// §4.8 — don't have to recompute it from the patched parent slot.
func processPath(rootPath string, rootCID *cid.Cid, w *carWriter, entry walkEntry, cache pathCache, algo HashAlgo) (uint64, error) {
	node, ok := cache[entry.path]
	if !ok {
		return 0, wrapErr(KindParsing, "process_path", errMissingCacheEntry)
	}

	for i := range node.Links {
		if node.Links[i].Kind != NodeKindFile {
			continue
		}
		filePath := filepath.Join(entry.path, node.Links[i].Name)
		c, tsize, err := packFile(filePath, w, algo)
		if err != nil {
			return 0, err
		}
		node.Links[i].Cid = c
		node.Links[i].Tsize = tsize
	}

	tsize := node.linksTsize()

	// Link sort (spec.md invariant I4) is performed by go-codec-dagpb's
	// encoder, not here — see dagpb.go.
	encoded, err := encodeNode(node)
	if err != nil {
		return 0, err
	}
	tsize += uint64(len(encoded))

	c, err := pbCID(encoded, algo)
	if err != nil {
		return 0, err
	}
	if entry.path == rootPath {
		*rootCID = c
	}
	if err := w.writeBlock(c, encoded); err != nil {
		return 0, err
	}
	node.CID = &c

	if entry.parentIdx != nil {
		parentPath := filepath.Dir(entry.path)
		if parentNode, ok := cache[parentPath]; ok {
			parentNode.Links[*entry.parentIdx].Cid = c
			parentNode.Links[*entry.parentIdx].Tsize = tsize
		}
	}

	return tsize, nil
}

type missingCacheEntryErr struct{}

func (missingCacheEntryErr) Error() string { return "path missing from walk cache" }

var errMissingCacheEntry = missingCacheEntryErr{}

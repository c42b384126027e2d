package car

import (
	"os"
	"path/filepath"

	cid "github.com/ipfs/go-cid"
)

// Pack implements spec.md §6's pack(): it converts sourcePath (a regular
// file or a directory) into a CAR v1 stream written to sink, and returns
// the archive's root CID. Grounded on archive_local.rs's archive_local,
// generalized to sink being any Sink rather than a fixed output file.
func Pack(sourcePath string, sink Sink, opts ...Option) (cid.Cid, error) {
	o := applyOptions(opts...)

	info, err := os.Stat(sourcePath)
	if err != nil {
		if os.IsNotExist(err) {
			return cid.Undef, wrapErr(KindNotFound, "pack", err)
		}
		return cid.Undef, wrapErr(KindIO, "pack", err)
	}

	placeholder, err := emptyPBCID(o.HashAlgo)
	if err != nil {
		return cid.Undef, err
	}
	w := newCarWriter(sink, newV1Header([]cid.Cid{placeholder}))

	var root cid.Cid
	if info.Mode().IsRegular() {
		root, err = packRegularFile(sourcePath, w, o)
	} else {
		root, err = packDirectory(sourcePath, w, o.HashAlgo)
	}
	if err != nil {
		return cid.Undef, err
	}

	if err := w.rewriteHeader(newV1Header([]cid.Cid{root})); err != nil {
		return cid.Undef, err
	}
	if err := w.flush(); err != nil {
		return cid.Undef, err
	}
	return root, nil
}

// packRegularFile implements spec.md §4.7 shapes A and B for a single file
// source: shape A (NoWrap) emits the file's own CID as root; shape B wraps
// it in a synthetic single-entry directory named after the file's base
// name, the same way "ipfs add" wraps a lone file unless told not to.
func packRegularFile(path string, w *carWriter, o options) (cid.Cid, error) {
	c, size, err := packFile(path, w, o.HashAlgo)
	if err != nil {
		return cid.Undef, err
	}
	if o.NoWrap {
		return c, nil
	}
	return wrapEntries(w, o.HashAlgo, []Link{
		{Cid: c, Name: filepath.Base(path), Tsize: size, Kind: NodeKindFile},
	})
}

// packDirectory implements spec.md §4.7 shape C: it walks sourcePath and
// packs every entry bottom-up; the CID captured for the root WalkPath is
// already the final DAG-PB Directory node for sourcePath itself, so no
// further wrapping is applied — the "outer wrapper" language in §4.7
// describes this root node's own tsize accounting (Σ its links' tsize plus
// its own encoded length), which is identical to how every other directory
// in the tree computes its tsize in §4.6, not an additional node. This
// reading is the one archive_local.rs implements: it never builds a second
// directory around the walked root.
func packDirectory(rootPath string, w *carWriter, algo HashAlgo) (cid.Cid, error) {
	entries, cache, err := walk(rootPath)
	if err != nil {
		return cid.Undef, err
	}
	var root cid.Cid
	for _, entry := range entries {
		if _, err := processPath(rootPath, &root, w, entry, cache, algo); err != nil {
			return cid.Undef, err
		}
	}
	return root, nil
}

// PackMany is the supplemented entry point of spec.md §4.8: it packs N
// caller-named paths (files or directories, in any mix) as siblings under
// one synthetic top-level directory, each named after its own base name,
// in argument order (link sort order — invariant I4 — is still applied at
// encode time by go-codec-dagpb). Grounded on
// zscboy-storage-upload-sample's writeFiles, generalized from its
// always-multi-path, no_wrap=false default.
func PackMany(paths []string, sink Sink, opts ...Option) (cid.Cid, error) {
	o := applyOptions(opts...)

	placeholder, err := emptyPBCID(o.HashAlgo)
	if err != nil {
		return cid.Undef, err
	}
	w := newCarWriter(sink, newV1Header([]cid.Cid{placeholder}))

	links := make([]Link, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				return cid.Undef, wrapErr(KindNotFound, "pack_many", err)
			}
			return cid.Undef, wrapErr(KindIO, "pack_many", err)
		}

		var c cid.Cid
		var tsize uint64
		if info.Mode().IsRegular() {
			c, tsize, err = packFile(p, w, o.HashAlgo)
			if err != nil {
				return cid.Undef, err
			}
		} else {
			entries, cache, err := walk(p)
			if err != nil {
				return cid.Undef, err
			}
			for _, entry := range entries {
				t, err := processPath(p, &c, w, entry, cache, o.HashAlgo)
				if err != nil {
					return cid.Undef, err
				}
				if entry.path == p {
					tsize = t
				}
			}
		}
		links = append(links, Link{Cid: c, Name: filepath.Base(p), Tsize: tsize, Kind: NodeKindFile})
	}

	root, err := wrapEntries(w, o.HashAlgo, links)
	if err != nil {
		return cid.Undef, err
	}

	if err := w.rewriteHeader(newV1Header([]cid.Cid{root})); err != nil {
		return cid.Undef, err
	}
	if err := w.flush(); err != nil {
		return cid.Undef, err
	}
	return root, nil
}

// wrapEntries builds and writes a Directory node with the given links,
// returning its CID.
func wrapEntries(w *carWriter, algo HashAlgo, links []Link) (cid.Cid, error) {
	node := &Node{Kind: NodeKindDirectory, Links: links}
	encoded, err := encodeNode(node)
	if err != nil {
		return cid.Undef, err
	}
	c, err := pbCID(encoded, algo)
	if err != nil {
		return cid.Undef, err
	}
	if err := w.writeBlock(c, encoded); err != nil {
		return cid.Undef, err
	}
	return c, nil
}

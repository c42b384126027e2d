package car

import (
	"os"

	cid "github.com/ipfs/go-cid"
	"github.com/multiformats/go-multicodec"
)

// MaxSectionSize is the fixed chunk size a file is split into once its
// length reaches it (spec.md §4.4). This is an interoperability constant: changing
// it changes every sharded file's root CID.
const MaxSectionSize = 262144

// MaxLinkCount is the fanout a single UnixFs File node may carry before an
// intermediate layer is introduced (spec.md §4.4). Grounded on
// ipfs-go-unixfsnode/data/builder/file.go's DefaultLinksPerBlock:
// roughLinkBlockSize(8KB) / roughLinkSize(34+8+5 bytes) ≈ 174. Pinned as a
// literal, not computed, because spec.md requires the exact value for
// byte-identical root CIDs.
const MaxLinkCount = 174

// packFile implements spec.md §4.4: pack_file. It returns the CID naming
// the file's content (a raw leaf for small files, a dag-pb File node for
// sharded ones) and its tsize.
func packFile(path string, w *carWriter, algo HashAlgo) (cid.Cid, uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return cid.Undef, 0, wrapErr(KindIO, "pack_file", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return cid.Undef, 0, wrapErr(KindIO, "pack_file", err)
	}
	size := info.Size()

	if size < MaxSectionSize {
		c, err := w.streamBlock(f, int(size), algo, multicodec.Raw)
		if err != nil {
			return cid.Undef, 0, err
		}
		return c, uint64(size), nil
	}

	n := int((size + MaxSectionSize - 1) / MaxSectionSize)
	links := make([]Link, 0, n)
	blockSizes := make([]uint64, 0, n)
	for i := 0; i < n; i++ {
		sectionSize := MaxSectionSize
		if i == n-1 && size%MaxSectionSize != 0 {
			sectionSize = int(size % MaxSectionSize)
		}
		c, err := w.streamBlock(f, sectionSize, algo, multicodec.Raw)
		if err != nil {
			return cid.Undef, 0, err
		}
		links = append(links, Link{Cid: c, Tsize: uint64(sectionSize), Kind: NodeKindRaw})
		blockSizes = append(blockSizes, uint64(sectionSize))
	}

	// Collapse links to fit the fanout: spec.md §4.4 step 4.
	for len(links) > MaxLinkCount {
		var nextLinks []Link
		var nextBlockSizes []uint64
		for i := 0; i < len(links); i += MaxLinkCount {
			end := i + MaxLinkCount
			if end > len(links) {
				end = len(links)
			}
			groupLinks := links[i:end]
			groupSizes := blockSizes[i:end]

			var fileSize uint64
			for _, bs := range groupSizes {
				fileSize += bs
			}
			node := &Node{
				Kind:       NodeKindFile,
				Links:      groupLinks,
				FileSize:   &fileSize,
				BlockSizes: groupSizes,
			}
			encoded, err := encodeNode(node)
			if err != nil {
				return cid.Undef, 0, err
			}
			c, err := pbCID(encoded, algo)
			if err != nil {
				return cid.Undef, 0, err
			}
			if err := w.writeBlock(c, encoded); err != nil {
				return cid.Undef, 0, err
			}

			var groupTsize uint64
			for _, l := range groupLinks {
				groupTsize += l.Tsize
			}
			groupTsize += uint64(len(encoded))

			nextLinks = append(nextLinks, Link{Cid: c, Tsize: groupTsize, Kind: NodeKindFile})
			nextBlockSizes = append(nextBlockSizes, fileSize)
		}
		links = nextLinks
		blockSizes = nextBlockSizes
	}

	var fileSize uint64
	for _, bs := range blockSizes {
		fileSize += bs
	}
	node := &Node{
		Kind:       NodeKindFile,
		Links:      links,
		FileSize:   &fileSize,
		BlockSizes: blockSizes,
	}
	encoded, err := encodeNode(node)
	if err != nil {
		return cid.Undef, 0, err
	}
	c, err := pbCID(encoded, algo)
	if err != nil {
		return cid.Undef, 0, err
	}
	if err := w.writeBlock(c, encoded); err != nil {
		return cid.Undef, 0, err
	}

	var tsize uint64
	for _, l := range links {
		tsize += l.Tsize
	}
	tsize += uint64(len(encoded))

	return c, tsize, nil
}

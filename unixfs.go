package car

import cid "github.com/ipfs/go-cid"

// NodeKind tags a UnixFs node or a link's target, per spec.md §3.
type NodeKind int

const (
	NodeKindFile NodeKind = iota
	NodeKindDirectory
	NodeKindRaw
)

// Link is an outgoing edge in a UnixFs node. Cid starts as cid.Undef and is
// patched in once the target has been packed/emitted (spec.md §3, §4.5/§4.6).
type Link struct {
	Cid   cid.Cid
	Name  string
	Tsize uint64
	Kind  NodeKind
}

// Node is an in-memory UnixFs node: a Directory (links are named entries in
// sorted order at encode time), or a File (links are either raw leaves or,
// once sharded, intermediate File nodes; FileSize/BlockSizes mirror them).
// Raw is never represented as a Node — a raw leaf is identified purely by
// its CID, since it carries no links or UnixFS metadata.
type Node struct {
	Kind       NodeKind
	Links      []Link
	FileSize   *uint64
	BlockSizes []uint64
	CID        *cid.Cid
}

// AddLink appends l and returns its index within Links, for callers (the
// walker, spec.md §4.5) that need a stable back-reference to patch later.
func (n *Node) AddLink(l Link) int {
	n.Links = append(n.Links, l)
	return len(n.Links) - 1
}

// linksTsize returns the sum of n's own links' Tsize, the Σ term invariant I6
// and the tsize formula in spec.md §4.4/§4.6 build on.
func (n *Node) linksTsize() uint64 {
	var sum uint64
	for _, l := range n.Links {
		sum += l.Tsize
	}
	return sum
}

package car

import (
	"bytes"

	cid "github.com/ipfs/go-cid"
	"github.com/ipfs/go-unixfsnode/data"
	unixfsbuilder "github.com/ipfs/go-unixfsnode/data/builder"
	dagpb "github.com/ipld/go-codec-dagpb"
	"github.com/ipld/go-ipld-prime"
	cidlink "github.com/ipld/go-ipld-prime/linking/cid"
)

// encodeNode is the adapter of spec.md §4.3: it serializes an in-memory
// Node to DAG-PB bytes. It never hashes or writes a block itself — callers
// turn the returned bytes into a CID (hash.go) and hand them to the framer
// (writer.go). Link sort order (spec.md invariant I4) is performed by
// go-codec-dagpb's own encoder, not by this function — see
// ipfs-go-unixfsnode/data/builder/directory.go: "sorting happens in
// codec-dagpb".
func encodeNode(n *Node) ([]byte, error) {
	pbLinks := make([]dagpb.PBLink, 0, len(n.Links))
	for _, l := range n.Links {
		entry, err := unixfsbuilder.BuildUnixFSDirectoryEntry(l.Name, int64(l.Tsize), cidLink(l.Cid))
		if err != nil {
			return nil, wrapErr(KindParsing, "encode_node", err)
		}
		pbLinks = append(pbLinks, entry)
	}

	ufsNode, err := unixfsbuilder.BuildUnixFS(func(b *unixfsbuilder.Builder) {
		switch n.Kind {
		case NodeKindDirectory:
			unixfsbuilder.DataType(b, data.Data_Directory)
		default:
			unixfsbuilder.DataType(b, data.Data_File)
		}
		if n.FileSize != nil {
			unixfsbuilder.FileSize(b, *n.FileSize)
		}
		if len(n.BlockSizes) > 0 {
			unixfsbuilder.BlockSizes(b, n.BlockSizes)
		}
	})
	if err != nil {
		return nil, wrapErr(KindParsing, "encode_node", err)
	}

	dpbb := dagpb.Type.PBNode.NewBuilder()
	pbm, err := dpbb.BeginMap(2)
	if err != nil {
		return nil, wrapErr(KindParsing, "encode_node", err)
	}
	pblb, err := pbm.AssembleEntry("Links")
	if err != nil {
		return nil, wrapErr(KindParsing, "encode_node", err)
	}
	pbl, err := pblb.BeginList(int64(len(pbLinks)))
	if err != nil {
		return nil, wrapErr(KindParsing, "encode_node", err)
	}
	for _, e := range pbLinks {
		if err := pbl.AssembleValue().AssignNode(e); err != nil {
			return nil, wrapErr(KindParsing, "encode_node", err)
		}
	}
	if err := pbl.Finish(); err != nil {
		return nil, wrapErr(KindParsing, "encode_node", err)
	}
	if err := pbm.AssembleKey().AssignString("Data"); err != nil {
		return nil, wrapErr(KindParsing, "encode_node", err)
	}
	if err := pbm.AssembleValue().AssignBytes(data.EncodeUnixFSData(ufsNode)); err != nil {
		return nil, wrapErr(KindParsing, "encode_node", err)
	}
	if err := pbm.Finish(); err != nil {
		return nil, wrapErr(KindParsing, "encode_node", err)
	}

	var buf bytes.Buffer
	if err := dagpb.Encode(dpbb.Build(), &buf); err != nil {
		return nil, wrapErr(KindParsing, "encode_node", err)
	}
	return buf.Bytes(), nil
}

// cidLink turns a raw CID into the ipld.Link the dagpb link-entry builder
// expects.
func cidLink(c cid.Cid) ipld.Link {
	return cidlink.Link{Cid: c}
}

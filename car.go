// Package car packs a local file or directory tree into a CAR v1 byte
// stream whose root CID matches, at the DAG level, what the reference
// go-car/go-unixfsnode tooling produces for the same input.
package car

import (
	"bufio"
	"io"

	cid "github.com/ipfs/go-cid"
	cbor "github.com/ipfs/go-ipld-cbor"
	logging "github.com/ipfs/go-log/v2"

	"github.com/ipld/go-car-packer/util"
)

var logger = logging.Logger("go-car-packer")

func init() {
	cbor.RegisterCborType(CarHeader{})
}

// CarHeader is the DAG-CBOR encoded `{roots: [CID], version: 1}` frame that
// opens every CAR v1 stream (spec.md §6).
type CarHeader struct {
	Roots   []cid.Cid
	Version uint64
}

// newV1Header builds the version-1 header for the given roots.
func newV1Header(roots []cid.Cid) *CarHeader {
	return &CarHeader{Roots: roots, Version: 1}
}

// WriteHeader writes h as a length-prefixed DAG-CBOR frame to w.
func WriteHeader(h *CarHeader, w io.Writer) error {
	hb, err := cbor.DumpObject(h)
	if err != nil {
		return wrapErr(KindParsing, "write_header", err)
	}
	if err := util.LdWrite(w, hb); err != nil {
		return wrapErr(KindIO, "write_header", err)
	}
	return nil
}

// HeaderSize returns the on-disk byte length of h's length-prefixed frame.
// rewrite_header (spec.md §4.2) does not call it; it keeps this length
// stable by requiring the new header's roots count to match, which holds
// for CIDs sharing a multihash algorithm.
func HeaderSize(h *CarHeader) (uint64, error) {
	hb, err := cbor.DumpObject(h)
	if err != nil {
		return 0, wrapErr(KindParsing, "header_size", err)
	}
	return util.LdSize(hb), nil
}

// ReadHeader reads and decodes the length-prefixed DAG-CBOR header frame
// from br. It has no role in packing; it exists so a test — or any other
// consumer reading this package's output back — can verify the header
// this package wrote without depending on an external CAR reader.
func ReadHeader(br *bufio.Reader) (*CarHeader, error) {
	hb, err := util.LdRead(br)
	if err != nil {
		return nil, wrapErr(KindParsing, "read_header", err)
	}
	var ch CarHeader
	if err := cbor.DecodeInto(hb, &ch); err != nil {
		return nil, wrapErr(KindParsing, "read_header", err)
	}
	return &ch, nil
}

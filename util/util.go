// Package util provides the length-prefixed ("Ld" for leb128-delimited)
// varint framing shared by the CAR v1 header and every section, per
// spec.md §6.
package util

import (
	"bufio"
	"fmt"
	"io"

	cid "github.com/ipfs/go-cid"
	"github.com/multiformats/go-varint"
)

type BytesReader interface {
	io.Reader
	io.ByteReader
}

// ReadCid reads a CID from the front of buf, returning the number of bytes
// consumed.
func ReadCid(buf []byte) (cid.Cid, int, error) {
	n, c, err := cid.CidFromBytes(buf)
	return c, n, err
}

var ErrZeroLengthSection = fmt.Errorf("zero-length section encountered")

// ReadNode reads one (cid || data) section, having already consumed its
// length prefix via LdRead.
func ReadNode(br *bufio.Reader) (cid.Cid, []byte, error) {
	data, err := LdRead(br)
	if err != nil {
		return cid.Cid{}, nil, err
	}
	// ReadCid used to panic or error on null padding.
	// Instead, return a sentinel error to let the user decide what to do.
	if len(data) == 0 {
		return cid.Cid{}, nil, ErrZeroLengthSection
	}

	c, n, err := ReadCid(data)
	if err != nil {
		return cid.Cid{}, nil, err
	}

	return c, data[n:], nil
}

// LdWrite writes varint(len(d...)) followed by the concatenation of d to w.
func LdWrite(w io.Writer, d ...[]byte) error {
	var sum uint64
	for _, s := range d {
		sum += uint64(len(s))
	}

	buf := varint.ToUvarint(sum)
	if _, err := w.Write(buf); err != nil {
		return err
	}

	for _, s := range d {
		if _, err := w.Write(s); err != nil {
			return err
		}
	}

	return nil
}

// LdSize returns the on-disk length of an LdWrite frame over d, including
// its varint length prefix.
func LdSize(d ...[]byte) uint64 {
	var sum uint64
	for _, s := range d {
		sum += uint64(len(s))
	}
	return sum + uint64(varint.UvarintSize(sum))
}

// LdRead reads one varint-length-prefixed frame from r.
func LdRead(r *bufio.Reader) ([]byte, error) {
	if _, err := r.Peek(1); err != nil { // no more blocks, likely clean io.EOF
		return nil, err
	}

	l, err := varint.ReadUvarint(r)
	if err != nil {
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF // don't silently pretend this is a clean EOF
		}
		return nil, err
	}

	buf := make([]byte, l)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}

	return buf, nil
}

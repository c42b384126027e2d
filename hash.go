package car

import (
	"crypto/sha256"
	"hash"

	cid "github.com/ipfs/go-cid"
	"github.com/multiformats/go-multicodec"
	"github.com/multiformats/go-multihash"
	"golang.org/x/crypto/blake2b"
)

// multihashCode returns the multihash table code for algo. blake2b-256 has
// no fixed code of its own; multihash reserves a contiguous range
// (BLAKE2B_MIN..BLAKE2B_MAX) keyed by digest length in bytes, so the
// 256-bit (32-byte) variant is BLAKE2B_MIN+31, the same offset
// ipfs-go-unixfsnode's sibling packages use for 256-bit blake2b CIDs.
func multihashCode(algo HashAlgo) uint64 {
	switch algo {
	case HashBlake2b256:
		return multihash.BLAKE2B_MIN + 31
	default:
		return multihash.SHA2_256
	}
}

// newHashState returns a fresh streaming hash.Hash for algo.
func newHashState(algo HashAlgo) (hash.Hash, error) {
	switch algo {
	case HashBlake2b256:
		return blake2b.New256(nil)
	default:
		return sha256.New(), nil
	}
}

// digest hashes data under algo and wraps it as a multihash.
func digest(data []byte, algo HashAlgo) (multihash.Multihash, error) {
	h, err := newHashState(algo)
	if err != nil {
		return nil, wrapErr(KindParsing, "digest", err)
	}
	if _, err := h.Write(data); err != nil {
		return nil, wrapErr(KindIO, "digest", err)
	}
	mh, err := multihash.Encode(h.Sum(nil), multihashCode(algo))
	if err != nil {
		return nil, wrapErr(KindParsing, "digest", err)
	}
	return mh, nil
}

// sumToCID wraps a finished digest (as produced by a streaming hash.Hash)
// into a CID of the given multicodec.
func sumToCID(sum []byte, algo HashAlgo, codec multicodec.Code) (cid.Cid, error) {
	mh, err := multihash.Encode(sum, multihashCode(algo))
	if err != nil {
		return cid.Undef, wrapErr(KindParsing, "sum_to_cid", err)
	}
	return cid.NewCidV1(uint64(codec), mh), nil
}

// rawCID is the CID of data under the "raw" multicodec — used for file-leaf
// blocks (spec.md §4.1).
func rawCID(data []byte, algo HashAlgo) (cid.Cid, error) {
	mh, err := digest(data, algo)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(uint64(multicodec.Raw), mh), nil
}

// pbCID is the CID of DAG-PB encoded bytes under the "dag-pb" multicodec —
// used for UnixFS File and Directory nodes (spec.md §4.1).
func pbCID(data []byte, algo HashAlgo) (cid.Cid, error) {
	mh, err := digest(data, algo)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(uint64(multicodec.DagPb), mh), nil
}

// emptyPBCID is the pb_cid of the empty byte string: a placeholder of the
// exact byte length the real root CID will have, so writing it into the
// header up front lets rewrite_header replace it in place without changing
// the header frame's length (spec.md §4.1, §9 "Placeholder header").
func emptyPBCID(algo HashAlgo) (cid.Cid, error) {
	return pbCID(nil, algo)
}

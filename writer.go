package car

import (
	"io"

	cid "github.com/ipfs/go-cid"
	"github.com/multiformats/go-multicodec"
	"github.com/multiformats/go-varint"
)

// bufferSize is how many bytes stream_block reads at once from a file
// (spec.md §4.2, §5: "low tens of KB").
const bufferSize = 32 * 1024

// Sink is what a CarWriter writes to: it must support rewinding, to
// rewrite the header once the root CID is known (spec.md §3 CarWriter, §6).
// The second pass over a file section seeks the file, not the sink.
type Sink interface {
	io.Writer
	io.Seeker
}

// carWriter owns the CAR v1 output stream: header state and the in-archive
// CID dedup set (spec.md §4.2, §3 invariant I1). Grounded on
// blockless-car's CarWriterV1 (original_source/.../writer/writer_v1.rs).
type carWriter struct {
	sink          Sink
	header        *CarHeader
	headerWritten bool
	written       map[cid.Cid]struct{}
}

func newCarWriter(sink Sink, header *CarHeader) *carWriter {
	return &carWriter{
		sink:    sink,
		header:  header,
		written: make(map[cid.Cid]struct{}),
	}
}

func (w *carWriter) writeHead() error {
	if err := WriteHeader(w.header, w.sink); err != nil {
		return err
	}
	w.headerWritten = true
	return nil
}

// writeSectionHeader writes the section length varint (cid bytes + data
// bytes), per the CAR v1 framing in spec.md §6.
func writeSectionHeader(w io.Writer, cidLen, dataLen int) error {
	_, err := w.Write(varint.ToUvarint(uint64(cidLen + dataLen)))
	return err
}

// writeBlock writes a (cid || data) section, eliding it if cid has already
// been written to this archive (invariant I1).
func (w *carWriter) writeBlock(c cid.Cid, data []byte) error {
	if !w.headerWritten {
		if err := w.writeHead(); err != nil {
			return wrapErr(KindIO, "write_block", err)
		}
	}
	if _, seen := w.written[c]; seen {
		return nil
	}
	cidBytes := c.Bytes()
	if err := writeSectionHeader(w.sink, len(cidBytes), len(data)); err != nil {
		return wrapErr(KindIO, "write_block", err)
	}
	if _, err := w.sink.Write(cidBytes); err != nil {
		return wrapErr(KindIO, "write_block", err)
	}
	if _, err := w.sink.Write(data); err != nil {
		return wrapErr(KindIO, "write_block", err)
	}
	w.written[c] = struct{}{}
	logger.Debugf("wrote block cid=%s size=%d", c, len(data))
	return nil
}

// streamBlock implements spec.md §4.2's stream_block: it reads exactly
// length bytes from r twice — once to hash (no writes), once (if the CID
// is new) to copy into the sink — without ever buffering the whole
// section in memory.
func (w *carWriter) streamBlock(r io.ReadSeeker, length int, algo HashAlgo, codec multicodec.Code) (cid.Cid, error) {
	if !w.headerWritten {
		if err := w.writeHead(); err != nil {
			return cid.Undef, wrapErr(KindIO, "stream_block", err)
		}
	}

	start, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return cid.Undef, wrapErr(KindIO, "stream_block", err)
	}

	h, err := newHashState(algo)
	if err != nil {
		return cid.Undef, wrapErr(KindParsing, "stream_block", err)
	}

	buf := make([]byte, bufferSize)
	if err := copyN(h, r, length, buf); err != nil {
		return cid.Undef, wrapErr(KindIO, "stream_block", err)
	}

	c, err := sumToCID(h.Sum(nil), algo, codec)
	if err != nil {
		return cid.Undef, err
	}

	if _, seen := w.written[c]; seen {
		return c, nil
	}

	if _, err := r.Seek(start, io.SeekStart); err != nil {
		return cid.Undef, wrapErr(KindIO, "stream_block", err)
	}

	cidBytes := c.Bytes()
	if err := writeSectionHeader(w.sink, len(cidBytes), length); err != nil {
		return cid.Undef, wrapErr(KindIO, "stream_block", err)
	}
	if _, err := w.sink.Write(cidBytes); err != nil {
		return cid.Undef, wrapErr(KindIO, "stream_block", err)
	}
	if err := copyN(w.sink, r, length, buf); err != nil {
		return cid.Undef, wrapErr(KindIO, "stream_block", err)
	}

	w.written[c] = struct{}{}
	logger.Debugf("streamed block cid=%s size=%d", c, length)
	return c, nil
}

// copyN reads exactly n bytes from r in buf-sized chunks, writing each
// chunk to dst (a hash.Hash or an io.Writer — both satisfy io.Writer).
func copyN(dst io.Writer, r io.Reader, n int, buf []byte) error {
	remaining := n
	for remaining > 0 {
		chunk := len(buf)
		if remaining < chunk {
			chunk = remaining
		}
		if _, err := io.ReadFull(r, buf[:chunk]); err != nil {
			return err
		}
		if _, err := dst.Write(buf[:chunk]); err != nil {
			return err
		}
		remaining -= chunk
	}
	return nil
}

// rewriteHeader implements spec.md §4.2's rewrite_header: it rejects a
// roots-count change (which would invalidate the placeholder byte length),
// then rewinds the sink and re-emits the header frame at offset 0.
func (w *carWriter) rewriteHeader(header *CarHeader) error {
	if len(header.Roots) != len(w.header.Roots) {
		return wrapErr(KindInvalidSection, "rewrite_header", errRootsLengthMismatch)
	}
	w.header = header
	if _, err := w.sink.Seek(0, io.SeekStart); err != nil {
		return wrapErr(KindIO, "rewrite_header", err)
	}
	return w.writeHead()
}

// flush forwards to the sink when it exposes Sync (e.g. *os.File); sinks
// that don't need no flush call.
func (w *carWriter) flush() error {
	if f, ok := w.sink.(interface{ Sync() error }); ok {
		if err := f.Sync(); err != nil {
			return wrapErr(KindIO, "flush", err)
		}
	}
	return nil
}

type rootsLengthMismatchErr struct{}

func (rootsLengthMismatchErr) Error() string { return "the root cid count does not match" }

var errRootsLengthMismatch = rootsLengthMismatchErr{}

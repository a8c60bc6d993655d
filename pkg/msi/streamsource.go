package msi

import (
	"io"

	"github.com/msikit/msikit/internal/codec"
)

// StreamSource is the seam between the core reader and whatever backs
// the OLE compound-file container — mmap-ed file, in-memory buffer, or
// a from-scratch sector-chain walker. It is the direct analogue of
// hivekit's types.Reader interface sitting in front of whatever backs
// a Hive: the core never knows or cares which.
//
// Names passed to Stream are on-disk stream names already produced by
// internal/codec.Encode (or the literal fixed names like
// "SummaryInformation"); StreamSource does not perform codec
// translation itself.
type StreamSource interface {
	// RootClassID returns the container root storage's class-ID, in
	// the canonical "{xxxxxxxx-xxxx-...}" braced form.
	RootClassID() (string, error)
	// Stream opens the named stream for random access, along with its
	// length in bytes. Returns an error if the stream does not exist.
	Stream(name string) (io.ReaderAt, int64, error)
	// Close releases any resources (file handles, mappings) backing
	// the container.
	Close() error
}

// readAllStream is a small helper used throughout Open: read an entire
// stream into memory. The core never needs partial/streaming reads —
// every component operates over whole in-memory byte slices once a
// stream is located, same as hivekit reads a whole cell's payload
// before decoding it.
func readAllStream(src StreamSource, name string) ([]byte, error) {
	r, length, err := src.Stream(name)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, length)
	if length == 0 {
		return buf, nil
	}
	n, err := r.ReadAt(buf, 0)
	if err != nil && err != io.EOF {
		return nil, err
	}
	return buf[:n], nil
}

// readAllMetaStream reads a fixed table-prefixed meta stream
// (_StringPool, _StringData, _Tables, _Columns, _Validation): per
// spec.md §6 these are stored under their codec-encoded, table-
// prefixed on-disk names just like any user table, not under their
// literal ASCII names.
func readAllMetaStream(src StreamSource, name string) ([]byte, error) {
	encoded, err := codec.Encode(name, true)
	if err != nil {
		return nil, err
	}
	return readAllStream(src, encoded)
}

package buf

import (
	"errors"
	"io"
)

// ErrShortRead is returned when a stream ends before the requested number
// of bytes could be read.
var ErrShortRead = errors.New("buf: short read")

// Reader is a little-endian primitive reader over a sequential stream:
// it pulls a whole stream into memory once (ReadAll) or walks it
// sequentially (the U* methods), without caring whether the backing
// stream is an in-memory slice or an OLE stream reader. The table and
// schema decoders do not use it; they work on whole byte slices with
// the package-level U16LE/U32LE/Slice helpers.
type Reader struct {
	r   io.Reader
	buf []byte // small scratch buffer reused across reads
}

// NewReader wraps r for sequential little-endian decoding.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r, buf: make([]byte, 8)}
}

// ReadAll reads the remainder of the underlying stream into memory.
func (rd *Reader) ReadAll() ([]byte, error) {
	return io.ReadAll(rd.r)
}

func (rd *Reader) readFull(n int) ([]byte, error) {
	b := rd.buf[:n]
	if _, err := io.ReadFull(rd.r, b); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, ErrShortRead
		}
		return nil, err
	}
	return b, nil
}

// U16 reads one little-endian uint16.
func (rd *Reader) U16() (uint16, error) {
	b, err := rd.readFull(2)
	if err != nil {
		return 0, err
	}
	return U16LE(b), nil
}

// U32 reads one little-endian uint32.
func (rd *Reader) U32() (uint32, error) {
	b, err := rd.readFull(4)
	if err != nil {
		return 0, err
	}
	return U32LE(b), nil
}

// Bytes reads exactly n raw bytes.
func (rd *Reader) Bytes(n int) ([]byte, error) {
	out := make([]byte, n)
	if _, err := io.ReadFull(rd.r, out); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, ErrShortRead
		}
		return nil, err
	}
	return out, nil
}

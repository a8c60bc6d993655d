// Package msiole implements msi.StreamSource over a real OLE/CFB
// compound-file container, the on-disk format MSI/MSM/MSP/MST packages
// are wrapped in. Sector chaining, the FAT, the mini-stream, and
// directory-entry traversal are handled by richardlehane/mscfb; this
// package's job is narrower: mmap the file (the same zero-copy-ish
// backing hivekit reaches for via edsrzf/mmap-go), walk every stream
// exactly once at open time, and cache each stream's full contents so
// pkg/msi's StreamSource seam sees plain random-access byte slices.
//
// MSI packages keep every user-visible stream directly under the root
// storage — no nested sub-storages — so the single flat walk below
// covers every stream a package can name. A package that did use
// sub-storages would have its nested streams silently invisible; that
// case does not arise for the four container kinds this reader
// supports.
package msiole

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/edsrzf/mmap-go"
	"github.com/richardlehane/mscfb"

	"github.com/msikit/msikit/pkg/msi"
)

// ErrNoRootEntry indicates the container's directory stream never
// yielded a "Root Entry" record, so the package's class ID cannot be
// determined.
var ErrNoRootEntry = errors.New("msiole: root storage entry not found")

// Source is a memory-mapped OLE/CFB container opened for reading. It
// implements msi.StreamSource.
type Source struct {
	file      *os.File
	mapping   mmap.MMap
	rootClsID string
	streams   map[string][]byte
}

// Open mmaps the file at path and eagerly walks its compound-file
// directory, caching every stream's contents in memory. The returned
// Source owns the mapping until Close is called.
func Open(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("msiole: opening %s: %w", path, err)
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("msiole: mapping %s: %w", path, err)
	}

	src := &Source{file: f, mapping: m}
	if err := src.load(); err != nil {
		m.Unmap()
		f.Close()
		return nil, err
	}
	return src, nil
}

// OpenReaderAt builds a Source over an already-open random-access
// reader instead of mmap-ing a path — used when the caller manages the
// underlying file lifetime itself (e.g. an in-memory buffer in tests,
// or a caller-supplied *os.File).
func OpenReaderAt(ra io.ReaderAt) (*Source, error) {
	src := &Source{}
	if err := src.loadFrom(ra); err != nil {
		return nil, err
	}
	return src, nil
}

func (s *Source) load() error {
	// mmap.MMap is a []byte under the hood (slice semantics, no native
	// ReadAt); wrap it once so mscfb gets true random access without an
	// extra copy of the mapped pages.
	return s.loadFrom(bytes.NewReader([]byte(s.mapping)))
}

func (s *Source) loadFrom(ra io.ReaderAt) error {
	doc, err := mscfb.New(ra)
	if err != nil {
		return fmt.Errorf("msiole: parsing compound file: %w", err)
	}

	streams := make(map[string][]byte)
	rootSeen := false

	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		if entry.Name == "Root Entry" {
			s.rootClsID = formatCLSID(entry.CLSID)
			rootSeen = true
			continue
		}
		if entry.Dir {
			continue // MSI never nests streams inside a sub-storage
		}

		buf := make([]byte, entry.Size)
		if entry.Size > 0 {
			n, rerr := io.ReadFull(doc, buf)
			if rerr != nil && rerr != io.ErrUnexpectedEOF && rerr != io.EOF {
				return fmt.Errorf("msiole: reading stream %q: %w", entry.Name, rerr)
			}
			buf = buf[:n]
		}
		streams[entry.Name] = buf
	}

	if !rootSeen {
		return ErrNoRootEntry
	}

	s.streams = streams
	return nil
}

// RootClassID implements msi.StreamSource.
func (s *Source) RootClassID() (string, error) {
	if s.rootClsID == "" {
		return "", ErrNoRootEntry
	}
	return s.rootClsID, nil
}

// Stream implements msi.StreamSource.
func (s *Source) Stream(name string) (io.ReaderAt, int64, error) {
	b, ok := s.streams[name]
	if !ok {
		return nil, 0, fmt.Errorf("%w: %q", msi.ErrMissingStream, name)
	}
	return bytes.NewReader(b), int64(len(b)), nil
}

// Close unmaps the underlying file and releases its handle. Safe to
// call once; a Source built via OpenReaderAt has nothing to release.
func (s *Source) Close() error {
	var firstErr error
	if s.mapping != nil {
		if err := s.mapping.Unmap(); err != nil {
			firstErr = err
		}
		s.mapping = nil
	}
	if s.file != nil {
		if err := s.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.file = nil
	}
	return firstErr
}

// formatCLSID renders a 16-byte CFB CLSID field in the canonical
// braced, mixed-endian Windows GUID string form: the first three
// fields are little-endian, the last two are big-endian byte order.
func formatCLSID(b [16]byte) string {
	if b == ([16]byte{}) {
		return ""
	}
	return fmt.Sprintf("{%08X-%04X-%04X-%02X%02X-%02X%02X%02X%02X%02X%02X}",
		uint32(b[3])<<24|uint32(b[2])<<16|uint32(b[1])<<8|uint32(b[0]),
		uint16(b[5])<<8|uint16(b[4]),
		uint16(b[7])<<8|uint16(b[6]),
		b[8], b[9],
		b[10], b[11], b[12], b[13], b[14], b[15])
}

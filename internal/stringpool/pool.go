// Package stringpool decodes the `_StringPool`/`_StringData` stream pair
// into an ordered, 1-indexed array of strings with reference counts. It is
// loaded once per package and its entries do not change afterwards; the
// only later write is the decoded text each entry caches on its first
// Lookup. Row cells hold the decoded string returned by Lookup (sharing
// its bytes, not copying them); they do not keep the pool index.
package stringpool

import (
	"golang.org/x/text/encoding/charmap"

	"github.com/msikit/msikit/internal/buf"
)

const headerLongRefsBit = 0x80000000
const headerCodepageMask = 0x7FFFFFFF

// entry is one decoded pool slot. Index 0 is always the empty-string
// sentinel and is never present in entries (Lookup special-cases it).
type entry struct {
	data     []byte // raw bytes as found in _StringData, undecoded
	text     string // decoded UTF-8, computed lazily on first Lookup
	decoded  bool
	refCount uint16
}

// Pool is the immutable, 1-indexed string table shared by every row of
// every table in a package.
type Pool struct {
	codepage    int
	longRefs    bool
	utf8        bool
	charmap     *charmap.Charmap
	entries     []entry // entries[0] corresponds to pool index 1
}

// Codepage returns the pool's ANSI/UTF-8 codepage identifier.
func (p *Pool) Codepage() int { return p.codepage }

// LongRefs reports whether string-pool references are 3 bytes wide (true)
// or 2 bytes wide (false), per the header's top bit.
func (p *Pool) LongRefs() bool { return p.longRefs }

// Len returns the number of non-sentinel entries in the pool.
func (p *Pool) Len() int { return len(p.entries) }

// RefCount returns the reference count recorded for pool index i, or 0 for
// the null sentinel (index 0) and any index beyond the pool.
func (p *Pool) RefCount(i int) uint16 {
	if i <= 0 || i > len(p.entries) {
		return 0
	}
	return p.entries[i-1].refCount
}

// Lookup returns the decoded string for pool index i. Index 0 always
// yields "". Returns ErrIndexOutOfRange for any index beyond the loaded
// pool, per spec.md §4.2 (validated lazily, at row-decode time).
func (p *Pool) Lookup(i int) (string, error) {
	if i == 0 {
		return "", nil
	}
	if i < 0 || i > len(p.entries) {
		return "", ErrIndexOutOfRange
	}
	e := &p.entries[i-1]
	if !e.decoded {
		e.text = p.decode(e.data)
		e.decoded = true
	}
	return e.text, nil
}

func (p *Pool) decode(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	if p.utf8 {
		return string(raw)
	}
	if isASCII(raw) {
		return string(raw)
	}
	decoded, err := p.charmap.NewDecoder().Bytes(raw)
	if err != nil {
		// Best effort: surface the raw bytes rather than fail the whole
		// pool over one malformed entry; callers may inspect length via
		// RefCount/Len diagnostics if that matters to them.
		return string(raw)
	}
	return string(decoded)
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= 0x80 {
			return false
		}
	}
	return true
}

// Load decodes a Pool from the raw `_StringPool` header+descriptor stream
// and the raw `_StringData` byte stream, per spec.md §4.2.
func Load(poolStream, dataStream []byte) (*Pool, error) {
	if len(poolStream) < 4 {
		return nil, ErrPoolTruncated
	}
	header := buf.U32LE(poolStream)
	codepage := int(header & headerCodepageMask)
	longRefs := header&headerLongRefsBit != 0

	enc, isUTF8, ok := decoderFor(codepage)
	if !ok {
		return nil, ErrInvalidCodepage
	}
	var cm *charmap.Charmap
	if !isUTF8 {
		cm = enc.(*charmap.Charmap)
	}

	p := &Pool{codepage: codepage, longRefs: longRefs, utf8: isUTF8, charmap: cm}

	descs := poolStream[4:]
	dataOff := 0
	i := 0
	for i < len(descs) {
		if i+4 > len(descs) {
			return nil, ErrPoolTruncated
		}
		length := buf.U16LE(descs[i:])
		refCount := buf.U16LE(descs[i+2:])
		i += 4

		if length == 0 && refCount != 0 {
			// Long-string escape: the next descriptor's length field holds
			// the high 16 bits of the real length, and its refcount field
			// holds the real refcount.
			if i+4 > len(descs) {
				return nil, ErrPoolTruncated
			}
			highLen := buf.U16LE(descs[i:])
			realRefCount := buf.U16LE(descs[i+2:])
			i += 4

			realLen := int(highLen)<<16 | int(length)
			data, ok := buf.Slice(dataStream, dataOff, realLen)
			if !ok {
				return nil, ErrPoolTruncated
			}
			p.entries = append(p.entries, entry{data: data, refCount: realRefCount})
			dataOff += realLen
			continue
		}

		data, ok := buf.Slice(dataStream, dataOff, int(length))
		if !ok {
			return nil, ErrPoolTruncated
		}
		p.entries = append(p.entries, entry{data: data, refCount: refCount})
		dataOff += int(length)
	}

	if dataOff != len(dataStream) {
		return nil, ErrPoolTruncated
	}

	return p, nil
}

// RefWidth returns the storage width in bytes of a string-pool reference,
// per the header's long-refs flag (§3: 2 or 3 bytes).
func (p *Pool) RefWidth() int {
	if p.longRefs {
		return 3
	}
	return 2
}

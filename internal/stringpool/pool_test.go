package stringpool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func descriptor(length, refCount uint16) []byte {
	return []byte{byte(length), byte(length >> 8), byte(refCount), byte(refCount >> 8)}
}

func header(codepage int, longRefs bool) []byte {
	v := uint32(codepage)
	if longRefs {
		v |= headerLongRefsBit
	}
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func TestLoadBasicUTF8Pool(t *testing.T) {
	pool := header(UTF8Codepage, false)
	pool = append(pool, descriptor(0, 0)...)   // index 1: empty string, never referenced
	pool = append(pool, descriptor(5, 3)...)   // index 2: "hello", refcount 3
	pool = append(pool, descriptor(5, 1)...)   // index 3: "world", refcount 1
	data := []byte("helloworld")

	p, err := Load(pool, data)
	require.NoError(t, err)
	require.Equal(t, UTF8Codepage, p.Codepage())
	require.False(t, p.LongRefs())
	require.Equal(t, 3, p.Len())

	s0, err := p.Lookup(0)
	require.NoError(t, err)
	require.Equal(t, "", s0)

	s1, err := p.Lookup(1)
	require.NoError(t, err)
	require.Equal(t, "", s1)

	s2, err := p.Lookup(2)
	require.NoError(t, err)
	require.Equal(t, "hello", s2)
	require.EqualValues(t, 3, p.RefCount(2))

	s3, err := p.Lookup(3)
	require.NoError(t, err)
	require.Equal(t, "world", s3)
}

func TestLoadLongStringEscape(t *testing.T) {
	longStr := make([]byte, 2<<16)
	for i := range longStr {
		longStr[i] = 'x'
	}

	pool := header(UTF8Codepage, false)
	// Long-string escape: length=0, refcount!=0 signals the real length's
	// low 16 bits are 0 and the next descriptor carries the high 16 bits
	// plus the real refcount.
	realLen := uint32(len(longStr))
	lowLen := uint16(realLen & 0xFFFF)
	highLen := uint16(realLen >> 16)
	pool = append(pool, descriptor(lowLen, 1)...)
	pool = append(pool, descriptor(highLen, 7)...)

	p, err := Load(pool, longStr)
	require.NoError(t, err)
	require.Equal(t, 1, p.Len())

	s, err := p.Lookup(1)
	require.NoError(t, err)
	require.Len(t, s, len(longStr))
	require.EqualValues(t, 7, p.RefCount(1))
}

func TestLoadRejectsDataLengthMismatch(t *testing.T) {
	pool := header(UTF8Codepage, false)
	pool = append(pool, descriptor(5, 1)...)
	_, err := Load(pool, []byte("short"))
	require.NoError(t, err)

	_, err = Load(pool, []byte("toolong!!"))
	require.ErrorIs(t, err, ErrPoolTruncated)
}

func TestLoadRejectsUnknownCodepage(t *testing.T) {
	pool := header(99999, false)
	_, err := Load(pool, nil)
	require.ErrorIs(t, err, ErrInvalidCodepage)
}

func TestLookupOutOfRange(t *testing.T) {
	pool := header(UTF8Codepage, false)
	pool = append(pool, descriptor(0, 0)...)
	p, err := Load(pool, nil)
	require.NoError(t, err)

	_, err = p.Lookup(5)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestLoadAnsiCodepageDecodesHighBytes(t *testing.T) {
	pool := header(1252, true)
	pool = append(pool, descriptor(1, 1)...)
	// 0x93 in Windows-1252 is a left double quotation mark, U+201C.
	data := []byte{0x93}

	p, err := Load(pool, data)
	require.NoError(t, err)
	require.True(t, p.LongRefs())
	require.Equal(t, 3, p.RefWidth())

	s, err := p.Lookup(1)
	require.NoError(t, err)
	require.Equal(t, "“", s)
}

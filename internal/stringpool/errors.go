package stringpool

import "errors"

var (
	// ErrPoolTruncated indicates the _StringPool/_StringData streams did not
	// contain enough bytes for the descriptors or data they declare.
	ErrPoolTruncated = errors.New("stringpool: truncated pool")
	// ErrInvalidCodepage indicates the codepage id in the pool header is not
	// a supported Windows ANSI code page or UTF-8 (65001).
	ErrInvalidCodepage = errors.New("stringpool: invalid codepage")
	// ErrIndexOutOfRange indicates a row referenced a pool index beyond the
	// loaded entry count. Raised lazily, at row-decode time, per spec.
	ErrIndexOutOfRange = errors.New("stringpool: index out of range")
)

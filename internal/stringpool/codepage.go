package stringpool

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// UTF8Codepage is the Windows Installer codepage id that means "the pool
// bytes are already UTF-8", bypassing the ANSI charmap table entirely.
const UTF8Codepage = 65001

// ansiCodepages maps the Windows Installer/ANSI codepage identifiers this
// package understands to their golang.org/x/text decoder, mirroring the
// single-byte-codepage decoding style hivekit uses for compressed NK/VK
// names (internal/reader/key.go's Windows1252 fast/slow path), generalized
// to the full set of single-byte Windows code pages.
var ansiCodepages = map[int]*charmap.Charmap{
	874:  charmap.Windows874,
	1250: charmap.Windows1250,
	1251: charmap.Windows1251,
	1252: charmap.Windows1252,
	1253: charmap.Windows1253,
	1254: charmap.Windows1254,
	1255: charmap.Windows1255,
	1256: charmap.Windows1256,
	1257: charmap.Windows1257,
	1258: charmap.Windows1258,
}

// decoderFor returns the encoding.Encoding for the given codepage id, and
// whether bytes should instead be treated as raw UTF-8.
func decoderFor(codepage int) (enc encoding.Encoding, isUTF8 bool, ok bool) {
	if codepage == UTF8Codepage {
		return nil, true, true
	}
	cm, found := ansiCodepages[codepage]
	if !found {
		return nil, false, false
	}
	return cm, false, true
}

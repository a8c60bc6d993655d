// Package codec implements the MSI stream-name codec: the bespoke
// base64-like escape that lets table and string-pool names (which can
// contain arbitrary ASCII, including characters not legal in an OLE
// compound-file stream name) be packed into the 31-Unicode-code-unit
// names the container format allows.
//
// The codec operates on Unicode code points, not UTF-8 bytes — the
// byte-level variant sometimes described for this format is incomplete
// (spec.md §9, Open Question (a)).
package codec

import (
	"errors"
	"unicode/utf8"
)

// ErrInvalidStreamName is returned by Decode when the input contains a
// surrogate code unit (or U+FFFD, the rune a lone surrogate becomes in a
// Go string) or a table-prefix code unit after the first position.
var ErrInvalidStreamName = errors.New("codec: invalid stream name")

// ErrNameTooLong is returned by Encode when the encoded name would exceed
// the 31-code-unit limit enforced by the OLE compound-file format.
var ErrNameTooLong = errors.New("codec: encoded name exceeds 31 code units")

const (
	maxStreamNameLen = 31

	rangeABase = 0x3800
	rangeAEnd  = 0x47FF
	rangeBBase = 0x4800
	rangeBEnd  = 0x483F
	tablePrefix = 0x4840
)

// alphabet is the 64-symbol digit set used by the escape: 62 alphanumerics
// plus '.' and '_'. Index in this string is the encoded digit value.
const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz._"

var digitOf [256]int8

func init() {
	for i := range digitOf {
		digitOf[i] = -1
	}
	for i := 0; i < len(alphabet); i++ {
		digitOf[alphabet[i]] = int8(i)
	}
}

// isEncodable reports whether r is one of the 64 ASCII characters the
// escape can represent.
func isEncodable(r rune) bool {
	return r >= 0 && r < 256 && digitOf[byte(r)] >= 0
}

// StreamName is the decoded (display name, is-table) pair for a single
// OLE compound-file stream.
type StreamName struct {
	Name    string
	IsTable bool
}

// Encode packs name into the restricted on-disk stream-name alphabet.
// When table is true, the result is prefixed with the U+4840 table marker.
// Returns ErrNameTooLong if the encoded length (including any table
// prefix) would exceed 31 code units.
func Encode(name string, table bool) (string, error) {
	runes := []rune(name)
	out := make([]rune, 0, len(runes)/2+2)
	if table {
		out = append(out, tablePrefix)
	}

	i := 0
	for i < len(runes) {
		r := runes[i]
		if !isEncodable(r) {
			out = append(out, r)
			i++
			continue
		}
		// Greedily pair consecutive encodable ASCII characters.
		if i+1 < len(runes) && isEncodable(runes[i+1]) {
			lo := int(digitOf[byte(r)])
			hi := int(digitOf[byte(runes[i+1])])
			out = append(out, rune(rangeABase+lo+(hi<<6)))
			i += 2
			continue
		}
		// Odd tail: emit a single range-B code unit.
		lo := int(digitOf[byte(r)])
		out = append(out, rune(rangeBBase+lo))
		i++
	}

	if len(out) > maxStreamNameLen {
		return "", ErrNameTooLong
	}
	return string(out), nil
}

// Decode unpacks an on-disk stream name into its display form and whether
// it denotes a table stream.
func Decode(encoded string) (StreamName, error) {
	runes := []rune(encoded)
	isTable := false
	if len(runes) > 0 && runes[0] == tablePrefix {
		isTable = true
		runes = runes[1:]
	}

	var out []byte
	for _, r := range runes {
		switch {
		case isSurrogate(r):
			return StreamName{}, ErrInvalidStreamName
		case r >= rangeABase && r <= rangeAEnd:
			v := int(r) - rangeABase
			lo := v & 0x3F
			hi := (v >> 6) & 0x3F
			out = append(out, alphabet[lo], alphabet[hi])
		case r >= rangeBBase && r <= rangeBEnd:
			v := int(r) - rangeBBase
			out = append(out, alphabet[v])
		case r == tablePrefix:
			// A second table-prefix code unit mid-name is not a valid escape.
			return StreamName{}, ErrInvalidStreamName
		default:
			out = append(out, []byte(string(r))...)
		}
	}

	return StreamName{Name: string(out), IsTable: isTable}, nil
}

// isSurrogate reports whether r is a UTF-16 surrogate code unit. A Go
// string cannot hold one: converting a lone surrogate to a string, or
// decoding one from UTF-16, yields U+FFFD, so that rune is rejected too.
func isSurrogate(r rune) bool {
	return (r >= 0xD800 && r <= 0xDFFF) || r == utf8.RuneError
}

// Valid reports whether encoded satisfies the constraints an on-disk
// stream name must: length <= 31 code units, and (for non-table names)
// the first code unit is not the table prefix.
func Valid(encoded string, table bool) bool {
	runes := []rune(encoded)
	if len(runes) > maxStreamNameLen {
		return false
	}
	if !table && len(runes) > 0 && runes[0] == tablePrefix {
		return false
	}
	return true
}

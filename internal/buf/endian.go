// Package buf contains small endian-safe decoding and bounds-checking
// helpers shared by the table/schema/pool decoders.
package buf

import "encoding/binary"

// U16LE reads a little-endian uint16 from b. Returns 0 when b is too short.
func U16LE(b []byte) uint16 {
	if len(b) < 2 {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

// U24LE reads a little-endian 24-bit unsigned integer from b (used for
// string-pool references when the long-refs flag is set). Returns 0 when
// b is too short.
func U24LE(b []byte) uint32 {
	if len(b) < 3 {
		return 0
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
}

// U32LE reads a little-endian uint32 from b. Returns 0 when b is too short.
func U32LE(b []byte) uint32 {
	if len(b) < 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// I32LE reads a little-endian int32 from b. Returns 0 when b is too short.
func I32LE(b []byte) int32 {
	if len(b) < 4 {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(b))
}

// I16Biased reads a little-endian uint16 and removes the 0x8000 storage bias
// used for MSI 16-bit integer columns.
func I16Biased(b []byte) int32 {
	return int32(U16LE(b)) - 0x8000
}

// I32Biased reads a little-endian uint32 and removes the 0x80000000 storage
// bias used for MSI 32-bit integer columns.
func I32Biased(b []byte) int64 {
	return int64(U32LE(b)) - 0x80000000
}

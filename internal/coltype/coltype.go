// Package coltype decodes the 16-bit column type-bits word used by
// `_Columns` rows into flags and storage kind, bit-exact with the
// documented Windows Installer column-type encoding. It mirrors the
// small typed-accessor-over-a-raw-word idiom hivekit uses for its NK
// flags and VK type fields: cheap enough to call per-column during
// schema bootstrap without exploding every column into a heavier struct
// up front.
package coltype

const (
	bitPrimaryKey  = 0x8000
	bitNullable    = 0x4000
	bitLocalizable = 0x2000
	bitStringKind  = 0x1000
	bitWideInt     = 0x0400

	widthMask = 0x00FF

	// Int16Bias and Int32Bias are the storage biases spec.md §4.3
	// requires: a raw value of exactly the bias decodes to zero.
	Int16Bias = 0x8000
	Int32Bias = 0x80000000
)

// Kind identifies a column's storage representation.
type Kind int

const (
	// KindString is a string-pool reference (2 or 3 bytes, width from
	// the pool header) — also used for binary-stream references (Icon,
	// Binary tables), which store a stream name in the same slot.
	KindString Kind = iota
	// KindInt16 is a 16-bit integer stored biased by Int16Bias.
	KindInt16
	// KindInt32 is a 32-bit integer stored biased by Int32Bias.
	KindInt32
)

// Type is a decoded `_Columns.Type` word.
type Type struct {
	raw uint16
}

// Decode wraps the raw 16-bit `_Columns.Type` value for bit access.
func Decode(raw uint16) Type { return Type{raw: raw} }

// Raw returns the original, undecoded word.
func (t Type) Raw() uint16 { return t.raw }

// PrimaryKey reports whether bit 15 (0x8000) is set.
func (t Type) PrimaryKey() bool { return t.raw&bitPrimaryKey != 0 }

// Nullable reports whether bit 14 (0x4000) is set.
func (t Type) Nullable() bool { return t.raw&bitNullable != 0 }

// Localizable reports whether bit 13 (0x2000) is set. Only meaningful
// for string-kind columns.
func (t Type) Localizable() bool { return t.raw&bitLocalizable != 0 }

// Kind derives the storage kind from bit 12 and the 0x0400 width bit.
func (t Type) Kind() Kind {
	switch {
	case t.raw&bitStringKind != 0:
		// Covers both the documented string kind and the binary
		// stream-reference variant (Icon, Binary tables), which stores
		// a stream name through the same pool-reference slot.
		return KindString
	case t.raw&bitWideInt != 0:
		return KindInt32
	default:
		return KindInt16
	}
}

// MaxLength returns the low-8-bits field-width for string columns. It
// is informational only: the actual on-disk storage width is the pool
// reference width, not this value.
func (t Type) MaxLength() int { return int(t.raw & widthMask) }

// StorageWidth returns the number of bytes a single cell of this column
// occupies on disk, given the string-pool's reference width (2 or 3,
// irrelevant for non-string kinds).
func (t Type) StorageWidth(poolRefWidth int) int {
	switch t.Kind() {
	case KindInt16:
		return 2
	case KindInt32:
		return 4
	default:
		return poolRefWidth
	}
}

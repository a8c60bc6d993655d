package msi

// ErrKind classifies the taxonomy of errors a Package can surface, per
// spec.md §7 — kinds, not Go types, the same shallow classification
// hivekit uses for pkg/types.ErrKind.
type ErrKind int

const (
	// ErrKindContainer covers OLE read failures, missing required
	// streams, and an unrecognised root class-ID.
	ErrKindContainer ErrKind = iota
	// ErrKindCodec covers stream-name decode failures and oversize
	// encodings.
	ErrKindCodec
	// ErrKindPool covers a truncated string pool, an invalid codepage,
	// or an out-of-range pool index.
	ErrKindPool
	// ErrKindSchema covers malformed _Tables/_Columns, non-dense
	// column numbers, and missing referenced columns.
	ErrKindSchema
	// ErrKindRow covers a row-block stream length that is not a
	// multiple of the column stride.
	ErrKindRow
	// ErrKindOverlay covers multiple directory roots, directory
	// cycles, and missing required foreign keys.
	ErrKindOverlay
	// ErrKindUsage covers operations attempted on a closed Package.
	ErrKindUsage
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindContainer:
		return "container"
	case ErrKindCodec:
		return "codec"
	case ErrKindPool:
		return "pool"
	case ErrKindSchema:
		return "schema"
	case ErrKindRow:
		return "row"
	case ErrKindOverlay:
		return "overlay"
	case ErrKindUsage:
		return "usage"
	default:
		return "unknown"
	}
}

// Error is the typed error shape returned by every package-level
// operation, mirroring hivekit's pkg/types.Error{Kind, Msg, Err} so
// callers branch with errors.As instead of string matching.
type Error struct {
	Kind ErrKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Sentinels returned by Open/Get/Close.
var (
	// ErrNotAPackage indicates the container's root class-ID is not one
	// of the recognised MSI/MSM/MSP/MST CLSIDs.
	ErrNotAPackage = &Error{Kind: ErrKindContainer, Msg: "not a Windows Installer package (unrecognised class-ID)"}
	// ErrMissingStream indicates a fixed stream required to open a
	// package (_StringPool, _StringData, _Tables, _Columns) is absent.
	ErrMissingStream = &Error{Kind: ErrKindContainer, Msg: "required stream missing"}
	// ErrUnsupportedCodepage indicates the string pool's codepage is
	// neither a supported Windows ANSI page nor UTF-8.
	ErrUnsupportedCodepage = &Error{Kind: ErrKindPool, Msg: "unsupported codepage"}
	// ErrCorruptPool indicates the string pool failed its internal
	// consistency checks (descriptor lengths vs. _StringData length).
	ErrCorruptPool = &Error{Kind: ErrKindPool, Msg: "corrupt string pool"}
	// ErrPackageClosed indicates an operation was attempted after
	// Close.
	ErrPackageClosed = &Error{Kind: ErrKindUsage, Msg: "package is closed"}
)

package overlay

import (
	"bytes"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/msikit/msikit/internal/codec"
	"github.com/msikit/msikit/internal/stringpool"
	"github.com/msikit/msikit/pkg/msi"
)

// --- test fixture plumbing, mirroring pkg/msi's memSource/buildTestPackage ---

type memSource struct {
	classID string
	streams map[string][]byte
}

func (m *memSource) RootClassID() (string, error) { return m.classID, nil }

func (m *memSource) Stream(name string) (io.ReaderAt, int64, error) {
	b, ok := m.streams[name]
	if !ok {
		return nil, 0, fmt.Errorf("stream %q not found", name)
	}
	return bytes.NewReader(b), int64(len(b)), nil
}

func (m *memSource) Close() error { return nil }

func u16le(v uint16) []byte { return []byte{byte(v), byte(v >> 8)} }

// builder accumulates a pool, per-table column-major rows, and assembles
// them into a memSource on build(), the same shape pkg/msi's own test
// fixture uses but generalised to several tables at once.
type builder struct {
	t        *testing.T
	pool     []string
	poolIdx  map[string]int
	tableDef map[string][]colDef // table name -> ordered columns
	rows     map[string][][]cellVal
}

type colDef struct {
	number int
	name   string
	typ    uint16
}

type cellVal struct {
	isStr bool
	str   string
	i     int64
}

func strCell(s string) cellVal  { return cellVal{isStr: true, str: s} }
func intCell(i int64) cellVal   { return cellVal{i: i} }

func newBuilder(t *testing.T) *builder {
	return &builder{
		t:        t,
		poolIdx:  map[string]int{},
		tableDef: map[string][]colDef{},
		rows:     map[string][][]cellVal{},
	}
}

func (b *builder) intern(s string) int {
	if s == "" {
		return 0
	}
	if idx, ok := b.poolIdx[s]; ok {
		return idx
	}
	b.pool = append(b.pool, s)
	idx := len(b.pool)
	b.poolIdx[s] = idx
	return idx
}

func (b *builder) table(name string, cols []colDef) {
	b.intern(name)
	for _, c := range cols {
		b.intern(c.name)
	}
	b.tableDef[name] = cols
}

func (b *builder) row(table string, vals ...cellVal) {
	b.rows[table] = append(b.rows[table], vals)
}

// build assembles every interned string, table schema, and row set into a
// memSource with a valid MSI class ID, ready to pass to msi.Open.
func (b *builder) build() *memSource {
	t := b.t
	header := []byte{byte(stringpool.UTF8Codepage), byte(stringpool.UTF8Codepage >> 8), byte(stringpool.UTF8Codepage >> 16), byte(stringpool.UTF8Codepage >> 24)}
	var descs, data []byte
	for _, s := range b.pool {
		l := len(s)
		descs = append(descs, byte(l), byte(l>>8), 1, 0)
		data = append(data, s...)
	}
	poolStream := append(header, descs...)

	// _Tables rows: one per table name, in insertion order.
	var tableNames []string
	for name := range b.tableDef {
		tableNames = append(tableNames, name)
	}
	// deterministic ordering by first-seen pool index
	sortByPoolIdx(tableNames, b.poolIdx)

	var tablesRaw []byte
	for _, name := range tableNames {
		tablesRaw = append(tablesRaw, u16le(uint16(b.poolIdx[name]))...)
	}

	// _Columns: column-major, 4 columns (Table, Number, Name, Type), one
	// row per column across every table.
	var tableCol, numberCol, nameCol, typeCol []byte
	for _, name := range tableNames {
		for _, c := range b.tableDef[name] {
			tableCol = append(tableCol, u16le(uint16(b.poolIdx[name]))...)
			numberCol = append(numberCol, u16le(uint16(0x8000+c.number))...)
			nameCol = append(nameCol, u16le(uint16(b.poolIdx[c.name]))...)
			typeCol = append(typeCol, u16le(uint16(int32(c.typ)+0x8000))...)
		}
	}
	columnsRaw := append(append(append(append([]byte{}, tableCol...), numberCol...), nameCol...), typeCol...)

	streams := map[string][]byte{}
	put := func(name string, isTable bool, raw []byte) {
		encoded, err := codec.Encode(name, isTable)
		require.NoError(t, err)
		streams[encoded] = raw
	}
	put("_StringPool", true, poolStream)
	put("_StringData", true, data)
	put("_Tables", true, tablesRaw)
	put("_Columns", true, columnsRaw)

	for _, name := range tableNames {
		cols := b.tableDef[name]
		var raw []byte
		colMajor := make([][]byte, len(cols))
		for ci, c := range cols {
			for _, row := range b.rows[name] {
				v := row[ci]
				switch {
				case isStringType(c.typ):
					idx := 0
					if v.isStr {
						idx = b.intern(v.str)
					}
					colMajor[ci] = append(colMajor[ci], u16le(uint16(idx))...)
				case isWideIntType(c.typ):
					colMajor[ci] = append(colMajor[ci], u32le(uint32(v.i)+0x80000000)...)
				default:
					colMajor[ci] = append(colMajor[ci], u16le(uint16(int32(v.i)+0x8000))...)
				}
			}
		}
		for _, col := range colMajor {
			raw = append(raw, col...)
		}
		put(name, true, raw)
	}

	// Re-emit the pool/data streams now that row encoding may have
	// interned additional strings.
	descs = nil
	data = nil
	for _, s := range b.pool {
		l := len(s)
		descs = append(descs, byte(l), byte(l>>8), 1, 0)
		data = append(data, s...)
	}
	poolStream = append(append([]byte{}, header...), descs...)
	put("_StringPool", true, poolStream)
	put("_StringData", true, data)

	return &memSource{classID: msi.ClassIDMSI, streams: streams}
}

func u32le(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func isStringType(typ uint16) bool  { return typ&0x1000 != 0 }
func isWideIntType(typ uint16) bool { return typ&0x1000 == 0 && typ&0x0400 != 0 }

func sortByPoolIdx(names []string, idx map[string]int) {
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && idx[names[j-1]] > idx[names[j]]; j-- {
			names[j-1], names[j] = names[j], names[j-1]
		}
	}
}

// --- actual overlay tests ---

var (
	colDirDirectory       = colDef{1, "Directory", 0x9400}
	colDirParent          = colDef{2, "Directory_Parent", 0x5400}
	colDirDefault         = colDef{3, "DefaultDir", 0x1400}
	colCompComponent      = colDef{1, "Component", 0x9400}
	colCompComponentId    = colDef{2, "ComponentId", 0x1400}
	colCompDirectory      = colDef{3, "Directory_", 0x1400}
	colCompAttributes     = colDef{4, "Attributes", 0x0000}
	colFileFile           = colDef{1, "File", 0x9400}
	colFileComponent      = colDef{2, "Component_", 0x1400}
	colFileFileName       = colDef{3, "FileName", 0x1400}
	colFileFileSize       = colDef{4, "FileSize", 0x0400}
	colFileVersion        = colDef{5, "Version", 0x5400}
	colFileLanguage       = colDef{6, "Language", 0x5400}
	colFileAttributes     = colDef{7, "Attributes", 0x0000}
	colFileSequence       = colDef{8, "Sequence", 0x0000}
	colMediaDiskId        = colDef{1, "DiskId", 0x8000}
	colMediaLastSequence  = colDef{2, "LastSequence", 0x0000}
	colMediaDiskPrompt    = colDef{3, "DiskPrompt", 0x5400}
	colMediaCabinet       = colDef{4, "Cabinet", 0x5400}
	colMediaVolumeLabel   = colDef{5, "VolumeLabel", 0x5400}
	colMediaSource        = colDef{6, "Source", 0x5400}
)

func buildScenario(t *testing.T) *builder {
	b := newBuilder(t)
	b.table("Directory", []colDef{colDirDirectory, colDirParent, colDirDefault})
	b.row("Directory", strCell("TARGETDIR"), strCell(""), strCell("."))
	b.row("Directory", strCell("INSTALLDIR"), strCell("TARGETDIR"), strCell("install"))

	b.table("Component", []colDef{colCompComponent, colCompComponentId, colCompDirectory, colCompAttributes})
	b.row("Component", strCell("MainComp"), strCell("{GUID}"), strCell("INSTALLDIR"), intCell(0))

	b.table("File", []colDef{colFileFile, colFileComponent, colFileFileName, colFileFileSize, colFileVersion, colFileLanguage, colFileAttributes, colFileSequence})
	b.row("File", strCell("File1"), strCell("MainComp"), strCell("a.txt"), intCell(100), strCell(""), strCell(""), intCell(0), intCell(7))
	b.row("File", strCell("File2"), strCell("MainComp"), strCell("b.txt"), intCell(200), strCell(""), strCell(""), intCell(0), intCell(11))
	b.row("File", strCell("File3"), strCell("MainComp"), strCell("c.txt"), intCell(300), strCell(""), strCell(""), intCell(0), intCell(26))

	b.table("Media", []colDef{colMediaDiskId, colMediaLastSequence, colMediaDiskPrompt, colMediaCabinet, colMediaVolumeLabel, colMediaSource})
	b.row("Media", intCell(1), intCell(10), strCell(""), strCell("cab1.cab"), strCell(""), strCell(""))
	b.row("Media", intCell(2), intCell(25), strCell(""), strCell("cab2.cab"), strCell(""), strCell(""))

	return b
}

func TestBuildResolvesDirectoryTreeAndComponents(t *testing.T) {
	b := buildScenario(t)
	// A third disk covers File3 (sequence 26), so a non-tolerant Build
	// succeeds; the media overrun itself is TestFileMediaResolution's case.
	b.row("Media", intCell(3), intCell(30), strCell(""), strCell("cab3.cab"), strCell(""), strCell(""))
	src := b.build()
	pkg, err := msi.Open(src, msi.OpenOptions{})
	require.NoError(t, err)
	defer pkg.Close()

	ov, diags, err := Build(pkg, false)
	require.NoError(t, err)
	require.Empty(t, diags)

	require.NotNil(t, ov.Root)
	require.Equal(t, "TARGETDIR", ov.Root.ID)
	require.Len(t, ov.Root.Children, 1)
	require.Equal(t, "INSTALLDIR", ov.Root.Children[0].ID)

	comp := ov.Components["MainComp"]
	require.NotNil(t, comp)
	require.Equal(t, ov.Directories["INSTALLDIR"], comp.Directory)
	require.Len(t, comp.Files, 3)
}

// TestFileMediaResolution exercises spec.md §8 scenario 3: sequence=7
// resolves to the first Media whose LastSequence (10) covers it,
// sequence=11 resolves to the second (25), and sequence=26 exceeds every
// Media's LastSequence and is fatal outside Tolerant mode.
func TestFileMediaResolution(t *testing.T) {
	b := buildScenario(t)
	src := b.build()
	pkg, err := msi.Open(src, msi.OpenOptions{})
	require.NoError(t, err)
	defer pkg.Close()

	_, _, err = Build(pkg, false)
	require.ErrorIs(t, err, ErrFileExceedsMedia)

	ov, diags, err := Build(pkg, true)
	require.NoError(t, err)
	require.NotEmpty(t, diags)

	require.Equal(t, int64(1), ov.Files["File1"].Media.DiskID)
	require.Equal(t, int64(2), ov.Files["File2"].Media.DiskID)
	require.Nil(t, ov.Files["File3"].Media)
}

func TestFileMediaResolutionWithNoMediaTableIsValid(t *testing.T) {
	b := newBuilder(t)
	b.table("Directory", []colDef{colDirDirectory, colDirParent, colDirDefault})
	b.row("Directory", strCell("TARGETDIR"), strCell(""), strCell("."))

	b.table("Component", []colDef{colCompComponent, colCompComponentId, colCompDirectory, colCompAttributes})
	b.row("Component", strCell("MainComp"), strCell("{GUID}"), strCell("TARGETDIR"), intCell(0))

	b.table("File", []colDef{colFileFile, colFileComponent, colFileFileName, colFileFileSize, colFileVersion, colFileLanguage, colFileAttributes, colFileSequence})
	b.row("File", strCell("File1"), strCell("MainComp"), strCell("a.txt"), intCell(100), strCell(""), strCell(""), intCell(0), intCell(1))

	src := b.build()
	pkg, err := msi.Open(src, msi.OpenOptions{})
	require.NoError(t, err)
	defer pkg.Close()

	ov, diags, err := Build(pkg, false)
	require.NoError(t, err)
	require.Empty(t, diags)
	require.Nil(t, ov.Files["File1"].Media)
}

func TestBuildRejectsMultipleRoots(t *testing.T) {
	b := newBuilder(t)
	b.table("Directory", []colDef{colDirDirectory, colDirParent, colDirDefault})
	b.row("Directory", strCell("ROOT1"), strCell(""), strCell("."))
	b.row("Directory", strCell("ROOT2"), strCell(""), strCell("."))

	src := b.build()
	pkg, err := msi.Open(src, msi.OpenOptions{})
	require.NoError(t, err)
	defer pkg.Close()

	_, _, err = Build(pkg, false)
	require.ErrorIs(t, err, ErrMultipleRoots)
}

func TestBuildRejectsPureCycleWithNoRoot(t *testing.T) {
	b := newBuilder(t)
	b.table("Directory", []colDef{colDirDirectory, colDirParent, colDirDefault})
	// A -> B -> A: every directory has a non-empty, non-self parent, so
	// rootCount is 0. This must surface as ErrCyclicDirectoryGraph, not
	// ErrMultipleRoots.
	b.row("Directory", strCell("A"), strCell("B"), strCell("."))
	b.row("Directory", strCell("B"), strCell("A"), strCell("."))

	src := b.build()
	pkg, err := msi.Open(src, msi.OpenOptions{})
	require.NoError(t, err)
	defer pkg.Close()

	_, _, err = Build(pkg, false)
	require.ErrorIs(t, err, ErrCyclicDirectoryGraph)
}

func TestBuildComponentWithoutDirectoryIsFatalUnlessTolerant(t *testing.T) {
	b := newBuilder(t)
	b.table("Directory", []colDef{colDirDirectory, colDirParent, colDirDefault})
	b.row("Directory", strCell("TARGETDIR"), strCell(""), strCell("."))

	b.table("Component", []colDef{colCompComponent, colCompComponentId, colCompDirectory, colCompAttributes})
	b.row("Component", strCell("Orphan"), strCell("{GUID}"), strCell("NoSuchDir"), intCell(0))

	src := b.build()
	pkg, err := msi.Open(src, msi.OpenOptions{})
	require.NoError(t, err)
	defer pkg.Close()

	_, _, err = Build(pkg, false)
	require.ErrorIs(t, err, ErrComponentWithoutDirectory)

	ov, diags, err := Build(pkg, true)
	require.NoError(t, err)
	require.NotEmpty(t, diags)
	require.Nil(t, ov.Components["Orphan"].Directory)
}

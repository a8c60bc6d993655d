// Package msi is the public package-reader orchestrator: it opens a
// StreamSource, bootstraps the string pool and table catalog, and
// lazily materialises tables on first access — the direct analogue of
// hivekit's pkg/hive sitting in front of whatever backs a Hive.
package msi

import (
	"fmt"
	"sort"
	"sync"

	"github.com/msikit/msikit/internal/codec"
	"github.com/msikit/msikit/internal/diag"
	"github.com/msikit/msikit/internal/msilog"
	"github.com/msikit/msikit/internal/schema"
	"github.com/msikit/msikit/internal/stringpool"
	"github.com/msikit/msikit/internal/table"
)

// Known root class-IDs for the four package kinds msikit reads.
const (
	ClassIDMSI = "{000C1084-0000-0000-C000-000000000046}"
	ClassIDMSM = ClassIDMSI
	ClassIDMSP = "{000C1086-0000-0000-C000-000000000046}"
	ClassIDMST = "{000C1082-0000-0000-C000-000000000046}"
)

// Fixed streams carry a literal U+0005 prefix on disk -- the OLE
// convention (also used by Office property sets) for streams that
// should not be displayed as ordinary user-visible entries.
const summaryInformationStream = "\u0005SummaryInformation"
const digitalSignatureStream = "\u0005DigitalSignature"
const digitalSignatureExStream = "\u0005MsiDigitalSignatureEx"
const stringDataStreamName = "_StringData"
const stringPoolStreamName = "_StringPool"
const tablesStreamName = "_Tables"
const columnsStreamName = "_Columns"
const validationStreamName = "_Validation"

// OpenOptions controls Open's tolerance for structural inconsistency,
// field-for-field mirroring hivekit's types.OpenOptions{Tolerant,
// CollectDiagnostics}.
type OpenOptions struct {
	// Tolerant is kept on the Package but Open does not consult it: a
	// non-dense column numbering still fails Open. The overlay's
	// downgrade of dangling required foreign keys to diagnostics is
	// selected by overlay.Build's own tolerant argument.
	Tolerant bool
	// Logger receives structural diagnostics as they are produced.
	// Defaults to a discarding logger.
	Logger *msilog.Logger
	// CollectDiagnostics retains every Diagnostic for later retrieval
	// via Package.Diagnostics(), in addition to logging them.
	CollectDiagnostics bool
}

// Row is a single decoded table record.
type Row = table.Row

// Table is a bootstrapped, lazily materialised table.
type Table struct {
	def  *schema.Definition
	once sync.Once
	rows []Row
	err  error
}

// Name returns the table's name.
func (t *Table) Name() string { return t.def.Name }

// Columns returns the table's ordered column list.
func (t *Table) Columns() []table.Column { return t.def.Columns }

// Package is the open handle onto an MSI/MSM/MSP/MST package. It owns
// the backing StreamSource, the string pool, and the table catalog.
// Not safe for concurrent mutation; concurrent read of already-
// materialised tables is safe (each Table freezes after first load).
type Package struct {
	src     StreamSource
	opts    OpenOptions
	logger  *msilog.Logger
	pool    *stringpool.Pool
	catalog *schema.Catalog
	tables  map[string]*Table
	summary *Summary

	mu     sync.Mutex
	diags  []diag.Diagnostic
	closed bool
}

// Open bootstraps a Package from src: validates the root class-ID,
// loads the string pool, and bootstraps the table catalog from
// _Tables/_Columns/_Validation. Per spec.md §4.6/§7, codec and pool
// errors are fatal here; row errors are deferred to each table's first
// Get.
func Open(src StreamSource, opts OpenOptions) (*Package, error) {
	logger := opts.Logger
	if logger == nil {
		logger = msilog.Discard()
	}

	classID, err := src.RootClassID()
	if err != nil {
		return nil, &Error{Kind: ErrKindContainer, Msg: "reading root class-ID", Err: err}
	}
	switch classID {
	case ClassIDMSI, ClassIDMSP, ClassIDMST:
	default:
		return nil, ErrNotAPackage
	}

	poolRaw, err := readAllMetaStream(src, stringPoolStreamName)
	if err != nil {
		return nil, &Error{Kind: ErrKindContainer, Msg: "reading " + stringPoolStreamName, Err: err}
	}
	dataRaw, err := readAllMetaStream(src, stringDataStreamName)
	if err != nil {
		return nil, &Error{Kind: ErrKindContainer, Msg: "reading " + stringDataStreamName, Err: err}
	}
	pool, err := stringpool.Load(poolRaw, dataRaw)
	if err != nil {
		return nil, poolOpenError(err)
	}

	tablesRaw, err := readAllMetaStream(src, tablesStreamName)
	if err != nil {
		return nil, &Error{Kind: ErrKindContainer, Msg: "reading " + tablesStreamName, Err: err}
	}
	columnsRaw, err := readAllMetaStream(src, columnsStreamName)
	if err != nil {
		return nil, &Error{Kind: ErrKindContainer, Msg: "reading " + columnsStreamName, Err: err}
	}
	validationRaw, _ := readAllMetaStream(src, validationStreamName) // optional

	catalog, diags, err := schema.Bootstrap(tablesRaw, columnsRaw, validationRaw, pool)
	if err != nil {
		return nil, &Error{Kind: ErrKindSchema, Msg: "bootstrapping table catalog", Err: err}
	}

	p := &Package{
		src:     src,
		opts:    opts,
		logger:  logger,
		pool:    pool,
		catalog: catalog,
		tables:  make(map[string]*Table, len(catalog.Tables)),
		summary: &Summary{classID: classID},
	}
	for name, def := range catalog.Tables {
		p.tables[name] = &Table{def: def}
	}
	p.recordDiagnostics(diags)

	if summaryRaw, err := readAllStream(src, summaryInformationStream); err == nil {
		p.summary.raw = summaryRaw
	}
	if sigRaw, err := readAllStream(src, digitalSignatureStream); err == nil {
		p.summary.signature = sigRaw
		p.summary.hasSignature = true
	}
	if sigExRaw, err := readAllStream(src, digitalSignatureExStream); err == nil {
		p.summary.signatureEx = sigExRaw
		p.summary.hasSignatureEx = true
	}

	return p, nil
}

func poolOpenError(err error) error {
	sentinel := ErrCorruptPool
	if err == stringpool.ErrInvalidCodepage {
		sentinel = ErrUnsupportedCodepage
	}
	return &Error{Kind: ErrKindPool, Msg: "loading string pool", Err: fmt.Errorf("%w: %w", sentinel, err)}
}

func (p *Package) recordDiagnostics(ds []diag.Diagnostic) {
	for _, d := range ds {
		if d.Severity == diag.SevError {
			p.logger.Error(fmt.Errorf("%s", d.Message), d.Message, "category", d.Category.String(), "context", d.Context)
		} else {
			p.logger.Info(d.Message, "category", d.Category.String(), "context", d.Context)
		}
	}
	if p.opts.CollectDiagnostics {
		p.mu.Lock()
		p.diags = append(p.diags, ds...)
		p.mu.Unlock()
	}
}

// Get returns the named table, materialising its rows on first access.
// Materialisation is memoised: subsequent calls return the cached
// result (including a cached decode error).
func (p *Package) Get(name string) (*Table, error) {
	if p.isClosed() {
		return nil, ErrPackageClosed
	}
	t, ok := p.tables[name]
	if !ok {
		return nil, nil
	}
	t.once.Do(func() {
		streamName, err := codec.Encode(name, true)
		if err != nil {
			t.err = &Error{Kind: ErrKindCodec, Msg: "encoding table stream name", Err: err}
			return
		}
		raw, err := readAllStream(p.src, streamName)
		if err != nil {
			t.err = &Error{Kind: ErrKindContainer, Msg: "reading table stream " + name, Err: err}
			return
		}
		rows, err := table.Decode(t.def.Columns, raw, p.pool)
		if err != nil {
			t.err = &Error{Kind: ErrKindRow, Msg: "decoding table " + name, Err: err}
			return
		}
		t.rows = rows
	})
	if t.err != nil {
		return nil, t.err
	}
	return t, nil
}

// Rows returns the table's decoded rows. Call only after Get succeeds.
func (t *Table) Rows() []Row { return t.rows }

// RawStream reads an arbitrary stream by its already-encoded on-disk
// name, bypassing table decoding entirely. Used for binary payloads a
// row merely names (Icon.Name, Binary.Name) rather than a table whose
// rows internal/table can decode.
func (p *Package) RawStream(encodedName string) ([]byte, error) {
	if p.isClosed() {
		return nil, ErrPackageClosed
	}
	return readAllStream(p.src, encodedName)
}

// Tables returns the names of every table in the catalog, sorted.
func (p *Package) Tables() []string {
	names := make([]string, 0, len(p.tables))
	for name := range p.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Summary returns the package's summary-information accessor.
func (p *Package) Summary() (*Summary, error) {
	if p.isClosed() {
		return nil, ErrPackageClosed
	}
	return p.summary, nil
}

// Pool exposes the package's immutable string pool, for collaborators
// (the overlay, diagnostics tooling) that need direct pool access.
func (p *Package) Pool() *stringpool.Pool { return p.pool }

// Diagnostics returns every non-fatal structural observation collected
// so far. Only populated when OpenOptions.CollectDiagnostics is true.
func (p *Package) Diagnostics() []diag.Diagnostic {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]diag.Diagnostic(nil), p.diags...)
}

// Close releases the underlying StreamSource. Subsequent Get, RawStream,
// and Summary calls return ErrPackageClosed; Tables, Pool, and
// Diagnostics keep answering from memory.
func (p *Package) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return p.src.Close()
}

func (p *Package) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Package schema bootstraps the table catalog from the self-describing
// `_Tables`/`_Columns` (and optional `_Validation`) meta-tables, per
// spec.md §4.4. The meta-tables' own column layouts are fixed at
// compile time — the same trick pymsi's `tables.TABLE_TABLES`/
// `TABLE_COLUMNS` constants use to bootstrap themselves without a
// circular dependency on the catalog they produce.
package schema

import (
	"errors"
	"fmt"
	"sort"

	"github.com/msikit/msikit/internal/coltype"
	"github.com/msikit/msikit/internal/diag"
	"github.com/msikit/msikit/internal/stringpool"
	"github.com/msikit/msikit/internal/table"
)

// ErrNonDenseColumnNumbers indicates a table's `_Columns` rows do not
// form a dense 1-based sequence once sorted by Number.
var ErrNonDenseColumnNumbers = errors.New("schema: column numbers are not dense starting at 1")

// ErrMissingValidationColumn indicates a `_Validation` row names a
// column absent from its table; per spec.md §4.4 this is a hard error
// unless the table itself is unknown (a warning).
var ErrMissingValidationColumn = errors.New("schema: validation row references missing column")

// tablesSchema and columnsSchema are the fixed, compile-time-known
// layouts of the two meta-tables used to bootstrap everything else.
var tablesSchema = []table.Column{
	{Name: "Name", Type: coltype.Decode(0x9400)}, // primary key, string
}

var columnsSchema = []table.Column{
	{Name: "Table", Type: coltype.Decode(0x9400)},  // primary key, string
	{Name: "Number", Type: coltype.Decode(0x8000)}, // primary key, int16
	{Name: "Name", Type: coltype.Decode(0x1400)},   // string
	{Name: "Type", Type: coltype.Decode(0x0000)},   // int16
}

var validationSchema = []table.Column{
	{Name: "Table", Type: coltype.Decode(0x9400)},
	{Name: "Column", Type: coltype.Decode(0x9400)},
	{Name: "Nullable", Type: coltype.Decode(0x1400)},
	{Name: "MinValue", Type: coltype.Decode(0x4000)},
	{Name: "MaxValue", Type: coltype.Decode(0x4000)},
	{Name: "KeyTable", Type: coltype.Decode(0x5400)},
	{Name: "KeyColumn", Type: coltype.Decode(0x4000)},
	{Name: "Category", Type: coltype.Decode(0x5400)},
	{Name: "Set", Type: coltype.Decode(0x5400)},
	{Name: "Description", Type: coltype.Decode(0x5400)},
}

// TablesSchema returns the compile-time-known column layout of the
// `_Tables` meta-table.
func TablesSchema() []table.Column { return tablesSchema }

// ColumnsSchema returns the compile-time-known column layout of the
// `_Columns` meta-table.
func ColumnsSchema() []table.Column { return columnsSchema }

// ValidationSchema returns the compile-time-known column layout of the
// optional `_Validation` meta-table.
func ValidationSchema() []table.Column { return validationSchema }

// Definition is a bootstrapped table's name and ordered column list.
type Definition struct {
	Name    string
	Columns []table.Column
}

// Catalog is the full set of bootstrapped table definitions, keyed by
// table name.
type Catalog struct {
	Tables map[string]*Definition
}

// Get returns the named table's definition, if known.
func (c *Catalog) Get(name string) (*Definition, bool) {
	d, ok := c.Tables[name]
	return d, ok
}

// Bootstrap implements spec.md §4.4's algorithm: decode `_Tables` and
// `_Columns`, build each user table's ordered column list, and check
// each `_Validation` row against the catalog. Validation constraints
// (nullability, ranges, categories, sets) are not attached to the
// columns. Non-fatal issues are appended to diags; besides a decode
// failure of a meta-table, ErrMissingValidationColumn and
// ErrNonDenseColumnNumbers are the only hard failures.
func Bootstrap(tablesRaw, columnsRaw, validationRaw []byte, pool *stringpool.Pool) (*Catalog, []diag.Diagnostic, error) {
	var diags []diag.Diagnostic

	tableRows, err := table.Decode(tablesSchema, tablesRaw, pool)
	if err != nil {
		return nil, nil, fmt.Errorf("schema: decoding _Tables: %w", err)
	}
	userTables := make(map[string]bool, len(tableRows))
	for _, r := range tableRows {
		userTables[r.String("Name")] = true
	}

	columnRows, err := table.Decode(columnsSchema, columnsRaw, pool)
	if err != nil {
		return nil, nil, fmt.Errorf("schema: decoding _Columns: %w", err)
	}

	type numberedColumn struct {
		number int64
		column table.Column
	}
	byTable := make(map[string][]numberedColumn)
	for _, r := range columnRows {
		tname := r.String("Table")
		byTable[tname] = append(byTable[tname], numberedColumn{
			number: r.Int("Number"),
			column: table.Column{Name: r.String("Name"), Type: coltype.Decode(uint16(r.Int("Type")))},
		})
	}

	catalog := &Catalog{Tables: make(map[string]*Definition, len(userTables))}
	for tname := range userTables {
		cols := byTable[tname]
		sort.Slice(cols, func(i, j int) bool { return cols[i].number < cols[j].number })
		for i, nc := range cols {
			if nc.number != int64(i+1) {
				return nil, diags, fmt.Errorf("%w: table %q", ErrNonDenseColumnNumbers, tname)
			}
		}
		ordered := make([]table.Column, len(cols))
		for i, nc := range cols {
			ordered[i] = nc.column
		}
		catalog.Tables[tname] = &Definition{Name: tname, Columns: ordered}
	}

	for tname := range byTable {
		if !userTables[tname] {
			diags = append(diags, diag.Diagnostic{
				Severity: diag.SevWarning,
				Category: diag.CategorySchema,
				Message:  "columns present for table absent from _Tables",
				Context:  tname,
			})
		}
	}

	// _Tables and _Columns are themselves readable tables once
	// bootstrapped, same as pymsi registers its TABLE_TABLES/
	// TABLE_COLUMNS constants back into self.tables.
	catalog.Tables["_Tables"] = &Definition{Name: "_Tables", Columns: tablesSchema}
	catalog.Tables["_Columns"] = &Definition{Name: "_Columns", Columns: columnsSchema}

	if len(validationRaw) > 0 {
		catalog.Tables["_Validation"] = &Definition{Name: "_Validation", Columns: validationSchema}

		vdiags, err := applyValidation(catalog, validationRaw, pool)
		diags = append(diags, vdiags...)
		if err != nil {
			return nil, diags, err
		}
	}

	return catalog, diags, nil
}

func applyValidation(catalog *Catalog, validationRaw []byte, pool *stringpool.Pool) ([]diag.Diagnostic, error) {
	var diags []diag.Diagnostic

	rows, err := table.Decode(validationSchema, validationRaw, pool)
	if err != nil {
		return diags, fmt.Errorf("schema: decoding _Validation: %w", err)
	}

	for _, r := range rows {
		tname := r.String("Table")
		cname := r.String("Column")

		def, ok := catalog.Get(tname)
		if !ok {
			diags = append(diags, diag.Diagnostic{
				Severity: diag.SevWarning,
				Category: diag.CategorySchema,
				Message:  "validation row references unknown table",
				Context:  fmt.Sprintf("%s.%s", tname, cname),
			})
			continue
		}

		found := false
		for _, c := range def.Columns {
			if c.Name == cname {
				found = true
				break
			}
		}
		if !found {
			return diags, fmt.Errorf("%w: %s.%s", ErrMissingValidationColumn, tname, cname)
		}
	}

	return diags, nil
}

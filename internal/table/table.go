// Package table implements the column-major row-block decoder: given a
// table's column list and the raw bytes of its stream, it produces the
// table's rows. It is deliberately stateless — materialisation timing
// and memoisation belong to pkg/msi, the same separation hivekit draws
// between its pure ValueList/cell decoders and the stateful Hive that
// calls them on demand.
package table

import (
	"errors"
	"fmt"

	"github.com/msikit/msikit/internal/buf"
	"github.com/msikit/msikit/internal/coltype"
	"github.com/msikit/msikit/internal/stringpool"
)

// ErrMalformedTable indicates the stream length is not an exact multiple
// of the row stride (sum of column widths).
var ErrMalformedTable = errors.New("table: malformed row block")

// Column is one column of a table's schema: its name and decoded type
// bits.
type Column struct {
	Name string
	Type coltype.Type
}

// Cell is a single decoded value. Exactly one of the string/int forms is
// meaningful, selected by the owning Column's Type.Kind().
type Cell struct {
	null bool
	str  string
	i    int64
}

// IsNull reports whether this cell holds the null/empty sentinel: pool
// index 0 for strings, or the biased-zero raw value for a nullable
// integer column.
func (c Cell) IsNull() bool { return c.null }

// String returns the cell's string value. Returns "" for non-string
// cells or null cells.
func (c Cell) String() string { return c.str }

// Int returns the cell's integer value, already debiased. Returns 0 for
// non-integer cells or null cells.
func (c Cell) Int() int64 { return c.i }

// Row is one decoded record, addressable by column name.
type Row struct {
	columns []Column
	cells   []Cell
}

// Get returns the cell for the named column and whether that column
// exists on this row.
func (r Row) Get(name string) (Cell, bool) {
	for i, c := range r.columns {
		if c.Name == name {
			return r.cells[i], true
		}
	}
	return Cell{}, false
}

// String returns the named column's string value, or "" if the column
// is absent or null.
func (r Row) String(name string) string {
	c, _ := r.Get(name)
	return c.str
}

// Int returns the named column's integer value, or 0 if the column is
// absent or null.
func (r Row) Int(name string) int64 {
	c, _ := r.Get(name)
	return c.i
}

// Decode reads the column-major row block in raw against the given
// column schema, resolving string cells through pool. stride is the sum
// of each column's on-disk width (coltype.Type.StorageWidth); len(raw)
// must be an exact multiple of stride or ErrMalformedTable is returned.
func Decode(columns []Column, raw []byte, pool *stringpool.Pool) ([]Row, error) {
	if len(columns) == 0 {
		if len(raw) != 0 {
			return nil, ErrMalformedTable
		}
		return nil, nil
	}

	refWidth := pool.RefWidth()
	widths := make([]int, len(columns))
	stride := 0
	for i, col := range columns {
		widths[i] = col.Type.StorageWidth(refWidth)
		stride += widths[i]
	}
	if stride == 0 {
		return nil, ErrMalformedTable
	}
	if len(raw)%stride != 0 {
		return nil, ErrMalformedTable
	}
	n := len(raw) / stride

	colCells := make([][]Cell, len(columns))
	offset := 0
	for i, col := range columns {
		w := widths[i]
		cells := make([]Cell, n)
		for r := 0; r < n; r++ {
			start := offset + r*w
			cellBytes, ok := buf.Slice(raw, start, w)
			if !ok {
				return nil, ErrMalformedTable
			}
			cell, err := decodeCell(col, cellBytes, pool)
			if err != nil {
				return nil, err
			}
			cells[r] = cell
		}
		colCells[i] = cells
		offset += n * w
	}

	rows := make([]Row, n)
	for r := 0; r < n; r++ {
		cells := make([]Cell, len(columns))
		for i := range columns {
			cells[i] = colCells[i][r]
		}
		rows[r] = Row{columns: columns, cells: cells}
	}
	return rows, nil
}

func decodeCell(col Column, raw []byte, pool *stringpool.Pool) (Cell, error) {
	switch col.Type.Kind() {
	case coltype.KindInt16:
		// The null sentinel is the raw on-disk 0x0000, not a debiased
		// zero value (that's raw 0x8000, the encoding of the real
		// value 0) — check the pre-bias bytes, not I16Biased's result.
		if buf.U16LE(raw) == 0 && col.Type.Nullable() {
			return Cell{null: true}, nil
		}
		return Cell{i: int64(buf.I16Biased(raw))}, nil
	case coltype.KindInt32:
		if buf.U32LE(raw) == 0 && col.Type.Nullable() {
			return Cell{null: true}, nil
		}
		return Cell{i: buf.I32Biased(raw)}, nil
	default:
		idx := poolIndex(raw)
		if idx == 0 {
			return Cell{null: true}, nil
		}
		s, err := pool.Lookup(idx)
		if err != nil {
			return Cell{}, fmt.Errorf("table: column %s: %w", col.Name, err)
		}
		return Cell{str: s}, nil
	}
}

func poolIndex(raw []byte) int {
	if len(raw) == 3 {
		return int(buf.U24LE(raw))
	}
	return int(buf.U16LE(raw))
}

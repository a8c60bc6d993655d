package table

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/msikit/msikit/internal/coltype"
	"github.com/msikit/msikit/internal/stringpool"
)

func buildPool(t *testing.T, entries ...string) *stringpool.Pool {
	t.Helper()
	header := []byte{byte(stringpool.UTF8Codepage), byte(stringpool.UTF8Codepage >> 8), byte(stringpool.UTF8Codepage >> 16), byte(stringpool.UTF8Codepage >> 24)}
	descs := []byte{}
	var data []byte
	for _, e := range entries {
		l := len(e)
		descs = append(descs, byte(l), byte(l>>8), 1, 0)
		data = append(data, e...)
	}
	p, err := stringpool.Load(append(header, descs...), data)
	require.NoError(t, err)
	return p
}

func TestDecodeMixedColumns(t *testing.T) {
	pool := buildPool(t, "alpha", "beta")

	columns := []Column{
		{Name: "Name", Type: coltype.Decode(0x1400)}, // string kind (bit12|0x0400)
		{Name: "Number", Type: coltype.Decode(0x0000)},
	}

	// Column-major: 2 string refs (2 bytes each, UTF8 pool => 2-byte refs)
	// then 2 int16 values.
	raw := []byte{
		1, 0, // "alpha" -> pool index 1
		2, 0, // "beta" -> pool index 2
		0x00, 0x80, // biased 0 -> 0
		0x05, 0x80, // biased 0x8005 -> 5
	}

	rows, err := Decode(columns, raw, pool)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.Equal(t, "alpha", rows[0].String("Name"))
	require.EqualValues(t, 0, rows[0].Int("Number"))

	require.Equal(t, "beta", rows[1].String("Name"))
	require.EqualValues(t, 5, rows[1].Int("Number"))
}

func TestDecodeMalformedStride(t *testing.T) {
	pool := buildPool(t)
	columns := []Column{{Name: "Number", Type: coltype.Decode(0x0000)}}
	_, err := Decode(columns, []byte{0x00, 0x80, 0x01}, pool)
	require.ErrorIs(t, err, ErrMalformedTable)
}

func TestDecodeNullableIntIsNull(t *testing.T) {
	pool := buildPool(t)
	columns := []Column{{Name: "Maybe", Type: coltype.Decode(0x4000)}} // nullable int16
	// The null sentinel is raw 0x0000 on disk, not a debiased zero value.
	raw := []byte{0x00, 0x00}
	rows, err := Decode(columns, raw, pool)
	require.NoError(t, err)
	cell, ok := rows[0].Get("Maybe")
	require.True(t, ok)
	require.True(t, cell.IsNull())
}

func TestDecodeNullableIntRealZeroIsNotNull(t *testing.T) {
	pool := buildPool(t)
	columns := []Column{{Name: "Maybe", Type: coltype.Decode(0x4000)}} // nullable int16
	// Raw 0x8000 is the biased encoding of the real value 0 and must not
	// be mistaken for the null sentinel.
	raw := []byte{0x00, 0x80}
	rows, err := Decode(columns, raw, pool)
	require.NoError(t, err)
	cell, ok := rows[0].Get("Maybe")
	require.True(t, ok)
	require.False(t, cell.IsNull())
	require.EqualValues(t, 0, cell.Int())
}

func TestDecodeNullStringIndexZero(t *testing.T) {
	pool := buildPool(t, "x")
	columns := []Column{{Name: "S", Type: coltype.Decode(0x1400)}}
	raw := []byte{0, 0}
	rows, err := Decode(columns, raw, pool)
	require.NoError(t, err)
	cell, _ := rows[0].Get("S")
	require.True(t, cell.IsNull())
	require.Equal(t, "", cell.String())
}

package coltype

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFlagBits(t *testing.T) {
	ty := Decode(bitPrimaryKey | bitNullable | bitLocalizable | bitStringKind | bitWideInt | 0xFF)
	require.True(t, ty.PrimaryKey())
	require.True(t, ty.Nullable())
	require.True(t, ty.Localizable())
	require.Equal(t, KindString, ty.Kind())
	require.Equal(t, 0xFF, ty.MaxLength())
}

func TestKindInt16(t *testing.T) {
	ty := Decode(0x0000)
	require.Equal(t, KindInt16, ty.Kind())
	require.Equal(t, 2, ty.StorageWidth(2))
}

func TestKindInt32(t *testing.T) {
	ty := Decode(bitWideInt)
	require.Equal(t, KindInt32, ty.Kind())
	require.Equal(t, 4, ty.StorageWidth(3))
}

func TestKindStringUsesPoolRefWidth(t *testing.T) {
	ty := Decode(bitStringKind)
	require.Equal(t, KindString, ty.Kind())
	require.Equal(t, 2, ty.StorageWidth(2))
	require.Equal(t, 3, ty.StorageWidth(3))
}

func TestUnsetFlags(t *testing.T) {
	ty := Decode(bitWideInt)
	require.False(t, ty.PrimaryKey())
	require.False(t, ty.Nullable())
	require.False(t, ty.Localizable())
}

package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTripNonTable(t *testing.T) {
	cases := []string{
		"",
		"a",
		"ab",
		"Component",
		"_Validation",
		"ProductCode_1.2",
		"A1",
	}
	for _, s := range cases {
		enc, err := Encode(s, false)
		require.NoError(t, err, s)

		wantLen := (len([]rune(s)) + 1) / 2
		require.Len(t, []rune(enc), wantLen, "encoded length for %q", s)

		dec, err := Decode(enc)
		require.NoError(t, err, s)
		require.Equal(t, s, dec.Name)
		require.False(t, dec.IsTable)
	}
}

func TestEncodeDecodeRoundTripTable(t *testing.T) {
	cases := []string{"Component", "File", "_Tables", "_Columns"}
	for _, s := range cases {
		enc, err := Encode(s, true)
		require.NoError(t, err, s)

		dec, err := Decode(enc)
		require.NoError(t, err, s)
		require.Equal(t, s, dec.Name)
		require.True(t, dec.IsTable)
	}
}

func TestEncodeNameTooLong(t *testing.T) {
	long := make([]byte, 130)
	for i := range long {
		long[i] = 'a'
	}
	_, err := Encode(string(long), true)
	require.ErrorIs(t, err, ErrNameTooLong)
}

func TestDecodeRejectsSurrogate(t *testing.T) {
	_, err := Decode(string(rune(0xD800)))
	require.ErrorIs(t, err, ErrInvalidStreamName)
}

func TestDecodePassesThroughNonEncodable(t *testing.T) {
	dec, err := Decode("Summary Information")
	require.NoError(t, err)
	require.Equal(t, "Summary Information", dec.Name)
	require.False(t, dec.IsTable)
}

func TestValid(t *testing.T) {
	enc, err := Encode("Component", true)
	require.NoError(t, err)
	require.True(t, Valid(enc, true))
	require.False(t, Valid(enc, false))
}

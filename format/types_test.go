package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValueKind_String(t *testing.T) {
	require.Equal(t, "u8", KindUint8.String())
	require.Equal(t, "f32", KindFloat32.String())
	require.Equal(t, "stringref", KindStringRef.String())
	require.Equal(t, "sequence", KindSequence.String())
	require.Equal(t, "Unknown", KindInvalid.String())
	require.Equal(t, "Unknown", ValueKind(0xFF).String())
}

func TestParseValueKind(t *testing.T) {
	tests := []struct {
		name string
		want ValueKind
		ok   bool
	}{
		{"u8", KindUint8, true},
		{"I16", KindInt16, true},
		{" u32 ", KindUint32, true},
		{"f32", KindFloat32, true},
		{"stringref", KindStringRef, true},
		{"string_ref", KindStringRef, true},
		{"group", KindGroup, true},
		{"sequence", KindInvalid, false},
		{"optional", KindInvalid, false},
		{"u64", KindInvalid, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseValueKind(tt.name)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestValueKind_IsInteger(t *testing.T) {
	for _, k := range []ValueKind{KindUint8, KindInt8, KindUint16, KindInt16, KindUint32, KindInt32} {
		require.True(t, k.IsInteger(), k.String())
	}
	for _, k := range []ValueKind{KindFloat32, KindStringRef, KindGroup, KindSequence, KindOptional, KindInvalid} {
		require.False(t, k.IsInteger(), k.String())
	}
}

func TestParseCompressionType(t *testing.T) {
	c, ok := ParseCompressionType("zst")
	require.True(t, ok)
	require.Equal(t, CompressionZstd, c)

	c, ok = ParseCompressionType("")
	require.True(t, ok)
	require.Equal(t, CompressionNone, c)

	_, ok = ParseCompressionType("gzip")
	require.False(t, ok)
	require.Equal(t, "LZ4", CompressionLZ4.String())

	c, ok = ParseCompressionType(" Deflate ")
	require.True(t, ok)
	require.Equal(t, CompressionZlib, c)

	c, ok = ParseCompressionType("s3d")
	require.True(t, ok)
	require.Equal(t, CompressionPFS, c)
	require.Equal(t, "PFS", c.String())
}

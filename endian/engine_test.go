package endian

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetLittleEndianEngine(t *testing.T) {
	engine := GetLittleEndianEngine()

	require.Implements(t, (*EndianEngine)(nil), engine)
	require.Equal(t, binary.LittleEndian, engine)
	require.True(t, IsLittleEndian(engine))

	var testValue uint16 = 0x0102
	bytes := make([]byte, 2)
	engine.PutUint16(bytes, testValue)
	require.Equal(t, byte(0x02), bytes[0], "Little endian should put LSB first")
	require.Equal(t, byte(0x01), bytes[1], "Little endian should put MSB second")
	require.Equal(t, testValue, engine.Uint16(bytes))
}

func TestGetBigEndianEngine(t *testing.T) {
	engine := GetBigEndianEngine()

	require.Implements(t, (*EndianEngine)(nil), engine)
	require.Equal(t, binary.BigEndian, engine)
	require.False(t, IsLittleEndian(engine))

	var testValue uint16 = 0x0102
	bytes := make([]byte, 2)
	engine.PutUint16(bytes, testValue)
	require.Equal(t, byte(0x01), bytes[0], "Big endian should put MSB first")
	require.Equal(t, byte(0x02), bytes[1], "Big endian should put LSB second")
}

func TestFloat32(t *testing.T) {
	t.Run("Little endian 1.0", func(t *testing.T) {
		require.Equal(t, float32(1.0), Float32(GetLittleEndianEngine(), []byte{0x00, 0x00, 0x80, 0x3F}))
	})

	t.Run("Big endian 1.0", func(t *testing.T) {
		require.Equal(t, float32(1.0), Float32(GetBigEndianEngine(), []byte{0x3F, 0x80, 0x00, 0x00}))
	})

	t.Run("Append reads back", func(t *testing.T) {
		for _, engine := range []EndianEngine{GetLittleEndianEngine(), GetBigEndianEngine()} {
			b := AppendFloat32(engine, nil, -2.5)
			require.Len(t, b, 4)
			require.Equal(t, float32(-2.5), Float32(engine, b))
		}
	})
}

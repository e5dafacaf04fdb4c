// Package endian provides byte order utilities for fragment decoding and encoding.
//
// This package combines Go's binary.ByteOrder and binary.AppendByteOrder into a
// single EndianEngine interface. Decoders read fixed-width fields through the
// engine and the fragment encoder appends through it, so the same engine value
// describes both directions.
//
// # Basic Usage
//
// WLD fragment payloads are little-endian, which is the default everywhere in
// wldfrag:
//
//	engine := endian.GetLittleEndianEngine()
//	set := field.NewSet(engine)
//
// The big-endian engine exists for tests and for byte-swapped dumps produced
// by third-party tools:
//
//	set := field.NewSet(endian.GetBigEndianEngine())
//
// # Thread Safety
//
// All functions in this package are safe for concurrent use. The returned
// EndianEngine instances are immutable and stateless.
package endian

import (
	"encoding/binary"
	"math"
)

// EndianEngine combines ByteOrder and AppendByteOrder interfaces from encoding/binary
// into a single interface for convenient byte order operations.
//
// This interface is satisfied by binary.LittleEndian and binary.BigEndian.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}

// IsLittleEndian reports whether engine writes the least significant byte first.
func IsLittleEndian(engine EndianEngine) bool {
	return engine.Uint16([]byte{0x01, 0x00}) == 1
}

// Float32 reads an IEEE-754 single precision value from the first 4 bytes of b.
func Float32(engine EndianEngine, b []byte) float32 {
	return math.Float32frombits(engine.Uint32(b))
}

// AppendFloat32 appends the IEEE-754 bits of v to b.
func AppendFloat32(engine EndianEngine, b []byte, v float32) []byte {
	return engine.AppendUint32(b, math.Float32bits(v))
}

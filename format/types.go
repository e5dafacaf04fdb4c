package format

import "strings"

type (
	ValueKind       uint8
	CompressionType uint8
)

const (
	KindInvalid   ValueKind = 0x00 // KindInvalid is the zero value and never decodable.
	KindUint8     ValueKind = 0x01 // KindUint8 is an unsigned 8-bit integer.
	KindInt8      ValueKind = 0x02 // KindInt8 is a signed 8-bit integer.
	KindUint16    ValueKind = 0x03 // KindUint16 is an unsigned 16-bit little-endian integer.
	KindInt16     ValueKind = 0x04 // KindInt16 is a signed 16-bit little-endian integer.
	KindUint32    ValueKind = 0x05 // KindUint32 is an unsigned 32-bit little-endian integer.
	KindInt32     ValueKind = 0x06 // KindInt32 is a signed 32-bit little-endian integer.
	KindFloat32   ValueKind = 0x07 // KindFloat32 is an IEEE-754 32-bit little-endian float.
	KindStringRef ValueKind = 0x08 // KindStringRef is a 4-byte reference into the string table.
	KindGroup     ValueKind = 0x09 // KindGroup is a nested group of fields decoded in-line.

	// Shapes produced by structural rules. They describe decoded values and
	// cannot be declared as a field's element kind.
	KindSequence ValueKind = 0x40 // KindSequence is the result of a counted rule.
	KindOptional ValueKind = 0x41 // KindOptional is the result of a conditional rule.

	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
	CompressionZlib CompressionType = 0x5 // CompressionZlib represents a single zlib stream.
	CompressionPFS  CompressionType = 0x6 // CompressionPFS represents an S3D/PFS chain of zlib blocks.
)

var kindNames = map[ValueKind]string{
	KindUint8:     "u8",
	KindInt8:      "i8",
	KindUint16:    "u16",
	KindInt16:     "i16",
	KindUint32:    "u32",
	KindInt32:     "i32",
	KindFloat32:   "f32",
	KindStringRef: "stringref",
	KindGroup:     "group",
	KindSequence:  "sequence",
	KindOptional:  "optional",
}

func (k ValueKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return "Unknown"
}

// IsInteger reports whether values of the kind can serve as counts and
// predicate operands.
func (k ValueKind) IsInteger() bool {
	switch k {
	case KindUint8, KindInt8, KindUint16, KindInt16, KindUint32, KindInt32:
		return true
	default:
		return false
	}
}

// IsShape reports whether the kind only describes a decoded value shape.
func (k ValueKind) IsShape() bool {
	return k == KindSequence || k == KindOptional
}

// ParseValueKind resolves a kind from its short name ("u32", "f32", ...).
// Names are case-insensitive; "string_ref" and "stringreference" are accepted
// as aliases of "stringref".
func ParseValueKind(name string) (ValueKind, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "string_ref", "stringreference":
		return KindStringRef, true
	}

	for k, n := range kindNames {
		if n == name && !k.IsShape() {
			return k, true
		}
	}

	return KindInvalid, false
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	case CompressionZlib:
		return "Zlib"
	case CompressionPFS:
		return "PFS"
	default:
		return "Unknown"
	}
}

// ParseCompressionType resolves a compression type from its name.
func ParseCompressionType(name string) (CompressionType, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return CompressionNone, true
	case "zstd", "zst":
		return CompressionZstd, true
	case "s2":
		return CompressionS2, true
	case "lz4":
		return CompressionLZ4, true
	case "zlib", "deflate":
		return CompressionZlib, true
	case "pfs", "s3d":
		return CompressionPFS, true
	default:
		return 0, false
	}
}

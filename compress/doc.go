// Package compress provides the codecs fragment payloads are read through
// before decoding.
//
// WLD files ship inside S3D (PFS) archives, which store every file as a chain
// of zlib blocks. The pfs codec inflates such a chain as lifted from an
// archive entry, and the zlib codec a single block stream. Payload dumps kept
// by tooling may also use none, zstd, s2 or lz4. Zstd uses
// github.com/klauspost/compress unless the cgozstd build tag selects the cgo
// binding github.com/valyala/gozstd.
//
// Every codec refuses to inflate past MaxDecompressedSize and reports corrupt
// input as errs.ErrCorruptCompressed.
//
//	codec, err := compress.ParseCodec("pfs")
//	if err != nil {
//		return err
//	}
//	wld, err := codec.Decompress(entry)
package compress

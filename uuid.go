package fastuuid

import (
	"bytes"
	"encoding/hex"

	"github.com/cespare/xxhash/v2"
)

// UUID represents a Universally Unique Identifier as defined by RFC 4122 and RFC 9562.
// The 16 bytes are stored in big-endian (network) order and are the only state;
// every other representation is derived from them.
type UUID [16]byte

// Version represents the UUID version
type Version byte

const (
	_ Version = iota
	VersionTimeBased
	VersionDCESecurity
	VersionNameBasedMD5
	VersionRandom
	VersionNameBasedSHA1
	_
	VersionTimeSorted // UUIDv7
	VersionCustom     // UUIDv8
)

// Variant represents the UUID variant
type Variant byte

const (
	VariantNCS Variant = iota
	VariantRFC4122
	VariantMicrosoft
	VariantFuture
)

// String returns the classification used by RFC 4122 section 4.1.1.
// Values outside the four known variants have no classification and yield "".
func (v Variant) String() string {
	switch v {
	case VariantNCS:
		return "reserved for NCS compatibility"
	case VariantRFC4122:
		return "specified in RFC 4122"
	case VariantMicrosoft:
		return "reserved for Microsoft compatibility"
	case VariantFuture:
		return "reserved for future definition"
	}
	return ""
}

var (
	// Nil is the nil UUID (all zeros)
	Nil UUID

	// Max is the max UUID (all ones), RFC 9562 section 5.10
	Max = UUID{
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	}
)

// Version returns the version nibble of the UUID (0-15)
func (u UUID) Version() Version {
	return Version(u[6] >> 4)
}

// Variant returns the variant of the UUID
func (u UUID) Variant() Variant {
	switch {
	case (u[8] & 0x80) == 0x00:
		return VariantNCS
	case (u[8] & 0xc0) == 0x80:
		return VariantRFC4122
	case (u[8] & 0xe0) == 0xc0:
		return VariantMicrosoft
	default:
		return VariantFuture
	}
}

// String returns the canonical string representation of the UUID
// in the format: xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx
func (u UUID) String() string {
	var buf [36]byte
	encodeHex(buf[:], u)
	return string(buf[:])
}

// GoString returns a Go expression that reproduces u, used by the %#v verb.
func (u UUID) GoString() string {
	return `fastuuid.MustParse("` + u.String() + `")`
}

// encodeHex encodes UUID to its canonical hex representation
func encodeHex(dst []byte, u UUID) {
	hex.Encode(dst[0:8], u[0:4])
	dst[8] = '-'
	hex.Encode(dst[9:13], u[4:6])
	dst[13] = '-'
	hex.Encode(dst[14:18], u[6:8])
	dst[18] = '-'
	hex.Encode(dst[19:23], u[8:10])
	dst[23] = '-'
	hex.Encode(dst[24:36], u[10:16])
}

// Bytes returns the UUID as a big-endian byte slice
func (u UUID) Bytes() []byte {
	return u[:]
}

// IsNil returns true if the UUID is the nil UUID (all zeros)
func (u UUID) IsNil() bool {
	return u == Nil
}

// Compare returns an integer comparing two UUIDs lexicographically.
// The result will be 0 if u==other, -1 if u < other, and +1 if u > other.
// This is the unsigned order of the 128-bit big-endian integers.
func (u UUID) Compare(other UUID) int {
	return bytes.Compare(u[:], other[:])
}

// Less reports whether u sorts before other.
func (u UUID) Less(other UUID) bool {
	return u.Compare(other) < 0
}

// Equal returns true if u and other represent the same UUID
func (u UUID) Equal(other UUID) bool {
	return u == other
}

// Hash returns a 64-bit hash of the 16 bytes. It is stable across
// processes and platforms.
func (u UUID) Hash() uint64 {
	return xxhash.Sum64(u[:])
}

package fastuuid

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"time"
)

// Fields is the RFC 4122 decomposition of a UUID.
type Fields struct {
	TimeLow           uint32
	TimeMid           uint16
	TimeHiVersion     uint16
	ClockSeqHiVariant uint8
	ClockSeqLow       uint8
	Node              uint64 // low 48 bits
}

// gregorianOffset is the number of 100ns intervals between the UUID epoch
// (1582-10-15) and the Unix epoch.
const gregorianOffset = 122192928000000000

// EncodeToHex encodes the UUID to a hexadecimal string without hyphens
func (u UUID) EncodeToHex() string {
	return hex.EncodeToString(u[:])
}

// Hex returns the 32 lowercase hex digits of the UUID, without separators.
func (u UUID) Hex() string {
	return u.EncodeToHex()
}

// URN returns the RFC 4122 URN form, urn:uuid:xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx
func (u UUID) URN() string {
	var buf [36 + len(urnPrefix)]byte
	copy(buf[:], urnPrefix)
	encodeHex(buf[len(urnPrefix):], u)
	return string(buf[:])
}

// BytesLE returns the UUID with its first three groups byte-swapped to
// little-endian. It is the inverse of FromBytesLE.
func (u UUID) BytesLE() []byte {
	swapEndian(&u)
	return u[:]
}

// Int returns the UUID as an unsigned 128-bit big-endian integer
func (u UUID) Int() Uint128 {
	return Uint128{
		Hi: binary.BigEndian.Uint64(u[0:8]),
		Lo: binary.BigEndian.Uint64(u[8:16]),
	}
}

// EncodeToBase64 encodes the UUID to a base64 string (URL-safe, no padding)
func (u UUID) EncodeToBase64() string {
	return base64.RawURLEncoding.EncodeToString(u[:])
}

// EncodeToBase64Std encodes the UUID to a standard base64 string
func (u UUID) EncodeToBase64Std() string {
	return base64.StdEncoding.EncodeToString(u[:])
}

// DecodeFromHex decodes a hexadecimal string to UUID
func DecodeFromHex(s string) (UUID, error) {
	if len(s) != 32 {
		return Nil, badHex(s)
	}
	return Parse(s)
}

// DecodeFromBase64 decodes a base64 string to UUID (URL-safe encoding)
func DecodeFromBase64(s string) (UUID, error) {
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return Nil, malformed("invalid base64 UUID %q", s)
	}
	return FromBytes(data)
}

// DecodeFromBase64Std decodes a standard base64 string to UUID
func DecodeFromBase64Std(s string) (UUID, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return Nil, malformed("invalid base64 UUID %q", s)
	}
	return FromBytes(data)
}

// Fields returns the six RFC 4122 fields, read from the current bytes.
func (u UUID) Fields() Fields {
	return Fields{
		TimeLow:           u.TimeLow(),
		TimeMid:           u.TimeMid(),
		TimeHiVersion:     u.TimeHiVersion(),
		ClockSeqHiVariant: u.ClockSeqHiVariant(),
		ClockSeqLow:       u.ClockSeqLow(),
		Node:              u.Node(),
	}
}

// TimeLow returns bytes 0-3
func (u UUID) TimeLow() uint32 {
	return binary.BigEndian.Uint32(u[0:4])
}

// TimeMid returns bytes 4-5
func (u UUID) TimeMid() uint16 {
	return binary.BigEndian.Uint16(u[4:6])
}

// TimeHiVersion returns bytes 6-7, version nibble included
func (u UUID) TimeHiVersion() uint16 {
	return binary.BigEndian.Uint16(u[6:8])
}

// ClockSeqHiVariant returns byte 8, variant bits included
func (u UUID) ClockSeqHiVariant() uint8 {
	return u[8]
}

// ClockSeqLow returns byte 9
func (u UUID) ClockSeqLow() uint8 {
	return u[9]
}

// ClockSeq returns the 14-bit clock sequence with the variant bits masked off.
func (u UUID) ClockSeq() uint16 {
	return binary.BigEndian.Uint16(u[8:10]) & 0x3fff
}

// Node returns the low 48 bits of the UUID
func (u UUID) Node() uint64 {
	return uint64(u[10])<<40 |
		uint64(u[11])<<32 |
		uint64(u[12])<<24 |
		uint64(u[13])<<16 |
		uint64(u[14])<<8 |
		uint64(u[15])
}

// RawTime returns the 60-bit RFC 4122 timestamp: the low 12 bits of
// time_hi_and_version, then time_mid, then time_low. For version 1 UUIDs it
// counts 100ns intervals since 1582-10-15.
func (u UUID) RawTime() uint64 {
	return uint64(u.TimeHiVersion()&0x0fff)<<48 |
		uint64(u.TimeMid())<<32 |
		uint64(u.TimeLow())
}

// Timestamp extracts the Unix timestamp (in milliseconds) from a UUIDv7
func (u UUID) Timestamp() int64 {
	if u.Version() != VersionTimeSorted {
		return 0
	}
	// Extract 48-bit timestamp from bytes 0-5
	timestamp := uint64(u[0])<<40 |
		uint64(u[1])<<32 |
		uint64(u[2])<<24 |
		uint64(u[3])<<16 |
		uint64(u[4])<<8 |
		uint64(u[5])
	return int64(timestamp)
}

// Time returns the creation time embedded in a version 1 or version 7 UUID.
// Other versions carry no time and yield the zero time.
func (u UUID) Time() time.Time {
	switch u.Version() {
	case VersionTimeBased:
		ticks := int64(u.RawTime()) - gregorianOffset
		return time.Unix(ticks/1e7, (ticks%1e7)*100)
	case VersionTimeSorted:
		ms := u.Timestamp()
		return time.Unix(ms/1000, (ms%1000)*1000000)
	}
	return time.Time{}
}

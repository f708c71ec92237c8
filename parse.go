package fastuuid

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

const urnPrefix = "urn:uuid:"

// Parse parses a UUID from its string representation.
// It accepts the following formats, with hex digits in either case:
//   - xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx (canonical)
//   - urn:uuid:xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx
//   - {xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx}
//   - xxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx (without hyphens)
func Parse(s string) (UUID, error) {
	var uuid UUID
	in := s

	switch {
	case len(s) == 36+len(urnPrefix) && strings.EqualFold(s[:len(urnPrefix)], urnPrefix):
		s = s[len(urnPrefix):]
	case len(s) == 38 && s[0] == '{' && s[37] == '}':
		s = s[1:37]
	}

	// Handle canonical format with hyphens
	if len(s) == 36 {
		if s[8] != '-' || s[13] != '-' || s[18] != '-' || s[23] != '-' {
			return Nil, badHex(in)
		}
		// Decode each segment
		if err := decodeHexSegment(uuid[0:4], s[0:8]); err != nil {
			return Nil, badHex(in)
		}
		if err := decodeHexSegment(uuid[4:6], s[9:13]); err != nil {
			return Nil, badHex(in)
		}
		if err := decodeHexSegment(uuid[6:8], s[14:18]); err != nil {
			return Nil, badHex(in)
		}
		if err := decodeHexSegment(uuid[8:10], s[19:23]); err != nil {
			return Nil, badHex(in)
		}
		if err := decodeHexSegment(uuid[10:16], s[24:36]); err != nil {
			return Nil, badHex(in)
		}
		return uuid, nil
	}

	// Handle format without hyphens
	if len(s) == 32 {
		if err := decodeHexSegment(uuid[:], s); err != nil {
			return Nil, badHex(in)
		}
		return uuid, nil
	}

	return Nil, badHex(in)
}

// MustParse is like Parse but panics if the string cannot be parsed.
// It simplifies safe initialization of global variables.
func MustParse(s string) UUID {
	uuid, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("fastuuid: Parse(%q): %v", s, err))
	}
	return uuid
}

func badHex(s string) error {
	return malformed("badly formed hexadecimal UUID string %q", s)
}

// decodeHexSegment decodes a hex string segment into a byte slice
func decodeHexSegment(dst []byte, src string) error {
	if _, err := hex.Decode(dst, []byte(src)); err != nil {
		return ErrMalformedInput
	}
	return nil
}

// FromBytes creates a UUID from 16 big-endian bytes
func FromBytes(b []byte) (UUID, error) {
	var uuid UUID
	if len(b) != 16 {
		return Nil, malformed("bytes is not a 16-char string (got %d bytes)", len(b))
	}
	copy(uuid[:], b)
	return uuid, nil
}

// MustFromBytes is like FromBytes but panics on error
func MustFromBytes(b []byte) UUID {
	uuid, err := FromBytes(b)
	if err != nil {
		panic(err)
	}
	return uuid
}

// FromBytesLE creates a UUID from the little-endian layout used by Microsoft
// GUIDs: time_low, time_mid and time_hi_and_version are byte-swapped, the
// remaining 8 bytes are taken as is.
func FromBytesLE(b []byte) (UUID, error) {
	if len(b) != 16 {
		return Nil, malformed("bytes_le is not a 16-char string (got %d bytes)", len(b))
	}
	var uuid UUID
	copy(uuid[:], b)
	swapEndian(&uuid)
	return uuid, nil
}

// swapEndian reverses the three leading RFC 4122 groups in place.
// Applying it twice is the identity.
func swapEndian(u *UUID) {
	u[0], u[1], u[2], u[3] = u[3], u[2], u[1], u[0]
	u[4], u[5] = u[5], u[4]
	u[6], u[7] = u[7], u[6]
}

// fieldBits holds the declared widths of the six RFC 4122 fields.
var fieldBits = [6]int{32, 16, 16, 8, 8, 48}

// FromFields packs the six RFC 4122 fields into a UUID.
// Only Node can exceed its width; it must be below 2^48.
func FromFields(f Fields) (UUID, error) {
	return FromFieldValues(
		uint64(f.TimeLow),
		uint64(f.TimeMid),
		uint64(f.TimeHiVersion),
		uint64(f.ClockSeqHiVariant),
		uint64(f.ClockSeqLow),
		f.Node,
	)
}

// FromFieldValues packs a 6-tuple (time_low, time_mid, time_hi_version,
// clock_seq_hi_variant, clock_seq_low, node) into a UUID. A value wider than
// its field yields a *FieldError naming the 1-indexed field.
func FromFieldValues(values ...uint64) (UUID, error) {
	if len(values) != 6 {
		return Nil, malformed("fields is not a 6-tuple (got %d values)", len(values))
	}
	for i, v := range values {
		if v>>fieldBits[i] != 0 {
			return Nil, &FieldError{Field: i + 1, Bits: fieldBits[i]}
		}
	}

	var uuid UUID
	binary.BigEndian.PutUint32(uuid[0:4], uint32(values[0]))
	binary.BigEndian.PutUint16(uuid[4:6], uint16(values[1]))
	binary.BigEndian.PutUint16(uuid[6:8], uint16(values[2]))
	uuid[8] = byte(values[3])
	uuid[9] = byte(values[4])
	putNode(uuid[10:16], values[5])
	return uuid, nil
}

// FromUint128 creates a UUID whose big-endian integer value is i
func FromUint128(i Uint128) UUID {
	var uuid UUID
	binary.BigEndian.PutUint64(uuid[0:8], i.Hi)
	binary.BigEndian.PutUint64(uuid[8:16], i.Lo)
	return uuid
}

// FromBigInt creates a UUID from an integer in [0, 2^128)
func FromBigInt(b *big.Int) (UUID, error) {
	i, err := Uint128FromBig(b)
	if err != nil {
		return Nil, err
	}
	return FromUint128(i), nil
}

// putNode writes the low 48 bits of n into dst[0:6] big-endian.
func putNode(dst []byte, n uint64) {
	_ = dst[5]
	dst[0] = byte(n >> 40)
	dst[1] = byte(n >> 32)
	dst[2] = byte(n >> 24)
	dst[3] = byte(n >> 16)
	dst[4] = byte(n >> 8)
	dst[5] = byte(n)
}

package fastuuid

// Input carries the raw construction data for FromInput. Exactly one of
// Hex, Bytes, BytesLE, Fields or Int must be set; a nil slice or pointer
// means "not supplied".
type Input struct {
	Hex     *string
	Bytes   []byte
	BytesLE []byte
	Fields  []uint64
	Int     *Uint128

	// Version, when non-zero, overwrites the version nibble of a UUID
	// built from Bytes or BytesLE. It must be in 1..5 and is ignored for
	// the other inputs.
	Version Version
}

// FromInput builds a UUID from exactly one of the inputs in in.
func FromInput(in Input) (UUID, error) {
	if in.Version > VersionNameBasedSHA1 {
		return Nil, ErrInvalidVersion
	}

	supplied := 0
	if in.Hex != nil {
		supplied++
	}
	if in.Bytes != nil {
		supplied++
	}
	if in.BytesLE != nil {
		supplied++
	}
	if in.Fields != nil {
		supplied++
	}
	if in.Int != nil {
		supplied++
	}
	switch {
	case supplied == 0:
		return Nil, ErrMissingInput
	case supplied > 1:
		return Nil, ErrAmbiguousInput
	}

	switch {
	case in.Hex != nil:
		return Parse(*in.Hex)
	case in.Bytes != nil:
		uuid, err := FromBytes(in.Bytes)
		if err != nil {
			return Nil, err
		}
		return uuid.withVersion(in.Version), nil
	case in.BytesLE != nil:
		uuid, err := FromBytesLE(in.BytesLE)
		if err != nil {
			return Nil, err
		}
		return uuid.withVersion(in.Version), nil
	case in.Fields != nil:
		return FromFieldValues(in.Fields...)
	default:
		return FromUint128(*in.Int), nil
	}
}

// withVersion returns a copy of u with the version nibble set to v.
// A zero v leaves u unchanged. The variant bits are not touched.
func (u UUID) withVersion(v Version) UUID {
	if v == 0 {
		return u
	}
	u[6] = (u[6] & 0x0f) | byte(v)<<4
	return u
}

// setVersionVariant stamps version v and the RFC 4122 variant onto u.
func (u *UUID) setVersionVariant(v Version) {
	u[6] = (u[6] & 0x0f) | byte(v)<<4
	u[8] = (u[8] & 0x3f) | 0x80
}

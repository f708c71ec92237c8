package fastuuid

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrMissingInput indicates that no construction input was supplied
	ErrMissingInput = errors.New("fastuuid: one of the hex, bytes, bytes_le, fields, or int inputs must be given")

	// ErrAmbiguousInput indicates that more than one construction input was supplied
	ErrAmbiguousInput = errors.New("fastuuid: only one of the hex, bytes, bytes_le, fields, or int inputs may be given")

	// ErrMalformedInput indicates a wrong length or an unparseable string
	ErrMalformedInput = errors.New("fastuuid: malformed UUID input")

	// ErrFieldOutOfRange indicates that a fields value exceeds its bit width
	ErrFieldOutOfRange = errors.New("fastuuid: field out of range")

	// ErrInvalidVersion indicates that a version override is outside 1..5
	ErrInvalidVersion = errors.New("fastuuid: illegal version number")

	// ErrEnvironmentUnavailable indicates that no node identifier could be resolved
	ErrEnvironmentUnavailable = errors.New("fastuuid: node identifier unavailable")
)

// FieldError reports a fields value that does not fit its declared width.
// Field is 1-indexed in RFC 4122 order.
type FieldError struct {
	Field int
	Bits  int
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("fastuuid: field %d out of range (need a %d-bit value)", e.Field, e.Bits)
}

// Is makes every FieldError match ErrFieldOutOfRange.
func (e *FieldError) Is(target error) bool {
	return target == ErrFieldOutOfRange
}

// malformed annotates ErrMalformedInput with a formatted reason.
func malformed(format string, args ...interface{}) error {
	return errors.WithMessagef(ErrMalformedInput, format, args...)
}

package hasher

import "errors"

var (
	// ErrConfigurationMismatch is returned for every use of a type whose field
	// configuration cannot be fully resolved, the type is unusable for the
	// lifetime of the process.
	ErrConfigurationMismatch = errors.New("configuration mismatch")

	// ErrUnknownField is returned when a field name given at call site is not a
	// contributor of the value's type.
	ErrUnknownField = errors.New("unknown field")

	// ErrTypeMismatch is returned when a type erased entry point receives a
	// value of another type than the one it was built for.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrNoContributors is returned when an explicit list of fields or
	// accessors is empty.
	ErrNoContributors = errors.New("no contributors")
)

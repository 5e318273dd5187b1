package customers

import "errors"

var (
	// ErrNotFound is returned when a DNI exists in neither tier.
	ErrNotFound = errors.New("customers: customer not found")

	// ErrInvalidField is returned when an update names a field outside the
	// allowed set.
	ErrInvalidField = errors.New("customers: field not updatable")

	// ErrNoFields is returned when an update carries no usable fields.
	ErrNoFields = errors.New("customers: no valid fields to update")
)

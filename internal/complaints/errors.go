package complaints

import "errors"

var (
	// ErrNotFound is returned when no complaint has the requested ID.
	ErrNotFound = errors.New("complaints: complaint not found")

	// ErrInvalidStatus is returned for a status value outside the lifecycle.
	ErrInvalidStatus = errors.New("complaints: invalid status")

	// ErrNotCancellable is returned when a user cancellation targets a
	// complaint that already left Pendiente.
	ErrNotCancellable = errors.New("complaints: only pending complaints can be cancelled")

	// ErrEmptyDescription is returned when a registration has no usable text.
	ErrEmptyDescription = errors.New("complaints: description is required")
)

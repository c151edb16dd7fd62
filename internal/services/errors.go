// Package services defines the dashboard business logic: ticket counting,
// dashboard aggregation with trends, the technician ranking, system status
// and cache warming. This file centralizes the service-level error values
// that handlers translate into HTTP responses.
//
// Remote failures are not errors at this level. They are absorbed where the
// remote call is made, logged, and surface as zero counts, skipped
// technicians, or a Partial flag on the payload.
package services

import "errors"

// Request validation errors.
var (
	// ErrInvalidDateRange is returned for malformed dates, a range with only
	// one bound, or a start after the end.
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrInvalidLevel is returned for a level other than N1..N4.
	ErrInvalidLevel = errors.New("level must be one of N1, N2, N3, N4")

	// ErrInvalidStatus is returned for an unknown status bucket.
	ErrInvalidStatus = errors.New("status must be one of new, pending, in_progress, resolved")

	// ErrInvalidTechnician is returned for a non-positive technician id.
	ErrInvalidTechnician = errors.New("technician_id must be a positive integer")

	// ErrInvalidDateField is returned for a date field other than creation
	// or modification.
	ErrInvalidDateField = errors.New("date_field must be creation or modification")

	// ErrInvalidLimit is returned for a negative ranking/history limit.
	ErrInvalidLimit = errors.New("limit must be a positive integer")

	// ErrHistoryDisabled is returned when snapshots are not persisted.
	ErrHistoryDisabled = errors.New("snapshot history is disabled")
)

// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and give clients a stable, machine-readable
// taxonomy alongside the human-readable message. Generic codes mirror HTTP
// status semantics; the domain-specific ones name the rejected input so a
// dashboard client can highlight the offending filter.
//
// Remote GLPI failures never surface here: services absorb them into zero
// counts, skipped technicians or a partial flag.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "invalid_level",
//	  "message": "level must be one of N1, N2, N3, N4"
//	}

package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"

	// Domain-specific:
	ErrCodeInvalidDateRange  = "invalid_date_range"
	ErrCodeInvalidLevel      = "invalid_level"
	ErrCodeInvalidStatus     = "invalid_status"
	ErrCodeInvalidTechnician = "invalid_technician"
	ErrCodeInvalidDateField  = "invalid_date_field"
	ErrCodeInvalidLimit      = "invalid_limit"
	ErrCodeHistoryDisabled   = "history_disabled"
	ErrCodeHistoryFailed     = "history_failed"
)

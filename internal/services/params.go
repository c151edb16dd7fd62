package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/tbourn/glpi-dashboard-backend/internal/domain"
)

// ParseDateRange turns two YYYY-MM-DD strings into a range. Both empty means
// "no range" (nil, nil).
func ParseDateRange(start, end string) (*domain.DateRange, error) {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start == "" && end == "" {
		return nil, nil
	}
	if start == "" || end == "" {
		return nil, fmt.Errorf("%w: start_date and end_date must be given together", ErrInvalidDateRange)
	}
	s, err := time.ParseInLocation(domain.DateLayout, start, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%w: start_date %q is not YYYY-MM-DD", ErrInvalidDateRange, start)
	}
	e, err := time.ParseInLocation(domain.DateLayout, end, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%w: end_date %q is not YYYY-MM-DD", ErrInvalidDateRange, end)
	}
	if s.After(e) {
		return nil, fmt.Errorf("%w: start_date is after end_date", ErrInvalidDateRange)
	}
	return &domain.DateRange{Start: s, End: e}, nil
}

// ParseLevelFilter accepts "" (no filter) or N1..N4 in any case.
func ParseLevelFilter(s string) (domain.ServiceLevel, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	l, err := domain.ParseLevel(s)
	if err != nil {
		return "", ErrInvalidLevel
	}
	return l, nil
}

// ParseBucket accepts "" (all buckets) or a bucket name.
func ParseBucket(s string) (domain.Bucket, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", nil
	}
	for _, b := range domain.Buckets {
		if string(b) == s {
			return b, nil
		}
	}
	return "", ErrInvalidStatus
}

// ParseDateField accepts "" (creation), "creation" or "modification".
func ParseDateField(s string) (domain.DateField, error) {
	switch domain.DateField(strings.ToLower(strings.TrimSpace(s))) {
	case "", domain.DateCreation:
		return domain.DateCreation, nil
	case domain.DateModification:
		return domain.DateModification, nil
	}
	return "", ErrInvalidDateField
}

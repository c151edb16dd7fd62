package domain

import "time"

// TicketStatus is the remote numeric ticket status.
type TicketStatus int

// Remote ticket statuses. StatusAny means "no status criterion".
const (
	StatusAny      TicketStatus = 0
	StatusNew      TicketStatus = 1
	StatusAssigned TicketStatus = 2
	StatusPlanned  TicketStatus = 3
	StatusPending  TicketStatus = 4
	StatusSolved   TicketStatus = 5
	StatusClosed   TicketStatus = 6
)

// Valid reports whether s is a concrete remote status.
func (s TicketStatus) Valid() bool { return s >= StatusNew && s <= StatusClosed }

// Bucket is a derived dashboard status group.
type Bucket string

const (
	BucketNew        Bucket = "new"
	BucketPending    Bucket = "pending"
	BucketInProgress Bucket = "in_progress"
	BucketResolved   Bucket = "resolved"
)

// Buckets lists the derived groups in display order.
var Buckets = []Bucket{BucketNew, BucketPending, BucketInProgress, BucketResolved}

// Statuses returns the raw statuses summed into b.
func (b Bucket) Statuses() []TicketStatus {
	switch b {
	case BucketNew:
		return []TicketStatus{StatusNew}
	case BucketPending:
		return []TicketStatus{StatusPending}
	case BucketInProgress:
		return []TicketStatus{StatusAssigned, StatusPlanned}
	case BucketResolved:
		return []TicketStatus{StatusSolved, StatusClosed}
	}
	return nil
}

// BucketOf maps a raw status to its derived bucket.
func BucketOf(s TicketStatus) (Bucket, bool) {
	for _, b := range Buckets {
		for _, st := range b.Statuses() {
			if st == s {
				return b, true
			}
		}
	}
	return "", false
}

// StatusCounts holds the four derived buckets for one selector.
type StatusCounts struct {
	New        int `json:"new"`
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Resolved   int `json:"resolved"`
	Total      int `json:"total"`
}

// Add increments bucket b by n and keeps Total in sync.
func (c *StatusCounts) Add(b Bucket, n int) {
	switch b {
	case BucketNew:
		c.New += n
	case BucketPending:
		c.Pending += n
	case BucketInProgress:
		c.InProgress += n
	case BucketResolved:
		c.Resolved += n
	default:
		return
	}
	c.Total += n
}

// Get returns the count of bucket b.
func (c StatusCounts) Get(b Bucket) int {
	switch b {
	case BucketNew:
		return c.New
	case BucketPending:
		return c.Pending
	case BucketInProgress:
		return c.InProgress
	case BucketResolved:
		return c.Resolved
	}
	return 0
}

// DateField selects which ticket date a range filters on.
type DateField string

const (
	DateCreation     DateField = "creation"
	DateModification DateField = "modification"
)

// DateRange is an inclusive calendar-day window.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// DateLayout is the calendar-day format accepted and emitted by the API.
const DateLayout = "2006-01-02"

// Days returns the number of calendar days covered, at least 1.
func (r DateRange) Days() int {
	d := int(r.End.Sub(r.Start).Hours()/24) + 1
	if d < 1 {
		return 1
	}
	return d
}

// Previous returns the equal-length window ending the day before r starts.
func (r DateRange) Previous() DateRange {
	days := r.Days()
	end := r.Start.AddDate(0, 0, -1)
	return DateRange{Start: end.AddDate(0, 0, -(days - 1)), End: end}
}

// Key is a stable string form used in cache keys.
func (r DateRange) Key() string {
	return r.Start.Format(DateLayout) + "_" + r.End.Format(DateLayout)
}

// Package services – TicketCounter
//
// TicketCounter is the counting primitive shared by the dashboard and the
// ranking. Each count is one range 0-0 search on Ticket whose criteria are
// built from a Selector, a raw status and an optional date window.
//
// Levels are matched in one of two modes. In hierarchy mode the ticket's
// denormalized hierarchy label is searched for the level tag ("N1"); in group
// mode the assigned group must equal the level's configured group id.

package services

import (
	"context"
	"errors"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/glpi-dashboard-backend/internal/domain"
	"github.com/tbourn/glpi-dashboard-backend/internal/glpi"
)

// RemoteAPI is the subset of *glpi.Client the services depend on.
type RemoteAPI interface {
	Count(ctx context.Context, entity string, q glpi.SearchQuery) (int, error)
	GetItem(ctx context.Context, entity string, id int, dst any) error
	GetSubItems(ctx context.Context, entity string, id int, sub string, dst any) error
}

// FieldSource yields the complete Ticket field mapping.
type FieldSource interface {
	Resolve(ctx context.Context) glpi.FieldMapping
}

// LevelMode selects how a level restricts a count.
type LevelMode string

const (
	LevelByHierarchy LevelMode = "hierarchy"
	LevelByGroup     LevelMode = "group"
)

// Selector restricts a count. Zero fields impose no restriction; set fields
// are AND-ed together.
type Selector struct {
	Level        domain.ServiceLevel
	GroupID      int
	TechnicianID int
}

// Window is the optional date restriction of a count.
type Window struct {
	Range *domain.DateRange
	Field domain.DateField
}

// TicketCounter counts tickets through the remote search API.
type TicketCounter struct {
	API    RemoteAPI
	Fields FieldSource

	Mode LevelMode
	// HierarchyField is the search field carrying the level label; empty
	// means the resolved GROUP field.
	HierarchyField string
	// LevelGroups maps each level to its remote group id (group mode).
	LevelGroups map[domain.ServiceLevel]int
}

// NewTicketCounter returns a counter in the given mode.
func NewTicketCounter(api RemoteAPI, fields FieldSource, mode LevelMode, hierarchyField string, groups [4]int) *TicketCounter {
	if mode == "" {
		mode = LevelByHierarchy
	}
	lg := make(map[domain.ServiceLevel]int, len(domain.Levels))
	for i, l := range domain.Levels {
		lg[l] = groups[i]
	}
	return &TicketCounter{API: api, Fields: fields, Mode: mode, HierarchyField: hierarchyField, LevelGroups: lg}
}

// CountTickets returns the number of tickets matching sel, status and w.
// StatusAny adds no status criterion.
func (c *TicketCounter) CountTickets(ctx context.Context, sel Selector, status domain.TicketStatus, w Window) (int, error) {
	m := c.Fields.Resolve(ctx)
	return c.API.Count(ctx, "Ticket", glpi.CountQuery(c.criteria(m, sel, status, w)...))
}

// CountBuckets fills the four derived buckets for sel. Failed counts read as
// zero; failed reports how many of the underlying counts failed.
func (c *TicketCounter) CountBuckets(ctx context.Context, sel Selector, w Window, only domain.Bucket) (counts domain.StatusCounts, failed int) {
	for _, b := range domain.Buckets {
		if only != "" && b != only {
			continue
		}
		for _, st := range b.Statuses() {
			n, ok := c.countOrZero(ctx, sel, st, w)
			if !ok {
				failed++
			}
			counts.Add(b, n)
		}
	}
	return counts, failed
}

// countOrZero is the adapter point where remote errors become zero counts.
func (c *TicketCounter) countOrZero(ctx context.Context, sel Selector, status domain.TicketStatus, w Window) (int, bool) {
	n, err := c.CountTickets(ctx, sel, status, w)
	if err == nil {
		return n, true
	}
	ev := log.Warn()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		ev = log.Debug()
	}
	ev.Err(err).
		Str("kind", glpi.KindOf(err).String()).
		Str("level", string(sel.Level)).
		Int("group_id", sel.GroupID).
		Int("technician_id", sel.TechnicianID).
		Int("status", int(status)).
		Msg("ticket count failed; reading as zero")
	return 0, false
}

func (c *TicketCounter) criteria(m glpi.FieldMapping, sel Selector, status domain.TicketStatus, w Window) []glpi.Criterion {
	var out []glpi.Criterion

	if sel.Level != "" {
		if c.Mode == LevelByGroup {
			out = append(out, glpi.Criterion{Field: m.Group, SearchType: glpi.Equals, Value: strconv.Itoa(c.LevelGroups[sel.Level])})
		} else {
			field := c.HierarchyField
			if field == "" {
				field = m.Group
			}
			out = append(out, glpi.Criterion{Field: field, SearchType: glpi.Contains, Value: string(sel.Level)})
		}
	}
	if sel.GroupID > 0 {
		out = append(out, glpi.Criterion{Field: m.Group, SearchType: glpi.Equals, Value: strconv.Itoa(sel.GroupID)})
	}
	if sel.TechnicianID > 0 {
		out = append(out, glpi.Criterion{Field: m.Tech, SearchType: glpi.Equals, Value: strconv.Itoa(sel.TechnicianID)})
	}
	if status != domain.StatusAny {
		out = append(out, glpi.Criterion{Field: m.Status, SearchType: glpi.Equals, Value: strconv.Itoa(int(status))})
	}
	if w.Range != nil {
		field := m.DateCreation
		if w.Field == domain.DateModification {
			field = m.DateMod
		}
		out = append(out,
			glpi.Criterion{Field: field, SearchType: glpi.MoreThan, Value: w.Range.Start.Format(domain.DateLayout) + " 00:00:00"},
			glpi.Criterion{Field: field, SearchType: glpi.LessThan, Value: w.Range.End.Format(domain.DateLayout) + " 23:59:59"},
		)
	}
	return out
}

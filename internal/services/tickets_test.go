package services

import (
	"context"
	"reflect"
	"testing"

	"github.com/tbourn/glpi-dashboard-backend/internal/domain"
	"github.com/tbourn/glpi-dashboard-backend/internal/glpi"
)

func TestTicketCounter_Criteria(t *testing.T) {
	var m glpi.FieldMapping
	m.ApplyFallbacks()
	rng := mustRange("2025-01-01", "2025-01-31")

	hier := NewTicketCounter(nil, fixedFields{}, LevelByHierarchy, "", [4]int{89, 90, 91, 92})
	hierCustom := NewTicketCounter(nil, fixedFields{}, LevelByHierarchy, "80", [4]int{89, 90, 91, 92})
	group := NewTicketCounter(nil, fixedFields{}, LevelByGroup, "", [4]int{89, 90, 91, 92})

	tests := []struct {
		name   string
		c      *TicketCounter
		sel    Selector
		status domain.TicketStatus
		w      Window
		want   []glpi.Criterion
	}{
		{
			name:   "status only",
			c:      hier,
			status: domain.StatusNew,
			want:   []glpi.Criterion{{Field: "12", SearchType: glpi.Equals, Value: "1"}},
		},
		{
			name:   "any status adds nothing",
			c:      hier,
			status: domain.StatusAny,
		},
		{
			name:   "hierarchy level on group field",
			c:      hier,
			sel:    Selector{Level: domain.LevelN2},
			status: domain.StatusPending,
			want: []glpi.Criterion{
				{Field: "8", SearchType: glpi.Contains, Value: "N2"},
				{Field: "12", SearchType: glpi.Equals, Value: "4"},
			},
		},
		{
			name: "hierarchy level on configured field",
			c:    hierCustom,
			sel:  Selector{Level: domain.LevelN1},
			want: []glpi.Criterion{{Field: "80", SearchType: glpi.Contains, Value: "N1"}},
		},
		{
			name: "group mode uses level group id",
			c:    group,
			sel:  Selector{Level: domain.LevelN3},
			want: []glpi.Criterion{{Field: "8", SearchType: glpi.Equals, Value: "91"}},
		},
		{
			name:   "technician and creation window",
			c:      hier,
			sel:    Selector{TechnicianID: 7},
			status: domain.StatusSolved,
			w:      Window{Range: rng, Field: domain.DateCreation},
			want: []glpi.Criterion{
				{Field: "5", SearchType: glpi.Equals, Value: "7"},
				{Field: "12", SearchType: glpi.Equals, Value: "5"},
				{Field: "15", SearchType: glpi.MoreThan, Value: "2025-01-01 00:00:00"},
				{Field: "15", SearchType: glpi.LessThan, Value: "2025-01-31 23:59:59"},
			},
		},
		{
			name: "modification window",
			c:    hier,
			sel:  Selector{GroupID: 33},
			w:    Window{Range: rng, Field: domain.DateModification},
			want: []glpi.Criterion{
				{Field: "8", SearchType: glpi.Equals, Value: "33"},
				{Field: "19", SearchType: glpi.MoreThan, Value: "2025-01-01 00:00:00"},
				{Field: "19", SearchType: glpi.LessThan, Value: "2025-01-31 23:59:59"},
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.c.criteria(m, tc.sel, tc.status, tc.w)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("criteria:\nwant %+v\ngot  %+v", tc.want, got)
			}
		})
	}
}

func TestCountBuckets_SumsSubStatuses(t *testing.T) {
	api := newFakeRemote()
	api.countFn = func(q glpi.SearchQuery) (int, error) {
		return int(statusOf(q)) * 10, nil
	}
	counts, failed := newCounter(api).CountBuckets(context.Background(), Selector{}, Window{}, "")
	if failed != 0 {
		t.Fatalf("failed: %d", failed)
	}
	want := domain.StatusCounts{New: 10, Pending: 40, InProgress: 20 + 30, Resolved: 50 + 60, Total: 210}
	if counts != want {
		t.Fatalf("want %+v got %+v", want, counts)
	}
}

func TestCountBuckets_FailuresReadAsZero(t *testing.T) {
	api := newFakeRemote()
	api.countFn = func(q glpi.SearchQuery) (int, error) {
		if statusOf(q) == domain.StatusClosed {
			return 0, errRemote
		}
		return 1, nil
	}
	counts, failed := newCounter(api).CountBuckets(context.Background(), Selector{}, Window{}, "")
	if failed != 1 {
		t.Fatalf("failed: want 1 got %d", failed)
	}
	if counts.Resolved != 1 || counts.Total != 5 {
		t.Fatalf("unexpected counts %+v", counts)
	}
}

func TestCountBuckets_OnlyOneBucket(t *testing.T) {
	api := newFakeRemote()
	api.countFn = func(glpi.SearchQuery) (int, error) { return 3, nil }
	counts, _ := newCounter(api).CountBuckets(context.Background(), Selector{}, Window{}, domain.BucketInProgress)
	if counts.InProgress != 6 || counts.Total != 6 || counts.New != 0 {
		t.Fatalf("unexpected counts %+v", counts)
	}
	if n := api.counts.Load(); n != 2 {
		t.Fatalf("remote counts: want 2 got %d", n)
	}
}

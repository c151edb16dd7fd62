package services

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tbourn/glpi-dashboard-backend/internal/cache"
	"github.com/tbourn/glpi-dashboard-backend/internal/domain"
	"github.com/tbourn/glpi-dashboard-backend/internal/glpi"
)

// ---------- test helpers ----------

var errRemote = &glpi.Error{Kind: glpi.KindTransient, Op: "test", Err: errors.New("connection refused")}

// fixedFields always yields the fallback mapping (STATUS=12, GROUP=8, TECH=5).
type fixedFields struct{}

func (fixedFields) Resolve(context.Context) glpi.FieldMapping {
	var m glpi.FieldMapping
	m.ApplyFallbacks()
	return m
}

// fakeRemote emulates the GLPI operations used by the services.
type fakeRemote struct {
	countFn func(q glpi.SearchQuery) (int, error)
	counts  atomic.Int64

	mu           sync.Mutex
	profileUsers []int
	profileErr   error
	users        map[int]map[string]any
	userErr      map[int]error
	groups       map[int][]int
	queries      []glpi.SearchQuery
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		users:   map[int]map[string]any{},
		userErr: map[int]error{},
		groups:  map[int][]int{},
	}
}

func (f *fakeRemote) Count(_ context.Context, entity string, q glpi.SearchQuery) (int, error) {
	f.counts.Add(1)
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()
	if entity != "Ticket" {
		return 0, errors.New("unexpected entity " + entity)
	}
	if f.countFn == nil {
		return 0, nil
	}
	return f.countFn(q)
}

func (f *fakeRemote) GetItem(_ context.Context, entity string, id int, dst any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.userErr[id]; err != nil {
		return err
	}
	u, ok := f.users[id]
	if !ok || entity != "User" {
		return &glpi.Error{Kind: glpi.KindRemote, Op: entity + "/" + strconv.Itoa(id), Status: 404, Err: errors.New("not found")}
	}
	return roundTrip(u, dst)
}

func (f *fakeRemote) GetSubItems(_ context.Context, entity string, id int, sub string, dst any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var rows []map[string]any
	switch entity + "/" + sub {
	case "Profile/Profile_User":
		if f.profileErr != nil {
			return f.profileErr
		}
		for _, u := range f.profileUsers {
			rows = append(rows, map[string]any{"users_id": u, "profiles_id": id})
		}
	case "User/Group_User":
		for _, g := range f.groups[id] {
			rows = append(rows, map[string]any{"users_id": id, "groups_id": g})
		}
	default:
		return errors.New("unexpected sub-items " + entity + "/" + sub)
	}
	return roundTrip(rows, dst)
}

func (f *fakeRemote) addUser(id int, first, last string) {
	f.users[id] = map[string]any{
		"id": id, "name": "user" + strconv.Itoa(id),
		"firstname": first, "realname": last,
		"is_active": 1, "is_deleted": 0,
	}
	f.profileUsers = append(f.profileUsers, id)
}

func roundTrip(src, dst any) error {
	b, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}

// criterion returns the value of the first criterion on field with the given
// search type.
func criterion(q glpi.SearchQuery, field string, st glpi.SearchType) (string, bool) {
	for _, c := range q.Criteria {
		if c.Field == field && c.SearchType == st {
			return c.Value, true
		}
	}
	return "", false
}

func statusOf(q glpi.SearchQuery) domain.TicketStatus {
	v, _ := criterion(q, glpi.FallbackStatusField, glpi.Equals)
	n, _ := strconv.Atoi(v)
	return domain.TicketStatus(n)
}

func techOf(q glpi.SearchQuery) int {
	v, _ := criterion(q, glpi.FallbackTechField, glpi.Equals)
	n, _ := strconv.Atoi(v)
	return n
}

func levelOf(q glpi.SearchQuery) string {
	v, _ := criterion(q, glpi.FallbackGroupField, glpi.Contains)
	return v
}

func newCounter(api RemoteAPI) *TicketCounter {
	return NewTicketCounter(api, fixedFields{}, LevelByHierarchy, "", [4]int{89, 90, 91, 92})
}

func mustRange(start, end string) *domain.DateRange {
	r, err := ParseDateRange(start, end)
	if err != nil {
		panic(err)
	}
	return r
}

func fixedNow() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }

func newTestCache() *cache.TTLCache { return cache.New() }

package glpi

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/glpi-dashboard-backend/internal/cache"
)

// ----- Fake schema lister -----

type fakeLister struct {
	opts  map[string]SearchOption
	err   error
	calls int
}

func (f *fakeLister) ListSearchOptions(ctx context.Context, entity string) (map[string]SearchOption, error) {
	f.calls++
	return f.opts, f.err
}

func stdSchema() map[string]SearchOption {
	return map[string]SearchOption{
		"1":  {Name: "Title"},
		"5":  {Name: "Technician"},
		"8":  {Name: "Technician group"},
		"12": {Name: "Status"},
		"15": {Name: "Opening date"},
	}
}

// ----- Tests -----

func TestDiscover_MatchesSynonyms(t *testing.T) {
	opts := map[string]SearchOption{
		"3":   {Name: "  STATUT "},
		"71":  {Name: "Técnico"},
		"80":  {Name: "Grupo técnico"},
		"200": {Name: "Technician group - extra"},
	}
	m := Discover(opts)
	if m.Status != "3" || m.Tech != "71" || m.Group != "80" {
		t.Fatalf("mapping = %+v", m)
	}
}

func TestDiscover_SynonymOrderAndLowestID(t *testing.T) {
	opts := map[string]SearchOption{
		"40": {Name: "Assigned to"},
		"90": {Name: "Technician"},
		"95": {Name: "Technician"},
	}
	m := Discover(opts)
	if m.Tech != "90" {
		t.Fatalf("Tech = %q, want 90 (first synonym, lowest id)", m.Tech)
	}
}

func TestResolve_AllFallbacksWhenListingFails(t *testing.T) {
	r := NewFieldResolver(&fakeLister{err: errors.New("down")}, cache.New(), time.Hour)
	m := r.Resolve(context.Background())

	want := map[string]string{
		FieldStatus:       FallbackStatusField,
		FieldGroup:        FallbackGroupField,
		FieldTech:         FallbackTechField,
		FieldDateCreation: DateCreationField,
		FieldDateMod:      DateModField,
	}
	for k, v := range want {
		if got := m.AsMap()[k]; got != v {
			t.Errorf("%s = %q; want %q", k, got, v)
		}
	}
	if len(m.Fallbacks) != 3 {
		t.Fatalf("fallbacks = %v", m.Fallbacks)
	}
}

func TestResolve_MissingTechnicianUsesFallback(t *testing.T) {
	opts := stdSchema()
	delete(opts, "5")
	opts["5"] = SearchOption{Name: "Requester"}

	r := NewFieldResolver(&fakeLister{opts: opts}, cache.New(), time.Hour)
	m := r.Resolve(context.Background())
	if m.Tech != "5" {
		t.Fatalf("Tech = %q, want fallback 5", m.Tech)
	}
	if len(m.Fallbacks) != 1 || m.Fallbacks[0] != FieldTech {
		t.Fatalf("fallbacks = %v", m.Fallbacks)
	}
	if !m.Complete() {
		t.Fatal("mapping must be complete")
	}
}

func TestResolve_DateCreationIsFixed(t *testing.T) {
	opts := stdSchema()
	opts["99"] = SearchOption{Name: "Opening date"}
	r := NewFieldResolver(&fakeLister{opts: opts}, cache.New(), time.Hour)
	if m := r.Resolve(context.Background()); m.DateCreation != "15" || m.DateMod != "19" {
		t.Fatalf("dates = %q/%q", m.DateCreation, m.DateMod)
	}
}

func TestResolve_CachesDiscoveredMapping(t *testing.T) {
	lister := &fakeLister{opts: stdSchema()}
	r := NewFieldResolver(lister, cache.New(), time.Hour)

	for i := 0; i < 3; i++ {
		m := r.Resolve(context.Background())
		if m.Tech != "5" || m.Group != "8" || m.Status != "12" || len(m.Fallbacks) != 0 {
			t.Fatalf("mapping = %+v", m)
		}
	}
	if lister.calls != 1 {
		t.Fatalf("ListSearchOptions calls = %d, want 1", lister.calls)
	}
}

func TestResolve_FallbackMappingExpiresSooner(t *testing.T) {
	now := time.Unix(0, 0)
	c := cache.New(cache.WithClock(func() time.Time { return now }))
	lister := &fakeLister{err: errors.New("down")}
	r := NewFieldResolver(lister, c, time.Hour)
	r.FallbackTTL = time.Minute

	r.Resolve(context.Background())
	now = now.Add(30 * time.Second)
	r.Resolve(context.Background())
	if lister.calls != 1 {
		t.Fatalf("calls = %d, want 1 within fallback ttl", lister.calls)
	}

	lister.err, lister.opts = nil, stdSchema()
	now = now.Add(31 * time.Second)
	if m := r.Resolve(context.Background()); len(m.Fallbacks) != 0 {
		t.Fatalf("expected rediscovery, got fallbacks %v", m.Fallbacks)
	}
	if lister.calls != 2 {
		t.Fatalf("calls = %d, want 2", lister.calls)
	}
}

func TestResolve_CorruptCacheSlotIsIgnored(t *testing.T) {
	c := cache.New()
	c.Set(fieldsCacheKey, "garbage", time.Hour, fieldsEntity)
	r := NewFieldResolver(&fakeLister{opts: stdSchema()}, c, time.Hour)

	if m := r.Resolve(context.Background()); !m.Complete() || m.Tech != "5" {
		t.Fatalf("mapping = %+v", m)
	}
}

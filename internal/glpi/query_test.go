package glpi

import (
	"net/http"
	"testing"
)

func TestSearchQuery_Values(t *testing.T) {
	q := SearchQuery{
		Criteria: []Criterion{
			{Field: "12", SearchType: Equals, Value: "1"},
			{Field: "15", SearchType: MoreThan, Value: "2024-01-01 00:00:00"},
			{Field: "15", SearchType: LessThan, Value: "2024-01-31 23:59:59", Link: "OR"},
		},
		ForceDisplay: []string{"2", "5"},
		RangeStart:   10,
		RangeEnd:     19,
		Sort:         "2",
		Order:        "DESC",
	}
	v := q.Values()

	want := map[string]string{
		"range":                   "10-19",
		"is_deleted":              "0",
		"criteria[0][field]":      "12",
		"criteria[0][searchtype]": "equals",
		"criteria[0][value]":      "1",
		"criteria[1][link]":       "AND",
		"criteria[1][searchtype]": "morethan",
		"criteria[2][link]":       "OR",
		"criteria[2][value]":      "2024-01-31 23:59:59",
		"forcedisplay[0]":         "2",
		"forcedisplay[1]":         "5",
		"sort":                    "2",
		"order":                   "DESC",
	}
	for k, w := range want {
		if got := v.Get(k); got != w {
			t.Errorf("%s = %q; want %q", k, got, w)
		}
	}
	if v.Has("criteria[0][link]") {
		t.Error("first criterion must not carry a link")
	}
}

func TestCountQuery_DefaultsToRangeZero(t *testing.T) {
	v := CountQuery(Criterion{Field: "12", SearchType: Equals, Value: "4"}).Values()
	if v.Get("range") != "0-0" || v.Get("is_deleted") != "0" {
		t.Fatalf("values = %v", v)
	}
}

func TestParseTotal(t *testing.T) {
	header := func(cr string) http.Header {
		h := http.Header{}
		if cr != "" {
			h.Set("Content-Range", cr)
		}
		return h
	}
	tests := []struct {
		name   string
		header http.Header
		body   string
		want   int
		ok     bool
	}{
		{"header", header("0-0/217"), `{}`, 217, true},
		{"header with unit", header("items 0-0/48"), ``, 48, true},
		{"header wins over body", header("0-0/3"), `{"totalcount":9}`, 3, true},
		{"body totalcount", header(""), `{"totalcount":10,"count":1}`, 10, true},
		{"body totalcount string", header(""), `{"totalcount":"12"}`, 12, true},
		{"body content-range", header(""), `{"content-range":"0-0/5"}`, 5, true},
		{"malformed header falls back to body", header("garbage"), `{"totalcount":2}`, 2, true},
		{"nothing", header(""), `{"data":[]}`, 0, false},
		{"not json", header(""), `<html>`, 0, false},
		{"array body", header(""), `["ERROR","x"]`, 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := parseTotal(tc.header, []byte(tc.body))
			if got != tc.want || ok != tc.ok {
				t.Fatalf("parseTotal = (%d,%v); want (%d,%v)", got, ok, tc.want, tc.ok)
			}
		})
	}
}

package glpi

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

func TestNew_ConfigurationError(t *testing.T) {
	_, err := New(Config{BaseURL: "http://glpi.local"})
	if !IsKind(err, KindConfiguration) {
		t.Fatalf("want configuration error, got %v", err)
	}
}

func TestCount(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    int
		wantErr Kind
	}{
		{
			name: "content-range header",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Range", "0-0/217")
				writeJSON(w, http.StatusPartialContent, map[string]any{"totalcount": 217, "data": []any{}})
			},
			want: 217,
		},
		{
			name: "body totalcount",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, map[string]any{"totalcount": 48})
			},
			want: 48,
		},
		{
			name: "no total reads as zero",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, map[string]any{"data": []any{}})
			},
			want: 0,
		},
		{
			name: "business error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusBadRequest, []string{"ERROR_RANGE_EXCEED_TOTAL", "range exceeds"})
			},
			wantErr: KindRemote,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFakeGLPI(t)
			f.setHandler(tc.handler)
			c := newTestClient(t, f)

			q := SearchQuery{Criteria: []Criterion{{Field: "12", SearchType: Equals, Value: "1"}}, RangeEnd: 50}
			got, err := c.Count(context.Background(), "Ticket", q)
			if tc.wantErr != 0 {
				if !IsKind(err, tc.wantErr) {
					t.Fatalf("err = %v, want kind %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Count: %v", err)
			}
			if got != tc.want {
				t.Fatalf("Count = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestCount_ForcesRangeZero(t *testing.T) {
	f := newFakeGLPI(t)
	var gotRange, gotPath string
	f.setHandler(func(w http.ResponseWriter, r *http.Request) {
		gotRange = r.URL.Query().Get("range")
		gotPath = r.URL.Path
		writeJSON(w, http.StatusOK, map[string]any{"totalcount": 1})
	})
	c := newTestClient(t, f)

	if _, err := c.Count(context.Background(), "Ticket", SearchQuery{RangeStart: 5, RangeEnd: 9}); err != nil {
		t.Fatalf("Count: %v", err)
	}
	if gotRange != "0-0" || gotPath != "/search/Ticket" {
		t.Fatalf("range=%q path=%q", gotRange, gotPath)
	}
}

func TestSearch_DecodesRows(t *testing.T) {
	f := newFakeGLPI(t)
	f.setHandler(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Range", "0-1/2")
		writeJSON(w, http.StatusPartialContent, map[string]any{
			"totalcount": 2,
			"count":      2,
			"data": []map[string]any{
				{"2": 10, "5": 7},
				{"2": 11, "5": 8},
			},
		})
	})
	c := newTestClient(t, f)

	res, err := c.Search(context.Background(), "Ticket", SearchQuery{ForceDisplay: []string{"2", "5"}, RangeEnd: 1})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.TotalCount != 2 || len(res.Data) != 2 || string(res.Data[1]["5"]) != "8" {
		t.Fatalf("result = %+v", res)
	}
}

func TestGetItemAndSubItems(t *testing.T) {
	f := newFakeGLPI(t)
	f.setHandler(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/User/7":
			writeJSON(w, http.StatusOK, map[string]any{"id": 7, "name": "jdoe", "realname": "Doe", "firstname": "Jane"})
		case "/User/7/Group_User":
			writeJSON(w, http.StatusOK, []map[string]any{{"groups_id": 89}, {"groups_id": 3}})
		default:
			writeJSON(w, http.StatusNotFound, []string{"ERROR_ITEM_NOT_FOUND", "not found"})
		}
	})
	c := newTestClient(t, f)
	ctx := context.Background()

	var user struct {
		ID        int    `json:"id"`
		Firstname string `json:"firstname"`
	}
	if err := c.GetItem(ctx, "User", 7, &user); err != nil || user.Firstname != "Jane" {
		t.Fatalf("GetItem = %+v, %v", user, err)
	}

	var groups []struct {
		GroupsID int `json:"groups_id"`
	}
	if err := c.GetSubItems(ctx, "User", 7, "Group_User", &groups); err != nil || len(groups) != 2 {
		t.Fatalf("GetSubItems = %+v, %v", groups, err)
	}

	err := c.GetItem(ctx, "User", 8, &user)
	if !IsKind(err, KindRemote) {
		t.Fatalf("missing user: err = %v", err)
	}
	var ge *Error
	if !errors.As(err, &ge) || ge.Status != http.StatusNotFound {
		t.Fatalf("status not carried: %v", err)
	}
}

func TestGetItem_MalformedJSON(t *testing.T) {
	f := newFakeGLPI(t)
	f.setHandler(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html>oops</html>"))
	})
	c := newTestClient(t, f)

	var v map[string]any
	if err := c.GetItem(context.Background(), "User", 1, &v); !IsKind(err, KindDataFormat) {
		t.Fatalf("err = %v, want data format", err)
	}
}

func TestListSearchOptions_SkipsSectionHeaders(t *testing.T) {
	f := newFakeGLPI(t)
	f.setHandler(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"common": "Characteristics",
			"1":      map[string]any{"name": "Title", "table": "glpi_tickets", "field": "name"},
			"12":     map[string]any{"name": "Status", "table": "glpi_tickets", "field": "status"},
		})
	})
	c := newTestClient(t, f)

	opts, err := c.ListSearchOptions(context.Background(), "Ticket")
	if err != nil {
		t.Fatalf("ListSearchOptions: %v", err)
	}
	if len(opts) != 2 || opts["12"].Name != "Status" {
		t.Fatalf("opts = %+v", opts)
	}
}

func TestPing(t *testing.T) {
	f := newFakeGLPI(t)
	f.setHandler(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"session": map[string]any{"glpiID": 2}})
	})
	c := newTestClient(t, f)

	resp, err := c.Ping(context.Background())
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("Ping = %v, %v", resp, err)
	}
	if f.count("/getFullSession") != 1 {
		t.Fatal("getFullSession not called")
	}
}

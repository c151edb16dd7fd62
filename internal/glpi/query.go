package glpi

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// SearchType is a GLPI search criterion operator.
type SearchType string

const (
	Equals   SearchType = "equals"
	Contains SearchType = "contains"
	MoreThan SearchType = "morethan"
	LessThan SearchType = "lessthan"
)

// Criterion is one criteria[i] entry of a search request. Link defaults to
// AND for every criterion after the first.
type Criterion struct {
	Field      string
	SearchType SearchType
	Value      string
	Link       string
}

// SearchQuery is a GET search/{Entity} request.
type SearchQuery struct {
	Criteria     []Criterion
	ForceDisplay []string
	RangeStart   int
	RangeEnd     int
	Deleted      bool
	Sort         string
	Order        string // ASC|DESC
}

// CountQuery returns a range 0-0 query, used to read only the total.
func CountQuery(criteria ...Criterion) SearchQuery {
	return SearchQuery{Criteria: criteria}
}

// Values encodes q as GLPI query parameters.
func (q SearchQuery) Values() url.Values {
	v := url.Values{}
	v.Set("range", strconv.Itoa(q.RangeStart)+"-"+strconv.Itoa(q.RangeEnd))
	if q.Deleted {
		v.Set("is_deleted", "1")
	} else {
		v.Set("is_deleted", "0")
	}
	for i, c := range q.Criteria {
		p := "criteria[" + strconv.Itoa(i) + "]"
		if i > 0 {
			link := c.Link
			if link == "" {
				link = "AND"
			}
			v.Set(p+"[link]", link)
		}
		v.Set(p+"[field]", c.Field)
		v.Set(p+"[searchtype]", string(c.SearchType))
		v.Set(p+"[value]", c.Value)
	}
	for j, f := range q.ForceDisplay {
		v.Set("forcedisplay["+strconv.Itoa(j)+"]", f)
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.Order != "" {
		v.Set("order", q.Order)
	}
	return v
}

// parseTotal reads the total match count from a search response: the
// Content-Range header ("0-0/123", optionally prefixed with "items ") first,
// then totalcount or content-range in the JSON body.
func parseTotal(h http.Header, body []byte) (int, bool) {
	if n, ok := parseContentRange(h.Get("Content-Range")); ok {
		return n, true
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, false
	}
	if raw, ok := payload["totalcount"]; ok {
		if n, ok := rawInt(raw); ok {
			return n, true
		}
	}
	if raw, ok := payload["content-range"]; ok {
		var s string
		if json.Unmarshal(raw, &s) == nil {
			return parseContentRange(s)
		}
	}
	return 0, false
}

func parseContentRange(s string) (int, bool) {
	s = strings.TrimSpace(s)
	i := strings.LastIndexByte(s, '/')
	if i < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(s[i+1:]))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// rawInt accepts 12 and "12".
func rawInt(raw json.RawMessage) (int, bool) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if v, err := n.Int64(); err == nil && v >= 0 {
			return int(v), true
		}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && v >= 0 {
			return v, true
		}
	}
	return 0, false
}

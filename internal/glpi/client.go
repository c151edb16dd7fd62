package glpi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client offers typed GLPI operations on top of an Executor.
type Client struct {
	exec *Executor
}

// New validates cfg and returns a ready Client. Only configuration problems
// fail here; connectivity is checked lazily.
func New(cfg Config) (*Client, error) {
	s, err := NewSessionManager(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{exec: NewExecutor(s)}, nil
}

// NewClient wraps an existing Executor.
func NewClient(e *Executor) *Client { return &Client{exec: e} }

// Session returns the shared session manager.
func (c *Client) Session() *SessionManager { return c.exec.session }

// EnsureAuthenticated is SessionManager.EnsureAuthenticated.
func (c *Client) EnsureAuthenticated(ctx context.Context) bool {
	return c.exec.session.EnsureAuthenticated(ctx)
}

// SessionState returns the session state and the time of the last
// successful authentication (zero if none).
func (c *Client) SessionState() (State, time.Time) {
	return c.exec.session.State(), c.exec.session.LastAuthAt()
}

// Logout is SessionManager.Logout.
func (c *Client) Logout(ctx context.Context) error {
	return c.exec.session.Logout(ctx)
}

// Count returns the number of entity records matching q. The range of q is
// forced to 0-0. A successful response without a readable total counts as 0.
func (c *Client) Count(ctx context.Context, entity string, q SearchQuery) (int, error) {
	q.RangeStart, q.RangeEnd = 0, 0
	op := "search/" + entity
	resp, err := c.exec.Execute(ctx, http.MethodGet, op, q.Values())
	if err != nil {
		return 0, err
	}
	if !resp.Success() {
		return 0, &Error{Kind: KindRemote, Op: op, Status: resp.StatusCode, Err: remoteMessage(resp.Body)}
	}
	n, ok := parseTotal(resp.Header, resp.Body)
	if !ok {
		return 0, nil
	}
	return n, nil
}

// SearchResult is the decoded body of a search request. Row keys are the
// field ids requested through forcedisplay.
type SearchResult struct {
	TotalCount int                          `json:"totalcount"`
	Count      int                          `json:"count"`
	Data       []map[string]json.RawMessage `json:"data"`
}

// Search runs q and decodes the rows.
func (c *Client) Search(ctx context.Context, entity string, q SearchQuery) (*SearchResult, error) {
	op := "search/" + entity
	resp, err := c.exec.Execute(ctx, http.MethodGet, op, q.Values())
	if err != nil {
		return nil, err
	}
	if !resp.Success() {
		return nil, &Error{Kind: KindRemote, Op: op, Status: resp.StatusCode, Err: remoteMessage(resp.Body)}
	}
	var out SearchResult
	if err := resp.Decode(op, &out); err != nil {
		return nil, err
	}
	if n, ok := parseTotal(resp.Header, resp.Body); ok {
		out.TotalCount = n
	}
	return &out, nil
}

// GetItem decodes {Entity}/{id} into dst.
func (c *Client) GetItem(ctx context.Context, entity string, id int, dst any) error {
	return c.getJSON(ctx, entity+"/"+strconv.Itoa(id), dst, nil)
}

// subItemsRange overrides GLPI's default page of 50 sub-items.
const subItemsRange = "0-9999"

// GetSubItems decodes {Entity}/{id}/{sub} into dst (usually a slice).
func (c *Client) GetSubItems(ctx context.Context, entity string, id int, sub string, dst any) error {
	return c.getJSON(ctx, entity+"/"+strconv.Itoa(id)+"/"+sub, dst, url.Values{"range": {subItemsRange}})
}

// SearchOption is one entry of listSearchOptions.
type SearchOption struct {
	Name     string `json:"name"`
	Table    string `json:"table"`
	Field    string `json:"field"`
	DataType string `json:"datatype"`
}

// ListSearchOptions returns the schema listing of entity keyed by field id.
// Section headers (plain strings in GLPI's payload) are skipped.
func (c *Client) ListSearchOptions(ctx context.Context, entity string) (map[string]SearchOption, error) {
	var raw map[string]json.RawMessage
	if err := c.getJSON(ctx, "listSearchOptions/"+entity, &raw, nil); err != nil {
		return nil, err
	}
	out := make(map[string]SearchOption, len(raw))
	for id, msg := range raw {
		if len(msg) == 0 || msg[0] != '{' {
			continue
		}
		var opt SearchOption
		if err := json.Unmarshal(msg, &opt); err != nil {
			continue
		}
		out[id] = opt
	}
	if len(out) == 0 {
		return nil, &Error{Kind: KindDataFormat, Op: "listSearchOptions/" + entity, Err: errors.New("no field descriptors")}
	}
	return out, nil
}

// Ping calls getFullSession and reports the round-trip time.
func (c *Client) Ping(ctx context.Context) (*Response, error) {
	resp, err := c.exec.Execute(ctx, http.MethodGet, "getFullSession", nil)
	if err != nil {
		return nil, err
	}
	if !resp.Success() {
		return resp, &Error{Kind: KindRemote, Op: "getFullSession", Status: resp.StatusCode, Err: remoteMessage(resp.Body)}
	}
	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, path string, dst any, params url.Values) error {
	resp, err := c.exec.Execute(ctx, http.MethodGet, path, params)
	if err != nil {
		return err
	}
	if !resp.Success() {
		return &Error{Kind: KindRemote, Op: path, Status: resp.StatusCode, Err: remoteMessage(resp.Body)}
	}
	return resp.Decode(path, dst)
}

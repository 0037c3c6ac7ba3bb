// Package postgrest reads observation views through a Supabase PostgREST
// gateway.
package postgrest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"regioniq/internal/store"
	"regioniq/pkg/platform/sentinel"
)

const (
	defaultTimeout = 15 * time.Second
	maxErrorBody   = 512
	orderClause    = "metric_id.asc,region_code.asc,period.asc"
)

// Client is a PostgREST table reader. It holds no per-request state and is
// safe for concurrent use.
type Client struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
	timeout    time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-page fetch timeout. It bounds each Fetch through
// its context and leaves the HTTP client untouched.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// New builds a client for the project at baseURL.
func New(baseURL, anonKey string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	anonKey = strings.TrimSpace(anonKey)
	if baseURL == "" || anonKey == "" {
		return nil, fmt.Errorf("SUPABASE_URL and SUPABASE_ANON_KEY must be set for Supabase REST access: %w", sentinel.ErrNotConfigured)
	}
	c := &Client{
		baseURL:    baseURL,
		anonKey:    anonKey,
		httpClient: http.DefaultClient,
		timeout:    defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Fetch reads one page from req.Table.
func (c *Client) Fetch(ctx context.Context, req store.FetchRequest) ([]store.Row, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL + "/rest/v1/" + url.PathEscape(req.Table) + "?" + Query(req).Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("apikey", c.anonKey)
	httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("supabase REST request: %w: %w", err, sentinel.ErrUnavailable)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read supabase REST response: %w: %w", err, sentinel.ErrUnavailable)
	}
	return parseRows(resp.StatusCode, body)
}

func parseRows(status int, body []byte) ([]store.Row, error) {
	if status >= 400 {
		text := string(body)
		if len(text) > maxErrorBody {
			text = text[:maxErrorBody]
		}
		kind := sentinel.ErrUnavailable
		if status < 500 {
			kind = sentinel.ErrRejected
		}
		return nil, fmt.Errorf("Supabase REST error %d: %s: %w", status, text, kind)
	}
	var rows []store.Row
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode supabase rows: %w: %w", err, sentinel.ErrBadResponse)
	}
	return rows, nil
}

// Query renders req as PostgREST filter parameters.
func Query(req store.FetchRequest) url.Values {
	q := url.Values{}
	q.Set("select", strings.Join(store.Columns, ","))
	q.Set("region_code", inList(req.Regions))
	q.Set("metric_id", inList(req.Metrics))
	if len(req.Periods) > 0 {
		periods := make([]string, len(req.Periods))
		for i, p := range req.Periods {
			periods[i] = strconv.Itoa(p)
		}
		q.Set("period", inList(periods))
	} else {
		q.Add("period", "gte."+strconv.Itoa(req.PeriodFrom))
		q.Add("period", "lte."+strconv.Itoa(req.PeriodTo))
	}
	if len(req.DataTypes) > 0 {
		q.Set("data_type", inList(req.DataTypes))
	}
	q.Set("order", orderClause)
	q.Set("offset", strconv.Itoa(req.Offset))
	q.Set("limit", strconv.Itoa(req.Limit))
	return q
}

func inList(values []string) string {
	return "in.(" + strings.Join(values, ",") + ")"
}

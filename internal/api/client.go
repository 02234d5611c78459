// Package api is the REST client for a Tatami server.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/abelbrown/tatami/internal/feed"
	"github.com/abelbrown/tatami/internal/logging"
	"github.com/abelbrown/tatami/internal/status"
)

const (
	restPrefix       = "/tatami/rest"
	defaultUserAgent = "tatami-tui/1.0"
	maxBody          = 10 << 20
	snippetLen       = 200
)

// Options configures a Client. BaseURL is required.
type Options struct {
	BaseURL           string
	Token             string
	RequestsPerSecond float64 // 0 means 5
	Timeout           time.Duration
	HTTPClient        *http.Client
	UserAgent         string
}

// Client talks to one Tatami server.
type Client struct {
	base      *url.URL
	token     string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
}

// New validates opts and builds a client.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("api: parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("api: base url %q is not absolute", opts.BaseURL)
	}

	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}

	return &Client{
		base:      base,
		token:     opts.Token,
		userAgent: ua,
		client:    hc,
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
	}, nil
}

// Services wires every timeline kind and the per-status calls to c.
func (c *Client) Services() feed.Services {
	fetch := feed.FetcherFunc(c.Timeline)
	return feed.Services{
		Timelines: map[feed.Kind]feed.Fetcher{
			feed.KindHome:     fetch,
			feed.KindMentions: fetch,
			feed.KindCompany:  fetch,
			feed.KindTag:      fetch,
			feed.KindGroup:    fetch,
			feed.KindProfile:  fetch,
		},
		Statuses: c,
	}
}

// Timeline reads one page of the timeline q.Filter selects.
func (c *Client) Timeline(ctx context.Context, q feed.Query) ([]status.Status, error) {
	path, err := timelinePath(q.Filter)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	switch q.Direction {
	case feed.DirSince:
		params.Set("start", string(q.Cursor))
	case feed.DirBefore:
		params.Set("finish", string(q.Cursor))
	}
	if q.Count > 0 {
		params.Set("count", strconv.Itoa(q.Count))
	}

	var out []status.Status
	if err := c.do(ctx, http.MethodGet, path, params, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func timelinePath(f feed.Filter) (string, error) {
	switch f.Kind {
	case feed.KindHome:
		return "/statuses/home_timeline", nil
	case feed.KindMentions:
		return "/mentions", nil
	case feed.KindCompany:
		return "/company", nil
	case feed.KindTag:
		return "/tags/" + url.PathEscape(f.Tag) + "/tag_timeline", nil
	case feed.KindGroup:
		return "/groups/" + url.PathEscape(f.GroupID) + "/timeline", nil
	case feed.KindProfile:
		return "/statuses/" + url.PathEscape(f.Username) + "/timeline", nil
	}
	return "", &feed.NoEndpointError{Kind: f.Kind}
}

// Update applies patch to status id and returns the server's copy.
func (c *Client) Update(ctx context.Context, id string, patch status.Patch) (status.Status, error) {
	var out status.Status
	err := c.do(ctx, http.MethodPatch, "/statuses/"+url.PathEscape(id), nil, patch, &out)
	return out, err
}

// Delete removes status id.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/statuses/"+url.PathEscape(id), nil, nil, nil)
}

// Shares returns the logins that shared status id.
func (c *Client) Shares(ctx context.Context, id string) ([]string, error) {
	var d status.Details
	if err := c.do(ctx, http.MethodGet, "/statuses/details/"+url.PathEscape(id), nil, nil, &d); err != nil {
		return nil, err
	}
	return d.SharedByLogins, nil
}

// Profile returns the signed-in account.
func (c *Client) Profile(ctx context.Context) (status.Profile, error) {
	var p status.Profile
	err := c.do(ctx, http.MethodGet, "/account/profile", nil, nil, &p)
	return p, err
}

// do sends one request through the limiter. A nil out discards the body.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("api: rate limiter wait: %w", err)
	}

	// path segments arrive escaped; keep them that way on the wire.
	u := *c.base
	u.RawPath = c.base.EscapedPath() + restPrefix + path
	unescaped, err := url.PathUnescape(u.RawPath)
	if err != nil {
		return fmt.Errorf("api: bad path %q: %w", path, err)
	}
	u.Path = unescaped
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}

	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: marshal %s %s: %w", method, path, err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return fmt.Errorf("api: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("x-auth-token", c.token)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("api: %s %s cancelled: %w", method, path, ctx.Err())
		}
		return fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fmt.Errorf("api: read %s %s: %w", method, path, err)
	}
	logging.Debug("api request", "method", method, "path", path, "status", resp.StatusCode, "dur", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: snippet(data)}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("api: decode %s %s: %w", method, path, err)
	}
	return nil
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > snippetLen {
		s = s[:snippetLen] + "..."
	}
	return s
}

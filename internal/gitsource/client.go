// Package gitsource fetches repository inputs from the GitHub API. It is
// the only component that performs network I/O; the classifier consumes
// the already-fetched RepoInputs it produces.
package gitsource

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const apiVersion = "2022-11-28"

// Client is an explicitly constructed GitHub API client. There is no
// package-level state: callers build one and pass it around.
type Client struct {
	base  string
	token string
	http  *http.Client
	cache *lru.Cache[string, string] // owner/repo@path -> content

	// MaxAttempts bounds rate-limit retries per request.
	MaxAttempts int

	// sleep is replaceable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient builds a client. baseURL defaults to the public API; token
// may be empty (search is limited to 10 requests/min without one).
func NewClient(baseURL, token string, cacheSize int) (*Client, error) {
	if baseURL == "" {
		baseURL = "https://api.github.com"
	}
	if cacheSize <= 0 {
		cacheSize = 512
	}
	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Client{
		base:        baseURL,
		token:       token,
		http:        &http.Client{Timeout: 30 * time.Second},
		cache:       cache,
		MaxAttempts: 5,
		sleep:       sleepCtx,
	}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// get performs one API GET with rate-limit discipline: proactive pause
// when the remaining quota runs low, and wait-until-reset on 403.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.base + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 1; attempt <= c.MaxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/vnd.github+json")
		req.Header.Set("X-GitHub-Api-Version", apiVersion)
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			if err := c.sleep(ctx, 5*time.Second); err != nil {
				return nil, err
			}
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		switch {
		case resp.StatusCode == http.StatusForbidden:
			wait := untilReset(resp.Header, 10*time.Second)
			slog.Warn("rate limited, waiting", "wait", wait, "attempt", attempt, "max", c.MaxAttempts)
			if err := c.sleep(ctx, wait); err != nil {
				return nil, err
			}
			lastErr = fmt.Errorf("github: rate limited (403)")
			continue
		case resp.StatusCode >= 400:
			return nil, fmt.Errorf("github: %s: HTTP %d", path, resp.StatusCode)
		}

		// Pause before the quota is exhausted rather than after.
		if rem, err := strconv.Atoi(resp.Header.Get("X-RateLimit-Remaining")); err == nil && rem < 3 {
			wait := untilReset(resp.Header, 5*time.Second)
			slog.Warn("rate limit low, pausing", "remaining", rem, "wait", wait)
			if err := c.sleep(ctx, wait); err != nil {
				return nil, err
			}
		}
		return body, nil
	}
	return nil, fmt.Errorf("github: giving up after %d attempts: %w", c.MaxAttempts, lastErr)
}

// untilReset reads X-RateLimit-Reset (unix seconds) and returns how long
// to wait, with a floor.
func untilReset(h http.Header, floor time.Duration) time.Duration {
	reset, err := strconv.ParseInt(h.Get("X-RateLimit-Reset"), 10, 64)
	if err != nil {
		return floor
	}
	wait := time.Until(time.Unix(reset, 0)) + time.Second
	if wait < floor {
		wait = floor
	}
	return wait
}

// FileContent fetches (and caches) the decoded content of one file.
func (c *Client) FileContent(ctx context.Context, owner, repo, path string) (string, error) {
	key := owner + "/" + repo + "@" + path
	if v, ok := c.cache.Get(key); ok {
		return v, nil
	}
	body, err := c.get(ctx, fmt.Sprintf("/repos/%s/%s/contents/%s", owner, repo, path), nil)
	if err != nil {
		return "", err
	}
	var payload struct {
		Content  string `json:"content"`
		Encoding string `json:"encoding"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode contents response: %w", err)
	}
	content := payload.Content
	if payload.Encoding == "base64" {
		raw, err := base64.StdEncoding.DecodeString(stripNewlines(payload.Content))
		if err != nil {
			return "", fmt.Errorf("decode base64 content: %w", err)
		}
		content = string(raw)
	}
	c.cache.Add(key, content)
	return content, nil
}

// Tree lists every path in the repository's default branch.
func (c *Client) Tree(ctx context.Context, owner, repo string) ([]string, error) {
	body, err := c.get(ctx, fmt.Sprintf("/repos/%s/%s/git/trees/HEAD", owner, repo),
		url.Values{"recursive": {"1"}})
	if err != nil {
		return nil, err
	}
	var payload struct {
		Tree []struct {
			Path string `json:"path"`
			Type string `json:"type"`
		} `json:"tree"`
		Truncated bool `json:"truncated"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode tree response: %w", err)
	}
	if payload.Truncated {
		slog.Warn("tree listing truncated", "repo", owner+"/"+repo)
	}
	paths := make([]string, 0, len(payload.Tree))
	for _, e := range payload.Tree {
		if e.Type == "blob" {
			paths = append(paths, e.Path)
		}
	}
	return paths, nil
}

func stripNewlines(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\n' && s[i] != '\r' {
			out = append(out, s[i])
		}
	}
	return string(out)
}

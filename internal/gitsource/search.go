package gitsource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// RepoMeta is the slice of repository metadata the quality filter needs.
type RepoMeta struct {
	FullName    string `json:"full_name"`
	Stars       int    `json:"stargazers_count"`
	Language    string `json:"language"`
	SizeKB      int    `json:"size"`
	Fork        bool   `json:"fork"`
	Archived    bool   `json:"archived"`
	Description string `json:"description"`
	PushedAt    string `json:"pushed_at"`
}

// SearchRepos runs one repository-search page.
func (c *Client) SearchRepos(ctx context.Context, query string, page, perPage int) ([]RepoMeta, error) {
	body, err := c.get(ctx, "/search/repositories", url.Values{
		"q":        {query},
		"sort":     {"stars"},
		"order":    {"desc"},
		"per_page": {strconv.Itoa(perPage)},
		"page":     {strconv.Itoa(page)},
	})
	if err != nil {
		return nil, err
	}
	var payload struct {
		Items []RepoMeta `json:"items"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return payload.Items, nil
}

// GoodCandidate filters out repositories that are not worth triaging:
// forks, archives, toy repos, and clones too slow to work with.
func GoodCandidate(m RepoMeta) bool {
	if m.Fork || m.Archived {
		return false
	}
	if m.SizeKB < 50 || m.SizeKB > 500_000 {
		return false
	}
	return true
}

package gitsource

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, "test-token", 16)
	require.NoError(t, err)
	c.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return c, srv
}

func contentsResponse(t *testing.T, content string) []byte {
	t.Helper()
	b, err := json.Marshal(map[string]string{
		"content":  base64.StdEncoding.EncodeToString([]byte(content)),
		"encoding": "base64",
	})
	require.NoError(t, err)
	return b
}

func TestFileContent_DecodesAndCaches(t *testing.T) {
	var hits atomic.Int64
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "/repos/acme/web/contents/Dockerfile", r.URL.Path)
		w.Write(contentsResponse(t, "FROM node:20\n"))
	}))

	ctx := context.Background()
	got, err := c.FileContent(ctx, "acme", "web", "Dockerfile")
	require.NoError(t, err)
	assert.Equal(t, "FROM node:20\n", got)

	// Second fetch must come from the cache.
	got, err = c.FileContent(ctx, "acme", "web", "Dockerfile")
	require.NoError(t, err)
	assert.Equal(t, "FROM node:20\n", got)
	assert.Equal(t, int64(1), hits.Load())
}

func TestGet_RetriesOn403UntilReset(t *testing.T) {
	var hits atomic.Int64
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Unix(), 10))
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write(contentsResponse(t, "ok"))
	}))

	got, err := c.FileContent(context.Background(), "acme", "web", "README")
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, int64(2), hits.Load())
}

func TestGet_GivesUpAfterMaxAttempts(t *testing.T) {
	var hits atomic.Int64
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	c.MaxAttempts = 3

	_, err := c.FileContent(context.Background(), "acme", "web", "README")
	require.Error(t, err)
	assert.Equal(t, int64(3), hits.Load())
}

func TestGet_NonRetryableStatus(t *testing.T) {
	var hits atomic.Int64
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := c.FileContent(context.Background(), "acme", "web", "missing")
	require.Error(t, err)
	assert.Equal(t, int64(1), hits.Load(), "404 must not be retried")
}

func TestGet_ProactivePauseWhenQuotaLow(t *testing.T) {
	var slept atomic.Int64
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "2")
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Unix(), 10))
		w.Write(contentsResponse(t, "ok"))
	}))
	c.sleep = func(ctx context.Context, d time.Duration) error {
		slept.Add(1)
		return nil
	}

	_, err := c.FileContent(context.Background(), "acme", "web", "README")
	require.NoError(t, err)
	assert.Equal(t, int64(1), slept.Load(), "expected one proactive pause")
}

func TestTree_BlobsOnly(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/web/git/trees/HEAD", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("recursive"))
		fmt.Fprint(w, `{"tree":[
			{"path":"Dockerfile","type":"blob"},
			{"path":"src","type":"tree"},
			{"path":"src/main.go","type":"blob"}
		],"truncated":false}`)
	}))

	paths, err := c.Tree(context.Background(), "acme", "web")
	require.NoError(t, err)
	assert.Equal(t, []string{"Dockerfile", "src/main.go"}, paths)
}

func TestSearchRepos(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/repositories", r.URL.Path)
		assert.Equal(t, "stars", r.URL.Query().Get("sort"))
		fmt.Fprint(w, `{"items":[{"full_name":"acme/web","stargazers_count":120,"size":4200}]}`)
	}))

	items, err := c.SearchRepos(context.Background(), "language:go topic:docker", 1, 30)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "acme/web", items[0].FullName)
}

func TestGoodCandidate(t *testing.T) {
	assert.True(t, GoodCandidate(RepoMeta{SizeKB: 4200}))
	assert.False(t, GoodCandidate(RepoMeta{SizeKB: 4200, Fork: true}))
	assert.False(t, GoodCandidate(RepoMeta{SizeKB: 4200, Archived: true}))
	assert.False(t, GoodCandidate(RepoMeta{SizeKB: 10}), "toy repo")
	assert.False(t, GoodCandidate(RepoMeta{SizeKB: 900_000}), "too large to clone")
}

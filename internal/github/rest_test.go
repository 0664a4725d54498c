package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	gh "github.com/google/go-github/v57/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRESTTestClient(t *testing.T, handler http.Handler) *gh.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := gh.NewClient(nil)
	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	client.BaseURL = baseURL

	return client
}

type restCommit struct {
	SHA    string `json:"sha"`
	Commit struct {
		Author struct {
			Date string `json:"date"`
		} `json:"author"`
	} `json:"commit"`
	Author *struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		AvatarURL string `json:"avatar_url"`
		HTMLURL   string `json:"html_url"`
	} `json:"author"`
}

func makeRESTCommit(id int64, login, date string) restCommit {
	c := restCommit{SHA: fmt.Sprintf("sha-%d-%s", id, login)}
	c.Commit.Author.Date = date
	if login != "" {
		c.Author = &struct {
			ID        int64  `json:"id"`
			Login     string `json:"login"`
			AvatarURL string `json:"avatar_url"`
			HTMLURL   string `json:"html_url"`
		}{
			ID:        id,
			Login:     login,
			AvatarURL: "https://avatars.githubusercontent.com/u/" + login,
			HTMLURL:   "https://github.com/" + login,
		}
	}
	return c
}

func TestRESTFetcherSinglePage(t *testing.T) {
	client := newRESTTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/grenish/oss-wiki/commits", r.URL.Path)
		assert.Equal(t, "content/docs/intro.mdx", r.URL.Query().Get("path"))

		commits := []restCommit{
			makeRESTCommit(1, "alice", "2024-01-02T10:00:00Z"),
			makeRESTCommit(2, "bob", "2024-01-01T09:00:00Z"),
		}
		json.NewEncoder(w).Encode(commits)
	}))

	fetcher := NewRESTFetcher(client, 100)
	events, err := fetcher.FetchFileHistory(context.Background(), "grenish", "oss-wiki", "content/docs/intro.mdx")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "alice", events[0].AuthorLogin)
	assert.Equal(t, int64(1), events[0].AuthorID)
	assert.Equal(t, "2024-01-02T10:00:00Z", events[0].CommittedAt)
	assert.Equal(t, "bob", events[1].AuthorLogin)
}

func TestRESTFetcherFollowsNextPage(t *testing.T) {
	var serverURL string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "", "1":
			// A full page with a next link keeps the fetcher walking
			commits := make([]restCommit, 0, pageSize)
			for i := 0; i < pageSize; i++ {
				commits = append(commits, makeRESTCommit(1, "alice", "2024-01-01T00:00:00Z"))
			}
			w.Header().Set("Link", fmt.Sprintf(`<%s/repos/o/r/commits?page=2>; rel="next"`, serverURL))
			json.NewEncoder(w).Encode(commits)
		case "2":
			json.NewEncoder(w).Encode([]restCommit{makeRESTCommit(2, "bob", "2024-01-02T00:00:00Z")})
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	})

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	serverURL = server.URL

	client := gh.NewClient(nil)
	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	client.BaseURL = baseURL

	fetcher := NewRESTFetcher(client, 100)
	events, err := fetcher.FetchFileHistory(context.Background(), "o", "r", "file.mdx")
	require.NoError(t, err)
	assert.Len(t, events, pageSize+1)
	assert.Equal(t, "bob", events[pageSize].AuthorLogin)
}

func TestRESTFetcherStopsAtIdentityCap(t *testing.T) {
	client := newRESTTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		commits := []restCommit{
			makeRESTCommit(1, "alice", "2024-01-01T00:00:00Z"),
			makeRESTCommit(2, "bob", "2024-01-02T00:00:00Z"),
			makeRESTCommit(3, "carol", "2024-01-03T00:00:00Z"),
		}
		json.NewEncoder(w).Encode(commits)
	}))

	fetcher := NewRESTFetcher(client, 2)
	events, err := fetcher.FetchFileHistory(context.Background(), "o", "r", "file.mdx")
	require.NoError(t, err)
	// Stops as soon as the second distinct identity is seen
	assert.Len(t, events, 2)
}

func TestRESTFetcherNotFoundIsEmpty(t *testing.T) {
	client := newRESTTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"Not Found"}`)
	}))

	fetcher := NewRESTFetcher(client, 100)
	events, err := fetcher.FetchFileHistory(context.Background(), "o", "r", "never-existed.mdx")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestRESTFetcherQuotaExhausted(t *testing.T) {
	client := newRESTTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Ratelimit-Limit", "60")
		w.Header().Set("X-Ratelimit-Remaining", "0")
		w.Header().Set("X-Ratelimit-Reset", "1735689600")
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"message":"API rate limit exceeded"}`)
	}))

	fetcher := NewRESTFetcher(client, 100)
	_, err := fetcher.FetchFileHistory(context.Background(), "o", "r", "file.mdx")
	assert.ErrorIs(t, err, ErrQuotaExhausted)
}

func TestRESTFetcherTransportError(t *testing.T) {
	client := newRESTTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, `{"message":"upstream unavailable"}`)
	}))

	fetcher := NewRESTFetcher(client, 100)
	_, err := fetcher.FetchFileHistory(context.Background(), "o", "r", "file.mdx")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrQuotaExhausted)
	assert.NotErrorIs(t, err, ErrMalformedResponse)
}

func TestRESTFetcherUnattributedCommits(t *testing.T) {
	client := newRESTTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		commits := []restCommit{
			makeRESTCommit(0, "", "2024-01-01T00:00:00Z"), // no linked account
			makeRESTCommit(1, "alice", "2024-01-02T00:00:00Z"),
		}
		json.NewEncoder(w).Encode(commits)
	}))

	fetcher := NewRESTFetcher(client, 100)
	events, err := fetcher.FetchFileHistory(context.Background(), "o", "r", "file.mdx")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.False(t, events[0].Attributable())
	assert.True(t, events[1].Attributable())
}

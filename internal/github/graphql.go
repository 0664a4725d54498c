package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/grenish/contribsvc/internal/models"
)

const defaultGraphQLEndpoint = "https://api.github.com/graphql"

// historyQuery pages through the commit history of one file on HEAD.
const historyQuery = `
query($owner: String!, $name: String!, $path: String!, $after: String) {
  repository(owner: $owner, name: $name) {
    object(expression: "HEAD") {
      ... on Commit {
        history(path: $path, first: 100, after: $after) {
          pageInfo {
            hasNextPage
            endCursor
          }
          nodes {
            author {
              user {
                databaseId
                login
                avatarUrl
                url
              }
            }
            committedDate
          }
        }
      }
    }
  }
}`

// GraphQLFetcher retrieves commit history through the v4 API with
// cursor-based pagination. One query per page, the endCursor of page n
// feeding the after argument of page n+1.
type GraphQLFetcher struct {
	httpClient  *http.Client
	endpoint    string
	token       string
	identityCap int
}

func NewGraphQLFetcher(httpClient *http.Client, token string, identityCap int) *GraphQLFetcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &GraphQLFetcher{
		httpClient:  httpClient,
		endpoint:    defaultGraphQLEndpoint,
		token:       token,
		identityCap: identityCap,
	}
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

type graphQLResponse struct {
	Data *struct {
		Repository *struct {
			Object *struct {
				History *historyPage `json:"history"`
			} `json:"object"`
		} `json:"repository"`
	} `json:"data"`
	Errors []struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"errors"`
}

type historyPage struct {
	PageInfo struct {
		HasNextPage bool    `json:"hasNextPage"`
		EndCursor   *string `json:"endCursor"`
	} `json:"pageInfo"`
	Nodes []struct {
		Author *struct {
			User *struct {
				DatabaseID int64  `json:"databaseId"`
				Login      string `json:"login"`
				AvatarURL  string `json:"avatarUrl"`
				URL        string `json:"url"`
			} `json:"user"`
		} `json:"author"`
		CommittedDate string `json:"committedDate"`
	} `json:"nodes"`
}

// FetchFileHistory implements HistoryFetcher
func (f *GraphQLFetcher) FetchFileHistory(ctx context.Context, owner, repo, path string) ([]models.CommitEvent, error) {
	var events []models.CommitEvent
	seen := make(map[string]struct{})
	var cursor *string

	for {
		page, err := f.queryPage(ctx, owner, repo, path, cursor)
		if err != nil {
			if errors.Is(err, errNotFound) {
				return nil, nil
			}
			return nil, err
		}

		for _, node := range page.Nodes {
			event := models.CommitEvent{CommittedAt: node.CommittedDate}
			if node.Author != nil && node.Author.User != nil {
				user := node.Author.User
				event.AuthorID = user.DatabaseID
				event.AuthorLogin = user.Login
				event.AuthorAvatarURL = user.AvatarURL
				event.AuthorProfileURL = user.URL
			}
			events = append(events, event)

			if event.Attributable() {
				seen[event.IdentityKey()] = struct{}{}
				if len(seen) >= f.identityCap {
					return events, nil
				}
			}
		}

		if !page.PageInfo.HasNextPage || page.PageInfo.EndCursor == nil {
			break
		}
		cursor = page.PageInfo.EndCursor
	}

	return events, nil
}

func (f *GraphQLFetcher) queryPage(ctx context.Context, owner, repo, path string, cursor *string) (*historyPage, error) {
	variables := map[string]interface{}{
		"owner": owner,
		"name":  repo,
		"path":  path,
	}
	if cursor != nil {
		variables["after"] = *cursor
	}

	payload, err := json.Marshal(graphQLRequest{Query: historyQuery, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("github: marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("github: build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v4+json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "contribsvc")
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github: graphql request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errNotFound
	}
	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests {
		if resp.Header.Get("X-RateLimit-Remaining") == "0" {
			return nil, ErrQuotaExhausted
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github: graphql status %d", resp.StatusCode)
	}

	var out graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if len(out.Errors) > 0 {
		for _, gqlErr := range out.Errors {
			switch gqlErr.Type {
			case "RATE_LIMITED":
				return nil, fmt.Errorf("%w: %s", ErrQuotaExhausted, gqlErr.Message)
			case "NOT_FOUND":
				return nil, errNotFound
			}
		}
		return nil, fmt.Errorf("github: graphql error: %s", out.Errors[0].Message)
	}

	if out.Data == nil {
		return nil, fmt.Errorf("%w: missing data", ErrMalformedResponse)
	}

	// A repository without a HEAD commit, or an object that is not a
	// commit, reports no history at all. Treat that as an empty page.
	if out.Data.Repository == nil || out.Data.Repository.Object == nil || out.Data.Repository.Object.History == nil {
		return &historyPage{}, nil
	}

	return out.Data.Repository.Object.History, nil
}

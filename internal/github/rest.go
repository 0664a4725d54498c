package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gh "github.com/google/go-github/v57/github"
	"github.com/grenish/contribsvc/internal/models"
)

const pageSize = 100

// RESTFetcher walks the commits list endpoint with linear page-based
// pagination.
type RESTFetcher struct {
	client      *gh.Client
	identityCap int
}

func NewRESTFetcher(client *gh.Client, identityCap int) *RESTFetcher {
	return &RESTFetcher{
		client:      client,
		identityCap: identityCap,
	}
}

// FetchFileHistory implements HistoryFetcher
func (f *RESTFetcher) FetchFileHistory(ctx context.Context, owner, repo, path string) ([]models.CommitEvent, error) {
	var events []models.CommitEvent
	seen := make(map[string]struct{})

	opts := &gh.CommitsListOptions{
		Path: path,
		ListOptions: gh.ListOptions{
			PerPage: pageSize,
		},
	}

	for {
		commits, resp, err := f.client.Repositories.ListCommits(ctx, owner, repo, opts)
		if err != nil {
			classified := classifyRESTError(err)
			if errors.Is(classified, errNotFound) {
				// The file never existed at this path; valid empty outcome.
				return nil, nil
			}
			return nil, classified
		}

		for _, commit := range commits {
			event := commitToEvent(commit)
			events = append(events, event)

			if event.Attributable() {
				seen[event.IdentityKey()] = struct{}{}
				if len(seen) >= f.identityCap {
					// Counts beyond the cap are approximate on purpose:
					// bounding quota spend wins over exactness here.
					return events, nil
				}
			}
		}

		if resp.NextPage == 0 || len(commits) < pageSize {
			break
		}
		opts.Page = resp.NextPage
	}

	return events, nil
}

func commitToEvent(commit *gh.RepositoryCommit) models.CommitEvent {
	event := models.CommitEvent{}

	if user := commit.GetAuthor(); user != nil {
		event.AuthorID = user.GetID()
		event.AuthorLogin = user.GetLogin()
		event.AuthorAvatarURL = user.GetAvatarURL()
		event.AuthorProfileURL = user.GetHTMLURL()
	}

	if meta := commit.GetCommit(); meta != nil && meta.GetAuthor() != nil {
		event.CommittedAt = meta.GetAuthor().GetDate().UTC().Format(time.RFC3339)
	}

	return event
}

func classifyRESTError(err error) error {
	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return fmt.Errorf("%w: %s", ErrQuotaExhausted, rateErr.Message)
	}

	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return fmt.Errorf("%w: secondary limit", ErrQuotaExhausted)
	}

	var respErr *gh.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		if respErr.Response.StatusCode == http.StatusNotFound {
			return errNotFound
		}
	}

	return fmt.Errorf("github: list commits: %w", err)
}

package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/grenish/contribsvc/internal/github"
	"github.com/grenish/contribsvc/internal/models"
	"github.com/grenish/contribsvc/pkg/logger"
	"github.com/sirupsen/logrus"
)

// ContributorServiceConfig carries the repository coordinates and document
// tree conventions the service resolves paths against.
type ContributorServiceConfig struct {
	Owner       string
	Repo        string
	ContentRoot string // e.g. "content/docs"
	Extension   string // e.g. ".mdx"
	CacheTTL    time.Duration
}

// ContributorService turns a logical document path into a ranked list of
// contributors by fetching and aggregating its commit history.
type ContributorService struct {
	fetcher github.HistoryFetcher
	config  ContributorServiceConfig
	cache   *resultCache
}

func NewContributorService(fetcher github.HistoryFetcher, config ContributorServiceConfig) *ContributorService {
	return &ContributorService{
		fetcher: fetcher,
		config:  config,
		cache:   newResultCache(config.CacheTTL),
	}
}

// GetContributors fetches and aggregates contributors for the given logical
// document path. The fallback path is attempted only when the primary path
// yields no contributors; both empty is a valid empty result.
func (s *ContributorService) GetContributors(ctx context.Context, docPath string) ([]*models.Contributor, error) {
	if contributors, ok := s.cache.get(docPath); ok {
		return contributors, nil
	}

	primary, fallback := s.CandidatePaths(docPath)

	events, err := s.fetcher.FetchFileHistory(ctx, s.config.Owner, s.config.Repo, primary)
	if err != nil {
		return nil, err
	}
	contributors := AggregateContributors(events)

	if len(contributors) == 0 {
		logger.WithFields(logrus.Fields{
			"doc_path": docPath,
			"fallback": fallback,
		}).Debugf("Primary path empty, trying section index")

		events, err = s.fetcher.FetchFileHistory(ctx, s.config.Owner, s.config.Repo, fallback)
		if err != nil {
			return nil, err
		}
		contributors = AggregateContributors(events)
	}

	s.cache.set(docPath, contributors)
	return contributors, nil
}

// CandidatePaths maps a logical document path to the upstream file path it
// should live at, plus the section-index path used as fallback.
func (s *ContributorService) CandidatePaths(docPath string) (primary, fallback string) {
	trimmed := strings.TrimSuffix(docPath, s.config.Extension)

	primary = s.config.ContentRoot + "/" + trimmed + s.config.Extension
	fallback = s.config.ContentRoot + "/" + trimmed + "/index" + s.config.Extension
	return primary, fallback
}

// AggregateContributors folds commit events into one record per identity,
// counting events and keeping the latest commit date. Dedup is by numeric
// identity when the provider assigned one, otherwise by lower-cased login;
// events with neither are skipped. The result is ordered by contribution
// count descending.
func AggregateContributors(events []models.CommitEvent) []*models.Contributor {
	byKey := make(map[string]*models.Contributor)
	order := make([]string, 0, len(events))

	for _, event := range events {
		if !event.Attributable() {
			continue
		}

		key := event.IdentityKey()
		if existing, ok := byKey[key]; ok {
			existing.Contributions++
			// ISO-8601 is fixed-width, so string comparison orders correctly
			if event.CommittedAt > existing.LastCommitDate {
				existing.LastCommitDate = event.CommittedAt
			}
			continue
		}

		contributor := &models.Contributor{
			ID:             event.AuthorID,
			Login:          event.AuthorLogin,
			AvatarURL:      event.AuthorAvatarURL,
			HTMLURL:        event.AuthorProfileURL,
			Contributions:  1,
			LastCommitDate: event.CommittedAt,
		}
		if contributor.AvatarURL == "" && contributor.Login != "" {
			contributor.AvatarURL = "https://github.com/" + contributor.Login + ".png"
		}
		if contributor.HTMLURL == "" && contributor.Login != "" {
			contributor.HTMLURL = "https://github.com/" + contributor.Login
		}

		byKey[key] = contributor
		order = append(order, key)
	}

	contributors := make([]*models.Contributor, 0, len(order))
	for _, key := range order {
		contributors = append(contributors, byKey[key])
	}

	sort.SliceStable(contributors, func(i, j int) bool {
		return contributors[i].Contributions > contributors[j].Contributions
	})

	return contributors
}

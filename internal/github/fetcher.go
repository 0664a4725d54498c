package github

import (
	"context"

	"github.com/grenish/contribsvc/internal/models"
)

// HistoryFetcher retrieves commit-authorship events for one file path in a
// repository. A path the provider has never seen yields an empty slice and
// a nil error; quota exhaustion and malformed payloads surface as the
// classified errors in this package.
type HistoryFetcher interface {
	FetchFileHistory(ctx context.Context, owner, repo, path string) ([]models.CommitEvent, error)
}

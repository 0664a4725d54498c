package models

// Contributor is the aggregated per-identity commit summary for one file.
// Field names follow the GitHub contributor payload the docs frontend
// already consumes.
type Contributor struct {
	ID             int64  `json:"id"`
	Login          string `json:"login"`
	AvatarURL      string `json:"avatar_url"`
	HTMLURL        string `json:"html_url"`
	Contributions  int    `json:"contributions"`
	LastCommitDate string `json:"last_commit_date,omitempty"`
}

package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gcbaptista/candidate-search/model"
)

// SearchResult is the outcome of one query over the current corpus snapshot.
type SearchResult struct {
	Query      string              `json:"query"`
	Groups     *model.GroupedIndex `json:"groups"`
	Total      int                 `json:"total"`       // candidates across all leaves
	Searched   bool                `json:"searched"`    // false when the query was below the minimum length
	CorpusSize int                 `json:"corpus_size"` // candidates in the snapshot searched
	Took       int64               `json:"took"`        // milliseconds
	QueryId    string              `json:"query_id"`    // unique UUID for this search query
}

// CorpusSource fetches the full candidate list.
type CorpusSource interface {
	FetchCandidates(ctx context.Context) ([]model.Candidate, error)
	// Describe names the source for logs and job metadata
	Describe() string
}

// DetailsSource fetches the per-candidate detail documents.
type DetailsSource interface {
	FetchCandidateDetails(ctx context.Context, fileName string) (json.RawMessage, error)
}

// SearchRequest is one query against the corpus.
type SearchRequest struct {
	Query string
	// SortKeys overrides the configured key ordering when set
	SortKeys *bool
}

// CorpusStatus describes the loaded snapshot.
type CorpusStatus struct {
	Loaded     bool      `json:"loaded"`
	CorpusSize int       `json:"corpus_size"`
	LoadedAt   time.Time `json:"loaded_at,omitempty"`
	Source     string    `json:"source,omitempty"`
}

// CandidateSearcher is what consumers need to run queries.
type CandidateSearcher interface {
	Search(req SearchRequest) (*SearchResult, error)
	CorpusSize() int
	Status() CorpusStatus
}

// CorpusRefresher starts background reloads of the corpus.
type CorpusRefresher interface {
	// StartRefresh returns the ID of the refresh job; when one is already
	// pending or running its ID is returned with started=false.
	StartRefresh(trigger string) (jobID string, started bool, err error)
}

// JobTracker exposes job status lookups.
type JobTracker interface {
	GetJob(jobID string) (*model.Job, error)
}

// JobManager defines operations for tracking background jobs
type JobManager interface {
	JobTracker
	ListJobs(status *model.JobStatus) []*model.Job
}

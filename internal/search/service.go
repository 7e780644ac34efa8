package search

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gcbaptista/candidate-search/config"
	"github.com/gcbaptista/candidate-search/internal/errors"
	"github.com/gcbaptista/candidate-search/internal/grouper"
	"github.com/gcbaptista/candidate-search/internal/jobs"
	"github.com/gcbaptista/candidate-search/internal/matcher"
	"github.com/gcbaptista/candidate-search/internal/persistence"
	"github.com/gcbaptista/candidate-search/model"
	"github.com/gcbaptista/candidate-search/services"
	"github.com/gcbaptista/candidate-search/store"
)

// RunQuery filters and ranks corpus against query and folds the matches into
// the district / admin unit / party hierarchy. A query below the matcher's
// minimum length yields an empty index.
func RunQuery(m *matcher.Matcher, corpus []model.Candidate, query string) *model.GroupedIndex {
	return grouper.Group(m.Search(corpus, query))
}

// EventRecorder receives one event per executed search.
type EventRecorder interface {
	TrackSearchEvent(event model.SearchEvent)
}

// Options configures a Service. Source, Jobs, Recorder and DataDir are optional.
type Options struct {
	Matcher  config.MatcherSettings
	Grouping config.GroupingSettings
	Source   services.CorpusSource
	Jobs     *jobs.Manager
	Recorder EventRecorder
	// DataDir holds the gob cache of the last fetched corpus; empty disables it
	DataDir string
	Logger  *zap.Logger
}

// Service runs queries against the current corpus snapshot and keeps that
// snapshot up to date.
type Service struct {
	store     *store.CandidateStore
	matcher   *matcher.Matcher
	grouping  config.GroupingSettings
	source    services.CorpusSource
	jobs      *jobs.Manager
	recorder  EventRecorder
	cachePath string
	logger    *zap.Logger

	refreshMu sync.Mutex // serializes Refresh
}

// NewService creates a search Service with an empty store.
func NewService(opts Options) (*Service, error) {
	m, err := matcher.New(opts.Matcher)
	if err != nil {
		return nil, fmt.Errorf("invalid matcher settings: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		store:    store.NewCandidateStore(),
		matcher:  m,
		grouping: opts.Grouping,
		source:   opts.Source,
		jobs:     opts.Jobs,
		recorder: opts.Recorder,
		logger:   logger.Named("search"),
	}
	if opts.DataDir != "" {
		s.cachePath = persistence.CachePath(opts.DataDir)
	}
	return s, nil
}

// SetRecorder sets the receiver of search events. Call it before serving queries.
func (s *Service) SetRecorder(recorder EventRecorder) {
	s.recorder = recorder
}

// Load replaces the snapshot with corpus directly, e.g. from a local file.
func (s *Service) Load(corpus []model.Candidate, source string) {
	s.store.Replace(corpus, source)
	s.logger.Info("corpus loaded", zap.String("source", source), zap.Int("candidates", len(corpus)))
}

// Search runs the pipeline on the current snapshot. It fails with
// errors.ErrCorpusUnavailable until a corpus has been loaded; an empty result
// is not an error.
func (s *Service) Search(req services.SearchRequest) (*services.SearchResult, error) {
	startTime := time.Now()
	queryID := uuid.New().String()

	snapshot := s.store.Snapshot()
	if !snapshot.Loaded {
		return nil, errors.NewCorpusUnavailableError(s.describeSource(), 0, nil)
	}

	sortKeys := s.grouping.SortKeys
	if req.SortKeys != nil {
		sortKeys = *req.SortKeys
	}

	searchable := s.matcher.IsSearchable(req.Query)
	matches := s.matcher.Search(snapshot.Candidates, req.Query)
	groups := grouper.GroupWith(matches, grouper.Options{SortKeys: sortKeys})
	took := time.Since(startTime)

	result := &services.SearchResult{
		Query:      req.Query,
		Groups:     groups,
		Total:      len(matches),
		Searched:   searchable,
		CorpusSize: len(snapshot.Candidates),
		Took:       took.Milliseconds(),
		QueryId:    queryID,
	}

	if s.recorder != nil {
		s.recorder.TrackSearchEvent(model.SearchEvent{
			Query:          req.Query,
			ResultCount:    result.Total,
			DistrictCount:  len(groups.Districts),
			ShortCircuited: !searchable,
			ResponseTime:   took,
			Timestamp:      startTime,
		})
	}

	s.logger.Debug("search executed",
		zap.String("query_id", queryID),
		zap.String("query", req.Query),
		zap.Int("results", result.Total),
		zap.Duration("took", took))
	return result, nil
}

// CorpusSize returns the number of candidates in the current snapshot
func (s *Service) CorpusSize() int {
	return s.store.Len()
}

// Status describes the current snapshot
func (s *Service) Status() services.CorpusStatus {
	snapshot := s.store.Snapshot()
	return services.CorpusStatus{
		Loaded:     snapshot.Loaded,
		CorpusSize: len(snapshot.Candidates),
		LoadedAt:   snapshot.LoadedAt,
		Source:     snapshot.Source,
	}
}

// Refresh fetches the corpus from the source and swaps it in. On failure the
// previous snapshot stays in place. The new corpus is written to the cache.
func (s *Service) Refresh(ctx context.Context) (int, error) {
	if s.source == nil {
		return 0, fmt.Errorf("no corpus source configured")
	}

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	source := s.source.Describe()
	corpus, err := s.source.FetchCandidates(ctx)
	if err != nil {
		s.logger.Warn("corpus refresh failed", zap.String("source", source), zap.Error(err))
		return 0, err
	}

	s.Load(corpus, source)

	if s.cachePath != "" {
		if err := persistence.SaveGob(s.cachePath, s.store); err != nil {
			s.logger.Warn("failed to write corpus cache", zap.String("path", s.cachePath), zap.Error(err))
		}
	}
	return len(corpus), nil
}

// LoadCache restores the snapshot saved by the last successful Refresh.
// It returns os.ErrNotExist when there is no cache.
func (s *Service) LoadCache() error {
	if s.cachePath == "" {
		return os.ErrNotExist
	}

	cached := store.NewCandidateStore()
	if err := persistence.LoadGob(s.cachePath, cached); err != nil {
		return err
	}

	snapshot := cached.Snapshot()
	s.store.Replace(snapshot.Candidates, snapshot.Source)
	s.logger.Info("corpus restored from cache",
		zap.String("path", s.cachePath),
		zap.String("source", snapshot.Source),
		zap.Time("fetched_at", snapshot.LoadedAt),
		zap.Int("candidates", len(snapshot.Candidates)))
	return nil
}

// StartRefresh runs Refresh as a background job.
func (s *Service) StartRefresh(trigger string) (string, bool, error) {
	if s.jobs == nil {
		return "", false, fmt.Errorf("background jobs are not enabled")
	}
	if s.source == nil {
		return "", false, fmt.Errorf("no corpus source configured")
	}
	jobID, created := s.jobs.CreateJobIfIdle(model.JobTypeRefreshCorpus, s.source.Describe(), map[string]string{
		"trigger": trigger,
	})
	if !created {
		return jobID, false, nil
	}

	err := s.jobs.ExecuteJob(jobID, func(ctx context.Context, job model.Job) error {
		s.jobs.UpdateJobProgress(job.ID, 0, 2, "fetching candidate index")
		count, err := s.Refresh(ctx)
		if err != nil {
			return err
		}
		s.jobs.SetJobMetadata(job.ID, "candidates", strconv.Itoa(count))
		s.jobs.UpdateJobProgress(job.ID, 2, 2, fmt.Sprintf("loaded %d candidates", count))
		return nil
	})
	if err != nil {
		return "", false, err
	}
	return jobID, true, nil
}

// WarmStart loads the cache and falls back to a synchronous Refresh when
// there is none, or always refreshes when forceRefresh is set. A failed
// refresh with a cached corpus in place is logged, not returned.
func (s *Service) WarmStart(ctx context.Context, forceRefresh bool) error {
	cacheErr := s.LoadCache()
	switch {
	case cacheErr == nil && !forceRefresh:
		return nil
	case cacheErr != nil && !stderrors.Is(cacheErr, os.ErrNotExist):
		s.logger.Warn("ignoring unreadable corpus cache", zap.Error(cacheErr))
	}

	if s.source == nil {
		return cacheErr
	}
	_, err := s.Refresh(ctx)
	if err != nil && s.store.Loaded() {
		s.logger.Warn("serving cached corpus after failed refresh", zap.Error(err))
		return nil
	}
	return err
}

func (s *Service) describeSource() string {
	if s.source == nil {
		return ""
	}
	return s.source.Describe()
}

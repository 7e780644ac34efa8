package analytics

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gcbaptista/candidate-search/internal/tokenizer"
	"github.com/gcbaptista/candidate-search/model"
)

const (
	// AnalyticsFile is the file name of the persisted events inside the data directory.
	AnalyticsFile = "analytics.json"

	maxEventsToKeep    = 10000 // Keep last 10k events for performance
	maxPopularSearches = 5
)

// CorpusCounter reports the size of the searchable corpus.
type CorpusCounter interface {
	CorpusSize() int
}

// Service records search events in a bounded ring and summarizes them
type Service struct {
	mutex        sync.RWMutex
	events       []model.SearchEvent
	corpus       CorpusCounter
	dataFilePath string // empty disables persistence
	logger       *zap.Logger
	now          func() time.Time
}

// NewService creates an analytics service. When dataFilePath is set, events
// saved by a previous run are loaded and Flush writes them back.
func NewService(corpus CorpusCounter, dataFilePath string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	service := &Service{
		events:       make([]model.SearchEvent, 0),
		corpus:       corpus,
		dataFilePath: dataFilePath,
		logger:       logger.Named("analytics"),
		now:          time.Now,
	}

	if err := service.loadData(); err != nil {
		service.logger.Warn("failed to load analytics data", zap.String("path", dataFilePath), zap.Error(err))
	}

	return service
}

// TrackSearchEvent records a new search event. A zero Timestamp is set to now.
func (s *Service) TrackSearchEvent(event model.SearchEvent) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	s.events = append(s.events, event)

	if len(s.events) > maxEventsToKeep {
		s.events = s.events[len(s.events)-maxEventsToKeep:]
	}
}

// EventCount returns the number of retained events
func (s *Service) EventCount() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.events)
}

// Summary aggregates all retained events
func (s *Service) Summary() model.AnalyticsSummary {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	now := s.now()
	summary := model.AnalyticsSummary{
		TotalSearches:   len(s.events),
		PopularSearches: popularSearches(s.events),
		ResponseTimes:   responseTimeDistribution(s.events),
		GeneratedAt:     now,
	}
	if s.corpus != nil {
		summary.CorpusSize = s.corpus.CorpusSize()
	}
	if len(s.events) == 0 {
		return summary
	}

	dayAgo := now.Add(-24 * time.Hour)
	var totalResponse time.Duration
	totalResults := 0
	for _, event := range s.events {
		switch {
		case event.ShortCircuited:
			summary.ShortQuerySearches++
		case event.ResultCount == 0:
			summary.ZeroResultSearches++
		}
		if event.Timestamp.After(dayAgo) {
			summary.SearchesLast24h++
		}
		totalResponse += event.ResponseTime
		totalResults += event.ResultCount
	}

	count := float64(len(s.events))
	summary.AvgResponseTime = float64(totalResponse) / float64(time.Millisecond) / count
	summary.AvgResultCount = float64(totalResults) / count
	return summary
}

// popularSearches counts queries by their canonical form. Short-circuited
// queries are left out.
func popularSearches(events []model.SearchEvent) []model.PopularSearch {
	queryCounts := make(map[string]int)
	for _, event := range events {
		if event.ShortCircuited {
			continue
		}
		if key := tokenizer.Canonical(event.Query); key != "" {
			queryCounts[key]++
		}
	}

	popular := make([]model.PopularSearch, 0, len(queryCounts))
	for query, count := range queryCounts {
		popular = append(popular, model.PopularSearch{Query: query, SearchCount: count})
	}

	sort.Slice(popular, func(i, j int) bool {
		if popular[i].SearchCount != popular[j].SearchCount {
			return popular[i].SearchCount > popular[j].SearchCount
		}
		return popular[i].Query < popular[j].Query
	})

	if len(popular) > maxPopularSearches {
		popular = popular[:maxPopularSearches]
	}
	return popular
}

func responseTimeDistribution(events []model.SearchEvent) model.ResponseTimeDistribution {
	dist := model.ResponseTimeDistribution{}
	for _, event := range events {
		switch rt := event.ResponseTime; {
		case rt < time.Millisecond:
			dist.Bucket0To1ms++
		case rt < 10*time.Millisecond:
			dist.Bucket1To10ms++
		case rt < 100*time.Millisecond:
			dist.Bucket10To100ms++
		default:
			dist.Bucket100msPlus++
		}
	}
	return dist
}

// Flush writes the retained events to the data file, if one is configured
func (s *Service) Flush() error {
	if s.dataFilePath == "" {
		return nil
	}

	s.mutex.RLock()
	data, err := json.Marshal(s.events)
	s.mutex.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal analytics data: %w", err)
	}

	dir := filepath.Dir(s.dataFilePath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create analytics directory: %w", err)
	}
	tmp := s.dataFilePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write analytics file: %w", err)
	}
	if err := os.Rename(tmp, s.dataFilePath); err != nil {
		return fmt.Errorf("failed to move analytics file into place: %w", err)
	}
	return nil
}

// loadData loads analytics data from file
func (s *Service) loadData() error {
	if s.dataFilePath == "" {
		return nil
	}

	data, err := os.ReadFile(s.dataFilePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read analytics file: %w", err)
	}

	var events []model.SearchEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return fmt.Errorf("failed to unmarshal analytics data: %w", err)
	}
	if len(events) > maxEventsToKeep {
		events = events[len(events)-maxEventsToKeep:]
	}
	s.events = events
	return nil
}

package store

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sync"
	"time"

	"github.com/gcbaptista/candidate-search/model"
)

// CandidateStore holds the current corpus snapshot. A snapshot is never
// modified once stored; Replace swaps in a new slice.
type CandidateStore struct {
	mu       sync.RWMutex
	corpus   []model.Candidate
	loadedAt time.Time
	source   string
	loaded   bool
}

// Snapshot is an immutable view of the corpus at one point in time.
type Snapshot struct {
	Candidates []model.Candidate
	LoadedAt   time.Time
	Source     string
	Loaded     bool
}

// NewCandidateStore creates an empty store
func NewCandidateStore() *CandidateStore {
	return &CandidateStore{}
}

// Replace makes corpus the current snapshot. The slice is copied so later
// changes by the caller are not visible to readers.
func (s *CandidateStore) Replace(corpus []model.Candidate, source string) {
	snapshot := make([]model.Candidate, len(corpus))
	copy(snapshot, corpus)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.corpus = snapshot
	s.source = source
	s.loadedAt = time.Now()
	s.loaded = true
}

// Snapshot returns the current corpus. Callers must not modify it.
func (s *CandidateStore) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Candidates: s.corpus, LoadedAt: s.loadedAt, Source: s.source, Loaded: s.loaded}
}

// Loaded reports whether any corpus, even an empty one, has been stored.
func (s *CandidateStore) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Len returns the size of the current snapshot
func (s *CandidateStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.corpus)
}

// gobCandidateStoreData is a helper struct for Gob encoding/decoding CandidateStore data.
// It excludes the mutex.
type gobCandidateStoreData struct {
	Corpus   []model.Candidate
	LoadedAt time.Time
	Source   string
}

// GobEncode implements the gob.GobEncoder interface for CandidateStore.
func (s *CandidateStore) GobEncode() ([]byte, error) {
	s.mu.RLock()
	data := gobCandidateStoreData{Corpus: s.corpus, LoadedAt: s.loadedAt, Source: s.source}
	s.mu.RUnlock()

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(data); err != nil {
		return nil, fmt.Errorf("failed to gob encode candidate store data: %w", err)
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface for CandidateStore.
func (s *CandidateStore) GobDecode(data []byte) error {
	decoded := gobCandidateStoreData{}
	if err := gob.NewDecoder(bytes.NewBuffer(data)).Decode(&decoded); err != nil {
		return fmt.Errorf("failed to gob decode candidate store data: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.corpus = decoded.Corpus
	if s.corpus == nil {
		s.corpus = make([]model.Candidate, 0)
	}
	s.loadedAt = decoded.LoadedAt
	s.source = decoded.Source
	s.loaded = true
	return nil
}

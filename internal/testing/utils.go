// Package testing provides fixtures and helpers shared by the candidate search tests.
package testing

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/candidate-search/config"
	"github.com/gcbaptista/candidate-search/model"
	"github.com/gcbaptista/candidate-search/services"
)

// SampleCandidates returns a small corpus covering several districts, admin
// units and parties, including candidates with missing grouping keys.
func SampleCandidates() []model.Candidate {
	return []model.Candidate{
		{Name: "Anti Kaljumäe", PartyName: "Erakond X", CandidateRegNumber: 101, LastNumberOfVotes: "312", Education: "kõrgharidus", Age: "44", AdminUnit: "Tallinn", District: "Harju"},
		{Name: "Jaan Tamm", PartyName: "Erakond X", CandidateRegNumber: 102, LastNumberOfVotes: "87", Education: "keskharidus", Age: "51", AdminUnit: "Tallinn", District: "Harju"},
		{Name: "Mari Tamm", PartyName: "Eesti Reformierakond", CandidateRegNumber: 205, LastNumberOfVotes: "1204", Education: "kõrgharidus", Age: "38", AdminUnit: "Tartu linn", District: "Tartumaa"},
		{Name: "Tamm Peeter", PartyName: "ISAMAA Erakond", CandidateRegNumber: 310, LastNumberOfVotes: "", Education: "põhiharidus", Age: "63", AdminUnit: "Tartu linn", District: "Tartumaa"},
		{Name: "Kadri Kask", PartyName: "", CandidateRegNumber: 411, LastNumberOfVotes: "15", Education: "kõrgharidus", Age: "29", AdminUnit: "Rakvere", District: "Lääne-Viru"},
		{Name: "Toomas Kask", PartyName: "Sotsiaaldemokraatlik Erakond", CandidateRegNumber: 512, LastNumberOfVotes: "440", Education: "kõrgharidus", Age: "47", AdminUnit: "", District: ""},
	}
}

// SampleCorpusJSON returns SampleCandidates encoded the way the object
// storage index file is published.
func SampleCorpusJSON(t *testing.T) []byte {
	t.Helper()
	data, err := json.Marshal(SampleCandidates())
	require.NoError(t, err, "Failed to encode sample corpus")
	return data
}

// WriteCorpusFile writes corpus as JSON into dir and returns the file path.
func WriteCorpusFile(t *testing.T, dir string, corpus []model.Candidate) string {
	t.Helper()
	data, err := json.Marshal(corpus)
	require.NoError(t, err)
	path := filepath.Join(dir, "fuse-index.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

// FakeObjectStore is a minimal path-style S3 endpoint serving fixed objects.
type FakeObjectStore struct {
	Server *httptest.Server

	mu       sync.Mutex
	objects  map[string][]byte
	requests []*http.Request
	status   int
}

// NewFakeObjectStore starts a server answering GET /<bucket>/<key>.
// Unknown keys answer with the S3 NoSuchKey error document.
func NewFakeObjectStore(t *testing.T, objects map[string][]byte) *FakeObjectStore {
	t.Helper()
	store := &FakeObjectStore{objects: make(map[string][]byte)}
	for key, body := range objects {
		store.objects[key] = body
	}
	store.Server = httptest.NewServer(http.HandlerFunc(store.serve))
	t.Cleanup(store.Server.Close)
	return store
}

// Put replaces the object stored under path ("bucket/key").
func (s *FakeObjectStore) Put(path string, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[path] = body
}

// FailWith makes every following request answer with status; 0 restores
// normal behaviour.
func (s *FakeObjectStore) FailWith(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// Requests returns the requests received so far.
func (s *FakeObjectStore) Requests() []*http.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*http.Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Settings returns storage settings pointing at the fake server.
func (s *FakeObjectStore) Settings(bucket, indexFile string) config.StorageSettings {
	settings := config.StorageSettings{
		Endpoint:  s.Server.URL,
		Bucket:    bucket,
		IndexFile: indexFile,
		Timeout:   5 * time.Second,
	}
	settings.ApplyDefaults()
	return settings
}

func (s *FakeObjectStore) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests = append(s.requests, r.Clone(r.Context()))
	status := s.status
	body, ok := s.objects[strings.TrimPrefix(r.URL.Path, "/")]
	s.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !ok {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>` +
			`<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

// AssertLeafPaths checks that every candidate sits under the path derived from
// its own grouping keys and that the index holds exactly want candidates.
func AssertLeafPaths(t *testing.T, idx *model.GroupedIndex, want int) {
	t.Helper()
	count := 0
	idx.Walk(func(district, adminUnit, party string, c model.Candidate) {
		count++
		assert.Equal(t, orDefault(c.District, model.NoDistrict), district, "district path for %s", c.Name)
		assert.Equal(t, orDefault(c.AdminUnit, model.NoAdminUnit), adminUnit, "admin unit path for %s", c.Name)
		assert.Equal(t, orDefault(c.PartyName, model.NoParty), party, "party path for %s", c.Name)
	})
	assert.Equal(t, want, count, "candidate count across leaves")
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// JobPollingOptions configures job polling behavior
type JobPollingOptions struct {
	Timeout      time.Duration
	PollInterval time.Duration
	LogProgress  bool
}

// DefaultJobPollingOptions returns sensible defaults for job polling
func DefaultJobPollingOptions() JobPollingOptions {
	return JobPollingOptions{
		Timeout:      5 * time.Second,
		PollInterval: 10 * time.Millisecond,
		LogProgress:  false,
	}
}

// WaitForJob polls a job until it reaches a terminal status or times out
func WaitForJob(t *testing.T, jobs services.JobTracker, jobID string, opts JobPollingOptions) *model.Job {
	t.Helper()
	timeout := time.After(opts.Timeout)
	ticker := time.NewTicker(opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			t.Fatalf("Job %s did not finish within %v timeout", jobID, opts.Timeout)
			return nil
		case <-ticker.C:
			job, err := jobs.GetJob(jobID)
			require.NoError(t, err, "Failed to get job status")

			if job.Status.IsTerminal() {
				return job
			}
			if opts.LogProgress && job.Progress != nil {
				t.Logf("Job %s progress: %d/%d - %s", jobID, job.Progress.Current, job.Progress.Total, job.Progress.Message)
			}
		}
	}
}

// AssertJobCompleted verifies that a job completed successfully
func AssertJobCompleted(t *testing.T, job *model.Job, expectedType model.JobType) {
	t.Helper()
	assert.Equal(t, model.JobStatusCompleted, job.Status, "Job should be completed")
	assert.Equal(t, expectedType, job.Type, "Job type should match")
	assert.NotNil(t, job.CompletedAt, "Job should have completion timestamp")
	assert.Empty(t, job.Error, "Job should not have error")
}

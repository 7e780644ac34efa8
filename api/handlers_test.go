package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gcbaptista/candidate-search/config"
	"github.com/gcbaptista/candidate-search/internal/analytics"
	"github.com/gcbaptista/candidate-search/internal/jobs"
	"github.com/gcbaptista/candidate-search/internal/objectstore"
	"github.com/gcbaptista/candidate-search/internal/search"
	testutil "github.com/gcbaptista/candidate-search/internal/testing"
	"github.com/gcbaptista/candidate-search/model"
)

type testServer struct {
	router    *gin.Engine
	service   *search.Service
	jobs      *jobs.Manager
	store     *testutil.FakeObjectStore
	analytics *analytics.Service
}

func setupTestServer(t *testing.T, corpus []model.Candidate) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := testutil.NewFakeObjectStore(t, map[string][]byte{
		"candidates2/fuse-index.json":               testutil.SampleCorpusJSON(t),
		"candidates2/CANDIDATES/ANTI KALJUMÄE.json": []byte(`{"name":"ANTI KALJUMÄE","votes":[312]}`),
	})
	client, err := objectstore.NewClient(store.Settings("candidates2", "fuse-index.json"), zap.NewNop())
	require.NoError(t, err)

	manager := jobs.NewManager(1, zap.NewNop())
	manager.Start()
	t.Cleanup(manager.Stop)

	service, err := search.NewService(search.Options{
		Matcher: config.NewMatcherSettings(),
		Source:  client,
		Jobs:    manager,
		DataDir: t.TempDir(),
		Logger:  zap.NewNop(),
	})
	require.NoError(t, err)
	tracker := analytics.NewService(service, "", zap.NewNop())
	service.SetRecorder(tracker)
	if corpus != nil {
		service.Load(corpus, "test")
	}

	router := gin.New()
	router.Use(RequestIDMiddleware(), CORSMiddleware(), RequestSizeLimitMiddleware(1<<20))
	SetupRoutes(router, Dependencies{
		Searcher:  service,
		Refresher: service,
		Details:   client,
		Jobs:      manager,
		Analytics: tracker,
		PerParty:  config.DefaultPerParty,
	})

	return &testServer{router: router, service: service, jobs: manager, store: store, analytics: tracker}
}

func (s *testServer) do(t *testing.T, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func searchPath(query string, extra ...string) string {
	values := url.Values{}
	values.Set("q", query)
	for i := 0; i+1 < len(extra); i += 2 {
		values.Set(extra[i], extra[i+1])
	}
	return "/candidates/_search?" + values.Encode()
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return v
}

func TestHealthCheckHandler(t *testing.T) {
	server := setupTestServer(t, testutil.SampleCandidates())

	w := server.do(t, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)

	body := decode[map[string]interface{}](t, w)
	assert.Equal(t, "healthy", body["status"])
	corpus := body["corpus"].(map[string]interface{})
	assert.Equal(t, true, corpus["loaded"])
	assert.Equal(t, float64(6), corpus["corpus_size"])
}

func TestSearchHandler_Scenario(t *testing.T) {
	server := setupTestServer(t, testutil.SampleCandidates())

	w := server.do(t, http.MethodGet, searchPath("  Anti "))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	resp := decode[SearchResponse](t, w)
	assert.Equal(t, "Anti", resp.Query, "query is trimmed")
	assert.Equal(t, 1, resp.Total)
	assert.True(t, resp.Searched)
	assert.Empty(t, resp.Message)
	assert.Equal(t, 6, resp.CorpusSize)
	assert.Equal(t, config.DefaultPerParty, resp.PerParty)
	assert.NotEmpty(t, resp.QueryId)

	require.Len(t, resp.Districts, 1)
	assert.Equal(t, "Harju", resp.Districts[0].Name)
	require.Len(t, resp.Districts[0].AdminUnits, 1)
	assert.Equal(t, "Tallinn", resp.Districts[0].AdminUnits[0].Name)
	party := resp.Districts[0].AdminUnits[0].Parties[0]
	assert.Equal(t, "Erakond X", party.Name)
	assert.Equal(t, 1, party.Total)
	assert.Equal(t, []model.Candidate{testutil.SampleCandidates()[0]}, party.Candidates)
}

func TestSearchHandler_Messages(t *testing.T) {
	server := setupTestServer(t, testutil.SampleCandidates())

	tests := []struct {
		name    string
		query   string
		message string
	}{
		{"empty query", "", "No query entered."},
		{"whitespace query", "   ", "No query entered."},
		{"short query", "T", "No candidates found matching your search."},
		{"no match", "zzzzzz", "No candidates found matching your search."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := server.do(t, http.MethodGet, searchPath(tt.query))
			require.Equal(t, http.StatusOK, w.Code)

			resp := decode[SearchResponse](t, w)
			assert.Equal(t, 0, resp.Total)
			assert.Equal(t, tt.message, resp.Message)
			assert.NotNil(t, resp.Districts)
			assert.Empty(t, resp.Districts)
		})
	}

	raw := decode[map[string]interface{}](t, server.do(t, http.MethodGet, searchPath("")))
	assert.Equal(t, []interface{}{}, raw["districts"], "districts serializes as an empty array")
}

func TestSearchHandler_PerParty(t *testing.T) {
	var corpus []model.Candidate
	for i := 1; i <= 7; i++ {
		corpus = append(corpus, model.Candidate{
			Name: fmt.Sprintf("Kask %d", i), PartyName: "Erakond X",
			CandidateRegNumber: i, District: "Harju", AdminUnit: "Tallinn",
		})
	}
	server := setupTestServer(t, corpus)

	tests := []struct {
		perParty string
		want     int
	}{
		{"", 5},
		{"2", 2},
		{"0", 7},
		{"10", 7},
	}
	for _, tt := range tests {
		t.Run("per_party="+tt.perParty, func(t *testing.T) {
			target := searchPath("Kask")
			if tt.perParty != "" {
				target = searchPath("Kask", "per_party", tt.perParty)
			}
			w := server.do(t, http.MethodGet, target)
			require.Equal(t, http.StatusOK, w.Code)

			resp := decode[SearchResponse](t, w)
			assert.Equal(t, 7, resp.Total)
			party := resp.Districts[0].AdminUnits[0].Parties[0]
			assert.Equal(t, 7, party.Total)
			assert.Len(t, party.Candidates, tt.want)
			assert.Equal(t, "Kask 1", party.Candidates[0].Name, "candidates keep rank order")
		})
	}
}

func TestSearchHandler_InvalidParams(t *testing.T) {
	server := setupTestServer(t, testutil.SampleCandidates())

	for _, target := range []string{
		searchPath("Tamm", "per_party", "-1"),
		searchPath("Tamm", "per_party", "many"),
		searchPath("Tamm", "sort_keys", "maybe"),
		searchPath(string(make([]byte, MaxQueryLength+1))),
	} {
		w := server.do(t, http.MethodGet, target)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)

		apiErr := decode[APIError](t, w)
		assert.Equal(t, ErrorCodeValidationFailed, apiErr.Code)
		assert.NotEmpty(t, apiErr.Details)
		assert.NotEmpty(t, apiErr.RequestID)
	}
}

func TestSearchHandler_SortKeys(t *testing.T) {
	server := setupTestServer(t, []model.Candidate{
		{Name: "Jaan Tamm", District: "Tartumaa", AdminUnit: "Tartu linn", PartyName: "Z"},
		{Name: "Mari Tamm", District: "Harju", AdminUnit: "Tallinn", PartyName: "A"},
	})

	resp := decode[SearchResponse](t, server.do(t, http.MethodGet, searchPath("Tamm")))
	assert.Equal(t, "Tartumaa", resp.Districts[0].Name)

	resp = decode[SearchResponse](t, server.do(t, http.MethodGet, searchPath("Tamm", "sort_keys", "true")))
	assert.Equal(t, "Harju", resp.Districts[0].Name)
}

func TestSearchHandler_CorpusUnavailable(t *testing.T) {
	server := setupTestServer(t, nil)

	w := server.do(t, http.MethodGet, searchPath("Tamm"))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, ErrorCodeCorpusUnavailable, decode[APIError](t, w).Code)

	w = server.do(t, http.MethodGet, "/candidates/count")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCountHandler(t *testing.T) {
	server := setupTestServer(t, testutil.SampleCandidates())

	w := server.do(t, http.MethodGet, "/candidates/count")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]interface{}](t, w)
	assert.Equal(t, float64(6), body["count"])
	assert.Equal(t, "test", body["source"])
}

func TestCandidateDetailsHandler(t *testing.T) {
	server := setupTestServer(t, testutil.SampleCandidates())

	w := server.do(t, http.MethodGet, "/candidates/details?file="+url.QueryEscape("CANDIDATES/ANTI KALJUMÄE.json"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"name":"ANTI KALJUMÄE","votes":[312]}`, w.Body.String())

	w = server.do(t, http.MethodGet, "/candidates/details?file="+url.QueryEscape("CANDIDATES/NOBODY.json"))
	assert.Equal(t, http.StatusNotFound, w.Code)
	apiErr := decode[APIError](t, w)
	assert.Equal(t, ErrorCodeCandidateFileNotFound, apiErr.Code)
	assert.Equal(t, "candidate file not found: CANDIDATES/NOBODY.json", apiErr.Message)

	w = server.do(t, http.MethodGet, "/candidates/details")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = server.do(t, http.MethodGet, "/candidates/details?file="+url.QueryEscape("../secret.json"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCandidateDetailsHandler_StorageDown(t *testing.T) {
	server := setupTestServer(t, testutil.SampleCandidates())
	server.store.FailWith(http.StatusInternalServerError)

	w := server.do(t, http.MethodGet, "/candidates/details?file="+url.QueryEscape("CANDIDATES/ANTI KALJUMÄE.json"))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, ErrorCodeCorpusUnavailable, decode[APIError](t, w).Code)
}

func TestRefreshCorpusHandler(t *testing.T) {
	server := setupTestServer(t, nil)

	w := server.do(t, http.MethodPost, "/corpus/refresh")
	require.Equal(t, http.StatusAccepted, w.Code)
	body := decode[map[string]interface{}](t, w)
	jobID, _ := body["job_id"].(string)
	require.NotEmpty(t, jobID)

	job := testutil.WaitForJob(t, server.jobs, jobID, testutil.DefaultJobPollingOptions())
	testutil.AssertJobCompleted(t, job, model.JobTypeRefreshCorpus)

	w = server.do(t, http.MethodGet, "/jobs/"+jobID)
	require.Equal(t, http.StatusOK, w.Code)
	fetched := decode[model.Job](t, w)
	assert.Equal(t, model.JobStatusCompleted, fetched.Status)
	assert.Equal(t, "candidates2/fuse-index.json", fetched.Source)
	assert.Equal(t, "6", fetched.Metadata["candidates"])

	resp := decode[SearchResponse](t, server.do(t, http.MethodGet, searchPath("Tamm")))
	assert.Equal(t, 3, resp.Total)
}

func TestRefreshCorpusHandler_InvalidCorpus(t *testing.T) {
	server := setupTestServer(t, testutil.SampleCandidates())
	server.store.Put("candidates2/fuse-index.json", []byte(`{"not":"an array"}`))

	w := server.do(t, http.MethodPost, "/corpus/refresh")
	require.Equal(t, http.StatusAccepted, w.Code)
	jobID := decode[map[string]interface{}](t, w)["job_id"].(string)

	job := testutil.WaitForJob(t, server.jobs, jobID, testutil.DefaultJobPollingOptions())
	assert.Equal(t, model.JobStatusFailed, job.Status)
	assert.Contains(t, job.Error, "response data is not a valid array")

	resp := decode[SearchResponse](t, server.do(t, http.MethodGet, searchPath("Anti")))
	assert.Equal(t, 1, resp.Total, "previous corpus is still served")
}

func TestJobHandlers(t *testing.T) {
	server := setupTestServer(t, testutil.SampleCandidates())

	w := server.do(t, http.MethodGet, "/jobs/does-not-exist")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, ErrorCodeJobNotFound, decode[APIError](t, w).Code)

	jobID := decode[map[string]interface{}](t, server.do(t, http.MethodPost, "/corpus/refresh"))["job_id"].(string)
	testutil.WaitForJob(t, server.jobs, jobID, testutil.DefaultJobPollingOptions())

	w = server.do(t, http.MethodGet, "/jobs?status=completed")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[map[string]interface{}](t, w)
	assert.Equal(t, float64(1), list["total"])

	w = server.do(t, http.MethodGet, "/jobs?status=bogus")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = server.do(t, http.MethodGet, "/jobs/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	metrics := decode[map[string]interface{}](t, w)
	assert.Equal(t, 1.0, metrics["success_rate"])
	assert.Equal(t, float64(1), metrics["metrics"].(map[string]interface{})["jobs_completed"])
}

func TestGetAnalyticsHandler(t *testing.T) {
	server := setupTestServer(t, testutil.SampleCandidates())

	server.do(t, http.MethodGet, searchPath("Tamm"))
	server.do(t, http.MethodGet, searchPath("tamm"))
	server.do(t, http.MethodGet, searchPath("zzzzzz"))
	server.do(t, http.MethodGet, searchPath(""))

	w := server.do(t, http.MethodGet, "/analytics")
	require.Equal(t, http.StatusOK, w.Code)
	summary := decode[model.AnalyticsSummary](t, w)
	assert.Equal(t, 4, summary.TotalSearches)
	assert.Equal(t, 1, summary.ZeroResultSearches)
	assert.Equal(t, 1, summary.ShortQuerySearches)
	assert.Equal(t, 6, summary.CorpusSize)
	require.NotEmpty(t, summary.PopularSearches)
	assert.Equal(t, model.PopularSearch{Query: "tamm", SearchCount: 2}, summary.PopularSearches[0])
}

func TestOptionalDependencies(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service, err := search.NewService(search.Options{Matcher: config.NewMatcherSettings()})
	require.NoError(t, err)
	service.Load(testutil.SampleCandidates(), "test")

	router := gin.New()
	SetupRoutes(router, Dependencies{Searcher: service, PerParty: config.DefaultPerParty})
	server := &testServer{router: router}

	for _, target := range []struct{ method, path string }{
		{http.MethodPost, "/corpus/refresh"},
		{http.MethodGet, "/candidates/details?file=CANDIDATES/X.json"},
		{http.MethodGet, "/jobs"},
		{http.MethodGet, "/jobs/metrics"},
		{http.MethodGet, "/jobs/abc"},
		{http.MethodGet, "/analytics"},
	} {
		w := server.do(t, target.method, target.path)
		assert.Equal(t, http.StatusNotImplemented, w.Code, target.path)
	}

	w := server.do(t, http.MethodGet, searchPath("Anti"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMiddleware(t *testing.T) {
	server := setupTestServer(t, testutil.SampleCandidates())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = server.do(t, http.MethodOptions, "/candidates/_search")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestLoggerMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestIDMiddleware(), LoggerMiddleware(zap.NewNop()))
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	for path, want := range map[string]int{"/ok": http.StatusOK, "/boom": http.StatusInternalServerError} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, w.Code)
	}
}

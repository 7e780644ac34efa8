package objectstore

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gcbaptista/candidate-search/config"
	"github.com/gcbaptista/candidate-search/internal/errors"
	testutil "github.com/gcbaptista/candidate-search/internal/testing"
)

func newTestClient(t *testing.T, store *testutil.FakeObjectStore) *Client {
	t.Helper()
	client, err := NewClient(store.Settings("candidates2", "fuse-index.json"), zap.NewNop())
	require.NoError(t, err)
	return client
}

func TestNewClient_InvalidSettings(t *testing.T) {
	_, err := NewClient(config.StorageSettings{Endpoint: "not a url", Bucket: "b"}, nil)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestClient_Describe(t *testing.T) {
	store := testutil.NewFakeObjectStore(t, nil)
	assert.Equal(t, "candidates2/fuse-index.json", newTestClient(t, store).Describe())
}

func TestClient_FetchCandidates(t *testing.T) {
	store := testutil.NewFakeObjectStore(t, map[string][]byte{
		"candidates2/fuse-index.json": testutil.SampleCorpusJSON(t),
	})
	client := newTestClient(t, store)

	candidates, err := client.FetchCandidates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testutil.SampleCandidates(), candidates)

	requests := store.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, http.MethodGet, requests[0].Method)
	assert.Equal(t, "/candidates2/fuse-index.json", requests[0].URL.Path)
	assert.Equal(t, "application/json", requests[0].Header.Get("Accept"))
	assert.Empty(t, requests[0].Header.Get("Authorization"), "anonymous requests are not signed")
}

func TestClient_FetchCandidatesSigned(t *testing.T) {
	store := testutil.NewFakeObjectStore(t, map[string][]byte{
		"candidates2/fuse-index.json": []byte(`[]`),
	})
	settings := store.Settings("candidates2", "fuse-index.json")
	settings.AccessKeyID = "minio"
	settings.SecretAccessKey = "minio-secret"
	client, err := NewClient(settings, zap.NewNop())
	require.NoError(t, err)

	candidates, err := client.FetchCandidates(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, candidates)
	assert.Empty(t, candidates)

	requests := store.Requests()
	require.Len(t, requests, 1)
	assert.Contains(t, requests[0].Header.Get("Authorization"), "Credential=minio/")
}

func TestClient_FetchCandidatesNotAnArray(t *testing.T) {
	for name, body := range map[string]string{
		"object":      `{"candidates": []}`,
		"string":      `"nope"`,
		"empty":       ``,
		"broken":      `[{"name": "Anti"`,
		"wrong types": `[{"candidateRegNumber": "abc"}]`,
	} {
		t.Run(name, func(t *testing.T) {
			store := testutil.NewFakeObjectStore(t, map[string][]byte{
				"candidates2/fuse-index.json": []byte(body),
			})

			_, err := newTestClient(t, store).FetchCandidates(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidCorpus)
			assert.Contains(t, err.Error(), "response data is not a valid array")
		})
	}
}

func TestClient_FetchCandidatesServerError(t *testing.T) {
	store := testutil.NewFakeObjectStore(t, nil)
	store.FailWith(http.StatusInternalServerError)

	_, err := newTestClient(t, store).FetchCandidates(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrCorpusUnavailable)

	var unavailable *errors.CorpusUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, http.StatusInternalServerError, unavailable.StatusCode)
	assert.Len(t, store.Requests(), 1, "requests are not retried")
}

func TestClient_FetchCandidatesMissingIndex(t *testing.T) {
	store := testutil.NewFakeObjectStore(t, nil)

	_, err := newTestClient(t, store).FetchCandidates(context.Background())
	assert.ErrorIs(t, err, errors.ErrCorpusUnavailable)
	assert.NotErrorIs(t, err, errors.ErrCandidateFileNotFound)
}

func TestClient_FetchCandidatesUnreachable(t *testing.T) {
	store := testutil.NewFakeObjectStore(t, nil)
	settings := store.Settings("candidates2", "fuse-index.json")
	settings.Timeout = time.Second
	store.Server.Close()

	client, err := NewClient(settings, zap.NewNop())
	require.NoError(t, err)

	_, err = client.FetchCandidates(context.Background())
	var unavailable *errors.CorpusUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Zero(t, unavailable.StatusCode)
}

func TestClient_FetchCandidatesCancelled(t *testing.T) {
	store := testutil.NewFakeObjectStore(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(t, store).FetchCandidates(ctx)
	assert.ErrorIs(t, err, errors.ErrCorpusUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_FetchCandidateDetails(t *testing.T) {
	details := []byte(`{"name": "ANTI KALJUMÄE", "history": []}`)
	store := testutil.NewFakeObjectStore(t, map[string][]byte{
		"candidates2/CANDIDATES/ANTI KALJUMÄE.json": details,
	})
	client := newTestClient(t, store)

	raw, err := client.FetchCandidateDetails(context.Background(), "CANDIDATES/ANTI KALJUMÄE.json")
	require.NoError(t, err)
	assert.JSONEq(t, string(details), string(raw))
}

func TestClient_FetchCandidateDetailsNotFound(t *testing.T) {
	store := testutil.NewFakeObjectStore(t, nil)

	_, err := newTestClient(t, store).FetchCandidateDetails(context.Background(), "CANDIDATES/NOBODY.json")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrCandidateFileNotFound)
	assert.Equal(t, "candidate file not found: CANDIDATES/NOBODY.json", err.Error())
}

func TestClient_FetchCandidateDetailsEmptyName(t *testing.T) {
	store := testutil.NewFakeObjectStore(t, nil)

	_, err := newTestClient(t, store).FetchCandidateDetails(context.Background(), "  ")
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
	assert.Empty(t, store.Requests())
}

func TestClient_FetchCandidateDetailsInvalidJSON(t *testing.T) {
	store := testutil.NewFakeObjectStore(t, map[string][]byte{
		"candidates2/CANDIDATES/X.json": []byte("<html>"),
	})

	_, err := newTestClient(t, store).FetchCandidateDetails(context.Background(), "CANDIDATES/X.json")
	assert.ErrorIs(t, err, errors.ErrInvalidCorpus)
}

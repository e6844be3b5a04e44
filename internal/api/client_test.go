package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, Options{Timeout: 5 * time.Second})
}

func TestListReferencesSendsKeywordFilter(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/references", r.URL.Path)
		assert.Equal(t, "machine_learning,go", r.URL.Query().Get("keywords"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		w.Write([]byte(`[
			{"id":"r1","type":"url","title":"Go","indexed":true,"created_at":"2025-01-02T10:00:00Z","keywords":["go"]},
			{"id":"r2","type":"url","indexed":false,"created_at":"2025-01-03T10:00:00Z","keywords":null}
		]`))
	})

	refs, err := client.ListReferences(context.Background(), []string{"machine_learning", "go"})
	require.NoError(t, err)
	require.Len(t, refs, 2)

	assert.Equal(t, "r1", refs[0].ID)
	assert.True(t, refs[0].Indexed)
	assert.Equal(t, []string{"go"}, refs[0].Keywords)
	assert.False(t, refs[1].Indexed)
	assert.Nil(t, refs[1].Keywords)
}

func TestListReferencesWithoutFilterHasNoQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		w.Write([]byte(`null`))
	})

	refs, err := client.ListReferences(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, refs)
	assert.Empty(t, refs)
}

func TestAddReferencePostsURL(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/references/add", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"type": "url", "contents": "https://go.dev"}, body)

		w.Write([]byte(`{"id":"new","type":"url","source":"https://go.dev","indexed":false,"created_at":"2025-01-01"}`))
	})

	ref, err := client.AddReference(context.Background(), "https://go.dev")
	require.NoError(t, err)
	assert.Equal(t, "new", ref.ID)
	assert.Equal(t, "https://go.dev", ref.Source)
}

func TestAddReferenceErrorCarriesDetail(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"Invalid reference type, must be 'url'"}`))
	})

	_, err := client.AddReference(context.Background(), "https://go.dev")
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusBadRequest))
	assert.Equal(t, "Invalid reference type, must be 'url'", Detail(err, "fallback"))
}

func TestDetailFallsBackForTransportErrors(t *testing.T) {
	assert.Equal(t, "Failed to add reference", Detail(errors.New("dial tcp: refused"), "Failed to add reference"))
}

func TestDeleteAndReindexEndpoints(t *testing.T) {
	var calls []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.EscapedPath())
		switch r.Method {
		case http.MethodDelete:
			w.Write([]byte(`{"status":"success"}`))
		default:
			w.Write([]byte(`{"id":"a b","type":"url","indexed":false,"created_at":"2025-01-01"}`))
		}
	})

	require.NoError(t, client.DeleteReference(context.Background(), "a b"))
	ref, err := client.ReindexReference(context.Background(), "a b")
	require.NoError(t, err)
	assert.False(t, ref.Indexed)

	assert.Equal(t, []string{
		"DELETE /api/references/a%20b",
		"POST /api/references/a%20b/reindex",
	}, calls)
}

func TestDeleteFailureIsTypedError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	err := client.DeleteReference(context.Background(), "r1")
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusInternalServerError))
}

func TestGetReferenceWithContents(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/references/r1", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("contents"))
		w.Write([]byte(`{"id":"r1","type":"url","contents":"# Title","indexed":true,"created_at":"2025-01-01"}`))
	})

	ref, err := client.GetReference(context.Background(), "r1", true)
	require.NoError(t, err)
	assert.Equal(t, "# Title", ref.Contents)
}

func TestKeywordCountsPreserveBackendOrder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/keywords/counts", r.URL.Path)
		assert.Equal(t, "go", r.URL.Query().Get("selected_tags"))
		w.Write([]byte(`{"zeta": 5, "alpha": 10, "mid": 5}`))
	})

	counts, err := client.KeywordCounts(context.Background(), []string{"go"})
	require.NoError(t, err)
	assert.Equal(t, KeywordCounts{
		{Keyword: "zeta", Count: 5},
		{Keyword: "alpha", Count: 10},
		{Keyword: "mid", Count: 5},
	}, counts)
}

func TestKeywordCountsRejectsMalformedBodies(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "array", body: `["a"]`},
		{name: "string count", body: `{"a":"1"}`},
		{name: "negative count", body: `{"a":-1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var counts KeywordCounts
			assert.Error(t, json.Unmarshal([]byte(tt.body), &counts))
		})
	}
}

func TestReferenceKeywordsNullIsEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/references/r1/keywords", r.URL.Path)
		w.Write([]byte(`null`))
	})

	keywords, err := client.ReferenceKeywords(context.Background(), "r1")
	require.NoError(t, err)
	assert.NotNil(t, keywords)
	assert.Empty(t, keywords)
}

func TestMalformedResponseIsDecodeError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	})

	_, err := client.ListReferences(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode response")
}

func TestCircuitOpensAfterConsecutiveServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL, Options{BreakerFailures: 2, BreakerTimeout: time.Minute})

	for i := 0; i < 2; i++ {
		_, err := client.ListReferences(context.Background(), nil)
		require.Error(t, err)
		assert.True(t, IsStatus(err, http.StatusBadGateway))
	}

	_, err := client.ListReferences(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBackendUnavailable)
	assert.Equal(t, int32(2), hits.Load())
}

func TestClientErrorsDoNotOpenCircuit(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"Reference not found"}`))
	})

	for i := 0; i < 10; i++ {
		_, err := client.GetReference(context.Background(), "missing", false)
		require.Error(t, err)
		assert.True(t, IsStatus(err, http.StatusNotFound))
	}
}

func TestCreatedTime(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{in: "2025-03-01T12:30:00Z", ok: true},
		{in: "2025-03-01T12:30:00.123456+00:00", ok: true},
		{in: "2025-03-01T12:30:00.123456", ok: true},
		{in: "2025-03-01 12:30:00.123456+00:00", ok: true},
		{in: "2025-03-01", ok: true},
		{in: "yesterday", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			ts, ok := Reference{CreatedAt: tt.in}.CreatedTime()
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, 2025, ts.Year())
			}
		})
	}
}

package brave

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/web/search", r.URL.Path)
		assert.Equal(t, "agenda cultural Granollers", r.URL.Query().Get("q"))
		assert.Equal(t, "5", r.URL.Query().Get("count"))
		assert.Equal(t, "ES", r.URL.Query().Get("country"))
		assert.Equal(t, "ca", r.URL.Query().Get("search_lang"))
		assert.Equal(t, "test-key", r.Header.Get("X-Subscription-Token"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"web": {
				"results": [
					{"title": "Agenda - Granollers", "url": "https://granollers.cat/agenda", "description": "Agenda d'actes"},
					{"title": "Què fer avui", "url": "https://example.cat/avui", "description": "Activitats"}
				]
			}
		}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL), WithCount(5))

	results, err := c.Search(context.Background(), "agenda cultural Granollers")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Agenda - Granollers", results[0].Title)
	assert.Equal(t, "https://granollers.cat/agenda", results[0].URL)
	assert.Equal(t, "Agenda d'actes", results[0].Description)
}

func TestSearch_EmptyResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"web": {"results": []}}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))

	results, err := c.Search(context.Background(), "res de res")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": "rate limited"}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))

	_, err := c.Search(context.Background(), "agenda")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 429")
}

func TestSearch_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))

	_, err := c.Search(context.Background(), "agenda")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestSearch_Unreachable(t *testing.T) {
	c := NewClient("test-key", WithBaseURL("http://127.0.0.1:1"))

	_, err := c.Search(context.Background(), "agenda")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request failed")
}

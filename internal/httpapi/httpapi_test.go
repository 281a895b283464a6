package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/falcon-search/falcon/ngram"
	"github.com/falcon-search/falcon/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := store.Open(context.Background(), store.Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return New(s, ngram.New(ngram.Bigram))
}

func TestHandleAddThenSearch(t *testing.T) {
	srv := newTestServer(t)
	router := srv.Handler()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/add?t=greeting&c=Good+morning", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/search?w=morning", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var results []DocResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "greeting", results[0].Title)
}

func TestHandleSearchMissingParamIsBadRequest(t *testing.T) {
	srv := newTestServer(t)
	router := srv.Handler()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/search", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleSearchNotFoundReturnsEmptyList(t *testing.T) {
	srv := newTestServer(t)
	router := srv.Handler()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/search?w=zzzzzz", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var results []DocResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
	assert.Empty(t, results)
}

func TestHandleAddMissingParamIsBadRequest(t *testing.T) {
	srv := newTestServer(t)
	router := srv.Handler()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/add?t=onlytitle", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnmatchedRouteReturns404(t *testing.T) {
	srv := newTestServer(t)
	router := srv.Handler()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

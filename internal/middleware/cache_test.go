package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/conghuan0502/planzaa-api/pkg/errors"
)

type memoryCacheStore struct {
	entries map[string][]byte
}

func newMemoryCacheStore() *memoryCacheStore {
	return &memoryCacheStore{entries: make(map[string][]byte)}
}

func (m *memoryCacheStore) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheStore) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func newCacheTestRouter(store ResponseCacheStore, handlerCalls *int32) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ResponseCache(store, nil, nil, time.Minute))
	r.GET("/api/v1/events", func(c *gin.Context) {
		atomic.AddInt32(handlerCalls, 1)
		c.JSON(http.StatusOK, gin.H{"data": []string{"ev-1"}})
	})
	r.GET("/api/v1/fail", func(c *gin.Context) {
		atomic.AddInt32(handlerCalls, 1)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "boom"})
	})
	return r
}

func TestResponseCacheServesSecondRequestFromCache(t *testing.T) {
	store := newMemoryCacheStore()
	var calls int32
	router := newCacheTestRouter(store, &calls)

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/v1/events", nil))
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/api/v1/events", nil))
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestResponseCacheSkipsNonOKResponses(t *testing.T) {
	store := newMemoryCacheStore()
	var calls int32
	router := newCacheTestRouter(store, &calls)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/fail", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Empty(t, store.entries)
}

func TestResponseCacheKeysIncludeQueryString(t *testing.T) {
	store := newMemoryCacheStore()
	var calls int32
	router := newCacheTestRouter(store, &calls)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/events?page=1", nil))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/events?page=2", nil))

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Contains(t, store.entries, "httpcache:/api/v1/events?page=1")
	assert.Contains(t, store.entries, "httpcache:/api/v1/events?page=2")
}

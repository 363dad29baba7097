package words

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Hour)
}

func TestMeaningFetchesAndCaches(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "kitap", r.URL.Query().Get("ara"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"madde":"kitap","anlamlarListe":[{"anlam":"Ciltli veya ciltsiz olarak bir araya getirilmiş basılı veya yazılı kâğıt yaprakların bütünü"}]}]`))
	}))
	defer srv.Close()

	client := NewMeaningClient(srv.URL, srv.Client(), newRedisCache(t), zerolog.New(io.Discard))
	ctx := context.Background()

	first := client.Meaning(ctx, "KİTAP")
	assert.Contains(t, first, "Ciltli")
	second := client.Meaning(ctx, "kitap")
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), hits.Load())
}

func TestMeaningDegradesToPlaceholder(t *testing.T) {
	notFound := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"Sonuç bulunamadı"}`))
	}))
	defer notFound.Close()

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer failing.Close()

	ctx := context.Background()
	logger := zerolog.New(io.Discard)

	assert.Equal(t, Placeholder, NewMeaningClient(notFound.URL, nil, nil, logger).Meaning(ctx, "KALEM"))
	assert.Equal(t, Placeholder, NewMeaningClient(failing.URL, nil, nil, logger).Meaning(ctx, "KALEM"))
	assert.Equal(t, Placeholder, NewMeaningClient(failing.URL, nil, nil, logger).Meaning(ctx, "   "))
}

func TestCacheMiss(t *testing.T) {
	cache := newRedisCache(t)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "KALEM")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, "KALEM", "Yazı yazmaya yarayan araç"))
	meaning, ok, err := cache.Get(ctx, "KALEM")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Yazı yazmaya yarayan araç", meaning)
}

func TestMeaningHandler(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"Sonuç bulunamadı"}`))
	}))
	defer srv.Close()

	r := chi.NewRouter()
	r.Get("/v1/words/{word}/meaning", NewHTTPHandler(NewMeaningClient(srv.URL, srv.Client(), nil, zerolog.Nop())).HandleMeaning)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/words/"+url.PathEscape("kalem")+"/meaning", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"word":"KALEM","meaning":"Anlam bulunamadı."}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/words/abc1/meaning", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

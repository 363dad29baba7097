package game_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/kelime-arena/internal/auth"
	"github.com/gokatarajesh/kelime-arena/internal/auth/jwt"
	"github.com/gokatarajesh/kelime-arena/internal/game"
)

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	f := newFixture(t, nil)
	h := game.NewHTTPHandlers(f.svc, zerolog.Nop())

	r := chi.NewRouter()
	r.Route("/v1", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				if id := req.Header.Get("X-Player"); id != "" {
					claims := &jwt.Claims{PlayerID: id, Username: strings.ToUpper(id[:1]) + id[1:]}
					req = req.WithContext(auth.WithClaims(req.Context(), claims))
				}
				next.ServeHTTP(w, req)
			})
		})
		h.Routes(r)
	})
	return r
}

func call(t *testing.T, h http.Handler, method, path, player, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if player != "" {
		req.Header.Set("X-Player", player)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	out := map[string]interface{}{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec.Code, out
}

func TestHTTPDuelFlow(t *testing.T) {
	r := newRouter(t)

	status, body := call(t, r, http.MethodPost, "/v1/games", "alice", `{"mode":"duel","word_length":5,"match_length":1}`)
	require.Equal(t, http.StatusCreated, status)
	id := body["id"].(string)
	assert.Equal(t, "waiting", body["status"])
	assert.NotContains(t, body, "secret_word")

	status, body = call(t, r, http.MethodPost, "/v1/games/"+id+"/guess", "alice", `{"word":"KALEM"}`)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "not_playing", body["error"])

	status, body = call(t, r, http.MethodPost, "/v1/games/"+id+"/join", "bob", ``)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "playing", body["status"])
	assert.Equal(t, "alice", body["current_player_id"])

	status, body = call(t, r, http.MethodPost, "/v1/games/"+id+"/guess", "bob", `{"word":"KALEM"}`)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "not_your_turn", body["error"])

	status, body = call(t, r, http.MethodPost, "/v1/games/"+id+"/guess", "alice", `{"word":"QQQQQ"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "invalid_word", body["error"])

	status, body = call(t, r, http.MethodPost, "/v1/games/"+id+"/guess", "alice", `{"word":"kalem"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "finished", body["status"])
	assert.Equal(t, "KALEM", body["secret_word"])

	status, body = call(t, r, http.MethodPost, "/v1/games/"+id+"/next-round", "bob", ``)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "match_complete", body["error"])

	status, _ = call(t, r, http.MethodPost, "/v1/games/"+id+"/leave", "bob", ``)
	assert.Equal(t, http.StatusNoContent, status)
}

func TestHTTPErrors(t *testing.T) {
	r := newRouter(t)

	status, body := call(t, r, http.MethodGet, "/v1/games/NOPE00", "alice", ``)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "session_not_found", body["error"])

	status, _ = call(t, r, http.MethodPost, "/v1/games", "", `{}`)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = call(t, r, http.MethodPost, "/v1/games", "alice", `{"mode":"duel","word_length":7}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_settings", body["error"])

	status, _ = call(t, r, http.MethodPost, "/v1/games", "alice", `not json`)
	assert.Equal(t, http.StatusBadRequest, status)
}

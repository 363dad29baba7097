package leaderboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/kelime-arena/internal/game"
)

func newTestService(t *testing.T, now time.Time) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	svc := NewService(client, zerolog.Nop(), ServiceOptions{
		TopN:  10,
		Clock: func() time.Time { return now },
	})
	return svc, mr
}

func duelReport(id, winner string, alice, bob int) game.MatchReport {
	return game.MatchReport{
		GameID:   id,
		Mode:     game.ModeDuel,
		WinnerID: winner,
		Players: []game.PlayerResult{
			{PlayerID: "alice", Username: "Alice", Score: alice},
			{PlayerID: "bob", Username: "Bob", Score: bob},
		},
	}
}

func TestRecordMatchAccumulates(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC))

	require.NoError(t, svc.RecordMatch(ctx, duelReport("G1", "alice", 1800, 600)))
	require.NoError(t, svc.RecordMatch(ctx, duelReport("G2", "bob", 200, 1000)))

	for _, window := range []string{WindowWeekly, WindowAllTime} {
		top, err := svc.Top(ctx, window, 10)
		require.NoError(t, err)
		require.Len(t, top, 2)
		assert.Equal(t, Entry{Rank: 1, PlayerID: "alice", Username: "Alice", Score: 2000, Wins: 1, Games: 2}, top[0])
		assert.Equal(t, Entry{Rank: 2, PlayerID: "bob", Username: "Bob", Score: 1600, Wins: 1, Games: 2}, top[1])
	}
}

func TestCPUIsNotRanked(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, time.Now())

	require.NoError(t, svc.RecordMatch(ctx, game.MatchReport{
		GameID:   "C1",
		Mode:     game.ModeCPU,
		WinnerID: game.CPUPlayerID,
		Players: []game.PlayerResult{
			{PlayerID: "alice", Username: "Alice", Score: 400},
			{PlayerID: game.CPUPlayerID, Username: game.CPUUsername, Score: 1000},
		},
	}))

	top, err := svc.Top(ctx, WindowAllTime, 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "alice", top[0].PlayerID)
	assert.Zero(t, top[0].Wins)
}

func TestWeeklyWindowRollsOver(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	svc, mr := newTestService(t, now)

	require.NoError(t, svc.RecordMatch(ctx, duelReport("G1", "alice", 1000, 0)))
	assert.True(t, mr.Exists("lb:weekly:2026-W10"))
	assert.Greater(t, mr.TTL("lb:weekly:2026-W10"), time.Duration(0))
	assert.Zero(t, mr.TTL("lb:all_time"))

	svc.now = func() time.Time { return now.Add(7 * 24 * time.Hour) }
	top, err := svc.Top(ctx, WindowWeekly, 10)
	require.NoError(t, err)
	assert.Empty(t, top)

	top, err = svc.Top(ctx, WindowAllTime, 10)
	require.NoError(t, err)
	assert.Len(t, top, 2)
}

func TestHTTPHandler(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, time.Now())
	require.NoError(t, svc.RecordMatch(ctx, duelReport("G1", "alice", 1000, 0)))

	r := chi.NewRouter()
	r.Get("/v1/leaderboards/{window}", NewHTTPHandler(svc, zerolog.Nop()).HandleGet)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/leaderboards/all_time?limit=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Window string  `json:"window"`
		Top    []Entry `json:"top"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "all_time", body.Window)
	require.Len(t, body.Top, 1)
	assert.Equal(t, "alice", body.Top[0].PlayerID)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/leaderboards/daily", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

package archive

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/kelime-arena/internal/game"
)

type failingLister struct{}

func (failingLister) RecentMatches(ctx context.Context, limit int) ([]game.MatchReport, error) {
	return nil, errors.New("disk gone")
}

func TestHandleRecentListsNewestFirst(t *testing.T) {
	repo := openTestSQLite(t)
	ctx := context.Background()
	require.NoError(t, repo.SaveMatch(ctx, game.MatchReport{
		GameID: "g1", Mode: game.ModeSolo, Rounds: 1, WinnerID: "p1", FinishedAt: finished,
		Players: []game.PlayerResult{{PlayerID: "p1", Username: "ali", Score: 1000}},
	}))
	require.NoError(t, repo.SaveMatch(ctx, game.MatchReport{
		GameID: "g2", Mode: game.ModeDuel, Rounds: 3, FinishedAt: finished.Add(time.Minute),
		Players: []game.PlayerResult{{PlayerID: "p1", Username: "ali"}, {PlayerID: "p2", Username: "veli"}},
	}))

	h := NewHTTPHandler(repo, zerolog.Nop())
	rr := httptest.NewRecorder()
	h.HandleRecent(rr, httptest.NewRequest(http.MethodGet, "/v1/matches/recent?limit=1", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Matches []game.MatchReport `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Matches, 1)
	assert.Equal(t, "g2", body.Matches[0].GameID)
	assert.Len(t, body.Matches[0].Players, 2)
}

func TestHandleRecentEmptyArchive(t *testing.T) {
	h := NewHTTPHandler(openTestSQLite(t), zerolog.Nop())
	rr := httptest.NewRecorder()
	h.HandleRecent(rr, httptest.NewRequest(http.MethodGet, "/v1/matches/recent", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"matches":[]}`, rr.Body.String())
}

func TestHandleRecentQueryFailure(t *testing.T) {
	h := NewHTTPHandler(failingLister{}, zerolog.Nop())
	rr := httptest.NewRecorder()
	h.HandleRecent(rr, httptest.NewRequest(http.MethodGet, "/v1/matches/recent", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "internal_error")
}

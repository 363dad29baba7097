package archive

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/kelime-arena/internal/game"
	httperrors "github.com/gokatarajesh/kelime-arena/pkg/http/errors"
)

// MatchLister is implemented by archives that can read back concluded matches.
type MatchLister interface {
	RecentMatches(ctx context.Context, limit int) ([]game.MatchReport, error)
}

// HTTPHandler serves read-only archive queries.
type HTTPHandler struct {
	matches MatchLister
	logger  zerolog.Logger
}

func NewHTTPHandler(matches MatchLister, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		matches: matches,
		logger:  logger.With().Str("component", "archive_http").Logger(),
	}
}

// HandleRecent lists the newest concluded matches.
// Route: GET /v1/matches/recent?limit=20
func (h *HTTPHandler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	matches, err := h.matches.RecentMatches(r.Context(), limit)
	if err != nil {
		h.logger.Warn().Err(err).Msg("recent matches query failed")
		httperrors.RespondInternalError(w, "failed to fetch matches")
		return
	}
	if matches == nil {
		matches = []game.MatchReport{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"matches": matches}); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

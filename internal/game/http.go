package game

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/kelime-arena/internal/auth"
	httperrors "github.com/gokatarajesh/kelime-arena/pkg/http/errors"
)

// HTTPHandlers provides REST endpoints for sessions.
type HTTPHandlers struct {
	service *Service
	logger  zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for session endpoints.
func NewHTTPHandlers(service *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		service: service,
		logger:  logger.With().Str("component", "game_http").Logger(),
	}
}

// CreateGameRequest is the body of POST /v1/games.
type CreateGameRequest struct {
	Mode             Mode   `json:"mode"`
	WordLength       int    `json:"word_length"`
	RandomLength     bool   `json:"random_length"`
	TimeLimitSeconds int    `json:"time_limit_seconds"`
	MatchLength      int    `json:"match_length"`
	InviteeID        string `json:"invitee_id"`
}

type guessRequest struct {
	Word string `json:"word"`
}

type failTurnRequest struct {
	Seq int `json:"seq"`
}

// Routes mounts the session endpoints. Callers must install auth middleware.
func (h *HTTPHandlers) Routes(r chi.Router) {
	r.Post("/games", h.CreateGame)
	r.Route("/games/{id}", func(r chi.Router) {
		r.Get("/", h.GetGame)
		r.Post("/join", h.JoinGame)
		r.Post("/guess", h.SubmitGuess)
		r.Post("/fail-turn", h.FailTurn)
		r.Post("/claim-timeout", h.ClaimTimeout)
		r.Post("/next-round", h.NextRound)
		r.Post("/leave", h.LeaveGame)
	})
}

// CreateGame handles POST /v1/games
func (h *HTTPHandlers) CreateGame(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	var req CreateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	if req.WordLength == 0 && !req.RandomLength {
		req.WordLength = 5
	}

	rec, err := h.service.CreateSession(r.Context(), CreateParams{
		CreatorID:    claims.PlayerID,
		Username:     claims.Username,
		Mode:         req.Mode,
		WordLength:   req.WordLength,
		RandomLength: req.RandomLength,
		TimeLimit:    time.Duration(req.TimeLimitSeconds) * time.Second,
		MatchLength:  req.MatchLength,
		InviteeID:    req.InviteeID,
	})
	if err != nil {
		h.fail(w, "create session", err)
		return
	}
	h.respondJSON(w, http.StatusCreated, NewSnapshot(rec, h.service.Now()))
}

// GetGame handles GET /v1/games/{id}
func (h *HTTPHandlers) GetGame(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get session", err)
		return
	}
	h.respondJSON(w, http.StatusOK, NewSnapshot(rec, h.service.Now()))
}

// JoinGame handles POST /v1/games/{id}/join
func (h *HTTPHandlers) JoinGame(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}
	rec, err := h.service.JoinSession(r.Context(), chi.URLParam(r, "id"), claims.PlayerID, claims.Username)
	h.respondRecord(w, "join session", rec, err)
}

// SubmitGuess handles POST /v1/games/{id}/guess
func (h *HTTPHandlers) SubmitGuess(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}
	var req guessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	rec, err := h.service.SubmitGuess(r.Context(), chi.URLParam(r, "id"), claims.PlayerID, req.Word)
	h.respondRecord(w, "submit guess", rec, err)
}

// FailTurn handles POST /v1/games/{id}/fail-turn
func (h *HTTPHandlers) FailTurn(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}
	var req failTurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	rec, err := h.service.FailTurn(r.Context(), chi.URLParam(r, "id"), claims.PlayerID, req.Seq)
	h.respondRecord(w, "fail turn", rec, err)
}

// ClaimTimeout handles POST /v1/games/{id}/claim-timeout
func (h *HTTPHandlers) ClaimTimeout(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}
	rec, err := h.service.ClaimTimeout(r.Context(), chi.URLParam(r, "id"), claims.PlayerID)
	h.respondRecord(w, "claim timeout", rec, err)
}

// NextRound handles POST /v1/games/{id}/next-round
func (h *HTTPHandlers) NextRound(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}
	rec, err := h.service.StartNextRound(r.Context(), chi.URLParam(r, "id"), claims.PlayerID)
	h.respondRecord(w, "next round", rec, err)
}

// LeaveGame handles POST /v1/games/{id}/leave
func (h *HTTPHandlers) LeaveGame(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}
	if err := h.service.LeaveSession(r.Context(), chi.URLParam(r, "id"), claims.PlayerID); err != nil {
		h.fail(w, "leave session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandlers) respondRecord(w http.ResponseWriter, op string, rec *Record, err error) {
	if err != nil {
		h.fail(w, op, err)
		return
	}
	h.respondJSON(w, http.StatusOK, NewSnapshot(rec, h.service.Now()))
}

func (h *HTTPHandlers) fail(w http.ResponseWriter, op string, err error) {
	if Code(err) == httperrors.ErrCodeInternalError {
		h.logger.Error().Err(err).Str("op", op).Msg("request failed")
	}
	respondGameError(w, err)
}

func (h *HTTPHandlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondGameError maps a session error to its HTTP status and stable code.
func respondGameError(w http.ResponseWriter, err error) {
	code := Code(err)
	if code == httperrors.ErrCodeInternalError {
		httperrors.RespondInternalError(w, "Internal error")
		return
	}
	httperrors.RespondError(w, statusFor(err), code, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNotMember), errors.Is(err, ErrNotInvited):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidLength), errors.Is(err, ErrInvalidWord):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrInvalidConfig), errors.Is(err, ErrInvalidUsername):
		return http.StatusBadRequest
	case errors.Is(err, ErrWordUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusConflict
	}
}

package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/kelime-arena/internal/auth/jwt"
	"github.com/gokatarajesh/kelime-arena/internal/metrics"
	"github.com/gokatarajesh/kelime-arena/internal/server"
	httperrors "github.com/gokatarajesh/kelime-arena/pkg/http/errors"
	ws "github.com/gokatarajesh/kelime-arena/pkg/http/ws"
)

// TokenValidator resolves an access token to its claims.
type TokenValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

// MeaningLookup returns a display definition for a word. It never fails;
// unknown words get a placeholder.
type MeaningLookup interface {
	Meaning(ctx context.Context, word string) string
}

// WSHandler streams session snapshots to members and accepts their actions.
type WSHandler struct {
	service  *Service
	hub      *ws.Hub
	tokens   TokenValidator
	meanings MeaningLookup
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// NewWSHandler creates the session WebSocket handler.
func NewWSHandler(service *Service, hub *ws.Hub, tokens TokenValidator, meanings MeaningLookup, m *metrics.Metrics, logger zerolog.Logger) *WSHandler {
	return &WSHandler{
		service:  service,
		hub:      hub,
		tokens:   tokens,
		meanings: meanings,
		metrics:  m,
		logger:   logger.With().Str("component", "game_ws").Logger(),
	}
}

// HandleWebSocket handles GET /ws/games/{id}?token=...
func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Missing token")
		return
	}
	claims, err := h.tokens.ValidateToken(token)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket token validation failed")
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Invalid token")
		return
	}

	gameID := chi.URLParam(r, "id")
	rec, err := h.service.Get(r.Context(), gameID)
	if err != nil {
		respondGameError(w, err)
		return
	}
	if !rec.IsMember(claims.PlayerID) {
		respondGameError(w, ErrNotMember)
		return
	}

	conn, err := server.WSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	h.HandleConnection(conn, gameID, claims.PlayerID)
}

// HandleConnection runs one member's connection until it closes: committed records
// are forwarded as snapshots, the member's own turn timer runs server-side and
// incoming actions are applied through the service.
func (h *WSHandler) HandleConnection(conn *websocket.Conn, gameID, playerID string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := h.logger.With().Str("game_id", gameID).Str("player_id", playerID).Logger()
	wsConn := ws.NewConnection(conn, logger)
	h.hub.Register(gameID, playerID, wsConn)
	h.metrics.ConnOpened()
	defer func() {
		h.hub.Unregister(gameID, playerID, wsConn)
		h.metrics.ConnClosed()
	}()

	go wsConn.WritePump()

	records, err := h.service.Subscribe(ctx, gameID)
	if err != nil {
		logger.Error().Err(err).Msg("subscribe failed")
		h.sendError(wsConn, "", err)
		return
	}

	timerFeed := make(chan *Record, 1)
	timer := NewTurnTimer(playerID, func(ctx context.Context, seq int) error {
		_, err := h.service.FailTurn(ctx, gameID, playerID, seq)
		return err
	}, logger).WithClock(time.Second, h.service.Now)
	go timer.Run(ctx, timerFeed)
	go h.forward(ctx, wsConn, records, timerFeed)
	go func() {
		select {
		case <-wsConn.Done():
		case <-ctx.Done():
		}
		cancel()
	}()

	wsConn.ReadPump(func(msg ws.Message) error {
		return h.handleMessage(ctx, wsConn, gameID, playerID, msg)
	})
}

// forward pushes every committed record to the client and the turn timer.
func (h *WSHandler) forward(ctx context.Context, conn *ws.Connection, records <-chan *Record, timerFeed chan *Record) {
	meaningSent := 0
	for rec := range records {
		msg, err := ws.NewMessage(ws.TypeSnapshot, NewSnapshot(rec, h.service.Now()))
		if err != nil {
			h.logger.Error().Err(err).Str("game_id", rec.ID).Msg("encode snapshot")
			continue
		}
		if err := conn.Send(msg); err != nil {
			h.logger.Debug().Err(err).Str("game_id", rec.ID).Msg("snapshot dropped")
		}
		offerLatest(timerFeed, rec)

		if rec.Status == StatusFinished && rec.CurrentRound != meaningSent {
			meaningSent = rec.CurrentRound
			go h.sendMeaning(ctx, conn, rec.ID, rec.CurrentRound, rec.SecretWord)
		}
	}
}

func (h *WSHandler) sendMeaning(ctx context.Context, conn *ws.Connection, gameID string, round int, word string) {
	msg, err := ws.NewMessage(ws.TypeRoundMeaning, ws.RoundMeaningPayload{
		GameID:  gameID,
		Round:   round,
		Word:    word,
		Meaning: h.meanings.Meaning(ctx, word),
	})
	if err != nil {
		return
	}
	_ = conn.Send(msg)
}

func (h *WSHandler) handleMessage(ctx context.Context, conn *ws.Connection, gameID, playerID string, msg ws.Message) error {
	var err error
	switch msg.Type {
	case ws.TypeSubmitGuess:
		var req ws.SubmitGuessPayload
		if jsonErr := json.Unmarshal(msg.Payload, &req); jsonErr != nil {
			return h.sendCode(conn, msg.RequestID, httperrors.ErrCodeInvalidPayload, "Invalid submit_guess payload")
		}
		_, err = h.service.SubmitGuess(ctx, gameID, playerID, req.Word)
	case ws.TypeFailTurn:
		var req ws.FailTurnPayload
		if jsonErr := json.Unmarshal(msg.Payload, &req); jsonErr != nil {
			return h.sendCode(conn, msg.RequestID, httperrors.ErrCodeInvalidPayload, "Invalid fail_turn payload")
		}
		_, err = h.service.FailTurn(ctx, gameID, playerID, req.Seq)
	case ws.TypeClaimTimeout:
		_, err = h.service.ClaimTimeout(ctx, gameID, playerID)
	case ws.TypeNextRound:
		_, err = h.service.StartNextRound(ctx, gameID, playerID)
	case ws.TypeLeave:
		if err = h.service.LeaveSession(ctx, gameID, playerID); err == nil {
			if left, msgErr := ws.NewMessage(ws.TypePlayerLeft, ws.PlayerLeftPayload{GameID: gameID, PlayerID: playerID}); msgErr == nil {
				_ = h.hub.Broadcast(gameID, playerID, left)
			}
			conn.Close()
			return nil
		}
	case ws.TypePing:
		return conn.Send(ws.Message{Type: ws.TypePong, RequestID: msg.RequestID})
	default:
		return h.sendCode(conn, msg.RequestID, httperrors.ErrCodeUnknownMessageType, fmt.Sprintf("Unknown message type: %s", msg.Type))
	}

	if err != nil {
		return h.sendError(conn, msg.RequestID, err)
	}
	return nil
}

func (h *WSHandler) sendError(conn *ws.Connection, requestID string, err error) error {
	message := err.Error()
	if Code(err) == httperrors.ErrCodeInternalError {
		h.logger.Error().Err(err).Msg("action failed")
		message = "Internal error"
	}
	return h.sendCode(conn, requestID, Code(err), message)
}

func (h *WSHandler) sendCode(conn *ws.Connection, requestID, code, message string) error {
	msg, err := ws.NewMessage(ws.TypeError, ws.ErrorPayload{Code: code, Message: message})
	if err != nil {
		return err
	}
	msg.RequestID = requestID
	if err := conn.Send(msg); err != nil && !errors.Is(err, ws.ErrConnectionClosed) {
		return err
	}
	return nil
}

// offerLatest replaces whatever is buffered in ch with rec.
func offerLatest(ch chan *Record, rec *Record) {
	for {
		select {
		case ch <- rec:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

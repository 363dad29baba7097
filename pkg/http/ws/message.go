package ws

import "encoding/json"

// MessageType constants for WebSocket protocol.
const (
	// Client -> Server
	TypeSubmitGuess  = "submit_guess"
	TypeFailTurn     = "fail_turn"
	TypeClaimTimeout = "claim_timeout"
	TypeNextRound    = "next_round"
	TypeLeave        = "leave"
	TypePing         = "ping"

	// Server -> Client
	TypeSnapshot     = "snapshot"
	TypeRoundMeaning = "round_meaning"
	TypePlayerLeft   = "player_left"
	TypeError        = "error"
	TypePong         = "pong"
)

// Message wraps all WebSocket payloads with type and optional request ID.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
}

// NewMessage marshals payload into a typed message.
func NewMessage(msgType string, payload interface{}) (Message, error) {
	msg := Message{Type: msgType}
	if payload == nil {
		return msg, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	msg.Payload = raw
	return msg, nil
}

// Client Messages (incoming)

type SubmitGuessPayload struct {
	Word string `json:"word"`
}

type FailTurnPayload struct {
	Seq int `json:"seq"`
}

// Server Messages (outgoing)

type RoundMeaningPayload struct {
	GameID  string `json:"game_id"`
	Round   int    `json:"round"`
	Word    string `json:"word"`
	Meaning string `json:"meaning"`
}

type PlayerLeftPayload struct {
	GameID   string `json:"game_id"`
	PlayerID string `json:"player_id"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

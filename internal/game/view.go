package game

import "time"

// Snapshot is the client view of a record: the secret stays hidden until the round
// is finished, and the remaining turn time is computed from server time.
type Snapshot struct {
	*Record
	CurrentPlayerID string    `json:"current_player_id,omitempty"`
	PlayerOrder     []string  `json:"player_order"`
	TimeLeftMs      int64     `json:"time_left_ms"`
	ServerTime      time.Time `json:"server_time"`
}

// NewSnapshot builds the redacted client view of rec at now.
func NewSnapshot(rec *Record, now time.Time) Snapshot {
	view := rec.Clone()
	if view.Status != StatusFinished {
		view.SecretWord = ""
	}
	return Snapshot{
		Record:          view,
		CurrentPlayerID: rec.CurrentPlayerID(),
		PlayerOrder:     rec.PlayerOrder(),
		TimeLeftMs:      TimeLeft(rec, now).Milliseconds(),
		ServerTime:      now,
	}
}

package scoring

// ScoringConfig holds the round award table.
type ScoringConfig struct {
	// WinTable[k-1] is awarded for a win on guess k (1-based).
	WinTable []int
}

// DefaultScoringConfig returns production defaults.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		WinTable: []int{1000, 800, 600, 400, 200, 100},
	}
}

// Engine computes round awards with configurable constants.
type Engine struct {
	config ScoringConfig
}

// NewEngine creates a scoring engine with the provided config.
func NewEngine(config ScoringConfig) *Engine {
	if len(config.WinTable) == 0 {
		config = DefaultScoringConfig()
	}
	return &Engine{config: config}
}

// RoundAward returns the points for winning on guess number guessIndex (1-based).
// Timed-out guesses count toward the index. Anything past the table earns 0.
func (e *Engine) RoundAward(guessIndex int) int {
	if guessIndex < 1 || guessIndex > len(e.config.WinTable) {
		return 0
	}
	return e.config.WinTable[guessIndex-1]
}

// MatchWinner returns the player with the highest cumulative score.
// ok is false when the top score is shared or nobody scored.
func MatchWinner(scores map[string]int) (winner string, ok bool) {
	best := 0
	tied := false
	for id, score := range scores {
		switch {
		case score > best:
			best = score
			winner = id
			tied = false
		case score == best && score > 0:
			tied = true
		}
	}
	if best == 0 || tied {
		return "", false
	}
	return winner, true
}

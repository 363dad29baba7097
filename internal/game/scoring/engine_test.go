package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundAwardTable(t *testing.T) {
	engine := NewEngine(DefaultScoringConfig())

	expected := []int{1000, 800, 600, 400, 200, 100}
	for i, want := range expected {
		assert.Equal(t, want, engine.RoundAward(i+1), "guess %d", i+1)
	}
	assert.Equal(t, 0, engine.RoundAward(0))
	assert.Equal(t, 0, engine.RoundAward(7))
}

func TestNewEngineFallsBackToDefaults(t *testing.T) {
	engine := NewEngine(ScoringConfig{})
	assert.Equal(t, 1000, engine.RoundAward(1))
}

func TestMatchWinner(t *testing.T) {
	winner, ok := MatchWinner(map[string]int{"a": 1800, "b": 600})
	assert.True(t, ok)
	assert.Equal(t, "a", winner)

	_, ok = MatchWinner(map[string]int{"a": 800, "b": 800})
	assert.False(t, ok)

	_, ok = MatchWinner(map[string]int{"a": 0, "b": 0})
	assert.False(t, ok)

	winner, ok = MatchWinner(map[string]int{"a": 400})
	assert.True(t, ok)
	assert.Equal(t, "a", winner)
}

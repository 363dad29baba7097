package cpu

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/kelime-arena/internal/game"
	"github.com/gokatarajesh/kelime-arena/internal/game/coloring"
	"github.com/gokatarajesh/kelime-arena/internal/words"
)

func guess(t *testing.T, word, secret string) game.Guess {
	t.Helper()
	colors, err := coloring.Color(word, secret)
	require.NoError(t, err)
	return game.Guess{Word: word, Colors: colors}
}

func TestChooseFiltersByConstraints(t *testing.T) {
	s := New([]string{"KALEM", "MASAL", "LAMBA", "DENİZ", "KEDİ"}, 1)
	history := []game.Guess{guess(t, "ELMAS", "KALEM")}

	for i := 0; i < 10; i++ {
		w, ok := s.ChooseNextGuess(history, 5)
		require.True(t, ok)
		assert.Equal(t, "KALEM", w)
	}
}

func TestRepeatedLetterIsNotTreatedAsAbsent(t *testing.T) {
	// K and E are correct once and absent elsewhere in KEKEK.
	s := New([]string{"KALEM", "ARABA"}, 1)
	history := []game.Guess{guess(t, "KEKEK", "KALEM")}

	w, ok := s.ChooseNextGuess(history, 5)
	require.True(t, ok)
	assert.Equal(t, "KALEM", w)
}

func TestFallsBackToAnyUnguessedWord(t *testing.T) {
	s := New([]string{"KALEM", "ELMAS"}, 1)
	history := []game.Guess{guess(t, "ELMAS", "ELMAS")}

	w, ok := s.ChooseNextGuess(history, 5)
	require.True(t, ok)
	assert.Equal(t, "KALEM", w, "ELMAS is already guessed, KALEM is the only unguessed word")
}

func TestNoCandidatesForLength(t *testing.T) {
	s := New([]string{"KALEM"}, 1)

	_, ok := s.ChooseNextGuess(nil, 6)
	assert.False(t, ok)

	_, ok = s.ChooseNextGuess([]game.Guess{guess(t, "KALEM", "ELMAS")}, 5)
	assert.False(t, ok)
}

func TestFailedGuessesCarryNoInformation(t *testing.T) {
	s := New([]string{"KALEM"}, 1)
	word, tags := coloring.Failed(5)

	w, ok := s.ChooseNextGuess([]game.Guess{{Word: word, Colors: tags}}, 5)
	require.True(t, ok)
	assert.Equal(t, "KALEM", w)
}

func TestSurvivorsAreAlwaysConsistent(t *testing.T) {
	s := Default()
	secret := "KİRAZ"
	history := []game.Guess{guess(t, "KALEM", secret)}

	for i := 0; i < 25; i++ {
		w, ok := s.ChooseNextGuess(history, 5)
		require.True(t, ok)
		assert.NotEqual(t, "KALEM", w)
		assert.True(t, derive(history).allows(w), w)
	}
}

func TestShortlistIsInDictionary(t *testing.T) {
	dict, err := words.Embedded()
	require.NoError(t, err)

	ctx := context.Background()
	for _, w := range Shortlist {
		assert.True(t, dict.IsValid(ctx, w), w)
	}
	for _, length := range game.WordLengths {
		assert.NotEmpty(t, Default().Pool(length), "length %d", length)
		assert.Less(t, len(Default().Pool(length)), len(dict.Words(length)), "pool must stay smaller than the dictionary")
	}
}

package coloring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColorExactMatch(t *testing.T) {
	tags, err := Color("KALEM", "KALEM")
	require.NoError(t, err)
	assert.Equal(t, []Tag{TagCorrect, TagCorrect, TagCorrect, TagCorrect, TagCorrect}, tags)
	assert.True(t, Solved(tags))
}

func TestColorDuplicateLettersLimitedBySecretCount(t *testing.T) {
	// ELMAS has a single A; MASAL has two.
	tags, err := Color("MASAL", "ELMAS")
	require.NoError(t, err)
	assert.Equal(t, []Tag{TagPresent, TagAbsent, TagPresent, TagCorrect, TagPresent}, tags)

	credited := 0
	for i, r := range []rune("MASAL") {
		if r == 'A' && tags[i] != TagAbsent {
			credited++
		}
	}
	assert.Equal(t, 1, credited)
}

func TestColorPrefersExactOverPresent(t *testing.T) {
	// Second A sits on the secret's A; the first must not steal the credit.
	tags, err := Color("AALEM", "KALEM")
	require.NoError(t, err)
	assert.Equal(t, []Tag{TagAbsent, TagCorrect, TagCorrect, TagCorrect, TagCorrect}, tags)
}

func TestColorTurkishLetters(t *testing.T) {
	tags, err := Color("ŞİİR", "İŞÇİ")
	require.NoError(t, err)
	assert.Equal(t, []Tag{TagPresent, TagPresent, TagPresent, TagAbsent}, tags)

	tags, err = Color("ÇİÇEK", "ÇİÇEK")
	require.NoError(t, err)
	assert.True(t, Solved(tags))
}

func TestColorLengthMismatch(t *testing.T) {
	_, err := Color("KALE", "KALEM")
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestColorNeverOvercreditsRepeatedLetters(t *testing.T) {
	cases := []struct{ guess, secret string }{
		{"AAAAA", "ELMAS"},
		{"SSSSS", "ELMAS"},
		{"LALEL", "ELMAS"},
		{"KEKEK", "EKMEK"},
		{"ELELE", "EKMEK"},
	}
	for _, tc := range cases {
		tags, err := Color(tc.guess, tc.secret)
		require.NoError(t, err)

		secretCount := map[rune]int{}
		for _, r := range tc.secret {
			secretCount[r]++
		}
		credited := map[rune]int{}
		for i, r := range []rune(tc.guess) {
			if tags[i] == TagCorrect || tags[i] == TagPresent {
				credited[r]++
			}
		}
		for r, n := range credited {
			assert.LessOrEqual(t, n, secretCount[r], "guess %s secret %s letter %c", tc.guess, tc.secret, r)
		}
	}
}

func TestFailedSentinel(t *testing.T) {
	word, tags := Failed(5)
	assert.Equal(t, "     ", word)
	assert.Len(t, tags, 5)
	for _, tag := range tags {
		assert.Equal(t, TagFailed, tag)
	}
	assert.True(t, IsFailed(word))
	assert.False(t, IsFailed("KALEM"))
	assert.False(t, Solved(tags))
}

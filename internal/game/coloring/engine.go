package coloring

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// Tag is the per-letter feedback for one position of a guess.
type Tag string

const (
	TagCorrect Tag = "correct"
	TagPresent Tag = "present"
	TagAbsent  Tag = "absent"
	TagFailed  Tag = "failed"
)

// ErrLengthMismatch is returned when guess and secret differ in letter count.
var ErrLengthMismatch = errors.New("guess and secret length differ")

// Color tags each letter of guess against secret using the two-pass rule:
// exact matches first, then position-free matches limited by the remaining
// letter counts of the secret. Both words are compared letter by letter (runes),
// so Ç, Ğ, İ, Ö, Ş and Ü count as single positions.
func Color(guess, secret string) ([]Tag, error) {
	g := []rune(guess)
	s := []rune(secret)
	if len(g) != len(s) {
		return nil, ErrLengthMismatch
	}

	remaining := make(map[rune]int, len(s))
	for _, r := range s {
		remaining[r]++
	}

	tags := make([]Tag, len(g))
	for i := range g {
		if g[i] == s[i] {
			tags[i] = TagCorrect
			remaining[g[i]]--
		}
	}

	for i := range g {
		if tags[i] == TagCorrect {
			continue
		}
		if remaining[g[i]] > 0 {
			tags[i] = TagPresent
			remaining[g[i]]--
			continue
		}
		tags[i] = TagAbsent
	}

	return tags, nil
}

// Failed returns the sentinel guess recorded when a turn times out.
func Failed(length int) (string, []Tag) {
	tags := make([]Tag, length)
	for i := range tags {
		tags[i] = TagFailed
	}
	return strings.Repeat(" ", length), tags
}

// IsFailed reports whether word is the timeout sentinel.
func IsFailed(word string) bool {
	return word != "" && strings.TrimSpace(word) == ""
}

// Solved reports whether every tag is correct.
func Solved(tags []Tag) bool {
	if len(tags) == 0 {
		return false
	}
	for _, t := range tags {
		if t != TagCorrect {
			return false
		}
	}
	return true
}

// Len returns the number of letters in word.
func Len(word string) int {
	return utf8.RuneCountInString(word)
}

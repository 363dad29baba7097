// Package cpu implements the computer opponent: a constraint filter over a
// small curated word pool. The pool is deliberately far smaller than the
// dictionary, which bounds how strong the opponent can be.
package cpu

import (
	"math/rand"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gokatarajesh/kelime-arena/internal/game"
	"github.com/gokatarajesh/kelime-arena/internal/game/coloring"
)

// Strategy picks CPU guesses from a bounded candidate pool.
type Strategy struct {
	pool map[int][]string

	mu  sync.Mutex
	rng *rand.Rand
}

// New builds a strategy over pool, grouped by letter count.
func New(pool []string, seed int64) *Strategy {
	byLength := make(map[int][]string)
	for _, w := range pool {
		n := utf8.RuneCountInString(w)
		byLength[n] = append(byLength[n], w)
	}
	return &Strategy{
		pool: byLength,
		rng:  rand.New(rand.NewSource(seed)),
	}
}

// Default builds a strategy over the built-in shortlist.
func Default() *Strategy {
	return New(Shortlist, time.Now().UnixNano())
}

// Pool returns the candidates of one length.
func (s *Strategy) Pool(length int) []string {
	return append([]string(nil), s.pool[length]...)
}

// ChooseNextGuess returns a pool word consistent with every guess in history.
// If nothing fits it falls back to any word not yet guessed; ok is false only
// when the pool has no unguessed word of that length.
func (s *Strategy) ChooseNextGuess(history []game.Guess, length int) (string, bool) {
	c := derive(history)

	guessed := make(map[string]bool, len(history))
	for _, g := range history {
		guessed[g.Word] = true
	}

	var survivors, unguessed []string
	for _, w := range s.pool[length] {
		if guessed[w] {
			continue
		}
		unguessed = append(unguessed, w)
		if c.allows(w) {
			survivors = append(survivors, w)
		}
	}

	switch {
	case len(survivors) > 0:
		return s.pick(survivors), true
	case len(unguessed) > 0:
		return s.pick(unguessed), true
	default:
		return "", false
	}
}

func (s *Strategy) pick(words []string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return words[s.rng.Intn(len(words))]
}

type constraints struct {
	correct  map[int]rune
	present  map[rune]bool
	excluded map[rune]map[int]bool
	absent   map[rune]bool
}

// derive collects constraints from every visible guess. A letter is only
// treated as absent if it was never marked correct or present anywhere, since
// a repeated letter can be absent at one position and present at another.
func derive(history []game.Guess) constraints {
	c := constraints{
		correct:  make(map[int]rune),
		present:  make(map[rune]bool),
		excluded: make(map[rune]map[int]bool),
		absent:   make(map[rune]bool),
	}
	seen := make(map[rune]bool)
	var absentCandidates []rune

	exclude := func(r rune, pos int) {
		if c.excluded[r] == nil {
			c.excluded[r] = make(map[int]bool)
		}
		c.excluded[r][pos] = true
	}

	for _, g := range history {
		if g.Failed() {
			continue
		}
		letters := []rune(g.Word)
		if len(letters) != len(g.Colors) {
			continue
		}
		for i, tag := range g.Colors {
			r := letters[i]
			switch tag {
			case coloring.TagCorrect:
				c.correct[i] = r
				seen[r] = true
			case coloring.TagPresent:
				c.present[r] = true
				exclude(r, i)
				seen[r] = true
			case coloring.TagAbsent:
				exclude(r, i)
				absentCandidates = append(absentCandidates, r)
			}
		}
	}

	for _, r := range absentCandidates {
		if !seen[r] {
			c.absent[r] = true
		}
	}
	return c
}

func (c constraints) allows(word string) bool {
	letters := []rune(word)
	contains := make(map[rune]bool, len(letters))
	for _, r := range letters {
		contains[r] = true
	}

	for pos, r := range c.correct {
		if pos >= len(letters) || letters[pos] != r {
			return false
		}
	}
	for r := range c.present {
		if !contains[r] {
			return false
		}
	}
	for r := range c.absent {
		if contains[r] {
			return false
		}
	}
	for r, positions := range c.excluded {
		for pos := range positions {
			if pos < len(letters) && letters[pos] == r {
				return false
			}
		}
	}
	return true
}

package words

import (
	"context"
	"crypto/rand"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Alphabet is the 29-letter Turkish alphabet in upper case.
const Alphabet = "ABCÇDEFGĞHIİJKLMNOÖPRSŞTUÜVYZ"

//go:embed data/words.json
var embedded embed.FS

// ErrUnavailable means no secret can be drawn for the requested length.
var ErrUnavailable = errors.New("no words for length")

// Normalize trims and upper-cases word with Turkish rules (i -> İ, ı -> I).
// Decomposed input such as "c" + U+0327 is composed first so it matches
// the precomposed alphabet.
func Normalize(word string) string {
	composed := norm.NFC.String(strings.TrimSpace(word))
	return cases.Upper(language.Turkish).String(composed)
}

// InAlphabet reports whether every letter of word belongs to Alphabet.
func InAlphabet(word string) bool {
	if word == "" {
		return false
	}
	for _, r := range word {
		if !strings.ContainsRune(Alphabet, r) {
			return false
		}
	}
	return true
}

// Dictionary is a read-only, length-keyed word list. It serves both as the
// secret source and the validity check.
type Dictionary struct {
	byLength map[int][]string
	valid    map[string]struct{}
}

// Embedded loads the dictionary compiled into the binary.
func Embedded() (*Dictionary, error) {
	f, err := embedded.Open("data/words.json")
	if err != nil {
		return nil, fmt.Errorf("open embedded words: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// LoadFile loads a dictionary from a JSON file on disk.
func LoadFile(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open words file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses a document of the form {"4": [...], "5": [...], "6": [...]}.
// Entries are normalized; entries outside the alphabet or of the wrong length are dropped.
func Load(r io.Reader) (*Dictionary, error) {
	var raw map[string][]string
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode words: %w", err)
	}

	d := &Dictionary{
		byLength: make(map[int][]string, len(raw)),
		valid:    make(map[string]struct{}),
	}
	for key, list := range raw {
		length, err := strconv.Atoi(key)
		if err != nil || length <= 0 {
			return nil, fmt.Errorf("invalid length key %q", key)
		}
		for _, w := range list {
			w = Normalize(w)
			if utf8.RuneCountInString(w) != length || !InAlphabet(w) {
				continue
			}
			if _, dup := d.valid[w]; dup {
				continue
			}
			d.valid[w] = struct{}{}
			d.byLength[length] = append(d.byLength[length], w)
		}
	}
	for _, list := range d.byLength {
		sort.Strings(list)
	}
	return d, nil
}

// RandomSecret draws a uniformly random word of the given length.
func (d *Dictionary) RandomSecret(ctx context.Context, length int) (string, error) {
	list := d.byLength[length]
	if len(list) == 0 {
		return "", fmt.Errorf("%w %d", ErrUnavailable, length)
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(list))))
	if err != nil {
		return "", fmt.Errorf("draw secret: %w", err)
	}
	return list[n.Int64()], nil
}

// IsValid reports whether word (already normalized) is in the dictionary.
func (d *Dictionary) IsValid(ctx context.Context, word string) bool {
	_, ok := d.valid[word]
	return ok
}

// Words returns the words of one length.
func (d *Dictionary) Words(length int) []string {
	return append([]string(nil), d.byLength[length]...)
}

// Lengths returns the available word lengths in ascending order.
func (d *Dictionary) Lengths() []int {
	lengths := make([]int, 0, len(d.byLength))
	for l, list := range d.byLength {
		if len(list) > 0 {
			lengths = append(lengths, l)
		}
	}
	sort.Ints(lengths)
	return lengths
}

package words

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTurkishCasing(t *testing.T) {
	assert.Equal(t, "KİTAP", Normalize(" kitap "))
	assert.Equal(t, "IRMAK", Normalize("ırmak"))
	assert.Equal(t, "ŞEKER", Normalize("şeker"))
	assert.Equal(t, "ÇİÇEK", Normalize("çiçek"))
}

func TestNormalizeComposesDecomposedLetters(t *testing.T) {
	assert.Equal(t, "ÇİÇEK", Normalize("c\u0327ic\u0327ek"))
	assert.Equal(t, "ĞÜZEL", Normalize("g\u0306u\u0308zel"))
	assert.Equal(t, "ŞÖLEN", Normalize("S\u0327O\u0308LEN"))
	assert.True(t, InAlphabet(Normalize("g\u0306u\u0308zel")))
}

func TestInAlphabet(t *testing.T) {
	assert.Equal(t, 29, utf8.RuneCountInString(Alphabet))
	assert.True(t, InAlphabet("ĞÜŞİÖÇ"))
	assert.False(t, InAlphabet("WORD"))
	assert.False(t, InAlphabet("KAL M"))
	assert.False(t, InAlphabet(""))
}

func TestEmbeddedDictionary(t *testing.T) {
	d, err := Embedded()
	require.NoError(t, err)

	assert.Equal(t, []int{4, 5, 6}, d.Lengths())
	for _, length := range d.Lengths() {
		for _, w := range d.Words(length) {
			assert.Equal(t, length, utf8.RuneCountInString(w), w)
			assert.True(t, InAlphabet(w), w)
		}
	}

	ctx := context.Background()
	assert.True(t, d.IsValid(ctx, "KALEM"))
	assert.True(t, d.IsValid(ctx, "ELMAS"))
	assert.False(t, d.IsValid(ctx, "kalem"), "callers normalize first")
	assert.False(t, d.IsValid(ctx, "ZZZZZ"))
}

func TestRandomSecret(t *testing.T) {
	d, err := Load(strings.NewReader(`{"5":["kalem","elmas","bad1","toolong"],"4":[]}`))
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 20; i++ {
		w, err := d.RandomSecret(ctx, 5)
		require.NoError(t, err)
		assert.Contains(t, []string{"KALEM", "ELMAS"}, w)
	}

	_, err = d.RandomSecret(ctx, 4)
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = d.RandomSecret(ctx, 9)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestLoadRejectsBadKeys(t *testing.T) {
	_, err := Load(strings.NewReader(`{"five":["KALEM"]}`))
	assert.Error(t, err)

	_, err = Load(strings.NewReader(`not json`))
	assert.Error(t, err)
}

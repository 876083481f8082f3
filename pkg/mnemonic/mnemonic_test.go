package mnemonic

import (
	"bytes"
	"crypto/rand"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tyler-smith/go-bip39"
)

var vectors = []struct {
	entropy byte
	phrase  string
}{
	{0x00, "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"},
	{0x7f, "legal winner thank year wave sausage worth useful legal winner thank yellow"},
	{0x80, "letter advice cage absurd amount doctor acoustic avoid letter advice cage above"},
	{0xff, "zoo zoo zoo zoo zoo zoo zoo zoo zoo zoo zoo wrong"},
}

func TestFromEntropyVectors(t *testing.T) {
	for _, v := range vectors {
		m, err := FromBytes(bytes.Repeat([]byte{v.entropy}, EntropySize))
		require.NoError(t, err)
		require.Equal(t, v.phrase, m.String())
		require.NoError(t, Validate(m))
	}
}

func TestFromEntropyMatchesBip39(t *testing.T) {
	for i := 0; i < 64; i++ {
		var e Entropy
		_, err := rand.Read(e[:])
		require.NoError(t, err)

		expected, err := bip39.NewMnemonic(e[:])
		require.NoError(t, err)

		m := FromEntropy(e)
		require.Equal(t, expected, m.String())
		require.Len(t, m, WordCount)
		require.NoError(t, Validate(m))
		require.True(t, bip39.IsMnemonicValid(m.String()))

		back, err := ToEntropy(m)
		require.NoError(t, err)
		require.Equal(t, e, back)
	}
}

func TestFromEntropyIsDeterministic(t *testing.T) {
	var e Entropy
	copy(e[:], "ab3kd91z2q-seed!")
	require.Equal(t, FromEntropy(e), FromEntropy(e))
}

func TestFromBytesRejectsWrongLength(t *testing.T) {
	for _, n := range []int{0, 15, 17, 32} {
		_, err := FromBytes(make([]byte, n))
		require.ErrorIs(t, err, ErrInvalidEntropyLength)
	}
}

func TestValidateWordCount(t *testing.T) {
	err := Validate(Mnemonic(strings.Fields("abandon abandon about")))
	require.ErrorIs(t, err, ErrWordCountMismatch)

	var wc *WordCountError
	require.True(t, errors.As(err, &wc))
	require.Equal(t, 3, wc.Count)
}

func TestValidateReportsEveryInvalidWord(t *testing.T) {
	words := strings.Fields(vectors[0].phrase)
	words[2] = "notaword"
	words[7] = "qwerty"

	err := Validate(Mnemonic(words))
	require.ErrorIs(t, err, ErrInvalidWord)

	var list ErrorList
	require.True(t, errors.As(err, &list))
	require.Len(t, list, 2)

	var iw *InvalidWordError
	require.True(t, errors.As(list[1], &iw))
	require.Equal(t, "qwerty", iw.Token)
}

func TestValidateChecksumMismatch(t *testing.T) {
	m := Mnemonic(strings.Fields(strings.Repeat("abandon ", WordCount)))
	err := Validate(m)
	require.ErrorIs(t, err, ErrChecksumMismatch)
	require.NotErrorIs(t, err, ErrInvalidWord)
}

func TestParse(t *testing.T) {
	m, err := Parse("  LEGAL winner thank year wave sausage worth useful legal winner thank yellow\n")
	require.NoError(t, err)
	require.Equal(t, vectors[1].phrase, m.String())

	_, err = Parse("")
	require.ErrorIs(t, err, ErrWordCountMismatch)
}

func TestDictionary(t *testing.T) {
	require.Equal(t, "abandon", Word(0))
	require.Equal(t, "zoo", Word(DictionarySize-1))

	i, ok := IndexOf("about")
	require.True(t, ok)
	require.Equal(t, 3, i)

	require.False(t, InDictionary("dedqgrq"))
}

func TestNewRandomEntropy(t *testing.T) {
	a, err := NewRandomEntropy()
	require.NoError(t, err)
	b, err := NewRandomEntropy()
	require.NoError(t, err)
	require.NotEqual(t, a, b)
	require.NoError(t, Validate(FromEntropy(a)))
}

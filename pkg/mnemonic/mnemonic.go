package mnemonic

import (
	"crypto/sha256"
	"strings"

	"github.com/tyler-smith/go-bip39"
)

const (
	EntropySize  = 16
	WordCount    = 12
	bitsPerWord  = 11
	checksumBits = EntropySize * 8 / 32
)

// Entropy is the 128-bit seed material of a 12-word phrase.
type Entropy [EntropySize]byte

// Mnemonic is an ordered 12-word phrase.
type Mnemonic []string

func (m Mnemonic) String() string {
	return strings.Join(m, " ")
}

// Len is safe to log, unlike the phrase itself.
func (m Mnemonic) Len() int {
	return len(m)
}

// FromBytes checks the buffer length before converting.
func FromBytes(b []byte) (Mnemonic, error) {
	if len(b) != EntropySize {
		return nil, ErrInvalidEntropyLength
	}
	var e Entropy
	copy(e[:], b)
	return FromEntropy(e), nil
}

// FromEntropy appends the high 4 bits of SHA-256(e) to the 128 entropy bits
// and maps each of the twelve 11-bit groups to a dictionary word.
func FromEntropy(e Entropy) Mnemonic {
	var buf [EntropySize + 1]byte
	copy(buf[:], e[:])
	buf[EntropySize] = checksum(e) << (8 - checksumBits)

	words := make(Mnemonic, WordCount)
	for w := 0; w < WordCount; w++ {
		idx := 0
		for b := 0; b < bitsPerWord; b++ {
			idx = idx<<1 | bit(buf[:], w*bitsPerWord+b)
		}
		words[w] = Word(idx)
	}
	return words
}

// NewRandomEntropy reads 128 bits from the system random source.
func NewRandomEntropy() (Entropy, error) {
	var e Entropy
	b, err := bip39.NewEntropy(EntropySize * 8)
	if err != nil {
		return e, err
	}
	copy(e[:], b)
	return e, nil
}

// Parse splits a phrase on whitespace, lowercases it and validates the result.
func Parse(phrase string) (Mnemonic, error) {
	fields := strings.Fields(strings.ToLower(phrase))
	m := Mnemonic(fields)
	if err := Validate(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate returns nil or an ErrorList. A wrong word count short-circuits the
// other checks; unknown words are all reported; the checksum is only checked
// once every word is known.
func Validate(m Mnemonic) error {
	if len(m) != WordCount {
		return ErrorList{&WordCountError{Count: len(m)}}
	}

	var errs ErrorList
	for _, w := range m {
		if !InDictionary(w) {
			errs = append(errs, &InvalidWordError{Token: w})
		}
	}
	if len(errs) > 0 {
		return errs
	}

	if _, err := ToEntropy(m); err != nil {
		return ErrorList{err}
	}
	return nil
}

// ToEntropy recovers the 16 entropy bytes and verifies the trailing checksum.
func ToEntropy(m Mnemonic) (Entropy, error) {
	var e Entropy
	if len(m) != WordCount {
		return e, &WordCountError{Count: len(m)}
	}

	var buf [EntropySize + 1]byte
	pos := 0
	for _, w := range m {
		idx, ok := IndexOf(w)
		if !ok {
			return e, &InvalidWordError{Token: w}
		}
		for b := bitsPerWord - 1; b >= 0; b-- {
			if idx>>b&1 == 1 {
				buf[pos/8] |= 1 << (7 - pos%8)
			}
			pos++
		}
	}

	copy(e[:], buf[:EntropySize])
	if buf[EntropySize]>>(8-checksumBits) != checksum(e) {
		return e, ErrChecksumMismatch
	}
	return e, nil
}

func checksum(e Entropy) byte {
	h := sha256.Sum256(e[:])
	return h[0] >> (8 - checksumBits)
}

func bit(buf []byte, i int) int {
	return int(buf[i/8]>>(7-i%8)) & 1
}

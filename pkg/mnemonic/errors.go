package mnemonic

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrInvalidEntropyLength = errors.New("entropy must be exactly 16 bytes")
	ErrChecksumMismatch     = errors.New("mnemonic checksum mismatch")
	ErrWordCountMismatch    = errors.New("mnemonic word count mismatch")
	ErrInvalidWord          = errors.New("word is not in the dictionary")
)

// WordCountError reports the number of words that were actually observed.
type WordCountError struct {
	Count int
}

func (e *WordCountError) Error() string {
	return fmt.Sprintf("expected %d words, got %d", WordCount, e.Count)
}

func (e *WordCountError) Is(target error) bool {
	return target == ErrWordCountMismatch
}

// InvalidWordError names the offending token.
type InvalidWordError struct {
	Token string
}

func (e *InvalidWordError) Error() string {
	return fmt.Sprintf("invalid word %q", e.Token)
}

func (e *InvalidWordError) Is(target error) bool {
	return target == ErrInvalidWord
}

// ErrorList collects every problem found while validating a phrase.
// errors.Is and errors.As look through all of its members.
type ErrorList []error

func (l ErrorList) Error() string {
	msgs := make([]string, len(l))
	for i, err := range l {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

func (l ErrorList) Unwrap() []error {
	return l
}

// Err returns nil for an empty list.
func (l ErrorList) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}

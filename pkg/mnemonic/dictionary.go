package mnemonic

import (
	"sync"

	"github.com/tyler-smith/go-bip39/wordlists"
)

const DictionarySize = 2048

var (
	dictOnce  sync.Once
	dictIndex map[string]int
)

func index() map[string]int {
	dictOnce.Do(func() {
		dictIndex = make(map[string]int, DictionarySize)
		for i, w := range wordlists.English {
			dictIndex[w] = i
		}
	})
	return dictIndex
}

// Word returns the dictionary word at position i (0-2047).
func Word(i int) string {
	return wordlists.English[i]
}

// IndexOf returns the dictionary position of word.
func IndexOf(word string) (int, bool) {
	i, ok := index()[word]
	return i, ok
}

// InDictionary reports whether word is one of the 2048 dictionary entries.
func InDictionary(word string) bool {
	_, ok := index()[word]
	return ok
}

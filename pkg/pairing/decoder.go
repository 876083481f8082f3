package pairing

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"golang.org/x/text/unicode/norm"

	"github.com/status-im/status-identity-go/pkg/mnemonic"
)

const (
	StartMarker = "zczc"
	EndMarker   = "nnnn"
)

var (
	ErrMalformedFrame = errors.New("pairing frame must start with " + StartMarker + " and end with " + EndMarker)
	ErrInvalidCharset = errors.New("pairing payload may only contain letters and whitespace")
	// ErrPairingChecksum is returned, alongside mnemonic.ErrChecksumMismatch,
	// when every word resolved but the recovered phrase does not checksum.
	ErrPairingChecksum = errors.New("recovered words do not form a valid mnemonic")
)

type WordKind int

const (
	Invalid WordKind = iota
	Literal
	Recovered
)

func (k WordKind) String() string {
	switch k {
	case Literal:
		return "literal"
	case Recovered:
		return "recovered"
	default:
		return "invalid"
	}
}

// WordResult records how a single transmitted token was resolved.
type WordResult struct {
	Token string   `json:"token"`
	Word  string   `json:"word,omitempty"`
	Kind  WordKind `json:"kind"`
}

// Frame is a successfully decoded pairing payload.
type Frame struct {
	Mnemonic mnemonic.Mnemonic
	Words    []WordResult
}

// Obfuscated reports whether any word needed the shift to be recovered.
func (f *Frame) Obfuscated() bool {
	for _, w := range f.Words {
		if w.Kind == Recovered {
			return true
		}
	}
	return false
}

// ClassifyWord accepts a dictionary word as-is, otherwise tries the shifted form.
func ClassifyWord(token string) WordResult {
	lower := strings.ToLower(token)
	if mnemonic.InDictionary(lower) {
		return WordResult{Token: token, Word: lower, Kind: Literal}
	}
	if shifted := Unshift(lower); mnemonic.InDictionary(shifted) {
		return WordResult{Token: token, Word: shifted, Kind: Recovered}
	}
	return WordResult{Token: token, Kind: Invalid}
}

// Decode parses raw text from a paired device into a checksummed mnemonic.
func Decode(raw string) (*Frame, error) {
	payload, err := unframe(raw)
	if err != nil {
		return nil, err
	}

	for _, r := range payload {
		if !isASCIILetter(r) && !unicode.IsSpace(r) {
			return nil, ErrInvalidCharset
		}
	}

	tokens := strings.Fields(payload)
	if len(tokens) != mnemonic.WordCount {
		return nil, &mnemonic.WordCountError{Count: len(tokens)}
	}

	frame := &Frame{
		Mnemonic: make(mnemonic.Mnemonic, len(tokens)),
		Words:    make([]WordResult, len(tokens)),
	}
	var errs mnemonic.ErrorList
	for i, tok := range tokens {
		res := ClassifyWord(tok)
		if res.Kind == Invalid {
			errs = append(errs, &mnemonic.InvalidWordError{Token: tok})
		}
		frame.Words[i] = res
		frame.Mnemonic[i] = res.Word
	}
	if len(errs) > 0 {
		return nil, errs
	}

	if err := mnemonic.Validate(frame.Mnemonic); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPairingChecksum, err)
	}
	return frame, nil
}

// Encode builds the frame a paired device would transmit for m.
func Encode(m mnemonic.Mnemonic, obfuscate bool) string {
	words := make([]string, len(m))
	for i, w := range m {
		if obfuscate {
			w = Shift(w, ShiftDistance)
		}
		words[i] = w
	}
	return StartMarker + " " + strings.Join(words, " ") + " " + EndMarker
}

func unframe(raw string) (string, error) {
	s := strings.TrimSpace(norm.NFKC.String(raw))
	lower := strings.ToLower(s)
	if len(lower) < len(StartMarker)+len(EndMarker) ||
		!strings.HasPrefix(lower, StartMarker) ||
		!strings.HasSuffix(lower, EndMarker) {
		return "", ErrMalformedFrame
	}
	return s[len(StartMarker) : len(s)-len(EndMarker)], nil
}

func isASCIILetter(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'
}

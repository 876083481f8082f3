package store

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// nonceSize is the size of the nonce (in bytes) used by secretbox.
	nonceSize = 24

	// saltLength is the desired length of salt used by PBKDF2.
	saltLength = 32

	// keySize is the size of the symmetric key for use with secretbox.
	keySize = 32

	// numIters is the number of iterations to be done by PBKDF2.
	numIters = 1 << 15
)

var (
	// ErrDecryptionFailed is returned when a value cannot be opened with the
	// derived key: wrong passphrase or tampered data.
	ErrDecryptionFailed = errors.New("invalid passphrase")

	saltKey  = "sealed:salt"
	checkKey = "sealed:check"
	checkVal = []byte("status-identity")
)

type sealedValue struct {
	Nonce []byte `json:"nonce"`
	Box   []byte `json:"box"`
}

// Sealed encrypts every value before handing it to the wrapped store. Keys are
// stored in the clear.
type Sealed struct {
	inner KV
	key   *[keySize]byte
}

// NewSealed derives the value key from passphrase. The salt and a check value
// are created in inner on first use and verified on later opens.
func NewSealed(inner KV, passphrase []byte) (*Sealed, error) {
	if len(passphrase) == 0 {
		return nil, errors.New("passphrase required")
	}

	salt, fresh, err := loadSalt(inner)
	if err != nil {
		return nil, err
	}

	s := &Sealed{inner: inner, key: new([keySize]byte)}
	copy(s.key[:], pbkdf2.Key(passphrase, salt, numIters, keySize, sha256.New))

	if fresh {
		if err := s.Set(checkKey, checkVal); err != nil {
			return nil, err
		}
		return s, nil
	}

	if _, err := s.Get(checkKey); err != nil {
		return nil, err
	}
	return s, nil
}

func loadSalt(inner KV) ([]byte, bool, error) {
	b, err := inner.Get(saltKey)
	if err == nil {
		var salt []byte
		if err := json.Unmarshal(b, &salt); err != nil {
			return nil, false, errors.Wrap(err, "corrupt salt")
		}
		return salt, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	salt := make([]byte, saltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, false, errors.Wrap(err, "failed to generate salt")
	}
	b, err = json.Marshal(salt)
	if err != nil {
		return nil, false, err
	}
	if err := inner.Set(saltKey, b); err != nil {
		return nil, false, err
	}
	return salt, true, nil
}

func (s *Sealed) Get(key string) ([]byte, error) {
	b, err := s.inner.Get(key)
	if err != nil {
		return nil, err
	}

	var v sealedValue
	if err := json.Unmarshal(b, &v); err != nil || len(v.Nonce) != nonceSize {
		return nil, ErrDecryptionFailed
	}
	var nonce [nonceSize]byte
	copy(nonce[:], v.Nonce)

	out, ok := secretbox.Open(nil, v.Box, &nonce, s.key)
	if !ok {
		return nil, ErrDecryptionFailed
	}
	return out, nil
}

func (s *Sealed) Set(key string, value []byte) error {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return errors.Wrap(err, "failed to generate nonce")
	}

	b, err := json.Marshal(sealedValue{
		Nonce: nonce[:],
		Box:   secretbox.Seal(nil, value, &nonce, s.key),
	})
	if err != nil {
		return err
	}
	return s.inner.Set(key, b)
}

func (s *Sealed) Remove(key string) error {
	return s.inner.Remove(key)
}

func (s *Sealed) Close() error {
	clear(s.key[:])
	return s.inner.Close()
}

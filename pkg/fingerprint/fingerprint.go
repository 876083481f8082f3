package fingerprint

import (
	"crypto/sha256"
	"strings"

	"github.com/pkg/errors"

	"github.com/status-im/status-identity-go/pkg/mnemonic"
)

const (
	DeviceIDLength = 10
	alphabet       = "0123456789abcdefghijklmnopqrstuvwxyz"
)

var ErrInvalidDeviceID = errors.New("device id must be 10 lowercase alphanumeric characters")

// Fingerprint holds locally observable, non-secret environment attributes.
type Fingerprint struct {
	UserAgent   string `json:"userAgent"`
	Screen      string `json:"screen"`
	Timezone    string `json:"timezone"`
	Locale      string `json:"locale"`
	Platform    string `json:"platform"`
	Concurrency string `json:"concurrency"`
	Memory      string `json:"memory"`
}

// Values returns the attributes in the order they are hashed.
func (fp Fingerprint) Values() []string {
	return []string{fp.UserAgent, fp.Screen, fp.Timezone, fp.Locale, fp.Platform, fp.Concurrency, fp.Memory}
}

// DeriveDeviceID reduces the fingerprint to a 10-character base-36 identifier.
func DeriveDeviceID(fp Fingerprint) string {
	return encode(canonical(strings.Join(fp.Values(), "")))
}

// MustDeriveDeviceID panics when the derived id fails its own format check.
func MustDeriveDeviceID(fp Fingerprint) string {
	id := DeriveDeviceID(fp)
	if !IsValidDeviceID(id) {
		panic("derived device id failed validation: " + id)
	}
	return id
}

// CompanionID derives an identifier for a record whose only input is a phrase,
// such as a mnemonic recovered from a paired device.
func CompanionID(m mnemonic.Mnemonic) string {
	return encode(canonical(m.String()))
}

func IsValidDeviceID(s string) bool {
	if len(s) != DeviceIDLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'z') {
			return false
		}
	}
	return true
}

func ValidateDeviceID(s string) error {
	if !IsValidDeviceID(s) {
		return errors.Wrapf(ErrInvalidDeviceID, "got %d characters", len(s))
	}
	return nil
}

// Entropy returns the first 16 bytes of SHA-256(id).
func Entropy(id string) mnemonic.Entropy {
	var e mnemonic.Entropy
	h := sha256.Sum256([]byte(id))
	copy(e[:], h[:mnemonic.EntropySize])
	return e
}

func canonical(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if r >= '0' && r <= '9' || r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func encode(s string) string {
	h := sha256.Sum256([]byte(s))
	out := make([]byte, DeviceIDLength)
	for i := range out {
		out[i] = alphabet[h[i]%36]
	}
	return string(out)
}

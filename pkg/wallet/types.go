package wallet

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"

	"github.com/status-im/status-identity-go/pkg/mnemonic"
)

type ChainType string

const (
	Ethereum ChainType = "ethereum"
	Polkadot ChainType = "polkadot"
	Kusama   ChainType = "kusama"
	Solana   ChainType = "solana"

	DefaultChainType = Ethereum
)

// ChainTypes lists every supported chain in a stable order.
var ChainTypes = []ChainType{Ethereum, Polkadot, Kusama, Solana}

// ParseChainType is case-insensitive; an empty string selects DefaultChainType.
func ParseChainType(s string) (ChainType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultChainType, nil
	}
	for _, c := range ChainTypes {
		if string(c) == s {
			return c, nil
		}
	}
	return "", errors.Wrapf(ErrUnsupportedChainType, "%q", s)
}

func (c ChainType) Supported() bool {
	_, err := ParseChainType(string(c))
	return err == nil && c != ""
}

// Source records where the entropy of a wallet came from.
type Source string

const (
	SourceFingerprint Source = "fingerprint"
	SourceRandom      Source = "random"
	SourcePairing     Source = "pairing"
)

// Wallet is the persisted identity record. One per device id.
type Wallet struct {
	Address     string    `json:"address"`
	PublicKey   string    `json:"publicKey"`
	PrivateKey  string    `json:"privateKey,omitempty"`
	ChainType   ChainType `json:"chainType"`
	Mnemonic    string    `json:"mnemonic,omitempty"`
	DeviceID    string    `json:"deviceId"`
	Source      Source    `json:"source,omitempty"`
	CompanionOf string    `json:"companionOf,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Redacted returns a copy without secret material.
func (w Wallet) Redacted() Wallet {
	w.PrivateKey = ""
	w.Mnemonic = ""
	return w
}

// Complete is the single check applied to every record read from storage.
func (w *Wallet) Complete() error {
	var missing []string
	if w.Address == "" {
		missing = append(missing, "address")
	}
	if w.PublicKey == "" {
		missing = append(missing, "publicKey")
	}
	if w.Mnemonic == "" {
		missing = append(missing, "mnemonic")
	}
	if w.ChainType == "" {
		missing = append(missing, "chainType")
	}
	if len(missing) > 0 {
		return errors.Wrapf(ErrIncompleteRecord, "missing %s", strings.Join(missing, ", "))
	}

	if !w.ChainType.Supported() {
		return errors.Wrapf(ErrIncompleteRecord, "chain type %q", w.ChainType)
	}
	if _, err := mnemonic.Parse(w.Mnemonic); err != nil {
		return errors.Wrap(ErrIncompleteRecord, "stored mnemonic does not validate")
	}
	return nil
}

// MarshalLogObject keeps secrets out of structured logs.
func (w Wallet) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("address", w.Address)
	enc.AddString("chainType", string(w.ChainType))
	enc.AddString("deviceId", w.DeviceID)
	enc.AddString("source", string(w.Source))
	if w.CompanionOf != "" {
		enc.AddString("companionOf", w.CompanionOf)
	}
	return nil
}

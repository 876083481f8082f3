package internal

import (
	"github.com/status-im/status-identity-go/pkg/pairing"
	"github.com/status-im/status-identity-go/pkg/wallet"
)

// WalletStatus is the public view returned by CheckWalletStatus.
type WalletStatus struct {
	IsGenerated bool             `json:"isGenerated"`
	Address     string           `json:"address,omitempty"`
	PublicKey   string           `json:"publicKey,omitempty"`
	ChainType   wallet.ChainType `json:"chainType,omitempty"`
	State       State            `json:"state"`
}

// PairingResult carries the companion wallet and how each transmitted word
// was resolved.
type PairingResult struct {
	Wallet     *wallet.Wallet       `json:"wallet"`
	Words      []pairing.WordResult `json:"words"`
	Obfuscated bool                 `json:"obfuscated"`
}

// SignedMessage is returned by SignMessage.
type SignedMessage struct {
	Address   string           `json:"address"`
	PublicKey string           `json:"publicKey"`
	ChainType wallet.ChainType `json:"chainType"`
	Signature []byte           `json:"signature"`
}

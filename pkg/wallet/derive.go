package wallet

import (
	"crypto/sha256"

	"github.com/pkg/errors"
	"github.com/skip2/go-qrcode"

	"github.com/status-im/status-identity-go/pkg/mnemonic"
)

// Derive turns a validated mnemonic into a keypair and address for chain.
// The seed is SHA-256 of the space-joined phrase, so the same phrase always
// yields the same wallet. DeviceID, Source and timestamps are left to the caller.
func Derive(m mnemonic.Mnemonic, chain ChainType) (*Wallet, error) {
	if err := mnemonic.Validate(m); err != nil {
		return nil, err
	}

	chain, err := ParseChainType(string(chain))
	if err != nil {
		return nil, err
	}
	p, err := primitiveFor(chain)
	if err != nil {
		return nil, err
	}

	phrase := m.String()
	seed := sha256.Sum256([]byte(phrase))
	defer clear(seed[:])

	k, err := p.derive(seed[:])
	if err != nil {
		return nil, &DerivationError{Chain: chain, Op: "derive", Err: err}
	}

	return &Wallet{
		Address:    k.address,
		PublicKey:  k.publicKey,
		PrivateKey: k.privateKey,
		ChainType:  chain,
		Mnemonic:   phrase,
	}, nil
}

// Sign signs msg with the wallet's private key. Secp256k1 chains return a
// 65-byte recoverable signature, solana a 64-byte ed25519 signature.
func Sign(w *Wallet, msg []byte) ([]byte, error) {
	p, err := primitiveFor(w.ChainType)
	if err != nil {
		return nil, err
	}
	sig, err := p.sign(w.PrivateKey, msg)
	if err != nil {
		if errors.Is(err, ErrInvalidKey) {
			return nil, err
		}
		return nil, &DerivationError{Chain: w.ChainType, Op: "sign", Err: err}
	}
	return sig, nil
}

// Verify checks sig over msg against a public key in the chain's encoding.
func Verify(chain ChainType, publicKey string, msg, sig []byte) (bool, error) {
	chain, err := ParseChainType(string(chain))
	if err != nil {
		return false, err
	}
	p, err := primitiveFor(chain)
	if err != nil {
		return false, err
	}
	return p.verify(publicKey, msg, sig)
}

// AddressQR renders the address as a PNG QR code.
func AddressQR(address string, size int) ([]byte, error) {
	if address == "" {
		return nil, errors.New("address required")
	}
	return qrcode.Encode(address, qrcode.Medium, size)
}

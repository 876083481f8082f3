package wallet

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"encoding/hex"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
)

const (
	polkadotSS58Prefix = 0
	kusamaSS58Prefix   = 2
	ss58Checksum       = 2
)

var ss58Pre = []byte("SS58PRE")

type keys struct {
	address    string
	publicKey  string
	privateKey string
}

// primitive is the contract every chain fulfils: seed -> keypair -> address,
// plus signing with the stored encoding of its own private key.
type primitive interface {
	derive(seed []byte) (*keys, error)
	sign(privateKey string, msg []byte) ([]byte, error)
	verify(publicKey string, msg, sig []byte) (bool, error)
}

var (
	primitivesOnce sync.Once
	registry       map[ChainType]primitive
)

func primitiveFor(c ChainType) (primitive, error) {
	primitivesOnce.Do(func() {
		registry = map[ChainType]primitive{
			Ethereum: evm{},
			Polkadot: substrate{prefix: polkadotSS58Prefix},
			Kusama:   substrate{prefix: kusamaSS58Prefix},
			Solana:   ed25519Chain{},
		}
	})
	p, ok := registry[c]
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedChainType, "%q", c)
	}
	return p, nil
}

type evm struct{}

func (evm) derive(seed []byte) (*keys, error) {
	key, err := crypto.ToECDSA(seed)
	if err != nil {
		return nil, err
	}
	return &keys{
		address:    crypto.PubkeyToAddress(key.PublicKey).Hex(),
		publicKey:  hexutil.Encode(crypto.FromECDSAPub(&key.PublicKey)),
		privateKey: hexutil.Encode(crypto.FromECDSA(key)),
	}, nil
}

func (evm) sign(privateKey string, msg []byte) ([]byte, error) {
	key, err := secp256k1Key(privateKey)
	if err != nil {
		return nil, err
	}
	return crypto.Sign(crypto.Keccak256(msg), key)
}

func (evm) verify(publicKey string, msg, sig []byte) (bool, error) {
	return secp256k1Verify(publicKey, crypto.Keccak256(msg), sig)
}

type substrate struct {
	prefix byte
}

func (s substrate) derive(seed []byte) (*keys, error) {
	key, err := crypto.ToECDSA(seed)
	if err != nil {
		return nil, err
	}
	compressed := crypto.CompressPubkey(&key.PublicKey)
	accountID := blake2b.Sum256(compressed)
	address, err := s.ss58(accountID[:])
	if err != nil {
		return nil, err
	}
	return &keys{
		address:    address,
		publicKey:  hexutil.Encode(compressed),
		privateKey: hexutil.Encode(crypto.FromECDSA(key)),
	}, nil
}

func (s substrate) ss58(accountID []byte) (string, error) {
	payload := append([]byte{s.prefix}, accountID...)
	h, err := blake2b.New512(nil)
	if err != nil {
		return "", err
	}
	h.Write(ss58Pre)
	h.Write(payload)
	sum := h.Sum(nil)
	return base58.Encode(append(payload, sum[:ss58Checksum]...)), nil
}

func (substrate) sign(privateKey string, msg []byte) ([]byte, error) {
	key, err := secp256k1Key(privateKey)
	if err != nil {
		return nil, err
	}
	digest := blake2b.Sum256(msg)
	return crypto.Sign(digest[:], key)
}

func (substrate) verify(publicKey string, msg, sig []byte) (bool, error) {
	digest := blake2b.Sum256(msg)
	return secp256k1Verify(publicKey, digest[:], sig)
}

type ed25519Chain struct{}

func (ed25519Chain) derive(seed []byte) (*keys, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, errors.Errorf("ed25519 seed must be %d bytes", ed25519.SeedSize)
	}
	key := solana.PrivateKey(ed25519.NewKeyFromSeed(seed))
	pub := key.PublicKey().String()
	return &keys{
		address:    pub,
		publicKey:  pub,
		privateKey: key.String(),
	}, nil
}

func (ed25519Chain) sign(privateKey string, msg []byte) ([]byte, error) {
	key, err := solana.PrivateKeyFromBase58(privateKey)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidKey, "private key")
	}
	sig, err := key.Sign(msg)
	if err != nil {
		return nil, err
	}
	return sig[:], nil
}

func (ed25519Chain) verify(publicKey string, msg, sig []byte) (bool, error) {
	pub, err := solana.PublicKeyFromBase58(publicKey)
	if err != nil {
		return false, errors.Wrap(ErrInvalidKey, "public key")
	}
	if len(sig) != ed25519.SignatureSize {
		return false, nil
	}
	var s solana.Signature
	copy(s[:], sig)
	return s.Verify(pub, msg), nil
}

func secp256k1Key(privateKey string) (*ecdsa.PrivateKey, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKey, "0x"))
	if err != nil {
		return nil, errors.Wrap(ErrInvalidKey, "private key")
	}
	return key, nil
}

func secp256k1Verify(publicKey string, digest, sig []byte) (bool, error) {
	pub, err := hex.DecodeString(strings.TrimPrefix(publicKey, "0x"))
	if err != nil {
		return false, errors.Wrap(ErrInvalidKey, "public key")
	}
	if len(sig) == crypto.SignatureLength {
		sig = sig[:crypto.RecoveryIDOffset]
	}
	if len(sig) != crypto.RecoveryIDOffset {
		return false, nil
	}
	return crypto.VerifySignature(pub, digest, sig), nil
}

package wallet

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/status-im/status-identity-go/pkg/mnemonic"
)

var (
	ethAddressRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	ethPubKeyRe  = regexp.MustCompile(`^0x04[0-9a-f]{128}$`)
	ethPrivKeyRe = regexp.MustCompile(`^0x[0-9a-f]{64}$`)
)

func testMnemonic(t *testing.T, b byte) mnemonic.Mnemonic {
	m, err := mnemonic.FromBytes(bytes.Repeat([]byte{b}, mnemonic.EntropySize))
	require.NoError(t, err)
	return m
}

func TestDeriveEthereum(t *testing.T) {
	m := testMnemonic(t, 0x7f)

	w, err := Derive(m, Ethereum)
	require.NoError(t, err)
	require.Regexp(t, ethAddressRe, w.Address)
	require.True(t, common.IsHexAddress(w.Address))
	require.Regexp(t, ethPubKeyRe, w.PublicKey)
	require.Regexp(t, ethPrivKeyRe, w.PrivateKey)
	require.Equal(t, Ethereum, w.ChainType)
	require.Equal(t, m.String(), w.Mnemonic)

	pub, err := hexutil.Decode(w.PublicKey)
	require.NoError(t, err)
	key, err := crypto.UnmarshalPubkey(pub)
	require.NoError(t, err)
	require.Equal(t, w.Address, crypto.PubkeyToAddress(*key).Hex())

	again, err := Derive(m, Ethereum)
	require.NoError(t, err)
	require.Equal(t, w, again)
}

func TestDeriveDefaultsToEthereum(t *testing.T) {
	m := testMnemonic(t, 0x01)
	w, err := Derive(m, "")
	require.NoError(t, err)
	require.Equal(t, Ethereum, w.ChainType)

	upper, err := Derive(m, "ETHEREUM")
	require.NoError(t, err)
	require.Equal(t, w.Address, upper.Address)
}

func TestDeriveSubstrate(t *testing.T) {
	m := testMnemonic(t, 0x80)

	dot, err := Derive(m, Polkadot)
	require.NoError(t, err)
	ksm, err := Derive(m, Kusama)
	require.NoError(t, err)

	require.Equal(t, dot.PublicKey, ksm.PublicKey)
	require.NotEqual(t, dot.Address, ksm.Address)
	require.Len(t, dot.PublicKey, 2+33*2)

	for _, tc := range []struct {
		w      *Wallet
		prefix byte
	}{{dot, polkadotSS58Prefix}, {ksm, kusamaSS58Prefix}} {
		raw, err := base58.Decode(tc.w.Address)
		require.NoError(t, err)
		require.Len(t, raw, 1+32+ss58Checksum)
		require.Equal(t, tc.prefix, raw[0])
	}
	require.True(t, strings.HasPrefix(dot.Address, "1"))
}

func TestDeriveSolana(t *testing.T) {
	m := testMnemonic(t, 0x00)
	w, err := Derive(m, Solana)
	require.NoError(t, err)
	require.Equal(t, w.Address, w.PublicKey)

	raw, err := base58.Decode(w.PublicKey)
	require.NoError(t, err)
	require.Len(t, raw, 32)
}

func TestDeriveRejectsUnsupportedChain(t *testing.T) {
	_, err := Derive(testMnemonic(t, 0x00), "bitcoin")
	require.ErrorIs(t, err, ErrUnsupportedChainType)
}

func TestDeriveRejectsInvalidMnemonic(t *testing.T) {
	bad := mnemonic.Mnemonic(strings.Fields(strings.Repeat("abandon ", mnemonic.WordCount)))
	_, err := Derive(bad, Ethereum)
	require.ErrorIs(t, err, mnemonic.ErrChecksumMismatch)

	_, err = Derive(bad[:5], Ethereum)
	require.ErrorIs(t, err, mnemonic.ErrWordCountMismatch)
}

func TestSignAndVerify(t *testing.T) {
	msg := []byte("hello identity")
	for _, chain := range ChainTypes {
		w, err := Derive(testMnemonic(t, 0x42), chain)
		require.NoError(t, err)

		sig, err := Sign(w, msg)
		require.NoError(t, err, chain)

		ok, err := Verify(chain, w.PublicKey, msg, sig)
		require.NoError(t, err)
		require.True(t, ok, chain)

		ok, err = Verify(chain, w.PublicKey, []byte("tampered"), sig)
		require.NoError(t, err)
		require.False(t, ok, chain)
	}
}

func TestSignRejectsBadKey(t *testing.T) {
	w := &Wallet{ChainType: Ethereum, PrivateKey: "0xnothex"}
	_, err := Sign(w, []byte("x"))
	require.ErrorIs(t, err, ErrInvalidKey)
	require.NotContains(t, err.Error(), "nothex")
}

func TestRedacted(t *testing.T) {
	w, err := Derive(testMnemonic(t, 0x7f), Ethereum)
	require.NoError(t, err)

	r := w.Redacted()
	require.Empty(t, r.PrivateKey)
	require.Empty(t, r.Mnemonic)
	require.Equal(t, w.Address, r.Address)
	require.NotEmpty(t, w.PrivateKey)
}

func TestComplete(t *testing.T) {
	w, err := Derive(testMnemonic(t, 0x7f), Ethereum)
	require.NoError(t, err)
	require.NoError(t, w.Complete())

	missing := *w
	missing.PublicKey = ""
	missing.ChainType = ""
	err = missing.Complete()
	require.ErrorIs(t, err, ErrIncompleteRecord)
	require.Contains(t, err.Error(), "publicKey, chainType")

	garbled := *w
	garbled.Mnemonic = "abandon abandon"
	require.ErrorIs(t, garbled.Complete(), ErrIncompleteRecord)

	unknown := *w
	unknown.ChainType = "bitcoin"
	require.ErrorIs(t, unknown.Complete(), ErrIncompleteRecord)
}

func TestLogObjectOmitsSecrets(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	w, err := Derive(testMnemonic(t, 0x7f), Ethereum)
	require.NoError(t, err)
	logger.Info("derived", zap.Object("wallet", w))

	entry := logs.All()[0]
	fields := entry.ContextMap()["wallet"].(map[string]interface{})
	require.Equal(t, w.Address, fields["address"])
	require.NotContains(t, fields, "privateKey")
	require.NotContains(t, fields, "mnemonic")
}

func TestAddressQR(t *testing.T) {
	png, err := AddressQR("0x52908400098527886E0F7030069857D2E4169EE7", 128)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	_, err = AddressQR("", 128)
	require.Error(t, err)
}

func TestParseChainType(t *testing.T) {
	c, err := ParseChainType(" Kusama ")
	require.NoError(t, err)
	require.Equal(t, Kusama, c)
	require.False(t, ChainType("").Supported())
	require.True(t, Solana.Supported())
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/status-im/status-identity-go/pkg/wallet"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:0", cfg.Address)
	require.Equal(t, "file", cfg.StoreBackend)
	require.Equal(t, wallet.Ethereum, cfg.Chain())
	require.Equal(t, 600*time.Millisecond, cfg.RateInterval)
	require.True(t, cfg.LogEnabled)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("IDENTITY_STORE_BACKEND", "bolt")
	t.Setenv("IDENTITY_CHAIN_TYPE", "Kusama")
	t.Setenv("IDENTITY_RATE_BURST", "3")
	t.Setenv("IDENTITY_STORE_PASSPHRASE", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "bolt", cfg.StoreBackend)
	require.Equal(t, wallet.Kusama, cfg.Chain())
	require.Equal(t, 3, cfg.RateBurst)
	require.Equal(t, "secret", cfg.StorePassphrase)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("IDENTITY_STORE_BACKEND", "etcd")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("IDENTITY_STORE_BACKEND", "sqlite")
	t.Setenv("IDENTITY_CHAIN_TYPE", "bitcoin")
	_, err = Load()
	require.ErrorIs(t, err, wallet.ErrUnsupportedChainType)

	t.Setenv("IDENTITY_CHAIN_TYPE", "")
	t.Setenv("IDENTITY_RATE_BURST", "0")
	_, err = Load()
	require.Error(t, err)
}

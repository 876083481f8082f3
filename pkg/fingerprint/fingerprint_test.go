package fingerprint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/status-im/status-identity-go/pkg/mnemonic"
)

var fixed = Fingerprint{
	UserAgent:   "Mozilla/5.0 (X11; Linux x86_64)",
	Screen:      "1920x1080",
	Timezone:    "Europe/Berlin",
	Locale:      "en-US",
	Platform:    "Linux x86_64",
	Concurrency: "8",
	Memory:      "16",
}

func TestDeriveDeviceIDIsDeterministic(t *testing.T) {
	a := DeriveDeviceID(fixed)
	b := DeriveDeviceID(fixed)
	require.Equal(t, a, b)
	require.True(t, IsValidDeviceID(a))
	require.Equal(t, a, MustDeriveDeviceID(fixed))
}

func TestDeriveDeviceIDIgnoresPunctuationAndCase(t *testing.T) {
	other := fixed
	other.UserAgent = "MOZILLA 5.0 X11 LINUX X86_64"
	other.Screen = "1920 x 1080"
	require.Equal(t, DeriveDeviceID(fixed), DeriveDeviceID(other))
}

func TestDeriveDeviceIDChangesWithAttributes(t *testing.T) {
	other := fixed
	other.Timezone = "Asia/Tokyo"
	require.NotEqual(t, DeriveDeviceID(fixed), DeriveDeviceID(other))
}

func TestDeriveDeviceIDOfEmptyFingerprint(t *testing.T) {
	require.True(t, IsValidDeviceID(DeriveDeviceID(Fingerprint{})))
}

func TestIsValidDeviceID(t *testing.T) {
	valid := []string{"ab3kd91z2q", "0000000000", "zzzzzzzzzz"}
	for _, s := range valid {
		require.True(t, IsValidDeviceID(s), s)
		require.NoError(t, ValidateDeviceID(s))
	}

	invalid := []string{"", "ab3kd91z2", "ab3kd91z2qq", "AB3KD91Z2Q", "ab3kd-1z2q", "ab3kd91z2ü"}
	for _, s := range invalid {
		require.False(t, IsValidDeviceID(s), s)
		require.ErrorIs(t, ValidateDeviceID(s), ErrInvalidDeviceID)
	}
}

func TestEntropyFromDeviceID(t *testing.T) {
	e := Entropy("ab3kd91z2q")
	require.Equal(t, e, Entropy("ab3kd91z2q"))
	require.NotEqual(t, e, Entropy("ab3kd91z2r"))
	require.NoError(t, mnemonic.Validate(mnemonic.FromEntropy(e)))
}

func TestCompanionID(t *testing.T) {
	m := mnemonic.FromEntropy(Entropy("ab3kd91z2q"))
	id := CompanionID(m)
	require.True(t, IsValidDeviceID(id))
	require.Equal(t, id, CompanionID(m))
}

func TestCollect(t *testing.T) {
	fp := Collect()
	require.NotEmpty(t, fp.UserAgent)
	require.NotEmpty(t, fp.Platform)
	require.Equal(t, DeriveDeviceID(fp), DeriveDeviceID(Collect()))
}

func TestMemoryGiB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meminfo")
	err := os.WriteFile(path, []byte("MemFree:  100 kB\nMemTotal:       16303412 kB\n"), 0600)
	require.NoError(t, err)
	require.Equal(t, 16, memoryGiB(path))

	require.Equal(t, 0, memoryGiB(filepath.Join(t.TempDir(), "missing")))
}

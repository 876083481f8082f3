package signal

import (
	"encoding/json"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"
)

func TestSend(t *testing.T) {
	var got [][]byte
	SetSignalHandler(func(b []byte) { got = append(got, b) })
	t.Cleanup(func() { SetSignalHandler(nil) })

	Send("wallet-status-changed", map[string]string{"state": "ready"})
	Send("wallet-status-changed", map[string]string{"state": "generating"})
	require.Len(t, got, 2)

	var env struct {
		ID    string            `json:"id"`
		Type  string            `json:"type"`
		Event map[string]string `json:"event"`
	}
	require.NoError(t, json.Unmarshal(got[0], &env))
	require.Equal(t, "wallet-status-changed", env.Type)
	require.Equal(t, "ready", env.Event["state"])

	_, err := ulid.Parse(env.ID)
	require.NoError(t, err)
}

func TestSendWithoutHandler(t *testing.T) {
	SetSignalHandler(nil)
	require.NotPanics(t, func() { Send("anything", nil) })
}

func TestSendUnmarshalableEvent(t *testing.T) {
	called := false
	SetSignalHandler(func([]byte) { called = true })
	t.Cleanup(func() { SetSignalHandler(nil) })

	Send("bad", make(chan int))
	require.False(t, called)
}

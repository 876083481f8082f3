package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/status-im/status-identity-go/internal"
	"github.com/status-im/status-identity-go/pkg/session"
	"github.com/status-im/status-identity-go/pkg/store"
	"github.com/status-im/status-identity-go/signal"
)

const testDeviceID = "s3rv3rt3st"

func newTestServer(t *testing.T, limits RateLimitConfig) *Server {
	identity, err := internal.NewIdentityContext(store.NewMemory())
	require.NoError(t, err)
	return NewServer(zap.NewNop(), session.NewIdentityService(identity), limits)
}

func rpcBody(t *testing.T, method string, params interface{}) []byte {
	b, err := json.Marshal(map[string]interface{}{
		"method": session.ServiceName + "." + method,
		"params": []interface{}{params},
		"id":     1,
	})
	require.NoError(t, err)
	return b
}

func TestServerPushesSignals(t *testing.T) {
	srv := newTestServer(t, RateLimitConfig{Interval: time.Millisecond, Burst: 10})
	srv.Setup()
	require.NoError(t, srv.Listen("127.0.0.1:0"))
	go srv.Serve()
	t.Cleanup(func() { srv.Stop(context.Background()) })

	port, err := srv.Port()
	require.NoError(t, err)
	require.NotZero(t, port)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+srv.Address()+"/signals", nil)
	require.NoError(t, err)
	defer conn.Close()

	// The dial can return before the handler has registered the connection.
	require.Eventually(t, func() bool {
		srv.connectionsLock.Lock()
		defer srv.connectionsLock.Unlock()
		return len(srv.connections) == 1
	}, time.Second, 10*time.Millisecond)

	resp, err := http.Post("http://"+srv.Address()+"/rpc", "application/json",
		bytes.NewReader(rpcBody(t, "GenerateWallet", session.GenerateWalletRequest{DeviceID: testDeviceID})))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var envelope struct {
		ID    string          `json:"id"`
		Type  string          `json:"type"`
		Event internal.Status `json:"event"`
	}
	require.NoError(t, json.Unmarshal(data, &envelope))
	require.Len(t, envelope.ID, 26)
	require.Equal(t, internal.StatusChangedSignal, envelope.Type)
	require.Equal(t, testDeviceID, envelope.Event.DeviceID)
	require.Equal(t, internal.Generating, envelope.Event.State)
}

func TestServerListenErrors(t *testing.T) {
	srv := newTestServer(t, RateLimitConfig{Interval: time.Second, Burst: 1})
	require.Error(t, srv.Listen("no-port"))

	require.NoError(t, srv.Listen("127.0.0.1:0"))
	require.Error(t, srv.Listen("127.0.0.1:0"))
	srv.Stop(context.Background())
	require.Empty(t, srv.Address())
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, RateLimitConfig{Interval: time.Hour, Burst: 2})
	handler, err := srv.Handler()
	require.NoError(t, err)

	do := func(remote string) int {
		req := httptest.NewRequest(http.MethodPost, "/rpc",
			bytes.NewReader(rpcBody(t, "ValidateDeviceID", session.ValidateDeviceIDRequest{DeviceID: testDeviceID})))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = remote
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	require.Equal(t, http.StatusOK, do("10.0.0.1:1000"))
	require.Equal(t, http.StatusOK, do("10.0.0.1:1001"))
	require.Equal(t, http.StatusTooManyRequests, do("10.0.0.1:1002"))
	require.Equal(t, http.StatusOK, do("10.0.0.2:1000"))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.4:5555"
	require.Equal(t, "192.168.1.4", clientIP(req))

	req.RemoteAddr = "192.168.1.4"
	require.Equal(t, "192.168.1.4", clientIP(req))
}

func TestStopClearsSignalHandler(t *testing.T) {
	srv := newTestServer(t, RateLimitConfig{Interval: time.Second, Burst: 1})
	srv.Setup()
	srv.Stop(context.Background())

	// Delivery with no handler installed is a no-op.
	signal.Send(internal.StatusChangedSignal, internal.NewStatus(testDeviceID))
}

package signal

import (
	"encoding/json"
	"sync"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// SignalHandler receives every serialized envelope.
type SignalHandler func([]byte)

// Envelope is the JSON shape pushed to subscribers.
type Envelope struct {
	ID    string      `json:"id"`
	Type  string      `json:"type"`
	Event interface{} `json:"event"`
}

var (
	mu      sync.RWMutex
	handler SignalHandler
)

// SetSignalHandler installs the handler; nil disables delivery.
func SetSignalHandler(h SignalHandler) {
	mu.Lock()
	defer mu.Unlock()
	handler = h
}

// Send serializes the event and hands it to the installed handler, if any.
func Send(typ string, event interface{}) {
	mu.RLock()
	h := handler
	mu.RUnlock()

	if h == nil {
		return
	}

	data, err := json.Marshal(Envelope{
		ID:    ulid.Make().String(),
		Type:  typ,
		Event: event,
	})
	if err != nil {
		zap.L().Named("signal").Error("failed to marshal signal", zap.String("type", typ), zap.Error(err))
		return
	}

	h(data)
}

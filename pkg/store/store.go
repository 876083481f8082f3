package store

import (
	"sync"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("key not found")

// KV is the minimal persistence contract the identity service relies on.
// Implementations must be safe for concurrent use.
type KV interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Remove(key string) error
	Close() error
}

type Memory struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string][]byte)}
}

func (m *Memory) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *Memory) Close() error {
	return nil
}

type Backend string

const (
	BackendMemory Backend = "memory"
	BackendFile   Backend = "file"
	BackendBolt   Backend = "bolt"
	BackendSQLite Backend = "sqlite"
)

// Open builds the configured backend and, when passphrase is set, wraps it
// in a Sealed store.
func Open(backend Backend, path string, passphrase string) (KV, error) {
	var (
		kv  KV
		err error
	)

	switch backend {
	case BackendMemory:
		kv = NewMemory()
	case BackendFile, "":
		kv, err = NewFile(path)
	case BackendBolt:
		kv, err = OpenBolt(path)
	case BackendSQLite:
		kv, err = OpenSQLite(path)
	default:
		return nil, errors.Errorf("unknown store backend %q", backend)
	}
	if err != nil {
		return nil, err
	}

	if passphrase == "" {
		return kv, nil
	}

	sealed, err := NewSealed(kv, []byte(passphrase))
	if err != nil {
		_ = kv.Close()
		return nil, err
	}
	return sealed, nil
}

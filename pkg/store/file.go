package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

var ErrNotJSON = errors.New("file store values must be JSON")

// File keeps every value in a single JSON document, rewritten on each change.
type File struct {
	mu     sync.Mutex
	path   string
	values map[string]json.RawMessage
}

func NewFile(storage string) (*File, error) {
	f := &File{path: storage, values: map[string]json.RawMessage{}}
	b, err := os.ReadFile(f.path)

	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}

		parent := filepath.Dir(f.path)
		err = os.MkdirAll(parent, 0750)
		if err != nil {
			return nil, err
		}
		return f, nil
	}

	if len(b) == 0 {
		return f, nil
	}

	err = json.Unmarshal(b, &f.values)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse store file")
	}

	return f, nil
}

func (f *File) save() error {
	b, err := json.Marshal(f.values)
	if err != nil {
		return err
	}

	tmp := f.path + ".tmp"
	err = os.WriteFile(tmp, b, 0600)
	if err != nil {
		return err
	}

	return os.Rename(tmp, f.path)
}

func (f *File) Get(key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Set only accepts JSON documents so the file stays readable.
func (f *File) Set(key string, value []byte) error {
	if !json.Valid(value) {
		return ErrNotJSON
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	raw := json.RawMessage(append([]byte(nil), value...))

	prev, had := f.values[key]
	f.values[key] = raw
	if err := f.save(); err != nil {
		if had {
			f.values[key] = prev
		} else {
			delete(f.values, key)
		}
		return err
	}
	return nil
}

func (f *File) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.values[key]; !ok {
		return nil
	}
	delete(f.values, key)
	return f.save()
}

func (f *File) Close() error {
	return nil
}

package labstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps each token's state in <dir>/lab_state_<token>.json.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (f *FileStore) path(token string) string {
	return filepath.Join(f.dir, Key(token)+".json")
}

func (f *FileStore) Load(_ context.Context, token string) (State, error) {
	data, err := os.ReadFile(f.path(token))
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return State{}, fmt.Errorf("read lab state: %w", err)
	}
	return Decode(data)
}

func (f *FileStore) Save(_ context.Context, token string, st State) error {
	if err := os.MkdirAll(f.dir, 0o700); err != nil {
		return fmt.Errorf("create lab state dir: %w", err)
	}

	data, err := json.Marshal(st)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.dir, ".lab_state_*")
	if err != nil {
		return fmt.Errorf("write lab state: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write lab state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write lab state: %w", err)
	}
	return os.Rename(tmp.Name(), f.path(token))
}

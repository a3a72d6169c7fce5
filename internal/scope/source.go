package scope

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// TokenSource is the device-local storage behind a Scope.
type TokenSource interface {
	Load() (string, error)
	Save(token string) error
}

// FileSource keeps the token in a single file, the CLI's equivalent of
// browser local storage.
type FileSource struct {
	path string
}

func NewFileSource(dir string) *FileSource {
	return &FileSource{path: filepath.Join(dir, StorageKey)}
}

func (f *FileSource) Path() string {
	return f.path
}

func (f *FileSource) Load() (string, error) {
	b, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	token := strings.TrimSpace(string(b))
	if token != "" && !ValidToken(token) {
		return "", fmt.Errorf("%w in %s", ErrInvalidToken, f.path)
	}
	return token, nil
}

func (f *FileSource) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}
	return os.WriteFile(f.path, []byte(token+"\n"), 0o600)
}

// MemorySource is a TokenSource for tests and fixed-token callers.
type MemorySource struct {
	mu    sync.Mutex
	token string
	saves int
}

func NewMemorySource(token string) *MemorySource {
	return &MemorySource{token: token}
}

func (m *MemorySource) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemorySource) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.saves++
	return nil
}

// Saves reports how many times a token was written.
func (m *MemorySource) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

package artifact

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"sort"
	"strings"
	"sync"
)

// Memory is a process-local Store, mostly useful for tests.
type Memory struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{objects: make(map[string][]byte)}
}

// Put stores data at path directly.
func (m *Memory) Put(path string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.objects[path] = append([]byte(nil), data...)
}

// Remove deletes path.
func (m *Memory) Remove(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.objects[path]; !exists {
		return fmt.Errorf("%s: %w", path, fs.ErrNotExist)
	}
	delete(m.objects, path)
	return nil
}

func (m *Memory) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, exists := m.objects[path]
	if !exists {
		return nil, fmt.Errorf("%s: %w", path, fs.ErrNotExist)
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *Memory) Create(ctx context.Context, path string) (io.WriteCloser, error) {
	return &memoryWriter{store: m, path: path}, nil
}

func (m *Memory) Exists(ctx context.Context, path string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.objects[path]
	return exists, nil
}

func (m *Memory) List(ctx context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0)
	for path := range m.objects {
		if strings.HasPrefix(path, prefix) {
			out = append(out, path)
		}
	}
	sort.Strings(out)

	return out, nil
}

type memoryWriter struct {
	bytes.Buffer
	store   *Memory
	path    string
	aborted bool
}

func (w *memoryWriter) Close() error {
	if w.aborted {
		return nil
	}
	w.store.Put(w.path, w.Bytes())
	return nil
}

func (w *memoryWriter) Abort() { w.aborted = true }

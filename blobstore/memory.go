package blobstore

import (
	"context"
	"sync"
)

// Memory is an in-memory Store for tests. It records every object and
// exposes lookup helpers so tests can assert on paths and content without
// a network dependency.
type Memory struct {
	mu      sync.Mutex
	objects map[string]*MemObject
	// FailPut, when set, makes every Put return a *StorageError wrapping it.
	FailPut error
}

// MemObject is a stored blob plus its metadata.
type MemObject struct {
	Data        []byte
	ContentType string
	Public      bool
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{objects: make(map[string]*MemObject)}
}

func (m *Memory) Put(_ context.Context, objPath string, data []byte, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailPut != nil {
		return "", &StorageError{Op: "put", Path: objPath, Err: m.FailPut}
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	m.objects[objPath] = &MemObject{Data: cp, ContentType: contentType}
	return "memory://" + objPath, nil
}

func (m *Memory) MakePublic(_ context.Context, objPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[objPath]
	if !ok {
		return &StorageError{Op: "publish", Path: objPath, Err: ErrInvalidIdentifier}
	}
	obj.Public = true
	return nil
}

func (m *Memory) Delete(_ context.Context, objPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, objPath)
	return nil
}

// Get returns the stored object at path, or nil.
func (m *Memory) Get(objPath string) *MemObject {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.objects[objPath]
}

// Len returns the number of stored objects.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

// Paths returns all stored object paths.
func (m *Memory) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.objects))
	for p := range m.objects {
		out = append(out, p)
	}
	return out
}

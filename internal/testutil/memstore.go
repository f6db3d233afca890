// Package testutil provides an in-memory object store for tests.
// This package is internal and should only be used for testing within this module.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// MemStore is a concurrency-safe in-memory storage.ObjectStore.
// The *Err fields inject failures; FailGet and FailPut fail single keys.
type MemStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    int

	ListErr error
	FailGet map[string]error
	FailPut map[string]error
	// BodyErr makes the body of a get fail after the first chunk.
	BodyErr map[string]error
}

// NewMemStore creates a store holding objects, keyed by "bucket/key".
func NewMemStore(objects map[string]string) *MemStore {
	m := &MemStore{objects: map[string][]byte{}}
	for k, v := range objects {
		m.objects[k] = []byte(v)
	}
	return m
}

// ListObjects implements storage.ObjectStore.
func (m *MemStore) ListObjects(_ context.Context, bucket, prefix string) ([]string, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := []string{}
	for k := range m.objects {
		b, key, _ := strings.Cut(k, "/")
		if b == bucket && strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// GetObject implements storage.ObjectStore.
func (m *MemStore) GetObject(_ context.Context, bucket, key string) (io.ReadCloser, error) {
	if err := m.FailGet[key]; err != nil {
		return nil, err
	}
	m.mu.Lock()
	data, ok := m.objects[bucket+"/"+key]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("NoSuchKey: %s", key)
	}
	if err := m.BodyErr[key]; err != nil {
		return io.NopCloser(io.MultiReader(bytes.NewReader(data), &errReader{err: err})), nil
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// PutObject implements storage.ObjectStore.
func (m *MemStore) PutObject(_ context.Context, bucket, key string, body io.Reader, _ int64, _ string) error {
	if err := m.FailPut[key]; err != nil {
		return err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[bucket+"/"+key] = data
	m.puts++
	return nil
}

// Object returns the content stored at bucket/key.
func (m *MemStore) Object(bucket, key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[bucket+"/"+key]
	return string(data), ok
}

// Puts returns the number of successful uploads.
func (m *MemStore) Puts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}

type errReader struct {
	err error
}

func (r *errReader) Read([]byte) (int, error) {
	return 0, r.err
}

package testutil

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/dafibh/casa/casa-backend/internal/websocket"
	"github.com/google/uuid"
)

// MockObjectStore is an in-memory storage.ObjectStore
type MockObjectStore struct {
	Objects   map[string][]byte
	UploadErr error
	mu        sync.Mutex
}

// NewMockObjectStore creates a new MockObjectStore
func NewMockObjectStore() *MockObjectStore {
	return &MockObjectStore{Objects: make(map[string][]byte)}
}

func (m *MockObjectStore) Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error) {
	if m.UploadErr != nil {
		return "", m.UploadErr
	}
	buf, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Objects[objectPath] = buf
	return objectPath, nil
}

func (m *MockObjectStore) Delete(ctx context.Context, objectPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Objects, objectPath)
	return nil
}

func (m *MockObjectStore) GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Objects[objectPath]; !ok {
		return "", errors.New("no such key")
	}
	return "https://storage.test/" + objectPath + "?expires=" + expiry.String(), nil
}

// Has reports whether an object is stored (helper for tests)
func (m *MockObjectStore) Has(objectPath string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Objects[objectPath]
	return ok
}

// RecordingPublisher captures published events
type RecordingPublisher struct {
	Events []websocket.Event
	Owners []uuid.UUID
	mu     sync.Mutex
}

func (r *RecordingPublisher) Publish(ownerID uuid.UUID, event websocket.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Owners = append(r.Owners, ownerID)
	r.Events = append(r.Events, event)
}

// Types returns the published event types in order
func (r *RecordingPublisher) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, len(r.Events))
	for i, e := range r.Events {
		types[i] = e.Type
	}
	return types
}

package media

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"
)

// MemoryStore keeps objects in memory. Used by tests and by the standalone
// recipe service when no object store is configured; there it also serves the
// stored objects over HTTP.
type MemoryStore struct {
	mu      sync.Mutex
	BaseURL string
	objects map[string]memoryObject

	// PutErr and RemoveErr, when set, are returned instead of performing the operation.
	PutErr    error
	RemoveErr error
	Removed   []string
}

type memoryObject struct {
	data        []byte
	contentType string
	stored      time.Time
}

func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{BaseURL: strings.TrimRight(baseURL, "/"), objects: make(map[string]memoryObject)}
}

func (m *MemoryStore) Put(_ context.Context, key string, data []byte, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PutErr != nil {
		return "", m.PutErr
	}
	url := m.BaseURL + "/" + key
	m.objects[url] = memoryObject{data: append([]byte(nil), data...), contentType: contentType, stored: time.Now()}
	return url, nil
}

func (m *MemoryStore) Remove(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RemoveErr != nil {
		return m.RemoveErr
	}
	if _, ok := m.objects[url]; !ok {
		return errors.New("object not found")
	}
	delete(m.objects, url)
	m.Removed = append(m.Removed, url)
	return nil
}

// Has reports whether url is currently stored.
func (m *MemoryStore) Has(url string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[url]
	return ok
}

// Len returns the number of stored objects.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

// ServeHTTP serves the object whose key is the request path. Mount it with
// the path prefix of BaseURL stripped.
func (m *MemoryStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	m.mu.Lock()
	obj, ok := m.objects[m.BaseURL+"/"+strings.TrimPrefix(r.URL.Path, "/")]
	m.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	if obj.contentType != "" {
		w.Header().Set("Content-Type", obj.contentType)
	}
	http.ServeContent(w, r, "", obj.stored, bytes.NewReader(obj.data))
}

package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_ServeHTTP(t *testing.T) {
	store := NewMemoryStore("http://svc.local/media/")
	url, err := store.Put(context.Background(), "avatars/a.png", []byte("png-bytes"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "http://svc.local/media/avatars/a.png", url)

	tests := []struct {
		name   string
		method string
		path   string
		code   int
	}{
		{"stored object", http.MethodGet, "/avatars/a.png", http.StatusOK},
		{"head", http.MethodHead, "/avatars/a.png", http.StatusOK},
		{"unknown key", http.MethodGet, "/avatars/b.png", http.StatusNotFound},
		{"write", http.MethodPost, "/avatars/a.png", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			store.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.code, w.Code)
			if tt.code == http.StatusOK {
				assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
			}
			if tt.method == http.MethodGet && tt.code == http.StatusOK {
				assert.Equal(t, "png-bytes", w.Body.String())
			}
		})
	}

	require.NoError(t, store.Remove(context.Background(), url))
	w := httptest.NewRecorder()
	store.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/avatars/a.png", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

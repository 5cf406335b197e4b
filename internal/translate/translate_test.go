package translate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/translate", r.URL.Path)
		assert.Equal(t, "auto", r.URL.Query().Get("sl"))
		assert.Equal(t, "es", r.URL.Query().Get("dl"))
		assert.Equal(t, "hello", r.URL.Query().Get("text"))

		w.Header().Set("Content-Type", "application/json")
		_, err := w.Write([]byte(`{"source-text": "hello", "destination-text": "hola"}`))
		assert.NoError(t, err)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	out, err := client.Translate(context.Background(), "hello", "es")
	require.NoError(t, err)
	assert.Equal(t, "hola", out)
}

func TestTranslateServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Translate(context.Background(), "hello", "es")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestTranslateEmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, err := w.Write([]byte(`{}`))
		assert.NoError(t, err)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Translate(context.Background(), "hello", "es")
	require.Error(t, err)
}

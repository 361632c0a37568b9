package blob

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClientUpload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/files", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "uploads/rosters", r.FormValue("path"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		require.Equal(t, "roster.xlsx", header.Filename)

		contents, err := io.ReadAll(file)
		require.NoError(t, err)
		require.Equal(t, []byte("spreadsheet bytes"), contents)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"url": "https://blobs.example/uploads/rosters/roster.xlsx"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "api-key")
	url, err := client.Upload(context.Background(), "uploads/rosters", "roster.xlsx", []byte("spreadsheet bytes"))
	require.NoError(t, err)
	require.Equal(t, "https://blobs.example/uploads/rosters/roster.xlsx", url)
}

func TestClientUploadRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusRequestEntityTooLarge)
	}))
	defer server.Close()

	client := NewClient(server.URL, "api-key")
	_, err := client.Upload(context.Background(), "uploads/rosters", "huge.xlsx", []byte("x"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "rejected")
}

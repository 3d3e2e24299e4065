package upload

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vaultmeet/vaultmeet/internal/config"
)

func TestImageHostPut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "vaultmeet_proofs", r.FormValue("upload_preset"))

		f, fh, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "proof.png", fh.Filename)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"secure_url":"https://img/x.png"}`))
	}))
	defer srv.Close()

	h := NewImageHost(config.ImageHostConfig{
		UploadURL:    srv.URL,
		UploadPreset: "vaultmeet_proofs",
	})

	url, err := h.Put(context.Background(), "proof.png", "image/png", strings.NewReader("fake-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "https://img/x.png", url)
}

func TestImageHostPutFallsBackToPlainURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"url":"http://img/y.png"}`))
	}))
	defer srv.Close()

	h := NewImageHost(config.ImageHostConfig{UploadURL: srv.URL})
	url, err := h.Put(context.Background(), "y.png", "", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "http://img/y.png", url)
}

func TestImageHostPutNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	h := NewImageHost(config.ImageHostConfig{UploadURL: srv.URL})
	_, err := h.Put(context.Background(), "p.png", "image/png", strings.NewReader("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=502")
}

func TestNewRejectsUnknownStore(t *testing.T) {
	_, err := New(config.ProofsConfig{Store: "ftp"})
	require.Error(t, err)
}

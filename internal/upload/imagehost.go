package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/vaultmeet/vaultmeet/internal/config"
)

// ImageHost uploads proofs to a hosted image API: unauthenticated
// multipart POST carrying the file plus a fixed upload preset, JSON
// response with the stored image's secure URL.
type ImageHost struct {
	uploadURL string
	preset    string
	client    *http.Client
}

func NewImageHost(cfg config.ImageHostConfig) *ImageHost {
	timeout := cfg.TimeoutMs
	if timeout <= 0 {
		timeout = 10000
	}
	return &ImageHost{
		uploadURL: strings.TrimRight(cfg.UploadURL, "/"),
		preset:    cfg.UploadPreset,
		client:    &http.Client{Timeout: time.Duration(timeout) * time.Millisecond},
	}
}

type imageHostResponse struct {
	SecureURL string `json:"secure_url"`
	URL       string `json:"url"`
}

func (h *ImageHost) Put(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if h.preset != "" {
		if err := mw.WriteField("upload_preset", h.preset); err != nil {
			return "", err
		}
	}

	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.uploadURL, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	res, err := h.client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode/100 != 2 {
		return "", fmt.Errorf("imagehost upload status=%d", res.StatusCode)
	}

	var out imageHostResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("imagehost decode response: %w", err)
	}
	url := out.SecureURL
	if url == "" {
		url = out.URL
	}
	if url == "" {
		return "", fmt.Errorf("imagehost response missing url")
	}
	return url, nil
}

package ocrserver

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

// ============================================================
// Recognizer — external image-to-LaTeX capability
// ============================================================

// Recognizer converts a formula image into a LaTeX string. The
// recognition itself runs in an external service; this package only
// consumes its output and never inspects pixels.
type Recognizer interface {
	Recognize(ctx context.Context, image io.Reader, filename string) (string, error)
}

// HTTPRecognizer calls a remote recognizer over HTTP: the image goes
// out as a multipart "file" field, the LaTeX comes back as plain
// text. Safe for concurrent use; recognition state never outlives a
// single call.
type HTTPRecognizer struct {
	URL    string
	Client *http.Client
}

const maxLatexBytes = 1 << 20 // 1 MiB

func (r *HTTPRecognizer) Recognize(ctx context.Context, image io.Reader, filename string) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}
	if _, err := io.Copy(fw, image); err != nil {
		return "", fmt.Errorf("recognize: read image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, &body)
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxLatexBytes))
	if err != nil {
		return "", fmt.Errorf("recognize: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("recognize: %s returned %d: %s", r.URL, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return strings.TrimSpace(string(data)), nil
}

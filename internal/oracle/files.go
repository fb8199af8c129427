package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"planforge/internal/ingest"
	"planforge/internal/upload"
)

// FileStore is the storage collaborator for resumable transfers: the
// Gemini Files API, driven over its resumable upload protocol. It
// implements upload.Store. The genai SDK has no upload progress hooks,
// which the orchestrator needs, so the protocol is spoken directly.
type FileStore struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

const defaultFilesBaseURL = "https://generativelanguage.googleapis.com/upload/v1beta"

// NewFileStore creates a Files API client.
func NewFileStore(apiKey, baseURL string, timeout time.Duration, logger *zap.Logger) *FileStore {
	if baseURL == "" {
		baseURL = defaultFilesBaseURL
	}
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Upload pushes one file through the resumable protocol: start an upload
// session, then send the bytes in a single finalizing request, reporting
// progress as the body streams. It returns the durable file URI.
func (s *FileStore) Upload(ctx context.Context, f ingest.File, onProgress func(upload.Progress)) (string, error) {
	if s.apiKey == "" {
		return "", fmt.Errorf("API key required")
	}

	file, err := os.Open(f.Path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	s.logger.Debug("starting resumable upload",
		zap.String("name", f.Name), zap.Int64("bytes", f.Size))

	uploadURL, err := s.startSession(ctx, f)
	if err != nil {
		return "", err
	}

	body := &progressReader{r: file, total: f.Size, onProgress: onProgress}
	req, err := http.NewRequestWithContext(ctx, "POST", uploadURL, body)
	if err != nil {
		return "", err
	}
	req.ContentLength = f.Size
	req.Header.Set("X-Goog-Upload-Offset", "0")
	req.Header.Set("X-Goog-Upload-Command", "upload, finalize")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload data failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("upload finalization failed (status %d): %s", resp.StatusCode, msg)
	}

	var result struct {
		File struct {
			URI string `json:"uri"`
		} `json:"file"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to parse upload response: %w", err)
	}
	if result.File.URI == "" {
		return "", fmt.Errorf("no file uri in upload response")
	}

	s.logger.Debug("upload finished",
		zap.String("name", f.Name), zap.String("uri", result.File.URI))
	return result.File.URI, nil
}

// startSession opens a resumable upload session and returns the session
// upload URL from the response headers.
func (s *FileStore) startSession(ctx context.Context, f ingest.File) (string, error) {
	url := fmt.Sprintf("%s/files?key=%s", s.baseURL, s.apiKey)

	meta, err := json.Marshal(map[string]any{
		"file": map[string]string{"displayName": f.Name},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(meta))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Upload-Protocol", "resumable")
	req.Header.Set("X-Goog-Upload-Command", "start")
	req.Header.Set("X-Goog-Upload-Header-Content-Length", fmt.Sprintf("%d", f.Size))
	req.Header.Set("X-Goog-Upload-Header-Content-Type", f.ContentType)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload start request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("upload start failed (status %d): %s", resp.StatusCode, msg)
	}

	uploadURL := resp.Header.Get("X-Goog-Upload-URL")
	if uploadURL == "" {
		return "", fmt.Errorf("no upload URL returned in headers")
	}
	return uploadURL, nil
}

// progressReader reports cumulative bytes read as the request body streams.
type progressReader struct {
	r          io.Reader
	total      int64
	sent       int64
	onProgress func(upload.Progress)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		if p.onProgress != nil {
			pct := 0.0
			if p.total > 0 {
				pct = float64(p.sent) / float64(p.total) * 100
			}
			p.onProgress(upload.Progress{
				BytesUploaded: p.sent,
				BytesTotal:    p.total,
				Percentage:    pct,
			})
		}
	}
	return n, err
}

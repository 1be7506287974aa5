package http_client

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/specialistvlad/ceresflow/internal/ctxlog"
)

// Upload PUTs the file at path to url, typically a pre-signed object store
// URL, and returns the response status code. Any status other than 200 is an
// error.
func (m *Module) Upload(ctx context.Context, path, url string) (int, error) {
	logger := ctxlog.FromContext(ctx).With("action", "upload")

	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open source file '%s': %w", path, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to get file stats for '%s': %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, file)
	if err != nil {
		return 0, fmt.Errorf("failed to create upload request: %w", err)
	}
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = stat.Size()

	logger.Info("Uploading file", "source", path, "size", stat.Size(), "contentType", contentType)
	resp, err := m.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to execute upload request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, fmt.Errorf("upload failed with status: %s", resp.Status)
	}
	logger.Info("Successfully uploaded file", "status", resp.Status)
	return resp.StatusCode, nil
}

package publish

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/specialistvlad/wheelforge/internal/ctxlog"
	"github.com/specialistvlad/wheelforge/internal/wheel"
)

// Uploader pushes built wheels to a package index using the legacy upload
// API: one multipart POST per file, token-authenticated.
type Uploader struct {
	IndexURL string
	Token    string

	// Client defaults to a shared client so sequential uploads reuse
	// connections.
	Client *http.Client
}

var defaultClient = &http.Client{}

// Upload sends one wheel file to the index. The filename's tag tuple
// supplies the index metadata fields.
func (u *Uploader) Upload(ctx context.Context, path string) error {
	logger := ctxlog.FromContext(ctx)

	f, err := wheel.ParseFilename(filepath.Base(path))
	if err != nil {
		return fmt.Errorf("refusing to upload non-wheel file: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %q: %w", path, err)
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fields := map[string]string{
		":action":          "file_upload",
		"protocol_version": "1",
		"name":             wheel.NormalizeDistribution(f.Distribution),
		"version":          f.Version,
		"filetype":         "bdist_wheel",
		"pyversion":        f.PythonTag,
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return fmt.Errorf("failed to build upload form: %w", err)
		}
	}
	part, err := w.CreateFormFile("content", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to build upload form: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.IndexURL, &body)
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	// Index tokens use the reserved "__token__" user over basic auth.
	req.SetBasicAuth("__token__", u.Token)

	logger.Info("Uploading wheel to index.", "file", filepath.Base(path), "size", len(data))

	client := u.Client
	if client == nil {
		client = defaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("index rejected %q with status: %s", filepath.Base(path), resp.Status)
	}
	logger.Info("Upload accepted.", "file", filepath.Base(path), "status", resp.Status)
	return nil
}


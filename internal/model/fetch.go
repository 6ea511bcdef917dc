package model

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"
)

const fetchTimeout = 2 * time.Minute

// fetchArtifact downloads the model file into cacheDir once and returns the
// local path. An already cached copy is reused without touching the network.
func fetchArtifact(ctx context.Context, rawURL, cacheDir string) (string, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create model cache dir: %w", err)
	}

	local := filepath.Join(cacheDir, artifactName(rawURL))
	if _, err := os.Stat(local); err == nil {
		return local, nil
	}

	reqCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("build artifact request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download model artifact: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download model artifact: unexpected status %s", resp.Status)
	}

	// Write through a temp file so a partial download never looks cached.
	tmp := local + ".partial"
	out, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("create artifact file: %w", err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("write model artifact: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("close artifact file: %w", err)
	}
	if err := os.Rename(tmp, local); err != nil {
		return "", fmt.Errorf("finalize model artifact: %w", err)
	}
	return local, nil
}

func artifactName(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "model.onnx"
	}
	name := path.Base(parsed.Path)
	if name == "" || name == "." || name == "/" {
		return "model.onnx"
	}
	return name
}

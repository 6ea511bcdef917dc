package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/example/dermascan/internal/logging"
)

// assetNamespace is the fixed namespace uploaded originals live under. The
// stored path and the public URL share it so a record id is always resolvable
// to its asset.
const assetNamespace = "uploaded_images"

// AssetStore persists original uploaded images under a generated identifier
// and returns a publicly dereferenceable location.
type AssetStore interface {
	Store(ctx context.Context, id string, data []byte, contentType string) (string, error)
}

// DirectoryStore is an AssetStore backed by a local directory that the HTTP
// layer serves statically.
type DirectoryStore struct {
	root    string
	baseURL string
	logger  *zap.Logger
}

// NewDirectoryStore prepares the asset namespace under root. baseURL is the
// public prefix returned locations are built from.
func NewDirectoryStore(root, baseURL string, logger *zap.Logger) (*DirectoryStore, error) {
	if err := os.MkdirAll(filepath.Join(root, assetNamespace), 0o755); err != nil {
		return nil, fmt.Errorf("create asset dir: %w", err)
	}
	return &DirectoryStore{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.Named("asset_store"),
	}, nil
}

// Dir returns the directory holding stored assets, for static serving.
func (s *DirectoryStore) Dir() string {
	return filepath.Join(s.root, assetNamespace)
}

// Store writes the original bytes under the identifier and returns the public
// location. The path is derived from the id alone, so the id appears verbatim
// in the returned location.
func (s *DirectoryStore) Store(ctx context.Context, id string, data []byte, contentType string) (string, error) {
	target := filepath.Join(s.root, assetNamespace, id)
	if err := os.WriteFile(target, data, 0o644); err != nil {
		wrapped := logging.NewOperationError("asset_store.write", id, err)
		s.logger.Error("asset write failed", zap.Error(wrapped), zap.String("content_type", contentType))
		return "", wrapped
	}
	return fmt.Sprintf("%s/%s/%s", s.baseURL, assetNamespace, id), nil
}

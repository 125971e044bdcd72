package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"ruralmatch/internal/model"

	"github.com/rotisserie/eris"
)

// LocalStore writes images under a directory served by the HTTP server.
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore creates a store rooted at dir. URLs are baseURL + "/" + key.
func NewLocalStore(dir, baseURL string) *LocalStore {
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}
}

// UploadImage saves file and returns its public URL.
func (s *LocalStore) UploadImage(ctx context.Context, listingID int64, file model.ImageFile) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", eris.Wrap(err, "storage: local upload")
	}

	key := objectKey(listingID, file.Name, file.ContentType)
	dst := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", eris.Wrap(err, "storage: create upload directory")
	}
	if err := os.WriteFile(dst, file.Data, 0o644); err != nil {
		return "", eris.Wrapf(err, "storage: write %s", file.Name)
	}
	return s.baseURL + "/" + key, nil
}

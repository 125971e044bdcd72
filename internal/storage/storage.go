// Package storage uploads listing images to object storage or local disk.
package storage

import (
	"fmt"
	"mime"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// objectKey builds a unique object path for a listing image, keeping the
// file extension so the storage backend serves the right content type.
func objectKey(listingID int64, name, contentType string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
			ext = exts[0]
		}
	}
	return path.Join("listings", fmt.Sprintf("%d", listingID), uuid.NewString()+ext)
}

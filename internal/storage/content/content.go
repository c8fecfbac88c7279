// Package content stores the binary payload of files and versions.
package content

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("content not found")

type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete is a no-op for missing keys.
	Delete(ctx context.Context, key string) error
}

// NewKey builds a unique key keeping the original extension:
// ("files", "Report.PDF") -> "files/<uuid>.pdf".
func NewKey(prefix, originalName string) string {
	ext := strings.ToLower(path.Ext(originalName))
	return path.Join(prefix, uuid.NewString()+ext)
}

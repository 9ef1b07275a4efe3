// Package storage turns uploaded creation assets into URLs a video record can hold.
package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
)

// AssetStorage persists an uploaded file and returns the URL to reference it by.
type AssetStorage interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}

// ErrTooLarge is returned when an inline asset exceeds its limit.
var ErrTooLarge = errors.New("asset too large")

// LocalStorage writes assets under a directory served at a URL prefix.
type LocalStorage struct {
	dir    string
	prefix string
}

// NewLocalStorage creates dir if needed. Saved files are addressed as prefix + "/" + name.
func NewLocalStorage(dir, prefix string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStorage{dir: dir, prefix: strings.TrimSuffix(prefix, "/")}, nil
}

// Dir is the directory assets are written to.
func (s *LocalStorage) Dir() string {
	return s.dir
}

// Save writes r atomically. Names are reduced to their base element.
func (s *LocalStorage) Save(_ context.Context, name, _ string, r io.Reader) (string, error) {
	base := filepath.Base(filepath.Clean("/" + name))
	if base == "/" || base == "." {
		return "", fmt.Errorf("local storage: invalid name %q", name)
	}

	f, err := renameio.NewPendingFile(filepath.Join(s.dir, base), renameio.WithPermissions(0o644))
	if err != nil {
		return "", fmt.Errorf("local storage: %w", err)
	}
	defer f.Cleanup()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("local storage write %s: %w", base, err)
	}
	if err := f.CloseAtomicallyReplace(); err != nil {
		return "", fmt.Errorf("local storage commit %s: %w", base, err)
	}
	return path.Join(s.prefix, base), nil
}

// DataURI embeds r as a base64 data URI, refusing inputs over limit bytes.
// Thumbnails and channel images are stored this way when no bucket is configured.
func DataURI(contentType string, r io.Reader, limit int64) (string, error) {
	raw, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", fmt.Errorf("read asset: %w", err)
	}
	if int64(len(raw)) > limit {
		return "", fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, limit)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(raw), nil
}

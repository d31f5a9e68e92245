// Package storage persists export artifacts on the local filesystem.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Local writes export files under a root directory, namespaced by
// year/month. Writes are atomic: bytes land in a temp file which is then
// renamed into place.
type Local struct {
	root string
	now  func() time.Time
}

// NewLocal creates the adapter rooted at dir.
func NewLocal(dir string) *Local {
	return &Local{root: dir, now: time.Now}
}

// SaveExport stores data and returns the final path. The filename keeps
// the hint's extension and gains a short unique suffix so repeated
// exports of different reports never collide.
func (l *Local) SaveExport(data []byte, filenameHint string) (string, error) {
	now := l.now().UTC()
	dir := filepath.Join(l.root, now.Format("2006"), now.Format("01"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	ext := filepath.Ext(filenameHint)
	stem := strings.TrimSuffix(filepath.Base(filenameHint), ext)
	final := filepath.Join(dir, fmt.Sprintf("%s_%s%s", stem, uuid.NewString()[:8], ext))

	tmp, err := os.CreateTemp(dir, stem+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("write export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("close export: %w", err)
	}
	if err := os.Rename(tmpName, final); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("finalize export: %w", err)
	}
	return final, nil
}

// Package snapshot persists the current XMLTV document as a plain and a
// gzip-compressed file under the data directory.
package snapshot

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alanniew/hntv-live/internal/epg"
)

const (
	xmlFileName = "live.xml"
	gzFileName  = "live.xml.gz"
)

// Store reads and writes the single current snapshot. Writes happen only from
// the refresh loop or the load fallback; each file is replaced atomically so a
// concurrent reader never sees a torn file.
type Store struct {
	dir    string
	logger *slog.Logger

	// Fallback builds a fresh document when no snapshot exists on disk.
	// Optional; when nil, Load degrades to the empty document.
	Fallback func(ctx context.Context) string
}

// NewStore creates a Store rooted at dir.
func NewStore(dir string, logger *slog.Logger) *Store {
	return &Store{dir: dir, logger: logger}
}

// XMLPath returns the path of the plain snapshot file.
func (s *Store) XMLPath() string {
	return filepath.Join(s.dir, xmlFileName)
}

// GzPath returns the path of the compressed snapshot file.
func (s *Store) GzPath() string {
	return filepath.Join(s.dir, gzFileName)
}

// Save writes xmlText to the plain and compressed paths. Both files are
// written to a temp sibling and renamed into place, plain first, so readers
// preferring the compressed file keep a complete previous generation until the
// pair is fully replaced.
func (s *Store) Save(xmlText string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	if _, err := zw.Write([]byte(xmlText)); err != nil {
		return fmt.Errorf("compressing snapshot: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("compressing snapshot: %w", err)
	}

	if err := writeAtomic(s.XMLPath(), []byte(xmlText)); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := writeAtomic(s.GzPath(), gz.Bytes()); err != nil {
		return fmt.Errorf("writing compressed snapshot: %w", err)
	}

	s.logger.Info("Saved snapshot", "xml", s.XMLPath(), "gz", s.GzPath(), "bytes", len(xmlText))
	return nil
}

// Load returns the current snapshot, preferring the compressed file, then the
// plain file, then the Fallback builder. Read or decompress errors degrade to
// the minimal empty document.
func (s *Store) Load(ctx context.Context) string {
	if data, err := os.ReadFile(s.GzPath()); err == nil {
		text, err := gunzip(data)
		if err != nil {
			s.logger.Error("Failed to decompress snapshot", "path", s.GzPath(), "error", err)
			return epg.EmptyDocument()
		}
		return text
	}

	if data, err := os.ReadFile(s.XMLPath()); err == nil {
		return string(data)
	} else if !os.IsNotExist(err) {
		s.logger.Error("Failed to read snapshot", "path", s.XMLPath(), "error", err)
		return epg.EmptyDocument()
	}

	if s.Fallback == nil {
		return epg.EmptyDocument()
	}

	s.logger.Info("No snapshot on disk, building on demand")
	text := s.Fallback(ctx)
	if err := s.Save(text); err != nil {
		s.logger.Error("Failed to save on-demand snapshot", "error", err)
	}
	return text
}

// Refresh builds a fresh snapshot and saves it. When the build fails, the
// previous snapshot on disk is kept rather than overwritten with the degraded
// fallback document.
func (s *Store) Refresh(ctx context.Context, build func(ctx context.Context) (string, error)) error {
	doc, err := build(ctx)
	if err != nil {
		return err
	}
	return s.Save(doc)
}

// EnsureCompressed makes sure the compressed snapshot exists, building and
// saving a fresh one if it does not. Returns the compressed file path.
func (s *Store) EnsureCompressed(ctx context.Context) (string, error) {
	if _, err := os.Stat(s.GzPath()); err == nil {
		return s.GzPath(), nil
	}
	if s.Fallback == nil {
		return "", fmt.Errorf("no compressed snapshot at %s", s.GzPath())
	}
	if err := s.Save(s.Fallback(ctx)); err != nil {
		return "", err
	}
	return s.GzPath(), nil
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func gunzip(data []byte) (string, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	defer zr.Close()
	text, err := io.ReadAll(zr)
	if err != nil {
		return "", err
	}
	return string(text), nil
}

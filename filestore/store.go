// Package filestore serves file upload and download requests against a
// configured directory. Uploaded files are stored under a generated unique
// name and served back by exact stored name only. There is no resumable
// transfer support and no size limit.
package filestore

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound means no stored file has the requested name.
	ErrNotFound = errors.New("file not found")
	// ErrInvalidName rejects names that are not a plain file name.
	ErrInvalidName = errors.New("invalid file name")
)

// Store persists uploads in a single flat directory.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore creates a store rooted at dir, creating the directory if needed.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("upload directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory %s: %w", dir, err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{dir: dir, logger: logger}, nil
}

// Save writes the upload under a generated unique name, preserving the
// original file extension, and returns the stored name.
func (s *Store) Save(r io.Reader, originalName string) (string, error) {
	name := uniqueName(originalName)

	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create file %s: %w", name, err)
	}

	written, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		// Remove the partial write so a retry does not collide with it.
		_ = os.Remove(filepath.Join(s.dir, name))
		return "", fmt.Errorf("write file %s: %w", name, err)
	}

	s.logger.Info("File stored", "name", name, "original_name", originalName, "bytes", written)
	return name, nil
}

// Open returns the stored file and its content type. The name must match a
// stored name exactly; anything that is not a plain file name is rejected
// before touching the filesystem.
func (s *Store) Open(name string) (*os.File, string, error) {
	if name == "" || filepath.Base(name) != name || name == "." || name == ".." {
		return nil, "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	path := filepath.Join(s.dir, name)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, "", fmt.Errorf("open file %s: %w", name, err)
	}

	contentType, err := s.sniffContentType(f, name)
	if err != nil {
		f.Close()
		return nil, "", err
	}

	return f, contentType, nil
}

// sniffContentType resolves the content type from the file extension first,
// then from the leading bytes, falling back to application/octet-stream.
// The file offset is rewound before returning.
func (s *Store) sniffContentType(f *os.File, name string) (string, error) {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct, nil
	}

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("sniff content type of %s: %w", name, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind %s: %w", name, err)
	}
	if n == 0 {
		return "application/octet-stream", nil
	}

	return http.DetectContentType(buf[:n]), nil
}

// uniqueName builds "<timestamp>-<uuid>[.ext]" from the original name,
// keeping only a lowercased extension.
func uniqueName(originalName string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	if ext == "." {
		ext = ""
	}
	return time.Now().Format("20060102150405") + "-" + uuid.New().String() + ext
}

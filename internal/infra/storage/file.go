package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/adrg/xdg"

	"github.com/bryanwahyu/threatdesk/internal/domain/records"
)

// AppName names the XDG data sub-directory.
const AppName = "threatdesk"

// validSegment is one slash-separated part of a key. A leading dot is
// refused so keys can neither climb out of dir nor hide files.
var validSegment = regexp.MustCompile(`^[A-Za-z0-9_-][A-Za-z0-9_.-]{0,127}$`)

// FileStore keeps each record as <dir>/<key>.json. Slashes in a key become
// sub-directories, so prefixed keys like "team/scan_results" work.
type FileStore struct {
	dir string
}

// DefaultDir is $XDG_DATA_HOME/threatdesk.
func DefaultDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// NewFileStore creates dir if needed. An empty dir means DefaultDir().
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = DefaultDir()
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(key string) (string, error) {
	parts := strings.Split(key, "/")
	for _, part := range parts {
		if !validSegment.MatchString(part) {
			return "", fmt.Errorf("invalid record key %q", key)
		}
	}
	return filepath.Join(append([]string{s.dir}, parts...)...) + ".json", nil
}

func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p) //nolint:gosec // path is built from a validated key
	if errors.Is(err, os.ErrNotExist) {
		return nil, records.ErrNotFound
	}
	return b, err
}

// Put writes to a temp file and renames it so readers never see half a record.
func (s *FileStore) Put(_ context.Context, key string, data []byte) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(p)+"-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *FileStore) Ping(context.Context) error {
	_, err := os.Stat(s.dir)
	return err
}

func (s *FileStore) Close() error { return nil }

package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// StatementStore keeps rendered earnings statements on local disk, one
// subdirectory per trainer.
type StatementStore struct {
	baseDir string
}

// NewStatementStore ensures the base directory exists.
func NewStatementStore(baseDir string) (*StatementStore, error) {
	if baseDir == "" {
		baseDir = "./statements"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create statements directory: %w", err)
	}
	return &StatementStore{baseDir: baseDir}, nil
}

// Save writes data under the given relative path and returns that path.
func (s *StatementStore) Save(relPath string, data []byte) (string, error) {
	path, err := s.resolve(relPath)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare statement directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write statement: %w", err)
	}
	return relPath, nil
}

// Open returns a read-only handle to a stored statement.
func (s *StatementStore) Open(relPath string) (*os.File, error) {
	path, err := s.resolve(relPath)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open statement: %w", err)
	}
	return file, nil
}

// Delete removes a stored statement; missing files are not an error.
func (s *StatementStore) Delete(relPath string) error {
	path, err := s.resolve(relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete statement: %w", err)
	}
	return nil
}

// resolve joins relPath under the base dir and refuses escapes, since the
// path travels inside signed download tokens.
func (s *StatementStore) resolve(relPath string) (string, error) {
	cleaned := filepath.Clean(relPath)
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid statement path %q", relPath)
	}
	return filepath.Join(s.baseDir, cleaned), nil
}

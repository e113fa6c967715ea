// Package statestore persists serialized browser login state.
//
// The file on disk is the source of truth. WriteFile replaces it atomically so a reader
// never sees a torn file; concurrent writers to the same path resolve last-write-wins.
// A Mirror can additionally copy the same bytes to object storage for CI runners that
// share one login.
package statestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

const (
	dirPerm  = 0o755
	filePerm = 0o600
)

// WriteFile atomically writes state to path, creating parent directories as needed.
func WriteFile(path string, state []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("create state directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(state); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp state file: %w", err)
	}
	if err := os.Chmod(tmpName, filePerm); err != nil {
		return fmt.Errorf("chmod temp state file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace state file %s: %w", path, err)
	}
	committed = true
	return nil
}

// ReadFile returns the persisted state at path.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read state file %s: %w", path, err)
	}
	return data, nil
}

// Store persists login state.
type Store interface {
	Save(ctx context.Context, path string, state []byte) error
}

// Mirror copies persisted login state to a secondary location.
type Mirror interface {
	Upload(ctx context.Context, state []byte) error
	// Location identifies the mirror target for logs and reports.
	Location() string
}

// FileStore writes state files with WriteFile.
type FileStore struct{}

// Save implements Store.
func (FileStore) Save(_ context.Context, path string, state []byte) error {
	return WriteFile(path, state)
}

package datastore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type (
	DiskDataStore struct {
		rootPath string
	}
)

func NewDiskDataStore(rootPath string) (*DiskDataStore, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("error in os.MkdirAll: %w", err)
	}
	dds := &DiskDataStore{
		rootPath: rootPath,
	}

	return dds, nil
}

var ErrKeyOutsideRoot = errors.New("key resolves outside the store root")

func (dds *DiskDataStore) path(key string) (string, error) {
	p := filepath.Join(dds.rootPath, filepath.FromSlash(key))
	rel, err := filepath.Rel(dds.rootPath, p)
	if err != nil {
		return "", fmt.Errorf("error in filepath.Rel: %w", err)
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%q: %w", key, ErrKeyOutsideRoot)
	}
	return p, nil
}

func (dds *DiskDataStore) GetPartFile(_ context.Context, key string) (io.ReadCloser, error) {
	p, err := dds.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("error in os.Open: %w", err)
	}
	return f, nil
}

// WritePartFile writes to a temp file and renames it so readers never see a partial part.
func (dds *DiskDataStore) WritePartFile(_ context.Context, key string, b []byte) error {
	p, err := dds.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("error in os.MkdirAll: %w", err)
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("error in os.WriteFile: %w", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		return fmt.Errorf("error in os.Rename: %w", err)
	}
	return nil
}

func (dds *DiskDataStore) Shutdown(_ context.Context) error {
	return nil
}

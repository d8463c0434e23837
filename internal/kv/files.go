package kv

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"

	"github.com/spf13/afero"
)

// Files stores one file per key under a root directory.
type Files struct {
	fs  afero.Fs
	dir string
}

// NewFiles creates dir on fs if needed.
func NewFiles(fs afero.Fs, dir string) (*Files, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Files{fs: fs, dir: dir}, nil
}

func (f *Files) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := afero.ReadFile(f.fs, f.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read entry %q: %w", key, err)
	}
	return string(data), nil
}

// Set writes through a temporary file and renames it over the entry.
func (f *Files) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target := f.path(key)
	tmp := target + ".tmp"
	if err := afero.WriteFile(f.fs, tmp, []byte(value), 0o644); err != nil {
		_ = f.fs.Remove(tmp)
		return fmt.Errorf("write entry %q: %w", key, err)
	}
	if err := f.fs.Rename(tmp, target); err != nil {
		_ = f.fs.Remove(tmp)
		return fmt.Errorf("replace entry %q: %w", key, err)
	}
	return nil
}

func (f *Files) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := f.fs.Remove(f.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete entry %q: %w", key, err)
	}
	return nil
}

func (f *Files) path(key string) string {
	return path.Join(f.dir, url.PathEscape(key)+".json")
}

// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package sessionstorage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/spf13/afero"
)

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// File stores each key as a file named <key>.json in a directory. The
// directory is created with mode 0700 and files are written with mode
// 0600, atomically (temp file + rename).
type File struct {
	fs        afero.Fs
	directory string
}

// NewFile returns a File backend rooted at directory on fs. Pass
// afero.NewOsFs() in production and afero.NewMemMapFs() in tests.
func NewFile(fs afero.Fs, directory string) *File {
	return &File{fs: fs, directory: directory}
}

func (f *File) path(key string) (string, error) {
	if !keyPattern.MatchString(key) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(f.directory, key+".json"), nil
}

func (f *File) GetItem(_ context.Context, key string) (string, bool, error) {
	path, err := f.path(key)
	if err != nil {
		return "", false, err
	}
	data, err := afero.ReadFile(f.fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), true, nil
}

func (f *File) SetItem(_ context.Context, key, value string) error {
	path, err := f.path(key)
	if err != nil {
		return err
	}
	if err := f.fs.MkdirAll(f.directory, 0o700); err != nil {
		return fmt.Errorf("creating %s: %w", f.directory, err)
	}

	temp, err := afero.TempFile(f.fs, f.directory, "."+key+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	tempPath := temp.Name()
	cleanup := func() { f.fs.Remove(tempPath) }

	if _, err := temp.WriteString(value); err != nil {
		temp.Close()
		cleanup()
		return fmt.Errorf("writing %s: %w", tempPath, err)
	}
	if err := temp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("closing %s: %w", tempPath, err)
	}
	if err := f.fs.Chmod(tempPath, 0o600); err != nil {
		cleanup()
		return fmt.Errorf("chmod %s: %w", tempPath, err)
	}
	if err := f.fs.Rename(tempPath, path); err != nil {
		cleanup()
		return fmt.Errorf("renaming %s to %s: %w", tempPath, path, err)
	}
	return nil
}

func (f *File) RemoveItem(_ context.Context, key string) error {
	path, err := f.path(key)
	if err != nil {
		return err
	}
	if err := f.fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}

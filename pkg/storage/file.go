package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/darkjune/eclipse/pkg/naming"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultDir is the directory name created inside the user configuration directory.
	DefaultDir = "eclipse"
	// DefaultFileName is the name of the YAML document holding parameter values.
	DefaultFileName = "parameters.yaml"
)

// DefaultConfigPath returns the default location of the parameters file.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, DefaultDir, DefaultFileName)
}

// File stores values in a single YAML mapping. Saves are buffered until Flush.
type File struct {
	path string

	mu     sync.Mutex
	values map[string]string
	loaded bool
	dirty  bool
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Path() string {
	return f.path
}

func (f *File) Load(_ context.Context, key naming.FullName) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.read(); err != nil {
		return "", false, err
	}

	raw, ok := f.values[key.String()]
	return raw, ok, nil
}

func (f *File) Save(_ context.Context, key naming.FullName, raw string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.read(); err != nil {
		return err
	}

	if current, ok := f.values[key.String()]; ok && current == raw {
		return nil
	}

	f.values[key.String()] = raw
	f.dirty = true
	return nil
}

// Flush writes buffered values to disk. The file is replaced atomically.
func (f *File) Flush(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.dirty {
		return nil
	}

	data, err := yaml.Marshal(f.values)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", f.path, err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return err
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return err
	}

	f.dirty = false
	return nil
}

func (f *File) read() error {
	if f.loaded {
		return nil
	}

	f.values = map[string]string{}

	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		f.loaded = true
		return nil
	}
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, &f.values); err != nil {
		return fmt.Errorf("failed to parse %s: %w", f.path, err)
	}
	if f.values == nil {
		f.values = map[string]string{}
	}

	f.loaded = true
	return nil
}

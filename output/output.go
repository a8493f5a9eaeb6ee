// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

// Package output writes extracted images and the merged text file.
package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Dir writes images into a directory. It is safe for concurrent use as
// long as names are unique.
type Dir struct {
	Path string
}

// NewDir creates path, and any missing parents, and returns a sink for it.
func NewDir(path string) (*Dir, error) {
	if path == "" {
		return nil, fmt.Errorf("create image dir: empty path")
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}
	return &Dir{Path: path}, nil
}

// WriteImage stores data as name inside the directory.
func (d *Dir) WriteImage(name string, data []byte) error {
	name = safeName(name)
	path := filepath.Join(d.Path, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write image %q: %w", path, err)
	}
	return nil
}

func safeName(name string) string {
	if name == "" {
		return "unnamed"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
}

// Memory keeps images in memory; tests and callers that only want the text
// use it.
type Memory struct {
	mu    sync.Mutex
	files map[string][]byte
}

// WriteImage implements the image sink contract.
func (m *Memory) WriteImage(name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.files == nil {
		m.files = make(map[string][]byte)
	}
	m.files[name] = append([]byte(nil), data...)
	return nil
}

// Names returns the stored names in sorted order.
func (m *Memory) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.files))
	for n := range m.files {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// File returns the bytes stored under name.
func (m *Memory) File(name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.files[name]
	return b, ok
}

// WriteFile creates path's parent directory and writes the output of fn to
// path through a temporary file in the same directory, renamed into place
// on success. A failed write leaves any previous file untouched.
func WriteFile(path string, fn func(w io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err = fn(bw); err != nil {
		return err
	}
	if err = bw.Flush(); err != nil {
		return fmt.Errorf("write %q: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %q: %w", path, err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod %q: %w", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into %q: %w", path, err)
	}
	return nil
}

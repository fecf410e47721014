// Package tree abstracts the project file tree that artifacts are staged into.
// Paths are slash-separated and relative to the tree root.
package tree

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// ErrOutsideRoot is returned for paths that resolve above the tree root.
var ErrOutsideRoot = errors.New("tree: path escapes project root")

// Tree is the minimal file-system surface the pipeline needs.
type Tree interface {
	Exists(p string) bool
	Read(p string) ([]byte, error)
	// Write creates or fully replaces p, creating missing parents.
	Write(p string, data []byte) error
}

// Clean normalizes p into a root-relative slash path.
func Clean(p string) (string, error) {
	p = path.Clean(strings.ReplaceAll(p, "\\", "/"))
	if p == ".." || strings.HasPrefix(p, "../") {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, p)
	}
	p = strings.TrimLeft(p, "/")
	if p == "" || p == "." {
		return "", fmt.Errorf("tree: empty path")
	}
	return p, nil
}

// Disk is a Tree rooted at a directory on the local file system.
type Disk struct {
	root string
}

func NewDisk(root string) *Disk {
	return &Disk{root: root}
}

func (d *Disk) abs(p string) (string, error) {
	clean, err := Clean(p)
	if err != nil {
		return "", err
	}
	return filepath.Join(d.root, filepath.FromSlash(clean)), nil
}

func (d *Disk) Exists(p string) bool {
	abs, err := d.abs(p)
	if err != nil {
		return false
	}
	info, err := os.Stat(abs)
	return err == nil && !info.IsDir()
}

func (d *Disk) Read(p string) ([]byte, error) {
	abs, err := d.abs(p)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(abs)
}

func (d *Disk) Write(p string, data []byte) error {
	abs, err := d.abs(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", p, err)
	}
	return os.WriteFile(abs, data, 0644)
}

// Memory is an in-memory Tree.
type Memory struct {
	files map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{files: make(map[string][]byte)}
}

func (m *Memory) Exists(p string) bool {
	clean, err := Clean(p)
	if err != nil {
		return false
	}
	_, ok := m.files[clean]
	return ok
}

func (m *Memory) Read(p string) ([]byte, error) {
	clean, err := Clean(p)
	if err != nil {
		return nil, err
	}
	data, ok := m.files[clean]
	if !ok {
		return nil, fmt.Errorf("%s: %w", clean, fs.ErrNotExist)
	}
	return append([]byte(nil), data...), nil
}

func (m *Memory) Write(p string, data []byte) error {
	clean, err := Clean(p)
	if err != nil {
		return err
	}
	m.files[clean] = append([]byte{}, data...)
	return nil
}

// Paths lists every file in the tree, sorted.
func (m *Memory) Paths() []string {
	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

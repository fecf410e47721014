package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"prototyper/internal/tree"
)

const (
	ManifestPath      = "angular.json"
	DefaultSourceRoot = "src"
)

var (
	ErrManifestNotFound   = errors.New("workspace: manifest not found")
	ErrManifestUnreadable = errors.New("workspace: manifest unreadable")
	ErrProjectNotFound    = errors.New("workspace: project not found")
)

// Manifest is the subset of the workspace manifest the locator reads.
type Manifest struct {
	DefaultProject string             `json:"defaultProject"`
	Projects       map[string]Project `json:"projects"`
}

type Project struct {
	Root       string `json:"root"`
	SourceRoot string `json:"sourceRoot"`
}

// ReadManifest loads ManifestPath from t.
func ReadManifest(t tree.Tree) (*Manifest, error) {
	if !t.Exists(ManifestPath) {
		return nil, fmt.Errorf("%w: could not find %q, run inside a workspace", ErrManifestNotFound, ManifestPath)
	}
	data, err := t.Read(ManifestPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifestUnreadable, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifestUnreadable, err)
	}
	return &m, nil
}

// Resolve picks a project by name, falling back to the declared default and
// then to the only project when the manifest has exactly one.
func (m *Manifest) Resolve(name string) (string, Project, error) {
	if name == "" {
		name = m.DefaultProject
	}
	if name == "" && len(m.Projects) == 1 {
		for only := range m.Projects {
			name = only
		}
	}
	p, ok := m.Projects[name]
	if !ok {
		return "", Project{}, fmt.Errorf("%w: %q (known: %v)", ErrProjectNotFound, name, m.names())
	}
	return name, p, nil
}

func (m *Manifest) names() []string {
	names := make([]string, 0, len(m.Projects))
	for n := range m.Projects {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// SourceRootOrDefault is the project's source root, "src" when unset.
func (p Project) SourceRootOrDefault() string {
	if p.SourceRoot == "" {
		return DefaultSourceRoot
	}
	return p.SourceRoot
}

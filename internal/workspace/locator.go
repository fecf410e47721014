// Package workspace resolves the project layout and the host file that new
// artifacts should be registered in.
package workspace

import (
	"fmt"
	"path"
	"strings"

	"prototyper/internal/tree"
)

const (
	ModuleFile        = "app.module.ts"
	RootComponentFile = "app.component.ts"
	RootTemplateFile  = "app.component.html"
)

// Layout is resolved once per operation and read-only afterwards.
type Layout struct {
	Project               string
	SourceRoot            string
	HostModulePath        string
	HostRootComponentPath string
}

// AppDir is where generated artifacts are staged.
func (l Layout) AppDir() string {
	return path.Join(l.SourceRoot, "app")
}

// RootTemplatePath is the root component's template, the target of usage markers.
func (l Layout) RootTemplatePath() string {
	return path.Join(l.AppDir(), RootTemplateFile)
}

// Options mirrors the caller's integration choices.
type Options struct {
	Module     string // explicit host file, used verbatim
	SkipImport bool   // caller will wire the artifact manually
	Project    string // workspace project; empty means the manifest default
}

// Location is the locator's answer. An empty Host is the "no integration
// point" result; Reason then says why.
type Location struct {
	Layout Layout
	Host   string
	Reason string
}

func (l Location) Found() bool { return l.Host != "" }

// Locate resolves the layout and host file. Only the manifest path can fail:
// an explicit module and an opted-out caller never require the manifest.
func Locate(t tree.Tree, opts Options) (Location, error) {
	if opts.Module != "" {
		host := opts.Module
		if clean, err := tree.Clean(host); err == nil {
			host = clean
		}
		return Location{
			Layout: Layout{Project: opts.Project, SourceRoot: sourceRootOf(host)},
			Host:   host,
		}, nil
	}

	if opts.SkipImport {
		layout := Layout{Project: opts.Project, SourceRoot: DefaultSourceRoot}
		if m, err := ReadManifest(t); err == nil {
			if name, p, err := m.Resolve(opts.Project); err == nil {
				layout = Layout{Project: name, SourceRoot: p.SourceRootOrDefault()}
			}
		}
		return Location{Layout: layout, Reason: "integration skipped by request"}, nil
	}

	m, err := ReadManifest(t)
	if err != nil {
		return Location{}, err
	}
	name, p, err := m.Resolve(opts.Project)
	if err != nil {
		return Location{}, err
	}

	layout := Layout{Project: name, SourceRoot: p.SourceRootOrDefault()}
	if modulePath := path.Join(layout.AppDir(), ModuleFile); t.Exists(modulePath) {
		layout.HostModulePath = modulePath
		return Location{Layout: layout, Host: modulePath}, nil
	}
	if rootPath := path.Join(layout.AppDir(), RootComponentFile); t.Exists(rootPath) {
		layout.HostRootComponentPath = rootPath
		return Location{Layout: layout, Host: rootPath}, nil
	}

	return Location{
		Layout: layout,
		Reason: fmt.Sprintf("no %s or %s under %s; import the component manually", ModuleFile, RootComponentFile, layout.AppDir()),
	}, nil
}

// sourceRootOf derives the source root from an explicit host path
// (src/app/app.module.ts -> src).
func sourceRootOf(host string) string {
	if strings.HasPrefix(host, "app/") {
		return "."
	}
	if i := strings.Index(host, "/app/"); i > 0 {
		return host[:i]
	}
	return DefaultSourceRoot
}
